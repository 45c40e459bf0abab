package suratgen

// Package parts
const (
	DocumentPart = "word/document.xml"

	WordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// Placeholder delimiters
const (
	TokenOpen  = "<<"
	TokenClose = ">>"
)

// Table token names, compared after upper-casing
const (
	tableToken       = "TABLE"
	tableAddToken    = "TABLE_ADD"
	tableDeleteToken = "TABLE_DELETE"
)

// XML fragments for generated tables
const (
	TableOpeningTag    = "<w:tbl>"
	TableEndingTag     = "</w:tbl>"
	TableRowOpeningTag = "<w:tr>"
	TableRowClosingTag = "</w:tr>"

	// Line break inside a run
	NewLineInText = `</w:t><w:br/><w:t xml:space="preserve">`

	// Table properties: full width, single borders
	tableProperties = `<w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:left w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:right w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
		`</w:tblBorders><w:tblLayout w:type="autofit"/></w:tblPr>`

	// Header rows repeat on every page
	headerRowProperties = `<w:trPr><w:tblHeader/></w:trPr>`

	// %d width, %s shading, %s alignment, %s bold marker, %s text
	tableCellFormat = `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>%s</w:tcPr>` +
		`<w:p><w:pPr><w:spacing w:before="0" w:after="0"/><w:jc w:val="%s"/></w:pPr>` +
		`<w:r><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/>%s` +
		`<w:sz w:val="20"/><w:szCs w:val="20"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`

	// %s fill colour
	cellShadingFormat = `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`

	// Title line above a generated table, %s text
	titleParagraphFormat = `<w:p><w:pPr><w:spacing w:before="120" w:after="60"/><w:jc w:val="left"/></w:pPr>` +
		`<w:r><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/><w:b/>` +
		`<w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`

	boldMarker = "<w:b/><w:bCs/>"

	// Twentieths of a point across the usable A4 width
	tableWidthTwips = 9000
)
