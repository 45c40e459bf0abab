package suratgen

import (
	"html"
	"strings"

	"github.com/beevik/etree"
)

// htmlPage wraps the rendered body; A4 with the letter's Arial 11pt.
const htmlPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><style>` +
	`@page{size:A4;margin:2.5cm}` +
	`body{font-family:Arial,Helvetica,sans-serif;font-size:11pt;line-height:1.35}` +
	`p{margin:0 0 6pt 0;min-height:1em}` +
	`table{border-collapse:collapse;width:100%;margin:4pt 0;font-size:10pt}` +
	`td{border:1px solid #000;padding:2pt 4pt;vertical-align:top}` +
	`</style></head><body>%BODY%</body></html>`

// HTML - a simplified HTML page of the main document body: paragraphs
// with bold/italic/underline runs, alignment, line breaks and tables. Used for
// previews and the browser based PDF fallback.
func (d *Docx) HTML() string {
	return WrapHTML(d.BodyHTML())
}

// BodyHTML - the rendered body without the page around it.
func (d *Docx) BodyHTML() string {
	x := d.body()
	if x == nil {
		return ""
	}
	var b strings.Builder
	if body := x.FindElement("//w:body"); body != nil {
		writeBlocks(&b, body)
	}
	return b.String()
}

// WrapHTML puts a body fragment into the A4 page.
func WrapHTML(body string) string {
	return strings.Replace(htmlPage, "%BODY%", body, 1)
}

func writeBlocks(b *strings.Builder, container *etree.Element) {
	for _, c := range container.ChildElements() {
		switch {
		case isW(c, "p"):
			writeParagraph(b, c)
		case isW(c, "tbl"):
			writeTable(b, c)
		case isW(c, "sdt"):
			if content := c.SelectElement("w:sdtContent"); content != nil {
				writeBlocks(b, content)
			}
		}
	}
}

func writeParagraph(b *strings.Builder, p *etree.Element) {
	b.WriteString("<p")
	if jc := p.FindElement("./w:pPr/w:jc"); jc != nil {
		switch jc.SelectAttrValue("w:val", "") {
		case "center":
			b.WriteString(` style="text-align:center"`)
		case "right", "end":
			b.WriteString(` style="text-align:right"`)
		case "both":
			b.WriteString(` style="text-align:justify"`)
		}
	}
	b.WriteString(">")
	for _, r := range p.FindElements(".//w:r") {
		writeRun(b, r)
	}
	b.WriteString("</p>")
}

func writeRun(b *strings.Builder, r *etree.Element) {
	var open, closing string
	if rPr := r.SelectElement("w:rPr"); rPr != nil {
		if on(rPr.SelectElement("w:b")) {
			open, closing = open+"<strong>", "</strong>"+closing
		}
		if on(rPr.SelectElement("w:i")) {
			open, closing = open+"<em>", "</em>"+closing
		}
		if u := rPr.SelectElement("w:u"); u != nil && u.SelectAttrValue("w:val", "single") != "none" {
			open, closing = open+"<u>", "</u>"+closing
		}
	}
	b.WriteString(open)
	for _, c := range r.ChildElements() {
		switch {
		case isW(c, "t"):
			b.WriteString(html.EscapeString(c.Text()))
		case isW(c, "br"), isW(c, "cr"):
			b.WriteString("<br>")
		case isW(c, "tab"):
			b.WriteString("&emsp;")
		}
	}
	b.WriteString(closing)
}

// on - a toggle property such as <w:b/> or <w:b w:val="false"/>.
func on(e *etree.Element) bool {
	if e == nil {
		return false
	}
	switch e.SelectAttrValue("w:val", "true") {
	case "false", "0", "off":
		return false
	}
	return true
}

func writeTable(b *strings.Builder, tbl *etree.Element) {
	b.WriteString("<table>")
	for _, tr := range tbl.SelectElements("w:tr") {
		b.WriteString("<tr>")
		for _, tc := range tr.SelectElements("w:tc") {
			b.WriteString("<td")
			if shd := tc.FindElement("./w:tcPr/w:shd"); shd != nil {
				if fill := shd.SelectAttrValue("w:fill", ""); fill != "" && fill != "auto" {
					b.WriteString(` style="background-color:#` + html.EscapeString(fill) + `"`)
				}
			}
			b.WriteString(">")
			writeBlocks(b, tc)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
}
