package suratgen

import (
	"regexp"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// ============================================================================
// Paragraph text and <<TOKEN>> scanning
// ============================================================================

// tokenPattern matches <<NAME>>; the delimiters are literal, the name is
// anything without angle brackets.
var tokenPattern = regexp.MustCompile(`<<([^<>]+)>>`)

// tableTokenPattern matches a paragraph that holds nothing but a table token.
var tableTokenPattern = regexp.MustCompile(`(?i)^<<\s*(table|table_add|table_delete)\s*>>$`)

// NormalizeName - the lookup form of a placeholder name: trimmed, upper-case,
// without delimiters.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, TokenOpen)
	name = strings.TrimSuffix(name, TokenClose)
	return strings.ToUpper(strings.TrimSpace(name))
}

// IsTableToken - a normalized name reserved for table insertion.
func IsTableToken(name string) bool {
	switch name {
	case tableToken, tableAddToken, tableDeleteToken:
		return true
	}
	return false
}

func isW(e *etree.Element, tag string) bool {
	return e.Space == "w" && e.Tag == tag
}

// paragraphs - every w:p in the part in document order, including those in
// table cells and text boxes.
func paragraphs(x *etree.Document) []*etree.Element {
	return x.FindElements("//w:p")
}

// textNodes - the w:t elements that carry a paragraph's visible text, in order.
// Paragraphs nested in text boxes are scanned on their own and skipped here.
func textNodes(p *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			switch {
			case isW(c, "p"), isW(c, "txbxContent"), isW(c, "pPr"), isW(c, "rPr"):
				continue
			case isW(c, "t"):
				out = append(out, c)
			default:
				walk(c)
			}
		}
	}
	walk(p)
	return out
}

// paragraphText - concatenated w:t text of a paragraph.
func paragraphText(p *etree.Element) string {
	var b strings.Builder
	for _, t := range textNodes(p) {
		b.WriteString(t.Text())
	}
	return b.String()
}

// setNodeText - write s into a w:t. Line breaks and tabs become w:br / w:tab
// siblings inside the same run, so the run formatting carries over.
func setNodeText(t *etree.Element, s string) {
	if !strings.ContainsAny(s, "\n\t") {
		setPlainText(t, s)
		return
	}

	parent := t.Parent()
	var (
		piece strings.Builder
		extra []*etree.Element
		first = true
	)
	flush := func() {
		if first {
			setPlainText(t, piece.String())
			first = false
		} else if piece.Len() > 0 {
			nt := etree.NewElement("w:t")
			setPlainText(nt, piece.String())
			extra = append(extra, nt)
		}
		piece.Reset()
	}
	for _, r := range strings.ReplaceAll(s, "\r\n", "\n") {
		switch r {
		case '\n':
			flush()
			extra = append(extra, etree.NewElement("w:br"))
		case '\t':
			flush()
			extra = append(extra, etree.NewElement("w:tab"))
		default:
			piece.WriteRune(r)
		}
	}
	flush()

	if parent == nil {
		return
	}
	at := t.Index()
	for i, e := range extra {
		parent.InsertChildAt(at+1+i, e)
	}
}

func setPlainText(t *etree.Element, s string) {
	t.SetText(s)
	if s != strings.TrimSpace(s) {
		t.CreateAttr("xml:space", "preserve")
	}
}

// Placeholders - every distinct <<NAME>> still present in the document, its
// headers and footers, normalized and sorted. Table tokens are included.
func (d *Docx) Placeholders() []string {
	seen := map[string]struct{}{}
	for _, name := range d.textPartNames() {
		x, ok := d.parts[name]
		if !ok {
			continue
		}
		for _, p := range paragraphs(x) {
			text := paragraphText(p)
			if !strings.Contains(text, TokenOpen) {
				continue
			}
			for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
				seen[NormalizeName(m[1])] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Missing - placeholder names in the document that the mapping does not cover.
// Table tokens are not reported.
func (d *Docx) Missing(values map[string]string) []string {
	lookup := normalizeKeys(values)
	var out []string
	for _, name := range d.Placeholders() {
		if IsTableToken(name) {
			continue
		}
		if _, ok := lookup[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

func normalizeKeys(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[NormalizeName(k)] = v
	}
	return out
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// xmlEscape - escape text for the generated XML fragments. Characters XML 1.0
// does not allow (\v and \f from pasted spreadsheet text) are dropped.
func xmlEscape(s string) string {
	return xmlEscaper.Replace(strings.Map(xmlChar, s))
}

func xmlChar(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return r
	case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
		return -1
	}
	return r
}
