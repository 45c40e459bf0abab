package suratgen

import (
	"strings"

	"github.com/beevik/etree"
)

// replacement - one resolved token span in a paragraph's concatenated text.
type replacement struct {
	start, end int
	value      string
}

// Substitute - replace every <<NAME>> whose name (case-insensitive) is a key of
// values, in the main document, headers and footers. A token may be split
// across any number of runs; the value lands in the run where the token
// starts. Unknown names and table tokens stay as they are.
func (d *Docx) Substitute(values map[string]string) *Docx {
	lookup := normalizeKeys(values)
	for _, name := range d.textPartNames() {
		x, ok := d.parts[name]
		if !ok {
			continue
		}
		for _, p := range paragraphs(x) {
			substituteParagraph(p, lookup)
		}
	}
	return d
}

// substituteParagraph resolves all tokens of one paragraph in a single pass
// over its concatenated text. Paragraphs without a resolvable token are left
// untouched.
func substituteParagraph(p *etree.Element, lookup map[string]string) {
	nodes := textNodes(p)
	if len(nodes) == 0 {
		return
	}

	starts := make([]int, len(nodes))
	var full strings.Builder
	for i, t := range nodes {
		starts[i] = full.Len()
		full.WriteString(t.Text())
	}
	text := full.String()
	if !strings.Contains(text, TokenOpen) {
		return
	}

	var hits []replacement
	for _, loc := range tokenPattern.FindAllStringSubmatchIndex(text, -1) {
		name := NormalizeName(text[loc[2]:loc[3]])
		if IsTableToken(name) {
			continue
		}
		value, ok := lookup[name]
		if !ok {
			continue
		}
		hits = append(hits, replacement{start: loc[0], end: loc[1], value: value})
	}
	if len(hits) == 0 {
		return
	}

	for i, t := range nodes {
		segStart := starts[i]
		segEnd := segStart + len(t.Text())
		updated, changed := rewriteSegment(text, segStart, segEnd, hits)
		if changed {
			setNodeText(t, updated)
		}
	}
}

// rewriteSegment - the new text of the w:t covering text[segStart:segEnd].
// Text inside a token span is dropped; the value is written by the segment
// holding the token's first byte.
func rewriteSegment(text string, segStart, segEnd int, hits []replacement) (string, bool) {
	var (
		b       strings.Builder
		pos     = segStart
		changed bool
	)
	for _, h := range hits {
		if h.end <= segStart || h.start >= segEnd {
			continue
		}
		changed = true
		if h.start > pos {
			b.WriteString(text[pos:h.start])
		}
		if h.start >= segStart {
			b.WriteString(h.value)
		}
		pos = min(h.end, segEnd)
	}
	if !changed {
		return "", false
	}
	if pos < segEnd {
		b.WriteString(text[pos:segEnd])
	}
	return b.String(), true
}
