package suratgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// tableMatch - a paragraph consisting of a single table token.
type tableMatch struct {
	paragraph *etree.Element
	token     string
}

// InsertTables - replace every paragraph holding only <<table>>,
// <<table_add>> or <<table_delete>> with the generated title/table blocks the
// set resolves for it. Matches are handled last to first; each insertion is
// anchored on the paragraph's parent and current sibling position. Tokens the
// set has no groups for are left in place. A token whose tables fail to
// build is also left in place and reported in the returned error.
func (d *Docx) InsertTables(set TableSet) error {
	x := d.body()
	if x == nil {
		return nil
	}

	var matches []tableMatch
	for _, p := range paragraphs(x) {
		m := tableTokenPattern.FindStringSubmatch(strings.TrimSpace(paragraphText(p)))
		if m == nil {
			continue
		}
		matches = append(matches, tableMatch{paragraph: p, token: strings.ToUpper(m[1])})
	}

	var errs []error
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		groups := set.groupsFor(m.token)
		if len(groups) == 0 {
			continue
		}
		blocks, err := parseFragment(renderGroups(groups))
		if err != nil {
			errs = append(errs, fmt.Errorf("<<%s>>: %w", strings.ToLower(m.token), err))
			continue
		}
		replaceParagraph(m.paragraph, blocks)
	}
	return errors.Join(errs...)
}

// replaceParagraph - put blocks right after p in its parent, then drop p.
func replaceParagraph(p *etree.Element, blocks []*etree.Element) {
	parent := p.Parent()
	if parent == nil {
		return
	}
	for i, b := range blocks {
		parent.InsertChildAt(p.Index()+1+i, b)
	}
	parent.RemoveChild(p)

	// a table cell must end with a paragraph
	if isW(parent, "tc") {
		kids := parent.ChildElements()
		if len(kids) == 0 || !isW(kids[len(kids)-1], "p") {
			parent.AddChild(etree.NewElement("w:p"))
		}
	}
}

// parseFragment - parse a run of w: block elements generated as XML text.
func parseFragment(fragment string) ([]*etree.Element, error) {
	wrapped := fmt.Sprintf(`<w:fragment xmlns:w="%s">%s</w:fragment>`, WordNamespace, fragment)
	x := etree.NewDocument()
	if err := x.ReadFromString(wrapped); err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	root := x.Root()
	if root == nil {
		return nil, fmt.Errorf("parse fragment: empty")
	}
	blocks := root.ChildElements()
	for _, b := range blocks {
		root.RemoveChild(b)
	}
	return blocks, nil
}
