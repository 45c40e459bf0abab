// Package assembly turns one form submission into a letter: template lookup,
// placeholder substitution, table insertion, docx output and optional PDF.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"suratgen"
	"suratgen/convert"
	"suratgen/placeholders"
)

// TemplateSource - where template bytes come from.
type TemplateSource interface {
	Resolve(name string) ([]byte, error)
}

// Request - one generation call.
type Request struct {
	Template   string               // exact template file name
	Fields     placeholders.Mapping // built placeholder values
	Tables     suratgen.TableSet    // Layout LayoutNone skips table insertion
	OutputDir  string
	OutputName string // empty: derived from template and reference
	PDF        bool
}

// Result - what was produced. PDFErr is set when the docx was written but
// the PDF step failed; it never fails the call.
type Result struct {
	DocxPath   string
	PDFPath    string
	PDFErr     error
	Unresolved []string // placeholder names left literal in the output
}

// Assembler wires the store and converter together.
type Assembler struct {
	Store     TemplateSource
	Converter convert.Converter // nil: no PDF
	now       func() time.Time
}

// New - an assembler; conv may be nil.
func New(store TemplateSource, conv convert.Converter) *Assembler {
	return &Assembler{Store: store, Converter: conv, now: time.Now}
}

// Build - resolve and fill the template without writing anything.
func (a *Assembler) Build(req Request) (*suratgen.Docx, error) {
	data, err := a.Store.Resolve(req.Template)
	if err != nil {
		return nil, err
	}
	doc, err := suratgen.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", req.Template, err)
	}

	doc.Substitute(req.Fields)
	if req.Tables.Layout != suratgen.LayoutNone {
		if err := doc.InsertTables(req.Tables); err != nil {
			return nil, fmt.Errorf("template %s: tables: %w", req.Template, err)
		}
	}
	return doc, nil
}

// Generate - Build, save, then convert when asked.
func (a *Assembler) Generate(ctx context.Context, req Request) (*Result, error) {
	doc, err := a.Build(req)
	if err != nil {
		return nil, err
	}

	dir := req.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	name := req.OutputName
	if name == "" {
		name = a.outputName(req)
	}
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		name += ".docx"
	}

	// the name may come from a client; keep it inside dir
	path, err := securejoin.SecureJoin(dir, name)
	if err != nil {
		return nil, fmt.Errorf("output name %q: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	res := &Result{
		DocxPath:   path,
		Unresolved: doc.Missing(req.Fields),
	}
	if err := doc.Save(res.DocxPath); err != nil {
		return nil, fmt.Errorf("save %s: %w", res.DocxPath, err)
	}

	if req.PDF {
		if a.Converter == nil {
			res.PDFErr = fmt.Errorf("%w: %w", convert.ErrConversionFailed, convert.ErrConverterMissing)
		} else if pdf, err := a.Converter.Convert(ctx, res.DocxPath); err != nil {
			if !errors.Is(err, convert.ErrConversionFailed) {
				err = fmt.Errorf("%w: %w", convert.ErrConversionFailed, err)
			}
			res.PDFErr = err
		} else {
			res.PDFPath = pdf
		}
	}
	return res, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// outputName - "<template>_<reference>_<timestamp>.docx", filesystem safe.
func (a *Assembler) outputName(req Request) string {
	base := strings.TrimSuffix(req.Template, filepath.Ext(req.Template))
	parts := []string{base}
	ref := req.Fields.Get(placeholders.Rujukan)
	if seg := ref[strings.LastIndex(ref, "/")+1:]; seg != "" {
		parts = append(parts, seg)
	}
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	parts = append(parts, now().Format("20060102_150405"))

	name := unsafeName.ReplaceAllString(strings.Join(parts, "_"), "_")
	return strings.Trim(name, "_") + ".docx"
}
