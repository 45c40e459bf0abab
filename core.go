package suratgen

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// ErrMalformedTemplate is returned when a template cannot be read as a docx
// package or one of its XML parts does not parse.
var ErrMalformedTemplate = errors.New("malformed template")

// Docx - an opened docx package: raw archive entries plus the parsed XML parts
// that the engines work on.
type Docx struct {
	files map[string][]byte         // archive entry -> bytes
	order []string                  // archive order, kept on save
	parts map[string]*etree.Document // parsed text parts (document, headers, footers)
}

// Open - read a docx from disk.
func Open(path string) (*Docx, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes - read a docx from memory. The main document and every header
// and footer part are parsed up front; any failure is ErrMalformedTemplate.
func OpenBytes(data []byte) (*Docx, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
	}

	doc := &Docx{
		files: make(map[string][]byte, len(r.File)),
		parts: make(map[string]*etree.Document),
	}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: read entry %s: %v", ErrMalformedTemplate, f.Name, err)
		}
		buf, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read entry %s: %v", ErrMalformedTemplate, f.Name, err)
		}
		doc.files[f.Name] = buf
		doc.order = append(doc.order, f.Name)
	}

	if _, ok := doc.files[DocumentPart]; !ok {
		return nil, fmt.Errorf("%w: no %s in package", ErrMalformedTemplate, DocumentPart)
	}
	for _, name := range doc.textPartNames() {
		x := etree.NewDocument()
		if err := x.ReadFromBytes(doc.files[name]); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformedTemplate, name, err)
		}
		if x.Root() == nil {
			return nil, fmt.Errorf("%w: %s has no root element", ErrMalformedTemplate, name)
		}
		doc.parts[name] = x
	}
	return doc, nil
}

// textPartNames - document.xml first, then headers and footers in name order.
func (d *Docx) textPartNames() []string {
	names := []string{DocumentPart}
	var extra []string
	for name := range d.files {
		dir, base := path.Split(name)
		if dir != "word/" || !strings.HasSuffix(base, ".xml") {
			continue
		}
		if strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer") {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// body - the parsed main document.
func (d *Docx) body() *etree.Document {
	return d.parts[DocumentPart]
}

// Save - write the package to disk.
func (d *Docx) Save(path string) error {
	buf := new(bytes.Buffer)
	if err := d.SaveToWriter(buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Bytes - the package as a zip archive.
func (d *Docx) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := d.SaveToWriter(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToWriter - serialize parsed parts back and write every entry as a zip.
func (d *Docx) SaveToWriter(w io.Writer) error {
	if err := d.flushParts(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, name := range d.order {
		data := d.files[name]

		clean := strings.TrimPrefix(name, "/")
		clean = strings.ReplaceAll(clean, "\\", "/")
		clean = strings.TrimSpace(clean)
		if clean == "" {
			continue
		}

		h := &zip.FileHeader{
			Name:   clean,
			Method: zip.Deflate,
		}
		// Word rejects entries with a zero timestamp
		h.Modified = time.Now().UTC()

		f, err := zw.CreateHeader(h)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", clean, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", clean, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func (d *Docx) flushParts() error {
	for name, x := range d.parts {
		out, err := x.WriteToBytes()
		if err != nil {
			return fmt.Errorf("serialize %s: %w", name, err)
		}
		d.files[name] = out
	}
	return nil
}

// GetFile - raw bytes of an archive entry, with parsed parts serialized first.
func (d *Docx) GetFile(name string) ([]byte, bool) {
	if x, ok := d.parts[name]; ok {
		out, err := x.WriteToBytes()
		if err != nil {
			return nil, false
		}
		return out, true
	}
	data, ok := d.files[name]
	return data, ok
}

// SetFile - replace or add an archive entry. Text parts are re-parsed.
func (d *Docx) SetFile(name string, data []byte) error {
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, "\\", "/")

	if _, ok := d.files[name]; !ok {
		d.order = append(d.order, name)
	}
	d.files[name] = data

	if _, parsed := d.parts[name]; parsed {
		x := etree.NewDocument()
		if err := x.ReadFromBytes(data); err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrMalformedTemplate, name, err)
		}
		d.parts[name] = x
	}
	return nil
}

// Content - the main document XML as a string.
func (d *Docx) Content() (string, error) {
	data, ok := d.GetFile(DocumentPart)
	if !ok {
		return "", fmt.Errorf("no document.xml in docx")
	}
	return string(data), nil
}

// UpdateContent - replace the main document XML.
func (d *Docx) UpdateContent(content string) error {
	return d.SetFile(DocumentPart, []byte(content))
}

