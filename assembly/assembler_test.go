package assembly

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suratgen"
	"suratgen/convert"
	"suratgen/placeholders"
	"suratgen/records"
	"suratgen/templatestore"
)

var fixedNow = time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)

func makeDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(p))
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `<w:sectPr/></w:body></w:document>`

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	w, err := zw.Create(suratgen.DocumentPart)
	require.NoError(t, err)
	_, _ = io.WriteString(w, doc)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// mapSource serves templates from memory.
type mapSource map[string][]byte

func (m mapSource) Resolve(name string) ([]byte, error) {
	if data, ok := m[name]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", templatestore.ErrTemplateNotFound, name)
}

type stubConverter struct {
	err error
}

func (s stubConverter) Name() string { return "stub" }

func (s stubConverter) Convert(_ context.Context, docxPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	out := strings.TrimSuffix(docxPath, ".docx") + ".pdf"
	return out, os.WriteFile(out, []byte("%PDF-1.4"), 0644)
}

func newTestAssembler(src TemplateSource, conv convert.Converter) *Assembler {
	a := New(src, conv)
	a.now = func() time.Time { return fixedNow }
	return a
}

func letterTemplate(t *testing.T) []byte {
	return makeDocx(t,
		"Ruj. Kami: <<RUJUKAN_KAMI>>",
		"<<NAMA_SYARIKAT>>",
		"<<TABLE>>",
		"No. Kelulusan: <<NO_KELULUSAN>>",
	)
}

func traderSet() suratgen.TableSet {
	return suratgen.TableSet{
		Layout: suratgen.LayoutTrader,
		Groups: []suratgen.RowGroup{{
			Kind: suratgen.GroupTrader,
			Rows: [][]string{{"1", "8471.30", "Komputer riba", "10"}},
		}},
	}
}

func TestGenerate_FillsAndInserts(t *testing.T) {
	out := t.TempDir()
	a := newTestAssembler(mapSource{"ames_pedagang.docx": letterTemplate(t)}, nil)
	fields := placeholders.NewBuilder().AddRujukan("1234").AddNamaSyarikat("syarikat abc").Build()

	res, err := a.Generate(context.Background(), Request{
		Template:  "ames_pedagang.docx",
		Fields:    fields,
		Tables:    traderSet(),
		OutputDir: filepath.Join(out, "nested"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "nested", "ames_pedagang_1234_20250301_140509.docx"), res.DocxPath)
	assert.Equal(t, []string{placeholders.NoKelulusan}, res.Unresolved)
	assert.Empty(t, res.PDFPath)
	assert.NoError(t, res.PDFErr)

	doc, err := suratgen.Open(res.DocxPath)
	require.NoError(t, err)
	xml, err := doc.Content()
	require.NoError(t, err)
	assert.Contains(t, xml, "KE.JB(90)650/05-02/1234")
	assert.Contains(t, xml, "SYARIKAT ABC")
	assert.Contains(t, xml, "Komputer riba")
	assert.Contains(t, xml, "<w:tbl>")
	assert.Equal(t, []string{placeholders.NoKelulusan}, doc.Placeholders())
}

func TestGenerate_NoLayoutLeavesTableToken(t *testing.T) {
	a := newTestAssembler(mapSource{"a.docx": letterTemplate(t)}, nil)
	doc, err := a.Build(Request{Template: "a.docx", Tables: suratgen.TableSet{Groups: traderSet().Groups}})
	require.NoError(t, err)
	assert.Contains(t, doc.Placeholders(), "TABLE")
}

func TestGenerate_TemplateNotFound(t *testing.T) {
	out := t.TempDir()
	a := newTestAssembler(mapSource{}, nil)
	_, err := a.Generate(context.Background(), Request{Template: "tiada.docx", OutputDir: out})
	assert.ErrorIs(t, err, templatestore.ErrTemplateNotFound)

	entries, _ := os.ReadDir(out)
	assert.Empty(t, entries)
}

func TestGenerate_MalformedTemplate(t *testing.T) {
	out := t.TempDir()
	a := newTestAssembler(mapSource{"rosak.docx": []byte("not a zip")}, nil)
	_, err := a.Generate(context.Background(), Request{Template: "rosak.docx", OutputDir: out})
	assert.ErrorIs(t, err, suratgen.ErrMalformedTemplate)

	entries, _ := os.ReadDir(out)
	assert.Empty(t, entries, "nothing is written for a bad template")
}

func TestGenerate_PDF(t *testing.T) {
	src := mapSource{"a.docx": letterTemplate(t)}

	t.Run("converted", func(t *testing.T) {
		res, err := newTestAssembler(src, stubConverter{}).Generate(context.Background(), Request{
			Template: "a.docx", OutputDir: t.TempDir(), OutputName: "surat", PDF: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "surat.docx", filepath.Base(res.DocxPath))
		assert.FileExists(t, res.PDFPath)
		assert.NoError(t, res.PDFErr)
	})

	t.Run("converter fails", func(t *testing.T) {
		failure := fmt.Errorf("%w: soffice crashed", convert.ErrConversionFailed)
		res, err := newTestAssembler(src, stubConverter{err: failure}).Generate(context.Background(), Request{
			Template: "a.docx", OutputDir: t.TempDir(), PDF: true,
		})
		require.NoError(t, err, "a pdf failure never fails generation")
		assert.FileExists(t, res.DocxPath)
		assert.Empty(t, res.PDFPath)
		assert.ErrorIs(t, res.PDFErr, convert.ErrConversionFailed)
	})

	t.Run("plain converter error", func(t *testing.T) {
		boom := errors.New("boom")
		res, err := newTestAssembler(src, stubConverter{err: boom}).Generate(context.Background(), Request{
			Template: "a.docx", OutputDir: t.TempDir(), PDF: true,
		})
		require.NoError(t, err)
		assert.ErrorIs(t, res.PDFErr, convert.ErrConversionFailed)
		assert.ErrorIs(t, res.PDFErr, boom)
	})

	t.Run("no converter", func(t *testing.T) {
		res, err := newTestAssembler(src, nil).Generate(context.Background(), Request{
			Template: "a.docx", OutputDir: t.TempDir(), PDF: true,
		})
		require.NoError(t, err)
		assert.FileExists(t, res.DocxPath)
		assert.ErrorIs(t, res.PDFErr, convert.ErrConverterMissing)
	})

	t.Run("not asked", func(t *testing.T) {
		res, err := newTestAssembler(src, stubConverter{err: errors.New("unused")}).Generate(context.Background(), Request{
			Template: "a.docx", OutputDir: t.TempDir(),
		})
		require.NoError(t, err)
		assert.NoError(t, res.PDFErr)
	})
}

func TestGenerate_OutputNameStaysInOutputDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "output")
	src := mapSource{"a.docx": letterTemplate(t)}

	for _, name := range []string{"../escaped", "../../escaped.docx", "/../escaped"} {
		res, err := newTestAssembler(src, nil).Generate(context.Background(), Request{
			Template: "a.docx", OutputDir: out, OutputName: name,
		})
		require.NoError(t, err, name)
		assert.Equal(t, filepath.Join(out, "escaped.docx"), res.DocxPath, name)
		assert.FileExists(t, res.DocxPath)
	}
	assert.NoFileExists(t, filepath.Join(root, "escaped.docx"))

	res, err := newTestAssembler(src, nil).Generate(context.Background(), Request{
		Template: "a.docx", OutputDir: out, OutputName: "2025/surat",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "2025", "surat.docx"), res.DocxPath)
	assert.FileExists(t, res.DocxPath)
}

func TestGenerate_ControlCharactersInRows(t *testing.T) {
	src := mapSource{"a.docx": letterTemplate(t)}
	set := traderSet()
	set.Groups[0].Rows = [][]string{{"1", "8471.30", "Komputer\vriba\f", "10"}}

	res, err := newTestAssembler(src, nil).Generate(context.Background(), Request{
		Template: "a.docx", Tables: set, OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	doc, err := suratgen.Open(res.DocxPath)
	require.NoError(t, err)
	xml, err := doc.Content()
	require.NoError(t, err)
	assert.Contains(t, xml, "<w:tbl>")
	assert.Contains(t, xml, "Komputerriba")
	assert.NotContains(t, doc.Placeholders(), "TABLE")
}

func TestOutputName(t *testing.T) {
	a := newTestAssembler(nil, nil)
	tests := map[string]struct {
		template string
		fields   placeholders.Mapping
		want     string
	}{
		"no reference":  {"signUpB.docx", nil, "signUpB_20250301_140509.docx"},
		"last segment":  {"ames_pedagang.docx", placeholders.Mapping{placeholders.Rujukan: "KE.JB(90)650/14/AMES/77"}, "ames_pedagang_77_20250301_140509.docx"},
		"unsafe chars":  {"surat lulus.docx", placeholders.Mapping{placeholders.Rujukan: "A B:C"}, "surat_lulus_A_B_C_20250301_140509.docx"},
		"only a prefix": {"x.docx", placeholders.Mapping{placeholders.Rujukan: "ABC/"}, "x_20250301_140509.docx"},
	}
	for name, tt := range tests {
		got := a.outputName(Request{Template: tt.template, Fields: tt.fields})
		assert.Equal(t, tt.want, got, name)
	}
}

func TestForm_Mapping(t *testing.T) {
	f := Form{
		Rujukan:      "55",
		AMES:         true,
		NamaSyarikat: "kilang xyz",
		Alamat:       []string{"Lot 5", "Pasir Gudang"},
		Tarikh:       "01/03/2025",
		TarikhMula:   "01/01/2025",
		TarikhTamat:  "31/01/2025",
		Fields:       map[string]string{"no_kelulusan": "K-9"},
	}
	m, err := f.Mapping(fixedNow)
	require.NoError(t, err)
	assert.Equal(t, placeholders.RujukanAMESPrefix+"55", m.Get(placeholders.Rujukan))
	assert.Equal(t, "KILANG XYZ", m.Get(placeholders.NamaSyarikat))
	assert.Equal(t, "Lot 5\nPasir Gudang", m.Get(placeholders.Alamat))
	assert.Equal(t, "1 Ramadhan 1446H", m.Get(placeholders.TarikhIslam))
	assert.Equal(t, "tiga puluh (30) hari", m.Get(placeholders.Tempoh))
	assert.Equal(t, "K-9", m.Get(placeholders.NoKelulusan))
	_, hasPegawai := m[placeholders.NamaPegawai]
	assert.False(t, hasPegawai)
}

func TestForm_MappingDefaultsAndErrors(t *testing.T) {
	m, err := Form{}.Mapping(fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "01/03/2025", m.Get(placeholders.Tarikh))
	_, hasRef := m[placeholders.Rujukan]
	assert.False(t, hasRef)

	_, err = Form{Tarikh: "esok"}.Mapping(fixedNow)
	assert.Error(t, err)
	_, err = Form{TarikhMula: "01/01/2025"}.Mapping(fixedNow)
	assert.Error(t, err, "a period needs both ends")
}

func TestForm_RequestAndRecord(t *testing.T) {
	extra := suratgen.RowGroup{Kind: suratgen.GroupVehicle, Rows: [][]string{{"1", "JQA 1234"}}}
	f := Form{
		FormType:     "AMES_TRADER",
		Template:     "ames_pedagang.docx",
		Rujukan:      "7",
		NamaSyarikat: "abc",
		Layout:       suratgen.LayoutTrader,
		Groups:       traderSet().Groups,
		Fields:       map[string]string{"STATUS": "LULUS"},
		PDF:          true,
	}
	req, err := f.Request(fixedNow, "/out", extra)
	require.NoError(t, err)
	assert.Equal(t, "ames_pedagang.docx", req.Template)
	assert.Equal(t, "/out", req.OutputDir)
	assert.True(t, req.PDF)
	assert.Equal(t, suratgen.LayoutTrader, req.Tables.Layout)
	require.Len(t, req.Tables.Groups, 2)
	assert.Equal(t, suratgen.GroupVehicle, req.Tables.Groups[1].Kind)

	res := &Result{DocxPath: "/out/a.docx", PDFErr: convert.ErrConverterMissing}
	rec, err := f.Record(req, res, "APPROVAL")
	require.NoError(t, err)
	assert.Equal(t, records.StatusPDFFailed, rec.Status)
	assert.Equal(t, "ABC", rec.NamaSyarikat)
	assert.Equal(t, placeholders.RujukanPrefix+"7", rec.RujukanKami)
	assert.Equal(t, "APPROVAL", rec.Category)
	extraData, err := rec.Additional()
	require.NoError(t, err)
	assert.Equal(t, "LULUS", extraData["STATUS"])

	_, err = Form{}.Request(fixedNow, "")
	assert.Error(t, err)
}

func TestForm_JSON(t *testing.T) {
	var f Form
	dec := strings.NewReader(`{"template":"a.docx","layout":"manufacturer","groups":[{"kind":"manufacturer_raw","rows":[["1","x"]]}]}`)
	require.NoError(t, json.NewDecoder(dec).Decode(&f))
	assert.Equal(t, suratgen.LayoutManufacturer, f.Layout)
	require.Len(t, f.Groups, 1)
	assert.Equal(t, suratgen.GroupManufacturerRaw, f.Groups[0].Kind)
}
