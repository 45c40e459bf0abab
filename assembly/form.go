package assembly

import (
	"fmt"
	"strings"
	"time"

	"suratgen"
	"suratgen/placeholders"
	"suratgen/records"
)

// Form - the submitted letter data as read from JSON. Dates use the
// DD/MM/YYYY form; other layouts ParseDate understands are accepted too.
type Form struct {
	FormType     string              `json:"form_type"`
	Template     string              `json:"template"`
	SubOption    string              `json:"sub_option,omitempty"`
	Rujukan      string              `json:"rujukan"`
	AMES         bool                `json:"ames,omitempty"`
	RujukanTuan  string              `json:"rujukan_tuan,omitempty"`
	NamaSyarikat string              `json:"nama_syarikat"`
	Alamat       []string            `json:"alamat,omitempty"`
	Tarikh       string              `json:"tarikh,omitempty"` // empty: today
	TarikhMula   string              `json:"tarikh_mula,omitempty"`
	TarikhTamat  string              `json:"tarikh_tamat,omitempty"`
	NamaPegawai  string              `json:"nama_pegawai,omitempty"`
	Fields       map[string]string   `json:"fields,omitempty"`
	Layout       suratgen.Layout     `json:"layout,omitempty"`
	Groups       []suratgen.RowGroup `json:"groups,omitempty"`
	RowsXLSX     string              `json:"rows_xlsx,omitempty"`
	OutputName   string              `json:"output_name,omitempty"`
	PDF          bool                `json:"pdf,omitempty"`
}

// Mapping - placeholder values for the form. Fields are applied last and
// override the derived values.
func (f Form) Mapping(now time.Time) (placeholders.Mapping, error) {
	b := placeholders.NewBuilder()

	switch {
	case f.Rujukan == "":
	case f.AMES:
		b.AddRujukanAMES(f.Rujukan)
	default:
		b.AddRujukan(f.Rujukan)
	}
	if f.RujukanTuan != "" {
		b.AddRujukanTuan(f.RujukanTuan)
	}
	if f.NamaSyarikat != "" {
		b.AddNamaSyarikat(f.NamaSyarikat)
	}
	if len(f.Alamat) > 0 {
		b.AddAlamat(f.Alamat...)
	}
	if f.NamaPegawai != "" {
		b.AddNamaPegawai(f.NamaPegawai)
	}

	date := now
	if strings.TrimSpace(f.Tarikh) != "" {
		t, err := placeholders.ParseDate(f.Tarikh)
		if err != nil {
			return nil, fmt.Errorf("tarikh: %w", err)
		}
		date = t
	}
	b.AddTarikh(date)

	if f.TarikhMula != "" || f.TarikhTamat != "" {
		start, err := placeholders.ParseDate(f.TarikhMula)
		if err != nil {
			return nil, fmt.Errorf("tarikh_mula: %w", err)
		}
		end, err := placeholders.ParseDate(f.TarikhTamat)
		if err != nil {
			return nil, fmt.Errorf("tarikh_tamat: %w", err)
		}
		b.AddTempoh(start, end).AddTempohKelulusan(start, end)
	}

	b.AddExtra(f.Fields)
	return b.Build(), nil
}

// Tables - the table set; extra groups (from a workbook) are appended.
func (f Form) Tables(extra ...suratgen.RowGroup) suratgen.TableSet {
	groups := append(append([]suratgen.RowGroup(nil), f.Groups...), extra...)
	return suratgen.TableSet{Layout: f.Layout, Groups: groups}
}

// Request - a generation request for the form.
func (f Form) Request(now time.Time, outDir string, extra ...suratgen.RowGroup) (Request, error) {
	if strings.TrimSpace(f.Template) == "" {
		return Request{}, fmt.Errorf("form: template is required")
	}
	m, err := f.Mapping(now)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Template:   f.Template,
		Fields:     m,
		Tables:     f.Tables(extra...),
		OutputDir:  outDir,
		OutputName: f.OutputName,
		PDF:        f.PDF,
	}, nil
}

// Record - the history row for a generated letter.
func (f Form) Record(req Request, res *Result, category string) (*records.Record, error) {
	rec := &records.Record{
		FormType:     f.FormType,
		TemplateName: f.Template,
		Category:     category,
		SubOption:    f.SubOption,
		RujukanKami:  req.Fields.Get(placeholders.Rujukan),
		RujukanTuan:  req.Fields.Get(placeholders.RujukanTuan),
		NamaSyarikat: req.Fields.Get(placeholders.NamaSyarikat),
		Alamat:       req.Fields.Get(placeholders.Alamat),
		Tarikh:       req.Fields.Get(placeholders.Tarikh),
		TarikhIslam:  req.Fields.Get(placeholders.TarikhIslam),
		NamaPegawai:  req.Fields.Get(placeholders.NamaPegawai),
		Status:       records.StatusGenerated,
		DocumentPath: res.DocxPath,
		PDFPath:      res.PDFPath,
	}
	if res.PDFErr != nil {
		rec.Status = records.StatusPDFFailed
	}
	if err := rec.SetAdditional(f.Fields); err != nil {
		return nil, err
	}
	return rec, nil
}
