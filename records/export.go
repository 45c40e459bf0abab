package records

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExportHeaders - column titles of the history export.
var ExportHeaders = []string{
	"Rujukan", "Nama Syarikat", "Alamat", "Tarikh", "Jenis Borang",
	"Kategori", "Sub-Kategori", "Status", "Pegawai", "Tarikh Rekod",
}

const exportSheet = "Sejarah"

func exportRow(r Record) []string {
	return []string{
		r.RujukanKami, r.NamaSyarikat, r.Alamat, r.Tarikh, r.FormType,
		r.Category, r.SubOption, r.Status, r.NamaPegawai,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// WriteCSV - records as CSV with a header line.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(exportRow(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX - records as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, recs []Record) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range ExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for row, r := range recs {
		for col, v := range exportRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}
	_ = f.SetColWidth(exportSheet, "A", "J", 22)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
