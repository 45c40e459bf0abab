package assembly

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"suratgen"
)

// LoadRowGroups reads table rows from a workbook. Each sheet named after a
// group kind (TRADER, MANUFACTURER_RAW, VEHICLE, ADD and so on) becomes one group:
// its first non-blank row is the header, blank rows are skipped. Other sheets are
// ignored.
func LoadRowGroups(r io.Reader) ([]suratgen.RowGroup, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var groups []suratgen.RowGroup
	for _, sheet := range f.GetSheetList() {
		kind, err := suratgen.ParseGroupKind(sheet)
		if err != nil {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}

		g := suratgen.RowGroup{Kind: kind}
		for _, row := range rows {
			if blank(row) {
				continue
			}
			if g.Headers == nil {
				g.Headers = trimAll(row)
				continue
			}
			g.Rows = append(g.Rows, trimAll(row))
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
