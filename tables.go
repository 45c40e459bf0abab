package suratgen

import (
	"fmt"
	"strings"
)

// GroupKind - which row data a generated table is built from.
type GroupKind int

const (
	GroupTrader GroupKind = iota + 1
	GroupManufacturerRaw
	GroupManufacturerFinished
	GroupVehicle
	GroupAdd
	GroupDelete
)

var groupKindNames = map[GroupKind]string{
	GroupTrader:               "TRADER",
	GroupManufacturerRaw:      "MANUFACTURER_RAW",
	GroupManufacturerFinished: "MANUFACTURER_FINISHED",
	GroupVehicle:              "VEHICLE",
	GroupAdd:                  "ADD",
	GroupDelete:               "DELETE",
}

func (k GroupKind) String() string {
	if s, ok := groupKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("GroupKind(%d)", int(k))
}

// ParseGroupKind - case-insensitive inverse of String.
func ParseGroupKind(s string) (GroupKind, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range groupKindNames {
		if name == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown table group %q", s)
}

func (k GroupKind) MarshalText() ([]byte, error) {
	if _, ok := groupKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown table group %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *GroupKind) UnmarshalText(b []byte) error {
	v, err := ParseGroupKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Layout - the letter context that decides what a bare <<table>> expands to.
type Layout int

const (
	LayoutNone Layout = iota
	LayoutTrader
	LayoutManufacturer
	LayoutVehicle
	LayoutItemChange
)

var layoutNames = map[Layout]string{
	LayoutNone:         "",
	LayoutTrader:       "TRADER",
	LayoutManufacturer: "MANUFACTURER",
	LayoutVehicle:      "VEHICLE",
	LayoutItemChange:   "ITEM_CHANGE",
}

func (l Layout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout - case-insensitive inverse of String; "" is LayoutNone.
func ParseLayout(s string) (Layout, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for l, name := range layoutNames {
		if name == want {
			return l, nil
		}
	}
	return LayoutNone, fmt.Errorf("unknown table layout %q", s)
}

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(b []byte) error {
	v, err := ParseLayout(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// RowGroup - header and rows of one generated table.
type RowGroup struct {
	Kind    GroupKind  `json:"kind"`
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
	Fill    string     `json:"fill,omitempty"` // data row shading, hex RGB
}

// TableSet - everything the table engine needs for one document.
type TableSet struct {
	Layout Layout     `json:"layout"`
	Groups []RowGroup `json:"groups"`
}

// Group - the first group of the given kind.
func (s TableSet) Group(kind GroupKind) (RowGroup, bool) {
	for _, g := range s.Groups {
		if g.Kind == kind {
			return g, true
		}
	}
	return RowGroup{}, false
}

// Default header rows per group kind
var (
	TraderHeaders      = []string{"BIL.", "KOD TARIF", "DESKRIPSI", "TARIKH KUATKUASA"}
	RawMaterialHeaders = []string{"BIL.", "KOD TARIF", "DESKRIPSI", "NISBAH", "TARIKH KUATKUASA"}
	VehicleHeaders     = []string{"NO CHASIS", "NO ENJIN"}
	ItemChangeHeaders  = []string{"BIL", "KOD TARIF", "DESKRIPSI", "TARIKH KUATKUASA"}
	RawMaterialTitle   = "A. BAHAN MENTAH, KOMPONEN, BAHAN BUNGKUSAN DAN PEMBUNGKUSAN"
	FinishedGoodsTitle = "B. BARANG SIAP YANG DIKILANGKAN"
	AddedItemsTitle    = "ITEM YANG DITAMBAH"
	DeletedItemsTitle  = "ITEM YANG DIPADAM"
	addedItemsFill     = "C8E6C9"
	deletedItemsFill   = "FFCDD2"
)

// DefaultHeaders - the header row used when a group carries none.
func DefaultHeaders(kind GroupKind) []string {
	switch kind {
	case GroupTrader, GroupManufacturerFinished:
		return TraderHeaders
	case GroupManufacturerRaw:
		return RawMaterialHeaders
	case GroupVehicle:
		return VehicleHeaders
	case GroupAdd, GroupDelete:
		return ItemChangeHeaders
	default:
		return nil
	}
}

// withDefaults - fill in header, title and shading defaults for the kind.
func (g RowGroup) withDefaults() RowGroup {
	if len(g.Headers) == 0 {
		g.Headers = DefaultHeaders(g.Kind)
	}
	switch g.Kind {
	case GroupManufacturerRaw:
		if g.Title == "" {
			g.Title = RawMaterialTitle
		}
	case GroupManufacturerFinished:
		if g.Title == "" {
			g.Title = FinishedGoodsTitle
		}
	case GroupAdd:
		if g.Title == "" {
			g.Title = AddedItemsTitle
		}
		if g.Fill == "" {
			g.Fill = addedItemsFill
		}
	case GroupDelete:
		if g.Title == "" {
			g.Title = DeletedItemsTitle
		}
		if g.Fill == "" {
			g.Fill = deletedItemsFill
		}
	case GroupTrader, GroupVehicle:
	}
	return g
}

// RenderTable - the w:tbl XML for a group: one bold, centred header row, then
// one left-aligned row per data row. Rows are padded or cut to the header width.
func RenderTable(g RowGroup) string {
	g = g.withDefaults()
	cols := len(g.Headers)
	if cols == 0 {
		cols = 1
	}
	width := tableWidthTwips / cols

	var b strings.Builder
	b.WriteString(TableOpeningTag)
	b.WriteString(tableProperties)
	b.WriteString("<w:tblGrid>")
	for i := 0; i < cols; i++ {
		fmt.Fprintf(&b, `<w:gridCol w:w="%d"/>`, width)
	}
	b.WriteString("</w:tblGrid>")

	b.WriteString(TableRowOpeningTag)
	b.WriteString(headerRowProperties)
	for i := 0; i < cols; i++ {
		text := ""
		if i < len(g.Headers) {
			text = g.Headers[i]
		}
		b.WriteString(renderCell(width, "", "center", true, text))
	}
	b.WriteString(TableRowClosingTag)

	for _, row := range g.Rows {
		b.WriteString(TableRowOpeningTag)
		for i := 0; i < cols; i++ {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			b.WriteString(renderCell(width, g.Fill, "left", false, text))
		}
		b.WriteString(TableRowClosingTag)
	}

	b.WriteString(TableEndingTag)
	return b.String()
}

func renderCell(width int, fill, align string, bold bool, text string) string {
	shading := ""
	if fill != "" {
		shading = fmt.Sprintf(cellShadingFormat, xmlEscape(fill))
	}
	marker := ""
	if bold {
		marker = boldMarker
	}
	value := strings.ReplaceAll(xmlEscape(text), "\n", NewLineInText)
	return fmt.Sprintf(tableCellFormat, width, shading, align, marker, value)
}

// RenderTitle - the bold title paragraph placed above a table.
func RenderTitle(title string) string {
	return fmt.Sprintf(titleParagraphFormat, xmlEscape(title))
}

// renderGroups - title (when set) and table for each group, in order.
func renderGroups(groups []RowGroup) string {
	var b strings.Builder
	for _, g := range groups {
		g = g.withDefaults()
		if g.Title != "" {
			b.WriteString(RenderTitle(g.Title))
		}
		b.WriteString(RenderTable(g))
	}
	return b.String()
}

// groupsFor - the groups a table token expands to under the set's layout.
// An empty result means the token stays literal.
func (s TableSet) groupsFor(token string) []RowGroup {
	var kinds []GroupKind
	switch s.Layout {
	case LayoutTrader:
		if token == tableToken {
			kinds = []GroupKind{GroupTrader}
		}
	case LayoutManufacturer:
		if token == tableToken {
			kinds = []GroupKind{GroupManufacturerRaw, GroupManufacturerFinished}
		}
	case LayoutVehicle:
		if token == tableToken {
			kinds = []GroupKind{GroupVehicle}
		}
	case LayoutItemChange:
		switch token {
		case tableToken:
			kinds = []GroupKind{GroupAdd, GroupDelete}
		case tableAddToken:
			kinds = []GroupKind{GroupAdd}
		case tableDeleteToken:
			kinds = []GroupKind{GroupDelete}
		}
	case LayoutNone:
	}

	var out []RowGroup
	for _, k := range kinds {
		if g, ok := s.Group(k); ok {
			out = append(out, g)
		}
	}
	return out
}
