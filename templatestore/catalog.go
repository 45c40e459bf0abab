package templatestore

import (
	"fmt"
	"strings"
)

// Category - template grouping shown in the catalog.
type Category string

const (
	CategoryApproval     Category = "APPROVAL"
	CategoryRejection    Category = "REJECTION"
	CategoryDisposal     Category = "DISPOSAL"
	CategoryRegistration Category = "REGISTRATION"
	CategoryDeleteItem   Category = "DELETE_ITEM"
	CategoryOther        Category = "OTHER"
)

// Categories - all categories in display order.
var Categories = []Category{
	CategoryApproval, CategoryRejection, CategoryDisposal,
	CategoryRegistration, CategoryDeleteItem, CategoryOther,
}

// ParseCategory - case-insensitive; "" is CategoryOther.
func ParseCategory(s string) (Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown template category %q", s)
}

// knownTemplates - the letters shipped with the office catalog.
var knownTemplates = map[string]Category{
	"ames_pedagang.docx":                            CategoryApproval,
	"ames_pengilang.docx":                           CategoryApproval,
	"surat kelulusan butiran 5D (Lulus).docx":       CategoryApproval,
	"pelupusan_penjualan.docx":                      CategoryApproval,
	"pelupusan_skrap.docx":                          CategoryApproval,
	"pelupusan_tidak_lulus.docx":                    CategoryRejection,
	"surat kelulusan butiran 5D (tidak lulus).docx": CategoryRejection,
	"pelupusan_pemusnahan.docx":                     CategoryDisposal,
	"signUpB.docx":                                  CategoryRegistration,
	"delete_item.docx":                              CategoryDeleteItem,
	"delete_item_ames.docx":                         CategoryDeleteItem,
	"batal_sijil.docx":                              CategoryOther,
}

// KnownCategory - the catalog category of a shipped template name, OTHER for
// anything else.
func KnownCategory(name string) Category {
	if c, ok := knownTemplates[name]; ok {
		return c
	}
	return CategoryOther
}

func describe(name string, c Category) string {
	base := strings.TrimSuffix(name, ".docx")
	base = strings.ReplaceAll(base, "_", " ")
	return fmt.Sprintf("%s (%s)", base, strings.ToLower(string(c)))
}
