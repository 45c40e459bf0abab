package templatestore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateEntry - catalog row.
type TemplateEntry struct {
	Name        string    `gorm:"primaryKey;size:255" json:"name"`
	Content     []byte    `json:"-"`
	Category    string    `gorm:"size:32;index" json:"category"`
	Version     int       `json:"version"`
	IsNew       bool      `json:"is_new"`
	ImportedAt  time.Time `json:"imported_at"`
	Description string    `gorm:"size:512" json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName - catalog table.
func (TemplateEntry) TableName() string {
	return "template_entries"
}

// GormBackend stores the catalog in a database table.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend - backend over db; the table must be migrated.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Load - all rows.
func (b *GormBackend) Load() ([]Entry, error) {
	var rows []TemplateEntry
	if err := b.db.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

// Save - upsert by name.
func (b *GormBackend) Save(e Entry) error {
	row := TemplateEntry{
		Name:        e.Name,
		Content:     e.Content,
		Category:    string(e.Category),
		Version:     e.Version,
		IsNew:       e.IsNew,
		ImportedAt:  e.ImportedAt,
		Description: e.Description,
	}
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "category", "version", "is_new", "imported_at", "description", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save catalog entry %s: %w", e.Name, err)
	}
	return nil
}

func (r TemplateEntry) entry() Entry {
	c, err := ParseCategory(r.Category)
	if err != nil {
		c = KnownCategory(r.Name)
	}
	return Entry{
		Name:        r.Name,
		Content:     r.Content,
		Category:    c,
		Version:     r.Version,
		IsNew:       r.IsNew,
		ImportedAt:  r.ImportedAt,
		Description: r.Description,
	}
}
