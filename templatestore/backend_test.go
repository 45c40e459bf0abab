package templatestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog", "templates_data.json")
	b := NewFileBackend(path)

	entries, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	in := Entry{
		Name:        "ames_pengilang.docx",
		Content:     []byte("PK\x03\x04 docx bytes"),
		Category:    CategoryApproval,
		Version:     2,
		IsNew:       true,
		ImportedAt:  fixedNow,
		Description: "AMES pengilang",
	}
	require.NoError(t, b.Save(in))
	require.NoError(t, b.Save(Entry{Name: "kosong.docx", Category: CategoryOther, Version: 1, ImportedAt: fixedNow}))

	entries, err = b.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	got := byName["ames_pengilang.docx"]
	assert.Equal(t, in.Content, got.Content)
	assert.Equal(t, in.Category, got.Category)
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.IsNew)
	assert.True(t, fixedNow.Equal(got.ImportedAt))
	assert.Equal(t, "AMES pengilang", got.Description)
	assert.Empty(t, byName["kosong.docx"].Content)

	// content null on disk for a cleared entry
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Nil(t, doc["kosong.docx"]["content"])
}

func TestFileBackend_LegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates_data.json")
	legacy := `{
  "pelupusan_skrap.docx": {
    "content": "aGVsbG8=",
    "metadata": {
      "category": "APPROVAL",
      "version": "1.0",
      "created_date": "2024-05-02T10:11:12.123456",
      "modified_date": null,
      "is_new": false
    }
  },
  "lain.docx": {
    "content": null,
    "metadata": {"category": "SOMETHING_ELSE", "version": 3, "created_date": null, "modified_date": null, "is_new": true}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	entries, err := NewFileBackend(path).Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	skrap := byName["pelupusan_skrap.docx"]
	assert.Equal(t, "hello", string(skrap.Content))
	assert.Equal(t, 1, skrap.Version)
	assert.Equal(t, 2024, skrap.ImportedAt.Year())

	lain := byName["lain.docx"]
	assert.Equal(t, 3, lain.Version)
	assert.Equal(t, CategoryOther, lain.Category)
	assert.Nil(t, lain.Content)
}

func TestFileBackend_LegacyVersions(t *testing.T) {
	tests := map[string]int{
		`"1.0"`: 1,
		`"1.1"`: 2,
		`"1.2"`: 3,
		`"1.9"`: 10,
		`"2.0"`: 11,
		`"0.5"`: 1,
		`4`:     4,
		`"7"`:   7,
		`null`:  1,
	}
	for raw, want := range tests {
		var v fileVersion
		require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
		assert.Equal(t, want, int(v), raw)
	}

	var v fileVersion
	assert.Error(t, json.Unmarshal([]byte(`"v1.x"`), &v))
}

func TestFileBackend_LegacyHistoryKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates_data.json")
	legacy := `{
  "a.docx": {"content": null, "metadata": {"category": "APPROVAL", "version": "1.0", "is_new": true}},
  "b.docx": {"content": null, "metadata": {"category": "APPROVAL", "version": "1.2", "is_new": false}}
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s, err := Open(t.TempDir(), NewFileBackend(path))
	require.NoError(t, err)
	a, _ := s.Entry("a.docx")
	b, _ := s.Entry("b.docx")
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, 3, b.Version)

	// an update continues from the legacy count
	b, err = s.Update("b.docx", []byte("baru"))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Version)
}

func TestFileBackend_KeepsCreatedDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates_data.json")
	b := NewFileBackend(path)
	require.NoError(t, b.Save(Entry{Name: "a.docx", Version: 1, ImportedAt: fixedNow}))
	require.NoError(t, b.Save(Entry{Name: "a.docx", Version: 2, ImportedAt: fixedNow.AddDate(0, 1, 0)}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]fileRecord
	require.NoError(t, json.Unmarshal(raw, &doc))
	md := doc["a.docx"].Metadata
	assert.Equal(t, "2025-06-01T09:00:00Z", *md.CreatedDate)
	assert.Equal(t, "2025-07-01T09:00:00Z", *md.ModifiedDate)
}

func TestFileBackend_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewFileBackend(path).Load()
	assert.Error(t, err)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&TemplateEntry{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestGormBackend(t *testing.T) {
	b := NewGormBackend(setupTestDB(t))

	require.NoError(t, b.Save(Entry{Name: "a.docx", Content: []byte("A"), Category: CategoryApproval, Version: 1, ImportedAt: fixedNow}))
	require.NoError(t, b.Save(Entry{Name: "a.docx", Content: []byte("A2"), Category: CategoryApproval, Version: 2, ImportedAt: fixedNow}))

	entries, err := b.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A2", string(entries[0].Content))
	assert.Equal(t, 2, entries[0].Version)
}

func TestStoreOverGorm(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	writeTemplate(t, dir, "signUpB.docx", "seed")

	s, err := Open(dir, NewGormBackend(db))
	require.NoError(t, err)
	n, err := s.SeedFromDirectory()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a fresh store over the same table sees the seeded entry
	again, err := Open(t.TempDir(), NewGormBackend(db))
	require.NoError(t, err)
	data, err := again.Resolve("signUpB.docx")
	require.NoError(t, err)
	assert.Equal(t, "seed", string(data))
	e, _ := again.Entry("signUpB.docx")
	assert.Equal(t, CategoryRegistration, e.Category)
	assert.True(t, e.IsNew)
}
