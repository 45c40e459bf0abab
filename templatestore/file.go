package templatestore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FileBackend keeps the catalog in one JSON file:
//
//	{"ames_pedagang.docx": {"content": "<base64>", "metadata": {...}}}
//
// the layout written by the desktop template editor.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend - a backend over path; the file need not exist yet.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

type fileRecord struct {
	Content  *string      `json:"content"`
	Metadata fileMetadata `json:"metadata"`
}

type fileMetadata struct {
	Category     string      `json:"category"`
	Version      fileVersion `json:"version"`
	CreatedDate  *string     `json:"created_date"`
	ModifiedDate *string     `json:"modified_date"`
	IsNew        bool        `json:"is_new"`
	Description  string      `json:"description,omitempty"`
}

// fileVersion accepts 3 as well as the editor's "1.0" style strings. The
// editor adds 0.1 per update, so "1.0" is the first version, "1.2" the third
// and "2.0" the eleventh.
type fileVersion int

func (v *fileVersion) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*v = 1
		return nil
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("catalog version %q: %w", s, err)
		}
		*v = fileVersion(max(int(math.Round(f*10))-9, 1))
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("catalog version %q: %w", s, err)
	}
	*v = fileVersion(n)
	return nil
}

// Load - every entry in the file, nil when the file does not exist.
func (b *FileBackend) Load() ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.read()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(records))
	for name, rec := range records {
		e, err := rec.entry(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Save - upsert one entry and rewrite the file.
func (b *FileBackend) Save(e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.read()
	if err != nil {
		return err
	}
	records[e.Name] = newFileRecord(e, records[e.Name])

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func (b *FileBackend) read() (map[string]fileRecord, error) {
	records := map[string]fileRecord{}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", b.path, err)
	}
	return records, nil
}

func (r fileRecord) entry(name string) (Entry, error) {
	e := Entry{
		Name:        name,
		Version:     int(r.Metadata.Version),
		IsNew:       r.Metadata.IsNew,
		Description: r.Metadata.Description,
	}
	if c, err := ParseCategory(r.Metadata.Category); err == nil {
		e.Category = c
	} else {
		e.Category = KnownCategory(name)
	}
	if e.Version == 0 {
		e.Version = 1
	}
	for _, stamp := range []*string{r.Metadata.ModifiedDate, r.Metadata.CreatedDate} {
		if stamp == nil {
			continue
		}
		if t, ok := parseStamp(*stamp); ok {
			e.ImportedAt = t
			break
		}
	}
	if r.Content != nil && *r.Content != "" {
		raw, err := base64.StdEncoding.DecodeString(*r.Content)
		if err != nil {
			return Entry{}, fmt.Errorf("decode catalog entry %s: %w", name, err)
		}
		e.Content = raw
	}
	return e, nil
}

func newFileRecord(e Entry, prev fileRecord) fileRecord {
	rec := fileRecord{
		Metadata: fileMetadata{
			Category:    string(e.Category),
			Version:     fileVersion(e.Version),
			CreatedDate: prev.Metadata.CreatedDate,
			IsNew:       e.IsNew,
			Description: e.Description,
		},
	}
	stamp := e.ImportedAt.Format(time.RFC3339)
	rec.Metadata.ModifiedDate = &stamp
	if rec.Metadata.CreatedDate == nil {
		rec.Metadata.CreatedDate = &stamp
	}
	if len(e.Content) > 0 {
		enc := base64.StdEncoding.EncodeToString(e.Content)
		rec.Content = &enc
	}
	return rec
}

// parseStamp - RFC 3339 or the editor's naive ISO timestamps.
func parseStamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
