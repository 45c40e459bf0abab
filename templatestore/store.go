// Package templatestore resolves template names to docx bytes: an in-memory
// catalog first, then a template directory whose hits are imported back into
// the catalog.
package templatestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
)

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrUnsupportedFormat = errors.New("unsupported template format")
	ErrTooLarge          = errors.New("template too large")
	ErrSeedIncomplete    = errors.New("some templates were not seeded")
)

// MaxTemplateSize caps imported files.
const MaxTemplateSize = 10 << 20

// Entry - one catalog template.
type Entry struct {
	Name        string
	Content     []byte
	Category    Category
	Version     int
	IsNew       bool
	ImportedAt  time.Time
	Description string
}

// Backend persists catalog entries.
type Backend interface {
	Load() ([]Entry, error)
	Save(e Entry) error
}

// Store - the template catalog plus its directory fallback.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	dir      string
	backend  Backend
	now      func() time.Time
	readFile func(name string) ([]byte, error)
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshot - initial catalog content.
func WithSnapshot(entries []Entry) Option {
	return func(s *Store) {
		for _, e := range entries {
			s.entries[e.Name] = &e
		}
	}
}

// WithBackend - write imported and updated entries through to b.
func WithBackend(b Backend) Option {
	return func(s *Store) { s.backend = b }
}

// WithClock - time source for ImportedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New - a store over dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		entries: map[string]*Entry{},
		dir:     dir,
		now:     time.Now,
	}
	s.readFile = s.readFromDir
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open - a store over dir whose catalog is loaded from backend.
func Open(dir string, backend Backend) (*Store, error) {
	entries, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(dir, WithSnapshot(entries), WithBackend(backend)), nil
}

// Dir - the template directory.
func (s *Store) Dir() string {
	return s.dir
}

// Resolve - template bytes for an exact file name. A catalog entry with
// content wins; otherwise the file is read from the template directory and
// imported so the next call is served from memory.
func (s *Store) Resolve(name string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	if ok && len(e.Content) > 0 {
		content := e.Content
		s.mu.RUnlock()
		return content, nil
	}
	s.mu.RUnlock()

	if isLegacyDoc(name) {
		return nil, fmt.Errorf("%w: %s is a .doc file, convert it to .docx", ErrUnsupportedFormat, name)
	}

	data, err := s.readFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}

	imported := s.put(Entry{Name: name, Content: data}, false)
	if s.backend != nil {
		// write-back on the read path is best effort, the bytes are already here
		_ = s.backend.Save(imported)
	}
	return data, nil
}

// Has reports whether the catalog or the directory can serve name.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if ok && len(e.Content) > 0 {
		return true
	}
	p, err := securejoin.SecureJoin(s.dir, name)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// SeedFromDirectory imports every .docx in the template directory that the
// catalog does not hold yet, flagged as new. Existing entries are never
// touched. A file that cannot be read or persisted is skipped and seeding
// carries on; those failures come back joined under ErrSeedIncomplete along
// with the number imported.
func (s *Store) SeedFromDirectory() (int, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}

	count := 0
	var errs []error
	for _, it := range items {
		name := it.Name()
		if it.IsDir() || !strings.EqualFold(filepath.Ext(name), ".docx") || strings.HasPrefix(name, "~$") {
			continue
		}

		s.mu.RLock()
		_, exists := s.entries[name]
		s.mu.RUnlock()
		if exists {
			continue
		}

		data, err := s.readFile(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", name, err))
			continue
		}
		e := s.put(Entry{Name: name, Content: data, IsNew: true}, true)
		if e.Name == "" {
			// lost a race with another importer
			continue
		}
		count++
		if s.backend != nil {
			if err := s.backend.Save(e); err != nil {
				errs = append(errs, fmt.Errorf("persist %s: %w", name, err))
			}
		}
	}
	if len(errs) > 0 {
		return count, fmt.Errorf("%w: %w", ErrSeedIncomplete, errors.Join(errs...))
	}
	return count, nil
}

// ImportEntry inserts or overwrites an entry. A zero Version becomes one
// more than the replaced entry's (1 for a new name); a zero ImportedAt is
// stamped with the current time.
func (s *Store) ImportEntry(e Entry) (Entry, error) {
	if strings.TrimSpace(e.Name) == "" {
		return Entry{}, fmt.Errorf("import: empty template name")
	}
	if len(e.Content) > MaxTemplateSize {
		return Entry{}, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, e.Name, len(e.Content))
	}
	stored := s.put(e, false)
	if s.backend != nil {
		if err := s.backend.Save(stored); err != nil {
			return stored, fmt.Errorf("persist %s: %w", e.Name, err)
		}
	}
	return stored, nil
}

// ImportFile reads a file from anywhere and imports it under its base name.
func (s *Store) ImportFile(path string, isNew bool) (Entry, error) {
	name := filepath.Base(path)
	if isLegacyDoc(name) {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	data, err := readLimited(path)
	if err != nil {
		return Entry{}, fmt.Errorf("import %s: %w", name, err)
	}
	return s.ImportEntry(Entry{Name: name, Content: data, IsNew: isNew})
}

// Update replaces the content of an existing entry and bumps its version.
func (s *Store) Update(name string, content []byte) (Entry, error) {
	s.mu.RLock()
	_, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return s.ImportEntry(Entry{Name: name, Content: content})
}

// Clear drops an entry's content but keeps its metadata; Resolve then falls
// back to the directory again.
func (s *Store) Clear(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	e.Content = nil
	cleared := *e
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.Save(cleared); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}
	return nil
}

// Entry - a copy of the catalog entry for name.
func (s *Store) Entry(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// List - entries of one category ("" for all), sorted by name.
func (s *Store) List(category Category) []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, *e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// put stores e under the lock. With onlyIfAbsent an existing entry wins and
// a zero Entry is returned.
func (s *Store) put(e Entry, onlyIfAbsent bool) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.entries[e.Name]
	if exists && onlyIfAbsent {
		return Entry{}
	}
	if e.Version == 0 {
		e.Version = 1
		if exists {
			e.Version = prev.Version + 1
		}
	}
	if e.ImportedAt.IsZero() {
		e.ImportedAt = s.now()
	}
	if e.Category == "" {
		e.Category = KnownCategory(e.Name)
		if exists {
			e.Category = prev.Category
		}
	}
	if e.Description == "" {
		if exists && prev.Description != "" {
			e.Description = prev.Description
		} else {
			e.Description = describe(e.Name, e.Category)
		}
	}
	s.entries[e.Name] = &e
	return e
}

// readFromDir - open, read fully, close. Names are joined inside the
// template directory.
func (s *Store) readFromDir(name string) ([]byte, error) {
	p, err := securejoin.SecureJoin(s.dir, name)
	if err != nil {
		return nil, err
	}
	return readLimited(p)
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, MaxTemplateSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxTemplateSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, filepath.Base(path))
	}
	return data, nil
}

func isLegacyDoc(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".doc")
}
