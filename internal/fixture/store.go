package fixture

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/irrlab/phigold/internal/codec"
)

// fixtureExt is the filename extension for stored documents.
const fixtureExt = ".json"

// fixtureNamePattern restricts fixture names to path-safe tokens.
// Names become filenames, so separators and leading dots are out.
var fixtureNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Entry describes one stored fixture.
type Entry struct {
	// Name is the fixture name (filename without extension).
	Name string

	// Path is the absolute or store-relative file path.
	Path string

	// Digest is the domain-separated SHA-256 of the document bytes.
	Digest string

	// Bytes is the document size.
	Bytes int64
}

// Store is a directory of document fixtures.
//
// Writes are atomic: the document lands in a temp sibling which is
// fsynced and renamed over the destination, so a crash never leaves a
// partial fixture under a valid name.
type Store struct {
	root   string
	logger *slog.Logger
	opts   []codec.Option
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger selects the logger for write events.
// Defaults to slog.Default().
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithStoreCodec forwards codec options (registry, version) to every
// read and write this store performs.
func WithStoreCodec(opts ...codec.Option) StoreOption {
	return func(s *Store) { s.opts = opts }
}

// NewStore opens a fixture directory, creating it if absent.
func NewStore(root string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create fixture root: %w", err)
	}
	return s, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file path a fixture name maps to.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name+fixtureExt)
}

// Put encodes v as one document and writes it under name.
// Returns the entry describing what landed on disk.
func (s *Store) Put(name string, v any) (Entry, error) {
	if !fixtureNamePattern.MatchString(name) {
		return Entry{}, fmt.Errorf("put: invalid fixture name %q", name)
	}

	data, err := codec.Marshal(v, s.opts...)
	if err != nil {
		return Entry{}, fmt.Errorf("put %s: %w", name, err)
	}

	path := s.Path(name)
	if err := writeFileAtomic(path, data); err != nil {
		return Entry{}, fmt.Errorf("put %s: %w", name, err)
	}

	entry := Entry{
		Name:   name,
		Path:   path,
		Digest: Digest(data),
		Bytes:  int64(len(data)),
	}
	s.logger.Info("fixture written",
		"name", entry.Name,
		"digest", entry.Digest,
		"bytes", entry.Bytes,
	)
	return entry, nil
}

// Get loads the fixture stored under name.
func (s *Store) Get(name string) (any, error) {
	if !fixtureNamePattern.MatchString(name) {
		return nil, fmt.Errorf("get: invalid fixture name %q", name)
	}
	v, err := codec.LoadFile(s.Path(name), s.opts...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return v, nil
}

// List returns the entries currently in the store, sorted by name.
//
// Returns an empty slice (not nil) for an empty store.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fixtureExt) {
			continue
		}
		name := strings.TrimSuffix(de.Name(), fixtureExt)
		if !fixtureNamePattern.MatchString(name) {
			continue
		}
		path := filepath.Join(s.root, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("list fixtures: read %s: %w", path, err)
		}
		entries = append(entries, Entry{
			Name:   name,
			Path:   path,
			Digest: Digest(data),
			Bytes:  int64(len(data)),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// writeFileAtomic writes data to path via a fsynced temp sibling and a
// rename, so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename over %s: %w", path, err)
	}
	return nil
}
