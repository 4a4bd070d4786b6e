package codec

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/irrlab/phigold/internal/canon"
)

// config carries the document surface's knobs.
type config struct {
	registry *Registry
	logger   *slog.Logger
	version  string
}

// Option configures Dump, Load and their variants.
type Option func(*config)

// WithRegistry selects the registry used for composites. The default is
// an empty registry that only knows the built-in wire forms.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithLogger selects the logger for version warnings. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithVersion overrides the format version written and gated against.
// For tests exercising version skew; production code never sets it.
func WithVersion(v string) Option {
	return func(c *config) { c.version = v }
}

func newConfig(opts []Option) *config {
	c := &config{
		registry: NewRegistry(),
		logger:   slog.Default(),
		version:  FormatVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dump encodes a value and writes it as one versioned document.
//
// A tagged top value (composite, array or set) carries the version key
// first, then its tag, then its fields. Anything else is wrapped as
// {"version": ..., "payload": ...}. Bytes are deterministic: dumping the
// same value always writes the same bytes.
func Dump(v any, w io.Writer, opts ...Option) error {
	cfg := newConfig(opts)

	tree, err := NewEncoder(cfg.registry).Encode(v)
	if err != nil {
		return err
	}

	doc := canon.NewMapping()
	doc.Set("version", canon.Text(cfg.version))
	if m, ok := tree.(*canon.Mapping); ok && m.Has("type") {
		for _, e := range m.Entries() {
			doc.Set(e.Key, e.Value)
		}
	} else {
		doc.Set("payload", tree)
	}

	return canon.Write(w, doc)
}

// Load reads one versioned document and decodes its value.
//
// The version gate runs before any payload interpretation. An
// older-minor document logs a warning and loads; everything the gate
// rejects fails with INCOMPATIBLE_VERSION.
func Load(r io.Reader, opts ...Option) (any, error) {
	cfg := newConfig(opts)

	tree, err := canon.Parse(r)
	if err != nil {
		return nil, NewParseError(err.Error(), nil)
	}
	doc, ok := tree.(*canon.Mapping)
	if !ok {
		return nil, NewParseError("document is not a JSON object", nil)
	}

	versionVal, ok := doc.Get("version")
	if !ok {
		return nil, NewIncompatibleVersionError("", cfg.version,
			"document has no version field")
	}
	versionText, ok := versionVal.(canon.Text)
	if !ok {
		return nil, NewIncompatibleVersionError("", cfg.version,
			"document version is not a string")
	}

	verdict, err := gateAgainst(string(versionText), cfg.version)
	if err != nil {
		return nil, err
	}
	if verdict == ProceedWithWarning {
		cfg.logger.Warn("document written by an older format minor",
			"document_version", string(versionText),
			"runtime_version", cfg.version,
		)
	}

	dec := NewDecoder(cfg.registry)
	if doc.Has("type") {
		return dec.Decode(doc)
	}
	payload, ok := doc.Get("payload")
	if !ok {
		return nil, NewParseError(`document has neither "type" nor "payload"`, nil)
	}
	return dec.Decode(payload)
}

// Marshal encodes a value to document bytes.
func Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Dump(v, &buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes document bytes to a value.
func Unmarshal(data []byte, opts ...Option) (any, error) {
	return Load(bytes.NewReader(data), opts...)
}

// DumpFile writes a document to path atomically: the bytes land in a
// sibling temp file which is fsynced and renamed over the destination,
// so a crash never leaves a partial document at path.
func DumpFile(v any, path string, opts ...Option) error {
	data, err := Marshal(v, opts...)
	if err != nil {
		return err
	}

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

// LoadFile reads a document from path.
func LoadFile(path string, opts ...Option) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, opts...)
}
