package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/irrlab/phigold/internal/codec"
	"github.com/irrlab/phigold/internal/fixture"
	"github.com/irrlab/phigold/internal/phi"
)

// Error code constants - unified across all CLI commands.
// Document-level failures carry their codec error code instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeReadFailed  = "E003" // File read error
	ErrCodeWriteFailed = "E004" // File write error
	ErrCodeManifest    = "E005" // Manifest load error
	ErrCodeCatalog     = "E006" // Catalog open/query error
)

// documentOptions binds the CLI's codec calls to the full result-object
// registry. Commands stay out of the analysis itself: they only move
// documents through Load/Marshal/Dump.
func documentOptions() []codec.Option {
	return []codec.Option{codec.WithRegistry(phi.DefaultRegistry())}
}

// LoadedDocument is one file read through the full document chain.
type LoadedDocument struct {
	Path  string
	Bytes []byte
	Value any
}

// LoadDocument reads a file, checks it against the wire format schema,
// and decodes it. The schema check runs before the codec so malformed
// envelopes fail with positions instead of decoder errors.
func LoadDocument(path string) (*LoadedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := fixture.ValidateDocument(data); err != nil {
		return nil, err
	}

	v, err := codec.Unmarshal(data, documentOptions()...)
	if err != nil {
		return nil, err
	}

	return &LoadedDocument{Path: path, Bytes: data, Value: v}, nil
}

// errorCode maps an error to its unified CLI code. Codec errors keep
// their own taxonomy codes on the wire.
func errorCode(err error) string {
	var ce *codec.CodecError
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return ErrCodeReadFailed
	}
	return ErrCodeGeneric
}

// errorDetails surfaces structured details (schema positions, expected
// versions) carried by codec errors.
func errorDetails(err error) interface{} {
	var ce *codec.CodecError
	if errors.As(err, &ce) && len(ce.Details) > 0 {
		return ce.Details
	}
	return nil
}

// exitCodeFor classifies an error: document-level problems are
// failures (exit 1), everything else is a command error (exit 2).
func exitCodeFor(err error) int {
	var ce *codec.CodecError
	if errors.As(err, &ce) {
		return ExitFailure
	}
	return ExitCommandError
}
