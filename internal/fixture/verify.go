package fixture

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/irrlab/phigold/internal/codec"
)

// VerifyStatus classifies one fixture's verification outcome.
type VerifyStatus string

const (
	// StatusOK means the file matched its digest and re-encoded to
	// identical bytes.
	StatusOK VerifyStatus = "ok"

	// StatusMismatch means the file loaded but its bytes disagree with
	// the manifest digest or with its own re-encoding.
	StatusMismatch VerifyStatus = "mismatch"

	// StatusError means the file could not be read, validated or loaded.
	StatusError VerifyStatus = "error"
)

// VerifyResult is the outcome for one manifest entry.
type VerifyResult struct {
	Name   string
	Status VerifyStatus
	Detail string
}

// Report aggregates verification results for a suite.
type Report struct {
	Suite    string
	Results  []VerifyResult
	Failures int
}

// Passed reports whether every entry verified clean.
func (r *Report) Passed() bool {
	return r.Failures == 0
}

// Verify checks every manifest entry against the fixture directory.
//
// Each entry runs the full chain: read the file, compare its digest to
// the manifest, validate the envelope against the wire format schema,
// load it through the codec, re-encode, and byte-compare against the
// file. A document passes only if it is exactly its own canonical form.
//
// Verify itself fails only on an invalid manifest; per-entry problems
// land in the report.
func Verify(dir string, m *Manifest, opts ...codec.Option) (*Report, error) {
	if err := validateManifest(m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	report := &Report{
		Suite:   m.Suite,
		Results: make([]VerifyResult, 0, len(m.Fixtures)),
	}
	for _, entry := range m.Fixtures {
		res := verifyEntry(dir, entry, opts)
		if res.Status != StatusOK {
			report.Failures++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// verifyEntry runs the verification chain for one entry.
func verifyEntry(dir string, entry ManifestEntry, opts []codec.Option) VerifyResult {
	path := filepath.Join(dir, entry.File)

	data, err := os.ReadFile(path)
	if err != nil {
		return VerifyResult{
			Name:   entry.Name,
			Status: StatusError,
			Detail: fmt.Sprintf("read: %v", err),
		}
	}

	if got := Digest(data); got != entry.Digest {
		return VerifyResult{
			Name:   entry.Name,
			Status: StatusMismatch,
			Detail: fmt.Sprintf("digest mismatch: manifest %s, file %s", entry.Digest, got),
		}
	}

	if err := ValidateDocument(data); err != nil {
		return VerifyResult{
			Name:   entry.Name,
			Status: StatusError,
			Detail: fmt.Sprintf("schema: %v", err),
		}
	}

	v, err := codec.Unmarshal(data, opts...)
	if err != nil {
		return VerifyResult{
			Name:   entry.Name,
			Status: StatusError,
			Detail: fmt.Sprintf("load: %v", err),
		}
	}

	reencoded, err := codec.Marshal(v, opts...)
	if err != nil {
		return VerifyResult{
			Name:   entry.Name,
			Status: StatusError,
			Detail: fmt.Sprintf("re-encode: %v", err),
		}
	}
	if !bytes.Equal(reencoded, data) {
		return VerifyResult{
			Name:   entry.Name,
			Status: StatusMismatch,
			Detail: "re-encoded bytes differ from file",
		}
	}

	return VerifyResult{Name: entry.Name, Status: StatusOK}
}
