package fixture

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrlab/phigold/internal/codec"
)

// buildVerifySuite writes a two-fixture suite and returns its directory,
// manifest and codec options.
func buildVerifySuite(t *testing.T) (string, *Manifest, []codec.Option) {
	t.Helper()
	opts := testCodecOpts(t)
	s, err := NewStore(t.TempDir(),
		WithStoreLogger(discardLogger()),
		WithStoreCodec(opts...))
	require.NoError(t, err)

	_, err = s.Put("alpha", &measurement{Label: "alpha", Phi: 0.5})
	require.NoError(t, err)
	// NaN exercises the non-finite sentinel through the full chain.
	_, err = s.Put("beta", &measurement{Label: "beta", Phi: math.NaN()})
	require.NoError(t, err)

	entries, err := s.List()
	require.NoError(t, err)
	return s.Root(), ManifestFromEntries("smoke", codec.FormatVersion, entries), opts
}

func TestVerifyCleanSuite(t *testing.T) {
	dir, m, opts := buildVerifySuite(t)

	report, err := Verify(dir, m, opts...)
	require.NoError(t, err)

	assert.True(t, report.Passed())
	assert.Equal(t, "smoke", report.Suite)
	assert.Zero(t, report.Failures)
	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.Equal(t, StatusOK, res.Status, "fixture %s: %s", res.Name, res.Detail)
	}
}

func TestVerifyDigestMismatch(t *testing.T) {
	dir, m, opts := buildVerifySuite(t)
	m.Fixtures[0].Digest = strings.Repeat("00", 32)

	report, err := Verify(dir, m, opts...)
	require.NoError(t, err)

	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, StatusMismatch, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "digest mismatch")
	assert.Equal(t, StatusOK, report.Results[1].Status)
}

func TestVerifyMissingFile(t *testing.T) {
	dir, m, opts := buildVerifySuite(t)
	require.NoError(t, os.Remove(filepath.Join(dir, m.Fixtures[0].File)))

	report, err := Verify(dir, m, opts...)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, StatusError, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "read:")
}

func TestVerifyTamperedFile(t *testing.T) {
	dir, m, opts := buildVerifySuite(t)
	path := filepath.Join(dir, m.Fixtures[0].File)
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1.0.0","payload":1}`), 0o644))

	report, err := Verify(dir, m, opts...)
	require.NoError(t, err)

	assert.Equal(t, StatusMismatch, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "digest mismatch")
}

func TestVerifyNonCanonicalFile(t *testing.T) {
	// The document decodes fine, but its fields are not in declared
	// order, so re-encoding cannot reproduce the file bytes.
	raw := []byte(`{"version":"1.0.0","type":"Measurement","phi":0.5,"label":"alpha"}`)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.json"), raw, 0o644))
	m := &Manifest{
		Suite:         "smoke",
		FormatVersion: "1.0.0",
		Fixtures: []ManifestEntry{
			{Name: "alpha", File: "alpha.json", Digest: Digest(raw)},
		},
	}

	report, err := Verify(dir, m, testCodecOpts(t)...)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, StatusMismatch, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "re-encoded bytes differ")
}

func TestVerifySchemaViolation(t *testing.T) {
	// Truncated version digests correctly but fails envelope validation
	// before the codec ever sees it.
	raw := []byte(`{"version":"1.0","payload":1}`)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), raw, 0o644))
	m := &Manifest{
		Suite:         "smoke",
		FormatVersion: "1.0.0",
		Fixtures: []ManifestEntry{
			{Name: "bad", File: "bad.json", Digest: Digest(raw)},
		},
	}

	report, err := Verify(dir, m, testCodecOpts(t)...)
	require.NoError(t, err)

	assert.Equal(t, StatusError, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "schema:")
}

func TestVerifyUnknownTag(t *testing.T) {
	raw := []byte(`{"version":"1.0.0","type":"Ghost","x":1}`)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghost.json"), raw, 0o644))
	m := &Manifest{
		Suite:         "smoke",
		FormatVersion: "1.0.0",
		Fixtures: []ManifestEntry{
			{Name: "ghost", File: "ghost.json", Digest: Digest(raw)},
		},
	}

	report, err := Verify(dir, m, testCodecOpts(t)...)
	require.NoError(t, err)

	assert.Equal(t, StatusError, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "load:")
}

func TestVerifyInvalidManifest(t *testing.T) {
	_, err := Verify(t.TempDir(), &Manifest{}, testCodecOpts(t)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid manifest")
}
