package fixture

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/coreos/go-semver/semver"
	"gopkg.in/yaml.v3"
)

// Manifest describes a fixture suite: which names exist, which files
// hold them, and what their document bytes must digest to.
type Manifest struct {
	// Suite uniquely identifies this fixture suite.
	Suite string `yaml:"suite"`

	// FormatVersion is the wire format version the suite was written with.
	FormatVersion string `yaml:"format_version"`

	// Fixtures lists the suite's entries in manifest order.
	Fixtures []ManifestEntry `yaml:"fixtures"`
}

// ManifestEntry binds one fixture name to its file and digest.
type ManifestEntry struct {
	// Name is the fixture name.
	Name string `yaml:"name"`

	// File is the document path, relative to the manifest's directory.
	File string `yaml:"file"`

	// Digest is the expected domain-separated SHA-256 of the file bytes.
	Digest string `yaml:"digest"`
}

// digestPattern matches a lower-hex SHA-256 digest.
var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// LoadManifest reads and parses a manifest YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	// Strict field validation catches typos like "fixture:" vs "fixtures:"
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &m, nil
}

// WriteManifest writes a manifest to path atomically.
// The manifest is validated before anything touches the disk.
func WriteManifest(m *Manifest, path string) error {
	if err := validateManifest(m); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ManifestFromEntries builds a manifest over store entries, with files
// named after the fixtures themselves.
func ManifestFromEntries(suite, formatVersion string, entries []Entry) *Manifest {
	m := &Manifest{
		Suite:         suite,
		FormatVersion: formatVersion,
		Fixtures:      make([]ManifestEntry, len(entries)),
	}
	for i, e := range entries {
		m.Fixtures[i] = ManifestEntry{
			Name:   e.Name,
			File:   e.Name + fixtureExt,
			Digest: e.Digest,
		}
	}
	return m
}

// validateManifest checks that required fields are present and valid.
func validateManifest(m *Manifest) error {
	if m.Suite == "" {
		return fmt.Errorf("suite is required")
	}

	if m.FormatVersion == "" {
		return fmt.Errorf("format_version is required")
	}
	if _, err := semver.NewVersion(m.FormatVersion); err != nil {
		return fmt.Errorf("format_version %q is not valid semver", m.FormatVersion)
	}

	if len(m.Fixtures) == 0 {
		return fmt.Errorf("fixtures list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, entry := range m.Fixtures {
		if entry.Name == "" {
			return fmt.Errorf("fixtures[%d]: name is required", i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("fixtures[%d]: duplicate name %q", i, entry.Name)
		}
		seen[entry.Name] = true

		if entry.File == "" {
			return fmt.Errorf("fixtures[%d]: file is required", i)
		}
		if !digestPattern.MatchString(entry.Digest) {
			return fmt.Errorf("fixtures[%d]: digest must be 64 lower-hex characters", i)
		}
	}

	return nil
}
