// Package fixture provides content-addressed storage for phigold documents.
//
// The fixture layer sits above the codec and below the CLI:
//   - Digests: SHA-256 content addressing with domain separation
//   - Store: a directory of atomically written document files
//   - Catalog: a SQLite index of what was written, ordered by logical clock
//   - Manifest: YAML suite descriptions binding names to files and digests
//   - Verify: re-encode verification of a fixture directory against a manifest
//   - Runner: drives an external producer and stores its result
//   - Schema: CUE validation of the document envelope
//
// # Determinism
//
// Every path through this package preserves the codec's determinism
// guarantee. Digests are computed over canonical document bytes, catalog
// ordering uses seq INTEGER (logical clock, never wall time), and listing
// queries order by seq ASC, id ASC COLLATE BINARY so identical inputs
// produce identical reports.
//
// # External collaborators
//
// The computation that produces result values lives outside this module.
// It is consumed only through the Producer seam: a function returning one
// value, which the Runner encodes, stores and records. Nothing in this
// package inspects how the value was computed.
package fixture
