// Package canon provides the canonical value tree for phigold documents.
//
// This package contains the value model, the deterministic JSON writer, and
// the strict parser. All other internal packages build on canon; canon
// imports nothing internal. This keeps the value tree the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Mapping preserves insertion order; serialization order IS field order
//   - Float holds finite binary64 only; non-finite values are rewritten to
//     sentinel Text before they reach this layer
//   - Text is NFC normalized at the serialization boundary
//   - Writer output is a pure function of the tree
package canon
