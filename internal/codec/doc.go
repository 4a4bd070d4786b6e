// Package codec implements the versioned, type-tagged document format for
// irreducibility analysis results.
//
// The codec round-trips registered Go values through deterministic JSON:
// the same value always produces the same bytes, and bytes produced by one
// format version are either readable by another or rejected with a
// versioned error before any payload interpretation.
//
// Layers inside the package:
//   - Registry: type tag <-> Go type binding with encode/decode functions
//   - Encoder: Go values down to canon trees (tag first, fields in
//     declared order, sets canonicalized, non-finite floats to sentinels)
//   - Decoder: canon trees back to Go values (version gate first)
//   - Array: dense numeric n-dimensional payloads
//   - Document: Dump/Load/Marshal/Unmarshal and atomic file variants
//
// Reserved keys: "type" and "version". Reserved tags: "__array__" and
// "__set__".
package codec
