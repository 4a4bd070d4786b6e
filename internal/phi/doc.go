// Package phi defines the persisted result objects of irreducibility
// analysis: repertoire analyses, concepts, cause-effect structures,
// relations, cuts and the system-level analysis that bundles them.
//
// The package owns no computation. Values arrive from an external
// analysis engine and leave through the codec; phi declares their shape,
// their wire tags and their field order, and registers the codecs for
// all of them in a single registry.
//
// Wire field names are snake_case. Declared field order in the encode
// functions is the serialization order.
package phi
