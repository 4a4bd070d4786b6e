package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Write serializes a value tree to deterministic JSON.
// CRITICAL: This is the ONLY serialization used for document bytes and
// content digests. Output is a pure function of the tree.
//
// Key differences from standard json.Marshal:
//  1. Mapping keys are emitted in insertion order (never sorted, never
//     map-iteration order)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats always reparse as floats (a ".0" suffix is added when the
//     shortest form has no '.' or exponent)
//  5. Non-finite floats are an error
func Write(w io.Writer, v Value) error {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Bytes serializes a value tree to deterministic JSON bytes.
func Bytes(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("nil Value cannot be written; use Null")
	case Null:
		buf.WriteString("null")
		return nil
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case Float:
		return writeFloat(buf, float64(val))
	case Text:
		return writeText(buf, string(val))
	case Sequence:
		return writeSequence(buf, val)
	case *Mapping:
		return writeMapping(buf, val)
	default:
		return fmt.Errorf("unsupported Value type: %T", v)
	}
}

// writeFloat emits the shortest decimal form that reparses to the same
// binary64 value, forced to float syntax so Float never collapses to Int.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float %v is forbidden in the value tree", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
	return nil
}

// writeText produces a JSON string with NFC normalization.
// CRITICAL: No HTML escaping - <, >, & are emitted literally so documents
// stay diffable and byte-stable across encoder configurations.
func writeText(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	start := buf.Len()
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder adds a trailing newline, remove it
	if buf.Len() > start && buf.Bytes()[buf.Len()-1] == '\n' {
		buf.Truncate(buf.Len() - 1)
	}
	return nil
}

func writeSequence(buf *bytes.Buffer, seq Sequence) error {
	buf.WriteByte('[')
	for i, elem := range seq {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, elem); err != nil {
			return fmt.Errorf("sequence[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeMapping emits keys in insertion order.
// CRITICAL: Insertion order IS the wire order. The codec layer builds
// mappings in declared field order, so the bytes carry that order.
func writeMapping(buf *bytes.Buffer, m *Mapping) error {
	buf.WriteByte('{')
	if m != nil {
		for i, k := range m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeText(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeValue(buf, m.vals[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
	}
	buf.WriteByte('}')
	return nil
}
