package canon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a single JSON value into a value tree.
// CRITICAL: Object key order is preserved into Mapping, so a parse
// followed by a write reproduces the field order of canonical input.
//
// Strictness rules:
//   - Numbers without '.' or an exponent become Int; int64 overflow fails
//   - Numbers with '.' or an exponent become Float
//   - Duplicate keys in one object: last value wins, the key keeps the
//     position of its first occurrence
//   - Content after the top-level value fails the parse
func Parse(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected content after top-level value")
	}
	return v, nil
}

// ParseBytes reads a single JSON value from a byte slice.
func ParseBytes(data []byte) (Value, error) {
	return Parse(bytes.NewReader(data))
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseMapping(dec)
		case '[':
			return parseSequence(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return Text(t), nil
	case json.Number:
		return parseNumber(t)
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// parseNumber keeps the Int/Float distinction: a '.' or exponent in the
// source text forces Float even when the value is whole.
func parseNumber(n json.Number) (Value, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("whole number out of int64 range: %s", s)
	}
	return Int(i), nil
}

func parseSequence(dec *json.Decoder) (Value, error) {
	seq := Sequence{}
	for dec.More() {
		elem, err := parseValue(dec)
		if err != nil {
			return nil, fmt.Errorf("sequence[%d]: %w", len(seq), err)
		}
		seq = append(seq, elem)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return seq, nil
}

func parseMapping(dec *json.Decoder) (Value, error) {
	m := NewMapping()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", key, err)
		}
		m.Set(key, val)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}
