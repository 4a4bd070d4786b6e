package codec

import (
	"fmt"
	"math"

	"github.com/irrlab/phigold/internal/canon"
)

// FieldMap is the decoder-side view of a composite's fields. Getters
// resolve by name, convert to the requested kind, and fail with
// PARSE_ERROR naming the field when it is missing or mistyped.
type FieldMap struct {
	tag string
	m   *canon.Mapping
	dec *Decoder
}

func newFieldMap(dec *Decoder, tag string, m *canon.Mapping) *FieldMap {
	return &FieldMap{tag: tag, m: m, dec: dec}
}

// Tag returns the composite's type tag.
func (f *FieldMap) Tag() string {
	return f.tag
}

// Has reports whether the field is present.
func (f *FieldMap) Has(key string) bool {
	return f.m.Has(key)
}

func (f *FieldMap) missing(key string) error {
	return NewParseError(
		fmt.Sprintf("missing field %q", key),
		map[string]string{"field": key, "tag": f.tag},
	)
}

func (f *FieldMap) mistyped(key, want string) error {
	return NewParseError(
		fmt.Sprintf("field %q is not %s", key, want),
		map[string]string{"field": key, "tag": f.tag},
	)
}

// Text returns a string field.
func (f *FieldMap) Text(key string) (string, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return "", f.missing(key)
	}
	t, ok := v.(canon.Text)
	if !ok {
		return "", f.mistyped(key, "a string")
	}
	return string(t), nil
}

// Int returns a whole-number field.
func (f *FieldMap) Int(key string) (int64, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return 0, f.missing(key)
	}
	n, ok := v.(canon.Int)
	if !ok {
		return 0, f.mistyped(key, "a whole number")
	}
	return int64(n), nil
}

// Bool returns a boolean field.
func (f *FieldMap) Bool(key string) (bool, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return false, f.missing(key)
	}
	b, ok := v.(canon.Bool)
	if !ok {
		return false, f.mistyped(key, "a boolean")
	}
	return bool(b), nil
}

// Float returns a float field. Whole numbers promote, and the three
// non-finite sentinels come back as their float values.
func (f *FieldMap) Float(key string) (float64, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return 0, f.missing(key)
	}
	switch val := v.(type) {
	case canon.Float:
		return float64(val), nil
	case canon.Int:
		return float64(val), nil
	case canon.Text:
		if sf, ok := sentinelFloat(string(val)); ok {
			return sf, nil
		}
	}
	return 0, f.mistyped(key, "a number")
}

// IntSlice returns a field holding a sequence of whole numbers as []int.
// An empty sequence comes back nil, as do the other slice getters: nil
// and empty mean the same thing to callers, and nil keeps round-tripped
// values deeply equal to their originals.
func (f *FieldMap) IntSlice(key string) ([]int, error) {
	seq, err := f.Sequence(key)
	if err != nil {
		return nil, err
	}
	if len(seq) == 0 {
		return nil, nil
	}
	out := make([]int, len(seq))
	for i, elem := range seq {
		n, ok := elem.(canon.Int)
		if !ok {
			return nil, f.mistyped(key, "a sequence of whole numbers")
		}
		out[i] = int(n)
	}
	return out, nil
}

// FloatSlice returns a field holding a sequence of numbers as []float64,
// sentinels included.
func (f *FieldMap) FloatSlice(key string) ([]float64, error) {
	seq, err := f.Sequence(key)
	if err != nil {
		return nil, err
	}
	if len(seq) == 0 {
		return nil, nil
	}
	out := make([]float64, len(seq))
	for i, elem := range seq {
		fl, ferr := floatElement(elem)
		if ferr != nil {
			return nil, f.mistyped(key, "a sequence of numbers")
		}
		out[i] = fl
	}
	return out, nil
}

// TextSlice returns a field holding a sequence of strings.
func (f *FieldMap) TextSlice(key string) ([]string, error) {
	seq, err := f.Sequence(key)
	if err != nil {
		return nil, err
	}
	if len(seq) == 0 {
		return nil, nil
	}
	out := make([]string, len(seq))
	for i, elem := range seq {
		t, ok := elem.(canon.Text)
		if !ok {
			return nil, f.mistyped(key, "a sequence of strings")
		}
		out[i] = string(t)
	}
	return out, nil
}

// Sequence returns a field's raw sequence.
func (f *FieldMap) Sequence(key string) (canon.Sequence, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return nil, f.missing(key)
	}
	seq, ok := v.(canon.Sequence)
	if !ok {
		return nil, f.mistyped(key, "a sequence")
	}
	return seq, nil
}

// Mapping returns a field's raw mapping.
func (f *FieldMap) Mapping(key string) (*canon.Mapping, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return nil, f.missing(key)
	}
	m, ok := v.(*canon.Mapping)
	if !ok {
		return nil, f.mistyped(key, "an object")
	}
	return m, nil
}

// Child decodes a field's value recursively. A null field decodes to nil,
// which is how optional nested objects travel.
func (f *FieldMap) Child(key string) (any, error) {
	v, ok := f.m.Get(key)
	if !ok {
		return nil, f.missing(key)
	}
	out, err := f.dec.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return out, nil
}

// ChildSlice decodes each element of a sequence field recursively.
func (f *FieldMap) ChildSlice(key string) ([]any, error) {
	seq, err := f.Sequence(key)
	if err != nil {
		return nil, err
	}
	if len(seq) == 0 {
		return nil, nil
	}
	out := make([]any, len(seq))
	for i, elem := range seq {
		dv, derr := f.dec.Decode(elem)
		if derr != nil {
			return nil, fmt.Errorf("field %q[%d]: %w", key, i, derr)
		}
		out[i] = dv
	}
	return out, nil
}

// sentinelFloat maps the non-finite sentinel texts to their values.
func sentinelFloat(s string) (float64, bool) {
	switch s {
	case sentinelNaN:
		return math.NaN(), true
	case sentinelPosInf:
		return math.Inf(1), true
	case sentinelNegInf:
		return math.Inf(-1), true
	default:
		return 0, false
	}
}
