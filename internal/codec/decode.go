package codec

import (
	"fmt"

	"github.com/irrlab/phigold/internal/canon"
)

// Decoder raises canon trees back to Go values through the registry.
type Decoder struct {
	registry *Registry
}

// NewDecoder creates a decoder over a registry.
func NewDecoder(r *Registry) *Decoder {
	return &Decoder{registry: r}
}

// Decode raises a canonical tree to a Go value.
//
// Scalars and sequences map back structurally. A mapping dispatches on
// its "type" key: the built-in array and set forms, then the registry.
// A tagged mapping whose tag the registry does not know fails with
// UNKNOWN_TYPE; an untagged mapping becomes a plain map[string]any.
func (d *Decoder) Decode(v canon.Value) (any, error) {
	switch val := v.(type) {
	case canon.Null:
		return nil, nil
	case canon.Bool:
		return bool(val), nil
	case canon.Int:
		return int64(val), nil
	case canon.Float:
		return float64(val), nil
	case canon.Text:
		return string(val), nil
	case canon.Sequence:
		out := make([]any, len(val))
		for i, elem := range val {
			dv, err := d.Decode(elem)
			if err != nil {
				return nil, fmt.Errorf("sequence[%d]: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil
	case *canon.Mapping:
		return d.decodeMapping(val)
	default:
		return nil, NewParseError(fmt.Sprintf("unsupported value %T", v), nil)
	}
}

func (d *Decoder) decodeMapping(m *canon.Mapping) (any, error) {
	tagVal, tagged := m.Get("type")
	if !tagged {
		return d.decodePlainMapping(m)
	}

	tagText, ok := tagVal.(canon.Text)
	if !ok {
		return nil, NewParseError(`the reserved "type" key must hold a string`, nil)
	}
	tag := string(tagText)

	switch tag {
	case arrayTag:
		return d.decodeArray(m)
	case setTag:
		return d.decodeSet(m)
	}

	ent, ok := d.registry.lookupTag(tag)
	if !ok {
		return nil, NewUnknownTypeError(tag)
	}

	out, err := ent.decode(d, newFieldMap(d, tag, m))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag, err)
	}
	return out, nil
}

// decodePlainMapping handles untagged objects. Key order is preserved in
// the tree but the returned Go map makes no ordering promise.
func (d *Decoder) decodePlainMapping(m *canon.Mapping) (map[string]any, error) {
	out := make(map[string]any, m.Len())
	for _, e := range m.Entries() {
		dv, err := d.Decode(e.Value)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", e.Key, err)
		}
		out[e.Key] = dv
	}
	return out, nil
}

func (d *Decoder) decodeSet(m *canon.Mapping) (Set, error) {
	itemsVal, ok := m.Get("items")
	if !ok {
		return nil, NewParseError(`set block is missing "items"`, nil)
	}
	seq, ok := itemsVal.(canon.Sequence)
	if !ok {
		return nil, NewParseError(`set "items" must be an array`, nil)
	}

	out := make(Set, len(seq))
	for i, elem := range seq {
		dv, err := d.Decode(elem)
		if err != nil {
			return nil, fmt.Errorf("set[%d]: %w", i, err)
		}
		out[i] = dv
	}
	return out, nil
}

// decodeArray raises an array block, checking shape, dtype and data
// against each other. Sentinel texts are only meaningful inside float64
// data; anywhere else they are a malformed element.
func (d *Decoder) decodeArray(m *canon.Mapping) (*Array, error) {
	shapeVal, ok := m.Get("shape")
	if !ok {
		return nil, NewMalformedArrayError(`array block is missing "shape"`, nil)
	}
	shapeSeq, ok := shapeVal.(canon.Sequence)
	if !ok {
		return nil, NewMalformedArrayError(`array "shape" must be an array of whole numbers`, nil)
	}
	shape := make([]int, len(shapeSeq))
	for i, elem := range shapeSeq {
		n, ok := elem.(canon.Int)
		if !ok {
			return nil, NewMalformedArrayError(
				fmt.Sprintf("shape[%d] is not a whole number", i), nil)
		}
		if n < 0 {
			return nil, NewMalformedArrayError(
				fmt.Sprintf("shape[%d] is negative: %d", i, int64(n)),
				map[string]string{"extent": fmt.Sprint(int64(n))},
			)
		}
		shape[i] = int(n)
	}

	dtypeVal, ok := m.Get("dtype")
	if !ok {
		return nil, NewMalformedArrayError(`array block is missing "dtype"`, nil)
	}
	dtypeText, ok := dtypeVal.(canon.Text)
	if !ok {
		return nil, NewMalformedArrayError(`array "dtype" must be a string`, nil)
	}

	dataVal, ok := m.Get("data")
	if !ok {
		return nil, NewMalformedArrayError(`array block is missing "data"`, nil)
	}
	dataSeq, ok := dataVal.(canon.Sequence)
	if !ok {
		return nil, NewMalformedArrayError(`array "data" must be an array`, nil)
	}

	want, err := elemCount(shape)
	if err != nil {
		return nil, NewMalformedArrayError(err.Error(), nil)
	}
	if len(dataSeq) != want {
		return nil, NewMalformedArrayError(
			fmt.Sprintf("shape %v wants %d elements, data has %d", shape, want, len(dataSeq)),
			map[string]string{
				"shape":    fmt.Sprint(shape),
				"expected": fmt.Sprint(want),
				"actual":   fmt.Sprint(len(dataSeq)),
			},
		)
	}

	switch DType(dtypeText) {
	case Float64:
		data := make([]float64, len(dataSeq))
		for i, elem := range dataSeq {
			f, err := floatElement(elem)
			if err != nil {
				return nil, NewMalformedArrayError(
					fmt.Sprintf("data[%d]: %v", i, err), nil)
			}
			data[i] = f
		}
		return &Array{Shape: shape, DType: Float64, Data: data}, nil
	case Int64:
		data := make([]int64, len(dataSeq))
		for i, elem := range dataSeq {
			n, ok := elem.(canon.Int)
			if !ok {
				return nil, NewMalformedArrayError(
					fmt.Sprintf("data[%d] is not a whole number", i), nil)
			}
			data[i] = int64(n)
		}
		return &Array{Shape: shape, DType: Int64, Data: data}, nil
	case Bool:
		data := make([]bool, len(dataSeq))
		for i, elem := range dataSeq {
			b, ok := elem.(canon.Bool)
			if !ok {
				return nil, NewMalformedArrayError(
					fmt.Sprintf("data[%d] is not a boolean", i), nil)
			}
			data[i] = bool(b)
		}
		return &Array{Shape: shape, DType: Bool, Data: data}, nil
	default:
		return nil, NewMalformedArrayError(
			fmt.Sprintf("unknown dtype %q", string(dtypeText)),
			map[string]string{"dtype": string(dtypeText)},
		)
	}
}

// floatElement reads one float64 array element: a float, a whole number
// written by a foreign encoder, or a non-finite sentinel.
func floatElement(v canon.Value) (float64, error) {
	switch elem := v.(type) {
	case canon.Float:
		return float64(elem), nil
	case canon.Int:
		return float64(elem), nil
	case canon.Text:
		if f, ok := sentinelFloat(string(elem)); ok {
			return f, nil
		}
		return 0, fmt.Errorf("string %q is not a float sentinel", string(elem))
	default:
		return 0, fmt.Errorf("element %T is not a number", v)
	}
}
