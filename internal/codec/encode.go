package codec

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/irrlab/phigold/internal/canon"
)

// Sentinel texts carrying non-finite floats on the wire.
const (
	sentinelNaN    = "NaN"
	sentinelPosInf = "Infinity"
	sentinelNegInf = "-Infinity"
)

// Set marks a collection with set semantics: element order in a Set is
// irrelevant, and the encoder canonicalizes it by sorting the encoded
// form of each element. Equal encodings collapse to one item.
type Set []any

// Encoder lowers Go values to canon trees per the wire format.
// Encoding is pure: the encoder carries only the registry reference.
type Encoder struct {
	registry *Registry
}

// NewEncoder creates an encoder over a registry.
func NewEncoder(r *Registry) *Encoder {
	return &Encoder{registry: r}
}

// Encode lowers a Go value to its canonical tree.
//
// Primitives and homogeneous slices lower structurally. Mappings never
// lower implicitly: Go map iteration order would leak into the bytes, so
// composites go through the registry and raw objects through
// *canon.Mapping, both of which carry declared order.
func (e *Encoder) Encode(v any) (canon.Value, error) {
	switch val := v.(type) {
	case nil:
		return canon.Null{}, nil
	case canon.Value:
		return val, nil
	case bool:
		return canon.Bool(val), nil
	case int:
		return canon.Int(val), nil
	case int8:
		return canon.Int(val), nil
	case int16:
		return canon.Int(val), nil
	case int32:
		return canon.Int(val), nil
	case int64:
		return canon.Int(val), nil
	case uint:
		return encodeUint(uint64(val))
	case uint8:
		return canon.Int(val), nil
	case uint16:
		return canon.Int(val), nil
	case uint32:
		return canon.Int(val), nil
	case uint64:
		return encodeUint(val)
	case float32:
		return encodeFloat(float64(val)), nil
	case float64:
		return encodeFloat(val), nil
	case string:
		return canon.Text(val), nil
	case Set:
		return e.encodeSet(val)
	case *Array:
		return e.encodeArray(val)
	case []int:
		seq := make(canon.Sequence, len(val))
		for i, n := range val {
			seq[i] = canon.Int(n)
		}
		return seq, nil
	case []int64:
		seq := make(canon.Sequence, len(val))
		for i, n := range val {
			seq[i] = canon.Int(n)
		}
		return seq, nil
	case []float64:
		seq := make(canon.Sequence, len(val))
		for i, f := range val {
			seq[i] = encodeFloat(f)
		}
		return seq, nil
	case []string:
		seq := make(canon.Sequence, len(val))
		for i, s := range val {
			seq[i] = canon.Text(s)
		}
		return seq, nil
	case []bool:
		seq := make(canon.Sequence, len(val))
		for i, b := range val {
			seq[i] = canon.Bool(b)
		}
		return seq, nil
	case []any:
		seq := make(canon.Sequence, len(val))
		for i, elem := range val {
			ev, err := e.Encode(elem)
			if err != nil {
				return nil, fmt.Errorf("sequence[%d]: %w", i, err)
			}
			seq[i] = ev
		}
		return seq, nil
	default:
		return e.encodeReflect(v)
	}
}

// encodeFloat rewrites non-finite values to sentinel text so the value
// tree stays finite.
func encodeFloat(f float64) canon.Value {
	switch {
	case math.IsNaN(f):
		return canon.Text(sentinelNaN)
	case math.IsInf(f, 1):
		return canon.Text(sentinelPosInf)
	case math.IsInf(f, -1):
		return canon.Text(sentinelNegInf)
	default:
		return canon.Float(f)
	}
}

func encodeUint(v uint64) (canon.Value, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned value %d overflows int64", v)
	}
	return canon.Int(v), nil
}

// encodeReflect handles everything the type switch does not: slices of
// named types lower element-wise, typed nil pointers lower to null (how
// optional nested composites travel), maps are refused, and the rest
// dispatches through the registry with the tag key written first and
// fields in the order the registered encode function declared them.
func (e *Encoder) encodeReflect(v any) (canon.Value, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil() {
		return canon.Null{}, nil
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		rv := reflect.ValueOf(v)
		seq := make(canon.Sequence, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := e.Encode(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("sequence[%d]: %w", i, err)
			}
			seq[i] = ev
		}
		return seq, nil
	}
	if t.Kind() == reflect.Map {
		return nil, &CodecError{
			Code:    ErrCodeUnregisteredType,
			Message: fmt.Sprintf("Go maps have no declared field order; wrap %s in a registered composite or *canon.Mapping", t),
			Details: map[string]string{"go_type": t.String()},
		}
	}

	ent, ok := e.registry.lookupType(t)
	if !ok {
		return nil, NewUnregisteredTypeError(t.String())
	}

	fields, err := ent.encode(e, boxForEntry(ent, v))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ent.tag, err)
	}
	for _, reserved := range []string{"type", "version"} {
		if fields.Has(reserved) {
			return nil, fmt.Errorf("encode %s: field mapping uses the reserved key %q", ent.tag, reserved)
		}
	}

	out := canon.NewMapping()
	out.Set("type", canon.Text(ent.tag))
	for _, fe := range fields.Entries() {
		out.Set(fe.Key, fe.Value)
	}
	return out, nil
}

// boxForEntry hands the encode function the pointer form it registered,
// boxing a bare value when the caller passed one.
func boxForEntry(ent *entry, v any) any {
	rv := reflect.ValueOf(v)
	if ent.goType.Kind() == reflect.Pointer && rv.Type() == ent.goType.Elem() {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return p.Interface()
	}
	return v
}

// encodeSet canonicalizes set elements: encode each, serialize, sort by
// the serialized bytes, drop exact duplicates. Wire order is therefore a
// total order independent of input order.
func (e *Encoder) encodeSet(s Set) (canon.Value, error) {
	type item struct {
		encoded []byte
		value   canon.Value
	}

	items := make([]item, 0, len(s))
	for i, elem := range s {
		ev, err := e.Encode(elem)
		if err != nil {
			return nil, fmt.Errorf("set[%d]: %w", i, err)
		}
		b, err := canon.Bytes(ev)
		if err != nil {
			return nil, fmt.Errorf("set[%d]: %w", i, err)
		}
		items = append(items, item{encoded: b, value: ev})
	}

	sort.Slice(items, func(i, j int) bool {
		return bytes.Compare(items[i].encoded, items[j].encoded) < 0
	})

	seq := make(canon.Sequence, 0, len(items))
	for i, it := range items {
		if i > 0 && bytes.Equal(items[i-1].encoded, it.encoded) {
			continue
		}
		seq = append(seq, it.value)
	}

	out := canon.NewMapping()
	out.Set("type", canon.Text(setTag))
	out.Set("items", seq)
	return out, nil
}

// encodeArray lowers an Array to its wire block. Float64 data passes
// through the sentinel rewrite so non-finite entries survive.
func (e *Encoder) encodeArray(a *Array) (canon.Value, error) {
	if a == nil {
		return canon.Null{}, nil
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	shape := make(canon.Sequence, len(a.Shape))
	for i, d := range a.Shape {
		shape[i] = canon.Int(d)
	}

	var data canon.Sequence
	switch d := a.Data.(type) {
	case []float64:
		data = make(canon.Sequence, len(d))
		for i, f := range d {
			data[i] = encodeFloat(f)
		}
	case []int64:
		data = make(canon.Sequence, len(d))
		for i, n := range d {
			data[i] = canon.Int(n)
		}
	case []bool:
		data = make(canon.Sequence, len(d))
		for i, b := range d {
			data[i] = canon.Bool(b)
		}
	}

	out := canon.NewMapping()
	out.Set("type", canon.Text(arrayTag))
	out.Set("shape", shape)
	out.Set("dtype", canon.Text(string(a.DType)))
	out.Set("data", data)
	return out, nil
}
