package codec

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrlab/phigold/internal/canon"
)

// probe is the composite used across codec tests.
type probe struct {
	Name  string
	Count int64
	Ratio float64
}

func encodeProbe(enc *Encoder, v any) (*canon.Mapping, error) {
	p := v.(*probe)
	ratio, err := enc.Encode(p.Ratio)
	if err != nil {
		return nil, err
	}
	m := canon.NewMapping()
	m.Set("name", canon.Text(p.Name))
	m.Set("count", canon.Int(p.Count))
	m.Set("ratio", ratio)
	return m, nil
}

func decodeProbe(dec *Decoder, fields *FieldMap) (any, error) {
	name, err := fields.Text("name")
	if err != nil {
		return nil, err
	}
	count, err := fields.Int("count")
	if err != nil {
		return nil, err
	}
	ratio, err := fields.Float("ratio")
	if err != nil {
		return nil, err
	}
	return &probe{Name: name, Count: count, Ratio: ratio}, nil
}

func newProbeRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register("Probe", reflect.TypeOf((*probe)(nil)), encodeProbe, decodeProbe))
	return r
}

func encodeToString(t *testing.T, r *Registry, v any) string {
	t.Helper()
	tree, err := NewEncoder(r).Encode(v)
	require.NoError(t, err)
	b, err := canon.Bytes(tree)
	require.NoError(t, err)
	return string(b)
}

func TestEncodePrimitives(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"int64", int64(-9), "-9"},
		{"uint8", uint8(255), "255"},
		{"float", 0.5, "0.5"},
		{"whole float keeps float syntax", float64(3), "3.0"},
		{"float32", float32(0.25), "0.25"},
		{"string", "hello", `"hello"`},
		{"int slice", []int{1, 2, 3}, "[1,2,3]"},
		{"int64 slice", []int64{-1, 0}, "[-1,0]"},
		{"float slice", []float64{0.5, 1}, "[0.5,1.0]"},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
		{"bool slice", []bool{true, false}, "[true,false]"},
		{"mixed slice", []any{int64(1), "x", nil}, `[1,"x",null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encodeToString(t, r, tt.input))
		})
	}
}

func TestEncodeNonFiniteSentinels(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nan", math.NaN(), `"NaN"`},
		{"positive infinity", math.Inf(1), `"Infinity"`},
		{"negative infinity", math.Inf(-1), `"-Infinity"`},
		{"inside slice", []float64{1, math.NaN(), math.Inf(-1)}, `[1.0,"NaN","-Infinity"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encodeToString(t, r, tt.input))
		})
	}
}

func TestEncodeUintOverflow(t *testing.T) {
	_, err := NewEncoder(NewRegistry()).Encode(uint64(math.MaxUint64))
	assert.Error(t, err)
}

func TestEncodeComposite(t *testing.T) {
	r := newProbeRegistry(t)
	p := &probe{Name: "alpha", Count: 3, Ratio: 0.5}

	// Tag first, then fields in declared order.
	assert.Equal(t,
		`{"type":"Probe","name":"alpha","count":3,"ratio":0.5}`,
		encodeToString(t, r, p))
}

func TestEncodeCompositeValueForm(t *testing.T) {
	r := newProbeRegistry(t)

	// A bare value reaches the pointer-registered codec too.
	assert.Equal(t,
		encodeToString(t, r, &probe{Name: "v", Count: 1, Ratio: 1}),
		encodeToString(t, r, probe{Name: "v", Count: 1, Ratio: 1}))
}

func TestEncodeCompositeNonFiniteField(t *testing.T) {
	r := newProbeRegistry(t)
	p := &probe{Name: "inf", Count: 0, Ratio: math.Inf(1)}

	assert.Equal(t,
		`{"type":"Probe","name":"inf","count":0,"ratio":"Infinity"}`,
		encodeToString(t, r, p))
}

func TestEncodeUnregisteredType(t *testing.T) {
	type stranger struct{ X int }

	_, err := NewEncoder(NewRegistry()).Encode(&stranger{X: 1})
	require.Error(t, err)
	assert.True(t, IsUnregisteredType(err))
}

func TestEncodeMapRejected(t *testing.T) {
	_, err := NewEncoder(NewRegistry()).Encode(map[string]int{"a": 1})
	require.Error(t, err)
	assert.True(t, IsUnregisteredType(err))
	assert.Contains(t, err.Error(), "field order")
}

func TestEncodeReservedFieldKey(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Bad", reflect.TypeOf((*gadget)(nil)),
		func(enc *Encoder, v any) (*canon.Mapping, error) {
			m := canon.NewMapping()
			m.Set("type", canon.Text("smuggled"))
			return m, nil
		},
		nopDecode))

	_, err := NewEncoder(r).Encode(&gadget{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved key")
}

func TestEncodeSetCanonicalOrder(t *testing.T) {
	r := NewRegistry()

	// Items sort by their encoded text, not numerically: "1" < "10" < "2".
	assert.Equal(t,
		`{"type":"__set__","items":[1,10,2]}`,
		encodeToString(t, r, Set{int64(2), int64(10), int64(1)}))
}

func TestEncodeSetPermutationInvariant(t *testing.T) {
	r := NewRegistry()
	a := Set{"b", "a", int64(3), []int{1, 2}}
	b := Set{[]int{1, 2}, int64(3), "a", "b"}

	assert.Equal(t, encodeToString(t, r, a), encodeToString(t, r, b))
}

func TestEncodeSetDeduplicates(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t,
		`{"type":"__set__","items":["x"]}`,
		encodeToString(t, r, Set{"x", "x", "x"}))
}

func TestEncodeEmptySet(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, `{"type":"__set__","items":[]}`, encodeToString(t, r, Set{}))
}

func TestEncodeArrayBlock(t *testing.T) {
	r := NewRegistry()
	a, err := NewFloat64Array([]int{2, 2}, []float64{0, 0.5, math.NaN(), math.Inf(1)})
	require.NoError(t, err)

	assert.Equal(t,
		`{"type":"__array__","shape":[2,2],"dtype":"float64","data":[0.0,0.5,"NaN","Infinity"]}`,
		encodeToString(t, r, a))
}

func TestEncodeArrayInconsistent(t *testing.T) {
	// A hand-built inconsistent array fails at encode time.
	bad := &Array{Shape: []int{3}, DType: Float64, Data: []float64{1}}
	_, err := NewEncoder(NewRegistry()).Encode(bad)
	require.Error(t, err)
	assert.True(t, IsMalformedArray(err))
}

func TestEncodeCanonPassthrough(t *testing.T) {
	r := NewRegistry()
	m := canon.MappingOf(
		canon.E("z", canon.Int(1)),
		canon.E("a", canon.Int(2)),
	)

	// An explicit canon tree keeps its declared order untouched.
	assert.Equal(t, `{"z":1,"a":2}`, encodeToString(t, r, m))
}
