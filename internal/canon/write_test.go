package canon

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "null"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"string", Text("hello"), `"hello"`},
		{"empty string", Text(""), `""`},
		{"empty sequence", Sequence{}, "[]"},
		{"empty mapping", NewMapping(), "{}"},
		{"sequence of ints", Seq(Int(1), Int(2), Int(3)), "[1,2,3]"},
		{"simple mapping", MappingOf(E("a", Int(1))), `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Bytes(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestBytesFloatForms(t *testing.T) {
	tests := []struct {
		name     string
		input    Float
		expected string
	}{
		// Whole-valued floats keep float syntax so a reparse stays Float.
		{"whole float", Float(3), "3.0"},
		{"negative whole float", Float(-2), "-2.0"},
		{"negative zero", Float(math.Copysign(0, -1)), "-0.0"},
		{"fraction", Float(0.1), "0.1"},
		{"half", Float(0.5), "0.5"},
		{"shortest repr", Float(0.30000000000000004), "0.30000000000000004"},
		{"large exponent", Float(1e21), "1e+21"},
		{"small exponent", Float(5e-324), "5e-324"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Bytes(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestBytesNonFiniteFloatRejected(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Bytes(Float(f))
		assert.Error(t, err)
	}
}

func TestBytesMappingInsertionOrder(t *testing.T) {
	m := NewMapping()
	m.Set("zebra", Int(1))
	m.Set("alpha", Int(2))
	m.Set("beta", Int(3))

	result, err := Bytes(m)
	require.NoError(t, err)

	// Keys come out in the order they went in, never sorted.
	assert.Equal(t, `{"zebra":1,"alpha":2,"beta":3}`, string(result))
}

func TestBytesNestedMappingOrder(t *testing.T) {
	m := MappingOf(
		E("z", MappingOf(E("b", Int(1)), E("a", Int(2)))),
		E("a", Int(3)),
	)

	result, err := Bytes(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":{"b":1,"a":2},"a":3}`, string(result))
}

func TestBytesNoHTMLEscape(t *testing.T) {
	result, err := Bytes(Text("<cut> & </cut>"))
	require.NoError(t, err)
	assert.Equal(t, `"<cut> & </cut>"`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
	assert.NotContains(t, string(result), `\u0026`)
}

func TestBytesNFCNormalization(t *testing.T) {
	// e + combining acute (NFD) normalizes to the precomposed form (NFC).
	decomposed := Text("Café")
	precomposed := Text("Café")

	d, err := Bytes(decomposed)
	require.NoError(t, err)
	p, err := Bytes(precomposed)
	require.NoError(t, err)

	assert.Equal(t, string(p), string(d))
}

func TestBytesControlCharacterEscapes(t *testing.T) {
	result, err := Bytes(Text("line1\nline2\ttab"))
	require.NoError(t, err)
	assert.Equal(t, `"line1\nline2\ttab"`, string(result))
}

func TestWriteMatchesBytes(t *testing.T) {
	v := MappingOf(
		E("phi", Float(1.5)),
		E("nodes", Seq(Int(0), Int(1), Int(2))),
		E("label", Text("ABC")),
		E("null", Null{}),
	)

	expected, err := Bytes(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, v))
	assert.Equal(t, expected, buf.Bytes())
}

func TestBytesParseStability(t *testing.T) {
	// Bytes(Parse(Bytes(v))) == Bytes(v) for representative trees.
	trees := []Value{
		Null{},
		Bool(false),
		Int(-9000),
		Float(2.5),
		Float(4),
		Text("κé"),
		Seq(Int(1), Float(1), Text("1"), Null{}),
		MappingOf(
			E("b", Seq(Float(0.25), Int(0))),
			E("a", MappingOf(E("x", Text("y")))),
		),
	}

	for _, tree := range trees {
		first, err := Bytes(tree)
		require.NoError(t, err)

		reparsed, err := ParseBytes(first)
		require.NoError(t, err)

		second, err := Bytes(reparsed)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	}
}
