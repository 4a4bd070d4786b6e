package fixture

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irrlab/phigold/internal/canon"
	"github.com/irrlab/phigold/internal/codec"
)

// measurement is the composite stored by fixture tests.
type measurement struct {
	Label string
	Phi   float64
}

func encodeMeasurement(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	m := v.(*measurement)
	phi, err := enc.Encode(m.Phi)
	if err != nil {
		return nil, err
	}
	out := canon.NewMapping()
	out.Set("label", canon.Text(m.Label))
	out.Set("phi", phi)
	return out, nil
}

func decodeMeasurement(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	label, err := fields.Text("label")
	if err != nil {
		return nil, err
	}
	phi, err := fields.Float("phi")
	if err != nil {
		return nil, err
	}
	return &measurement{Label: label, Phi: phi}, nil
}

// newTestRegistry builds a fresh registry knowing only measurement.
func newTestRegistry(t *testing.T) *codec.Registry {
	t.Helper()
	r := codec.NewRegistry()
	require.NoError(t, r.Register("Measurement",
		reflect.TypeOf((*measurement)(nil)), encodeMeasurement, decodeMeasurement))
	return r
}

// testCodecOpts returns codec options binding the test registry.
func testCodecOpts(t *testing.T) []codec.Option {
	t.Helper()
	return []codec.Option{codec.WithRegistry(newTestRegistry(t))}
}

// discardLogger suppresses log output in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore creates a store in a fresh temp directory wired to the
// test registry.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(),
		WithStoreLogger(discardLogger()),
		WithStoreCodec(testCodecOpts(t)...))
	require.NoError(t, err)
	return s
}
