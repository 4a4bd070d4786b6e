package phi

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrlab/phigold/internal/codec"
)

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := codec.Marshal(v, codec.WithRegistry(DefaultRegistry()))
	require.NoError(t, err)
	return data
}

func unmarshal(t *testing.T, data []byte) any {
	t.Helper()
	v, err := codec.Unmarshal(data, codec.WithRegistry(DefaultRegistry()))
	require.NoError(t, err)
	return v
}

func mustFloatArray(t *testing.T, shape []int, data []float64) *codec.Array {
	t.Helper()
	a, err := codec.NewFloat64Array(shape, data)
	require.NoError(t, err)
	return a
}

// sampleRIA builds a small finite repertoire analysis.
func sampleRIA(t *testing.T, direction Direction) *RepertoireIrreducibilityAnalysis {
	t.Helper()
	return &RepertoireIrreducibilityAnalysis{
		Phi:       0.25,
		Direction: direction,
		Mechanism: []int{0},
		Purview:   []int{1},
		Partition: &Bipartition{Parts: []*Part{
			{Mechanism: []int{0}, Purview: nil},
			{Mechanism: nil, Purview: []int{1}},
		}},
		Repertoire:            mustFloatArray(t, []int{2}, []float64{0.75, 0.25}),
		PartitionedRepertoire: mustFloatArray(t, []int{2}, []float64{0.5, 0.5}),
	}
}

func sampleConcept(t *testing.T) *Concept {
	t.Helper()
	return &Concept{
		Phi:        0.25,
		Mechanism:  []int{0},
		Cause:      &MaximallyIrreducibleCause{RIA: sampleRIA(t, Cause)},
		Effect:     &MaximallyIrreducibleEffect{RIA: sampleRIA(t, Effect)},
		NodeLabels: []string{"A", "B"},
	}
}

func sampleSIA(t *testing.T) *SystemIrreducibilityAnalysis {
	t.Helper()
	return &SystemIrreducibilityAnalysis{
		Phi:            1.5,
		Ces:            &CauseEffectStructure{Concepts: []*Concept{sampleConcept(t)}},
		PartitionedCes: &CauseEffectStructure{},
		Subsystem:      "Subsystem((A, B))",
		CutSubsystem:   "Subsystem((A, B))",
		Cut:            &Cut{FromNodes: []int{0}, ToNodes: []int{1}, NodeLabels: []string{"A", "B"}},
		NetworkState:   []int{1, 0},
		NodeIndices:    []int{0, 1},
	}
}

func TestDefaultRegistryHasEveryTag(t *testing.T) {
	tags := DefaultRegistry().Tags()
	assert.ElementsMatch(t, []string{
		TagPart,
		TagBipartition,
		TagCut,
		TagNullCut,
		TagRepertoireIrreducibilityAnalysis,
		TagMaximallyIrreducibleCause,
		TagMaximallyIrreducibleEffect,
		TagConcept,
		TagCauseEffectStructure,
		TagRelation,
		TagSystemIrreducibilityAnalysis,
		TagPhiStructure,
		TagTPM,
	}, tags)
}

func TestRegisterAllConflicts(t *testing.T) {
	r := codec.NewRegistry()
	require.NoError(t, RegisterAll(r))

	err := RegisterAll(r)
	require.Error(t, err)
	assert.True(t, codec.IsDuplicateTypeTag(err))
}

func TestRoundTripEveryObject(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"part", &Part{Mechanism: []int{0, 1}, Purview: []int{2}}},
		{"bipartition", &Bipartition{Parts: []*Part{{Mechanism: []int{0}, Purview: []int{1}}}}},
		{"cut", &Cut{FromNodes: []int{0}, ToNodes: []int{1, 2}, NodeLabels: []string{"A", "B", "C"}}},
		{"null cut", &NullCut{NodeIndices: []int{0, 1}}},
		{"ria", sampleRIA(t, Cause)},
		{"mic", &MaximallyIrreducibleCause{RIA: sampleRIA(t, Cause)}},
		{"mie", &MaximallyIrreducibleEffect{RIA: sampleRIA(t, Effect)}},
		{"concept", sampleConcept(t)},
		{"ces", &CauseEffectStructure{Concepts: []*Concept{sampleConcept(t)}}},
		{"relation", &Relation{Phi: 0.5, Relata: codec.Set{[]int{0, 1}, []int{1, 2}}}},
		{"sia", sampleSIA(t)},
		{"null sia", NullSystemIrreducibilityAnalysis([]int{0, 1, 2})},
		{"phi structure", &PhiStructure{
			Sia:          sampleSIA(t),
			Distinctions: []*Concept{sampleConcept(t)},
			Relations:    []*Relation{{Phi: 0.5, Relata: codec.Set{[]int{0, 1}, []int{1, 2}}}},
		}},
		{"tpm", &TPM{
			Tpm:        mustFloatArray(t, []int{2, 2}, []float64{1, 0, 0.5, 0.5}),
			NodeLabels: []string{"A", "B"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := marshal(t, tt.value)
			decoded := unmarshal(t, data)
			assert.Equal(t, tt.value, decoded)
		})
	}
}

func TestMarshalStableAcrossReencode(t *testing.T) {
	first := marshal(t, sampleSIA(t))
	decoded := unmarshal(t, first)
	second := marshal(t, decoded)
	assert.Equal(t, string(first), string(second))
}

func TestGoldenDocuments(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name  string
		value any
	}{
		{"null_sia", NullSystemIrreducibilityAnalysis([]int{0, 1, 2})},
		{"relation", &Relation{Phi: 0.5, Relata: codec.Set{[]int{1, 2}, []int{0, 1}}}},
		{"tpm", &TPM{
			Tpm: &codec.Array{
				Shape: []int{2, 2},
				DType: codec.Bool,
				Data:  []bool{true, false, false, true},
			},
			NodeLabels: []string{"A", "B"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, marshal(t, tt.value))
		})
	}
}

func TestRelataOrderCanonicalized(t *testing.T) {
	forward := &Relation{Phi: 0.5, Relata: codec.Set{[]int{0, 1}, []int{1, 2}}}
	backward := &Relation{Phi: 0.5, Relata: codec.Set{[]int{1, 2}, []int{0, 1}}}

	assert.Equal(t, marshal(t, forward), marshal(t, backward))
}

func TestNonFiniteRepertoireSurvives(t *testing.T) {
	ria := sampleRIA(t, Cause)
	ria.Repertoire = mustFloatArray(t, []int{3}, []float64{math.NaN(), math.Inf(1), math.Inf(-1)})

	decoded := unmarshal(t, marshal(t, ria)).(*RepertoireIrreducibilityAnalysis)
	assert.True(t, ria.Repertoire.Equal(decoded.Repertoire))
}

func TestDirectionWireNames(t *testing.T) {
	assert.Equal(t, "CAUSE", Cause.String())
	assert.Equal(t, "EFFECT", Effect.String())
	assert.Equal(t, "BIDIRECTIONAL", Bidirectional.String())

	for _, d := range []Direction{Cause, Effect, Bidirectional} {
		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	_, err := ParseDirection("SIDEWAYS")
	assert.Error(t, err)
}

func TestDirectionDecodesFromLegacyInt(t *testing.T) {
	// Older writers emitted the bare enum value.
	doc := `{"version":"1.0.0","type":"RepertoireIrreducibilityAnalysis",` +
		`"phi":0.0,"direction":1,"mechanism":[],"purview":[],` +
		`"partition":null,"repertoire":null,"partitioned_repertoire":null}`

	v, err := codec.Unmarshal([]byte(doc), codec.WithRegistry(DefaultRegistry()))
	require.NoError(t, err)
	assert.Equal(t, Effect, v.(*RepertoireIrreducibilityAnalysis).Direction)
}

func TestDirectionRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"out of range int", `{"version":"1.0.0","type":"RepertoireIrreducibilityAnalysis","phi":0.0,"direction":9,"mechanism":[],"purview":[],"partition":null,"repertoire":null,"partitioned_repertoire":null}`},
		{"unknown name", `{"version":"1.0.0","type":"RepertoireIrreducibilityAnalysis","phi":0.0,"direction":"SIDEWAYS","mechanism":[],"purview":[],"partition":null,"repertoire":null,"partitioned_repertoire":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Unmarshal([]byte(tt.doc), codec.WithRegistry(DefaultRegistry()))
			require.Error(t, err)
			assert.True(t, codec.IsParseError(err))
		})
	}
}

func TestNullSIAShape(t *testing.T) {
	sia := NullSystemIrreducibilityAnalysis([]int{3, 4})

	assert.Zero(t, sia.Phi)
	assert.Empty(t, sia.Ces.Concepts)
	assert.Empty(t, sia.PartitionedCes.Concepts)
	assert.Equal(t, []int{3, 4}, sia.NodeIndices)

	cut, ok := sia.Cut.(*NullCut)
	require.True(t, ok)
	assert.Equal(t, []int{3, 4}, cut.NodeIndices)
}

func TestSIAWithMissingCut(t *testing.T) {
	sia := sampleSIA(t)
	sia.Cut = nil

	decoded := unmarshal(t, marshal(t, sia)).(*SystemIrreducibilityAnalysis)
	assert.Nil(t, decoded.Cut)
}
