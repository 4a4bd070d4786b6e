package phi

import (
	"fmt"

	"github.com/irrlab/phigold/internal/codec"
)

// Direction orients a repertoire analysis in time.
type Direction int

const (
	// Cause looks backward from the mechanism.
	Cause Direction = iota

	// Effect looks forward from the mechanism.
	Effect

	// Bidirectional covers both orientations.
	Bidirectional
)

// String implements fmt.Stringer. The names are the wire form.
func (d Direction) String() string {
	switch d {
	case Cause:
		return "CAUSE"
	case Effect:
		return "EFFECT"
	case Bidirectional:
		return "BIDIRECTIONAL"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection maps a wire name back to its Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "CAUSE":
		return Cause, nil
	case "EFFECT":
		return Effect, nil
	case "BIDIRECTIONAL":
		return Bidirectional, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Part is one side of a partition: a mechanism subset paired with a
// purview subset, both as node indices.
type Part struct {
	Mechanism []int
	Purview   []int
}

// Bipartition splits a mechanism-purview pair into parts.
type Bipartition struct {
	Parts []*Part
}

// Cut severs the connections from one set of nodes to another,
// unidirectionally. Labels name the nodes for reports.
type Cut struct {
	FromNodes  []int
	ToNodes    []int
	NodeLabels []string
}

// NullCut is the no-op cut carried by a reducible system's analysis.
type NullCut struct {
	NodeIndices []int
}

// SystemCut is the sealed set of cut variants an analysis can carry.
type SystemCut interface {
	systemCut()
}

func (*Cut) systemCut()     {}
func (*NullCut) systemCut() {}

// RepertoireIrreducibilityAnalysis is the result of evaluating one
// mechanism-purview pair against its minimum information partition.
type RepertoireIrreducibilityAnalysis struct {
	Phi                   float64
	Direction             Direction
	Mechanism             []int
	Purview               []int
	Partition             *Bipartition
	Repertoire            *codec.Array
	PartitionedRepertoire *codec.Array
}

// MaximallyIrreducibleCause is the cause-side maximum over purviews.
type MaximallyIrreducibleCause struct {
	RIA *RepertoireIrreducibilityAnalysis
}

// MaximallyIrreducibleEffect is the effect-side maximum over purviews.
type MaximallyIrreducibleEffect struct {
	RIA *RepertoireIrreducibilityAnalysis
}

// Concept pairs a mechanism's maximally irreducible cause and effect.
type Concept struct {
	Phi        float64
	Mechanism  []int
	Cause      *MaximallyIrreducibleCause
	Effect     *MaximallyIrreducibleEffect
	NodeLabels []string
}

// CauseEffectStructure is the collection of a subsystem's concepts.
// Wire order keeps the order given; set semantics are the consumer's
// business.
type CauseEffectStructure struct {
	Concepts []*Concept
}

// Relation ties a set of purviews together with its own irreducibility.
// Relata carry set semantics: the codec canonicalizes their order.
type Relation struct {
	Phi    float64
	Relata codec.Set
}

// SystemIrreducibilityAnalysis is the top-level result: the integrated
// information of a candidate system under its minimum information cut.
type SystemIrreducibilityAnalysis struct {
	Phi            float64
	Ces            *CauseEffectStructure
	PartitionedCes *CauseEffectStructure
	Subsystem      string
	CutSubsystem   string
	Cut            SystemCut
	NetworkState   []int
	NodeIndices    []int
}

// NullSystemIrreducibilityAnalysis builds the zero-phi analysis of a
// reducible system: empty structures and a NullCut over the given nodes.
func NullSystemIrreducibilityAnalysis(nodeIndices []int) *SystemIrreducibilityAnalysis {
	return &SystemIrreducibilityAnalysis{
		Phi:            0,
		Ces:            &CauseEffectStructure{},
		PartitionedCes: &CauseEffectStructure{},
		Cut:            &NullCut{NodeIndices: nodeIndices},
		NodeIndices:    nodeIndices,
	}
}

// PhiStructure bundles a system analysis with its distinctions and
// relations.
type PhiStructure struct {
	Sia          *SystemIrreducibilityAnalysis
	Distinctions []*Concept
	Relations    []*Relation
}

// TPM is a transition probability matrix with its node labels.
type TPM struct {
	Tpm        *codec.Array
	NodeLabels []string
}
