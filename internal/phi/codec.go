package phi

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/irrlab/phigold/internal/canon"
	"github.com/irrlab/phigold/internal/codec"
)

// Wire tags for the registered result objects.
const (
	TagPart                             = "Part"
	TagBipartition                      = "Bipartition"
	TagCut                              = "Cut"
	TagNullCut                          = "NullCut"
	TagRepertoireIrreducibilityAnalysis = "RepertoireIrreducibilityAnalysis"
	TagMaximallyIrreducibleCause        = "MaximallyIrreducibleCause"
	TagMaximallyIrreducibleEffect       = "MaximallyIrreducibleEffect"
	TagConcept                          = "Concept"
	TagCauseEffectStructure             = "CauseEffectStructure"
	TagRelation                         = "Relation"
	TagSystemIrreducibilityAnalysis     = "SystemIrreducibilityAnalysis"
	TagPhiStructure                     = "PhiStructure"
	TagTPM                              = "TPM"
)

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *codec.Registry
)

// DefaultRegistry returns the process-wide registry carrying every phi
// result object. The registry is built once and read-only afterwards.
func DefaultRegistry() *codec.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = codec.NewRegistry()
		if err := RegisterAll(defaultRegistry); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}

// RegisterAll registers every result object in r. Registration order is
// fixed so conflicts surface deterministically.
func RegisterAll(r *codec.Registry) error {
	regs := []struct {
		tag    string
		goType reflect.Type
		enc    codec.EncodeFunc
		dec    codec.DecodeFunc
	}{
		{TagPart, reflect.TypeOf((*Part)(nil)), encodePart, decodePart},
		{TagBipartition, reflect.TypeOf((*Bipartition)(nil)), encodeBipartition, decodeBipartition},
		{TagCut, reflect.TypeOf((*Cut)(nil)), encodeCut, decodeCut},
		{TagNullCut, reflect.TypeOf((*NullCut)(nil)), encodeNullCut, decodeNullCut},
		{TagRepertoireIrreducibilityAnalysis, reflect.TypeOf((*RepertoireIrreducibilityAnalysis)(nil)), encodeRIA, decodeRIA},
		{TagMaximallyIrreducibleCause, reflect.TypeOf((*MaximallyIrreducibleCause)(nil)), encodeMIC, decodeMIC},
		{TagMaximallyIrreducibleEffect, reflect.TypeOf((*MaximallyIrreducibleEffect)(nil)), encodeMIE, decodeMIE},
		{TagConcept, reflect.TypeOf((*Concept)(nil)), encodeConcept, decodeConcept},
		{TagCauseEffectStructure, reflect.TypeOf((*CauseEffectStructure)(nil)), encodeCES, decodeCES},
		{TagRelation, reflect.TypeOf((*Relation)(nil)), encodeRelation, decodeRelation},
		{TagSystemIrreducibilityAnalysis, reflect.TypeOf((*SystemIrreducibilityAnalysis)(nil)), encodeSIA, decodeSIA},
		{TagPhiStructure, reflect.TypeOf((*PhiStructure)(nil)), encodePhiStructure, decodePhiStructure},
		{TagTPM, reflect.TypeOf((*TPM)(nil)), encodeTPM, decodeTPM},
	}
	for _, reg := range regs {
		if err := r.Register(reg.tag, reg.goType, reg.enc, reg.dec); err != nil {
			return err
		}
	}
	return nil
}

// childAs decodes a nested field and asserts its Go type. A null field
// comes back as the zero value, which is how optional children travel.
func childAs[T any](fields *codec.FieldMap, key string) (T, error) {
	var zero T
	v, err := fields.Child(key)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, codec.NewParseError(
			fmt.Sprintf("field %q holds %T", key, v),
			map[string]string{"field": key, "tag": fields.Tag()},
		)
	}
	return out, nil
}

// childSliceAs decodes a sequence field and asserts every element.
func childSliceAs[T any](fields *codec.FieldMap, key string) ([]T, error) {
	items, err := fields.ChildSlice(key)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, nil
	}
	out := make([]T, len(items))
	for i, item := range items {
		cast, ok := item.(T)
		if !ok {
			return nil, codec.NewParseError(
				fmt.Sprintf("field %q[%d] holds %T", key, i, item),
				map[string]string{"field": key, "tag": fields.Tag()},
			)
		}
		out[i] = cast
	}
	return out, nil
}

func encodePart(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	p := v.(*Part)
	m := canon.NewMapping()
	if err := setField(enc, m, "mechanism", p.Mechanism); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "purview", p.Purview); err != nil {
		return nil, err
	}
	return m, nil
}

func decodePart(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	mechanism, err := fields.IntSlice("mechanism")
	if err != nil {
		return nil, err
	}
	purview, err := fields.IntSlice("purview")
	if err != nil {
		return nil, err
	}
	return &Part{Mechanism: mechanism, Purview: purview}, nil
}

func encodeBipartition(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	b := v.(*Bipartition)
	m := canon.NewMapping()
	if err := setField(enc, m, "parts", b.Parts); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeBipartition(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	parts, err := childSliceAs[*Part](fields, "parts")
	if err != nil {
		return nil, err
	}
	return &Bipartition{Parts: parts}, nil
}

func encodeCut(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	c := v.(*Cut)
	m := canon.NewMapping()
	if err := setField(enc, m, "from_nodes", c.FromNodes); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "to_nodes", c.ToNodes); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "node_labels", c.NodeLabels); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeCut(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	from, err := fields.IntSlice("from_nodes")
	if err != nil {
		return nil, err
	}
	to, err := fields.IntSlice("to_nodes")
	if err != nil {
		return nil, err
	}
	labels, err := fields.TextSlice("node_labels")
	if err != nil {
		return nil, err
	}
	return &Cut{FromNodes: from, ToNodes: to, NodeLabels: labels}, nil
}

func encodeNullCut(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	c := v.(*NullCut)
	m := canon.NewMapping()
	if err := setField(enc, m, "node_indices", c.NodeIndices); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeNullCut(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	indices, err := fields.IntSlice("node_indices")
	if err != nil {
		return nil, err
	}
	return &NullCut{NodeIndices: indices}, nil
}

func encodeRIA(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	ria := v.(*RepertoireIrreducibilityAnalysis)
	m := canon.NewMapping()
	if err := setField(enc, m, "phi", ria.Phi); err != nil {
		return nil, err
	}
	m.Set("direction", canon.Text(ria.Direction.String()))
	if err := setField(enc, m, "mechanism", ria.Mechanism); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "purview", ria.Purview); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "partition", ria.Partition); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "repertoire", ria.Repertoire); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "partitioned_repertoire", ria.PartitionedRepertoire); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeRIA(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	phi, err := fields.Float("phi")
	if err != nil {
		return nil, err
	}
	direction, err := decodeDirection(fields, "direction")
	if err != nil {
		return nil, err
	}
	mechanism, err := fields.IntSlice("mechanism")
	if err != nil {
		return nil, err
	}
	purview, err := fields.IntSlice("purview")
	if err != nil {
		return nil, err
	}
	partition, err := childAs[*Bipartition](fields, "partition")
	if err != nil {
		return nil, err
	}
	repertoire, err := childAs[*codec.Array](fields, "repertoire")
	if err != nil {
		return nil, err
	}
	partitioned, err := childAs[*codec.Array](fields, "partitioned_repertoire")
	if err != nil {
		return nil, err
	}
	return &RepertoireIrreducibilityAnalysis{
		Phi:                   phi,
		Direction:             direction,
		Mechanism:             mechanism,
		Purview:               purview,
		Partition:             partition,
		Repertoire:            repertoire,
		PartitionedRepertoire: partitioned,
	}, nil
}

// decodeDirection accepts the wire name or, for documents written by
// older tooling, the bare enum value.
func decodeDirection(fields *codec.FieldMap, key string) (Direction, error) {
	v, err := fields.Child(key)
	if err != nil {
		return 0, err
	}
	switch d := v.(type) {
	case string:
		parsed, err := ParseDirection(d)
		if err != nil {
			return 0, codec.NewParseError(err.Error(), map[string]string{"field": key})
		}
		return parsed, nil
	case int64:
		if d < int64(Cause) || d > int64(Bidirectional) {
			return 0, codec.NewParseError(
				fmt.Sprintf("direction value %d out of range", d),
				map[string]string{"field": key},
			)
		}
		return Direction(d), nil
	default:
		return 0, codec.NewParseError(
			fmt.Sprintf("field %q holds %T, want a direction", key, v),
			map[string]string{"field": key},
		)
	}
}

func encodeMIC(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	mic := v.(*MaximallyIrreducibleCause)
	m := canon.NewMapping()
	if err := setField(enc, m, "ria", mic.RIA); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeMIC(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	ria, err := childAs[*RepertoireIrreducibilityAnalysis](fields, "ria")
	if err != nil {
		return nil, err
	}
	return &MaximallyIrreducibleCause{RIA: ria}, nil
}

func encodeMIE(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	mie := v.(*MaximallyIrreducibleEffect)
	m := canon.NewMapping()
	if err := setField(enc, m, "ria", mie.RIA); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeMIE(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	ria, err := childAs[*RepertoireIrreducibilityAnalysis](fields, "ria")
	if err != nil {
		return nil, err
	}
	return &MaximallyIrreducibleEffect{RIA: ria}, nil
}

func encodeConcept(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	c := v.(*Concept)
	m := canon.NewMapping()
	if err := setField(enc, m, "phi", c.Phi); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "mechanism", c.Mechanism); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "cause", c.Cause); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "effect", c.Effect); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "node_labels", c.NodeLabels); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeConcept(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	phi, err := fields.Float("phi")
	if err != nil {
		return nil, err
	}
	mechanism, err := fields.IntSlice("mechanism")
	if err != nil {
		return nil, err
	}
	cause, err := childAs[*MaximallyIrreducibleCause](fields, "cause")
	if err != nil {
		return nil, err
	}
	effect, err := childAs[*MaximallyIrreducibleEffect](fields, "effect")
	if err != nil {
		return nil, err
	}
	labels, err := fields.TextSlice("node_labels")
	if err != nil {
		return nil, err
	}
	return &Concept{
		Phi:        phi,
		Mechanism:  mechanism,
		Cause:      cause,
		Effect:     effect,
		NodeLabels: labels,
	}, nil
}

func encodeCES(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	ces := v.(*CauseEffectStructure)
	m := canon.NewMapping()
	if err := setField(enc, m, "concepts", ces.Concepts); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeCES(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	concepts, err := childSliceAs[*Concept](fields, "concepts")
	if err != nil {
		return nil, err
	}
	return &CauseEffectStructure{Concepts: concepts}, nil
}

func encodeRelation(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	rel := v.(*Relation)
	m := canon.NewMapping()
	if err := setField(enc, m, "phi", rel.Phi); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "relata", rel.Relata); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeRelation(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	phi, err := fields.Float("phi")
	if err != nil {
		return nil, err
	}
	relataRaw, err := childAs[codec.Set](fields, "relata")
	if err != nil {
		return nil, err
	}

	// Relata are purviews: normalize each back to a node index slice.
	relata := make(codec.Set, len(relataRaw))
	for i, item := range relataRaw {
		purview, err := intSliceFromAny(item)
		if err != nil {
			return nil, codec.NewParseError(
				fmt.Sprintf("relata[%d]: %v", i, err),
				map[string]string{"field": "relata"},
			)
		}
		relata[i] = purview
	}
	return &Relation{Phi: phi, Relata: relata}, nil
}

func intSliceFromAny(v any) ([]int, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("purview holds %T, want a sequence of node indices", v)
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, ok := item.(int64)
		if !ok {
			return nil, fmt.Errorf("node index %d holds %T", i, item)
		}
		out[i] = int(n)
	}
	return out, nil
}

func encodeSIA(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	sia := v.(*SystemIrreducibilityAnalysis)
	m := canon.NewMapping()
	if err := setField(enc, m, "phi", sia.Phi); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "ces", sia.Ces); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "partitioned_ces", sia.PartitionedCes); err != nil {
		return nil, err
	}
	m.Set("subsystem", canon.Text(sia.Subsystem))
	m.Set("cut_subsystem", canon.Text(sia.CutSubsystem))
	if err := setField(enc, m, "cut", sia.Cut); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "network_state", sia.NetworkState); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "node_indices", sia.NodeIndices); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeSIA(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	phi, err := fields.Float("phi")
	if err != nil {
		return nil, err
	}
	ces, err := childAs[*CauseEffectStructure](fields, "ces")
	if err != nil {
		return nil, err
	}
	partitioned, err := childAs[*CauseEffectStructure](fields, "partitioned_ces")
	if err != nil {
		return nil, err
	}
	subsystem, err := fields.Text("subsystem")
	if err != nil {
		return nil, err
	}
	cutSubsystem, err := fields.Text("cut_subsystem")
	if err != nil {
		return nil, err
	}
	cut, err := decodeSystemCut(fields, "cut")
	if err != nil {
		return nil, err
	}
	state, err := fields.IntSlice("network_state")
	if err != nil {
		return nil, err
	}
	indices, err := fields.IntSlice("node_indices")
	if err != nil {
		return nil, err
	}
	return &SystemIrreducibilityAnalysis{
		Phi:            phi,
		Ces:            ces,
		PartitionedCes: partitioned,
		Subsystem:      subsystem,
		CutSubsystem:   cutSubsystem,
		Cut:            cut,
		NetworkState:   state,
		NodeIndices:    indices,
	}, nil
}

func decodeSystemCut(fields *codec.FieldMap, key string) (SystemCut, error) {
	v, err := fields.Child(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	cut, ok := v.(SystemCut)
	if !ok {
		return nil, codec.NewParseError(
			fmt.Sprintf("field %q holds %T, want a cut", key, v),
			map[string]string{"field": key, "tag": fields.Tag()},
		)
	}
	return cut, nil
}

func encodePhiStructure(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	ps := v.(*PhiStructure)
	m := canon.NewMapping()
	if err := setField(enc, m, "sia", ps.Sia); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "distinctions", ps.Distinctions); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "relations", ps.Relations); err != nil {
		return nil, err
	}
	return m, nil
}

func decodePhiStructure(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	sia, err := childAs[*SystemIrreducibilityAnalysis](fields, "sia")
	if err != nil {
		return nil, err
	}
	distinctions, err := childSliceAs[*Concept](fields, "distinctions")
	if err != nil {
		return nil, err
	}
	relations, err := childSliceAs[*Relation](fields, "relations")
	if err != nil {
		return nil, err
	}
	return &PhiStructure{Sia: sia, Distinctions: distinctions, Relations: relations}, nil
}

func encodeTPM(enc *codec.Encoder, v any) (*canon.Mapping, error) {
	tpm := v.(*TPM)
	m := canon.NewMapping()
	if err := setField(enc, m, "tpm", tpm.Tpm); err != nil {
		return nil, err
	}
	if err := setField(enc, m, "node_labels", tpm.NodeLabels); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeTPM(dec *codec.Decoder, fields *codec.FieldMap) (any, error) {
	arr, err := childAs[*codec.Array](fields, "tpm")
	if err != nil {
		return nil, err
	}
	labels, err := fields.TextSlice("node_labels")
	if err != nil {
		return nil, err
	}
	return &TPM{Tpm: arr, NodeLabels: labels}, nil
}

// setField encodes one field value into the mapping under its wire name.
func setField(enc *codec.Encoder, m *canon.Mapping, key string, v any) error {
	ev, err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	m.Set(key, ev)
	return nil
}
