package codec

import (
	"fmt"
	"reflect"

	"github.com/irrlab/phigold/internal/canon"
)

// Reserved wire tags. These spell built-in forms and can never be bound
// to a Go type.
const (
	arrayTag = "__array__"
	setTag   = "__set__"
)

// EncodeFunc lowers one registered Go value to its field mapping.
// The mapping carries the fields in declared order and must not contain
// the reserved "type" key; the encoder prepends the tag itself.
type EncodeFunc func(enc *Encoder, v any) (*canon.Mapping, error)

// DecodeFunc raises a field view back to the registered Go value.
type DecodeFunc func(dec *Decoder, fields *FieldMap) (any, error)

type entry struct {
	tag    string
	goType reflect.Type
	encode EncodeFunc
	decode DecodeFunc
}

// Registry maps type tags to codec entries and Go types back to tags.
//
// A registry is written during process init and read-only afterwards;
// lookups take no lock. Register detects conflicts deterministically:
// binding an existing tag or an existing Go type fails with
// DUPLICATE_TYPE_TAG regardless of registration order.
type Registry struct {
	byTag  map[string]*entry
	byType map[reflect.Type]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag:  make(map[string]*entry),
		byType: make(map[reflect.Type]*entry),
	}
}

// Register binds a type tag to a Go type with its encode and decode
// functions. Pointer types are the convention: register with
// reflect.TypeOf((*T)(nil)) and encode/decode *T.
func (r *Registry) Register(tag string, goType reflect.Type, enc EncodeFunc, dec DecodeFunc) error {
	if tag == "" {
		return fmt.Errorf("register: empty type tag")
	}
	if tag == arrayTag || tag == setTag {
		return NewDuplicateTypeTagError(tag, "a built-in wire form")
	}
	if goType == nil {
		return fmt.Errorf("register %q: nil Go type", tag)
	}
	if enc == nil || dec == nil {
		return fmt.Errorf("register %q: nil encode or decode function", tag)
	}
	if existing, ok := r.byTag[tag]; ok {
		return NewDuplicateTypeTagError(tag, existing.goType.String())
	}
	if existing, ok := r.byType[goType]; ok {
		return NewDuplicateTypeTagError(existing.tag, fmt.Sprintf("the same Go type %s", goType))
	}

	e := &entry{tag: tag, goType: goType, encode: enc, decode: dec}
	r.byTag[tag] = e
	r.byType[goType] = e
	return nil
}

// MustRegister is Register, panicking on error. For init-time wiring where
// a conflict is a programming mistake.
func (r *Registry) MustRegister(tag string, goType reflect.Type, enc EncodeFunc, dec DecodeFunc) {
	if err := r.Register(tag, goType, enc, dec); err != nil {
		panic(err)
	}
}

// Tags returns the registered tags. Order is unspecified.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		tags = append(tags, tag)
	}
	return tags
}

// lookupTag resolves a wire tag to its entry.
func (r *Registry) lookupTag(tag string) (*entry, bool) {
	e, ok := r.byTag[tag]
	return e, ok
}

// lookupType resolves a Go type to its entry. Exact type first; a
// non-pointer type falls back to its pointer registration so values and
// pointers to the same type share one codec.
func (r *Registry) lookupType(t reflect.Type) (*entry, bool) {
	if e, ok := r.byType[t]; ok {
		return e, true
	}
	if t.Kind() != reflect.Pointer {
		if e, ok := r.byType[reflect.PointerTo(t)]; ok {
			return e, true
		}
	}
	return nil, false
}
