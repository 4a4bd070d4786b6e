package canon

// Value is a sealed interface representing constrained value types.
// Only Null, Bool, Int, Float, Text, Sequence, and *Mapping implement it.
type Value interface {
	canonValue() // Sealed - only these types implement it
}

// Null represents a JSON null value.
// Using an explicit type ensures all Values satisfy the sealed interface.
type Null struct{}

func (Null) canonValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) canonValue() {}

// Int represents a whole number. Always int64; integer kind survives a
// round trip through the writer and parser.
type Int int64

func (Int) canonValue() {}

// Float represents a finite binary64 number.
// NaN and the infinities never appear here: the codec layer rewrites them
// to sentinel Text before lowering, and the writer rejects them.
type Float float64

func (Float) canonValue() {}

// Text represents Unicode text. NFC normalization happens in the writer,
// not on construction.
type Text string

func (Text) canonValue() {}

// Sequence represents an ordered, heterogeneous list of values.
type Sequence []Value

func (Sequence) canonValue() {}

// Seq creates a Sequence from values.
func Seq(vals ...Value) Sequence {
	return Sequence(vals)
}

// Mapping represents a string-keyed collection that preserves insertion
// order. Serialization emits keys in exactly this order, which is how
// declared field order survives onto the wire.
type Mapping struct {
	keys []string
	vals map[string]Value
}

func (*Mapping) canonValue() {}

// Entry represents a key-value pair for typed Mapping construction.
type Entry struct {
	Key   string
	Value Value
}

// E is a shorthand for Entry for ergonomic construction.
// Example: MappingOf(E("phi", Float(0.5)), E("kind", Text("cause")))
func E(key string, value Value) Entry {
	return Entry{Key: key, Value: value}
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

// MappingOf creates a Mapping from entries, in the given order.
func MappingOf(entries ...Entry) *Mapping {
	m := &Mapping{
		keys: make([]string, 0, len(entries)),
		vals: make(map[string]Value, len(entries)),
	}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set binds key to value. A new key is appended after all existing keys;
// an existing key keeps its position and only the value changes.
func (m *Mapping) Set(key string, value Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Get returns the value bound to key and whether the key is present.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the entries in insertion order. The returned slice is a copy.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry{Key: k, Value: m.vals[k]})
	}
	return out
}
