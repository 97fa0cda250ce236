package value

import (
	"hash/maphash"
)

// StringRef is an immutable byte sequence with interior begin/end offsets,
// so that slicing a string is a cheap aliasing operation (§3.1).
type StringRef struct {
	data  *string
	begin int
	end   int
}

func NewString(s string) Value {
	return Value{T: String, R: &StringRef{data: &s, begin: 0, end: len(s)}}
}

func (s *StringRef) Copy() Ref { return s } // immutable: sharing is safe

func (s *StringRef) String() string { return (*s.data)[s.begin:s.end] }

func (s *StringRef) Len() int { return s.end - s.begin }

// Slice returns the substring [begin:end). A negative end means "to the
// current length", the documented negative-index convention (§8.3).
func (s *StringRef) Slice(begin, end int) *StringRef {
	if end < 0 {
		end = s.Len() + end + 1
	}
	return &StringRef{data: s.data, begin: s.begin + begin, end: s.begin + end}
}

func (s *StringRef) EqualRef(other Ref) bool {
	o, ok := other.(*StringRef)
	return ok && s.String() == o.String()
}

func (s *StringRef) HashRef(h *maphash.Hash) { h.WriteString(s.String()) }

func (v Value) Str() *StringRef { return v.R.(*StringRef) }

// ArrayRef is a fixed-size sequence of values with interior mutability per
// element; copying an array deep-copies every element (§3.1).
type ArrayRef struct {
	elems []Value
}

func NewArray(elems []Value) Value {
	return Value{T: Array, R: &ArrayRef{elems: elems}}
}

func (a *ArrayRef) Copy() Ref {
	out := make([]Value, len(a.elems))
	for i, e := range a.elems {
		out[i] = e.Copy()
	}
	return &ArrayRef{elems: out}
}

func (a *ArrayRef) Len() int          { return len(a.elems) }
func (a *ArrayRef) Get(i int) Value   { return a.elems[i] }
func (a *ArrayRef) Set(i int, v Value) { a.elems[i] = v.Copy() }
func (a *ArrayRef) Elems() []Value    { return a.elems }

func (a *ArrayRef) EqualRef(other Ref) bool {
	o, ok := other.(*ArrayRef)
	if !ok || len(a.elems) != len(o.elems) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].Equal(o.elems[i]) {
			return false
		}
	}
	return true
}

func (a *ArrayRef) HashRef(h *maphash.Hash) {
	for _, e := range a.elems {
		var b [8]byte
		seed := h.Seed()
		putUint64(b[:], e.Hash(seed))
		h.Write(b[:])
	}
}

func (v Value) Arr() *ArrayRef { return v.R.(*ArrayRef) }

// SliceRef is a view over an array's backing storage with begin, end, and
// cap_end offsets (§3.1).
type SliceRef struct {
	backing *ArrayRef
	begin   int
	end     int
	capEnd  int
}

func NewSlice(backing *ArrayRef, begin, end, capEnd int) Value {
	return Value{T: Slice, R: &SliceRef{backing: backing, begin: begin, end: end, capEnd: capEnd}}
}

// MakeSlice allocates a fresh backing array of the given length/capacity,
// seeded with zero, as the MAKE opcode does for a slice type.
func MakeSlice(length, capacity int, zero Value) Value {
	elems := make([]Value, capacity)
	for i := range elems {
		elems[i] = zero.Copy()
	}
	return NewSlice(&ArrayRef{elems: elems}, 0, length, capacity)
}

func (s *SliceRef) Copy() Ref { return s } // shallow: aliases the same backing array

func (s *SliceRef) Len() int { return s.end - s.begin }
func (s *SliceRef) Cap() int { return s.capEnd - s.begin }

func (s *SliceRef) Get(i int) Value    { return s.backing.Get(s.begin + i) }
func (s *SliceRef) Set(i int, v Value) { s.backing.Set(s.begin+i, v) }

// Reslice implements s[begin:end] / s[begin:end:cap]. A negative end means
// "to the current length" (§8.3); maxCap<0 means "keep the existing cap".
func (s *SliceRef) Reslice(begin, end, maxCap int) *SliceRef {
	if end < 0 {
		end = s.Len() + end + 1
	}
	newCapEnd := s.capEnd
	if maxCap >= 0 {
		newCapEnd = s.begin + begin + maxCap
	}
	return &SliceRef{backing: s.backing, begin: s.begin + begin, end: s.begin + end, capEnd: newCapEnd}
}

// Append grows the slice, reallocating the backing array when capacity is
// exhausted (doubling, matching the teacher's stack growth strategy in
// pkg/vm/vm.go's push()).
func (s *SliceRef) Append(vals ...Value) *SliceRef {
	need := s.Len() + len(vals)
	if s.begin+need <= s.capEnd {
		for i, v := range vals {
			s.backing.Set(s.end+i, v)
		}
		return &SliceRef{backing: s.backing, begin: s.begin, end: s.begin + need, capEnd: s.capEnd}
	}
	newCap := s.Cap() * 2
	if newCap < need {
		newCap = need
	}
	newElems := make([]Value, newCap)
	for i := 0; i < s.Len(); i++ {
		newElems[i] = s.Get(i)
	}
	for i, v := range vals {
		newElems[s.Len()+i] = v
	}
	backing := &ArrayRef{elems: newElems}
	return &SliceRef{backing: backing, begin: 0, end: need, capEnd: newCap}
}

func (v Value) Slc() *SliceRef { return v.R.(*SliceRef) }

// MapRef is an unordered association from value to value with a per-map
// default zero, returned on a failed lookup when the comma-ok form isn't
// used (§3.1).
type MapRef struct {
	entries map[uint64][]mapEntry
	seed    maphash.Seed
	zero    Value
}

type mapEntry struct {
	key Value
	val Value
}

func NewMap(zero Value) Value {
	return Value{T: Map, R: &MapRef{entries: make(map[uint64][]mapEntry), seed: maphash.MakeSeed(), zero: zero}}
}

func (m *MapRef) Copy() Ref { return m } // shallow: maps are reference-shared

func (m *MapRef) Len() int {
	n := 0
	for _, bucket := range m.entries {
		n += len(bucket)
	}
	return n
}

func (m *MapRef) Get(key Value) (Value, bool) {
	h := key.Hash(m.seed)
	for _, e := range m.entries[h] {
		if e.key.Equal(key) {
			return e.val, true
		}
	}
	return m.zero, false
}

func (m *MapRef) Set(key, val Value) {
	h := key.Hash(m.seed)
	bucket := m.entries[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			bucket[i].val = val.Copy()
			return
		}
	}
	m.entries[h] = append(bucket, mapEntry{key: key.Copy(), val: val.Copy()})
}

func (m *MapRef) Delete(key Value) {
	h := key.Hash(m.seed)
	bucket := m.entries[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			m.entries[h] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func (v Value) Mp() *MapRef { return v.R.(*MapRef) }

// KeyValue is one exported (key, value) pair of a Snapshot, used by RANGE_INIT
// to capture a stable iteration order for the lifetime of one range loop
// (§4.3.6) without exposing MapRef's internal bucket layout.
type KeyValue struct {
	Key Value
	Val Value
}

// Snapshot returns every entry in bucket order, stable for as long as the
// map isn't mutated again — exactly the guarantee one range loop needs.
func (m *MapRef) Snapshot() []KeyValue {
	out := make([]KeyValue, 0, m.Len())
	for _, bucket := range m.entries {
		for _, e := range bucket {
			out = append(out, KeyValue{Key: e.key, Val: e.val})
		}
	}
	return out
}

// StructRef holds ordered named fields plus a metadata handle used for
// field indexing by name (the field-name table itself lives in the
// metadata heap; StructRef only needs the key to find it).
type StructRef struct {
	Fields  []Value
	MetaKey uint64
}

func NewStruct(metaKey uint64, fields []Value) Value {
	return Value{T: Struct, R: &StructRef{Fields: fields, MetaKey: metaKey}}
}

func (s *StructRef) Copy() Ref {
	out := make([]Value, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Copy()
	}
	return &StructRef{Fields: out, MetaKey: s.MetaKey}
}

func (s *StructRef) EqualRef(other Ref) bool {
	o, ok := other.(*StructRef)
	if !ok || s.MetaKey != o.MetaKey || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if !s.Fields[i].Equal(o.Fields[i]) {
			return false
		}
	}
	return true
}

func (s *StructRef) HashRef(h *maphash.Hash) {
	seed := h.Seed()
	for _, f := range s.Fields {
		var b [8]byte
		putUint64(b[:], f.Hash(seed))
		h.Write(b[:])
	}
}

func (v Value) Struct() *StructRef { return v.R.(*StructRef) }

// InterfaceRef is either a Go-typed pair (underlying value, optional
// (declared-type, method-binding table)) or a foreign (FFI) binding.
type InterfaceRef struct {
	Underlying   Value
	DeclaredMeta uint64 // 0 if the interface value carries no static type info
	IfaceIdx     int    // index into the container's Ifaces table, -1 if none
	Foreign      ForeignBinding
}

// ForeignBinding is the FFI half of an Interface value: an opaque foreign
// object plus its method descriptors, enumerated in declaration order.
type ForeignBinding interface {
	MethodNames() []string
}

func NewInterface(underlying Value, declaredMeta uint64, ifaceIdx int) Value {
	return Value{T: Interface, R: &InterfaceRef{Underlying: underlying, DeclaredMeta: declaredMeta, IfaceIdx: ifaceIdx}}
}

func NewForeignInterface(f ForeignBinding) Value {
	return Value{T: Interface, R: &InterfaceRef{Foreign: f}}
}

func (i *InterfaceRef) Copy() Ref { return i } // shallow: interface boxes alias

func (i *InterfaceRef) EqualRef(other Ref) bool {
	o, ok := other.(*InterfaceRef)
	if !ok {
		return false
	}
	if i.Foreign != nil || o.Foreign != nil {
		return i.Foreign == o.Foreign
	}
	return i.Underlying.Equal(o.Underlying)
}

func (i *InterfaceRef) HashRef(h *maphash.Hash) {
	if i.Foreign != nil {
		return
	}
	seed := h.Seed()
	var b [8]byte
	putUint64(b[:], i.Underlying.Hash(seed))
	h.Write(b[:])
}

func (v Value) Iface() *InterfaceRef { return v.R.(*InterfaceRef) }
