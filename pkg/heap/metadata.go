package heap

import "github.com/smoglang/gosl/pkg/value"

// MetaKind tags what a Meta describes.
type MetaKind uint8

const (
	MetaSignature MetaKind = iota
	MetaStruct
	MetaInterface
	MetaSlice
	MetaArray
	MetaMap
	MetaChannel
	MetaPointer
	MetaNamed
)

// Meta is the compile-time type descriptor stored in the metas heap
// (§3.2). Only the fields relevant to MetaKind are populated; this mirrors
// the teacher's practice of one concrete struct per concern
// (ClassDefinition, MethodDefinition in pkg/bytecode/bytecode.go) rather
// than an interface hierarchy, since the dispatch loop always knows which
// kind it expects from the instruction's type tags.
type Meta struct {
	Kind MetaKind

	// MetaSignature
	ParamTypes  []value.ValueType
	ResultTypes []value.ValueType
	Variadic    bool

	// MetaStruct
	FieldNames []string
	FieldTypes []value.ValueType
	FieldMetas []Key

	// MetaInterface: method names in declaration order; the binding table
	// itself lives in the bytecode container's Ifaces (§6), indexed
	// separately, since a given interface type may be bound to many
	// concrete types.
	MethodNames []string

	// MetaSlice / MetaArray / MetaMap / MetaChannel: element (and, for
	// Map, key) type info.
	ElemType value.ValueType
	ElemMeta Key
	KeyType  value.ValueType
	KeyMeta  Key
	ArrayLen int

	// MetaPointer: what this pointer type points to.
	PointeeType value.ValueType
	PointeeMeta Key

	// MetaNamed: the declared name and its underlying type, forming a
	// chain when one named type is defined in terms of another.
	Name         string
	Underlying   value.ValueType
	UnderlyingMeta Key
}

// FieldIndex returns the slot of a named field, and false if the struct
// metadata has no such field. Used by LOAD_FIELD/STORE_FIELD (§4.3.3),
// which index by name rather than by a compiler-known constant slot.
func (m *Meta) FieldIndex(name string) (int, bool) {
	for i, n := range m.FieldNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Zero returns the zero Value for the type this Meta describes, used by
// PUSH_ZERO_VALUE, MAKE, and local_zeros/ret_zeros seeding (§3.3).
func (m *Meta) Zero(metas *Table[*Meta]) value.Value {
	switch m.Kind {
	case MetaStruct:
		fields := make([]value.Value, len(m.FieldTypes))
		for i, ft := range m.FieldTypes {
			fields[i] = ZeroOf(ft, m.FieldMetas[i], metas)
		}
		return value.NewStruct(0, fields)
	case MetaSlice:
		return value.Value{T: value.Slice}
	case MetaArray:
		elems := make([]value.Value, m.ArrayLen)
		for i := range elems {
			elems[i] = ZeroOf(m.ElemType, m.ElemMeta, metas)
		}
		return value.NewArray(elems)
	case MetaMap:
		return value.Value{T: value.Map}
	case MetaChannel:
		return value.Value{T: value.Channel}
	case MetaPointer:
		return value.Value{T: value.Pointer}
	case MetaInterface:
		return value.Value{T: value.Interface}
	default:
		return value.NewNil()
	}
}

// ZeroOf resolves the zero value for an arbitrary (ValueType, metadata key)
// pair, as used throughout the dispatch loop wherever a type tag alone is
// ambiguous (e.g. Struct/Array/Map/Slice all need their Meta to know
// element shape).
func ZeroOf(t value.ValueType, m Key, metas *Table[*Meta]) value.Value {
	switch t {
	case value.Bool:
		return value.NewBool(false)
	case value.Int8:
		return value.NewInt8(0)
	case value.Int16:
		return value.NewInt16(0)
	case value.Int32:
		return value.NewInt32(0)
	case value.Int64:
		return value.NewInt64(0)
	case value.Int:
		return value.NewInt(0)
	case value.Uint8:
		return value.NewUint8(0)
	case value.Uint16:
		return value.NewUint16(0)
	case value.Uint32:
		return value.NewUint32(0)
	case value.Uint64:
		return value.NewUint64(0)
	case value.Uint:
		return value.NewUint(0)
	case value.UintPtr:
		return value.NewUintPtr(0)
	case value.Float32:
		return value.NewFloat32(0)
	case value.Float64:
		return value.NewFloat64(0)
	case value.Complex64:
		return value.NewComplex64(0)
	case value.Complex128:
		return value.NewComplex128(0)
	case value.String:
		return value.NewString("")
	case value.Nil:
		return value.NewNil()
	default:
		meta, ok := metas.Get(m)
		if !ok {
			return value.NewNil()
		}
		return meta.Zero(metas)
	}
}
