// Package value implements the polymorphic runtime value representation
// used throughout the engine.
//
// A Value is a tagged variant. Kinds fall into two families:
//
//   - Primitive-copyable: bool, the signed/unsigned integer widths, the
//     float widths, a metadata handle, a function handle, nil. These are
//     stored inline in the 64-bit narrow field (N) and require no heap
//     allocation.
//   - Reference-shared: string, array, slice, map, channel, struct,
//     interface, pointer, closure, unsafe pointer, named. A shallow copy of
//     one of these aliases the same underlying Ref; mutations through one
//     alias are visible through all of them.
//
// Assignment into an aggregate destination, and element stores into
// maps/slices, must go through Copy so that array/struct values get the
// deep-copy semantics the language requires while everything else is
// shared by reference.
package value

import (
	"fmt"
	"hash/maphash"
	"math"
)

// ValueType tags the kind of value a Value holds. Arithmetic and
// comparison opcodes trust this tag rather than inspecting the payload: the
// code generator is responsible for emitting correct types, so a mismatched
// tag at this layer is a static-contract violation, not a recoverable error.
type ValueType uint8

const (
	Invalid ValueType = iota
	Nil
	Bool
	Int8
	Int16
	Int32
	Int64
	Int
	Uint8
	Uint16
	Uint32
	Uint64
	Uint
	UintPtr
	Float32
	Float64
	Complex64
	Complex128
	Metadata
	Function
	String
	Array
	Slice
	Map
	Channel
	Struct
	Interface
	Pointer
	Closure
	UnsafePointer
	Named
)

var typeNames = map[ValueType]string{
	Invalid: "invalid", Nil: "nil", Bool: "bool",
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64", Int: "int",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Uint: "uint", UintPtr: "uintptr",
	Float32: "float32", Float64: "float64",
	Complex64: "complex64", Complex128: "complex128",
	Metadata: "metadata", Function: "function", String: "string",
	Array: "array", Slice: "slice", Map: "map", Channel: "channel",
	Struct: "struct", Interface: "interface", Pointer: "pointer",
	Closure: "closure", UnsafePointer: "unsafe_pointer", Named: "named",
}

func (t ValueType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// IsCopyable reports whether t is one of the primitive-copyable kinds
// stored inline rather than through a Ref.
func (t ValueType) IsCopyable() bool {
	switch t {
	case Nil, Bool, Int8, Int16, Int32, Int64, Int,
		Uint8, Uint16, Uint32, Uint64, Uint, UintPtr,
		Float32, Float64, Metadata, Function:
		return true
	default:
		return false
	}
}

// Ref is implemented by every reference-shared payload kind. Copy produces
// the value that copy-semantic assignment should store: for aggregates
// (Array, Struct) this is a deep copy; for everything else it is the
// receiver itself, since reference-shared values alias on copy.
type Ref interface {
	Copy() Ref
}

// Value is the tagged sum described at the package level. For
// primitive-copyable kinds the payload lives in N, bit-reinterpreted by
// kind; for reference-shared kinds (and Complex64/128/Named, whose payload
// does not fit the 64-bit narrow view) the payload lives in R.
type Value struct {
	T ValueType
	N uint64
	R Ref
}

// NewNil returns the typed nil for a reference category. A typed nil of one
// category never equals a typed nil of another category (§3.1).
func NewNil() Value { return Value{T: Nil} }

func NewBool(b bool) Value {
	v := Value{T: Bool}
	if b {
		v.N = 1
	}
	return v
}

func (v Value) Bool() bool { return v.N != 0 }

func NewInt64(i int64) Value    { return Value{T: Int64, N: uint64(i)} }
func NewInt32(i int32) Value    { return Value{T: Int32, N: uint64(uint32(i))} }
func NewInt16(i int16) Value    { return Value{T: Int16, N: uint64(uint16(i))} }
func NewInt8(i int8) Value      { return Value{T: Int8, N: uint64(uint8(i))} }
func NewInt(i int) Value        { return Value{T: Int, N: uint64(i)} }
func NewUint64(u uint64) Value  { return Value{T: Uint64, N: u} }
func NewUint32(u uint32) Value  { return Value{T: Uint32, N: uint64(u)} }
func NewUint16(u uint16) Value  { return Value{T: Uint16, N: uint64(u)} }
func NewUint8(u uint8) Value    { return Value{T: Uint8, N: uint64(u)} }
func NewUint(u uint) Value      { return Value{T: Uint, N: uint64(u)} }
func NewUintPtr(u uintptr) Value { return Value{T: UintPtr, N: uint64(u)} }

func NewFloat64(f float64) Value { return Value{T: Float64, N: math.Float64bits(f)} }
func NewFloat32(f float32) Value { return Value{T: Float32, N: uint64(math.Float32bits(f))} }

func (v Value) Int64() int64     { return int64(v.N) }
func (v Value) Int32() int32     { return int32(uint32(v.N)) }
func (v Value) Int16() int16     { return int16(uint16(v.N)) }
func (v Value) Int8() int8       { return int8(uint8(v.N)) }
func (v Value) Int() int         { return int(v.N) }
func (v Value) Uint64() uint64   { return v.N }
func (v Value) Uint32() uint32   { return uint32(v.N) }
func (v Value) Uint16() uint16   { return uint16(v.N) }
func (v Value) Uint8() uint8     { return uint8(v.N) }
func (v Value) Uint() uint       { return uint(v.N) }
func (v Value) UintPtr() uintptr { return uintptr(v.N) }
func (v Value) Float64() float64 { return math.Float64frombits(v.N) }
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.N)) }

// ComplexRef boxes a complex value; complex64/128 don't fit the narrow
// 64/32-bit view alongside their own type tag so they ride in R like the
// reference-shared kinds, even though a complex number is itself
// copy-by-value (Copy is the identity).
type ComplexRef complex128

func (c ComplexRef) Copy() Ref { return c }

func NewComplex128(c complex128) Value {
	return Value{T: Complex128, R: ComplexRef(c)}
}

func NewComplex64(c complex64) Value {
	return Value{T: Complex64, R: ComplexRef(complex128(c))}
}

func (v Value) Complex128() complex128 { return complex128(v.R.(ComplexRef)) }
func (v Value) Complex64() complex64   { return complex64(v.R.(ComplexRef)) }

// NewMetadata and NewFunction hold opaque heap keys (see package heap);
// the key's bit pattern is stored directly in N.
func NewMetadata(key uint64) Value { return Value{T: Metadata, N: key} }
func NewFunction(key uint64) Value { return Value{T: Function, N: key} }
func (v Value) Key() uint64        { return v.N }

// NamedRef preserves a named type's identity across arithmetic by boxing
// the underlying copyable representation alongside a metadata key
// identifying the declared name. Operations unwrap to Underlying, perform
// the op, and re-wrap with the same MetaKey (§3.1 "Named wrapping").
type NamedRef struct {
	MetaKey    uint64
	Underlying Value
}

func (n NamedRef) Copy() Ref {
	return NamedRef{MetaKey: n.MetaKey, Underlying: n.Underlying.Copy()}
}

func NewNamed(metaKey uint64, underlying Value) Value {
	return Value{T: Named, R: NamedRef{MetaKey: metaKey, Underlying: underlying}}
}

// Unwrap returns the underlying value for a Named value, and v itself
// otherwise.
func (v Value) Unwrap() Value {
	if v.T == Named {
		return v.R.(NamedRef).Underlying
	}
	return v
}

// Rewrap re-boxes result as the same named type v was, if v was named.
func (v Value) Rewrap(result Value) Value {
	if v.T != Named {
		return result
	}
	n := v.R.(NamedRef)
	return NewNamed(n.MetaKey, result)
}

// Copy implements §3.1's copy_semantic: identity for primitive-copyable
// values, deep copy for Array/Struct, shallow alias for every other
// reference-shared kind.
func (v Value) Copy() Value {
	if v.T.IsCopyable() || v.R == nil {
		return v
	}
	return Value{T: v.T, N: v.N, R: v.R.Copy()}
}

// IsNil reports whether v is a nil of any category: the untyped Nil kind,
// or a reference-shared value whose Ref is nil (a typed nil, e.g. a nil
// slice or nil map produced by a zero value).
func (v Value) IsNil() bool {
	return v.T == Nil || (!v.T.IsCopyable() && v.T != Complex64 && v.T != Complex128 && v.T != Named && v.R == nil)
}

// Equal implements value equality. Equality between reference-shared
// container kinds that the source language forbids comparing (Map, Slice)
// is a static-contract violation here, not a boolean: it panics, matching
// spec.md's resolution of the map/slice-equality Open Question as a
// required trap rather than undefined behavior.
func (v Value) Equal(other Value) bool {
	if v.T == Named || other.T == Named {
		return v.Unwrap().Equal(other.Unwrap())
	}
	if v.T != other.T {
		if v.IsNil() && other.IsNil() {
			return false // typed nils of different categories are never equal
		}
		return false
	}
	switch v.T {
	case Map, Slice:
		panic(ErrUncomparable{Type: v.T})
	case Nil:
		return true
	case Complex128:
		return v.Complex128() == other.Complex128()
	case Complex64:
		return v.Complex64() == other.Complex64()
	case Float64:
		return v.Float64() == other.Float64()
	case Float32:
		return v.Float32() == other.Float32()
	}
	if v.T.IsCopyable() {
		return v.N == other.N
	}
	return equalRef(v.R, other.R)
}

// ErrUncomparable is the required trap for comparing reference-shared
// container kinds whose equality is not defined at the value-category
// level (maps, slices). The source language forbids this at compile time;
// reaching it here means the bytecode was ill-formed.
type ErrUncomparable struct{ Type ValueType }

func (e ErrUncomparable) Error() string {
	return fmt.Sprintf("comparing uncomparable type: %s", e.Type)
}

// refEquatable is implemented by Ref kinds with value equality (String,
// Array, Struct, Interface, Pointer, Channel, UnsafePointer). Closure has
// no defined equality and falls back to identity, matching the source
// language's own rule that closures are never comparable.
type refEquatable interface {
	EqualRef(other Ref) bool
}

func equalRef(a, b Ref) bool {
	if a == nil || b == nil {
		return a == b
	}
	if ea, ok := a.(refEquatable); ok {
		return ea.EqualRef(b)
	}
	return a == b
}

// Hash computes a hash consistent with Equal: equal values hash equal
// (§8.2 round-trip law). Hashing an aggregate hashes each element in
// order.
func (v Value) Hash(seed maphash.Seed) uint64 {
	if v.T == Named {
		return v.Unwrap().Hash(seed)
	}
	var h maphash.Hash
	h.SetSeed(seed)
	var buf [9]byte
	buf[0] = byte(v.T)
	if v.T.IsCopyable() {
		putUint64(buf[1:], v.N)
		h.Write(buf[:])
		return h.Sum64()
	}
	switch v.T {
	case Complex128, Complex64:
		c := v.Complex128()
		putUint64(buf[1:], math.Float64bits(real(c)))
		h.Write(buf[:])
		putUint64(buf[1:], math.Float64bits(imag(c)))
		h.Write(buf[:])
		return h.Sum64()
	}
	h.Write(buf[:1])
	if hr, ok := v.R.(hashableRef); ok {
		hr.HashRef(&h)
	}
	return h.Sum64()
}

type hashableRef interface {
	HashRef(h *maphash.Hash)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
