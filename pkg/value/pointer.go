package value

import "github.com/smoglang/gosl/pkg/gc"

// PointerKind distinguishes the seven Pointer variants of §3.1.
type PointerKind uint8

const (
	PointerUpvalue PointerKind = iota
	PointerWhole               // whole struct/array/slice/map
	PointerSliceElem
	PointerStructField
	PointerPkgMember
)

// PointerTarget abstracts the storage a Pointer dereferences through: a
// stack/upvalue slot, a struct field, a slice element, or a package member
// cell. Each concrete target knows how to Load and Store through itself.
type PointerTarget interface {
	Load() Value
	Store(v Value)
}

// PointerRef is a typed indirect reference. Its Kind only documents which
// constructor built it; all behavior is delegated to Target so REF_* and
// DEREF/STORE_DEREF share one implementation regardless of what is being
// pointed at.
type PointerRef struct {
	Kind   PointerKind
	Target PointerTarget
}

func NewPointer(kind PointerKind, target PointerTarget) Value {
	return Value{T: Pointer, R: &PointerRef{Kind: kind, Target: target}}
}

func (p *PointerRef) Copy() Ref { return p } // shallow: pointers alias their target

func (p *PointerRef) EqualRef(other Ref) bool {
	o, ok := other.(*PointerRef)
	return ok && p.Target == o.Target
}

func (v Value) Ptr() *PointerRef { return v.R.(*PointerRef) }

// sliceElemTarget and structFieldTarget are the two composite PointerTarget
// kinds that don't need their own heap object: REF_SLICE_MEMBER and
// REF_STRUCT_FIELD build one of these directly over an existing Ref.
type sliceElemTarget struct {
	slice *SliceRef
	index int
}

func NewSliceElemTarget(s *SliceRef, index int) PointerTarget {
	return &sliceElemTarget{slice: s, index: index}
}

func (t *sliceElemTarget) Load() Value    { return t.slice.Get(t.index) }
func (t *sliceElemTarget) Store(v Value)  { t.slice.Set(t.index, v) }

type structFieldTarget struct {
	s     *StructRef
	index int
}

func NewStructFieldTarget(s *StructRef, index int) PointerTarget {
	return &structFieldTarget{s: s, index: index}
}

func (t *structFieldTarget) Load() Value   { return t.s.Fields[t.index] }
func (t *structFieldTarget) Store(v Value) { t.s.Fields[t.index] = v.Copy() }

// wholeTarget wraps an entire reference-shared value (used by REF_LOCAL /
// REF_LITERAL / NEW when the referent is itself a container rather than one
// of its members): loading and storing replace the Value in a single cell.
type wholeTarget struct {
	cell *Value
}

func NewWholeTarget(cell *Value) PointerTarget { return &wholeTarget{cell: cell} }

func (t *wholeTarget) Load() Value   { return *t.cell }
func (t *wholeTarget) Store(v Value) { *t.cell = v }

// ClosureRef is a function key plus an optional captured receiver and a map
// from upvalue slot to the upvalue cell that slot captures, or an FFI
// closure (object, function name, signature metadata key).
type ClosureRef struct {
	FuncKey  uint64
	Recv     *Value
	Upvalues map[int]UpvalueCell

	FFIObject  ForeignBinding
	FFIName    string
	FFISigMeta uint64

	refcount int32
}

// UpvalueCell is implemented by package frame's Upvalue; value cannot
// depend on frame (frame depends on value for slot storage), so Closure
// only needs the narrow interface of loading/storing the captured value.
type UpvalueCell interface {
	Load() Value
	Store(v Value)
}

func NewClosure(funcKey uint64, recv *Value, upvalues map[int]UpvalueCell) Value {
	return Value{T: Closure, R: &ClosureRef{FuncKey: funcKey, Recv: recv, Upvalues: upvalues, refcount: 1}}
}

func NewFFIClosure(obj ForeignBinding, name string, sigMeta uint64) Value {
	return Value{T: Closure, R: &ClosureRef{FFIObject: obj, FFIName: name, FFISigMeta: sigMeta, refcount: 1}}
}

func (c *ClosureRef) Copy() Ref { return c } // shallow: closures alias their captured state

func (v Value) Clos() *ClosureRef { return v.R.(*ClosureRef) }

// RefCount, RefSubOne, Retain, Edges, and BreakCycle implement
// gc.CycleCapable (§4.9): a closure that captures upvalues can form a
// cycle with itself (an upvalue closed over a closure that in turn
// captures that very upvalue), so it's registered as a candidate root
// whenever its Upvalues map is non-empty.
func (c *ClosureRef) RefCount() int32  { return c.refcount }
func (c *ClosureRef) Retain()          { c.refcount++ }
func (c *ClosureRef) RefSubOne() int32 { c.refcount--; return c.refcount }

func (c *ClosureRef) Edges() []gc.CycleCapable {
	var edges []gc.CycleCapable
	for _, cell := range c.Upvalues {
		if cc, ok := cell.(gc.CycleCapable); ok {
			edges = append(edges, cc)
		}
	}
	return edges
}

// BreakCycle severs this closure's own strong edges, letting ordinary
// refcounting finish releasing whatever the cycle held onto.
func (c *ClosureRef) BreakCycle() {
	c.Upvalues = nil
	c.Recv = nil
}

// UnsafeRef is an opaque user-data container with custom equality,
// refcount hooks, and an optional cycle-break method (§3.1, §4.9).
type UnsafeRef struct {
	Data          any
	EqualFn       func(other any) bool
	CanMakeCycle  bool
	BreakCycleFn  func()
	refcount      int32
}

func NewUnsafePointer(data any, equal func(other any) bool, canMakeCycle bool, breakCycle func()) Value {
	return Value{T: UnsafePointer, R: &UnsafeRef{Data: data, EqualFn: equal, CanMakeCycle: canMakeCycle, BreakCycleFn: breakCycle, refcount: 1}}
}

func (u *UnsafeRef) Copy() Ref { return u } // shallow

// RefCount, RefSubOne, Retain, Edges, and BreakCycle implement
// gc.CycleCapable (§4.9) for the subset of unsafe pointers that declare
// CanMakeCycle. Opaque user data carries no engine-visible edges of its
// own, so Edges is always empty: a cycle-capable unsafe pointer is a leaf
// in the collector's graph, only ever reachable as someone else's child.
func (u *UnsafeRef) RefCount() int32  { return u.refcount }
func (u *UnsafeRef) Retain()          { u.refcount++ }
func (u *UnsafeRef) RefSubOne() int32 { u.refcount--; return u.refcount }
func (u *UnsafeRef) Edges() []gc.CycleCapable { return nil }

func (u *UnsafeRef) BreakCycle() {
	if u.BreakCycleFn != nil {
		u.BreakCycleFn()
	}
}

func (u *UnsafeRef) EqualRef(other Ref) bool {
	o, ok := other.(*UnsafeRef)
	if !ok {
		return false
	}
	if u.EqualFn != nil {
		return u.EqualFn(o.Data)
	}
	return u.Data == o.Data
}

func (v Value) Unsafe() *UnsafeRef { return v.R.(*UnsafeRef) }

// ChannelRef is a FIFO with capacity and closed flag. The actual queue and
// suspension logic lives in package channel; ChannelRef wraps a
// *channel.Channel through Impl, and value only needs a stable handle type so Value can carry a
// channel without importing package channel (which itself must not import
// value's dependents to avoid a cycle — channel imports value, not the
// reverse).
type ChannelRef struct {
	Impl ChannelImpl
}

// ChannelImpl is implemented by *channel.Channel. Kept as a narrow
// interface here so pkg/value has no dependency on pkg/channel.
type ChannelImpl interface {
	Cap() int
	Len() int
	Closed() bool
}

func NewChannel(impl ChannelImpl) Value {
	return Value{T: Channel, R: &ChannelRef{Impl: impl}}
}

func (c *ChannelRef) Copy() Ref { return c } // shallow: channels are reference-shared

func (c *ChannelRef) EqualRef(other Ref) bool {
	o, ok := other.(*ChannelRef)
	return ok && c.Impl == o.Impl
}

func (v Value) Chan() *ChannelRef { return v.R.(*ChannelRef) }
