package bytecode

import (
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// FFIFactory is implemented by package ffi's Factory: FFI resolves a
// foreign object by name and boxes it as an interface value (§6 FFI
// calling convention). params are the construction arguments evaluated at
// the FFI call site, in source order.
type FFIFactory interface {
	CreateByName(name string, params []value.Value) (value.ForeignBinding, error)
}

// MethodBindingKind classifies one row of an InterfaceBinding's Methods
// table (§4.3.13).
type MethodBindingKind uint8

const (
	// BindDirect: the interface method maps straight to a concrete
	// function, no receiver adjustment beyond Indirect.
	BindDirect MethodBindingKind = iota
	// BindPromoted: the method is promoted from an embedded field; Embed
	// gives the chain of struct field indices BIND_INTERFACE_METHOD must
	// walk to reach the embedding that actually implements it.
	BindPromoted
	// BindNestedInterface: the concrete type satisfies this interface
	// method by itself holding a value of another interface type; Nested
	// indexes back into the container's Ifaces table to keep resolving.
	BindNestedInterface
)

// MethodBinding is one resolved row of an interface's method table — the
// output of whatever compile-time step the source-to-bytecode pipeline
// performs to flatten Go's interface-satisfaction rules (embedding,
// promotion, pointer-vs-value receiver sets) down to something
// BIND_INTERFACE_METHOD can execute without re-deriving them at runtime.
type MethodBinding struct {
	Kind MethodBindingKind

	Func heap.Key // BindDirect / BindPromoted target function

	// Indirect reports whether the method expects a pointer receiver where
	// the interface value holds a non-pointer (or vice versa): the binding
	// step already decided whether BIND_INTERFACE_METHOD must box or
	// deref the receiver before the call.
	Indirect bool

	Embed []int // BindPromoted: embedded-field index path

	Nested int // BindNestedInterface: index into Container.Ifaces
}

// InterfaceBinding is one (interface type, concrete type) pairing's method
// table, referenced by Payload64 on CAST (interface construction) and by
// Imm row selection on BIND_INTERFACE_METHOD (§4.3.13, §6).
type InterfaceBinding struct {
	InterfaceMeta heap.Key
	ConcreteMeta  heap.Key
	Methods       []MethodBinding // parallel to InterfaceMeta's MethodNames
}

// Container is the persisted unit of §6: the three object heaps, the
// flattened interface binding tables every concrete-to-interface
// conversion needs, and the function key execution begins at. Everything a
// fiber needs to run is reachable from a Container plus package
// member storage, which lives inside Objects.Packages.
type Container struct {
	Objects *heap.Objects
	Ifaces  []InterfaceBinding
	Entry   heap.Key

	// FFIFactory is nil for a program that never touches FFI; OpFFI panics
	// if reached with no factory installed.
	FFIFactory FFIFactory
}

// NewContainer wraps a freshly populated Objects table set with no
// interface bindings yet and no entry point set; callers (the loader, or a
// test building a Container by hand) fill in Ifaces and Entry afterward.
func NewContainer(objects *heap.Objects) *Container {
	return &Container{Objects: objects}
}

// AddIface appends an interface binding and returns its index, the value
// CAST's Payload64 and BIND_INTERFACE_METHOD's Payload64 both refer to.
func (c *Container) AddIface(b InterfaceBinding) int {
	c.Ifaces = append(c.Ifaces, b)
	return len(c.Ifaces) - 1
}
