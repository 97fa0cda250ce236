package heap

import "github.com/smoglang/gosl/pkg/value"

// MemberKind classifies one slot of a Package's Members (§3.4).
type MemberKind uint8

const (
	MemberImport MemberKind = iota
	MemberConst
	MemberVar
	MemberFunc
)

// Package is the package object of §3.4: a name, ordered mutable member
// cells, parallel member type tags, a name-to-slot index, ordered
// initializer closures, and the var_mapping used only during constructor
// execution.
type Package struct {
	Name string

	Members       []value.Value // mutable cells; each holds the member's current value
	MemberTypes   []value.ValueType
	MemberKinds   []MemberKind
	MemberIndices map[string]int

	// InitFuncs are the ordered package-level initializer closures (one
	// per `func init()` plus the synthetic constructor for package-level
	// var initializers with side effects).
	InitFuncs []value.Value

	// VarMapping maps a function-local stack index (inside the running
	// constructor frame) to the package member slot it initializes.
	// Cleared to nil once initialization completes; nil is the "inited"
	// signal (§3.4).
	VarMapping map[int]int
}

func NewPackage(name string) *Package {
	return &Package{Name: name, MemberIndices: make(map[string]int)}
}

// Inited reports whether this package has finished running its
// initializers (§3.4: "the cleared state is the inited signal").
func (p *Package) Inited() bool { return p.VarMapping == nil }

// AddMember appends a new member slot and returns its index.
func (p *Package) AddMember(name string, kind MemberKind, t value.ValueType, zero value.Value) int {
	idx := len(p.Members)
	p.Members = append(p.Members, zero)
	p.MemberTypes = append(p.MemberTypes, t)
	p.MemberKinds = append(p.MemberKinds, kind)
	p.MemberIndices[name] = idx
	return idx
}

func (p *Package) Get(idx int) value.Value { return p.Members[idx] }

func (p *Package) Set(idx int, v value.Value) { p.Members[idx] = v }

// packageMemberTarget adapts a Package member slot to value.PointerTarget,
// for REF_PKG_MEMBER (§3.1 Pointer variant "package member by index").
type packageMemberTarget struct {
	pkg   *Package
	index int
}

func NewPackageMemberTarget(pkg *Package, index int) value.PointerTarget {
	return &packageMemberTarget{pkg: pkg, index: index}
}

func (t *packageMemberTarget) Load() value.Value   { return t.pkg.Get(t.index) }
func (t *packageMemberTarget) Store(v value.Value) { t.pkg.Set(t.index, v) }
