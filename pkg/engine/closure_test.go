package engine

import (
	"testing"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// buildCounterClosure wires a three-function container exercising upvalue
// capture and cross-call persistence (§4.4): makeCounter closes over a
// local of its own and returns an increment closure aliasing it; main
// saves that closure once and calls it three times, routing each result
// into a package member so the test can observe the running total without
// ever touching a second copy of the counter state.
func buildCounterClosure() (*bytecode.Container, heap.Key, *heap.Package, []int) {
	objects := heap.NewObjects()

	increment := &heap.Function{
		Code: []heap.Instr{
			{Op: uint16(bytecode.OpLoadUpvalue), Imm: 0},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 1},
			{Op: uint16(bytecode.OpAdd)},
			{Op: uint16(bytecode.OpDup)},
			{Op: uint16(bytecode.OpStoreUpvalue), Imm: 0},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		RetZeros:   []value.Value{value.NewInt(0)},
		ParamCount: 0,
		Name:       "increment",
	}
	incrementKey := objects.Functions.Insert(increment)
	increment.UpPtrs = []heap.UpvaluePtr{
		{SlotIndex: 0, Type: value.Int, IsUpvalueOfParent: false},
	}

	makeCounter := &heap.Function{
		Code: []heap.Instr{
			{Op: uint16(bytecode.OpLiteral), T0: value.Closure, Payload64: incrementKey.Pack()},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		LocalZeros: []value.Value{value.NewInt(0)},
		RetZeros:   []value.Value{value.NewNil()},
		ParamCount: 0,
		Name:       "makeCounter",
	}
	makeCounterKey := objects.Functions.Insert(makeCounter)
	increment.UpPtrs[0].SourceFunc = makeCounterKey

	pkg := heap.NewPackage("main")
	v1 := pkg.AddMember("V1", heap.MemberVar, value.Int, value.NewInt(0))
	v2 := pkg.AddMember("V2", heap.MemberVar, value.Int, value.NewInt(0))
	v3 := pkg.AddMember("V3", heap.MemberVar, value.Int, value.NewInt(0))
	pkgKey := objects.Packages.Insert(pkg)

	main := &heap.Function{
		Code: []heap.Instr{
			// locals[0] = makeCounter()
			{Op: uint16(bytecode.OpPreCall), Imm: 1},
			{Op: uint16(bytecode.OpLiteral), T0: value.Closure, Payload64: makeCounterKey.Pack()},
			{Op: uint16(bytecode.OpCall), T0: value.ValueType(bytecode.CallDefault), Imm: 0},
			{Op: uint16(bytecode.OpStoreLocal), Imm: 0, Payload64: ^uint64(0)},
			// main.V1 = locals[0]()
			{Op: uint16(bytecode.OpPreCall), Imm: 1},
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpCall), T0: value.ValueType(bytecode.CallDefault), Imm: 0},
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(v1)},
			// main.V2 = locals[0]()
			{Op: uint16(bytecode.OpPreCall), Imm: 1},
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpCall), T0: value.ValueType(bytecode.CallDefault), Imm: 0},
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(v2)},
			// main.V3 = locals[0]()
			{Op: uint16(bytecode.OpPreCall), Imm: 1},
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpCall), T0: value.ValueType(bytecode.CallDefault), Imm: 0},
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(v3)},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		LocalZeros: []value.Value{value.NewNil()},
		ParamCount: 0,
		Name:       "main",
	}
	mainKey := objects.Functions.Insert(main)

	return &bytecode.Container{Objects: objects, Entry: mainKey}, mainKey, pkg, []int{v1, v2, v3}
}

// TestCounterClosurePersistsAcrossCalls proves the closure returned by
// makeCounter keeps mutating the same captured cell on every subsequent
// call, even though makeCounter's own frame is long gone by the time
// increment runs (§3.6, §4.4): three calls through the saved closure must
// observe 1, 2, 3 — not 1, 1, 1, which is what a by-value capture bug
// would produce.
func TestCounterClosurePersistsAcrossCalls(t *testing.T) {
	c, entry, pkg, idxs := buildCounterClosure()

	root := NewRootFiber(0, c, entry, nil)
	for {
		status := root.Step(1000)
		if status == StatusDone || status == StatusPanicked {
			break
		}
	}
	if root.Err != nil {
		t.Fatalf("unexpected panic: %v", root.Err)
	}

	want := []int{1, 2, 3}
	for i, idx := range idxs {
		if got := pkg.Get(idx).Int(); got != want[i] {
			t.Fatalf("call %d: expected %d, got %d", i+1, want[i], got)
		}
	}
}
