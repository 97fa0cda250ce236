package engine

import (
	"testing"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// buildSelectWithDefault wires a single-function container exercising
// SELECT's default arm (§4.3.9, §4.7): an unbuffered channel with nobody
// sending on it can never make its recv case ready, so the select must
// take the default arm immediately rather than blocking the fiber
// forever. The case descriptors (a recv, then a default) sit as data
// words directly after the SELECT instruction itself, never fetched as
// ordinary opcodes.
func buildSelectWithDefault() (*bytecode.Container, heap.Key, *heap.Package, map[string]int) {
	objects := heap.NewObjects()

	pkg := heap.NewPackage("main")
	chosenIdx := pkg.AddMember("Chosen", heap.MemberVar, value.Int, value.NewInt(-1))
	completedIdx := pkg.AddMember("Completed", heap.MemberVar, value.Int, value.NewInt(0))
	pkgKey := objects.Packages.Insert(pkg)

	main := &heap.Function{
		Code: []heap.Instr{
			// locals[0] = make(chan int)
			{Op: uint16(bytecode.OpMake), T0: value.Channel, Imm: 0},
			{Op: uint16(bytecode.OpStoreLocal), Imm: 0, Payload64: ^uint64(0)},
			// select { case <-locals[0]: ... ; default: ... }
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpSelect), Imm: 2},
			{T0: value.ValueType(bytecode.CaseRecvValue)},
			{T0: value.ValueType(bytecode.CaseDefault)},
			// main.Chosen = <chosen case index>
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(chosenIdx)},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 1},
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(completedIdx)},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		LocalZeros: []value.Value{value.NewNil()},
		Name:       "main",
	}
	mainKey := objects.Functions.Insert(main)

	idxs := map[string]int{"Chosen": chosenIdx, "Completed": completedIdx}
	return &bytecode.Container{Objects: objects, Entry: mainKey}, mainKey, pkg, idxs
}

func TestSelectTakesDefaultWhenNoCaseReady(t *testing.T) {
	c, entry, pkg, idxs := buildSelectWithDefault()

	root := NewRootFiber(0, c, entry, nil)
	for i := 0; i < 10; i++ {
		status := root.Step(1000)
		if status == StatusDone || status == StatusPanicked {
			break
		}
		if status == StatusBlocked {
			t.Fatalf("select with a default arm must never block")
		}
	}
	if root.Err != nil {
		t.Fatalf("unexpected panic: %v", root.Err)
	}

	if got := pkg.Get(idxs["Chosen"]).Int(); got != 1 {
		t.Fatalf("expected the default case (index 1) to fire, got %d", got)
	}
	if got := pkg.Get(idxs["Completed"]).Int(); got != 1 {
		t.Fatalf("expected main to finish normally, Completed=%d", got)
	}
}
