package engine

import (
	"testing"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// buildMapWithStructKey wires a single-function container exercising a map
// keyed by a struct value (§3.1, §4.3.6): main builds two distinct Point
// struct values holding the same field values, stores through one, and
// looks up through the other. MapRef.Get hashes and compares by structural
// equality (value.StructRef.HashRef/EqualRef), so the second, freshly-built
// Point must still find the first's entry even though neither the struct
// nor the map is the same Go object.
func buildMapWithStructKey() (*bytecode.Container, heap.Key, *heap.Package, map[string]int) {
	objects := heap.NewObjects()

	pointMeta := objects.Metas.Insert(&heap.Meta{
		Kind:       heap.MetaStruct,
		FieldNames: []string{"X", "Y"},
		FieldTypes: []value.ValueType{value.Int, value.Int},
		FieldMetas: []heap.Key{{}, {}},
	})
	mapMeta := objects.Metas.Insert(&heap.Meta{
		Kind:     heap.MetaMap,
		KeyType:  value.Struct,
		KeyMeta:  pointMeta,
		ElemType: value.Int,
		ElemMeta: heap.Key{},
	})

	pkg := heap.NewPackage("main")
	foundIdx := pkg.AddMember("Found", heap.MemberVar, value.Int, value.NewInt(0))
	okIdx := pkg.AddMember("Ok", heap.MemberVar, value.Bool, value.NewBool(false))
	pkgKey := objects.Packages.Insert(pkg)

	main := &heap.Function{
		Code: []heap.Instr{
			// locals[0] = make(map[Point]int)
			{Op: uint16(bytecode.OpMake), T0: value.Map, Payload64: mapMeta.Pack()},
			{Op: uint16(bytecode.OpStoreLocal), Imm: 0, Payload64: ^uint64(0)},
			// locals[0][Point{X:1, Y:2}] = 7
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 1},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 2},
			{Op: uint16(bytecode.OpLiteral), T0: value.Struct, Payload64: pointMeta.Pack(), Imm: 2},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 7},
			{Op: uint16(bytecode.OpStoreIndex)},
			// found, ok := locals[0][Point{X:1, Y:2}] (a second, distinct struct)
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 1},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 2},
			{Op: uint16(bytecode.OpLiteral), T0: value.Struct, Payload64: pointMeta.Pack(), Imm: 2},
			{Op: uint16(bytecode.OpLoadIndex), T0: value.Bool},
			// main.Ok = ok ; main.Found = found
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(okIdx)},
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(foundIdx)},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		LocalZeros: []value.Value{value.NewNil()},
		Name:       "main",
	}
	mainKey := objects.Functions.Insert(main)

	idxs := map[string]int{"Found": foundIdx, "Ok": okIdx}
	return &bytecode.Container{Objects: objects, Entry: mainKey}, mainKey, pkg, idxs
}

func TestMapLookupByStructuralStructKey(t *testing.T) {
	c, entry, pkg, idxs := buildMapWithStructKey()

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

	if got := pkg.Get(idxs["Ok"]).Bool(); !got {
		t.Fatalf("expected lookup by a structurally-equal Point to succeed")
	}
	if got := pkg.Get(idxs["Found"]).Int(); got != 7 {
		t.Fatalf("expected Found == 7, got %d", got)
	}
}
