package bytecode

import (
	"bytes"
	"testing"

	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// TestContainerRoundTrip covers §6: a Container encoded to bytes and
// decoded back must reproduce every object table, byte for byte, grounded
// on the teacher's TestBytecodeFileRoundTrip (pkg/bytecode/format_test.go).
func TestContainerRoundTrip(t *testing.T) {
	objects := heap.NewObjects()

	structMeta := &heap.Meta{
		Kind:       heap.MetaStruct,
		FieldNames: []string{"X", "Y"},
		FieldTypes: []value.ValueType{value.Int64, value.Int64},
		FieldMetas: []heap.Key{{}, {}},
	}
	metaKey := objects.Metas.Insert(structMeta)

	fn := &heap.Function{
		Code: []heap.Instr{
			{Op: uint16(OpPushConst), Imm: 0},
			{Op: uint16(OpPushImm), T0: value.Int64, Imm: 7},
			{Op: uint16(OpAdd)},
			{Op: uint16(OpReturn)},
		},
		Pos:            []heap.Position{{}, {Line: 3, Col: 5, Valid: true}, {}, {}},
		Consts:         []value.Value{value.NewInt64(35), value.NewString("hi")},
		StackTempTypes: []value.ValueType{value.Int64},
		RetZeros:       []value.Value{value.NewInt64(0)},
		LocalZeros:     []value.Value{value.NewInt64(0)},
		ParamCount:     1,
		Name:           "add7",
	}
	fnKey := objects.Functions.Insert(fn)

	pkg := heap.NewPackage("main")
	pkg.AddMember("Count", heap.MemberVar, value.Int64, value.NewInt64(0))
	objects.Packages.Insert(pkg)

	c := &Container{
		Objects: objects,
		Entry:   fnKey,
		Ifaces: []InterfaceBinding{
			{
				InterfaceMeta: metaKey,
				ConcreteMeta:  metaKey,
				Methods:       []MethodBinding{{Kind: BindDirect, Func: fnKey}},
			},
		},
	}

	var buf bytes.Buffer
	if err := Encode(c, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.Entry != fnKey {
		t.Fatalf("entry key mismatch: got %v, want %v", got.Entry, fnKey)
	}
	if got.Objects.Functions.Len() != 1 {
		t.Fatalf("expected 1 function, got %d", got.Objects.Functions.Len())
	}
	gotFn := got.Objects.Functions.MustGet(fnKey)
	if gotFn.Name != "add7" || len(gotFn.Code) != 4 {
		t.Fatalf("function round-trip mismatch: %+v", gotFn)
	}
	if gotFn.Code[1].Imm != 7 || gotFn.Code[1].T0 != value.Int64 {
		t.Fatalf("instruction round-trip mismatch: %+v", gotFn.Code[1])
	}
	if !gotFn.Consts[0].Equal(value.NewInt64(35)) {
		t.Fatalf("const[0] mismatch: %+v", gotFn.Consts[0])
	}
	if gotFn.Consts[1].Str().String() != "hi" {
		t.Fatalf("const[1] string mismatch: %+v", gotFn.Consts[1])
	}
	if !gotFn.Pos[1].Valid || gotFn.Pos[1].Line != 3 {
		t.Fatalf("position round-trip mismatch: %+v", gotFn.Pos[1])
	}

	gotMeta := got.Objects.Metas.MustGet(metaKey)
	if gotMeta.Kind != heap.MetaStruct || len(gotMeta.FieldNames) != 2 || gotMeta.FieldNames[1] != "Y" {
		t.Fatalf("meta round-trip mismatch: %+v", gotMeta)
	}

	gotPkg := got.Objects.Packages.Entries()[0]
	if gotPkg.Name != "main" || !gotPkg.Inited() {
		t.Fatalf("package round-trip mismatch: %+v", gotPkg)
	}
	if gotPkg.Get(gotPkg.MemberIndices["Count"]).Int64() != 0 {
		t.Fatalf("package member round-trip mismatch")
	}

	if len(got.Ifaces) != 1 || got.Ifaces[0].Methods[0].Kind != BindDirect {
		t.Fatalf("iface binding round-trip mismatch: %+v", got.Ifaces)
	}
}

func TestOpcodeString(t *testing.T) {
	if OpAdd.String() != "ADD" {
		t.Fatalf("expected ADD, got %s", OpAdd.String())
	}
	if Opcode(9999).String() != "UNKNOWN_OPCODE" {
		t.Fatalf("expected UNKNOWN_OPCODE for out-of-range opcode")
	}
}
