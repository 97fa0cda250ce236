package engine

import (
	"testing"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// buildPromotedPointerMethodDispatch wires a container exercising
// BIND_INTERFACE_METHOD's promoted-method and receiver-shape-adjustment
// paths together (§4.3.13): Wrapper embeds a Greeter, and Greeter's Greet
// method wants a pointer receiver. main builds a Wrapper value, casts it to
// an interface, and calls Greet on it purely through the interface — the
// binding table must walk Embed to reach Wrapper.Inner and then box it into
// a Pointer (Indirect) before the call, even though the value sitting in
// the interface is a plain (non-pointer) struct throughout.
func buildPromotedPointerMethodDispatch() (*bytecode.Container, heap.Key, *heap.Package, int) {
	objects := heap.NewObjects()

	greeterMeta := objects.Metas.Insert(&heap.Meta{
		Kind:       heap.MetaStruct,
		FieldNames: []string{"Name"},
		FieldTypes: []value.ValueType{value.String},
		FieldMetas: []heap.Key{{}},
	})
	wrapperMeta := objects.Metas.Insert(&heap.Meta{
		Kind:       heap.MetaStruct,
		FieldNames: []string{"Inner"},
		FieldTypes: []value.ValueType{value.Struct},
		FieldMetas: []heap.Key{greeterMeta},
	})
	ifaceMeta := objects.Metas.Insert(&heap.Meta{
		Kind:        heap.MetaInterface,
		MethodNames: []string{"Greet"},
	})

	// func (g *Greeter) Greet() string { return g.Name }
	greet := &heap.Function{
		Code: []heap.Instr{
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpDeref)},
			{Op: uint16(bytecode.OpLoadStructField), Imm: 0},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		RetZeros: []value.Value{value.NewString("")},
		HasRecv:  true,
		Name:     "Greet",
	}
	greetKey := objects.Functions.Insert(greet)

	c := &bytecode.Container{Objects: objects}
	ifaceIdx := c.AddIface(bytecode.InterfaceBinding{
		InterfaceMeta: ifaceMeta,
		ConcreteMeta:  wrapperMeta,
		Methods: []bytecode.MethodBinding{
			{Kind: bytecode.BindPromoted, Func: greetKey, Indirect: true, Embed: []int{0}},
		},
	})

	pkg := heap.NewPackage("main")
	greetingIdx := pkg.AddMember("Greeting", heap.MemberVar, value.String, value.NewString(""))
	pkgKey := objects.Packages.Insert(pkg)

	main := &heap.Function{
		Code: []heap.Instr{
			// locals[0] = Wrapper{Inner: Greeter{Name: "Ada"}}
			{Op: uint16(bytecode.OpPushConst), Imm: 0},
			{Op: uint16(bytecode.OpLiteral), T0: value.Struct, Payload64: greeterMeta.Pack(), Imm: 1},
			{Op: uint16(bytecode.OpLiteral), T0: value.Struct, Payload64: wrapperMeta.Pack(), Imm: 1},
			{Op: uint16(bytecode.OpStoreLocal), Imm: 0, Payload64: ^uint64(0)},
			// main.Greeting = interface(locals[0]).Greet()
			{Op: uint16(bytecode.OpPreCall), Imm: 1},
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpCast), T1: value.Interface, Payload64: uint64(ifaceIdx)},
			{Op: uint16(bytecode.OpBindInterfaceMethod), Payload64: uint64(ifaceIdx), Imm: 0},
			{Op: uint16(bytecode.OpCall), T0: value.ValueType(bytecode.CallDefault), Imm: 0},
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(greetingIdx)},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		Consts:     []value.Value{value.NewString("Ada")},
		LocalZeros: []value.Value{value.NewNil()},
		Name:       "main",
	}
	mainKey := objects.Functions.Insert(main)
	c.Entry = mainKey

	return c, mainKey, pkg, greetingIdx
}

func TestPromotedInterfaceMethodAdjustsReceiverToPointer(t *testing.T) {
	c, entry, pkg, greetingIdx := buildPromotedPointerMethodDispatch()

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

	if got := pkg.Get(greetingIdx).Str().String(); got != "Ada" {
		t.Fatalf("expected Greeting == %q, got %q", "Ada", got)
	}
}
