package scheduler

import (
	"testing"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/engine"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// buildProducerConsumer wires a two-function container exercising a
// goroutine spawn, an unbuffered channel handoff, and a blocking receive
// (§4.8/§4.6 end to end): main makes a channel, spawns producer over it,
// blocks receiving one value, and stores it into a package member so the
// test can observe it without inspecting the fiber's own stack.
func buildProducerConsumer() (*bytecode.Container, heap.Key, *heap.Package, int) {
	objects := heap.NewObjects()

	producer := &heap.Function{
		Code: []heap.Instr{
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpPushImm), T0: value.Int, Imm: 42},
			{Op: uint16(bytecode.OpSend)},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		ParamCount: 1,
		Name:       "producer",
	}
	producerKey := objects.Functions.Insert(producer)

	pkg := heap.NewPackage("main")
	resultIdx := pkg.AddMember("Result", heap.MemberVar, value.Int, value.NewInt(0))
	pkgKey := objects.Packages.Insert(pkg)

	main := &heap.Function{
		Code: []heap.Instr{
			// locals[0] = make(chan int)
			{Op: uint16(bytecode.OpMake), T0: value.Channel, Imm: 0},
			{Op: uint16(bytecode.OpStoreLocal), Imm: 0, Payload64: ^uint64(0)},
			// spawn producer(locals[0])
			{Op: uint16(bytecode.OpPreCall), Imm: 0},
			{Op: uint16(bytecode.OpLiteral), T0: value.Closure, Payload64: producerKey.Pack()},
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpCall), T0: value.ValueType(bytecode.CallGoroutine), Imm: 1},
			// v := <-locals[0]
			{Op: uint16(bytecode.OpLoadLocal), Imm: 0},
			{Op: uint16(bytecode.OpRecv), T0: value.Invalid},
			// main.Result = v
			{Op: uint16(bytecode.OpStorePkgField), Payload64: pkgKey.Pack(), Imm: int32(resultIdx)},
			{Op: uint16(bytecode.OpReturn), T0: value.ValueType(bytecode.ReturnNormal)},
		},
		LocalZeros: []value.Value{value.NewNil()},
		ParamCount: 0,
		Name:       "main",
	}
	mainKey := objects.Functions.Insert(main)

	return &bytecode.Container{Objects: objects, Entry: mainKey}, mainKey, pkg, resultIdx
}

func TestProducerConsumerHandoff(t *testing.T) {
	c, entry, pkg, resultIdx := buildProducerConsumer()

	sched := New(engine.Options{})
	root := engine.NewRootFiber(0, c, entry, nil)
	sched.RunRoot(root)

	if len(sched.Errors) != 0 {
		t.Fatalf("unexpected panics: %+v", sched.Errors)
	}

	got := pkg.Get(resultIdx)
	if got.Int() != 42 {
		t.Fatalf("expected main.Result == 42, got %v", got)
	}
}
