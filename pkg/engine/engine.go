// Package engine implements the fetch-decode-execute dispatch loop of
// spec.md §4.3, call/return with closure+upvalue capture (§4.4), and the
// deferred-call/panic/recover machinery (§4.5).
//
// Grounded on kristofer-smog's pkg/vm/vm.go Run loop (switch over inst.Op,
// one case per opcode, runtimeError wrapping) for the Go idiom; the
// closure/defer/panic semantics the teacher doesn't have (smog is
// sequential with no closures) come from original_source/vm/src/vm.rs's
// Opcode::CALL/RETURN/PanicData handling, adapted to this package's flat
// shared-Stack-per-fiber layout instead of Rust's owned CallFrame stack.
package engine

import (
	"fmt"
	"math/rand"

	"github.com/smoglang/gosl/internal/gruntime"
	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/gc"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/stack"
	"github.com/smoglang/gosl/pkg/value"
)

// Status reports what a Step call accomplished.
type Status uint8

const (
	// StatusRunning means the fiber executed its full quantum and has more
	// work; the scheduler should reschedule it.
	StatusRunning Status = iota
	// StatusDone means the fiber's root frame returned; nothing more to run.
	StatusDone
	// StatusBlocked means the fiber is waiting on a channel send/recv/select
	// that could not proceed; the scheduler should try another fiber and
	// come back to this one later. The blocked instruction's PC is left
	// unchanged so the next Step re-attempts it.
	StatusBlocked
	// StatusPanicked means an unrecovered panic propagated past the root
	// frame; Err on the Fiber carries the *RuntimeError.
	StatusPanicked
)

// Spawner is implemented by the scheduler: CALL with the Goroutine style
// hands a freshly built Fiber to it instead of running the call inline.
type Spawner interface {
	Spawn(f *Fiber)
}

// Caller is implemented by FFI objects (package ffi): CALL on a closure bound
// to an FFI object invokes the method synchronously (DESIGN.md's "FFI calls made synchronous" Open
// Question resolution) rather than pushing a bytecode frame.
type Caller interface {
	Call(method string, args []value.Value) ([]value.Value, error)
}

// Fiber is one cooperatively-scheduled execution context (§4.8): its own
// operand/local stack and call-frame stack, sharing the Container's object
// heaps with every other fiber in the program.
type Fiber struct {
	ID        uint64
	Container *bytecode.Container
	Stack     *stack.Stack
	Frames    []*frame.Frame
	Spawner   Spawner
	Rng       *rand.Rand

	// Trace emits scheduling/FFI diagnostic lines when enabled (§8.1); the
	// scheduler sets this on every fiber it takes ownership of per
	// Options.Trace, so a bare NewRootFiber stays silent until a scheduler
	// adopts it.
	Trace gruntime.Logger

	panicking *pendingPanic
	Err       error

	// initTargets threads "which package is this running constructor
	// for" down to the matching RETURN (ReturnPackageInit variant),
	// since the constructor closure itself carries no such reference.
	initTargets []*heap.Package

	// cycleRoots accumulates every closure this fiber has built that
	// captures at least one upvalue — the only shape in this engine that
	// can form a reference cycle (§4.9) — so Step can hand them to the
	// collector once the fiber exits.
	cycleRoots []gc.CycleCapable
}

// registerCycleRoot records cc as a candidate for the mark-and-queue sweep
// run when this fiber exits (§4.9).
func (f *Fiber) registerCycleRoot(cc gc.CycleCapable) {
	f.cycleRoots = append(f.cycleRoots, cc)
}

// pendingPanic tracks an in-flight panic while it unwinds through defer
// chains looking for a recover (§4.5).
type pendingPanic struct {
	value     value.Value
	recovered bool
	trace     []StackFrame
}

// NewRootFiber creates the fiber that runs entryFn starting with args
// already laid out as its parameters (§4.8's initial "root fiber").
func NewRootFiber(id uint64, c *bytecode.Container, entryFn heap.Key, args []value.Value) *Fiber {
	f := &Fiber{
		ID:        id,
		Container: c,
		Stack:     stack.New(),
		Rng:       rand.New(rand.NewSource(int64(id) + 1)),
	}
	closure := value.NewClosure(entryFn.Pack(), nil, nil)
	f.pushCallFrame(closure, args, -1, -1)
	return f
}

// Step runs up to quantum instructions (§4.8's scheduling quantum), or
// until the fiber blocks, finishes, or panics unrecovered.
func (f *Fiber) Step(quantum int) Status {
	for i := 0; i < quantum; i++ {
		if len(f.Frames) == 0 {
			return f.finish(StatusDone)
		}
		status := f.execOne()
		switch status {
		case StatusBlocked:
			return status
		case StatusDone, StatusPanicked:
			return f.finish(status)
		}
	}
	if len(f.Frames) == 0 {
		return f.finish(StatusDone)
	}
	return StatusRunning
}

// finish runs the §4.9 cycle collector over every closure this fiber built
// that captures an upvalue, then reports status. Called exactly once, the
// moment the fiber has no more frames to run or gives up on an unrecovered
// panic — §4.8's "invoked at fiber exit".
func (f *Fiber) finish(status Status) Status {
	if f.cycleRoots != nil {
		gc.Sweep(f.cycleRoots)
		f.cycleRoots = nil
	}
	return status
}

func (f *Fiber) currentFrame() *frame.Frame { return f.Frames[len(f.Frames)-1] }

func (f *Fiber) currentFunction() *heap.Function {
	cl := f.currentFrame().ClosureRef()
	return f.Container.Objects.Functions.MustGet(heap.Unpack(cl.FuncKey))
}

// execOne fetches and executes exactly one instruction from the topmost
// frame, recovering from any Go-level panic (array index, nil deref,
// divide-by-zero, uncomparable equality, channel misuse — all raised as
// ordinary Go panics by packages value/stack/channel) and feeding it into
// the same unwind machinery source-level `panic()` uses, so `recover()`
// catches both uniformly.
func (f *Fiber) execOne() (status Status) {
	fr := f.currentFrame()
	fn := f.currentFunction()
	if fr.PC >= len(fn.Code) {
		panic(fmt.Sprintf("engine: pc %d out of range for function %q (%d instructions)", fr.PC, fn.Name, len(fn.Code)))
	}
	instr := fn.Code[fr.PC]

	defer func() {
		if r := recover(); r != nil {
			var pv value.Value
			if v, ok := r.(value.Value); ok {
				pv = v
			} else if err, ok := r.(error); ok {
				pv = value.NewString(err.Error())
			} else {
				pv = value.NewString(fmt.Sprint(r))
			}
			f.beginPanic(pv)
			status = f.unwind()
		}
	}()

	fr.PC++
	return f.dispatch(fr, fn, instr)
}

func (f *Fiber) beginPanic(v value.Value) {
	if f.panicking == nil {
		f.panicking = &pendingPanic{value: v}
	} else {
		// A panic raised while already unwinding supersedes the prior one,
		// matching the source language's "later panic wins" behavior.
		f.panicking.value = v
	}
}

