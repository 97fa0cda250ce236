package engine

import (
	"math/rand"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/stack"
	"github.com/smoglang/gosl/pkg/value"
)

// pushCallFrame builds and pushes a new Frame for closure, laying args out
// as its parameter locals (prefixed with the bound receiver, if any) and
// appending the callee function's non-parameter local zero values (§3.3,
// §4.4). retBase<0 means the caller wants the results discarded (a
// goroutine spawn, a deferred call's own invocation, or a fiber's root
// frame).
func (f *Fiber) pushCallFrame(closure value.Value, args []value.Value, retBase, retCount int) *frame.Frame {
	cl := closure.Clos()
	fn := f.Container.Objects.Functions.MustGet(heap.Unpack(cl.FuncKey))

	effective := args
	if fn.HasRecv && cl.Recv != nil {
		effective = make([]value.Value, 0, len(args)+1)
		effective = append(effective, *cl.Recv)
		effective = append(effective, args...)
	}

	stackBase := f.Stack.Len()
	for _, a := range effective {
		f.Stack.Push(a.Copy())
	}
	for _, z := range fn.LocalZeros {
		f.Stack.Push(z.Copy())
	}

	fr := frame.New(closure, f.Stack, stackBase)
	fr.RetBase = retBase
	fr.RetCount = retCount
	if len(cl.Upvalues) > 0 {
		fr.VarPtrs = make(map[int]*frame.Upvalue, len(cl.Upvalues))
		for i, cell := range cl.Upvalues {
			fr.VarPtrs[i] = cell.(*frame.Upvalue)
		}
	}
	f.Frames = append(f.Frames, fr)
	return fr
}

// handleReturn implements RETURN (§4.3.8, §4.5): pop the callee's declared
// return values, drain its defer stack (which may itself panic, in which
// case normal return is abandoned in favor of propagation), and — absent a
// panic — write the results into the caller's reserved slots and resume
// the caller. The package-init variant first copies this constructor's
// locals into its package's member slots per VarMapping and clears it,
// flipping Package.Inited() to true (§3.4).
func (f *Fiber) handleReturn(variant bytecode.ReturnVariant) Status {
	fr := f.currentFrame()
	fn := f.currentFunction()

	if variant == bytecode.ReturnPackageInit {
		pkg := f.initTargets[len(f.initTargets)-1]
		for localIdx, memberIdx := range pkg.VarMapping {
			pkg.Set(memberIdx, f.Stack.Get(fr.StackBase+localIdx).Copy())
		}
		pkg.VarMapping = nil
	}

	retN := len(fn.RetZeros)
	retVals := f.Stack.PopN(retN)

	for fr.HasPendingDefers() {
		d, _ := fr.PopDefer()
		f.runDeferredCall(d)
		if f.panicking != nil {
			return f.unwind()
		}
	}

	// OnDrop must close any open upvalues against this frame's locals
	// before Truncate zeroes and shrinks the stack region they live in.
	fr.OnDrop()
	f.Stack.Truncate(fr.StackBase)
	f.Frames = f.Frames[:len(f.Frames)-1]
	if fr.RetBase >= 0 {
		for i, v := range retVals {
			f.Stack.Set(fr.RetBase+i, v)
		}
	}
	if len(f.Frames) == 0 {
		return StatusDone
	}
	return StatusRunning
}

// unwind drains the current frame's (and then each caller's) defer stack
// while a panic is in flight (§4.5). A recover() inside any one deferred
// call clears the panic, but every defer registered before it still runs
// in its normal turn — recovering only stops the panic from propagating
// past this frame once its whole defer stack has been drained, exactly
// as if the frame had reached an ordinary RETURN. If the panic outlives
// the whole call stack, the fiber terminates with a *RuntimeError.
func (f *Fiber) unwind() Status {
	for len(f.Frames) > 0 {
		fr := f.currentFrame()
		fn := f.currentFunction()

		for fr.HasPendingDefers() {
			d, _ := fr.PopDefer()
			f.runDeferredCall(d)
		}

		if f.panicking == nil {
			// Some deferred call recovered: the frame returns normally
			// with zero values — it never reached an explicit return
			// statement.
			fr.OnDrop()
			f.Stack.Truncate(fr.StackBase)
			f.Frames = f.Frames[:len(f.Frames)-1]
			if fr.RetBase >= 0 {
				for i, z := range fn.RetZeros {
					f.Stack.Set(fr.RetBase+i, z.Copy())
				}
			}
			if len(f.Frames) == 0 {
				return StatusDone
			}
			return StatusRunning
		}

		f.panicking.trace = append(f.panicking.trace, traceEntry(fr, fn))
		fr.OnDrop()
		f.Stack.Truncate(fr.StackBase)
		f.Frames = f.Frames[:len(f.Frames)-1]
	}
	return f.finishUnrecoveredPanic()
}

func traceEntry(fr *frame.Frame, fn *heap.Function) StackFrame {
	entry := StackFrame{FuncName: fn.Name, PC: fr.PC}
	if fr.PC-1 >= 0 && fr.PC-1 < len(fn.Pos) {
		p := fn.Pos[fr.PC-1]
		entry.Line, entry.Col, entry.HasPos = p.Line, p.Col, p.Valid
	}
	return entry
}

func (f *Fiber) finishUnrecoveredPanic() Status {
	f.Err = &RuntimeError{PanicValue: f.panicking.value, StackTrace: f.panicking.trace}
	f.panicking = nil
	return StatusPanicked
}

// runDeferredCall executes one deferred closure to completion (§4.5).
// Deferred-call execution is not separately quantum-accounted: once a
// RETURN or an unwind starts draining a defer stack, each deferred call
// (and anything it in turn calls) runs to completion before control
// returns to the scheduler, rather than interleaving with the normal
// per-instruction quantum.
func (f *Fiber) runDeferredCall(d frame.DeferredCall) {
	fr := f.pushCallFrame(d.Closure, d.Args, -1, -1)
	f.runFrameToCompletion(fr)
}

// runFrameToCompletion drives fr (and anything it calls) until fr itself is
// popped, bypassing the scheduler's quantum. A channel op that cannot
// proceed busy-retries here rather than yielding — a documented limitation
// of running deferred calls outside the normal scheduler loop.
func (f *Fiber) runFrameToCompletion(fr *frame.Frame) {
	targetDepth := len(f.Frames)
	for len(f.Frames) >= targetDepth {
		switch f.execOne() {
		case StatusDone, StatusPanicked:
			return
		}
	}
}

// handlePreCall implements PRE_CALL (§4.3.7): reserve retCount result
// slots, to be filled in by the matching CALL's callee once it returns.
func (f *Fiber) handlePreCall(retCount int) Status {
	for i := 0; i < retCount; i++ {
		f.Stack.Push(value.NewNil())
	}
	return StatusRunning
}

// handleCall implements CALL (§4.3.7): pop the closure and its arguments
// off the operand stack (pushed after PRE_CALL's reserved slots) and
// dispatch per call style.
func (f *Fiber) handleCall(style bytecode.CallStyle, paramCount int) Status {
	args := f.Stack.PopN(paramCount)
	closure := f.Stack.Pop()

	if cl := closure.Clos(); cl.FFIObject != nil {
		return f.callFFI(cl, args)
	}

	switch style {
	case bytecode.CallDeferred:
		f.currentFrame().PushDefer(closure, args)
		return StatusRunning

	case bytecode.CallGoroutine:
		// ID is left zero; the scheduler (the only thing that calls Spawn)
		// assigns a real one before running this fiber (§4.8).
		child := &Fiber{
			Container: f.Container,
			Stack:     stack.New(),
			Spawner:   f.Spawner,
			Rng:       rand.New(rand.NewSource(f.Rng.Int63())),
		}
		child.pushCallFrame(closure, args, -1, -1)
		if f.Spawner != nil {
			f.Spawner.Spawn(child)
		}
		return StatusRunning

	default: // CallDefault
		fn := f.Container.Objects.Functions.MustGet(heap.Unpack(closure.Clos().FuncKey))
		retCount := len(fn.RetZeros)
		retBase := f.Stack.Len() - retCount
		f.pushCallFrame(closure, args, retBase, retCount)
		return StatusRunning
	}
}

// callFFI invokes a foreign method synchronously (§6 calling convention,
// DESIGN.md's "FFI calls made synchronous" resolution) and pushes its
// results onto the operand stack, skipping bytecode frame setup entirely.
func (f *Fiber) callFFI(cl *value.ClosureRef, args []value.Value) Status {
	caller, ok := cl.FFIObject.(Caller)
	if !ok {
		panic(value.NewString("engine: FFI object does not implement Call"))
	}
	f.Trace.Tracef("engine: fiber %d calling FFI method %q", f.ID, cl.FFIName)
	results, err := caller.Call(cl.FFIName, args)
	if err != nil {
		panic(value.NewString(err.Error()))
	}
	for _, r := range results {
		f.Stack.Push(r)
	}
	return StatusRunning
}
