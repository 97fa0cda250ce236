package frame

import (
	"github.com/smoglang/gosl/pkg/stack"
	"github.com/smoglang/gosl/pkg/value"
)

// DeferredCall is one entry of a frame's defer stack (§4.5): the closure
// to invoke and the argument vector it captured at the `defer` site.
type DeferredCall struct {
	Closure value.Value
	Args    []value.Value
}

// Frame is one active function invocation on a fiber (§3.5). It owns the
// executing closure handle, its program counter, the base index into the
// fiber's stack where its parameter/local region begins, the open-upvalue
// handles it itself uses (VarPtrs, keyed by this frame's own upvalue slot
// index), the referrers of its locals (ReferredBy, keyed by local slot
// index), and its defer stack.
type Frame struct {
	Closure   value.Value
	PC        int
	StackBase int

	// VarPtrs holds, for each upvalue slot this frame's own function
	// declares, the Upvalue cell this frame's closure captured it through
	// (forwarded from the caller or freshly opened at CALL time, §4.4).
	VarPtrs map[int]*Upvalue

	// ReferredBy maps a local slot index (relative to StackBase) to every
	// Upvalue a child closure opened against that slot. Populated by
	// NewOpenUpvalue; drained by onDrop.
	ReferredBy map[int][]*Upvalue

	DeferStack []DeferredCall

	// RetBase/RetCount locate where the engine should write this frame's
	// return values once it finishes (§4.3.7/§4.3.8): the reserved slots
	// PRE_CALL pushed in the *caller's* stack region, sitting directly below
	// StackBase. RetBase < 0 signals "discard the return values" (a
	// goroutine-spawned call, a deferred call's own invocation, or the
	// fiber's root frame, none of which have a caller waiting on a result).
	RetBase  int
	RetCount int

	stack *stack.Stack
	alive *bool
}

// New creates a frame for closure, executing against fiberStack starting
// at stackBase.
func New(closure value.Value, fiberStack *stack.Stack, stackBase int) *Frame {
	alive := true
	return &Frame{
		Closure:   closure,
		StackBase: stackBase,
		RetBase:   -1,
		stack:     fiberStack,
		alive:     &alive,
	}
}

// Stack returns the fiber stack this frame executes against, needed by the
// engine to fetch/store locals and write return values at frame-pop time.
func (f *Frame) Stack() *stack.Stack { return f.stack }

func (f *Frame) addReferredBy(index int, uv *Upvalue) {
	if f.ReferredBy == nil {
		f.ReferredBy = make(map[int][]*Upvalue)
	}
	f.ReferredBy[index] = append(f.ReferredBy[index], uv)
}

// PushDefer records a deferred call (§4.5 `defer`).
func (f *Frame) PushDefer(closure value.Value, args []value.Value) {
	f.DeferStack = append(f.DeferStack, DeferredCall{Closure: closure, Args: args})
}

// PopDefer removes and returns the most recently pushed deferred call
// (LIFO, §4.5), and whether one was available.
func (f *Frame) PopDefer() (DeferredCall, bool) {
	n := len(f.DeferStack)
	if n == 0 {
		return DeferredCall{}, false
	}
	d := f.DeferStack[n-1]
	f.DeferStack = f.DeferStack[:n-1]
	return d, true
}

// HasPendingDefers reports whether any deferred call remains to run.
func (f *Frame) HasPendingDefers() bool { return len(f.DeferStack) > 0 }

// OnDrop closes every upvalue that still references one of this frame's
// about-to-die slots, copying each referenced slot's current value into
// every registered upvalue's cell (§3.5, §4.4). Must run exactly once,
// when the frame is popped, before any other fiber can observe the
// frame's slot memory (§8.1 invariant).
func (f *Frame) OnDrop() {
	for localIdx, upvalues := range f.ReferredBy {
		v := f.stack.Get(f.StackBase + localIdx).Copy()
		for _, uv := range upvalues {
			uv.close(v)
		}
	}
	f.ReferredBy = nil
	*f.alive = false
}

// Alive reports whether OnDrop has not yet run. Exposed so the engine's
// LITERAL-time upward frame scan (§4.4) can skip frames that are mid-unwind
// but not yet fully dropped, and so tests can assert closing behavior.
func (f *Frame) Alive() bool { return *f.alive }

// ClosureRef returns the frame's closure as a *value.ClosureRef via a thin
// accessor, kept here rather than duplicated at every call site.
func (f *Frame) ClosureRef() *value.ClosureRef { return f.Closure.Clos() }
