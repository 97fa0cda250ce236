// Package frame implements call frames and the open/closed upvalue
// machinery of spec.md §3.5, §3.6, and §4.4: a frame owns its executing
// closure, program counter, and stack region; when it returns, on_drop
// closes every upvalue that still aliases one of its about-to-die slots by
// copying the slot's live value into the upvalue's own Closed cell.
//
// Grounded on original_source/vm/src/vm.rs's CallFrame/CallFrame::on_drop/
// add_referred_by for the closing algorithm, and on the teacher's
// StackFrame/pushFrame/popFrame (kristofer-smog pkg/vm/vm.go) for the Go
// idiom of an explicit frame slice rather than the host language's own
// call stack.
package frame

import (
	"github.com/smoglang/gosl/pkg/gc"
	"github.com/smoglang/gosl/pkg/value"
)

type upvalueState uint8

const (
	stateOpen upvalueState = iota
	stateClosed
)

// Upvalue is the two-state cell of §3.6. Open points (weakly) at a slot in
// some fiber's stack; Closed owns an independent value. The transition is
// one-way and performed only by the defining frame's on_drop.
//
// Go has no Weak<T>; the weak reference to the defining frame is modeled
// as a pointer to a liveness flag shared with that Frame (DESIGN.md "Open
// Questions resolved"). Dereferencing an Open upvalue whose frame has
// already died is a checked panic rather than undefined behavior — per §9
// that situation is itself a code-generator bug, so panicking here
// surfaces it loudly instead of silently reading freed memory.
type Upvalue struct {
	state upvalueState

	// Open state.
	frame     *Frame
	frameLive *bool
	slot      int // absolute stack index within frame's fiber stack

	// Closed state.
	closed value.Value

	refcount int32
}

// NewOpenUpvalue creates a fresh Open upvalue pointing at frame's slot
// `index` (relative to frame's own stack_base), and registers it in
// frame's referred_by map so frame's on_drop will close it.
func NewOpenUpvalue(frame *Frame, index int) *Upvalue {
	uv := &Upvalue{
		state:     stateOpen,
		frame:     frame,
		frameLive: frame.alive,
		slot:      frame.StackBase + index,
		refcount:  1,
	}
	frame.addReferredBy(index, uv)
	return uv
}

// Load implements value.UpvalueCell.
func (u *Upvalue) Load() value.Value {
	if u.state == stateClosed {
		return u.closed
	}
	if !*u.frameLive {
		panic("upvalue: defining frame already dropped but upvalue is still Open (code-generator bug)")
	}
	return u.frame.stack.Get(u.slot)
}

// Store implements value.UpvalueCell.
func (u *Upvalue) Store(v value.Value) {
	if u.state == stateClosed {
		u.closed = v
		return
	}
	if !*u.frameLive {
		panic("upvalue: defining frame already dropped but upvalue is still Open (code-generator bug)")
	}
	u.frame.stack.Set(u.slot, v)
}

// close transitions the upvalue to Closed, owning v. Called only from the
// defining frame's onDrop.
func (u *Upvalue) close(v value.Value) {
	u.state = stateClosed
	u.closed = v
	u.frame = nil
	u.frameLive = nil
}

// IsClosed reports whether the upvalue has already transitioned, used by
// LITERAL's "leave it as already closed" fallback (§4.4) when no live
// frame matches its source function.
func (u *Upvalue) IsClosed() bool { return u.state == stateClosed }

// NewClosedUpvalue creates an upvalue that starts Closed, owning v
// directly — used when a closure captures a value with no live defining
// frame to alias (e.g. a package-level closure literal).
func NewClosedUpvalue(v value.Value) *Upvalue {
	return &Upvalue{state: stateClosed, closed: v, refcount: 1}
}

// RefCount, RefSubOne, Retain, Edges, and BreakCycle implement
// gc.CycleCapable (§4.9): a closed upvalue that owns a closure is exactly
// the other half of the closure-capturing-itself cycle ClosureRef.Edges
// documents. An upvalue is never registered as a candidate root itself;
// the collector reaches it as an edge of a registered closure.
func (u *Upvalue) RefCount() int32  { return u.refcount }
func (u *Upvalue) Retain()          { u.refcount++ }
func (u *Upvalue) RefSubOne() int32 { u.refcount--; return u.refcount }

func (u *Upvalue) Edges() []gc.CycleCapable {
	if u.state != stateClosed {
		return nil
	}
	if cc, ok := u.closed.R.(gc.CycleCapable); ok {
		return []gc.CycleCapable{cc}
	}
	return nil
}

// BreakCycle drops this upvalue's own strong reference to whatever it
// closed over, letting ordinary refcounting finish releasing the rest of
// the cycle.
func (u *Upvalue) BreakCycle() {
	u.closed = value.NewNil()
}
