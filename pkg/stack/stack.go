// Package stack implements the contiguous typed operand/local stack of
// spec.md §4.2: push/pop, typed get/copy-semantic loads, typed stores
// (including the signed-rhs-index compound-assignment fusion), truncate,
// and variadic packing.
//
// Grounded on original_source/vm/src/stack.rs for exact operation
// semantics, and on the teacher's growth-by-doubling strategy
// (kristofer-smog's pkg/vm/vm.go push()) for the Go-side slice management.
package stack

import (
	"fmt"

	"github.com/smoglang/gosl/pkg/value"
)

const initialCapacity = 256

// Stack is a per-fiber operand/local stack. A single slice of value.Value
// serves as both the "wide tagged view" and the "narrow 64-bit view"
// spec.md §4.2 describes: value.Value already separates its narrow N field
// from its reference-shared R field, so there is no second representation
// to keep in sync.
type Stack struct {
	data []value.Value
}

func New() *Stack {
	return &Stack{data: make([]value.Value, 0, initialCapacity)}
}

// WithData wraps an existing slice, used when a fresh fiber stack is
// handed an argument vector to start from (§4.8 spawn_fiber).
func WithData(vals []value.Value) *Stack {
	return &Stack{data: vals}
}

func (s *Stack) Len() int { return len(s.data) }

// Push appends v to the top of the stack.
func (s *Stack) Push(v value.Value) { s.data = append(s.data, v) }

// Pop removes and returns the top value. Panics on underflow: popping an
// empty stack is a static-contract violation (§7), never reachable from
// well-formed bytecode.
func (s *Stack) Pop() value.Value {
	n := len(s.data)
	if n == 0 {
		panic("stack: pop from empty stack")
	}
	v := s.data[n-1]
	s.data[n-1] = value.Value{} // drop the reference so GC can reclaim it
	s.data = s.data[:n-1]
	return v
}

// PopN removes and returns the top n values in push order (oldest first),
// used to collect call arguments and multi-value returns.
func (s *Stack) PopN(n int) []value.Value {
	if n == 0 {
		return nil
	}
	base := len(s.data) - n
	if base < 0 {
		panic("stack: pop_n underflow")
	}
	out := make([]value.Value, n)
	copy(out, s.data[base:])
	s.Truncate(base)
	return out
}

// PushN appends vals in order.
func (s *Stack) PushN(vals []value.Value) {
	s.data = append(s.data, vals...)
}

// Top returns the value at the top of the stack without removing it.
func (s *Stack) Top() value.Value { return s.data[len(s.data)-1] }

// Get reads the value at an absolute stack index without removing it
// (§4.2 get_with_type — the type tag is carried by the Value itself, so no
// separate parameter is needed on this side of the dispatch).
func (s *Stack) Get(index int) value.Value { return s.data[index] }

// CopySemantic reads the value at index applying copy_semantic (§3.1),
// used whenever a load feeds an assignment destination of aggregate type.
func (s *Stack) CopySemantic(index int) value.Value { return s.data[index].Copy() }

// Set overwrites the value at an absolute stack index.
func (s *Stack) Set(index int, v value.Value) { s.data[index] = v }

// Truncate shrinks the stack to length n, discarding everything above it.
func (s *Stack) Truncate(n int) {
	for i := n; i < len(s.data); i++ {
		s.data[i] = value.Value{}
	}
	s.data = s.data[:n]
}

// PackVariadic wraps every element from index to the current top into a
// new slice value and replaces that range with the single packed slice, as
// the PRE_CALL/variadic-argument packing step requires (§4.3.7, §9's
// "variadic packing site" design note). index is computed by the caller as
// stack_base+param_count-1 (Go-typed calls) or stack_base+param_count
// (FFI calls, which reserve no return slots).
func (s *Stack) PackVariadic(index int) {
	trailing := append([]value.Value(nil), s.data[index:]...)
	s.Truncate(index)
	arr := value.NewArray(trailing)
	s.Push(value.NewSlice(arr.Arr(), 0, len(trailing), len(trailing)))
}

// BinaryOp pops two operands and an applies a binary op (selected by the
// caller via one of the value package's Add/Sub/... functions), pushing
// the single result — the uniform "pop two, operate, push one" shape of
// §4.2's binary arithmetic opcodes.
func (s *Stack) BinaryOp(op func(a, b value.Value) value.Value) {
	b := s.Pop()
	a := s.Pop()
	s.Push(op(a, b))
}

// UnaryOp pops one operand, applies op, and pushes the result.
func (s *Stack) UnaryOp(op func(a value.Value) value.Value) {
	s.Push(op(s.Pop()))
}

func (s *Stack) String() string {
	return fmt.Sprintf("Stack[len=%d]", len(s.data))
}
