package engine

import (
	"unicode/utf8"

	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// rangeKind tags which container shape a rangeState iterates.
type rangeKind uint8

const (
	rangeSlice rangeKind = iota
	rangeArray
	rangeMap
	rangeString
)

// rangeState is the internal iteration cursor RANGE_INIT builds and RANGE
// advances, carried on the stack as an UnsafePointer so it needs no new
// Value kind of its own (§4.3.6).
type rangeState struct {
	kind rangeKind

	slc *value.SliceRef
	arr *value.ArrayRef
	str string
	kvs []value.KeyValue

	idx int // next slice/array/map index, or next byte offset for a string
}

// dispatchRangeInit implements RANGE_INIT (§4.3.6): pop the ranged-over
// value and push internal iteration state wrapping it. A map's entries are
// snapshotted up front so the loop sees a stable order even if nothing else
// in the program could otherwise observe map iteration as ordered.
func (f *Fiber) dispatchRangeInit(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	c := st.Pop().Unwrap()

	var rs *rangeState
	switch c.T {
	case value.Slice:
		rs = &rangeState{kind: rangeSlice, slc: c.Slc()}
	case value.Array:
		rs = &rangeState{kind: rangeArray, arr: c.Arr()}
	case value.Map:
		rs = &rangeState{kind: rangeMap, kvs: c.Mp().Snapshot()}
	case value.String:
		rs = &rangeState{kind: rangeString, str: c.Str().String()}
	default:
		panic("engine: range over non-rangeable value")
	}

	st.Push(value.NewUnsafePointer(rs, nil, false, nil))
	return StatusRunning
}

// dispatchRange implements RANGE (§4.3.6): advance the iteration state on
// top of the stack, pushing (key, value, more) in that fixed shape whether
// or not the iteration is exhausted, so the compiler-generated loop body
// can always pop the same three slots and branch on the trailing bool.
func (f *Fiber) dispatchRange(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	rs := st.Top().Unsafe().Data.(*rangeState)

	switch rs.kind {
	case rangeSlice:
		if rs.idx >= rs.slc.Len() {
			st.Push(value.NewInt(0))
			st.Push(value.NewNil())
			st.Push(value.NewBool(false))
			return StatusRunning
		}
		st.Push(value.NewInt(rs.idx))
		st.Push(rs.slc.Get(rs.idx).Copy())
		st.Push(value.NewBool(true))
		rs.idx++

	case rangeArray:
		if rs.idx >= rs.arr.Len() {
			st.Push(value.NewInt(0))
			st.Push(value.NewNil())
			st.Push(value.NewBool(false))
			return StatusRunning
		}
		st.Push(value.NewInt(rs.idx))
		st.Push(rs.arr.Get(rs.idx).Copy())
		st.Push(value.NewBool(true))
		rs.idx++

	case rangeMap:
		if rs.idx >= len(rs.kvs) {
			st.Push(value.NewNil())
			st.Push(value.NewNil())
			st.Push(value.NewBool(false))
			return StatusRunning
		}
		kv := rs.kvs[rs.idx]
		st.Push(kv.Key.Copy())
		st.Push(kv.Val.Copy())
		st.Push(value.NewBool(true))
		rs.idx++

	case rangeString:
		if rs.idx >= len(rs.str) {
			st.Push(value.NewInt(0))
			st.Push(value.NewInt32(0))
			st.Push(value.NewBool(false))
			return StatusRunning
		}
		r, size := utf8.DecodeRuneInString(rs.str[rs.idx:])
		st.Push(value.NewInt(rs.idx))
		st.Push(value.NewInt32(r))
		st.Push(value.NewBool(true))
		rs.idx += size
	}

	return StatusRunning
}
