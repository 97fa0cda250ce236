package engine

import (
	"github.com/smoglang/gosl/pkg/channel"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// dispatchLiteral implements LITERAL (§4.3.10): build a composite value
// from Imm operands already on the stack, or — for a closure — from at
// most one stack operand (a receiver, popped when T1 == Bool), since the
// rest of a closure's shape comes from its target function's static
// upvalue descriptors (§4.4).
func (f *Fiber) dispatchLiteral(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	metas := f.Container.Objects.Metas

	switch instr.T0 {
	case value.Slice:
		elems := st.PopN(int(instr.Imm))
		backing := value.NewArray(elems)
		st.Push(value.NewSlice(backing.Arr(), 0, len(elems), len(elems)))

	case value.Array:
		elems := st.PopN(int(instr.Imm))
		st.Push(value.NewArray(elems))

	case value.Map:
		meta, _ := metas.Get(heap.Unpack(instr.Payload64))
		zero := heap.ZeroOf(meta.ElemType, meta.ElemMeta, metas)
		m := value.NewMap(zero)
		pairs := st.PopN(2 * int(instr.Imm))
		for i := 0; i < int(instr.Imm); i++ {
			m.Mp().Set(pairs[2*i], pairs[2*i+1])
		}
		st.Push(m)

	case value.Struct:
		fields := st.PopN(int(instr.Imm))
		st.Push(value.NewStruct(instr.Payload64, fields))

	case value.Closure:
		var recv *value.Value
		if instr.T1 == value.Bool {
			r := st.Pop()
			recv = &r
		}
		closure := f.buildClosure(fr, instr.Payload64, recv)
		st.Push(closure)
	}

	return StatusRunning
}

// buildClosure constructs a closure over funcKeyPacked, resolving each of
// the target function's upvalue slots (§4.4): a slot flagged
// IsUpvalueOfParent forwards the cell this executing closure already
// captured at the same slot index; otherwise a fresh Open upvalue is
// minted against fr, the frame whose local actually owns the value.
func (f *Fiber) buildClosure(fr *frame.Frame, funcKeyPacked uint64, recv *value.Value) value.Value {
	fn2 := f.Container.Objects.Functions.MustGet(heap.Unpack(funcKeyPacked))
	var upvalues map[int]value.UpvalueCell
	if len(fn2.UpPtrs) > 0 {
		upvalues = make(map[int]value.UpvalueCell, len(fn2.UpPtrs))
		for i, ptr := range fn2.UpPtrs {
			if ptr.IsUpvalueOfParent {
				upvalues[i] = fr.VarPtrs[ptr.SlotIndex]
			} else {
				upvalues[i] = frame.NewOpenUpvalue(fr, ptr.SlotIndex)
			}
		}
	}
	closure := value.NewClosure(funcKeyPacked, recv, upvalues)
	if len(upvalues) > 0 {
		f.registerCycleRoot(closure.Clos())
	}
	return closure
}

// dispatchNew implements NEW (§4.3.10): box a fresh zero value of the
// metadata named by Payload64 and push a Pointer to it.
func (f *Fiber) dispatchNew(instr heap.Instr) Status {
	meta, _ := f.Container.Objects.Metas.Get(heap.Unpack(instr.Payload64))
	zero := meta.Zero(f.Container.Objects.Metas)
	cell := &zero
	fr := f.currentFrame()
	fr.Stack().Push(value.NewPointer(value.PointerWhole, value.NewWholeTarget(cell)))
	return StatusRunning
}

// dispatchMake implements MAKE (§4.3.10): construct a slice/map/channel,
// consuming whatever len/cap/capacity arguments Imm says are on the stack
// (0, 1, or 2, matching make's variadic size-argument forms).
func (f *Fiber) dispatchMake(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	metas := f.Container.Objects.Metas

	switch instr.T0 {
	case value.Slice:
		length, capacity := 0, 0
		if instr.Imm >= 2 {
			capacity = st.Pop().Int()
		}
		if instr.Imm >= 1 {
			length = st.Pop().Int()
			if instr.Imm < 2 {
				capacity = length
			}
		}
		meta, _ := metas.Get(heap.Unpack(instr.Payload64))
		zero := heap.ZeroOf(meta.ElemType, meta.ElemMeta, metas)
		st.Push(value.MakeSlice(length, capacity, zero))

	case value.Map:
		if instr.Imm >= 1 {
			st.Pop() // capacity hint: unused by this map implementation
		}
		meta, _ := metas.Get(heap.Unpack(instr.Payload64))
		zero := heap.ZeroOf(meta.ElemType, meta.ElemMeta, metas)
		st.Push(value.NewMap(zero))

	case value.Channel:
		capacity := 0
		if instr.Imm >= 1 {
			capacity = st.Pop().Int()
		}
		st.Push(value.NewChannel(channel.New(capacity)))
	}

	return StatusRunning
}
