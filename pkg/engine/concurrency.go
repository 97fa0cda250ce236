package engine

import (
	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/channel"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	selectstmt "github.com/smoglang/gosl/pkg/select"
	"github.com/smoglang/gosl/pkg/value"
)

func asChannel(v value.Value) *channel.Channel {
	return v.Chan().Impl.(*channel.Channel)
}

// dispatchSend implements SEND (§4.3.9). A full unbuffered/buffered
// channel reports StatusBlocked without consuming its operands, leaving
// the instruction to be retried by the scheduler's next Step on this
// fiber (PC is rewound to re-fetch it).
func (f *Fiber) dispatchSend(fr *frame.Frame) Status {
	st := fr.Stack()
	v := st.Pop()
	chVal := st.Pop()

	if asChannel(chVal).TrySend(v) {
		return StatusRunning
	}
	st.Push(chVal)
	st.Push(v)
	fr.PC--
	return StatusBlocked
}

// dispatchRecv implements RECV (§4.3.9). T0 nonzero requests the
// comma-ok form.
func (f *Fiber) dispatchRecv(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	chVal := st.Pop()
	ch := asChannel(chVal)

	v, ok, closed := ch.TryRecv()
	if !ok && !closed {
		st.Push(chVal)
		fr.PC--
		return StatusBlocked
	}
	st.Push(v)
	if instr.T0 != value.Invalid {
		st.Push(value.NewBool(ok))
	}
	return StatusRunning
}

// dispatchSelect implements SELECT (§4.3.9, §4.7): Imm case-descriptor
// pseudo-instructions immediately follow the SELECT word itself (one per
// case, T0 carrying its CaseKind), and their channel/value operands were
// already pushed, case by case, in declaration order. Picks one ready
// case at random among those ready (selectstmt.Execute), pushes its
// result per its kind plus the chosen case index for the compiler's
// following dispatch table, or blocks (rewinding past the descriptors
// too) if nothing was ready and there is no default.
func (f *Fiber) dispatchSelect(fr *frame.Frame, fn *heap.Function, instr heap.Instr) Status {
	st := fr.Stack()
	caseCount := int(instr.Imm)
	descStart := fr.PC

	kinds := make([]bytecode.CaseKind, caseCount)
	operandCount := 0
	for i := 0; i < caseCount; i++ {
		kinds[i] = bytecode.CaseKind(fn.Code[descStart+i].T0)
		switch kinds[i] {
		case bytecode.CaseSend:
			operandCount += 2
		case bytecode.CaseRecv, bytecode.CaseRecvValue, bytecode.CaseRecvValueOk:
			operandCount += 1
		}
	}

	operands := st.PopN(operandCount)
	cases := make([]selectstmt.Case, caseCount)
	pos := 0
	for i, k := range kinds {
		switch k {
		case bytecode.CaseSend:
			chVal, sendVal := operands[pos], operands[pos+1]
			pos += 2
			cases[i] = selectstmt.Case{Kind: selectstmt.CaseSend, Ch: asChannel(chVal), SendVal: sendVal}
		case bytecode.CaseRecv, bytecode.CaseRecvValue, bytecode.CaseRecvValueOk:
			chVal := operands[pos]
			pos++
			cases[i] = selectstmt.Case{Kind: selectstmt.CaseRecv, Ch: asChannel(chVal)}
		default:
			cases[i] = selectstmt.Case{Kind: selectstmt.CaseDefault}
		}
	}

	res := selectstmt.Execute(cases, f.Rng)
	if !res.Matched {
		st.PushN(operands)
		fr.PC = descStart - 1
		return StatusBlocked
	}

	fr.PC = descStart + caseCount
	if !res.IsDefault {
		switch kinds[res.Chosen] {
		case bytecode.CaseRecvValue:
			st.Push(res.RecvVal)
		case bytecode.CaseRecvValueOk:
			st.Push(res.RecvVal)
			st.Push(value.NewBool(res.RecvOk))
		}
	}
	st.Push(value.NewInt(res.Chosen))
	return StatusRunning
}
