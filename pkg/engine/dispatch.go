package engine

import (
	"fmt"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// dispatch executes one already-fetched, already-PC-advanced instruction
// against fr/fn, returning the Status the fiber should report for this
// step. Grouped by spec section across this file and its siblings
// (aggregates.go, literal.go, concurrency.go, builtins.go, typeops.go,
// calls.go, rangeops.go);
// this file holds the dispatch switch itself plus the stack/local/upvalue/
// arithmetic/control-flow groups, which don't need a helper file of their
// own.
func (f *Fiber) dispatch(fr *frame.Frame, fn *heap.Function, instr heap.Instr) Status {
	op := bytecode.Opcode(instr.Op)
	st := fr.Stack()

	switch op {

	// --- constants & pushes ---
	case bytecode.OpPushConst:
		st.Push(fn.Consts[instr.Imm].Copy())
	case bytecode.OpPushNil:
		st.Push(value.NewNil())
	case bytecode.OpPushTrue:
		st.Push(value.NewBool(true))
	case bytecode.OpPushFalse:
		st.Push(value.NewBool(false))
	case bytecode.OpPushImm:
		st.Push(pushImm(instr.T0, instr.Imm))
	case bytecode.OpPushZeroValue:
		st.Push(heap.ZeroOf(instr.T0, heap.Unpack(instr.Payload64), f.Container.Objects.Metas))
	case bytecode.OpPop:
		st.PopN(int(instr.Imm))
	case bytecode.OpDup:
		st.Push(st.Top().Copy())

	// --- local & upvalue access ---
	case bytecode.OpLoadLocal:
		st.Push(st.CopySemantic(fr.StackBase + int(instr.Imm)))
	case bytecode.OpStoreLocal:
		st.StoreVal(fr.StackBase+int(instr.Imm), int(int64(instr.Payload64)))
	case bytecode.OpLoadUpvalue:
		st.Push(fr.VarPtrs[int(instr.Imm)].Load())
	case bytecode.OpStoreUpvalue:
		v := st.Pop()
		fr.VarPtrs[int(instr.Imm)].Store(v)
	case bytecode.OpRefLocal:
		idx := int(instr.Imm)
		uv := frame.NewOpenUpvalue(fr, idx)
		st.Push(value.NewPointer(value.PointerWhole, uv))
	case bytecode.OpRefUpvalue:
		cell := fr.VarPtrs[int(instr.Imm)]
		st.Push(value.NewPointer(value.PointerUpvalue, cell))
	case bytecode.OpDeref:
		p := st.Pop()
		st.Push(p.Ptr().Target.Load())
	case bytecode.OpStoreDeref:
		v := st.Pop()
		p := st.Pop()
		p.Ptr().Target.Store(v)

	// --- aggregate access, cast ---
	case bytecode.OpLoadIndex, bytecode.OpLoadIndexImm, bytecode.OpStoreIndex, bytecode.OpStoreIndexImm,
		bytecode.OpLoadField, bytecode.OpLoadStructField, bytecode.OpLoadPkgField,
		bytecode.OpStoreField, bytecode.OpStoreStructField, bytecode.OpStorePkgField,
		bytecode.OpLoadPkgInit, bytecode.OpRefSliceMember, bytecode.OpRefStructField,
		bytecode.OpRefPkgMember, bytecode.OpRefLiteral, bytecode.OpSliceExpr, bytecode.OpSliceFull:
		return f.dispatchAggregate(fr, fn, instr, op)

	case bytecode.OpCast:
		return f.dispatchCast(fr, fn, instr)

	// --- arithmetic / compare ---
	case bytecode.OpAdd:
		st.BinaryOp(value.Add)
	case bytecode.OpSub:
		st.BinaryOp(value.Sub)
	case bytecode.OpMul:
		st.BinaryOp(value.Mul)
	case bytecode.OpQuo:
		st.BinaryOp(value.Quo)
	case bytecode.OpRem:
		st.BinaryOp(value.Rem)
	case bytecode.OpAnd:
		st.BinaryOp(value.And)
	case bytecode.OpOr:
		st.BinaryOp(value.Or)
	case bytecode.OpXor:
		st.BinaryOp(value.Xor)
	case bytecode.OpAndNot:
		st.BinaryOp(value.AndNot)
	case bytecode.OpShl:
		st.BinaryOp(value.Shl)
	case bytecode.OpShr:
		st.BinaryOp(value.Shr)
	case bytecode.OpUnaryAdd:
		// no-op: unary + never changes the operand's bit pattern
	case bytecode.OpUnarySub:
		st.UnaryOp(value.UnaryNeg)
	case bytecode.OpUnaryXor:
		st.UnaryOp(value.UnaryXor)
	case bytecode.OpNot:
		st.UnaryOp(value.Not)
	case bytecode.OpEql:
		b, a := st.Pop(), st.Pop()
		st.Push(value.NewBool(a.Equal(b)))
	case bytecode.OpNeq:
		b, a := st.Pop(), st.Pop()
		st.Push(value.NewBool(!a.Equal(b)))
	case bytecode.OpLss:
		b, a := st.Pop(), st.Pop()
		st.Push(value.NewBool(value.Compare(a, b) < 0))
	case bytecode.OpGtr:
		b, a := st.Pop(), st.Pop()
		st.Push(value.NewBool(value.Compare(a, b) > 0))
	case bytecode.OpLeq:
		b, a := st.Pop(), st.Pop()
		st.Push(value.NewBool(value.Compare(a, b) <= 0))
	case bytecode.OpGeq:
		b, a := st.Pop(), st.Pop()
		st.Push(value.NewBool(value.Compare(a, b) >= 0))

	// --- control flow ---
	case bytecode.OpJump:
		fr.PC += int(instr.Imm)
	case bytecode.OpJumpIf:
		if st.Pop().Bool() {
			fr.PC += int(instr.Imm)
		}
	case bytecode.OpJumpIfNot:
		if !st.Pop().Bool() {
			fr.PC += int(instr.Imm)
		}
	case bytecode.OpShortCircuitOr:
		if st.Top().Bool() {
			fr.PC += int(instr.Imm)
		} else {
			st.Pop()
		}
	case bytecode.OpShortCircuitAnd:
		if !st.Top().Bool() {
			fr.PC += int(instr.Imm)
		} else {
			st.Pop()
		}
	case bytecode.OpSwitch:
		c := st.Pop()
		tag := st.Pop()
		if tag.Equal(c) {
			fr.PC += int(instr.Imm)
		} else {
			st.Push(tag)
		}
	case bytecode.OpRangeInit:
		return f.dispatchRangeInit(fr, instr)
	case bytecode.OpRange:
		return f.dispatchRange(fr, instr)

	// --- calls / return ---
	case bytecode.OpPreCall:
		return f.handlePreCall(int(instr.Imm))
	case bytecode.OpCall:
		return f.handleCall(bytecode.CallStyle(instr.T0), int(instr.Imm))
	case bytecode.OpReturn:
		return f.handleReturn(bytecode.ReturnVariant(instr.T0))

	// --- concurrency ---
	case bytecode.OpSend:
		return f.dispatchSend(fr)
	case bytecode.OpRecv:
		return f.dispatchRecv(fr, instr)
	case bytecode.OpSelect:
		return f.dispatchSelect(fr, fn, instr)
	case bytecode.OpClose:
		ch := st.Pop()
		asChannel(ch).Close()

	// --- dynamic construction ---
	case bytecode.OpLiteral:
		return f.dispatchLiteral(fr, instr)
	case bytecode.OpNew:
		return f.dispatchNew(instr)
	case bytecode.OpMake:
		return f.dispatchMake(fr, instr)

	// --- builtins ---
	case bytecode.OpLen, bytecode.OpCap, bytecode.OpAppend, bytecode.OpCopy, bytecode.OpDelete,
		bytecode.OpComplex, bytecode.OpReal, bytecode.OpImag, bytecode.OpPanic, bytecode.OpRecover,
		bytecode.OpAssert, bytecode.OpFFI, bytecode.OpImport:
		return f.dispatchBuiltin(fr, fn, instr, op)

	// --- type introspection / interface binding ---
	case bytecode.OpTypeAssert:
		return f.dispatchTypeAssert(fr, instr)
	case bytecode.OpType:
		return f.dispatchType(fr, fn, instr)
	case bytecode.OpBindMethod:
		return f.dispatchBindMethod(fr, instr)
	case bytecode.OpBindInterfaceMethod:
		return f.dispatchBindInterfaceMethod(fr, instr)

	default:
		panic(fmt.Sprintf("engine: unimplemented opcode %s", op))
	}

	return StatusRunning
}

func pushImm(t value.ValueType, imm int32) value.Value {
	switch t {
	case value.Float32:
		return value.NewFloat32(float32(imm))
	case value.Float64:
		return value.NewFloat64(float64(imm))
	case value.Uint8, value.Uint16, value.Uint32, value.Uint64, value.Uint, value.UintPtr:
		return heapZeroTypedUint(t, imm)
	default:
		return heapZeroTypedInt(t, imm)
	}
}

func heapZeroTypedInt(t value.ValueType, imm int32) value.Value {
	switch t {
	case value.Int8:
		return value.NewInt8(int8(imm))
	case value.Int16:
		return value.NewInt16(int16(imm))
	case value.Int32:
		return value.NewInt32(imm)
	case value.Int:
		return value.NewInt(int(imm))
	default:
		return value.NewInt64(int64(imm))
	}
}

func heapZeroTypedUint(t value.ValueType, imm int32) value.Value {
	switch t {
	case value.Uint8:
		return value.NewUint8(uint8(imm))
	case value.Uint16:
		return value.NewUint16(uint16(imm))
	case value.Uint32:
		return value.NewUint32(uint32(imm))
	case value.UintPtr:
		return value.NewUintPtr(uintptr(imm))
	default:
		return value.NewUint64(uint64(imm))
	}
}
