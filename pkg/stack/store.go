package stack

import "github.com/smoglang/gosl/pkg/value"

// CompoundOp identifies the arithmetic opcode packed into a store's rhs
// index low bits (§4.2: "a non-negative index encodes in-place arithmetic
// with another slot"). These mirror the low-byte subset of the binary
// arithmetic opcodes that the source language allows as compound-assign
// operators (+=, -=, *=, /=, %=, &=, |=, ^=, &^=, <<=, >>=).
type CompoundOp uint8

const (
	CompoundNone CompoundOp = iota
	CompoundAdd
	CompoundSub
	CompoundMul
	CompoundQuo
	CompoundRem
	CompoundAnd
	CompoundOr
	CompoundXor
	CompoundAndNot
	CompoundShl
	CompoundShr
)

// rhsOpBits/rhsOpMask pack a slot index and a CompoundOp into one signed
// int, the "rhs_index" spec.md §4.2 describes.
const rhsOpBits = 4
const rhsOpMask = (1 << rhsOpBits) - 1

// EncodeCompoundRHS packs a source slot index and a compound op into the
// rhs-index encoding STORE_LOCAL/STORE_UPVALUE/etc. carry. A plain store
// (no fused op) is encoded as the negative sentinel DirectStore.
func EncodeCompoundRHS(slot int, op CompoundOp) int {
	return (slot << rhsOpBits) | int(op)
}

func decodeCompoundRHS(rhs int) (slot int, op CompoundOp) {
	return rhs >> rhsOpBits, CompoundOp(rhs & rhsOpMask)
}

// DirectStore is the sentinel rhs-index meaning "the value to store is
// already sitting on top of the operand stack" — a plain, non-fused store.
const DirectStore = -1

func apply(op CompoundOp, target, rhs value.Value) value.Value {
	switch op {
	case CompoundAdd:
		return value.Add(target, rhs)
	case CompoundSub:
		return value.Sub(target, rhs)
	case CompoundMul:
		return value.Mul(target, rhs)
	case CompoundQuo:
		return value.Quo(target, rhs)
	case CompoundRem:
		return value.Rem(target, rhs)
	case CompoundAnd:
		return value.And(target, rhs)
	case CompoundOr:
		return value.Or(target, rhs)
	case CompoundXor:
		return value.Xor(target, rhs)
	case CompoundAndNot:
		return value.AndNot(target, rhs)
	case CompoundShl:
		return value.Shl(target, rhs)
	case CompoundShr:
		return value.Shr(target, rhs)
	default:
		return rhs
	}
}

// StoreVal implements §4.2's typed, rhs-index-dispatching store: with
// DirectStore it pops the operand stack's top value and writes it (through
// copy_semantic) into target; with a non-negative rhs it reads the operand
// named by the packed slot (an absolute stack index) and the target's
// current value, applies the packed CompoundOp, and writes the result back
// — fusing a compound assignment into the single store instruction instead
// of requiring a separate load+op+store sequence (§9 design note: this
// fusion is an optimization, not a semantic requirement).
func (s *Stack) StoreVal(targetIndex int, rhs int) value.Value {
	if rhs == DirectStore {
		v := s.Pop().Copy()
		s.Set(targetIndex, v)
		return v
	}
	slot, op := decodeCompoundRHS(rhs)
	rhsVal := s.Get(slot)
	result := apply(op, s.Get(targetIndex), rhsVal)
	s.Set(targetIndex, result)
	return result
}
