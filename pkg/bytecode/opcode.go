// Package bytecode defines the instruction encoding and the persisted
// bytecode container of spec.md §4.3 and §6.
//
// Grounded directly on kristofer-smog's pkg/bytecode/bytecode.go (the
// Opcode iota block, one doc comment per opcode, and the String() switch)
// for the Go idiom, generalized from smog's ~20 message-send opcodes to
// the spec's instruction set, and on original_source/vm/src/vm.rs's
// Opcode::* match arms for exact per-opcode semantics.
package bytecode

import "github.com/smoglang/gosl/pkg/heap"

// Opcode identifies the operation an Instruction performs. Each
// Instruction is decoded as (opcode, t0, t1, t2, immediate); opcodes that
// merely vary in style rather than in shape (e.g. a normal call vs a
// goroutine spawn vs a deferred call) share one Opcode and are
// distinguished by T0, the same way the spec's own CAST instruction packs
// its source/destination types into t0/t1/t2 rather than minting a new
// opcode per type pair.
type Opcode uint16

const (
	// === Constants & pushes (§4.3.1) ===

	// OpPushConst pushes Consts[Imm] onto the stack.
	OpPushConst Opcode = iota
	// OpPushNil pushes the untyped nil.
	OpPushNil
	// OpPushTrue pushes boolean true.
	OpPushTrue
	// OpPushFalse pushes boolean false.
	OpPushFalse
	// OpPushImm sign-extends Imm as a T0-typed integer and pushes it.
	OpPushImm
	// OpPushZeroValue pushes the zero value of the metadata named by
	// Payload64.
	OpPushZeroValue
	// OpPop discards Imm values from the top of the stack.
	OpPop
	// OpDup duplicates the top of the stack.
	OpDup

	// === Local & upvalue access (§4.3.2) ===

	// OpLoadLocal pushes locals[Imm] (absolute: stack_base+Imm).
	OpLoadLocal
	// OpStoreLocal stores into locals[Imm]. Payload64 carries the signed
	// rhs-index StoreVal dispatches on: stack.DirectStore for a plain
	// store, or a packed (slot, CompoundOp) pair fusing a compound
	// assignment (+=, &^=, ...) into the same instruction.
	OpStoreLocal
	// OpLoadUpvalue pushes the value behind upvalue slot Imm of the
	// executing closure.
	OpLoadUpvalue
	// OpStoreUpvalue stores into upvalue slot Imm.
	OpStoreUpvalue
	// OpRefLocal produces a Pointer value referencing local slot Imm.
	OpRefLocal
	// OpRefUpvalue produces a Pointer value referencing upvalue slot Imm.
	OpRefUpvalue
	// OpDeref loads through the Pointer on top of the stack.
	OpDeref
	// OpStoreDeref pops a value (top of stack), then the Pointer beneath it,
	// and stores the value through the Pointer.
	OpStoreDeref

	// === Aggregate access (§4.3.3) ===

	// OpLoadIndex pops (container, index) and pushes container[index].
	// T0 selects comma-ok form (pushes a second bool result) when nonzero.
	OpLoadIndex
	// OpLoadIndexImm pops container and indexes by the immediate Imm.
	OpLoadIndexImm
	// OpStoreIndex pops (container, index, value) and stores value at
	// container[index].
	OpStoreIndex
	// OpStoreIndexImm pops (container, value) and stores at container[Imm].
	OpStoreIndexImm
	// OpLoadField pops a struct and pushes the field named by the
	// constant-pool string at Imm, resolved by metadata field-name lookup.
	OpLoadField
	// OpLoadStructField pops a struct and pushes field index Imm directly
	// (compiler already resolved the name to a slot).
	OpLoadStructField
	// OpLoadPkgField pushes the member at index Imm of the package whose
	// key is Payload64.
	OpLoadPkgField
	// OpStoreField is the named-field counterpart of OpLoadField.
	OpStoreField
	// OpStoreStructField is the slot-indexed counterpart of OpLoadStructField.
	OpStoreStructField
	// OpStorePkgField stores into a package member slot.
	OpStorePkgField
	// OpLoadPkgInit checks/drives lazy package initialization (§3.4,
	// SPEC_FULL.md §11): pushes true if the package named by Payload64 has
	// already completed init, running its InitFuncs first if not.
	OpLoadPkgInit
	// OpRefSliceMember produces a Pointer to slice element Imm.
	OpRefSliceMember
	// OpRefStructField produces a Pointer to struct field Imm.
	OpRefStructField
	// OpRefPkgMember produces a Pointer to a package member slot.
	OpRefPkgMember
	// OpRefLiteral produces a Pointer to a freshly NEW'd zero value.
	OpRefLiteral
	// OpSliceExpr implements two-index slicing s[begin:end].
	OpSliceExpr
	// OpSliceFull implements three-index slicing s[begin:end:cap].
	OpSliceFull

	// === Typed casts (§4.3.4) ===

	// OpCast converts the top-of-stack value per T0 (source)/T1
	// (destination)/T2 (extra, e.g. signedness) and Payload64 (interface
	// binding-table index, when casting to an interface).
	OpCast

	// === Arithmetic, logical, shift, compare (§4.1, §4.3.5) ===

	OpAdd
	OpSub
	OpMul
	OpQuo
	OpRem
	OpAnd
	OpOr
	OpXor
	OpAndNot
	OpShl
	OpShr
	OpUnaryAdd
	OpUnarySub
	OpUnaryXor
	OpNot
	OpEql
	OpLss
	OpGtr
	OpNeq
	OpLeq
	OpGeq

	// === Control flow (§4.3.6) ===

	// OpJump unconditionally sets pc += Imm.
	OpJump
	// OpJumpIf pops a bool; jumps by Imm if true.
	OpJumpIf
	// OpJumpIfNot pops a bool; jumps by Imm if false.
	OpJumpIfNot
	// OpShortCircuitOr peeks the top bool; if true, jumps by Imm leaving
	// the decisive operand on the stack, else pops and continues.
	OpShortCircuitOr
	// OpShortCircuitAnd is OpShortCircuitOr's && counterpart.
	OpShortCircuitAnd
	// OpSwitch pops (tag, case); on a match it jumps by Imm with both
	// consumed, else it pushes tag back and falls through.
	OpSwitch
	// OpRangeInit pops the ranged-over value (map/slice/string) and pushes
	// internal iteration state.
	OpRangeInit
	// OpRange advances the iteration state pushed by OpRangeInit, pushing
	// the next (key, value) pair and a continue/stop flag.
	OpRange

	// === Calls (§4.3.7) ===

	// OpPreCall reserves Imm return slots by pushing Imm nil values. It does
	// not pop a closure, push a receiver, or stage a frame: the closure and
	// the arguments are pushed after it, and OpCall consumes them.
	OpPreCall
	// OpCall pops Imm arguments and then the closure beneath them, and
	// dispatches per call style. T0 selects the call style: 0 =
	// Default (push frame and continue the loop there), 1 = Goroutine
	// (spawn a new fiber with the argument slice and continue the current
	// frame), 2 = Deferred (record a DeferredCall on the current frame
	// instead of calling now).
	OpCall

	// === Returns (§4.3.8) ===

	// OpReturn unwinds the current frame. T0 selects the variant: 0 =
	// normal, 1 = package-init (binds trailing stack values into the
	// package's vars via VarMapping), 2 = defer-aware. Every variant drains
	// the frame's DeferStack (LIFO) before the frame returns, running each
	// deferred call to completion in turn; the instruction is not re-executed
	// per deferred call, so variant 2 behaves exactly like variant 0.
	OpReturn

	// === Concurrency (§4.3.9) ===

	// OpSend pops (channel, value) and sends, suspending if full.
	OpSend
	// OpRecv pops a channel and pushes the received value; T0 nonzero also
	// pushes an ok bool.
	OpRecv
	// OpSelect is followed by Imm case-descriptor words (T0 holds each
	// case's CaseKind); a default arm is a CaseDefault descriptor. It pushes
	// the chosen case's received value(s), if any, then the chosen case
	// index. It does not jump to the chosen case, and Payload64 is unused.
	OpSelect
	// OpClose pops a channel and closes it.
	OpClose

	// === Dynamic construction (§4.3.10) ===

	// OpLiteral pops Imm stack arguments (Imm key/value pairs for a map) and
	// constructs a composite (slice/array/map/struct/closure) described by
	// the metadata or function key in Payload64.
	OpLiteral
	// OpNew allocates a zeroed boxed value of the metadata named by
	// Payload64 and pushes a Pointer to it.
	OpNew
	// OpMake constructs a slice/map/channel per T0, consuming len/cap/cap
	// arguments already on the stack.
	OpMake

	// === Built-ins (§4.3.11) ===

	OpLen
	OpCap
	// OpAppend appends; T0 selects the string-as-bytes / variadic-packing
	// variant.
	OpAppend
	// OpCopy copies slice-to-slice or string-to-[]byte.
	OpCopy
	OpDelete
	OpComplex
	OpReal
	OpImag
	OpPanic
	OpRecover
	OpAssert
	// OpFFI resolves a foreign object by name (Imm indexes the function's
	// Consts table for the name string) and boxes it as an interface value.
	// Payload64 gives the count of construction-argument values already on
	// the stack (pushed in source order, popped here before the name
	// lookup), matching FFIFactory.CreateByName's params parameter (§6).
	OpFFI
	OpImport

	// === Type introspection (§4.3.12) ===

	// OpTypeAssert pops an interface and asserts it holds the metadata
	// named by Payload64. T0 nonzero selects the "try" form (pushes ok
	// instead of panicking).
	OpTypeAssert
	// OpType is the type-switch helper: pops an interface, matches it
	// against Imm subsequent option records, and writes the bound value
	// into the labeled slot of whichever option matched.
	OpType

	// === Interface binding (§4.3.13) ===

	// OpBindMethod produces a closure binding T0's receiver to the static
	// method named by Payload64.
	OpBindMethod
	// OpBindInterfaceMethod selects row Imm of the interface binding table
	// Payload64 indexes into, recursing into another interface or building
	// a bound closure, adjusting receiver indirection as the method
	// demands.
	OpBindInterfaceMethod

	opcodeCount
)

var opcodeNames = [...]string{
	OpPushConst: "PUSH_CONST", OpPushNil: "PUSH_NIL", OpPushTrue: "PUSH_TRUE",
	OpPushFalse: "PUSH_FALSE", OpPushImm: "PUSH_IMM", OpPushZeroValue: "PUSH_ZERO_VALUE",
	OpPop: "POP", OpDup: "DUP",
	OpLoadLocal: "LOAD_LOCAL", OpStoreLocal: "STORE_LOCAL",
	OpLoadUpvalue: "LOAD_UPVALUE", OpStoreUpvalue: "STORE_UPVALUE",
	OpRefLocal: "REF_LOCAL", OpRefUpvalue: "REF_UPVALUE",
	OpDeref: "DEREF", OpStoreDeref: "STORE_DEREF",
	OpLoadIndex: "LOAD_INDEX", OpLoadIndexImm: "LOAD_INDEX_IMM",
	OpStoreIndex: "STORE_INDEX", OpStoreIndexImm: "STORE_INDEX_IMM",
	OpLoadField: "LOAD_FIELD", OpLoadStructField: "LOAD_STRUCT_FIELD",
	OpLoadPkgField: "LOAD_PKG_FIELD", OpStoreField: "STORE_FIELD",
	OpStoreStructField: "STORE_STRUCT_FIELD", OpStorePkgField: "STORE_PKG_FIELD",
	OpLoadPkgInit: "LOAD_PKG_INIT",
	OpRefSliceMember: "REF_SLICE_MEMBER", OpRefStructField: "REF_STRUCT_FIELD",
	OpRefPkgMember: "REF_PKG_MEMBER", OpRefLiteral: "REF_LITERAL",
	OpSliceExpr: "SLICE", OpSliceFull: "SLICE_FULL",
	OpCast: "CAST",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpQuo: "QUO", OpRem: "REM",
	OpAnd: "AND", OpOr: "OR", OpXor: "XOR", OpAndNot: "AND_NOT",
	OpShl: "SHL", OpShr: "SHR",
	OpUnaryAdd: "UNARY_ADD", OpUnarySub: "UNARY_SUB", OpUnaryXor: "UNARY_XOR", OpNot: "NOT",
	OpEql: "EQL", OpLss: "LSS", OpGtr: "GTR", OpNeq: "NEQ", OpLeq: "LEQ", OpGeq: "GEQ",
	OpJump: "JUMP", OpJumpIf: "JUMP_IF", OpJumpIfNot: "JUMP_IF_NOT",
	OpShortCircuitOr: "SHORT_CIRCUIT_OR", OpShortCircuitAnd: "SHORT_CIRCUIT_AND",
	OpSwitch: "SWITCH", OpRangeInit: "RANGE_INIT", OpRange: "RANGE",
	OpPreCall: "PRE_CALL", OpCall: "CALL", OpReturn: "RETURN",
	OpSend: "SEND", OpRecv: "RECV", OpSelect: "SELECT", OpClose: "CLOSE",
	OpLiteral: "LITERAL", OpNew: "NEW", OpMake: "MAKE",
	OpLen: "LEN", OpCap: "CAP", OpAppend: "APPEND", OpCopy: "COPY", OpDelete: "DELETE",
	OpComplex: "COMPLEX", OpReal: "REAL", OpImag: "IMAG",
	OpPanic: "PANIC", OpRecover: "RECOVER", OpAssert: "ASSERT",
	OpFFI: "FFI", OpImport: "IMPORT",
	OpTypeAssert: "TYPE_ASSERT", OpType: "TYPE",
	OpBindMethod: "BIND_METHOD", OpBindInterfaceMethod: "BIND_INTERFACE_METHOD",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN_OPCODE"
}

// CallStyle is the T0 discriminant OpCall reads (§4.3.7).
type CallStyle uint8

const (
	CallDefault CallStyle = iota
	CallGoroutine
	CallDeferred
)

// ReturnVariant is the T0 discriminant OpReturn reads (§4.3.8).
type ReturnVariant uint8

const (
	ReturnNormal ReturnVariant = iota
	ReturnPackageInit
	ReturnDeferAware
)

// CaseKind tags one OpSelect case descriptor (§4.7).
type CaseKind uint8

const (
	CaseSend CaseKind = iota
	CaseRecv
	CaseRecvValue
	CaseRecvValueOk
	CaseDefault
)

// Instruction is a convenience alias: the fixed-width packed word itself
// lives in package heap as heap.Instr (so heap.Function.Code doesn't
// require importing this package, avoiding a cycle); bytecode only adds
// the named Opcode constants that operate on its Op field.
type Instruction = heap.Instr
