package heap

import "github.com/smoglang/gosl/pkg/value"

// FunctionFlag classifies a Function object (§3.3).
type FunctionFlag uint8

const (
	FlagDefault FunctionFlag = iota
	FlagPackageCtor
	FlagHasDefer
)

// UpvaluePtr describes one upvalue slot a function's closures capture: the
// source function key the slot's name was declared in, the slot index
// within that source function, its type, and whether this slot is itself
// an upvalue of the *parent* (rather than a local of the immediate
// enclosing frame) — the flag CALL/LITERAL use to decide whether to
// forward an existing cell or mint a fresh Open one (§4.4).
type UpvaluePtr struct {
	SourceFunc     Key
	SlotIndex      int
	Type           value.ValueType
	IsUpvalueOfParent bool
}

// Function is the bytecode function object of §3.3: flat instruction
// array, parallel optional source positions, a per-function constant pool,
// upvalue descriptors, stack type tags for locals, and the zero values
// used to seed the stack on call.
type Function struct {
	Code   []Instr
	Pos    []Position // len(Pos) == len(Code); zero Position means "no info"
	Consts []value.Value

	UpPtrs []UpvaluePtr

	// StackTempTypes tags the type of every parameter/receiver/local slot,
	// consulted by variadic packing and by the defer machinery to know how
	// many bytes of the wide vs narrow stack view a slot occupies.
	StackTempTypes []value.ValueType

	RetZeros   []value.Value
	LocalZeros []value.Value

	ParamCount int
	HasRecv    bool

	Flag FunctionFlag

	Name string // for diagnostics only; not part of program semantics
}

// Instr is the fixed-width packed instruction word of §4.3: an opcode,
// three type tags, and a signed 32-bit immediate. Defined here (rather
// than in package bytecode) because Function.Code needs it and bytecode
// depends on heap for the container's object tables — keeping Instr in
// heap avoids a cycle. Package bytecode re-exports the opcode constants
// that operate on it.
type Instr struct {
	Op   uint16
	T0   value.ValueType
	T1   value.ValueType
	T2   value.ValueType
	Imm  int32
	// Payload64 carries a wide operand: a packed metadata/function/package
	// key (LITERAL, MAKE, IMPORT, LOAD_PKG_FIELD, ...) or a store's rhs
	// index. CALL does not read it; the callee is the closure on the stack.
	Payload64 uint64
}

// Position is an optional source position used only for diagnostics (panic
// call-stack printing); never consulted for execution semantics.
type Position struct {
	Line, Col int
	Valid     bool
}

func (f *Function) HasDefer() bool { return f.Flag == FlagHasDefer }

// ZeroLocal returns the zero value to seed local slot i when a frame for f
// is created, per §3.3's local_zeros.
func (f *Function) ZeroLocal(i int) value.Value {
	if i < len(f.LocalZeros) {
		return f.LocalZeros[i].Copy()
	}
	return value.NewNil()
}
