package value

import "fmt"

// Arithmetic and comparison operate on the operand ValueType carried by the
// instruction, not on a runtime type switch (§4.1). Integer ops wrap
// two's-complement for the named width; float ops follow IEEE-754; shift
// counts are truncated to 32-bit unsigned before application (§4.1, §8.3).

// Add implements ADD. Named values unwrap, operate, and rewrap (§3.1, §9).
func Add(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opAdd)) }
func Sub(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opSub)) }
func Mul(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opMul)) }
func Quo(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opQuo)) }
func Rem(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opRem)) }
func And(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opAnd)) }
func Or(a, b Value) Value  { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opOr)) }
func Xor(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opXor)) }
func AndNot(a, b Value) Value { return a.Rewrap(arith(a.Unwrap(), b.Unwrap(), opAndNot)) }

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opQuo
	opRem
	opAnd
	opOr
	opXor
	opAndNot
)

// ErrDivideByZero is the runtime trap for integer division/remainder by
// zero (§7).
var ErrDivideByZero = fmt.Errorf("division by zero")

func arith(a, b Value, op arithOp) Value {
	if a.T == String {
		if op != opAdd {
			panic(fmt.Sprintf("invalid string operation: %v", op))
		}
		return NewString(a.Str().String() + b.Str().String())
	}
	if isFloat(a.T) {
		x, y := asFloat64(a), asFloat64(b)
		var r float64
		switch op {
		case opAdd:
			r = x + y
		case opSub:
			r = x - y
		case opMul:
			r = x * y
		case opQuo:
			r = x / y
		default:
			panic(fmt.Sprintf("invalid float operation: %v", op))
		}
		return fromFloat64(a.T, r)
	}
	if isComplex(a.T) {
		x, y := a.Complex128(), b.Complex128()
		var r complex128
		switch op {
		case opAdd:
			r = x + y
		case opSub:
			r = x - y
		case opMul:
			r = x * y
		case opQuo:
			r = x / y
		default:
			panic(fmt.Sprintf("invalid complex operation: %v", op))
		}
		if a.T == Complex64 {
			return NewComplex64(complex64(r))
		}
		return NewComplex128(r)
	}
	// integer: wrap two's-complement at the named width.
	if isUnsigned(a.T) {
		x, y := a.N, b.N
		var r uint64
		switch op {
		case opAdd:
			r = x + y
		case opSub:
			r = x - y
		case opMul:
			r = x * y
		case opQuo:
			if y == 0 {
				panic(ErrDivideByZero)
			}
			r = x / y
		case opRem:
			if y == 0 {
				panic(ErrDivideByZero)
			}
			r = x % y
		case opAnd:
			r = x & y
		case opOr:
			r = x | y
		case opXor:
			r = x ^ y
		case opAndNot:
			r = x &^ y
		}
		return Value{T: a.T, N: truncateUnsigned(a.T, r)}
	}
	x, y := int64(a.N), int64(b.N)
	var r int64
	switch op {
	case opAdd:
		r = x + y
	case opSub:
		r = x - y
	case opMul:
		r = x * y
	case opQuo:
		if y == 0 {
			panic(ErrDivideByZero)
		}
		r = x / y
	case opRem:
		if y == 0 {
			panic(ErrDivideByZero)
		}
		r = x % y
	case opAnd:
		r = x & y
	case opOr:
		r = x | y
	case opXor:
		r = x ^ y
	case opAndNot:
		r = x &^ y
	}
	return Value{T: a.T, N: truncateSigned(a.T, r)}
}

// Shl and Shr implement SHL/SHR. t1 is the right-hand operand's type;
// the count is truncated to 32-bit unsigned before application regardless
// of t1's width (§4.1, §8.3: "shift by >= bit width of operand zeroes for
// unsigned, arithmetic-fills for signed right shift").
func Shl(a, b Value) Value {
	u := a.Unwrap()
	shift := uint32(b.N)
	raw := shiftLeftU(u.N, shift, bitWidth(u.T))
	if isUnsigned(u.T) {
		return a.Rewrap(Value{T: u.T, N: truncateUnsigned(u.T, raw)})
	}
	return a.Rewrap(Value{T: u.T, N: truncateSigned(u.T, int64(raw))})
}

func Shr(a, b Value) Value {
	shift := uint32(b.N)
	u := a.Unwrap()
	width := bitWidth(u.T)
	amt := shiftAmount(shift, width)
	if isUnsigned(u.T) {
		if amt >= width {
			return a.Rewrap(Value{T: u.T, N: 0})
		}
		return a.Rewrap(Value{T: u.T, N: truncateUnsigned(u.T, u.N>>amt)})
	}
	signed := signExtend(u.T, int64(u.N))
	if amt >= 63 {
		if signed < 0 {
			return a.Rewrap(Value{T: u.T, N: truncateSigned(u.T, -1)})
		}
		return a.Rewrap(Value{T: u.T, N: 0})
	}
	return a.Rewrap(Value{T: u.T, N: truncateSigned(u.T, signed>>amt)})
}

func shiftAmount(shift uint32, width int) int {
	if int(shift) > width {
		return width
	}
	return int(shift)
}

func shiftLeftU(n uint64, shift uint32, width int) uint64 {
	if int(shift) >= 64 {
		return 0
	}
	return n << shift
}

// UnaryNeg, UnaryXor, Not implement UNARY_SUB, UNARY_XOR, NOT.
func UnaryNeg(a Value) Value {
	u := a.Unwrap()
	switch {
	case isFloat(u.T):
		return a.Rewrap(fromFloat64(u.T, -asFloat64(u)))
	case isComplex(u.T):
		c := -u.Complex128()
		if u.T == Complex64 {
			return a.Rewrap(NewComplex64(complex64(c)))
		}
		return a.Rewrap(NewComplex128(c))
	case isUnsigned(u.T):
		return a.Rewrap(Value{T: u.T, N: truncateUnsigned(u.T, -u.N)})
	default:
		return a.Rewrap(Value{T: u.T, N: truncateSigned(u.T, -int64(u.N))})
	}
}

func UnaryXor(a Value) Value {
	u := a.Unwrap()
	if isUnsigned(u.T) {
		return a.Rewrap(Value{T: u.T, N: truncateUnsigned(u.T, ^u.N)})
	}
	return a.Rewrap(Value{T: u.T, N: truncateSigned(u.T, ^int64(u.N))})
}

func Not(a Value) Value { return NewBool(!a.Bool()) }

// Compare implements LSS/GTR/LEQ/GEQ. String comparison is lexicographic
// over bytes (§4.1).
func Compare(a, b Value) int {
	a, b = a.Unwrap(), b.Unwrap()
	switch {
	case a.T == String:
		x, y := a.Str().String(), b.Str().String()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case isFloat(a.T):
		x, y := asFloat64(a), asFloat64(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case isUnsigned(a.T):
		x, y := a.N, b.N
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	default:
		x, y := signExtend(a.T, int64(a.N)), signExtend(b.T, int64(b.N))
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
}

func isFloat(t ValueType) bool   { return t == Float32 || t == Float64 }
func isComplex(t ValueType) bool { return t == Complex64 || t == Complex128 }
func isUnsigned(t ValueType) bool {
	switch t {
	case Uint8, Uint16, Uint32, Uint64, Uint, UintPtr:
		return true
	default:
		return false
	}
}

func asFloat64(v Value) float64 {
	if v.T == Float32 {
		return float64(v.Float32())
	}
	return v.Float64()
}

func fromFloat64(t ValueType, f float64) Value {
	if t == Float32 {
		return NewFloat32(float32(f))
	}
	return NewFloat64(f)
}

func bitWidth(t ValueType) int {
	switch t {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32:
		return 32
	default:
		return 64
	}
}

func truncateUnsigned(t ValueType, n uint64) uint64 {
	switch bitWidth(t) {
	case 8:
		return n & 0xFF
	case 16:
		return n & 0xFFFF
	case 32:
		return n & 0xFFFFFFFF
	default:
		return n
	}
}

func truncateSigned(t ValueType, n int64) uint64 {
	switch bitWidth(t) {
	case 8:
		return uint64(uint8(n))
	case 16:
		return uint64(uint16(n))
	case 32:
		return uint64(uint32(n))
	default:
		return uint64(n)
	}
}

func signExtend(t ValueType, n int64) int64 {
	switch bitWidth(t) {
	case 8:
		return int64(int8(n))
	case 16:
		return int64(int16(n))
	case 32:
		return int64(int32(n))
	default:
		return n
	}
}
