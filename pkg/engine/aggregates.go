package engine

import (
	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// dispatchAggregate implements §4.3.3's indexed/field/package-member
// access family and the two slicing opcodes.
func (f *Fiber) dispatchAggregate(fr *frame.Frame, fn *heap.Function, instr heap.Instr, op bytecode.Opcode) Status {
	st := fr.Stack()
	metas := f.Container.Objects.Metas

	switch op {
	case bytecode.OpLoadIndex:
		idx := st.Pop()
		c := st.Pop()
		v, ok := indexGet(c, idx)
		st.Push(v)
		if instr.T0 != value.Invalid {
			st.Push(value.NewBool(ok))
		}

	case bytecode.OpLoadIndexImm:
		c := st.Pop()
		v, _ := indexGet(c, value.NewInt(int(instr.Imm)))
		st.Push(v)

	case bytecode.OpStoreIndex:
		v := st.Pop()
		idx := st.Pop()
		c := st.Pop()
		indexSet(c, idx, v)

	case bytecode.OpStoreIndexImm:
		v := st.Pop()
		c := st.Pop()
		indexSet(c, value.NewInt(int(instr.Imm)), v)

	case bytecode.OpLoadField:
		c := st.Pop()
		name := fn.Consts[instr.Imm].Str().String()
		s := c.Struct()
		meta, _ := metas.Get(heap.Unpack(s.MetaKey))
		i, _ := meta.FieldIndex(name)
		st.Push(s.Fields[i].Copy())

	case bytecode.OpLoadStructField:
		c := st.Pop()
		st.Push(c.Struct().Fields[instr.Imm].Copy())

	case bytecode.OpLoadPkgField:
		pkg := f.Container.Objects.Packages.MustGet(heap.Unpack(instr.Payload64))
		st.Push(pkg.Get(int(instr.Imm)).Copy())

	case bytecode.OpStoreField:
		v := st.Pop()
		c := st.Pop()
		name := fn.Consts[instr.Imm].Str().String()
		s := c.Struct()
		meta, _ := metas.Get(heap.Unpack(s.MetaKey))
		i, _ := meta.FieldIndex(name)
		s.Fields[i] = v.Copy()

	case bytecode.OpStoreStructField:
		v := st.Pop()
		c := st.Pop()
		c.Struct().Fields[instr.Imm] = v.Copy()

	case bytecode.OpStorePkgField:
		v := st.Pop()
		pkg := f.Container.Objects.Packages.MustGet(heap.Unpack(instr.Payload64))
		pkg.Set(int(instr.Imm), v)

	case bytecode.OpLoadPkgInit:
		return f.runPackageInit(fr, instr)

	case bytecode.OpRefSliceMember:
		c := st.Pop()
		target := value.NewSliceElemTarget(c.Slc(), int(instr.Imm))
		st.Push(value.NewPointer(value.PointerSliceElem, target))

	case bytecode.OpRefStructField:
		c := st.Pop()
		target := value.NewStructFieldTarget(c.Struct(), int(instr.Imm))
		st.Push(value.NewPointer(value.PointerStructField, target))

	case bytecode.OpRefPkgMember:
		pkg := f.Container.Objects.Packages.MustGet(heap.Unpack(instr.Payload64))
		target := heap.NewPackageMemberTarget(pkg, int(instr.Imm))
		st.Push(value.NewPointer(value.PointerPkgMember, target))

	case bytecode.OpRefLiteral:
		zero := heap.ZeroOf(instr.T0, heap.Unpack(instr.Payload64), metas)
		cell := &zero
		st.Push(value.NewPointer(value.PointerWhole, value.NewWholeTarget(cell)))

	case bytecode.OpSliceExpr:
		end := st.Pop()
		begin := st.Pop()
		c := st.Pop()
		resliced := c.Slc().Reslice(begin.Int(), end.Int(), -1)
		st.Push(value.Value{T: value.Slice, R: resliced})

	case bytecode.OpSliceFull:
		capV := st.Pop()
		end := st.Pop()
		begin := st.Pop()
		c := st.Pop()
		resliced := c.Slc().Reslice(begin.Int(), end.Int(), capV.Int())
		st.Push(value.Value{T: value.Slice, R: resliced})
	}

	return StatusRunning
}

// indexGet implements container[index] for the four indexable kinds
// (slice, array, map, string; §4.1). String indexing yields a byte, matching Go's s[i] rule.
func indexGet(c, idx value.Value) (value.Value, bool) {
	switch c.Unwrap().T {
	case value.Slice:
		return c.Unwrap().Slc().Get(idx.Int()).Copy(), true
	case value.Array:
		return c.Unwrap().Arr().Get(idx.Int()).Copy(), true
	case value.Map:
		return c.Unwrap().Mp().Get(idx)
	case value.String:
		s := c.Unwrap().Str().String()
		return value.NewUint8(s[idx.Int()]), true
	default:
		panic("engine: index on non-indexable value")
	}
}

func indexSet(c, idx, v value.Value) {
	switch c.Unwrap().T {
	case value.Slice:
		c.Unwrap().Slc().Set(idx.Int(), v)
	case value.Array:
		c.Unwrap().Arr().Set(idx.Int(), v)
	case value.Map:
		c.Unwrap().Mp().Set(idx, v)
	default:
		panic("engine: index-store on non-indexable value")
	}
}

// runPackageInit implements LOAD_PKG_INIT (§3.4, §11): lazily runs a
// package's initializer closures to completion before any of its members
// are read, then pushes true once done (IMPORT's side-effect-only form
// shares the same laziness through ensurePackageInited but pushes
// nothing).
func (f *Fiber) runPackageInit(fr *frame.Frame, instr heap.Instr) Status {
	pkg := f.Container.Objects.Packages.MustGet(heap.Unpack(instr.Payload64))
	f.ensurePackageInited(pkg)
	fr.Stack().Push(value.NewBool(true))
	return StatusRunning
}

// ensurePackageInited runs pkg's initializer closures to completion if it
// hasn't already (§3.4). Each initializer writes its assigned members back
// via the package-init RETURN variant (handleReturn), located through
// initTargets — a small per-fiber stack threading "which package is this
// constructor for" down to the matching RETURN without needing the closure
// itself to carry it.
func (f *Fiber) ensurePackageInited(pkg *heap.Package) {
	if pkg.Inited() {
		return
	}
	for len(pkg.InitFuncs) > 0 {
		ctor := pkg.InitFuncs[0]
		pkg.InitFuncs = pkg.InitFuncs[1:]
		f.initTargets = append(f.initTargets, pkg)
		childFr := f.pushCallFrame(ctor, nil, -1, -1)
		f.runFrameToCompletion(childFr)
		f.initTargets = f.initTargets[:len(f.initTargets)-1]
	}
	// A package whose only initializers are side-effecting init() funcs
	// (no var initializer ever ran the ReturnPackageInit variant) never
	// clears VarMapping on its own; do it here.
	pkg.VarMapping = nil
}

// dispatchCast implements CAST (§4.3.4): convert the operand per T0
// (source)/T1 (destination) and, when converting to an interface,
// box it with the binding table row named by Payload64.
func (f *Fiber) dispatchCast(fr *frame.Frame, fn *heap.Function, instr heap.Instr) Status {
	st := fr.Stack()
	v := st.Pop()

	if instr.T1 == value.Interface {
		idx := int(instr.Payload64)
		binding := f.Container.Ifaces[idx]
		st.Push(value.NewInterface(v, binding.InterfaceMeta.Pack(), idx))
		return StatusRunning
	}

	if instr.T1 == value.Named {
		st.Push(value.NewNamed(instr.Payload64, castScalar(v, instr.T0, instr.T2)))
		return StatusRunning
	}

	st.Push(castScalar(v.Unwrap(), instr.T1, instr.T2))
	return StatusRunning
}

// castScalar converts a primitive-copyable value between numeric kinds.
// signedness (T2) nonzero marks the source as unsigned when converting
// into a float, disambiguating the zero-extend vs sign-extend widening
// path a bare bit pattern can't otherwise tell apart.
func castScalar(v value.Value, dst value.ValueType, signedness value.ValueType) value.Value {
	switch dst {
	case value.Float32, value.Float64:
		var f float64
		switch {
		case v.T == value.Float32:
			f = float64(v.Float32())
		case v.T == value.Float64:
			f = v.Float64()
		case signedness != value.Invalid:
			f = float64(v.Uint64())
		default:
			f = float64(v.Int64())
		}
		if dst == value.Float32 {
			return value.NewFloat32(float32(f))
		}
		return value.NewFloat64(f)
	case value.String:
		return v
	case value.Int8:
		return value.NewInt8(int8(asNumericInt(v)))
	case value.Int16:
		return value.NewInt16(int16(asNumericInt(v)))
	case value.Int32:
		return value.NewInt32(int32(asNumericInt(v)))
	case value.Int64:
		return value.NewInt64(asNumericInt(v))
	case value.Int:
		return value.NewInt(int(asNumericInt(v)))
	case value.Uint8:
		return value.NewUint8(uint8(asNumericUint(v)))
	case value.Uint16:
		return value.NewUint16(uint16(asNumericUint(v)))
	case value.Uint32:
		return value.NewUint32(uint32(asNumericUint(v)))
	case value.Uint64:
		return value.NewUint64(asNumericUint(v))
	case value.Uint:
		return value.NewUint(uint(asNumericUint(v)))
	case value.UintPtr:
		return value.NewUintPtr(uintptr(asNumericUint(v)))
	default:
		return v
	}
}

func asNumericInt(v value.Value) int64 {
	switch v.T {
	case value.Float32:
		return int64(v.Float32())
	case value.Float64:
		return int64(v.Float64())
	default:
		return v.Int64()
	}
}

func asNumericUint(v value.Value) uint64 {
	switch v.T {
	case value.Float32:
		return uint64(v.Float32())
	case value.Float64:
		return uint64(v.Float64())
	default:
		return v.Uint64()
	}
}
