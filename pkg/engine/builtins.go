package engine

import (
	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// dispatchBuiltin implements §4.3.11's built-in function family.
func (f *Fiber) dispatchBuiltin(fr *frame.Frame, fn *heap.Function, instr heap.Instr, op bytecode.Opcode) Status {
	st := fr.Stack()

	switch op {
	case bytecode.OpLen:
		st.Push(value.NewInt(builtinLen(st.Pop())))

	case bytecode.OpCap:
		st.Push(value.NewInt(builtinCap(st.Pop())))

	case bytecode.OpAppend:
		if instr.T0 == value.String {
			sv := st.Pop()
			dst := st.Pop()
			s := sv.Str().String()
			bytes := make([]value.Value, len(s))
			for i := 0; i < len(s); i++ {
				bytes[i] = value.NewUint8(s[i])
			}
			st.Push(appendTo(dst, bytes))
			break
		}
		elems := st.PopN(int(instr.Imm))
		dst := st.Pop()
		st.Push(appendTo(dst, elems))

	case bytecode.OpCopy:
		src := st.Pop()
		dst := st.Pop()
		st.Push(value.NewInt(builtinCopy(dst, src)))

	case bytecode.OpDelete:
		key := st.Pop()
		m := st.Pop()
		m.Unwrap().Mp().Delete(key)

	case bytecode.OpComplex:
		imagV := st.Pop()
		realV := st.Pop()
		if instr.T0 == value.Float32 {
			st.Push(value.NewComplex64(complex(realV.Float32(), imagV.Float32())))
		} else {
			st.Push(value.NewComplex128(complex(realV.Float64(), imagV.Float64())))
		}

	case bytecode.OpReal:
		c := st.Pop()
		if c.T == value.Complex64 {
			st.Push(value.NewFloat32(real(c.Complex64())))
		} else {
			st.Push(value.NewFloat64(real(c.Complex128())))
		}

	case bytecode.OpImag:
		c := st.Pop()
		if c.T == value.Complex64 {
			st.Push(value.NewFloat32(imag(c.Complex64())))
		} else {
			st.Push(value.NewFloat64(imag(c.Complex128())))
		}

	case bytecode.OpPanic:
		panic(st.Pop())

	case bytecode.OpRecover:
		if f.panicking != nil {
			v := f.panicking.value
			f.panicking.recovered = true
			f.panicking = nil
			st.Push(v)
		} else {
			st.Push(value.NewNil())
		}

	case bytecode.OpAssert:
		cond := st.Pop()
		if !cond.Bool() {
			msg := "assertion failed"
			if instr.Imm >= 0 && int(instr.Imm) < len(fn.Consts) {
				msg = fn.Consts[instr.Imm].Str().String()
			}
			panic(value.NewString(msg))
		}

	case bytecode.OpFFI:
		name := fn.Consts[instr.Imm].Str().String()
		params := st.PopN(int(instr.Payload64))
		if f.Container.FFIFactory == nil {
			panic(value.NewString("engine: FFI used with no factory installed"))
		}
		obj, err := f.Container.FFIFactory.CreateByName(name, params)
		if err != nil {
			panic(value.NewString(err.Error()))
		}
		st.Push(value.NewForeignInterface(obj))

	case bytecode.OpImport:
		pkg := f.Container.Objects.Packages.MustGet(heap.Unpack(instr.Payload64))
		f.ensurePackageInited(pkg)
	}

	return StatusRunning
}

func builtinLen(c value.Value) int {
	u := c.Unwrap()
	switch u.T {
	case value.Slice:
		return u.Slc().Len()
	case value.Array:
		return u.Arr().Len()
	case value.Map:
		return u.Mp().Len()
	case value.String:
		return u.Str().Len()
	case value.Channel:
		return u.Chan().Impl.Len()
	case value.Nil:
		return 0
	default:
		panic("engine: len of non-sized value")
	}
}

func builtinCap(c value.Value) int {
	u := c.Unwrap()
	switch u.T {
	case value.Slice:
		return u.Slc().Cap()
	case value.Array:
		return u.Arr().Len()
	case value.Channel:
		return u.Chan().Impl.Cap()
	case value.Nil:
		return 0
	default:
		panic("engine: cap of non-capacity-bearing value")
	}
}

func appendTo(dst value.Value, elems []value.Value) value.Value {
	u := dst.Unwrap()
	base := u
	if u.IsNil() {
		base = value.MakeSlice(0, 0, value.NewNil())
	}
	resliced := base.Slc().Append(elems...)
	return dst.Rewrap(value.Value{T: value.Slice, R: resliced})
}

// builtinCopy copies min(len(dst), len(src)) elements from src into dst,
// returning the count copied (Go's copy builtin's own return value).
func builtinCopy(dst, src value.Value) int {
	dstSlc := dst.Unwrap().Slc()
	if src.Unwrap().T == value.String {
		s := src.Unwrap().Str().String()
		n := dstSlc.Len()
		if len(s) < n {
			n = len(s)
		}
		for i := 0; i < n; i++ {
			dstSlc.Set(i, value.NewUint8(s[i]))
		}
		return n
	}
	srcSlc := src.Unwrap().Slc()
	n := dstSlc.Len()
	if srcSlc.Len() < n {
		n = srcSlc.Len()
	}
	for i := 0; i < n; i++ {
		dstSlc.Set(i, srcSlc.Get(i).Copy())
	}
	return n
}
