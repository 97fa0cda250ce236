package engine

import (
	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/frame"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// assertMatches reports whether concrete (an interface's underlying value)
// satisfies the destination tag/meta pair a TYPE_ASSERT or TYPE option
// record names. Named values carry their declared identity in their
// NamedRef's MetaKey; Struct values carry it in their StructRef; every
// other kind is identified by its bare ValueType tag, which is sufficient
// since only Named/Struct types can collide on an otherwise-shared
// ValueType (e.g. two distinct named int types both tag Named).
func assertMatches(concrete value.Value, target value.ValueType, targetMeta uint64) bool {
	switch target {
	case value.Named:
		return concrete.T == value.Named && concrete.R.(value.NamedRef).MetaKey == targetMeta
	case value.Struct:
		return concrete.T == value.Struct && concrete.Struct().MetaKey == targetMeta
	default:
		return concrete.T == target
	}
}

// dispatchTypeAssert implements TYPE_ASSERT (§4.3.12).
func (f *Fiber) dispatchTypeAssert(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	iv := st.Pop()

	var concrete value.Value
	var ok bool
	if iv.Unwrap().T == value.Interface && iv.Unwrap().Iface().Foreign == nil {
		concrete = iv.Unwrap().Iface().Underlying
		ok = assertMatches(concrete, instr.T1, instr.Payload64)
	}

	if !ok {
		if instr.T0 != value.Invalid {
			st.Push(value.NewNil())
			st.Push(value.NewBool(false))
			return StatusRunning
		}
		panic(value.NewString("interface conversion: type assertion failed"))
	}

	st.Push(concrete)
	if instr.T0 != value.Invalid {
		st.Push(value.NewBool(true))
	}
	return StatusRunning
}

// dispatchType implements TYPE, the type-switch helper (§4.3.12): Imm
// option-descriptor pseudo-instructions follow the TYPE word itself, each
// T0-tagged with its target type (value.Invalid marks the `default:`
// option), Payload64-tagged with the target's meta when relevant, and
// Imm-tagged with the local slot the matched value should be bound into
// (-1 for an unbound `case`). Pushes the chosen option's index for the
// compiler's following dispatch table, exactly as SELECT does for its own
// cases.
func (f *Fiber) dispatchType(fr *frame.Frame, fn *heap.Function, instr heap.Instr) Status {
	st := fr.Stack()
	iv := st.Pop()

	isNil := iv.Unwrap().IsNil()
	var concrete value.Value
	if !isNil {
		concrete = iv.Unwrap().Iface().Underlying
	}

	optionCount := int(instr.Imm)
	descStart := fr.PC
	chosen := -1
	defaultIdx := -1

	for i := 0; i < optionCount; i++ {
		opt := fn.Code[descStart+i]
		if opt.T0 == value.Invalid {
			defaultIdx = i
			continue
		}
		if !isNil && assertMatches(concrete, opt.T0, opt.Payload64) {
			chosen = i
			if opt.Imm >= 0 {
				st.Set(fr.StackBase+int(opt.Imm), concrete)
			}
			break
		}
	}

	if chosen < 0 && defaultIdx >= 0 {
		chosen = defaultIdx
		opt := fn.Code[descStart+defaultIdx]
		if opt.Imm >= 0 {
			st.Set(fr.StackBase+int(opt.Imm), iv)
		}
	}

	fr.PC = descStart + optionCount
	st.Push(value.NewInt(chosen))
	return StatusRunning
}

// dispatchBindMethod implements BIND_METHOD (§4.3.13): T0 nonzero means
// the target method wants a pointer receiver but the value on the stack is
// a plain value, so it is boxed into a fresh cell first.
func (f *Fiber) dispatchBindMethod(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	recv := st.Pop()
	if instr.T0 != value.Invalid {
		boxed := recv
		recv = value.NewPointer(value.PointerWhole, value.NewWholeTarget(&boxed))
	}
	st.Push(value.NewClosure(instr.Payload64, &recv, nil))
	return StatusRunning
}

// dispatchBindInterfaceMethod implements BIND_INTERFACE_METHOD (§4.3.13):
// pops the interface value, looks up row Imm of the Payload64-named
// binding table, and resolves it (recursing through promoted/nested
// indirection as needed). A foreign (FFI) interface value has no compiled
// binding table at all — its method set is whatever its ForeignBinding
// enumerates at runtime (§6) — so that case is resolved directly against
// MethodNames()[row] instead of touching Container.Ifaces.
func (f *Fiber) dispatchBindInterfaceMethod(fr *frame.Frame, instr heap.Instr) Status {
	st := fr.Stack()
	ifaceVal := st.Pop().Unwrap()
	row := int(instr.Imm)

	if foreign := ifaceVal.Iface().Foreign; foreign != nil {
		names := foreign.MethodNames()
		if row < 0 || row >= len(names) {
			panic("engine: BIND_INTERFACE_METHOD row out of range for foreign binding")
		}
		st.Push(value.NewFFIClosure(foreign, names[row], 0))
		return StatusRunning
	}

	st.Push(f.resolveInterfaceMethod(int(instr.Payload64), row, ifaceVal))
	return StatusRunning
}

// resolveInterfaceMethod walks one row of binding's Methods table,
// following an embedded-field chain (Embed) for promoted methods and for
// reaching a nested interface-typed field before recursing into its own
// binding table row (assumed, by construction, to share the same row index
// as the outer interface's method — both ultimately enumerate the same
// interface's MethodNames in the same order).
func (f *Fiber) resolveInterfaceMethod(bindingIdx, row int, carrier value.Value) value.Value {
	binding := f.Container.Ifaces[bindingIdx]
	method := binding.Methods[row]
	recv := carrier.Iface().Underlying

	switch method.Kind {
	case bytecode.BindPromoted:
		for _, idx := range method.Embed {
			recv = recv.Struct().Fields[idx]
		}
		return bindReceiver(method, recv)

	case bytecode.BindNestedInterface:
		nested := recv
		for _, idx := range method.Embed {
			nested = nested.Struct().Fields[idx]
		}
		if nested.Unwrap().T != value.Interface {
			panic("engine: BindNestedInterface target field is not an interface value")
		}
		return f.resolveInterfaceMethod(method.Nested, row, nested.Unwrap())

	default: // BindDirect
		return bindReceiver(method, recv)
	}
}

func bindReceiver(method bytecode.MethodBinding, recv value.Value) value.Value {
	if method.Indirect {
		boxed := recv
		recv = value.NewPointer(value.PointerWhole, value.NewWholeTarget(&boxed))
	}
	return value.NewClosure(method.Func.Pack(), &recv, nil)
}
