package engine

import (
	"fmt"
	"strings"

	"github.com/smoglang/gosl/pkg/value"
)

// StackFrame is one entry of a captured call-stack trace: which function
// was executing, where within it, and (when position info was compiled
// in) the source location. Diagnostics only — execution never inspects it.
//
// Grounded on kristofer-smog's pkg/vm/errors.go StackFrame, generalized
// from smog's Selector/SourceLine/SourceCol fields to this engine's
// function-name + bytecode-position pair.
type StackFrame struct {
	FuncName string
	PC       int
	Line     int
	Col      int
	HasPos   bool
}

// RuntimeError is an unrecovered panic that propagated past the root
// frame of a fiber: the panic value plus the call stack captured while
// unwinding, innermost frame first.
//
// Grounded on kristofer-smog's pkg/vm/errors.go RuntimeError/Error().
type RuntimeError struct {
	PanicValue value.Value
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "panic: %s", describePanicValue(e.PanicValue))
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for _, frame := range e.StackTrace {
			fmt.Fprintf(&b, "\n  at %s", frame.FuncName)
			if frame.HasPos {
				fmt.Fprintf(&b, " [line %d:%d]", frame.Line, frame.Col)
			}
			fmt.Fprintf(&b, " [pc %d]", frame.PC)
		}
	}
	return b.String()
}

func describePanicValue(v value.Value) string {
	switch v.T {
	case value.String:
		return v.Str().String()
	case value.Int64, value.Int, value.Int32, value.Int16, value.Int8:
		return fmt.Sprintf("%d", v.Int64())
	default:
		return v.T.String()
	}
}
