package main

import (
	"fmt"
	"os"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

// disassembleFile prints every function in a container's object heap: its
// constant pool, then its instruction stream, one opcode per line with
// whatever operand fields that opcode actually uses.
//
// Grounded on kristofer-smog's cmd/smog/main.go disassembleFile/
// formatConstant pair, adapted from smog's single flat Bytecode (one
// constant pool, one instruction stream) to this container's per-Function
// pools, since a container can hold many functions rather than one program.
func disassembleFile(filename string) {
	c := loadContainer(filename)

	fmt.Printf("=== Bytecode Disassembly: %s ===\n", filename)
	for _, fn := range c.Objects.Functions.Entries() {
		fmt.Printf("\nfunc %s (params=%d, locals=%d)\n", fn.Name, fn.ParamCount, len(fn.LocalZeros))

		fmt.Println("  Constants:")
		if len(fn.Consts) == 0 {
			fmt.Println("    (empty)")
		}
		for i, v := range fn.Consts {
			fmt.Printf("    [%d] %s\n", i, formatConstant(v))
		}

		fmt.Println("  Instructions:")
		if len(fn.Code) == 0 {
			fmt.Println("    (empty)")
		}
		for i, instr := range fn.Code {
			op := bytecode.Opcode(instr.Op)
			fmt.Fprintf(os.Stdout, "    %4d: %s%s\n", i, op, formatOperand(op, instr))
		}
	}
}

func formatConstant(v value.Value) string {
	switch v.T {
	case value.Int, value.Int64, value.Int32, value.Int16, value.Int8:
		return fmt.Sprintf("int: %d", v.Int64())
	case value.Float64, value.Float32:
		return fmt.Sprintf("float: %g", v.Float64())
	case value.String:
		return fmt.Sprintf("string: %q", v.Str().String())
	case value.Bool:
		return fmt.Sprintf("bool: %t", v.Bool())
	case value.Nil:
		return "nil"
	default:
		return v.T.String()
	}
}

// formatOperand prints only the operand fields an opcode actually uses,
// matching the teacher's per-opcode operand switch.
func formatOperand(op bytecode.Opcode, instr heap.Instr) string {
	switch op {
	case bytecode.OpCall:
		return fmt.Sprintf(" style=%d args=%d", instr.T0, instr.Imm)
	case bytecode.OpFFI:
		return fmt.Sprintf(" name_const=%d params=%d", instr.Imm, instr.Payload64)
	case bytecode.OpLiteral:
		return fmt.Sprintf(" kind=%s meta=%d elems=%d", instr.T0, instr.Payload64, instr.Imm)
	case bytecode.OpJump, bytecode.OpJumpIf, bytecode.OpJumpIfNot:
		return fmt.Sprintf(" target=%d", instr.Imm)
	case bytecode.OpLoadLocal, bytecode.OpStoreLocal, bytecode.OpLoadUpvalue, bytecode.OpStoreUpvalue:
		return fmt.Sprintf(" slot=%d", instr.Imm)
	case bytecode.OpPushImm:
		return fmt.Sprintf(" type=%s imm=%d", instr.T0, instr.Imm)
	default:
		var parts string
		if instr.Imm != 0 {
			parts += fmt.Sprintf(" imm=%d", instr.Imm)
		}
		if instr.Payload64 != 0 {
			parts += fmt.Sprintf(" payload=%d", instr.Payload64)
		}
		return parts
	}
}
