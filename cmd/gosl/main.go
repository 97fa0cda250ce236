// Command gosl runs and inspects compiled bytecode containers (§6).
//
// Grounded on kristofer-smog's cmd/smog/main.go: same os.Args[1] subcommand
// switch, same os.Open+Decode+run shape for "run", same constant-pool-then-
// instructions layout for "disasm" — trimmed to the two subcommands this
// repo has a pipeline for (no parser/compiler exists here, so "compile" and
// "repl" have nothing to drive) and pointed at engine.Fiber/scheduler.Scheduler
// instead of smog's single vm.VM.
package main

import (
	"fmt"
	"os"

	"github.com/smoglang/gosl/pkg/bytecode"
	"github.com/smoglang/gosl/pkg/engine"
	"github.com/smoglang/gosl/pkg/ffi"
	"github.com/smoglang/gosl/pkg/scheduler"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "disasm", "disassemble":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		disassembleFile(os.Args[2])
	case "version", "-v", "--version":
		fmt.Println("gosl version 0.1.0")
	case "help", "-h", "--help":
		printUsage()
	default:
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("gosl - a register/stack-hybrid bytecode VM")
	fmt.Println("\nUsage:")
	fmt.Println("  gosl [file]            Run a compiled .gosb container")
	fmt.Println("  gosl run [file]        Run a compiled .gosb container")
	fmt.Println("  gosl disasm [file]     Disassemble a .gosb container")
	fmt.Println("  gosl version           Show version")
	fmt.Println("  gosl help              Show this help")
}

func loadContainer(filename string) *bytecode.Container {
	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	c, err := bytecode.Decode(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		os.Exit(1)
	}
	return c
}

// runFile loads a compiled container, wires the demo FFI factory (§6), and
// runs it to completion on a fresh scheduler.
func runFile(filename string) {
	c := loadContainer(filename)
	if c.FFIFactory == nil {
		c.FFIFactory = ffi.NewFactory()
	}

	sched := scheduler.New(engine.Options{})
	root := engine.NewRootFiber(0, c, c.Entry, nil)
	sched.RunRoot(root)

	if len(sched.Errors) > 0 {
		for _, fe := range sched.Errors {
			fmt.Fprintf(os.Stderr, "fiber %d: %v\n", fe.FiberID, fe.Err)
		}
		os.Exit(1)
	}
}
