package engine

// DefaultQuantum is the instruction count a fiber runs per scheduling turn
// (§4.8) when Options.Quantum is left zero.
const DefaultQuantum = 1024

// Options configures a Scheduler's ambient behavior (§8.3): quantum size,
// trace logging, and a fiber-count ceiling, all constructed in Go by the
// embedder rather than read from a file — this engine is a library plus a
// thin demo CLI, not a service, the same way kristofer-smog's vm.New()
// takes no config and callers mutate fields/call EnableDebugger()
// afterward (pkg/vm/vm.go:138-152, pkg/vm/vm.go:2293-2302).
type Options struct {
	// Quantum is the bounded instruction count a fiber runs per scheduling
	// turn before yielding (§4.8). Zero means DefaultQuantum.
	Quantum int

	// Trace, when true, makes the scheduler emit one line per scheduling
	// decision (spawn, finish, panic) via internal/gruntime (§8.1).
	Trace bool

	// MaxFibers caps how many fibers a single run may ever spawn,
	// including the root. Zero means unlimited. Exceeding it panics the
	// spawning fiber rather than growing the run queue without bound.
	MaxFibers int
}
