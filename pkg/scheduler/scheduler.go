// Package scheduler implements the single-threaded cooperative fiber
// executor of spec.md §4.8: a run queue of fibers, each given a bounded
// instruction quantum before yielding back to the executor, with blocked
// fibers re-tried on their next turn rather than ever being preempted.
//
// Grounded on original_source/vm/src/vm.rs's Fiber/spawn_fiber/quantum-based
// loop (vm.rs:260-330) for the scheduling algorithm itself; no repo in the
// pack schedules concurrent tasks (smog and the rest of the corpus are
// single-call-stack interpreters), so the Go idiom — a plain slice-backed
// FIFO queue mutated by explicit control flow, no goroutines or channels of
// its own — follows kristofer-smog's general preference for small concrete
// structs with explicit methods over anything fancier (see
// pkg/bytecode.Container, pkg/vm.VM).
package scheduler

import (
	"fmt"

	"github.com/smoglang/gosl/internal/gruntime"
	"github.com/smoglang/gosl/pkg/engine"
)

// Scheduler runs a queue of fibers to completion, each for at most the
// configured quantum of instructions per turn, looping until every fiber
// has finished or panicked. It is not safe for concurrent use from
// multiple goroutines — the whole point of §4.8 is that only one fiber's
// instructions ever execute at a time.
type Scheduler struct {
	queue  []*engine.Fiber
	nextID uint64

	opts  engine.Options
	trace gruntime.Logger

	// Errors accumulates every fiber that finished with an unrecovered
	// panic, in the order they finished; Run's caller inspects this once
	// the whole program is done.
	Errors []*FiberError
}

// FiberError pairs a panicked fiber's id with its RuntimeError.
type FiberError struct {
	FiberID uint64
	Err     *engine.RuntimeError
}

// New creates an empty scheduler configured by opts (§8.3): quantum size,
// trace logging, and the fiber-count ceiling are all set here by the
// embedder, the zero Options value giving the engine's defaults (quantum
// 1024, no tracing, unlimited fibers).
func New(opts engine.Options) *Scheduler {
	return &Scheduler{opts: opts, trace: gruntime.Logger{Enabled: opts.Trace}}
}

// Spawn implements engine.Spawner: assigns the fiber a fresh id and
// enqueues it. A newly spawned fiber does not run immediately — it joins
// the back of the queue behind whatever is already running, so the fiber
// that spawned it keeps priority for the remainder of its own quantum
// (§4.8 "enqueues a fiber that immediately yields once"). Panics if doing
// so would exceed Options.MaxFibers, the same way an out-of-range index
// panics elsewhere in the engine rather than returning an error the
// Spawner interface has no room for.
func (s *Scheduler) Spawn(f *engine.Fiber) {
	s.checkFiberLimit()
	s.nextID++
	f.ID = s.nextID
	f.Spawner = s
	s.enqueue(f)
}

func (s *Scheduler) enqueue(f *engine.Fiber) {
	f.Trace = s.trace
	s.queue = append(s.queue, f)
	s.trace.Tracef("scheduler: spawn: fiber %d queued (depth now %d)", f.ID, len(s.queue))
}

func (s *Scheduler) checkFiberLimit() {
	if s.opts.MaxFibers > 0 && s.nextID >= uint64(s.opts.MaxFibers) {
		panic(fmt.Sprintf("scheduler: fiber limit of %d exceeded", s.opts.MaxFibers))
	}
}

// RunRoot spawns root as fiber 1 and runs every fiber (root plus whatever
// it or its descendants spawn) to completion.
func (s *Scheduler) RunRoot(root *engine.Fiber) {
	s.checkFiberLimit()
	s.nextID++
	root.ID = s.nextID
	root.Spawner = s
	s.enqueue(root)
	s.Run()
}

// Run drains the queue: pop a fiber, give it one quantum, then requeue it
// (StatusRunning/StatusBlocked) or retire it (StatusDone/StatusPanicked).
// Returns once the queue is empty — i.e. every fiber has finished. A
// program whose every live fiber is simultaneously blocked deadlocks the
// same way an unbuffered channel with no receiver ever would in the source
// language: Run spins forever retrying each blocked fiber's instruction.
// Deadlock detection is out of scope (§4.8 names only the quantum and
// suspension points, not a liveness check).
func (s *Scheduler) Run() {
	quantum := s.opts.Quantum
	if quantum <= 0 {
		quantum = engine.DefaultQuantum
	}
	for len(s.queue) > 0 {
		f := s.queue[0]
		s.queue = s.queue[1:]

		switch status := f.Step(quantum); status {
		case engine.StatusRunning, engine.StatusBlocked:
			s.queue = append(s.queue, f)
		case engine.StatusDone:
			s.trace.Tracef("scheduler: fiber %d finished", f.ID)
		case engine.StatusPanicked:
			s.trace.Tracef("scheduler: fiber %d panicked: %v", f.ID, f.Err)
			if rerr, ok := f.Err.(*engine.RuntimeError); ok {
				s.Errors = append(s.Errors, &FiberError{FiberID: f.ID, Err: rerr})
			}
		default:
			panic(fmt.Sprintf("scheduler: unknown fiber status %v", status))
		}
	}
}
