// Package select implements the multi-way select of spec.md §4.7: offer a
// set of send/receive cases plus an optional default, and make whichever
// one is ready happen. When more than one case is simultaneously ready,
// the source language requires a pseudo-random, uniform choice among them
// (the Go spec's own select statement rule) rather than always favoring
// the first — this package reproduces that with math/rand, matching
// original_source/vm/src/vm.rs's Opcode::SELECT using an equivalent
// shuffle-then-try strategy.
package selectstmt

import (
	"math/rand"

	"github.com/smoglang/gosl/pkg/channel"
	"github.com/smoglang/gosl/pkg/value"
)

// CaseKind tags one Case's shape.
type CaseKind uint8

const (
	CaseSend CaseKind = iota
	CaseRecv
	CaseDefault
)

// Case is one arm of a select (§4.7). SendVal is only read for CaseSend.
type Case struct {
	Kind CaseKind
	Ch   *channel.Channel
	SendVal value.Value
}

// Result reports which case fired, if any.
type Result struct {
	Matched bool // false means: nothing ready and no default — caller must retry later
	Chosen  int
	IsDefault bool
	RecvVal value.Value
	RecvOk  bool // false when the matched recv drained a closed, empty channel
}

// Execute tries every non-default case in a random order (picked fresh
// per call, so repeated blocked retries don't starve any one case) and
// commits the first one that can proceed without blocking. If none can,
// it falls back to the default case when present; otherwise it reports
// Matched=false so the caller (the engine, via the scheduler) leaves the
// SELECT instruction's PC unchanged and retries on the fiber's next turn.
func Execute(cases []Case, rng *rand.Rand) Result {
	order := rng.Perm(len(cases))
	for _, i := range order {
		c := cases[i]
		switch c.Kind {
		case CaseSend:
			if c.Ch.TrySend(c.SendVal) {
				return Result{Matched: true, Chosen: i}
			}
		case CaseRecv:
			v, ok, closed := c.Ch.TryRecv()
			if ok || closed {
				return Result{Matched: true, Chosen: i, RecvVal: v, RecvOk: ok}
			}
		}
	}
	for i, c := range cases {
		if c.Kind == CaseDefault {
			return Result{Matched: true, Chosen: i, IsDefault: true}
		}
	}
	return Result{Matched: false}
}
