// Package channel implements the bounded/unbuffered FIFO channels of
// spec.md §4.6. Send and receive are both non-blocking probes (TrySend/
// TryRecv): a fiber that cannot make progress reports itself blocked to the
// scheduler (package scheduler) and retries the same instruction on its
// next turn, rather than this package itself suspending a goroutine — the
// whole engine is single-threaded (§4.8), so there is nothing else to block
// on but "try again later".
//
// No pack repo has channels to ground the bounded-queue/closed-flag shape
// on (the corpus has none; built from spec.md §4.6 directly), and the
// teacher has no channel type to imitate either (smog is sequential), so
// the Go idiom (explicit mutex-free struct, since only one fiber ever
// touches a Channel at a time) follows kristofer-smog's general preference
// for small concrete structs with explicit methods over interfaces (see
// pkg/bytecode.ClassDefinition/MethodDefinition).
package channel

import "github.com/smoglang/gosl/pkg/value"

// Channel is a FIFO queue of capacity Cap (0 meaning unbuffered). An
// unbuffered channel is modeled internally as a one-slot holding area
// rather than a true synchronous rendezvous: since only one fiber executes
// at any instant (§4.8), a program can never observe the difference
// between "the receiver was already waiting" and "the value sat in a
// one-slot buffer for one scheduler turn" — both deliver the same sequence
// of values to the same fibers. Cap() still reports 0 for an unbuffered
// channel, matching the source language's cap(ch) builtin.
type Channel struct {
	requestedCap int
	buf          []value.Value
	closed       bool
}

// New creates a channel with the given requested capacity (0 = unbuffered).
func New(capacity int) *Channel {
	return &Channel{requestedCap: capacity}
}

func (c *Channel) holdingCap() int {
	if c.requestedCap == 0 {
		return 1
	}
	return c.requestedCap
}

// Cap implements value.ChannelImpl.
func (c *Channel) Cap() int { return c.requestedCap }

// Len implements value.ChannelImpl.
func (c *Channel) Len() int { return len(c.buf) }

// Closed implements value.ChannelImpl.
func (c *Channel) Closed() bool { return c.closed }

// ErrSendOnClosed mirrors the source language's panic on send to a closed
// channel (§4.6 edge case).
type ErrSendOnClosed struct{}

func (ErrSendOnClosed) Error() string { return "send on closed channel" }

// ErrCloseOfClosed mirrors the source language's panic on double close.
type ErrCloseOfClosed struct{}

func (ErrCloseOfClosed) Error() string { return "close of closed channel" }

// TrySend attempts to enqueue v without blocking. Returns false if the
// channel is at capacity (the caller/scheduler should retry later). Panics
// with ErrSendOnClosed if the channel is already closed, matching the
// source language's send-on-closed-channel behavior exactly rather than
// silently failing.
func (c *Channel) TrySend(v value.Value) bool {
	if c.closed {
		panic(ErrSendOnClosed{})
	}
	if len(c.buf) >= c.holdingCap() {
		return false
	}
	c.buf = append(c.buf, v)
	return true
}

// TryRecv attempts to dequeue a value without blocking. ok reports whether
// a value was delivered; closed reports whether the channel is drained and
// closed (the comma-ok false-value case, §4.6). When neither ok nor closed,
// the channel is empty but still open — the caller/scheduler should retry.
func (c *Channel) TryRecv() (v value.Value, ok bool, closed bool) {
	if len(c.buf) > 0 {
		v = c.buf[0]
		c.buf = c.buf[1:]
		return v, true, false
	}
	if c.closed {
		return value.Value{}, false, true
	}
	return value.Value{}, false, false
}

// Close closes the channel. Panics with ErrCloseOfClosed if already closed.
func (c *Channel) Close() {
	if c.closed {
		panic(ErrCloseOfClosed{})
	}
	c.closed = true
}
