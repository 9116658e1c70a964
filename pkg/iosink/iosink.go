// Package iosink is the execution boundary between the I/O queue and
// whatever actually performs transfers.
//
// The queue submits fully admitted, backend-sized parts to a Sink
// together with a single-shot Completion. A backend (or a test double)
// later drains the sink, executes each part and fires its completion
// exactly once. The sink performs no I/O itself; it is a hand-off FIFO.
package iosink

import (
	"github.com/luzhanping/ioqueued/pkg/ioreq"
)

// Completion is the single-shot result callback bound 1:1 to a
// dispatched part. Exactly one of Succeed or Fail must be invoked,
// exactly once; a second invocation is a programming error and panics.
type Completion struct {
	fired    bool
	complete func(n int, err error)
}

// NewCompletion wraps fn into a Completion. fn receives either
// (bytes, nil) or (0, err).
func NewCompletion(fn func(n int, err error)) *Completion {
	return &Completion{complete: fn}
}

// Succeed reports successful execution of n bytes.
func (c *Completion) Succeed(n int) {
	c.fire(n, nil)
}

// Fail reports execution failure. err must be non-nil.
func (c *Completion) Fail(err error) {
	if err == nil {
		panic("iosink: completion failed with nil error")
	}
	c.fire(0, err)
}

func (c *Completion) fire(n int, err error) {
	if c.fired {
		panic("iosink: completion fired twice")
	}
	c.fired = true
	c.complete(n, err)
}

// PendingIO is one submitted part awaiting execution.
type PendingIO struct {
	Req ioreq.Request
	Cpl *Completion
}

// Sink is a FIFO of submitted parts awaiting a backend.
//
// Thread safety:
// A Sink is driven from one execution context: the queue submits and the
// backend drains from the same logical context (the driver loop). The
// completions fired during Drain run inline.
type Sink struct {
	pending []PendingIO
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Submit appends a part and its completion to the sink.
func (s *Sink) Submit(req ioreq.Request, cpl *Completion) {
	s.pending = append(s.pending, PendingIO{Req: req, Cpl: cpl})
}

// Len returns the number of parts awaiting execution.
func (s *Sink) Len() int { return len(s.pending) }

// Drain offers pending parts to fn in submission order. A true return
// means the part was executed (its completion fired or adopted) and is
// removed; false means the backend cannot take it now, so the part stays
// at the head and Drain returns. Returns the number of parts consumed.
func (s *Sink) Drain(fn func(req ioreq.Request, cpl *Completion) bool) int {
	consumed := 0
	for len(s.pending) > 0 {
		head := s.pending[0]
		if !fn(head.Req, head.Cpl) {
			break
		}
		s.pending[0] = PendingIO{}
		s.pending = s.pending[1:]
		consumed++
	}
	if len(s.pending) == 0 {
		s.pending = nil
	}
	return consumed
}
