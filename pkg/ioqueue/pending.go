package ioqueue

import "context"

// Pending is the caller's handle on the eventual result of a submitted
// operation. It resolves exactly once: either with the aggregated byte
// count of all parts, or with the first failure (a cancellation before
// dispatch, or a backend error propagated verbatim).
type Pending struct {
	done chan struct{}
	n    int
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolve publishes the result. Resolving twice is a programming error.
func (p *Pending) resolve(n int, err error) {
	select {
	case <-p.done:
		panic("ioqueue: pending result resolved twice")
	default:
	}
	p.n = n
	p.err = err
	close(p.done)
}

// Done returns a channel closed when the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Resolved reports whether the result is already available.
func (p *Pending) Resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the operation resolves or ctx is done.
//
// Returns:
//   - (bytes, nil) on success
//   - (0, intent.ErrCancelled) when the operation's scope was cancelled
//     before dispatch
//   - (0, backend error) when any part failed; partial byte counts of
//     successful sibling parts are never reported
//   - (0, ctx.Err()) when the context expires first; the operation
//     itself stays pending
func (p *Pending) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		return p.n, p.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
