// Package intent provides cancellable scopes for queued storage
// operations.
//
// An Intent represents the lifetime of a caller-initiated operation
// group. Queued operations hold a Ref back into the Intent; cancelling
// the Intent synchronously flips every still-armed Ref to cancelled, so
// operations that have not been dispatched yet can be resolved without
// ever reaching the backend. Operations already handed to the execution
// sink are deliberately not retracted: the sink may already reference
// their payload memory.
package intent

import (
	"container/list"
	"errors"
)

// ErrCancelled is returned when an operation's scope was cancelled before
// the operation was dispatched.
var ErrCancelled = errors.New("intent: operation cancelled")

// node is the scope-side registration of one Ref. It adds a level of
// indirection between the membership list and the Ref's storage: moving
// a Ref updates node.owner instead of relinking the list, so the scope
// can always reach the current storage slot.
type node struct {
	owner *Ref
	elem  *list.Element
}

// Intent is a cancellable scope. The zero value is not usable; create
// scopes with New.
//
// An Intent is owned by the caller and may outlive, or be closed
// independently of, the operations queued under it. It must be used from
// the same logical execution context as the queues holding its Refs;
// Cancel does all its work inline and never blocks.
type Intent struct {
	refs      list.List // of *node
	cancelled bool
}

// New creates a live Intent.
func New() *Intent {
	in := &Intent{}
	in.refs.Init()
	return in
}

// Cancelled reports whether Cancel has been called.
func (in *Intent) Cancelled() bool { return in.cancelled }

// Cancel transitions the scope to cancelled and, before returning, flips
// every Ref still armed to it to the cancelled state, firing each Ref's
// cancellation hook inline. Cancelling an already-cancelled Intent is a
// no-op.
func (in *Intent) Cancel() {
	if in.cancelled {
		return
	}
	in.cancelled = true

	for e := in.refs.Front(); e != nil; e = e.Next() {
		n := e.Value.(*node)
		r := n.owner
		r.intent = nil
		r.node = nil
		r.cancelled = true
		if r.onCancel != nil {
			hook := r.onCancel
			r.onCancel = nil
			hook()
		}
	}
	in.refs.Init()
}

// Close cancels the scope if it is still live. Dropping a live Intent
// without cancelling would leave its outstanding references armed
// forever, so Close performs an implicit Cancel; it is safe to call
// multiple times.
func (in *Intent) Close() error {
	in.Cancel()
	return nil
}

func (in *Intent) register(r *Ref) {
	n := &node{owner: r}
	n.elem = in.refs.PushBack(n)
	r.node = n
}

func (in *Intent) deregister(n *node) {
	in.refs.Remove(n.elem)
}
