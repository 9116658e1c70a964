package intent

// Ref is a movable, non-owning back-reference from a queued operation
// into an Intent.
//
// A Ref is in one of three states:
//   - empty: not bound to any scope; the operation is unconditional
//   - armed: registered with a live Intent
//   - cancelled: the scope was cancelled while this Ref was armed
//
// At most one live registration exists per Ref. Because the scope records
// the address of the Ref's storage slot, Refs must never be copied with
// plain assignment once armed: use Bind on the slot the Ref will live in,
// and MoveTo to transfer it between slots. The scope's bookkeeping
// follows every move, so cancellation reaches the current slot no matter
// how many times the Ref has moved.
//
// The zero Ref is empty and ready to use.
type Ref struct {
	intent    *Intent
	node      *node
	cancelled bool
	onCancel  func()
}

// Bind arms the Ref to the given Intent in place, releasing whatever it
// held before. A nil Intent leaves the Ref empty (the operation is
// unconditional). An already-cancelled Intent leaves the Ref cancelled
// without registering and without firing hook.
//
// hook, if non-nil, fires inline when the Intent is cancelled while this
// Ref (or any Ref it has since been moved into) is still armed.
func (r *Ref) Bind(in *Intent, hook func()) {
	r.Release()
	if in == nil {
		return
	}
	if in.Cancelled() {
		r.cancelled = true
		return
	}
	r.intent = in
	r.onCancel = hook
	in.register(r)
}

// Cancelled reports whether the Ref's scope was cancelled.
func (r *Ref) Cancelled() bool { return r.cancelled }

// Retrieve returns the scope the Ref is armed to.
//
// Returns:
//   - (nil, nil) for an empty Ref: the operation is unconditional
//   - (scope, nil) for an armed Ref
//   - (nil, ErrCancelled) for a cancelled Ref
func (r *Ref) Retrieve() (*Intent, error) {
	if r.cancelled {
		return nil, ErrCancelled
	}
	return r.intent, nil
}

// MoveTo transfers the Ref's state into dst and leaves the receiver
// empty. Whatever dst held before is released first (deregistering it if
// it was armed). An armed Ref re-registers dst as the scope's target
// storage slot; a cancelled Ref yields a cancelled dst; an empty Ref
// yields an empty dst. These rules compose over arbitrarily long move
// chains.
func (r *Ref) MoveTo(dst *Ref) {
	if dst == r {
		return
	}
	dst.Release()

	dst.intent = r.intent
	dst.node = r.node
	dst.cancelled = r.cancelled
	dst.onCancel = r.onCancel
	if dst.node != nil {
		dst.node.owner = dst
	}

	r.intent = nil
	r.node = nil
	r.cancelled = false
	r.onCancel = nil
}

// Release detaches the Ref from its scope, deregistering it if armed,
// and resets it to empty. After Release the scope's cancellation no
// longer affects this Ref. Safe on any state.
func (r *Ref) Release() {
	if r.node != nil {
		r.intent.deregister(r.node)
	}
	r.intent = nil
	r.node = nil
	r.cancelled = false
	r.onCancel = nil
}
