// Package sched orders pending storage operations across priority
// classes.
//
// The queue delegates "which class goes next" to a Scheduler so the
// fairness discipline stays pluggable. The stock implementation is a
// weighted fair scheduler: each class accumulates the cost it has been
// served, normalized by its share weight, and the non-empty class with
// the lowest tally is always served next. FIFO order is preserved within
// a class.
package sched

import "github.com/luzhanping/ioqueued/pkg/priority"

// Scheduler orders pending items across priority classes.
//
// Implementations are not required to be goroutine-safe: a Scheduler
// belongs to exactly one queue and is driven from that queue's execution
// context.
type Scheduler interface {
	// Push appends item to the tail of the class's pending list.
	Push(c *priority.Class, item any)

	// Peek returns the head item of the next eligible class without
	// removing it. ok is false when no items are pending.
	Peek() (item any, ok bool)

	// Pop removes and returns the item Peek would return, charging cost
	// (already normalized to token units) against its class's fair-share
	// tally. A cost of zero pops without charging, which is how entries
	// that must not consume capacity (e.g. cancelled ones) are removed.
	// Pop on an empty scheduler is a programming error and panics.
	Pop(cost float64) any

	// Len returns the total number of pending items across all classes.
	Len() int
}

// classQueue is one class's FIFO plus its fair-share accounting.
type classQueue struct {
	class *priority.Class
	items []any
	tally float64 // served cost / shares
}

// Fair is the weighted fair Scheduler implementation.
type Fair struct {
	byClass map[*priority.Class]*classQueue
	ordered []*classQueue // registration order, for deterministic ties
	pending int
	vtime   float64 // highest tally ever charged, monotone
}

// NewFair creates an empty weighted fair scheduler.
func NewFair() *Fair {
	return &Fair{byClass: make(map[*priority.Class]*classQueue)}
}

// Push appends item to the tail of c's pending list.
func (f *Fair) Push(c *priority.Class, item any) {
	cq, ok := f.byClass[c]
	if !ok {
		cq = &classQueue{class: c}
		f.byClass[c] = cq
		f.ordered = append(f.ordered, cq)
	}
	if len(cq.items) == 0 {
		// A class joining (or rejoining after idling) picks up at the
		// current join tally so it cannot burn accumulated idle credit
		// to starve the others. A class whose own tally is already
		// higher keeps it.
		if t := f.joinTally(); t > cq.tally {
			cq.tally = t
		}
	}
	cq.items = append(cq.items, item)
	f.pending++
}

// Peek returns the head item of the eligible class.
func (f *Fair) Peek() (any, bool) {
	cq := f.next()
	if cq == nil {
		return nil, false
	}
	return cq.items[0], true
}

// Pop removes the eligible head item and charges cost/shares to its
// class.
func (f *Fair) Pop(cost float64) any {
	cq := f.next()
	if cq == nil {
		panic("sched: pop from empty scheduler")
	}

	item := cq.items[0]
	cq.items[0] = nil
	cq.items = cq.items[1:]
	f.pending--

	if cost > 0 {
		cq.tally += cost / float64(cq.class.Shares())
		if cq.tally > f.vtime {
			f.vtime = cq.tally
		}
	}
	return item
}

// Len returns the number of pending items.
func (f *Fair) Len() int { return f.pending }

// next picks the non-empty class with the lowest normalized tally.
// Scanning is linear in the number of classes, which is small by
// construction (classes are registered at startup, not per request).
func (f *Fair) next() *classQueue {
	var best *classQueue
	for _, cq := range f.ordered {
		if len(cq.items) == 0 {
			continue
		}
		if best == nil || cq.tally < best.tally {
			best = cq
		}
	}
	return best
}

// joinTally is the tally a class entering service starts from: the
// lowest tally among classes with items pending, or the scheduler's
// virtual time when everything is momentarily drained. Falling back to
// the virtual time keeps a newcomer from entering below the tallies the
// established classes have already accumulated.
func (f *Fair) joinTally() float64 {
	m := f.vtime
	found := false
	for _, cq := range f.ordered {
		if len(cq.items) == 0 {
			continue
		}
		if !found || cq.tally < m {
			m = cq.tally
			found = true
		}
	}
	return m
}
