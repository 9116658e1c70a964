// Package ioqueue admits, schedules and dispatches storage operations.
//
// A Queue is the per-consumer front end of the I/O scheduling core: it
// accepts requests grouped by priority class, orders them with a fair
// scheduler, spends capacity pool tokens on admission, splits oversized
// requests into backend-sized parts, hands the parts to the execution
// sink and aggregates their completions back into one logical result.
//
// A Queue never schedules itself. An external driver calls Poll at its
// own cadence and decides when the sink is drained; the queue only
// reacts. Submit, Poll and intent cancellation must run in the same
// logical execution context - the queue holds no internal locks for its
// pending lists. The capacity pool is the one shared piece: it is safe
// to share one pool between queues driven from different goroutines.
package ioqueue

import (
	"sync"

	"github.com/google/uuid"

	"github.com/luzhanping/ioqueued/internal/logger"
	"github.com/luzhanping/ioqueued/pkg/capacity"
	"github.com/luzhanping/ioqueued/pkg/intent"
	"github.com/luzhanping/ioqueued/pkg/ioreq"
	"github.com/luzhanping/ioqueued/pkg/iosink"
	"github.com/luzhanping/ioqueued/pkg/metrics"
	"github.com/luzhanping/ioqueued/pkg/priority"
	"github.com/luzhanping/ioqueued/pkg/sched"
)

// costBlockSize is the byte granularity of admission cost accounting.
// One token buys one block of transfer; see requestCost.
const costBlockSize = 512

// Sink is the execution boundary the queue dispatches parts to. The
// concrete iosink.Sink satisfies it; tests may substitute their own.
type Sink interface {
	Submit(req ioreq.Request, cpl *iosink.Completion)
}

// Config carries the per-queue tunables.
type Config struct {
	// MaxTransferSize is the backend's largest single transfer in
	// bytes. Requests larger than this are split before dispatch.
	// Zero means unlimited (no splitting).
	MaxTransferSize int

	// Metrics receives queue observability events. Nil disables
	// metrics collection at zero cost.
	Metrics metrics.QueueMetrics
}

// Queue admits and dispatches storage operations for one consumer.
type Queue struct {
	id    uuid.UUID
	pool  *capacity.Pool
	sink  Sink
	sched sched.Scheduler
	cfg   Config
	m     metrics.QueueMetrics
	depth int
}

// New creates a queue drawing admission tokens from pool and dispatching
// to sink, ordered by scheduler. pool, sink and scheduler must be
// non-nil; the pool may be shared with other queues.
func New(pool *capacity.Pool, sink Sink, scheduler sched.Scheduler, cfg Config) *Queue {
	if pool == nil || sink == nil || scheduler == nil {
		panic("ioqueue: queue constructed without pool, sink or scheduler")
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NoopQueueMetrics()
	}
	return &Queue{
		id:    uuid.New(),
		pool:  pool,
		sink:  sink,
		sched: scheduler,
		cfg:   cfg,
		m:     m,
	}
}

// ID returns the queue's unique identity, used for log and metric
// labelling.
func (q *Queue) ID() uuid.UUID { return q.id }

// Len returns the number of operations pending in the queue (admitted
// but not yet dispatched, including entries cancelled and not yet
// collected by Poll).
func (q *Queue) Len() int { return q.sched.Len() }

// entry is one admitted-but-not-completed operation.
type entry struct {
	q       *Queue
	req     ioreq.Request
	class   *priority.Class
	ref     intent.Ref
	pending *Pending

	// dead marks a tombstone: the scope was cancelled while the entry
	// was still queued and its result has already been resolved. Poll
	// discards tombstones without charging capacity.
	dead bool

	// Aggregation state, shared by the part completions. Guarded by mu
	// because the sink may fire completions from its own context.
	mu        sync.Mutex
	remaining int
	bytes     int
	firstErr  error
}

// Submit enqueues one request under class, optionally scoped by in.
//
// When in is already cancelled the returned result is resolved with
// intent.ErrCancelled immediately: the request is never enqueued and no
// capacity is spent. Otherwise the entry joins the tail of its class's
// pending list and waits for a Poll pass to admit it.
//
// The request's payload must stay alive (and, for writes, unchanged)
// until the returned Pending resolves.
func (q *Queue) Submit(class *priority.Class, req ioreq.Request, in *intent.Intent) *Pending {
	if class == nil {
		panic("ioqueue: submit without priority class")
	}

	p := newPending()

	if in != nil && in.Cancelled() {
		q.m.RecordCancelled(class.Name())
		p.resolve(0, intent.ErrCancelled)
		return p
	}

	e := &entry{
		q:       q,
		req:     req,
		class:   class,
		pending: p,
	}
	e.ref.Bind(in, e.onCancel)

	q.sched.Push(class, e)
	q.depth++
	q.m.RecordSubmitted(class.Name())
	q.m.SetQueueDepth(q.depth)
	return p
}

// onCancel runs inline from Intent.Cancel while the entry is still
// queued (a dispatched entry has released its reference). The result
// resolves here, before Cancel returns; the entry itself stays in the
// scheduler as a tombstone until the next Poll pass sweeps it out.
func (e *entry) onCancel() {
	e.dead = true
	e.q.m.RecordCancelled(e.class.Name())
	e.pending.resolve(0, intent.ErrCancelled)
}

// Poll runs one dispatch pass and returns the number of operations
// handed to the sink.
//
// The pass repeatedly takes the fair scheduler's eligible head entry:
// tombstones are discarded without consuming capacity; live entries are
// admitted against the pool at their computed cost, split when they
// exceed the backend's maximum transfer size and submitted part by part
// to the sink. The pass stops when the queue is empty or the pool
// refuses an admission - the entry stays queued for a later pass, after
// the external driver has replenished the pool.
func (q *Queue) Poll() int {
	dispatched := 0

	for {
		item, ok := q.sched.Peek()
		if !ok {
			break
		}
		e := item.(*entry)

		if e.dead || e.ref.Cancelled() {
			q.sched.Pop(0)
			q.depth--
			if !e.dead {
				e.onCancel()
			}
			continue
		}

		cost := q.requestCost(e.req)
		if !q.pool.TryAdmit(cost) {
			break
		}

		q.sched.Pop(float64(cost))
		q.depth--

		// Past this point cancellation no longer reaches the entry:
		// the sink may already hold references into its payload.
		e.ref.Release()

		q.dispatch(e)
		dispatched++
	}

	q.m.SetQueueDepth(q.depth)
	q.m.SetPoolTokens(q.pool.Tokens())
	return dispatched
}

// requestCost converts a request into admission token units.
//
// The policy is implementation-defined: one token per started block of
// costBlockSize bytes, plus one for the submission itself, doubled for
// writes (they dirty the backend's write path). The cost is clamped to
// the pool's capacity so that a single oversized request cannot become
// permanently inadmissible.
func (q *Queue) requestCost(req ioreq.Request) uint64 {
	cost := uint64(1 + (req.Size()+costBlockSize-1)/costBlockSize)
	if req.Direction() == ioreq.DirWrite {
		cost *= 2
	}
	if limit := q.pool.Capacity(); limit != 0 && cost > limit {
		cost = limit
	}
	return cost
}

// dispatch splits the entry if needed and submits every part to the
// sink with a completion wired to the entry's aggregation state.
func (q *Queue) dispatch(e *entry) {
	var parts []ioreq.Part
	if q.cfg.MaxTransferSize > 0 && e.req.Size() > q.cfg.MaxTransferSize {
		parts = e.req.Split(q.cfg.MaxTransferSize)
	} else {
		parts = []ioreq.Part{{Req: e.req, Size: e.req.Size()}}
	}

	e.remaining = len(parts)
	q.m.RecordDispatched(e.class.Name(), len(parts))
	logger.Debug("ioqueue %s: dispatching %s as %d part(s)", q.id, e.req, len(parts))

	for i := range parts {
		q.sink.Submit(parts[i].Req, iosink.NewCompletion(e.partDone))
	}
}

// partDone aggregates one part completion. The first failure wins; the
// remaining parts are still drained to completion but their results are
// discarded. The logical result resolves when the last part lands:
// either the first failure, or the sum of the byte counts the sink
// reported per part.
func (e *entry) partDone(n int, err error) {
	e.mu.Lock()
	if err != nil {
		if e.firstErr == nil {
			e.firstErr = err
		}
	} else {
		e.bytes += n
	}
	e.remaining--
	last := e.remaining == 0
	bytes, firstErr := e.bytes, e.firstErr
	e.mu.Unlock()

	if !last {
		return
	}

	if firstErr != nil {
		e.q.m.RecordCompleted(e.req.Direction().String(), 0, firstErr)
		e.pending.resolve(0, firstErr)
		return
	}
	e.q.m.RecordCompleted(e.req.Direction().String(), int64(bytes), nil)
	e.pending.resolve(bytes, nil)
}
