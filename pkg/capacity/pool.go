// Package capacity implements the shared token pool that throttles
// admission of storage operations across one or more queues.
//
// The pool is a token bucket with an externally driven clock: it never
// schedules its own timers. A replenishment driver (typically a periodic
// ticker owned by the process) calls Replenish with the current time;
// queues spend tokens through TryAdmit. Because independent queues on
// different goroutines may share one pool, all token state is guarded by
// a mutex.
package capacity

import (
	"sync"
	"time"
)

// Pool is a shared token bucket.
//
// Invariants:
//   - available tokens never exceed the configured capacity
//   - tokens only increase through Replenish and only decrease through a
//     successful TryAdmit
//
// A capacity of zero disables throttling: every admission succeeds and
// Replenish is a no-op. This mirrors an unconstrained backend.
//
// Thread safety:
// All methods are safe for concurrent use; a pool may be shared by any
// number of queues with independent drivers.
type Pool struct {
	mu        sync.Mutex
	capacity  uint64
	available uint64
	rate      float64 // tokens per second
	last      time.Time
	fraction  float64 // sub-token remainder carried between replenishments
}

// NewPool creates a pool holding limit tokens, refilled at ratePerSec
// tokens per second by external Replenish calls. The pool starts full.
//
// limit = 0 creates an unconstrained pool.
func NewPool(limit uint64, ratePerSec float64) *Pool {
	return &Pool{
		capacity:  limit,
		available: limit,
		rate:      ratePerSec,
		last:      time.Now(),
	}
}

// Replenish recomputes the available tokens from the time elapsed since
// the previous replenishment, at the configured rate, capped at the
// pool's capacity. It is invoked by an external periodic driver; calling
// it with a time not after the previous call is a no-op.
func (p *Pool) Replenish(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity == 0 {
		return
	}

	elapsed := now.Sub(p.last)
	if elapsed <= 0 {
		return
	}
	p.last = now

	earned := elapsed.Seconds()*p.rate + p.fraction
	whole := uint64(earned)
	p.fraction = earned - float64(whole)

	p.available += whole
	if p.available > p.capacity {
		p.available = p.capacity
		p.fraction = 0
	}
}

// TryAdmit atomically spends cost tokens. It returns true and decrements
// the available tokens when they suffice, or returns false leaving the
// pool unchanged. A cost larger than the pool's total capacity can never
// be admitted on a constrained pool; callers are expected to split such
// work before admission.
func (p *Pool) TryAdmit(cost uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity == 0 {
		return true
	}
	if cost > p.available {
		return false
	}
	p.available -= cost
	return true
}

// Tokens returns the currently available tokens. The value is advisory:
// it may change immediately after the call when the pool is shared.
func (p *Pool) Tokens() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Capacity returns the pool's total capacity; zero means unconstrained.
func (p *Pool) Capacity() uint64 { return p.capacity }
