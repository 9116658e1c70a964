package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luzhanping/ioqueued/pkg/priority"
)

func mustRegister(t *testing.T, reg *priority.Registry, name string, shares uint32) *priority.Class {
	t.Helper()
	c, err := reg.Register(name, shares)
	require.NoError(t, err)
	return c
}

func TestFIFOWithinClass(t *testing.T) {
	reg := priority.NewRegistry()
	c := mustRegister(t, reg, "only", 100)

	f := NewFair()
	for i := 0; i < 5; i++ {
		f.Push(c, i)
	}

	require.Equal(t, 5, f.Len())
	for i := 0; i < 5; i++ {
		item, ok := f.Peek()
		require.True(t, ok)
		require.Equal(t, i, item)
		require.Equal(t, i, f.Pop(1))
	}

	_, ok := f.Peek()
	require.False(t, ok)
	require.Equal(t, 0, f.Len())
}

func TestPopEmptyPanics(t *testing.T) {
	f := NewFair()
	assert.Panics(t, func() { f.Pop(1) })
}

func TestZeroCostPopDoesNotCharge(t *testing.T) {
	reg := priority.NewRegistry()
	a := mustRegister(t, reg, "a", 100)
	b := mustRegister(t, reg, "b", 100)

	f := NewFair()
	for i := 0; i < 4; i++ {
		f.Push(a, "a")
	}
	f.Push(b, "b")

	// Draining items from a for free must not count against it: b has no
	// claim to go first afterwards beyond one equal-tally turn.
	for i := 0; i < 4; i++ {
		require.Equal(t, "a", f.Pop(0))
	}
	item, ok := f.Peek()
	require.True(t, ok)
	require.Equal(t, "b", item)
}

// TestWeightedSharing serves two busy classes with a 3:1 share ratio and
// checks the served cost approximates that ratio.
func TestWeightedSharing(t *testing.T) {
	reg := priority.NewRegistry()
	heavy := mustRegister(t, reg, "heavy", 300)
	light := mustRegister(t, reg, "light", 100)

	f := NewFair()
	const perClass = 400
	for i := 0; i < perClass; i++ {
		f.Push(heavy, heavy)
		f.Push(light, light)
	}

	served := map[*priority.Class]int{}
	const unit = 1.0
	for i := 0; i < perClass; i++ {
		c := f.Pop(unit).(*priority.Class)
		served[c]++
	}

	// With both classes backlogged, heavy should get ~3x the service of
	// light over any window.
	require.Greater(t, served[heavy], served[light])
	ratio := float64(served[heavy]) / float64(served[light])
	assert.InDelta(t, 3.0, ratio, 0.25)
}

// TestNewClassAfterDrainGetsNoCredit drains the scheduler after a long
// stretch of service, then lets a brand-new class push first: it must
// join at the served classes' level, not at zero, or it would be owed
// the entire prior service history.
func TestNewClassAfterDrainGetsNoCredit(t *testing.T) {
	reg := priority.NewRegistry()
	old := mustRegister(t, reg, "old", 100)
	fresh := mustRegister(t, reg, "fresh", 100)

	f := NewFair()
	for i := 0; i < 8; i++ {
		f.Push(old, "old")
	}
	for i := 0; i < 8; i++ {
		f.Pop(1)
	}
	require.Equal(t, 0, f.Len())

	// The newcomer pushes first into the empty scheduler.
	for i := 0; i < 4; i++ {
		f.Push(fresh, "fresh")
		f.Push(old, "old")
	}

	var order []string
	for i := 0; i < 8; i++ {
		order = append(order, f.Pop(1).(string))
	}

	// Service must interleave from the start instead of running every
	// fresh item before the first old one.
	assert.Contains(t, order[:2], "old")
	assert.Contains(t, order[:2], "fresh")
	served := map[string]int{}
	for _, name := range order {
		served[name]++
	}
	assert.Equal(t, 4, served["old"])
	assert.Equal(t, 4, served["fresh"])
}

// TestClassesFromDistinctRegistries pushes classes from two registries
// that happen to carry the same registry-local id: each must keep its
// own FIFO and accounting, since classes are compared by pointer
// identity.
func TestClassesFromDistinctRegistries(t *testing.T) {
	a := mustRegister(t, priority.NewRegistry(), "a", 100)
	b := mustRegister(t, priority.NewRegistry(), "b", 100)
	require.Equal(t, a.ID(), b.ID())

	f := NewFair()
	f.Push(a, "a1")
	require.Equal(t, "a1", f.Pop(1))

	f.Push(b, "b1")
	f.Push(a, "a2")

	// If the two classes shared a queue, b1 would sit ahead of a2 in a
	// merged FIFO. With separate accounting the tallies tie and the
	// longer-registered class goes first.
	require.Equal(t, "a2", f.Pop(1))
	require.Equal(t, "b1", f.Pop(1))
}

// TestIdleClassEarnsNoCredit parks one class, serves another for a long
// stretch, then wakes the first: it must not monopolize the scheduler to
// "catch up" on service it never asked for.
func TestIdleClassEarnsNoCredit(t *testing.T) {
	reg := priority.NewRegistry()
	busy := mustRegister(t, reg, "busy", 100)
	idle := mustRegister(t, reg, "idle", 100)

	f := NewFair()
	for i := 0; i < 100; i++ {
		f.Push(busy, "busy")
	}
	for i := 0; i < 100; i++ {
		f.Pop(1)
	}

	for i := 0; i < 10; i++ {
		f.Push(busy, "busy")
		f.Push(idle, "idle")
	}

	// The woken class starts level with the busy one: service should
	// alternate rather than run all idle items first.
	first := map[string]int{}
	for i := 0; i < 10; i++ {
		first[f.Pop(1).(string)]++
	}
	assert.Greater(t, first["busy"], 0)
	assert.Greater(t, first["idle"], 0)
}
