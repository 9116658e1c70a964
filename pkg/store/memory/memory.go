// Package memory provides an in-memory Store implementation.
package memory

import (
	"context"
	"sync"

	"github.com/luzhanping/ioqueued/pkg/store"
)

// MemoryStore keeps every target as a byte slice in a map.
//
// It is designed for tests and development: memory-speed, volatile,
// bounded only by RAM. Reads of a known target past its current size
// return zeroes, matching sparse-file semantics; reads of an unknown
// target fail with store.ErrTargetNotFound.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Multiple concurrent
// readers are allowed, writes are exclusive.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[int][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[int][]byte)}
}

// ReadAt fills p from the target's bytes at off.
func (s *MemoryStore) ReadAt(ctx context.Context, target int, off uint64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[target]
	if !ok {
		return 0, store.ErrTargetNotFound
	}

	for i := range p {
		p[i] = 0
	}
	if off < uint64(len(data)) {
		copy(p, data[off:])
	}
	return len(p), nil
}

// WriteAt stores p at off, growing the target as needed.
func (s *MemoryStore) WriteAt(ctx context.Context, target int, off uint64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.data[target]
	end := off + uint64(len(p))
	if end > uint64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[off:], p)
	s.data[target] = data
	return len(p), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
