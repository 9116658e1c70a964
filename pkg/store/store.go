// Package store provides byte-addressable targets that execute the
// parts an I/O queue dispatches to its sink.
//
// A Store is the demo/test stand-in for the real backend boundary: it
// reads and writes byte ranges of numbered targets. The Executor bridges
// a Store to an iosink.Sink, draining pending parts and firing their
// completions. Real kernel I/O stays out of scope; these backends exist
// so the scheduling core can be exercised end to end.
package store

import (
	"context"
	"errors"
)

// ErrTargetNotFound is returned when reading a target that was never
// written.
var ErrTargetNotFound = errors.New("store: target not found")

// Store is a byte-addressable collection of numbered targets.
//
// Reads of never-written ranges beyond a target's current size fail
// with ErrTargetNotFound (unknown target) or read zeroes (sparse range
// of a known target, backend specific). Writes extend targets as
// needed.
type Store interface {
	// ReadAt fills p with bytes of target starting at off and returns
	// the number of bytes read.
	ReadAt(ctx context.Context, target int, off uint64, p []byte) (int, error)

	// WriteAt stores p into target starting at off, extending the
	// target if needed, and returns the number of bytes written.
	WriteAt(ctx context.Context, target int, off uint64, p []byte) (int, error)

	// Close releases backend resources.
	Close() error
}
