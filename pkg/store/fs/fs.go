// Package fs provides a filesystem-backed Store implementation.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/luzhanping/ioqueued/pkg/store"
)

// FSStore maps every target to one file under a base directory and
// serves reads and writes with positional I/O.
//
// Thread Safety:
// Positional reads and writes are thread-safe at the OS level; the
// store only guards its descriptor table.
type FSStore struct {
	basePath string

	mu    sync.Mutex
	files map[int]*os.File
}

// NewFSStore creates a store rooted at basePath, creating the directory
// if needed.
func NewFSStore(ctx context.Context, basePath string) (*FSStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FSStore{
		basePath: basePath,
		files:    make(map[int]*os.File),
	}, nil
}

func (s *FSStore) targetPath(target int) string {
	return filepath.Join(s.basePath, fmt.Sprintf("target-%d", target))
}

// open returns the target's file, opening (and for writes creating) it
// on first use. Descriptors are cached for the store's lifetime.
func (s *FSStore) open(target int, create bool) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.files[target]; ok {
		return f, nil
	}

	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(s.targetPath(target), flags, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to open target %d: %w", target, err)
	}
	s.files[target] = f
	return f, nil
}

// ReadAt fills p from the target's file at off. Ranges past the end of
// the file read as zeroes.
func (s *FSStore) ReadAt(ctx context.Context, target int, off uint64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := s.open(target, false)
	if err != nil {
		return 0, err
	}

	n, err := f.ReadAt(p, int64(off))
	if err == io.EOF {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		return len(p), nil
	}
	if err != nil {
		return n, fmt.Errorf("failed to read target %d: %w", target, err)
	}
	return n, nil
}

// WriteAt stores p into the target's file at off, extending it as
// needed.
func (s *FSStore) WriteAt(ctx context.Context, target int, off uint64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := s.open(target, true)
	if err != nil {
		return 0, err
	}

	n, err := f.WriteAt(p, int64(off))
	if err != nil {
		return n, fmt.Errorf("failed to write target %d: %w", target, err)
	}
	return n, nil
}

// Close closes every cached descriptor. The first error wins but all
// descriptors are closed.
func (s *FSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for target, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close target %d: %w", target, err)
		}
		delete(s.files, target)
	}
	return firstErr
}
