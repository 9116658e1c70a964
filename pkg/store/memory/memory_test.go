package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luzhanping/ioqueued/pkg/store"
)

func TestReadUnknownTarget(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.ReadAt(context.Background(), 1, 0, make([]byte, 4))
	require.ErrorIs(t, err, store.ErrTargetNotFound)
}

func TestWriteRead(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	n, err := s.WriteAt(ctx, 7, 10, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = s.ReadAt(ctx, 7, 10, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), buf)

	// The gap before the write reads as zeroes.
	head := make([]byte, 10)
	_, err = s.ReadAt(ctx, 7, 0, head)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 10), head)

	// Reads past the end read as zeroes too.
	tail := make([]byte, 8)
	_, err = s.ReadAt(ctx, 7, 12, tail)
	require.NoError(t, err)
	assert.Equal(t, []byte("llo\x00\x00\x00\x00\x00"), tail)
}

func TestOverwrite(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.WriteAt(ctx, 1, 0, []byte("aaaaaa"))
	require.NoError(t, err)
	_, err = s.WriteAt(ctx, 1, 2, []byte("bb"))
	require.NoError(t, err)

	buf := make([]byte, 6)
	_, err = s.ReadAt(ctx, 1, 0, buf)
	require.NoError(t, err)
	require.Equal(t, []byte("aabbaa"), buf)
}

func TestCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.WriteAt(ctx, 1, 0, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.ReadAt(ctx, 1, 0, make([]byte, 1))
	require.ErrorIs(t, err, context.Canceled)
}
