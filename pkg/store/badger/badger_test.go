package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luzhanping/ioqueued/pkg/store"
)

func newStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestReadUnknownTarget(t *testing.T) {
	s := newStore(t)

	_, err := s.ReadAt(context.Background(), 1, 0, make([]byte, 4))
	require.ErrorIs(t, err, store.ErrTargetNotFound)
}

func TestWriteRead(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	n, err := s.WriteAt(ctx, 9, 4, []byte("durable"))
	require.NoError(t, err)
	require.Equal(t, 7, n)

	buf := make([]byte, 7)
	n, err = s.ReadAt(ctx, 9, 4, buf)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, []byte("durable"), buf)
}

func TestSpliceIntoExisting(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.WriteAt(ctx, 1, 0, []byte("xxxxxxxx"))
	require.NoError(t, err)
	_, err = s.WriteAt(ctx, 1, 3, []byte("yy"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	_, err = s.ReadAt(ctx, 1, 0, buf)
	require.NoError(t, err)
	require.Equal(t, []byte("xxxyyxxx"), buf)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewBadgerStore(ctx, dir)
	require.NoError(t, err)
	_, err = s.WriteAt(ctx, 5, 0, []byte("keep"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewBadgerStore(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	buf := make([]byte, 4)
	_, err = s.ReadAt(ctx, 5, 0, buf)
	require.NoError(t, err)
	require.Equal(t, []byte("keep"), buf)
}
