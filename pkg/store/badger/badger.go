// Package badger provides a BadgerDB-backed Store implementation.
//
// Every target is stored under one key in the "t:" namespace:
//
//	Data Type      Prefix   Key Format   Value
//	=============================================
//	Target bytes   "t:"     t:<target>   raw byte blob
//
// Writes are read-modify-write inside one Badger transaction, so
// concurrent writers to different targets do not interfere and a
// crashed process never leaves a half-applied range (Badger's WAL
// guarantees that).
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/luzhanping/ioqueued/pkg/store"
)

// BadgerStore persists targets in an embedded BadgerDB database. It is
// the backend of choice when drained I/O has to survive restarts, e.g.
// soak-testing the scheduling core against a durable target.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a database under dir.
func NewBadgerStore(ctx context.Context, dir string) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logging is too chatty for a store backend

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func targetKey(target int) []byte {
	return []byte(fmt.Sprintf("t:%d", target))
}

// ReadAt fills p from the target's blob at off. Ranges past the blob's
// end read as zeroes.
func (s *BadgerStore) ReadAt(ctx context.Context, target int, off uint64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(targetKey(target))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrTargetNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read target %d: %w", target, err)
		}
		return item.Value(func(val []byte) error {
			for i := range p {
				p[i] = 0
			}
			if off < uint64(len(val)) {
				copy(p, val[off:])
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteAt splices p into the target's blob at off inside one
// transaction, growing the blob as needed.
func (s *BadgerStore) WriteAt(ctx context.Context, target int, off uint64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := targetKey(target)
	err := s.db.Update(func(txn *badger.Txn) error {
		var data []byte
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// New target.
		case err != nil:
			return fmt.Errorf("failed to read target %d: %w", target, err)
		default:
			if data, err = item.ValueCopy(nil); err != nil {
				return fmt.Errorf("failed to copy target %d: %w", target, err)
			}
		}

		end := off + uint64(len(p))
		if end > uint64(len(data)) {
			grown := make([]byte, end)
			copy(grown, data)
			data = grown
		}
		copy(data[off:], p)
		return txn.Set(key, data)
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger store: %w", err)
	}
	return nil
}
