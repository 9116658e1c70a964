package store

import (
	"context"

	"github.com/luzhanping/ioqueued/pkg/ioreq"
	"github.com/luzhanping/ioqueued/pkg/iosink"
)

// Executor drains an iosink.Sink against a Store, playing the backend
// role of the execution boundary: it performs each pending part and
// fires its completion exactly once.
type Executor struct {
	store Store
}

// NewExecutor creates an executor over s.
func NewExecutor(s Store) *Executor {
	return &Executor{store: s}
}

// Drain consumes every pending part in the sink, executing scalar and
// vectored transfers against the store. It returns the number of parts
// executed. Each part's completion receives the transferred byte count
// or the backend error verbatim.
func (x *Executor) Drain(ctx context.Context, sink *iosink.Sink) int {
	return sink.Drain(func(req ioreq.Request, cpl *iosink.Completion) bool {
		n, err := x.execute(ctx, req)
		if err != nil {
			cpl.Fail(err)
		} else {
			cpl.Succeed(n)
		}
		return true
	})
}

func (x *Executor) execute(ctx context.Context, req ioreq.Request) (int, error) {
	if !req.Vectored() {
		return x.transfer(ctx, req, req.Pos(), req.Buffer())
	}

	// Vectored parts transfer slice by slice at accumulating offsets;
	// the slices tile one contiguous range of the target.
	total := 0
	off := req.Pos()
	for _, v := range req.Vector() {
		n, err := x.transfer(ctx, req, off, v)
		total += n
		if err != nil {
			return total, err
		}
		off += uint64(n)
	}
	return total, nil
}

func (x *Executor) transfer(ctx context.Context, req ioreq.Request, off uint64, buf []byte) (int, error) {
	if req.Direction() == ioreq.DirWrite {
		return x.store.WriteAt(ctx, req.Target(), off, buf)
	}
	return x.store.ReadAt(ctx, req.Target(), off, buf)
}
