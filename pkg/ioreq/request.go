// Package ioreq defines the immutable descriptor for one raw storage
// operation and its decomposition into backend-sized parts.
//
// A Request is a cheap value: it describes what to transfer (target,
// offset, payload) without owning the payload memory. Splitting a Request
// never copies payload bytes; parts borrow the original buffers, so the
// memory backing a Request must stay alive until every part derived from
// it has completed.
package ioreq

import "fmt"

// Op identifies the kind of operation a Request describes.
type Op uint8

const (
	// OpRead is a scalar read into a single buffer.
	OpRead Op = iota

	// OpWrite is a scalar write from a single buffer.
	OpWrite

	// OpReadV is a vectored read into an ordered list of buffers.
	OpReadV

	// OpWriteV is a vectored write from an ordered list of buffers.
	OpWriteV
)

// String returns the lowercase name of the operation kind.
func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpReadV:
		return "readv"
	case OpWriteV:
		return "writev"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Direction is the read/write axis of an operation, used for cost
// accounting and metrics labelling.
type Direction uint8

const (
	// DirRead covers OpRead and OpReadV.
	DirRead Direction = iota

	// DirWrite covers OpWrite and OpWriteV.
	DirWrite
)

// String returns "read" or "write".
func (d Direction) String() string {
	if d == DirWrite {
		return "write"
	}
	return "read"
}

// Request describes one raw storage operation.
//
// A Request is immutable after construction and safe to copy. It carries
// either a single scalar buffer or an ordered list of buffer slices; the
// slices are non-overlapping and given in ascending logical order, and
// the request's size is the sum of their lengths.
//
// The payload is borrowed, never owned: a Request holds slice headers
// into caller memory. Callers must keep that memory alive and unchanged
// (for writes) until the operation and all parts split from it complete.
type Request struct {
	op     Op
	target int
	pos    uint64
	buf    []byte
	iov    [][]byte
	nowait bool
}

// MakeRead constructs a scalar read request.
//
// Parameters:
//   - target: opaque identity of the storage target (e.g. a descriptor)
//   - pos: byte offset within the target
//   - buf: destination buffer; len(buf) is the transfer size
//   - nowait: whether the backend supports non-blocking completion
func MakeRead(target int, pos uint64, buf []byte, nowait bool) Request {
	return Request{op: OpRead, target: target, pos: pos, buf: buf, nowait: nowait}
}

// MakeWrite constructs a scalar write request. Parameters mirror MakeRead
// with buf as the source buffer.
func MakeWrite(target int, pos uint64, buf []byte, nowait bool) Request {
	return Request{op: OpWrite, target: target, pos: pos, buf: buf, nowait: nowait}
}

// MakeReadV constructs a vectored read request. The iov slices must be
// non-overlapping and ordered; the request size is the sum of their
// lengths.
func MakeReadV(target int, pos uint64, iov [][]byte, nowait bool) Request {
	return Request{op: OpReadV, target: target, pos: pos, iov: iov, nowait: nowait}
}

// MakeWriteV constructs a vectored write request. See MakeReadV.
func MakeWriteV(target int, pos uint64, iov [][]byte, nowait bool) Request {
	return Request{op: OpWriteV, target: target, pos: pos, iov: iov, nowait: nowait}
}

// Op returns the operation kind.
func (r Request) Op() Op { return r.op }

// Target returns the storage target identity.
func (r Request) Target() int { return r.target }

// Pos returns the byte offset within the target.
func (r Request) Pos() uint64 { return r.pos }

// NowaitWorks reports whether the backend supports non-blocking
// completion for this request.
func (r Request) NowaitWorks() bool { return r.nowait }

// Vectored reports whether the request carries a slice list rather than
// a single buffer.
func (r Request) Vectored() bool {
	return r.op == OpReadV || r.op == OpWriteV
}

// Direction returns the read/write axis of the request.
func (r Request) Direction() Direction {
	if r.op == OpWrite || r.op == OpWriteV {
		return DirWrite
	}
	return DirRead
}

// Buffer returns the scalar payload buffer. It is nil for vectored
// requests.
func (r Request) Buffer() []byte { return r.buf }

// Vector returns the ordered slice list of a vectored request. It is nil
// for scalar requests. The returned slice must not be mutated.
func (r Request) Vector() [][]byte { return r.iov }

// Size returns the total transfer size in bytes: the scalar buffer
// length, or the sum of the vectored slice lengths.
func (r Request) Size() int {
	if !r.Vectored() {
		return len(r.buf)
	}
	total := 0
	for _, v := range r.iov {
		total += len(v)
	}
	return total
}

// String renders the request for debug logging.
func (r Request) String() string {
	return fmt.Sprintf("%s target=%d pos=%d size=%d", r.op, r.target, r.pos, r.Size())
}
