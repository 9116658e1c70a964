package ioreq

// Part is one piece of a split request, sized to fit a backend transfer
// limit. Req is a standalone Request of the same kind, target and
// capability flag as the original; Size caches Req.Size() so completion
// aggregation does not re-walk the slice list.
type Part struct {
	Req  Request
	Size int
}

// Split partitions the request's payload, viewed as one logical
// contiguous byte stream, into parts of at most maxLen bytes each.
//
// Every part but the last has size exactly maxLen; the last carries the
// remainder. Part i starts at the original offset plus the bytes covered
// by parts 0..i-1. When the total size fits in maxLen the single returned
// part is the original request itself.
//
// Splitting is zero-copy: parts reference the original payload memory.
// For vectored requests, a slice that straddles a cut point is itself
// split in two at that point, preserving per-byte addressing. The
// original request must outlive all parts.
//
// maxLen must be positive; a non-positive value is a programming error.
func (r Request) Split(maxLen int) []Part {
	if maxLen <= 0 {
		panic("ioreq: split with non-positive max length")
	}

	total := r.Size()
	if total <= maxLen {
		return []Part{{Req: r, Size: total}}
	}

	if !r.Vectored() {
		return r.splitBuffer(maxLen, total)
	}
	return r.splitVector(maxLen, total)
}

func (r Request) splitBuffer(maxLen, total int) []Part {
	parts := make([]Part, 0, (total+maxLen-1)/maxLen)

	for consumed := 0; consumed < total; consumed += maxLen {
		size := min(maxLen, total-consumed)
		sub := r
		sub.pos = r.pos + uint64(consumed)
		sub.buf = r.buf[consumed : consumed+size]
		parts = append(parts, Part{Req: sub, Size: size})
	}

	return parts
}

func (r Request) splitVector(maxLen, total int) []Part {
	parts := make([]Part, 0, (total+maxLen-1)/maxLen)

	var (
		iov  [][]byte // slices accumulated for the current part
		fill int      // bytes accumulated for the current part
		pos  = r.pos
	)

	flush := func() {
		sub := r
		sub.pos = pos
		sub.iov = iov
		parts = append(parts, Part{Req: sub, Size: fill})
		pos += uint64(fill)
		iov = nil
		fill = 0
	}

	for _, v := range r.iov {
		for len(v) > 0 {
			room := maxLen - fill
			if len(v) <= room {
				iov = append(iov, v)
				fill += len(v)
				v = nil
			} else {
				// Slice straddles the cut point: take the head
				// into this part, leave the tail for the next.
				iov = append(iov, v[:room])
				fill += room
				v = v[room:]
			}
			if fill == maxLen {
				flush()
			}
		}
	}
	if fill > 0 {
		flush()
	}

	return parts
}
