package ioreq

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ensurePart checks the invariants every split part must satisfy against
// its originating request.
func ensurePart(t *testing.T, orig Request, p Part, pos uint64, size int) {
	t.Helper()
	require.Equal(t, orig.Op(), p.Req.Op())
	require.Equal(t, orig.Target(), p.Req.Target())
	require.Equal(t, orig.NowaitWorks(), p.Req.NowaitWorks())
	require.Equal(t, pos, p.Req.Pos())
	require.Equal(t, size, p.Req.Size())
	require.Equal(t, size, p.Size)
}

func TestRequestSize(t *testing.T) {
	buf := make([]byte, 17)
	require.Equal(t, 17, MakeRead(1, 0, buf, false).Size())

	iov := [][]byte{buf[:5], buf[5:9], buf[9:]}
	require.Equal(t, 17, MakeWriteV(1, 0, iov, false).Size())

	require.Equal(t, 0, MakeWrite(1, 0, nil, false).Size())
}

func TestRequestDirection(t *testing.T) {
	buf := make([]byte, 4)
	assert.Equal(t, DirRead, MakeRead(0, 0, buf, false).Direction())
	assert.Equal(t, DirRead, MakeReadV(0, 0, [][]byte{buf}, false).Direction())
	assert.Equal(t, DirWrite, MakeWrite(0, 0, buf, false).Direction())
	assert.Equal(t, DirWrite, MakeWriteV(0, 0, [][]byte{buf}, false).Direction())
}

func TestSplitNoSplit(t *testing.T) {
	buf := make([]byte, 17)
	req := MakeRead(5, 13, buf, true)

	parts := req.Split(21)
	require.Len(t, parts, 1)
	ensurePart(t, req, parts[0], 13, 17)

	// Zero-copy: the single part is the original buffer.
	parts[0].Req.Buffer()[0] = 0xA5
	assert.Equal(t, byte(0xA5), buf[0])
}

func TestSplitWithoutTail(t *testing.T) {
	buf := make([]byte, 24)
	req := MakeRead(7, 24, buf, true)

	parts := req.Split(12)
	require.Len(t, parts, 2)
	ensurePart(t, req, parts[0], 24, 12)
	ensurePart(t, req, parts[1], 24+12, 12)

	// Parts address disjoint halves of the original memory.
	require.Same(t, &buf[0], &parts[0].Req.Buffer()[0])
	require.Same(t, &buf[12], &parts[1].Req.Buffer()[0])
}

func TestSplitWithTail(t *testing.T) {
	buf := make([]byte, 33)
	req := MakeRead(9, 42, buf, true)

	parts := req.Split(13)
	require.Len(t, parts, 3)
	ensurePart(t, req, parts[0], 42, 13)
	ensurePart(t, req, parts[1], 42+13, 13)
	ensurePart(t, req, parts[2], 42+26, 7)

	require.Same(t, &buf[0], &parts[0].Req.Buffer()[0])
	require.Same(t, &buf[13], &parts[1].Req.Buffer()[0])
	require.Same(t, &buf[26], &parts[2].Req.Buffer()[0])
}

func TestSplitNonPositiveMaxLen(t *testing.T) {
	req := MakeWrite(1, 0, make([]byte, 8), false)
	assert.Panics(t, func() { req.Split(0) })
	assert.Panics(t, func() { req.Split(-3) })
}

// TestSplitVectored drives randomized vectored splits and verifies that
// the parts exactly tile the original payload: every byte is reachable
// through exactly one part slice, offsets accumulate, and all parts but
// the last are full.
func TestSplitVectored(t *testing.T) {
	const iterations = 256

	large := make([]byte, 1025)
	rng := rand.New(rand.NewSource(1))

	bump := func(iov [][]byte) {
		for _, v := range iov {
			for i := range v {
				v[i]++
			}
		}
	}

	for iter := 0; iter < iterations; iter++ {
		for i := range large {
			large[i] = 0
		}

		// Carve 1..13 adjacent slices of 1..31 bytes out of the buffer.
		nrVecs := rng.Intn(13) + 1
		var iov [][]byte
		total := 0
		for i := 0; i < nrVecs; i++ {
			n := rng.Intn(31) + 1
			iov = append(iov, large[total:total+n])
			total += n
		}

		bump(iov)

		filePos := uint64(rng.Intn(31) + 1)
		req := MakeReadV(5, filePos, iov, true)
		require.Equal(t, total, req.Size())

		maxLen := (rng.Intn(31) + 1) * 3
		nrParts := (total + maxLen - 1) / maxLen

		parts := req.Split(maxLen)
		require.Len(t, parts, nrParts)

		partsTotal := 0
		for p, part := range parts {
			ensurePart(t, req, part, filePos+uint64(partsTotal), part.Size)
			if p < nrParts-1 {
				require.Equal(t, maxLen, part.Size)
			}
			if nrParts > 1 {
				require.True(t, part.Req.Vectored())
			}
			partsTotal += part.Size
			bump(part.Req.Vector())
		}
		require.Equal(t, total, partsTotal)

		// Every payload byte was bumped once by the original iov and
		// once through exactly one part; bytes past the payload stay 0.
		for i, b := range large {
			if i < total {
				require.Equal(t, byte(2), b, "byte %d covered %d times", i, b)
			} else {
				require.Equal(t, byte(0), b, "trailing byte %d touched", i)
			}
		}
	}
}

func TestSplitVectoredStraddle(t *testing.T) {
	buf := make([]byte, 20)
	iov := [][]byte{buf[:8], buf[8:20]} // cut at 10 lands inside the second slice
	req := MakeWriteV(3, 100, iov, false)

	parts := req.Split(10)
	require.Len(t, parts, 2)

	ensurePart(t, req, parts[0], 100, 10)
	ensurePart(t, req, parts[1], 110, 10)

	// First part: the whole first slice plus the head of the second.
	require.Len(t, parts[0].Req.Vector(), 2)
	require.Same(t, &buf[0], &parts[0].Req.Vector()[0][0])
	require.Same(t, &buf[8], &parts[0].Req.Vector()[1][0])
	require.Len(t, parts[0].Req.Vector()[1], 2)

	// Second part: the tail of the second slice.
	require.Len(t, parts[1].Req.Vector(), 1)
	require.Same(t, &buf[10], &parts[1].Req.Vector()[0][0])
}
