package encoding

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/internal/pool"
)

// DeltaEncoder implements ColumnarEncoder[int64] with zigzag varint deltas.
//
// First-order mode (indices) stores the first value followed by consecutive
// differences. Second-order mode (timestamps) stores the first value, the
// first delta, then delta-of-deltas, so a regular series such as the
// per-sample breakpoints of an irregular channel costs about one byte per value.
//
// Every value, including the first, is zigzag encoded so pre-1970 times
// (negative microseconds) stay compact.
type DeltaEncoder struct {
	secondOrder bool
	prev        int64
	prevDelta   int64
	temp        [binary.MaxVarintLen64]byte
	buf         *pool.ByteBuffer
	count       int
	seqCount    int
}

var _ ColumnarEncoder[int64] = (*DeltaEncoder)(nil)

// NewIndexDeltaEncoder creates a first-order delta encoder for sample indices.
func NewIndexDeltaEncoder() *DeltaEncoder {
	return &DeltaEncoder{buf: pool.GetRecordBuffer()}
}

// NewTimestampDeltaEncoder creates a delta-of-delta encoder for microsecond timestamps.
func NewTimestampDeltaEncoder() *DeltaEncoder {
	return &DeltaEncoder{secondOrder: true, buf: pool.GetRecordBuffer()}
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63)) //nolint:gosec
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}

func (e *DeltaEncoder) put(v int64) {
	n := binary.PutUvarint(e.temp[:], zigzag(v))
	e.buf.MustWrite(e.temp[:n])
}

// Write encodes a single value.
func (e *DeltaEncoder) Write(v int64) {
	e.count++
	e.seqCount++
	e.buf.Grow(binary.MaxVarintLen64)

	switch {
	case e.seqCount == 1:
		e.put(v)
	case e.seqCount == 2 || !e.secondOrder:
		delta := v - e.prev
		e.put(delta)
		e.prevDelta = delta
	default:
		delta := v - e.prev
		e.put(delta - e.prevDelta)
		e.prevDelta = delta
	}

	e.prev = v
}

// WriteSlice encodes values in order.
func (e *DeltaEncoder) WriteSlice(values []int64) {
	e.buf.Grow(len(values) * 2)
	for _, v := range values {
		e.Write(v)
	}
}

func (e *DeltaEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *DeltaEncoder) Len() int {
	return e.count
}

func (e *DeltaEncoder) Size() int {
	return e.buf.Len()
}

// Reset starts a new sequence; the accumulated bytes are kept.
func (e *DeltaEncoder) Reset() {
	e.prev = 0
	e.prevDelta = 0
	e.seqCount = 0
}

// Finish returns the buffer to the pool. The encoder must not be used afterwards.
func (e *DeltaEncoder) Finish() {
	pool.PutRecordBuffer(e.buf)
	e.buf = nil
	e.count = 0
	e.Reset()
}

// DeltaDecoder decodes data produced by the DeltaEncoder of the same order.
type DeltaDecoder struct {
	secondOrder bool
}

var _ ColumnarDecoder[int64] = DeltaDecoder{}

func NewIndexDeltaDecoder() DeltaDecoder {
	return DeltaDecoder{}
}

func NewTimestampDeltaDecoder() DeltaDecoder {
	return DeltaDecoder{secondOrder: true}
}

// All yields up to count decoded values, stopping early on truncated data.
func (d DeltaDecoder) All(data []byte, count int) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		var cur, prevDelta int64
		offset := 0

		for i := 0; i < count; i++ {
			u, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n
			v := unzigzag(u)

			switch {
			case i == 0:
				cur = v
			case i == 1 || !d.secondOrder:
				prevDelta = v
				cur += v
			default:
				prevDelta += v
				cur += prevDelta
			}

			if !yield(cur) {
				return
			}
		}
	}
}

// At returns the value at index by decoding the prefix.
func (d DeltaDecoder) At(data []byte, index int, count int) (int64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	i := 0
	for v := range d.All(data, index+1) {
		if i == index {
			return v, true
		}
		i++
	}

	return 0, false
}

// Decode returns exactly count values or an error wrapping ErrInvalidTimeline
// when data is truncated.
func (d DeltaDecoder) Decode(data []byte, count int) ([]int64, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", errs.ErrInvalidTimeline, count)
	}
	out := make([]int64, 0, min(count, len(data)))
	for v := range d.All(data, count) {
		out = append(out, v)
	}
	if len(out) != count {
		return nil, fmt.Errorf("%w: decoded %d of %d values", errs.ErrInvalidTimeline, len(out), count)
	}

	return out, nil
}
