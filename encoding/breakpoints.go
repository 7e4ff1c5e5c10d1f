package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/seiskit/errs"
)

// AppendBreakpoints appends a breakpoint table to dst as two columns: the
// uvarint byte length of the index column, the first-order delta coded
// indices, then the delta-of-delta coded times.
func AppendBreakpoints(dst []byte, indices []int, times []int64) ([]byte, error) {
	if len(indices) != len(times) {
		return dst, fmt.Errorf("%w: %d indices, %d times", errs.ErrInvalidTimeline, len(indices), len(times))
	}
	if len(indices) == 0 {
		return dst, nil
	}

	idx := NewIndexDeltaEncoder()
	defer idx.Finish()
	for _, i := range indices {
		idx.Write(int64(i))
	}

	ts := NewTimestampDeltaEncoder()
	defer ts.Finish()
	ts.WriteSlice(times)

	dst = binary.AppendUvarint(dst, uint64(idx.Size())) //nolint:gosec
	dst = append(dst, idx.Bytes()...)

	return append(dst, ts.Bytes()...), nil
}

// DecodeBreakpoints decodes count breakpoints written by AppendBreakpoints.
func DecodeBreakpoints(data []byte, count int) ([]int, []int64, error) {
	if count == 0 {
		return nil, nil, nil
	}
	// Each entry takes at least one byte in each column.
	if count < 0 || count > len(data) {
		return nil, nil, fmt.Errorf("%w: %d breakpoints in %d bytes", errs.ErrInvalidTimeline, count, len(data))
	}

	size, n := binary.Uvarint(data)
	if n <= 0 || uint64(len(data)-n) < size {
		return nil, nil, fmt.Errorf("%w: breakpoint index column truncated", errs.ErrInvalidTimeline)
	}

	column := data[n : n+int(size)] //nolint:gosec
	raw, err := NewIndexDeltaDecoder().Decode(column, count)
	if err != nil {
		return nil, nil, err
	}

	times, err := NewTimestampDeltaDecoder().Decode(data[n+int(size):], count) //nolint:gosec
	if err != nil {
		return nil, nil, err
	}

	indices := make([]int, count)
	for i, v := range raw {
		indices[i] = int(v)
	}

	return indices, times, nil
}
