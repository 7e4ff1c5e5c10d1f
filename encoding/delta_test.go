package encoding

import (
	"math"
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/stretchr/testify/require"
)

func TestDeltaEncoder_Timestamps(t *testing.T) {
	enc := NewTimestampDeltaEncoder()
	defer enc.Finish()

	base := int64(1672531200000000)
	times := []int64{base, base + 10000, base + 20000, base + 30000, base + 95000}
	enc.WriteSlice(times)

	require.Equal(t, 5, enc.Len())
	require.Less(t, enc.Size(), 5*8)

	dec := NewTimestampDeltaDecoder()
	decoded, err := dec.Decode(enc.Bytes(), len(times))
	require.NoError(t, err)
	require.Equal(t, times, decoded)

	v, ok := dec.At(enc.Bytes(), 4, len(times))
	require.True(t, ok)
	require.Equal(t, base+95000, v)

	_, ok = dec.At(enc.Bytes(), 5, len(times))
	require.False(t, ok)
}

func TestDeltaEncoder_RegularSeriesIsCompact(t *testing.T) {
	enc := NewTimestampDeltaEncoder()
	defer enc.Finish()

	for i := range int64(1000) {
		enc.Write(i * 5000)
	}
	require.Less(t, enc.Size(), 1010)
}

func TestDeltaEncoder_NegativeAndIndices(t *testing.T) {
	enc := NewIndexDeltaEncoder()
	defer enc.Finish()

	values := []int64{-5, 0, 17, 17, 3}
	enc.WriteSlice(values)

	decoded, err := NewIndexDeltaDecoder().Decode(enc.Bytes(), len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestDeltaEncoder_ResetKeepsBytes(t *testing.T) {
	enc := NewTimestampDeltaEncoder()
	defer enc.Finish()

	enc.WriteSlice([]int64{100, 200})
	size := enc.Size()
	enc.Reset()
	enc.WriteSlice([]int64{-100, -50})

	require.Equal(t, 4, enc.Len())
	require.Greater(t, enc.Size(), size)

	dec := NewTimestampDeltaDecoder()
	first, err := dec.Decode(enc.Bytes()[:size], 2)
	require.NoError(t, err)
	require.Equal(t, []int64{100, 200}, first)

	second, err := dec.Decode(enc.Bytes()[size:], 2)
	require.NoError(t, err)
	require.Equal(t, []int64{-100, -50}, second)
}

func TestDeltaDecoder_Truncated(t *testing.T) {
	_, err := NewTimestampDeltaDecoder().Decode([]byte{0x02}, 3)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	_, err = NewIndexDeltaDecoder().Decode([]byte{0x80}, 1)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	_, err = NewIndexDeltaDecoder().Decode([]byte{0x02}, math.MaxInt32)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	_, err = NewIndexDeltaDecoder().Decode(nil, -1)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)
}

func TestBreakpoints_RoundTrip(t *testing.T) {
	indices := []int{0, 100, 250, 251}
	times := []int64{-1000000, -1000000 + 1000000, 2600000, 9000000}

	data, err := AppendBreakpoints([]byte{0xFE}, indices, times)
	require.NoError(t, err)
	require.Equal(t, byte(0xFE), data[0])

	gotIdx, gotTimes, err := DecodeBreakpoints(data[1:], len(indices))
	require.NoError(t, err)
	require.Equal(t, indices, gotIdx)
	require.Equal(t, times, gotTimes)
}

func TestBreakpoints_Errors(t *testing.T) {
	_, err := AppendBreakpoints(nil, []int{0}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	data, err := AppendBreakpoints(nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, data)

	idx, times, err := DecodeBreakpoints(nil, 0)
	require.NoError(t, err)
	require.Nil(t, idx)
	require.Nil(t, times)

	_, _, err = DecodeBreakpoints([]byte{0x40, 0x00}, 1)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	_, _, err = DecodeBreakpoints([]byte{0x01, 0x00, 0x00}, 0x7FFFFFF0)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	_, _, err = DecodeBreakpoints([]byte{0x01, 0x00, 0x00}, -1)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)

	full, err := AppendBreakpoints(nil, []int{0, 10}, []int64{0, 100})
	require.NoError(t, err)
	_, _, err = DecodeBreakpoints(full[:len(full)-1], 2)
	require.ErrorIs(t, err, errs.ErrInvalidTimeline)
}
