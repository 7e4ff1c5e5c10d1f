package section

import (
	"math"
	"testing"
	"time"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/stretchr/testify/require"
)

func newTestHeader() NativeHeader {
	h := NativeHeader{
		Flag:            NewNativeFlag(sample.Int32, format.NewCodecID(format.ShuffleByte, format.CompressionZstd)),
		StartTime:       time.Date(2004, 9, 28, 17, 15, 24, 0, time.UTC).UnixMicro(),
		SampleRate:      100,
		SampleCount:     1000,
		BreakpointCount: 2,
		Checksum:        0xDEADBEEF,
	}
	h.SetSections(40, 9, 2100)

	return h
}

func TestNativeHeader_RoundTrip(t *testing.T) {
	for _, order := range []endian.Order{endian.Little, endian.Big} {
		t.Run(order.String(), func(t *testing.T) {
			original := newTestHeader()
			original.Flag.WithOrder(order)

			data := original.Bytes()
			require.Len(t, data, HeaderSize)

			parsed, err := ParseNativeHeader(data)
			require.NoError(t, err)
			require.Equal(t, original, parsed)
			require.Equal(t, order == endian.Big, parsed.Flag.IsBigEndian())
			require.Equal(t, sample.Int32, parsed.Flag.Type())
			require.Equal(t, format.CompressionZstd, parsed.Flag.CodecID().Compression())
			require.Equal(t, 2004, parsed.StartTimeAsTime().UTC().Year())

			n, err := PeekBlockLength(data)
			require.NoError(t, err)
			require.Equal(t, HeaderSize+40+9+2100, n)
		})
	}
}

func TestNativeHeader_Offsets(t *testing.T) {
	h := newTestHeader()

	require.Equal(t, HeaderSize, h.MetaOffset())
	require.Equal(t, HeaderSize+40, h.BreakpointOffset())
	require.Equal(t, HeaderSize+49, h.PayloadOffset())
	require.Equal(t, uint32(HeaderSize+2149), h.BlockLength)
}

func TestNativeHeader_OptionsAlwaysLittleEndian(t *testing.T) {
	h := newTestHeader()
	h.Flag.WithBigEndian()
	data := h.Bytes()

	require.Equal(t, byte(0x12), data[0])
	require.Equal(t, byte(0x5E), data[1])
}

func TestNativeHeader_Errors(t *testing.T) {
	t.Run("Invalid size", func(t *testing.T) {
		_, err := ParseNativeHeader([]byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

		h := &NativeHeader{}
		require.ErrorIs(t, h.Parse(make([]byte, HeaderSize+1)), errs.ErrInvalidHeaderSize)
	})

	t.Run("Invalid magic number", func(t *testing.T) {
		h := newTestHeader()
		data := h.Bytes()
		data[1] = 0xEA
		_, err := ParseNativeHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)

		_, err = PeekBlockLength(data)
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("Reserved bits", func(t *testing.T) {
		h := newTestHeader()
		data := h.Bytes()
		data[0] |= 0x04
		_, err := ParseNativeHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
	})

	t.Run("Unknown sample type", func(t *testing.T) {
		h := newTestHeader()
		data := h.Bytes()
		data[SampleTypeOffset] = 0xEE
		_, err := ParseNativeHeader(data)
		require.ErrorIs(t, err, errs.ErrUnknownType)

		var unknown *errs.UnknownTypeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, 0xEE, unknown.Tag)
	})

	t.Run("Invalid codec", func(t *testing.T) {
		h := newTestHeader()
		data := h.Bytes()
		data[CodecOffset] = 0x07
		_, err := ParseNativeHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)

		data[CodecOffset] = 0x21
		_, err = ParseNativeHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
	})

	t.Run("Inconsistent block length", func(t *testing.T) {
		h := newTestHeader()
		h.BlockLength++
		_, err := ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("Negative rate", func(t *testing.T) {
		h := newTestHeader()
		h.SampleRate = -1
		_, err := ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidSampleRate)
	})

	t.Run("Irregular flag mismatch", func(t *testing.T) {
		h := newTestHeader()
		h.Flag.SetIrregular(true)
		_, err := ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)

		h.SampleRate = 0
		_, err = ParseNativeHeader(h.Bytes())
		require.NoError(t, err)
	})

	t.Run("Breakpoint count exceeds table", func(t *testing.T) {
		h := newTestHeader()
		h.BreakpointCount = 0x7FFFFFF0
		_, err := ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidTimeline)

		h.BreakpointCount = 10
		_, err = ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidTimeline)
	})

	t.Run("Sample count exceeds payload limit", func(t *testing.T) {
		h := newTestHeader()
		h.SampleCount = math.MaxUint32
		_, err := ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrLengthMismatch)
	})

	t.Run("Samples without breakpoints", func(t *testing.T) {
		h := newTestHeader()
		h.BreakpointCount = 0
		_, err := ParseNativeHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidTimeline)
	})
}
