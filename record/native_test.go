package record

import (
	"math"
	"testing"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/section"
	"github.com/arloliu/seiskit/seis"
	"github.com/stretchr/testify/require"
)

func nativeChannel(t *testing.T) *seis.Channel {
	t.Helper()

	ch := newTestChannel(t, testID, 200, testStart, walk(3000, 40))
	require.NoError(t, ch.Append(testStart+30_000_000, walk(1000, 40)))
	ch.Src = "elk-2024-061.mseed"
	ch.Units = "counts"
	ch.Gain = 4.2e8
	ch.Loc.Latitude = 46.75
	ch.Loc.Depth = 12
	ch.Misc["sensor"] = "L4C"
	ch.Notes.Add("calibrated")

	return ch
}

func TestNative_Codecs(t *testing.T) {
	shuffles := []format.ShuffleType{format.ShuffleNone, format.ShuffleByte}
	compressions := []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	}

	for _, order := range []endian.Order{endian.Little, endian.Big} {
		for _, shuffle := range shuffles {
			for _, compression := range compressions {
				name := order.String() + "/" + format.NewCodecID(shuffle, compression).String()
				t.Run(name, func(t *testing.T) {
					ch := nativeChannel(t)
					got := roundTrip(t, format.Native, ch, WithCodec(shuffle, compression), WithWriteByteOrder(order))

					require.Equal(t, sample.Int32, got.Type())
					require.Equal(t, ch.X, got.X)
					require.Equal(t, ch.T, got.T)
				})
			}
		}
	}
}

func TestNative_Metadata(t *testing.T) {
	ch := nativeChannel(t)
	got := roundTrip(t, format.Native, ch)

	require.Equal(t, "elk-2024-061.mseed", got.Src)
	require.Equal(t, "counts", got.Units)
	require.InDelta(t, 4.2e8, got.Gain, 0)
	require.InDelta(t, 46.75, got.Loc.Latitude, 0)
	require.InDelta(t, 12.0, got.Loc.Depth, 0)
	require.True(t, math.IsNaN(got.Loc.Azimuth))
	require.Equal(t, "L4C", got.Misc["sensor"])
	require.Contains(t, got.Notes.Texts(), "calibrated")
}

func TestNative_SourceOverride(t *testing.T) {
	data := writeChannel(t, format.Native, nativeChannel(t))

	p, err := ParserFor(format.Native, WithSource("archive/elk.snb"))
	require.NoError(t, err)
	rec, _, err := p.Parse(data)
	require.NoError(t, err)
	require.Equal(t, "archive/elk.snb", rec.Src)
}

func TestNative_SampleTypes(t *testing.T) {
	vectors := []sample.Vector{
		sample.Series[float64]{1.5, math.Inf(-1), -0.25},
		sample.Series[uint8]{0, 128, 255},
		sample.Series[complex64]{complex(1, -1), complex(0.5, 2)},
		sample.Series[int64]{math.MinInt64, 0, math.MaxInt64},
	}

	for _, x := range vectors {
		t.Run(x.Type().String(), func(t *testing.T) {
			ch := newTestChannel(t, testID, 10, testStart, x)
			got := roundTrip(t, format.Native, ch)
			require.Equal(t, x, got.X)
		})
	}
}

func TestNative_Irregular(t *testing.T) {
	ch, err := seis.NewChannel(testID, 0, sample.Float32)
	require.NoError(t, err)
	for i, offset := range []int64{0, 3, 900, 1_000_000} {
		require.NoError(t, ch.Append(testStart+offset, sample.Series[float32]{float32(i) / 4}))
	}

	got := roundTrip(t, format.Native, ch, WithCodec(format.ShuffleByte, format.CompressionS2))
	require.Zero(t, got.Fs)
	require.Equal(t, ch.T, got.T)
	require.Equal(t, ch.X, got.X)
}

func TestNative_Empty(t *testing.T) {
	ch, err := seis.NewChannel(testID, 100, sample.Int16)
	require.NoError(t, err)

	data := writeChannel(t, format.Native, ch, WithCodec(format.ShuffleNone, format.CompressionNone))

	p, err := ParserFor(format.Native)
	require.NoError(t, err)
	rec, n, err := p.Parse(data)
	require.NoError(t, err)
	require.Len(t, data, n)
	require.Zero(t, rec.Len())
	require.Equal(t, sample.Int16, rec.Type)
	require.Nil(t, rec.Breakpoints)
}

func TestNative_ChecksumMismatch(t *testing.T) {
	data := writeChannel(t, format.Native, nativeChannel(t))
	data[len(data)-1] ^= 0xFF

	p, err := ParserFor(format.Native)
	require.NoError(t, err)
	rec, n, err := p.Parse(data)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	require.Len(t, data, n)

	require.NotNil(t, rec)
	require.Zero(t, rec.Len())
	require.Equal(t, "counts", rec.Units)
	require.Equal(t, testID, rec.ID())

	c, report := readReport(t, format.Native, data)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, 1, report.Records)
	got, ok := c.Get(testID)
	require.True(t, ok)
	require.True(t, got.IsEmpty())
}

func TestNative_Errors(t *testing.T) {
	p, err := ParserFor(format.Native)
	require.NoError(t, err)
	valid := writeChannel(t, format.Native, nativeChannel(t))

	t.Run("unknown sample type", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[section.SampleTypeOffset] = 0xEE
		_, _, err := p.Parse(data)

		var unknown *errs.UnknownTypeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, 0xEE, unknown.Tag)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := p.Parse(valid[:len(valid)-10])
		require.ErrorIs(t, err, errs.ErrMalformedRecord)

		_, _, err = p.Parse(valid[:20])
		require.ErrorIs(t, err, errs.ErrMalformedRecord)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[1] = 0x00
		_, err := p.Frame(data)
		require.ErrorIs(t, err, errs.ErrMalformedRecord)
	})

	t.Run("section lengths", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		engine := endian.Little.Engine()
		engine.PutUint32(data[section.MetaLengthOffset:], engine.Uint32(data[section.MetaLengthOffset:])+1)
		_, _, err := p.Parse(data)
		require.ErrorIs(t, err, errs.ErrMalformedRecord)
	})

	t.Run("breakpoint count", func(t *testing.T) {
		engine := endian.Little.Engine()
		for _, count := range []uint32{0x7FFFFFF0, math.MaxUint32} {
			data := append([]byte(nil), valid...)
			engine.PutUint32(data[section.BreakpointCountOffset:], count)
			_, _, err := p.Parse(data)
			require.ErrorIs(t, err, errs.ErrMalformedRecord)
		}

		data := append([]byte(nil), valid...)
		engine.PutUint32(data[section.BreakpointCountOffset:], engine.Uint32(data[section.BreakpointLengthOffset:]))
		_, _, err := p.Parse(data)
		require.ErrorIs(t, err, errs.ErrMalformedRecord)
	})

	t.Run("sample count", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		endian.Little.Engine().PutUint32(data[section.SampleCountOffset:], math.MaxUint32)
		_, _, err := p.Parse(data)
		require.ErrorIs(t, err, errs.ErrMalformedRecord)
	})

	t.Run("write invalid ID", func(t *testing.T) {
		w, err := WriterFor(format.Native)
		require.NoError(t, err)
		ch := newTestChannel(t, "ELK", 1, testStart, walk(2, 1))
		_, err = w.WriteChannel(nil, ch)
		require.ErrorIs(t, err, errs.ErrInvalidChannelID)
	})
}
