package seiskit

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/record"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
	"github.com/stretchr/testify/require"
)

const testStart int64 = 1_709_294_400_000_000

func newChannel(t *testing.T, id string, x sample.Vector) *seis.Channel {
	t.Helper()

	ch, err := seis.NewChannel(id, 100, x.Type())
	require.NoError(t, err)
	require.NoError(t, ch.Append(testStart, x))

	return ch
}

// uwFile lays out a one-channel UW-2 file of big-endian int32 samples.
func uwFile(x sample.Series[int32]) []byte {
	be := binary.BigEndian
	buf := make([]byte, 132)
	be.PutUint16(buf, 1)
	buf[44] = '2'
	for _, v := range x {
		buf = be.AppendUint32(buf, uint32(v)) //nolint:gosec
	}

	hdr := make([]byte, 56)
	be.PutUint32(hdr, uint32(len(x)))  //nolint:gosec
	be.PutUint32(hdr[4:], 132)         // sample offset
	be.PutUint32(hdr[8:], 221_000_000) // minutes since 1600
	be.PutUint32(hdr[16:], 100_000)    // samples per 1000 s
	copy(hdr[32:], "ELK")
	hdr[40] = 'L'
	copy(hdr[44:], "EHZ")
	chOff := len(buf)
	buf = append(buf, hdr...)

	buf = append(buf, "CH2 "...)
	buf = be.AppendUint32(buf, 1)
	buf = be.AppendUint32(buf, uint32(chOff)) //nolint:gosec

	return be.AppendUint32(buf, 1)
}

func ramp(n int) sample.Series[int32] {
	out := make(sample.Series[int32], n)
	for i := range out {
		out[i] = int32(i*7%113 - 56)
	}

	return out
}

func TestReadWrite(t *testing.T) {
	src, err := seis.NewContainer()
	require.NoError(t, err)
	_, err = src.Add(newChannel(t, "UW.ELK..EHZ", ramp(500)))
	require.NoError(t, err)
	_, err = src.Add(newChannel(t, "UW.ELK..EHN", ramp(300)))
	require.NoError(t, err)

	for _, f := range []format.Format{format.Native, format.MiniSEED, format.GeoCSV} {
		t.Run(f.String(), func(t *testing.T) {
			data, err := Write(src, f)
			require.NoError(t, err)

			c, report, err := Read(context.Background(), f, data)
			require.NoError(t, err)
			require.Empty(t, report.Warnings)
			require.Equal(t, src.IDs(), c.IDs())

			for _, id := range src.IDs() {
				want, _ := src.Get(id)
				got, ok := c.Get(id)
				require.True(t, ok)
				require.Equal(t, sample.Float64s(want.X), sample.Float64s(got.X))
				require.Equal(t, want.Times(), got.Times())
			}
		})
	}
}

func TestReadInto_Merges(t *testing.T) {
	c, err := seis.NewContainer()
	require.NoError(t, err)

	ch := newChannel(t, "UW.ELK..EHZ", ramp(200))
	first, err := WriteChannel(ch, format.Native)
	require.NoError(t, err)

	later, err := seis.NewChannel("UW.ELK..EHZ", 100, sample.Int32)
	require.NoError(t, err)
	require.NoError(t, later.Append(testStart+2_000_000, ramp(100)))
	second, err := WriteChannel(later, format.Native)
	require.NoError(t, err)

	_, err = ReadInto(context.Background(), c, format.Native, first)
	require.NoError(t, err)
	_, err = ReadInto(context.Background(), c, format.Native, second)
	require.NoError(t, err)

	got, ok := c.Get("UW.ELK..EHZ")
	require.True(t, ok)
	require.Equal(t, 300, got.Len())
	require.Len(t, got.T, 1)
}

func TestDetect(t *testing.T) {
	x, err := ramp(64).Convert(sample.Float32)
	require.NoError(t, err)
	ch := newChannel(t, "UW.ELK..EHZ", x)

	for _, f := range []format.Format{format.Native, format.SAC, format.MiniSEED, format.GeoCSV} {
		data, err := WriteChannel(ch, f)
		require.NoError(t, err)

		got, ok := Detect(data)
		require.True(t, ok, f.String())
		require.Equal(t, f, got)

		c, _, err := ReadAuto(context.Background(), data)
		require.NoError(t, err)
		require.Equal(t, 1, c.Len())
	}

	uw := uwFile(ramp(4))
	got, ok := Detect(uw)
	require.True(t, ok)
	require.Equal(t, format.UW, got)
	c, _, err := ReadAuto(context.Background(), uw)
	require.NoError(t, err)
	require.Equal(t, []string{"UW.ELK..EHZ"}, c.IDs())

	_, ok = Detect([]byte("not a waveform"))
	require.False(t, ok)

	_, _, err = ReadAuto(context.Background(), nil)
	require.ErrorIs(t, err, errs.ErrUnknownFormat)
}

func TestErrors(t *testing.T) {
	c, err := seis.NewContainer()
	require.NoError(t, err)

	_, err = Write(c, format.SEGY)
	require.ErrorIs(t, err, errs.ErrWriteUnsupported)

	_, err = WriteChannel(newChannel(t, "ELK", ramp(3)), format.SAC)
	require.ErrorIs(t, err, errs.ErrInvalidChannelID)

	_, _, err = Read(context.Background(), format.Native, nil, record.WithWorkers(-1))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data, err := WriteChannel(newChannel(t, "UW.ELK..EHZ", ramp(3)), format.Native)
	require.NoError(t, err)
	_, _, err = Read(ctx, format.Native, data)
	require.ErrorIs(t, err, context.Canceled)
}
