package record

import (
	"context"
	"testing"

	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
	"github.com/stretchr/testify/require"
)

const testID = "UW.ELK..EHZ"

// testStart is 2024-03-01T12:00:00.123456Z.
const testStart int64 = 1_709_294_400_123_456

// walk returns n int32 samples of a deterministic random walk.
func walk(n int, step int32) sample.Series[int32] {
	out := make(sample.Series[int32], n)
	seed := uint32(99)
	v := int32(0)
	for i := range out {
		seed = seed*1103515245 + 12345
		v += int32(seed>>16)%(2*step+1) - step //nolint:gosec
		out[i] = v
	}

	return out
}

func newTestChannel(t *testing.T, id string, fs float64, start int64, x sample.Vector) *seis.Channel {
	t.Helper()

	ch, err := seis.NewChannel(id, fs, x.Type())
	require.NoError(t, err)
	require.NoError(t, ch.Append(start, x))

	return ch
}

// writeChannel serializes ch with the writer of format f.
func writeChannel(t *testing.T, f format.Format, ch *seis.Channel, opts ...WriterOption) []byte {
	t.Helper()

	w, err := WriterFor(f, opts...)
	require.NoError(t, err)
	require.Equal(t, f, w.Format())

	data, err := w.WriteChannel(nil, ch)
	require.NoError(t, err)

	return data
}

// readAll decodes data into a fresh container and fails on any warning.
func readAll(t *testing.T, f format.Format, data []byte, opts ...ReaderOption) *seis.Container {
	t.Helper()

	c, report := readReport(t, f, data, opts...)
	require.Empty(t, report.Warnings)
	require.NoError(t, report.Err())

	return c
}

func readReport(t *testing.T, f format.Format, data []byte, opts ...ReaderOption) (*seis.Container, Report) {
	t.Helper()

	r, err := NewReader(f, opts...)
	require.NoError(t, err)

	c, err := seis.NewContainer()
	require.NoError(t, err)

	report, err := r.Read(context.Background(), data, c)
	require.NoError(t, err)

	return c, report
}

// roundTrip writes ch in format f, reads it back and returns the channel
// with ch's ID.
func roundTrip(t *testing.T, f format.Format, ch *seis.Channel, opts ...WriterOption) *seis.Channel {
	t.Helper()

	c := readAll(t, f, writeChannel(t, f, ch, opts...))
	got, ok := c.Get(ch.ID)
	require.True(t, ok, "channel %s missing after round trip", ch.ID)
	require.NoError(t, got.Validate())

	return got
}

func requireSameSamples(t *testing.T, want, got *seis.Channel) {
	t.Helper()

	require.Equal(t, want.Len(), got.Len())
	require.Equal(t, sample.Float64s(want.X), sample.Float64s(got.X))
}

func requireSameTimes(t *testing.T, want, got *seis.Channel) {
	t.Helper()

	require.Equal(t, want.Times(), got.Times())
}
