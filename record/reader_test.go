package record

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/section"
	"github.com/arloliu/seiskit/seis"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	samples []int
	failed  int
}

func (o *recordingObserver) ObserveRecord(f format.Format, samples int, err error) {
	o.samples = append(o.samples, samples)
	if err != nil {
		o.failed++
	}
}

func TestReader_WorkersMatchSequential(t *testing.T) {
	ch := newTestChannel(t, testID, 100, testStart, walk(20_000, 20))
	require.NoError(t, ch.Append(testStart+250_000_000, walk(5000, 20)))
	data := writeChannel(t, format.MiniSEED, ch, WithRecordLength(512))

	seq := readAll(t, format.MiniSEED, data, WithWorkers(1))
	par := readAll(t, format.MiniSEED, data, WithWorkers(8))

	want, ok := seq.Get(testID)
	require.True(t, ok)
	got, ok := par.Get(testID)
	require.True(t, ok)

	require.Equal(t, want.X, got.X)
	require.Equal(t, want.T, got.T)
	requireSameSamples(t, ch, got)
	requireSameTimes(t, ch, got)
}

func TestReader_LaterRecordWins(t *testing.T) {
	first := newTestChannel(t, testID, 50, testStart, walk(400, 10))
	second := newTestChannel(t, testID, 50, testStart+4_000_000, walk(400, 99))

	data := writeChannel(t, format.Native, first)
	data = append(data, writeChannel(t, format.Native, second)...)

	for range 5 {
		got, ok := readAll(t, format.Native, data, WithWorkers(4)).Get(testID)
		require.True(t, ok)
		require.Equal(t, 600, got.Len())

		x := sample.Float64s(got.X)
		require.Equal(t, sample.Float64s(second.X), x[200:])
		require.Equal(t, sample.Float64s(first.X)[:200], x[:200])
	}
}

func TestReader_BadRecordsAreIsolated(t *testing.T) {
	const otherID = "UW.ELK..EHN"

	good1 := writeChannel(t, format.Native, newTestChannel(t, testID, 10, testStart, walk(100, 5)))
	good2 := writeChannel(t, format.Native, newTestChannel(t, testID, 10, testStart+10_000_000, walk(100, 5)))

	unknown := writeChannel(t, format.Native, newTestChannel(t, "UW.XXX..EHZ", 10, testStart, walk(10, 5)))
	unknown[section.SampleTypeOffset] = 0xEE

	corrupt := writeChannel(t, format.Native, newTestChannel(t, otherID, 10, testStart, walk(10, 5)))
	corrupt[len(corrupt)-1] ^= 0x55

	var data []byte
	for _, b := range [][]byte{good1, unknown, corrupt, good2} {
		data = append(data, b...)
	}

	var logs bytes.Buffer
	obs := &recordingObserver{}
	c, report := readReport(t, format.Native, data,
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithObserver(obs))

	require.False(t, report.Truncated)
	require.Equal(t, 3, report.Records)
	require.Equal(t, 200, report.Samples)
	require.Len(t, report.Warnings, 2)
	require.Equal(t, int64(len(good1)), report.Warnings[0].Offset)
	require.ErrorIs(t, report.Warnings[0], errs.ErrUnknownType)
	require.ErrorIs(t, report.Warnings[1], errs.ErrChecksumMismatch)
	require.ErrorIs(t, report.Err(), errs.ErrChecksumMismatch)

	require.Equal(t, []string{testID, otherID}, c.IDs())
	got, _ := c.Get(testID)
	require.Equal(t, 200, got.Len())
	require.Len(t, got.T, 1)
	empty, _ := c.Get(otherID)
	require.True(t, empty.IsEmpty())

	require.Equal(t, []int{100, 0, 0, 100}, obs.samples)
	require.Equal(t, 2, obs.failed)

	out := logs.String()
	require.Contains(t, out, "record skipped")
	require.Contains(t, out, "record samples dropped")
}

func TestReader_TruncatedTail(t *testing.T) {
	good := writeChannel(t, format.Native, newTestChannel(t, testID, 10, testStart, walk(100, 5)))
	data := append(append([]byte(nil), good...), good[:30]...)

	c, report := readReport(t, format.Native, data)
	require.True(t, report.Truncated)
	require.Equal(t, 1, report.Records)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, int64(len(good)), report.Warnings[0].Offset)
	require.ErrorIs(t, report.Err(), errs.ErrMalformedRecord)
	require.Equal(t, 1, c.Len())
}

func TestReader_Canceled(t *testing.T) {
	data := writeChannel(t, format.Native, newTestChannel(t, testID, 10, testStart, walk(100, 5)))

	r, err := NewReader(format.Native)
	require.NoError(t, err)
	c, err := seis.NewContainer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Read(ctx, data, c)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, c.Len())
}

func TestReader_EmptyInput(t *testing.T) {
	c, report := readReport(t, format.SAC, nil)
	require.Zero(t, c.Len())
	require.Equal(t, Report{}, report)
	require.NoError(t, report.Err())
}

func TestReader_ParserOptions(t *testing.T) {
	data := writeChannel(t, format.SAC, newTestChannel(t, testID, 10, testStart, sample.Series[float32]{1, 2, 3}))

	got, ok := readAll(t, format.SAC, data, WithParserOptions(WithSource("elk.sac"))).Get(testID)
	require.True(t, ok)
	require.Equal(t, "elk.sac", got.Src)
}

func TestNewReader_Options(t *testing.T) {
	r, err := NewReader(format.GeoCSV)
	require.NoError(t, err)
	require.Equal(t, format.GeoCSV, r.Format())

	_, err = NewReader(format.Native, WithWorkers(0))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = NewReader(format.Native, WithLogger(nil))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = NewReader(format.Format(0x7F))
	require.ErrorIs(t, err, errs.ErrUnknownFormat)
}
