package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/record"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const testID = "UW.ELK..EHZ"

func newCollector(t *testing.T) *Collector {
	t.Helper()

	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	return c
}

func TestRecordOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{&errs.UnknownTypeError{Format: "MiniSEED", Tag: 99}, OutcomeUnknownType},
		{errs.Malformed("SAC", 0, "short"), OutcomeMalformed},
		{&errs.CorruptPayloadError{Codec: "zstd", Err: errs.ErrChecksumMismatch}, OutcomeCorruptPayload},
		{fmt.Errorf("wrapped: %w", errs.ErrCorruptPayload), OutcomeCorruptPayload},
		{errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, RecordOutcome(tt.err))
	}
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err, "metrics are registered once per registry")
}

func TestCollector_ObserveRecord(t *testing.T) {
	c := newCollector(t)

	c.ObserveRecord(format.MiniSEED, 400, nil)
	c.ObserveRecord(format.MiniSEED, 100, nil)
	c.ObserveRecord(format.MiniSEED, 0, errs.Malformed("MiniSEED", 0, "bad"))

	require.InDelta(t, 2.0, testutil.ToFloat64(c.records.WithLabelValues("MiniSEED", OutcomeOK)), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("MiniSEED", OutcomeMalformed)), 0)
	require.InDelta(t, 500.0, testutil.ToFloat64(c.samples.WithLabelValues("MiniSEED")), 0)
}

func TestCollector_ObserveMerge(t *testing.T) {
	c := newCollector(t)

	c.ObserveMerge(seis.MergeReport{ID: testID, Overlap: 50, Conflicts: 3}, nil)
	c.ObserveMerge(seis.MergeReport{ID: testID}, &errs.IdentityError{ID: testID, Field: "fs", A: 100.0, B: 50.0})
	c.ObserveMerge(seis.MergeReport{ID: testID}, errs.ErrTypeMismatch)

	require.InDelta(t, 1.0, testutil.ToFloat64(c.merges.WithLabelValues(MergeOK)), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(c.merges.WithLabelValues(MergeIdentity)), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(c.merges.WithLabelValues(MergeFailed)), 0)
	require.InDelta(t, 50.0, testutil.ToFloat64(c.mergeOverlap), 0)
	require.InDelta(t, 3.0, testutil.ToFloat64(c.mergeConflicts), 0)
}

func TestCollector_ObserveSync(t *testing.T) {
	c := newCollector(t)

	c.ObserveSync(seis.SyncReport{
		Samples: 200,
		Filled:  map[string]int{"A": 10, "B": 5},
		Flagged: map[string]error{"C": &errs.RateMismatchError{ID: "C", Fs: 40, Target: 100}},
	})

	require.InDelta(t, 1.0, testutil.ToFloat64(c.syncs), 0)
	require.InDelta(t, 200.0, testutil.ToFloat64(c.syncGrid), 0)
	require.InDelta(t, 15.0, testutil.ToFloat64(c.syncFilled), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(c.syncFlagged), 0)
}

func TestCollector_Pipeline(t *testing.T) {
	m := newCollector(t)

	ch, err := seis.NewChannel(testID, 10, sample.Int32)
	require.NoError(t, err)
	require.NoError(t, ch.Append(1_709_294_400_000_000, sample.Series[int32]{1, 2, 3, 4}))

	w, err := record.WriterFor(format.Native)
	require.NoError(t, err)
	block, err := w.WriteChannel(nil, ch)
	require.NoError(t, err)
	data := append(append([]byte(nil), block...), block...)

	c, err := seis.NewContainer(seis.WithObserver(m))
	require.NoError(t, err)
	r, err := record.NewReader(format.Native, record.WithObserver(m))
	require.NoError(t, err)

	report, err := r.Read(context.Background(), data, c)
	require.NoError(t, err)
	require.Equal(t, 2, report.Records)

	_, err = c.Sync(0, 0, seis.MostCommonRate())
	require.NoError(t, err)

	require.InDelta(t, 2.0, testutil.ToFloat64(m.records.WithLabelValues("Native", OutcomeOK)), 0)
	require.InDelta(t, 8.0, testutil.ToFloat64(m.samples.WithLabelValues("Native")), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(m.merges.WithLabelValues(MergeOK)), 0)
	require.InDelta(t, 4.0, testutil.ToFloat64(m.mergeOverlap), 0)
	require.InDelta(t, 0.0, testutil.ToFloat64(m.mergeConflicts), 0)
	require.InDelta(t, 4.0, testutil.ToFloat64(m.syncGrid), 0)
}
