// Package metrics exports decode, merge and sync activity as Prometheus
// metrics.
//
// A Collector implements both record.Observer and seis.Observer:
//
//	m, err := metrics.New(prometheus.DefaultRegisterer)
//	r, err := record.NewReader(format.MiniSEED, record.WithObserver(m))
//	c, err := seis.NewContainer(seis.WithObserver(m))
package metrics

import (
	"errors"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/record"
	"github.com/arloliu/seiskit/seis"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seiskit"

// Record outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeUnknownType    = "unknown_type"
	OutcomeMalformed      = "malformed"
	OutcomeCorruptPayload = "corrupt_payload"
	OutcomeError          = "error"
)

// Merge outcomes.
const (
	MergeOK       = "ok"
	MergeIdentity = "identity_mismatch"
	MergeFailed   = "failed"
)

var (
	_ record.Observer = (*Collector)(nil)
	_ seis.Observer   = (*Collector)(nil)
)

// Collector holds the seiskit metrics.
type Collector struct {
	records        *prometheus.CounterVec
	samples        *prometheus.CounterVec
	merges         *prometheus.CounterVec
	mergeOverlap   prometheus.Counter
	mergeConflicts prometheus.Counter
	syncs          prometheus.Counter
	syncGrid       prometheus.Gauge
	syncFilled     prometheus.Counter
	syncFlagged    prometheus.Counter
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records decoded, by format and outcome.",
		}, []string{"format", "outcome"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_decoded_total",
			Help:      "Samples carried by decoded records, by format.",
		}, []string{"format"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Channel merges performed by containers, by outcome.",
		}, []string{"outcome"}),
		mergeOverlap: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_overlap_samples_total",
			Help:      "Sample slots present in both inputs of a merge.",
		}),
		mergeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_conflicts_total",
			Help:      "Overlapping sample slots whose values disagreed.",
		}),
		syncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "Container syncs performed.",
		}),
		syncGrid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_grid_samples",
			Help:      "Grid length of the most recent sync.",
		}),
		syncFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_fill_samples_total",
			Help:      "Fill samples written by syncs.",
		}),
		syncFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_flagged_channels_total",
			Help:      "Channels left untouched by syncs.",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.records, c.samples, c.merges, c.mergeOverlap, c.mergeConflicts,
		c.syncs, c.syncGrid, c.syncFilled, c.syncFlagged,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObserveRecord counts a decoded record.
func (c *Collector) ObserveRecord(f format.Format, samples int, err error) {
	c.records.WithLabelValues(f.String(), RecordOutcome(err)).Inc()
	if samples > 0 {
		c.samples.WithLabelValues(f.String()).Add(float64(samples))
	}
}

// ObserveMerge counts a merge and its overlap.
func (c *Collector) ObserveMerge(report seis.MergeReport, err error) {
	switch {
	case err == nil:
		c.merges.WithLabelValues(MergeOK).Inc()
	case errors.Is(err, errs.ErrChannelIdentity):
		c.merges.WithLabelValues(MergeIdentity).Inc()
		return
	default:
		c.merges.WithLabelValues(MergeFailed).Inc()
		return
	}

	c.mergeOverlap.Add(float64(report.Overlap))
	c.mergeConflicts.Add(float64(report.Conflicts))
}

// ObserveSync records a sync.
func (c *Collector) ObserveSync(report seis.SyncReport) {
	c.syncs.Inc()
	c.syncGrid.Set(float64(report.Samples))
	for _, n := range report.Filled {
		c.syncFilled.Add(float64(n))
	}
	c.syncFlagged.Add(float64(len(report.Flagged)))
}

// RecordOutcome classifies a record error into an outcome label.
func RecordOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errs.ErrUnknownType):
		return OutcomeUnknownType
	case errors.Is(err, errs.ErrMalformedRecord):
		return OutcomeMalformed
	case errors.Is(err, errs.ErrCorruptPayload):
		return OutcomeCorruptPayload
	default:
		return OutcomeError
	}
}
