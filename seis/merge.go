package seis

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"time"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/internal/options"
	"github.com/arloliu/seiskit/internal/pool"
	"github.com/arloliu/seiskit/sample"
)

// MergeConfig holds merge options.
type MergeConfig struct {
	tolerance time.Duration
	hasTol    bool
	logger    *slog.Logger
}

// MergeOption configures Merge.
type MergeOption = options.Option[*MergeConfig]

// WithGapTolerance sets how far a sample may deviate from its expected time
// before a new breakpoint is started. Defaults to half a sample period.
func WithGapTolerance(d time.Duration) MergeOption {
	return options.New(func(c *MergeConfig) error {
		if d < 0 {
			return errs.ErrInvalidConfig
		}
		c.tolerance = d
		c.hasTol = true

		return nil
	})
}

// WithMergeLogger sets the logger used for conflict diagnostics.
func WithMergeLogger(logger *slog.Logger) MergeOption {
	return options.NoError(func(c *MergeConfig) {
		c.logger = logger
	})
}

func (c *MergeConfig) toleranceFor(fs float64) int64 {
	if c.hasTol {
		return c.tolerance.Microseconds()
	}

	return int64(periodMicros(fs) / 2)
}

// MergeReport summarizes a merge.
type MergeReport struct {
	ID string
	// Overlap is the number of sample slots present in both inputs.
	Overlap int
	// Conflicts is the number of overlapping slots whose values differ.
	Conflicts int
	// Breakpoints is the length of the resulting timeline.
	Breakpoints int
}

// CheckIdentity reports whether a and b describe the same stream: equal ID,
// rate and sample type, and matching units and location wherever both sides
// define them. Returns *errs.IdentityError otherwise.
func CheckIdentity(a, b *Channel) error {
	switch {
	case a.ID != b.ID:
		return &errs.IdentityError{ID: a.ID, Field: "id", A: a.ID, B: b.ID}
	case a.Fs != b.Fs:
		return &errs.IdentityError{ID: a.ID, Field: "fs", A: a.Fs, B: b.Fs}
	case a.Type() != b.Type():
		return &errs.IdentityError{ID: a.ID, Field: "type", A: a.Type(), B: b.Type()}
	case a.Units != "" && b.Units != "" && a.Units != b.Units:
		return &errs.IdentityError{ID: a.ID, Field: "units", A: a.Units, B: b.Units}
	}

	if field, va, vb, bad := a.Loc.conflict(b.Loc); bad {
		return &errs.IdentityError{ID: a.ID, Field: field, A: va, B: vb}
	}

	return nil
}

// Merge combines two channels of the same stream into a new channel.
//
// Samples of a and b are placed on one timeline. Two samples whose times
// differ by less than half a sample period (or are equal, for irregular
// channels) occupy the same slot and b's sample wins; slots where the values
// differ (NaN agrees with NaN) are counted as conflicts. The breakpoint list
// of the result is rebuilt from the merged sample times.
//
// On an identity mismatch Merge returns *errs.IdentityError and leaves both
// inputs untouched. The inputs are never modified.
func Merge(a, b *Channel, opts ...MergeOption) (*Channel, MergeReport, error) {
	cfg := &MergeConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, MergeReport{}, err
	}

	return merge(a, b, cfg, false)
}

// merge implements Merge. With reuse set, a's sample storage may be extended
// in place when b follows it; the caller must own a and drop it afterwards.
func merge(a, b *Channel, cfg *MergeConfig, reuse bool) (*Channel, MergeReport, error) {
	if err := CheckIdentity(a, b); err != nil {
		return nil, MergeReport{ID: a.ID}, err
	}

	out := mergeHeader(a, b)
	report := MergeReport{ID: a.ID}
	tol := cfg.toleranceFor(a.Fs)

	switch {
	case b.IsEmpty():
		out.T, out.X = a.T.Clone(), cloneVector(a.X, b.X)
	case a.IsEmpty():
		out.T, out.X = b.T.Clone(), cloneVector(b.X, a.X)
	case a.End() < b.Start() && !closer(a, b):
		out.T, out.X = concatDisjoint(a, b, tol, reuse)
	case b.End() < a.Start() && !closer(b, a):
		out.T, out.X = concatDisjoint(b, a, tol, false)
	default:
		var err error
		if out.T, out.X, err = interleave(a, b, tol, &report); err != nil {
			return nil, report, err
		}
		out.Notes.Add("merged %d+%d samples into %d (%d overlapping, %d segments)",
			a.Len(), b.Len(), out.Len(), report.Overlap, len(out.T))
	}

	report.Breakpoints = len(out.T)
	if err := out.T.Validate(out.Len(), out.Fs); err != nil {
		return nil, report, fmt.Errorf("%s: %w", out.ID, err)
	}
	if report.Conflicts > 0 {
		out.Notes.Add("merge disagreement: %d of %d overlapping samples differ, later values kept",
			report.Conflicts, report.Overlap)
		if cfg.logger != nil {
			cfg.logger.LogAttrs(context.Background(), slog.LevelDebug, "merge conflicts",
				slog.String("id", report.ID),
				slog.Int("overlap", report.Overlap),
				slog.Int("conflicts", report.Conflicts))
		}
	}

	return out, report, nil
}

// closer reports whether the first sample of later falls within half a
// period of the last sample of earlier, so the two share a slot.
func closer(earlier, later *Channel) bool {
	if earlier.Fs == 0 {
		return false
	}

	return float64(later.Start()-earlier.End()) < earlier.Period()/2
}

func mergeHeader(a, b *Channel) *Channel {
	out := &Channel{
		ID:    a.ID,
		Fs:    a.Fs,
		Loc:   a.Loc.fill(b.Loc),
		Units: a.Units,
		Gain:  a.Gain,
		Src:   a.Src,
		Misc:  make(map[string]any, len(a.Misc)+len(b.Misc)),
		Notes: a.Notes.Concat(b.Notes),
	}
	if out.Units == "" {
		out.Units = b.Units
	}
	if out.Src == "" {
		out.Src = b.Src
	}
	if out.Gain == 0 {
		out.Gain = b.Gain
	}
	maps.Copy(out.Misc, a.Misc)
	maps.Copy(out.Misc, b.Misc)

	return out
}

func cloneVector(v, fallback sample.Vector) sample.Vector {
	if v != nil {
		return v.Clone()
	}
	if fallback != nil {
		return fallback.Slice(0, 0).Clone()
	}

	return nil
}

// concatDisjoint appends later after earlier when they do not overlap.
// later's first breakpoint is dropped when it continues earlier's last segment.
func concatDisjoint(earlier, later *Channel, tol int64, reuse bool) (Timeline, sample.Vector) {
	var x sample.Vector
	if reuse {
		x, _ = earlier.X.Append(later.X)
	} else {
		x, _ = earlier.X.Concat(later.X)
	}

	t := make(Timeline, 0, len(earlier.T)+len(later.T))
	t = append(t, earlier.T...)

	shift := earlier.Len()
	last := earlier.T[len(earlier.T)-1]
	expected := last.Time + offset(shift-last.Index, earlier.Fs)

	for k, bp := range later.T {
		if k == 0 && earlier.Fs > 0 {
			if d := bp.Time - expected; d <= tol && d >= -tol {
				continue
			}
		}
		t = append(t, Breakpoint{Index: bp.Index + shift, Time: bp.Time})
	}

	return t, x
}

// interleave walks both channels in time order.
func interleave(a, b *Channel, tol int64, report *MergeReport) (Timeline, sample.Vector, error) {
	ta, cleanupA := a.pooledTimes()
	defer cleanupA()
	tb, cleanupB := b.pooledTimes()
	defer cleanupB()

	na, nb := len(ta), len(tb)
	half := periodMicros(a.Fs) / 2

	refs := make([]sample.Ref, 0, na+nb)
	times, cleanupT := pool.GetInt64Slice(na + nb)
	defer cleanupT()
	times = times[:0]

	// push appends a sample, or folds it into the previous output slot when
	// it does not advance time. Overlap counts each shared slot once.
	shared := false
	push := func(ref sample.Ref, t int64, pair bool) {
		if len(times) > 0 && t <= times[len(times)-1] {
			// Same slot as the previous output; the later call argument wins.
			if !shared {
				report.Overlap++
				shared = true
			}
			if ref.Other {
				refs[len(refs)-1] = ref
			}

			return
		}
		refs = append(refs, ref)
		times = append(times, t)
		shared = pair
		if pair {
			report.Overlap++
		}
	}

	i, j := 0, 0
	for i < na || j < nb {
		switch {
		case j >= nb:
			push(sample.Ref{Index: i}, ta[i], false)
			i++
		case i >= na:
			push(sample.Ref{Index: j, Other: true}, tb[j], false)
			j++
		case sameSlot(ta[i], tb[j], a.Fs, half):
			if !a.X.Same(i, b.X, j) {
				report.Conflicts++
			}
			push(sample.Ref{Index: j, Other: true}, tb[j], true)
			i++
			j++
		case ta[i] < tb[j]:
			push(sample.Ref{Index: i}, ta[i], false)
			i++
		default:
			push(sample.Ref{Index: j, Other: true}, tb[j], false)
			j++
		}
	}

	x, err := a.X.Gather(b.X, refs)
	if err != nil {
		return nil, nil, err
	}

	return rebuildTimeline(times, a.Fs, tol), x, nil
}

func sameSlot(ta, tb int64, fs, half float64) bool {
	if fs == 0 {
		return ta == tb
	}

	return math.Abs(float64(tb-ta)) < half
}
