package seis

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/seiskit/errs"
)

// Breakpoint marks the first sample of a contiguous segment: sample Index
// was taken at Time, in microseconds since the Unix epoch.
type Breakpoint struct {
	Index int
	Time  int64
}

// Timeline is the ordered breakpoint list of a channel. The samples of a
// segment are evenly spaced at the channel rate from the segment's breakpoint
// up to the next breakpoint.
type Timeline []Breakpoint

// NewTimeline returns a single-segment timeline starting at start.
func NewTimeline(start int64) Timeline {
	return Timeline{{Index: 0, Time: start}}
}

// Clone returns a copy of the timeline.
func (t Timeline) Clone() Timeline {
	return slices.Clone(t)
}

// Start returns the time of the first breakpoint, or 0 for an empty timeline.
func (t Timeline) Start() int64 {
	if len(t) == 0 {
		return 0
	}

	return t[0].Time
}

// SegmentEnd returns the exclusive end index of segment k for a channel of n samples.
func (t Timeline) SegmentEnd(k, n int) int {
	if k+1 < len(t) {
		return t[k+1].Index
	}

	return n
}

// Validate checks the timeline against a channel of n samples at rate fs.
//
// A non-empty channel needs a breakpoint at index 0; indices must be strictly
// increasing and below n; times must be strictly increasing and each segment
// must end before the next one starts. An irregular channel (fs == 0) needs a
// breakpoint for every sample.
func (t Timeline) Validate(n int, fs float64) error {
	if n == 0 {
		if len(t) > 1 {
			return fmt.Errorf("%w: %d breakpoints for an empty channel", errs.ErrInvalidTimeline, len(t))
		}

		return nil
	}
	if len(t) == 0 || t[0].Index != 0 {
		return fmt.Errorf("%w: first breakpoint must be at index 0", errs.ErrInvalidTimeline)
	}
	if fs == 0 && len(t) != n {
		return fmt.Errorf("%w: irregular channel has %d breakpoints for %d samples", errs.ErrInvalidTimeline, len(t), n)
	}

	for k := 1; k < len(t); k++ {
		prev, cur := t[k-1], t[k]
		if cur.Index <= prev.Index || cur.Index >= n {
			return fmt.Errorf("%w: breakpoint %d index %d out of order", errs.ErrInvalidTimeline, k, cur.Index)
		}
		if cur.Time <= prev.Time+offset(cur.Index-prev.Index-1, fs) {
			return fmt.Errorf("%w: breakpoint %d at %d overlaps the previous segment", errs.ErrInvalidTimeline, k, cur.Time)
		}
	}

	return nil
}

// SampleOffset returns the time of sample k of a segment relative to its
// first sample, in microseconds.
func SampleOffset(k int, fs float64) int64 {
	return offset(k, fs)
}

// offset returns the time of sample k of a segment relative to its first sample.
func offset(k int, fs float64) int64 {
	if fs <= 0 || k <= 0 {
		return 0
	}

	return int64(math.Round(float64(k) * 1e6 / fs))
}

// periodMicros returns the sample period in microseconds, 0 for irregular channels.
func periodMicros(fs float64) float64 {
	if fs <= 0 {
		return 0
	}

	return 1e6 / fs
}

// times fills dst with the absolute time of each of n samples.
func (t Timeline) times(dst []int64, n int, fs float64) {
	for k := range t {
		end := t.SegmentEnd(k, n)
		for i := t[k].Index; i < end; i++ {
			dst[i] = t[k].Time + offset(i-t[k].Index, fs)
		}
	}
}

// TimelineFromTimes returns the minimal timeline for samples taken at the
// given strictly increasing times, starting a new segment wherever a sample
// is more than half a period off the grid of its segment.
func TimelineFromTimes(times []int64, fs float64) Timeline {
	return rebuildTimeline(times, fs, int64(periodMicros(fs)/2))
}

// rebuildTimeline returns the minimal timeline for samples taken at times.
// Within a segment sample i is expected at segStart + offset(i-segIndex);
// a new breakpoint starts wherever the actual time deviates by more than tol.
//
// A segment may only open after the nominal time of the previous sample.
// When a deviating sample lands earlier, the segment opens at the first
// sample that satisfies this and the scan resumes from there.
func rebuildTimeline(times []int64, fs float64, tol int64) Timeline {
	if len(times) == 0 {
		return nil
	}

	out := Timeline{{Index: 0, Time: times[0]}}
	if fs == 0 {
		for i := 1; i < len(times); i++ {
			out = append(out, Breakpoint{Index: i, Time: times[i]})
		}

		return out
	}

	seg := out[0]
	for i := 1; i < len(times); i++ {
		expected := seg.Time + offset(i-seg.Index, fs)
		if d := times[i] - expected; d <= tol && d >= -tol {
			continue
		}
		for i > seg.Index+1 && times[i] <= seg.Time+offset(i-1-seg.Index, fs) {
			i--
		}
		seg = Breakpoint{Index: i, Time: times[i]}
		out = append(out, seg)
	}

	return out
}
