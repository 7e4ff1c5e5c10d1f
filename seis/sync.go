package seis

import (
	"fmt"
	"math"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/internal/options"
	"github.com/arloliu/seiskit/internal/pool"
	"github.com/arloliu/seiskit/sample"
)

// rateTolerance is the relative difference under which two rates are equal.
const rateTolerance = 1e-9

// RatePolicy selects the target rate of a sync.
type RatePolicy struct {
	fs float64
}

// MostCommonRate targets the rate shared by the most regular channels.
// Ties go to the rate seen first in container order.
func MostCommonRate() RatePolicy {
	return RatePolicy{}
}

// ExplicitRate targets fs.
func ExplicitRate(fs float64) RatePolicy {
	return RatePolicy{fs: fs}
}

func (p RatePolicy) String() string {
	if p.fs == 0 {
		return "most-common"
	}

	return fmt.Sprintf("%g Hz", p.fs)
}

// SyncConfig holds sync options.
type SyncConfig struct {
	fill sample.Fill
}

// SyncOption configures Container.Sync.
type SyncOption = options.Option[*SyncConfig]

// WithFillValue fills uncovered grid positions with v instead of the type's
// sentinel. v is converted to each channel's sample type.
func WithFillValue(v float64) SyncOption {
	return options.NoError(func(c *SyncConfig) {
		c.fill = sample.FillValue(v)
	})
}

// SyncReport summarizes a sync.
type SyncReport struct {
	Start, Stop int64
	Fs          float64
	// Samples is the grid length of every synced channel.
	Samples int
	// Filled counts the fill samples written per channel.
	Filled map[string]int
	// Flagged holds the channels left untouched and why.
	Flagged map[string]error
}

// Synced returns the number of channels placed on the grid.
func (r SyncReport) Synced() int {
	return len(r.Filled)
}

func sameRate(a, b float64) bool {
	return math.Abs(a-b) <= rateTolerance*math.Max(a, b)
}

func (p RatePolicy) resolve(chans []*Channel) (float64, error) {
	if p.fs < 0 || math.IsNaN(p.fs) || math.IsInf(p.fs, 0) {
		return 0, fmt.Errorf("%w: %g", errs.ErrInvalidSampleRate, p.fs)
	}
	if p.fs > 0 {
		return p.fs, nil
	}

	var rates []float64
	counts := map[int]int{}
	for _, ch := range chans {
		if ch.Fs == 0 {
			continue
		}
		found := -1
		for k, fs := range rates {
			if sameRate(fs, ch.Fs) {
				found = k
				break
			}
		}
		if found < 0 {
			found = len(rates)
			rates = append(rates, ch.Fs)
		}
		counts[found]++
	}

	if len(rates) == 0 {
		return 0, fmt.Errorf("%w: no regularly sampled channels", errs.ErrInvalidSampleRate)
	}

	best := 0
	for k := range rates {
		if counts[k] > counts[best] {
			best = k
		}
	}

	return rates[best], nil
}

// gridIndex returns the grid position of time t.
func gridIndex(t, start int64, fs float64) int {
	return int(math.Round(float64(t-start) * fs / 1e6))
}

// syncChannel places ch on the grid [start, start+n) at fs and returns the
// number of filled positions.
func syncChannel(ch *Channel, start int64, n int, fs float64, fill sample.Fill) (int, error) {
	times, cleanupT := ch.pooledTimes()
	defer cleanupT()
	at, cleanupA := pool.GetIntSlice(len(times))
	defer cleanupA()

	covered := make([]bool, n)
	for i, t := range times {
		k := gridIndex(t, start, fs)
		at[i] = k
		if k >= 0 && k < n {
			covered[k] = true
		}
	}

	x := ch.X
	if x == nil {
		return 0, fmt.Errorf("%w: %s has no sample vector", errs.ErrLengthMismatch, ch.ID)
	}
	out, filled := x.Scatter(n, at, fill)

	t := Timeline{}
	if n > 0 {
		t = append(t, Breakpoint{Index: 0, Time: start})
		for k := 1; k < n; k++ {
			if covered[k] != covered[k-1] {
				t = append(t, Breakpoint{Index: k, Time: start + offset(k, fs)})
			}
		}
	}

	ch.X = out
	ch.T = t
	ch.Note("synced to [%d, %d) at %g Hz: %d samples, %d filled", start, start+offset(n, fs), fs, n, filled)

	return filled, nil
}
