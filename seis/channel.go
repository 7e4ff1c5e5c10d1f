package seis

import (
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/internal/pool"
	"github.com/arloliu/seiskit/sample"
)

// Channel is one waveform stream: a typed sample vector, the timeline that
// places those samples in time and the descriptive header fields.
//
// Channel methods are not safe for concurrent mutation; a Container
// serializes access to the channels it owns.
type Channel struct {
	// ID is "net.sta.loc.cha". Unique within a container.
	ID string
	// Fs is the sampling rate in Hz. Zero marks an irregular channel where
	// every sample carries its own breakpoint.
	Fs float64
	// T places X in time.
	T Timeline
	// X holds the samples.
	X sample.Vector

	Loc   Location
	Units string
	Gain  float64
	// Misc holds auxiliary header fields that merge and sync do not interpret.
	Misc map[string]any
	// Src names where the data came from.
	Src   string
	Notes Notes
}

// NewChannel creates an empty channel of sample type t.
func NewChannel(id string, fs float64, t sample.Type) (*Channel, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateRate(fs); err != nil {
		return nil, err
	}

	x, err := sample.New(t, 0)
	if err != nil {
		return nil, err
	}

	return &Channel{
		ID:   id,
		Fs:   fs,
		X:    x,
		Loc:  UnknownLocation(),
		Gain: 1,
		Misc: map[string]any{},
	}, nil
}

// ChannelID joins the SEED identity codes into a channel ID.
func ChannelID(network, station, location, channel string) string {
	return network + "." + station + "." + location + "." + channel
}

// SplitID splits a channel ID into network, station, location and channel codes.
func SplitID(id string) (string, string, string, string, error) {
	parts := strings.Split(id, ".")
	if len(parts) != 4 {
		return "", "", "", "", fmt.Errorf("%w: %q is not net.sta.loc.cha", errs.ErrInvalidChannelID, id)
	}

	return parts[0], parts[1], parts[2], parts[3], nil
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidChannelID)
	}

	return nil
}

func validateRate(fs float64) error {
	if fs < 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return fmt.Errorf("%w: %g", errs.ErrInvalidSampleRate, fs)
	}

	return nil
}

// Type returns the sample type.
func (c *Channel) Type() sample.Type {
	if c.X == nil {
		return 0
	}

	return c.X.Type()
}

// Len returns the number of samples.
func (c *Channel) Len() int {
	return sample.Len(c.X)
}

// IsEmpty reports whether the channel has no samples.
func (c *Channel) IsEmpty() bool {
	return c.Len() == 0
}

// Start returns the time of the first sample.
func (c *Channel) Start() int64 {
	return c.T.Start()
}

// End returns the time of the last sample, or the start time when empty.
func (c *Channel) End() int64 {
	if len(c.T) == 0 || c.Len() == 0 {
		return c.Start()
	}

	last := c.T[len(c.T)-1]

	return last.Time + offset(c.Len()-1-last.Index, c.Fs)
}

// Period returns the sample period in microseconds, 0 when irregular.
func (c *Channel) Period() float64 {
	return periodMicros(c.Fs)
}

// Times returns the absolute time of every sample.
func (c *Channel) Times() []int64 {
	out := make([]int64, c.Len())
	c.T.times(out, len(out), c.Fs)

	return out
}

// pooledTimes is Times backed by the int64 slice pool.
func (c *Channel) pooledTimes() ([]int64, func()) {
	out, cleanup := pool.GetInt64Slice(c.Len())
	c.T.times(out, len(out), c.Fs)

	return out, cleanup
}

// Segment is one contiguous run of samples [Index, Index+Len).
type Segment struct {
	Index int
	Len   int
	Start int64
	End   int64 // time of the last sample
}

// Segments returns the contiguous runs of the channel.
func (c *Channel) Segments() []Segment {
	n := c.Len()
	if n == 0 {
		return nil
	}

	out := make([]Segment, 0, len(c.T))
	for k, bp := range c.T {
		end := c.T.SegmentEnd(k, n)
		out = append(out, Segment{
			Index: bp.Index,
			Len:   end - bp.Index,
			Start: bp.Time,
			End:   bp.Time + offset(end-1-bp.Index, c.Fs),
		})
	}

	return out
}

// Gap describes missing time between two segments.
type Gap struct {
	// Index is the first sample after the gap.
	Index int
	// From is the time of the last sample before the gap, To the first after it.
	From, To int64
	// Missing is the number of samples that would fit in the gap at the
	// channel rate. Always 0 for irregular channels.
	Missing int
}

// Gaps returns the gaps between consecutive segments.
func (c *Channel) Gaps() []Gap {
	segs := c.Segments()
	if len(segs) < 2 {
		return nil
	}

	out := make([]Gap, 0, len(segs)-1)
	for k := 1; k < len(segs); k++ {
		g := Gap{Index: segs[k].Index, From: segs[k-1].End, To: segs[k].Start}
		if c.Fs > 0 {
			g.Missing = max(0, int(math.Round(float64(g.To-g.From)/c.Period()))-1)
		}
		out = append(out, g)
	}

	return out
}

// Append adds samples starting at start after the current end.
//
// A new breakpoint is inserted unless start is within half a sample period
// of where the next sample is expected. Samples that would overlap existing
// data are rejected; use Merge for those. An irregular channel takes one
// sample per call.
func (c *Channel) Append(start int64, x sample.Vector) error {
	n := sample.Len(x)
	if n == 0 {
		return nil
	}
	if c.Fs == 0 && n != 1 {
		return fmt.Errorf("%w: irregular channel %s takes one sample per Append", errs.ErrInvalidTimeline, c.ID)
	}
	if c.X != nil && c.X.Type() != x.Type() {
		return fmt.Errorf("%w: %s holds %s, got %s", errs.ErrTypeMismatch, c.ID, c.X.Type(), x.Type())
	}

	if c.IsEmpty() {
		c.X = x.Clone()
		c.T = NewTimeline(start)

		return nil
	}

	end := c.End()
	if start <= end {
		return fmt.Errorf("%w: %s: segment at %d overlaps data ending at %d", errs.ErrInvalidTimeline, c.ID, start, end)
	}

	joined, err := c.X.Append(x)
	if err != nil {
		return err
	}

	last := c.T[len(c.T)-1]
	expected := last.Time + offset(c.Len()-last.Index, c.Fs)
	if c.Fs == 0 || math.Abs(float64(start-expected)) > c.Period()/2 {
		c.T = append(c.T, Breakpoint{Index: c.Len(), Time: start})
	}
	c.X = joined

	return nil
}

// Validate checks the channel invariants.
func (c *Channel) Validate() error {
	if err := validateID(c.ID); err != nil {
		return err
	}
	if err := validateRate(c.Fs); err != nil {
		return fmt.Errorf("%s: %w", c.ID, err)
	}
	if c.X == nil {
		return fmt.Errorf("%w: %s has no sample vector", errs.ErrLengthMismatch, c.ID)
	}
	if err := c.T.Validate(c.Len(), c.Fs); err != nil {
		return fmt.Errorf("%s: %w", c.ID, err)
	}

	return nil
}

// Clone returns a deep copy.
func (c *Channel) Clone() *Channel {
	out := *c
	out.T = c.T.Clone()
	if c.X != nil {
		out.X = c.X.Clone()
	}
	out.Misc = maps.Clone(c.Misc)
	out.Notes = c.Notes.Concat(nil)

	return &out
}

// Convert changes the sample type in place.
func (c *Channel) Convert(t sample.Type) error {
	if c.Type() == t {
		return nil
	}

	from := c.Type()
	x, err := c.X.Convert(t)
	if err != nil {
		return err
	}
	c.X = x
	c.Notes.Add("converted samples from %s to %s", from, t)

	return nil
}

// Note appends an entry to the channel's audit log.
func (c *Channel) Note(format string, args ...any) {
	c.Notes.Add(format, args...)
}

// Normalize rebuilds the minimal breakpoint list, merging segments whose
// boundary deviates from the expected sample time by at most tol microseconds.
// A negative tol selects half a sample period. Returns the number of
// breakpoints removed.
func (c *Channel) Normalize(tol int64) int {
	if c.IsEmpty() || c.Fs == 0 {
		return 0
	}
	if tol < 0 {
		tol = int64(c.Period() / 2)
	}

	times, cleanup := c.pooledTimes()
	defer cleanup()

	before := len(c.T)
	c.T = rebuildTimeline(times, c.Fs, tol)

	return before - len(c.T)
}

func (c *Channel) String() string {
	return fmt.Sprintf("%s fs=%g %s n=%d segments=%d", c.ID, c.Fs, c.Type(), c.Len(), len(c.T))
}
