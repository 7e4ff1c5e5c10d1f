package record

import (
	"fmt"
	"strings"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
)

// Identity holds the SEED stream codes of a record.
type Identity struct {
	Network  string
	Station  string
	Location string
	Channel  string
}

// ParseIdentity splits a "net.sta.loc.cha" channel ID.
func ParseIdentity(id string) (Identity, error) {
	net, sta, loc, cha, err := seis.SplitID(id)
	if err != nil {
		return Identity{}, err
	}

	return Identity{Network: net, Station: sta, Location: loc, Channel: cha}, nil
}

// String returns the channel ID "net.sta.loc.cha".
func (id Identity) String() string {
	return seis.ChannelID(id.Network, id.Station, id.Location, id.Channel)
}

// fits reports whether every code fits the given field widths.
func (id Identity) fits(net, sta, loc, cha int) error {
	switch {
	case len(id.Network) > net, len(id.Station) > sta, len(id.Location) > loc, len(id.Channel) > cha:
		return fmt.Errorf("%w: %s does not fit %d.%d.%d.%d code widths",
			errs.ErrInvalidChannelID, id, net, sta, loc, cha)
	default:
		return nil
	}
}

// Record is one decoded physical record: stream identity, timing and samples
// plus whatever descriptive header fields the format carries.
type Record struct {
	Format format.Format
	Identity
	// Start is the time of the first sample in microseconds since the Unix epoch.
	Start int64
	// Fs is the sampling rate in Hz, 0 for irregular data.
	Fs float64
	// Type is the sample type resolved from the format's type table. It is
	// set even when Samples is nil because the payload was dropped.
	Type    sample.Type
	Samples sample.Vector
	// Breakpoints places Samples in time. Nil means one segment at Start.
	Breakpoints seis.Timeline

	Loc   seis.Location
	Units string
	Gain  float64
	// Extra holds format header fields without a Channel counterpart.
	Extra map[string]any
	Src   string
	Notes seis.Notes
}

// newRecord returns a record with an undefined location and unit gain.
func newRecord(f format.Format) *Record {
	return &Record{Format: f, Loc: seis.UnknownLocation(), Gain: 1, Extra: map[string]any{}}
}

// ID returns the channel ID of the record.
func (r *Record) ID() string {
	return r.Identity.String()
}

// Len returns the number of samples.
func (r *Record) Len() int {
	return sample.Len(r.Samples)
}

// Timeline returns the breakpoints of the record's samples.
func (r *Record) Timeline() seis.Timeline {
	if r.Breakpoints != nil {
		return r.Breakpoints
	}
	if r.Len() == 0 {
		return nil
	}

	return seis.NewTimeline(r.Start)
}

// Channel converts the record to a channel holding its samples.
func (r *Record) Channel() (*seis.Channel, error) {
	ch, err := seis.NewChannel(r.ID(), r.Fs, r.Type)
	if err != nil {
		return nil, err
	}

	if r.Samples != nil {
		ch.X = r.Samples
	}
	ch.T = r.Timeline().Clone()
	ch.Loc = r.Loc
	ch.Units = r.Units
	ch.Gain = r.Gain
	for k, v := range r.Extra {
		ch.Misc[k] = v
	}
	ch.Src = r.Src
	ch.Notes = r.Notes.Concat(nil)

	if err := ch.Validate(); err != nil {
		return nil, err
	}

	return ch, nil
}

// dropSamples keeps the record metadata after a payload failure.
func (r *Record) dropSamples(err error) {
	r.Samples = nil
	r.Breakpoints = nil
	r.Notes.Add("samples dropped: %v", err)
}

// trimCode strips the padding of a fixed-width text field.
func trimCode(b []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}
