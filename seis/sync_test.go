package seis

import (
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/sample"
	"github.com/stretchr/testify/require"
)

func newSyncContainer(t *testing.T, chans ...*Channel) *Container {
	t.Helper()

	c, err := NewContainer()
	require.NoError(t, err)
	res := c.MergeAll(chans...)
	require.NoError(t, res.Err())

	return c
}

func TestSync_FillsLeadingGap(t *testing.T) {
	ch := newTestChannel(t, 100, 1_000_000, ramp(0, 100))
	c := newSyncContainer(t, ch)

	report, err := c.Sync(0, 2_000_000, MostCommonRate())
	require.NoError(t, err)
	require.Equal(t, 200, report.Samples)
	require.Equal(t, 1, report.Synced())
	require.Equal(t, 100, report.Filled[testID])
	require.Empty(t, report.Flagged)

	got, ok := c.Get(testID)
	require.True(t, ok)
	require.Equal(t, 200, got.Len())
	for i := range 100 {
		require.True(t, got.X.IsFill(i, sample.SentinelFill()), "index %d", i)
	}
	for i := 100; i < 200; i++ {
		require.InDelta(t, float64(i-100), got.X.Float64At(i), 0)
	}
	require.Equal(t, Timeline{{0, 0}, {100, 1_000_000}}, got.T)
	require.NoError(t, got.Validate())
	require.True(t, hasNote(got, "synced"))
}

func TestSync_GapAccounting(t *testing.T) {
	ch := newTestChannel(t, 100, 0, ramp(0, 100))
	require.NoError(t, ch.Append(2_000_000, ramp(100, 100)))
	gaps := ch.Gaps()
	require.Len(t, gaps, 1)

	c := newSyncContainer(t, ch)
	report, err := c.Sync(0, 0, MostCommonRate())
	require.NoError(t, err)
	require.Equal(t, int64(0), report.Start)
	require.Equal(t, int64(3_000_000), report.Stop)
	require.Equal(t, 300, report.Samples)

	gapSamples := float64(gaps[0].To-gaps[0].From) * 100 / 1e6
	require.InDelta(t, gapSamples, float64(report.Filled[testID]), 1)

	got, _ := c.Get(testID)
	require.Equal(t, Timeline{{0, 0}, {100, 1_000_000}, {200, 2_000_000}}, got.T)
	require.NoError(t, got.Validate())
}

func TestSync_FlagsRateMismatch(t *testing.T) {
	a := newTestChannel(t, 100, 0, ramp(0, 100))
	b := newTestChannel(t, 100, 0, ramp(0, 50))
	b.ID = "UW.ELK..EHN"
	slow := newTestChannel(t, 50, 0, ramp(0, 50))
	slow.ID = "UW.ELK..LHZ"
	irregular, err := NewChannel("UW.ELK..XXX", 0, sample.Float64)
	require.NoError(t, err)
	require.NoError(t, irregular.Append(5, sample.Series[float64]{1}))

	c := newSyncContainer(t, a, b, slow, irregular)
	report, err := c.Sync(0, 1_000_000, MostCommonRate())
	require.NoError(t, err)
	require.InDelta(t, 100.0, report.Fs, 0)
	require.Equal(t, 2, report.Synced())
	require.Equal(t, 50, report.Filled["UW.ELK..EHN"])
	require.Len(t, report.Flagged, 2)
	require.ErrorIs(t, report.Flagged["UW.ELK..LHZ"], errs.ErrSyncRateMismatch)
	require.ErrorIs(t, report.Flagged["UW.ELK..XXX"], errs.ErrSyncRateMismatch)

	untouched, _ := c.Get("UW.ELK..LHZ")
	require.Equal(t, 50, untouched.Len())
}

func TestSync_FillValue(t *testing.T) {
	ch := newTestChannel(t, 10, 500_000, sample.Series[int32]{7, 8})
	c := newSyncContainer(t, ch)

	report, err := c.Sync(0, 1_000_000, ExplicitRate(10), WithFillValue(0))
	require.NoError(t, err)
	require.Equal(t, 8, report.Filled[testID])

	got, _ := c.Get(testID)
	require.Equal(t, sample.Series[int32]{0, 0, 0, 0, 0, 7, 8, 0, 0, 0}, got.X)
}

func TestSync_Errors(t *testing.T) {
	c := newSyncContainer(t, newTestChannel(t, 100, 0, ramp(0, 10)))

	_, err := c.Sync(2_000_000, 1_000_000, MostCommonRate())
	require.ErrorIs(t, err, errs.ErrInvalidWindow)

	_, err = c.Sync(0, 1_000_000, ExplicitRate(-1))
	require.ErrorIs(t, err, errs.ErrInvalidSampleRate)

	empty, err := NewContainer()
	require.NoError(t, err)
	_, err = empty.Sync(0, 0, MostCommonRate())
	require.ErrorIs(t, err, errs.ErrInvalidSampleRate)
}

func TestRatePolicy_Resolve(t *testing.T) {
	mk := func(fs float64) *Channel { return &Channel{Fs: fs} }

	fs, err := MostCommonRate().resolve([]*Channel{mk(50), mk(100), mk(100), mk(0)})
	require.NoError(t, err)
	require.InDelta(t, 100.0, fs, 0)

	fs, err = MostCommonRate().resolve([]*Channel{mk(40), mk(100), mk(100), mk(40)})
	require.NoError(t, err)
	require.InDelta(t, 40.0, fs, 0, "ties go to the first rate seen")

	fs, err = ExplicitRate(20).resolve(nil)
	require.NoError(t, err)
	require.InDelta(t, 20.0, fs, 0)

	require.Equal(t, "most-common", MostCommonRate().String())
	require.Equal(t, "20 Hz", ExplicitRate(20).String())
}
