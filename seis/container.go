package seis

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"path"
	"regexp"
	"sync"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/internal/index"
	"github.com/arloliu/seiskit/internal/options"
)

// Observer receives merge and sync summaries, typically to export metrics.
type Observer interface {
	ObserveMerge(MergeReport, error)
	ObserveSync(SyncReport)
}

// ChannelWriter serializes one channel in some record format.
type ChannelWriter interface {
	WriteChannel(dst []byte, ch *Channel) ([]byte, error)
}

// ContainerConfig holds container options.
type ContainerConfig struct {
	logger    *slog.Logger
	observer  Observer
	mergeOpts []MergeOption
}

// ContainerOption configures NewContainer.
type ContainerOption = options.Option[*ContainerConfig]

// WithLogger sets the container logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ContainerOption {
	return options.New(func(c *ContainerConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidConfig)
		}
		c.logger = logger

		return nil
	})
}

// WithObserver registers an Observer for merge and sync reports.
func WithObserver(o Observer) ContainerOption {
	return options.NoError(func(c *ContainerConfig) {
		c.observer = o
	})
}

// WithMergeOptions sets the options used whenever the container merges channels.
func WithMergeOptions(opts ...MergeOption) ContainerOption {
	return options.NoError(func(c *ContainerConfig) {
		c.mergeOpts = append(c.mergeOpts, opts...)
	})
}

// Container is an insertion-ordered set of channels with unique IDs.
//
// Container is safe for concurrent use: mutations and syncs take the write
// lock, lookups take the read lock. Channels returned by lookups are owned by
// the container and must not be modified while other goroutines use it.
type Container struct {
	mu       sync.RWMutex
	chans    *index.Index[*Channel]
	logger   *slog.Logger
	obs      Observer
	mergeCfg *MergeConfig
}

// NewContainer creates an empty container.
func NewContainer(opts ...ContainerOption) (*Container, error) {
	cfg := &ContainerConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	mergeCfg := &MergeConfig{logger: cfg.logger}
	if err := options.Apply(mergeCfg, cfg.mergeOpts...); err != nil {
		return nil, err
	}

	return &Container{
		chans:    index.New[*Channel](),
		logger:   cfg.logger,
		obs:      cfg.observer,
		mergeCfg: mergeCfg,
	}, nil
}

// Len returns the number of channels.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.chans.Len()
}

// IDs returns the channel IDs in insertion order.
func (c *Container) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.chans.IDs()
}

// Get returns the channel with the given ID.
func (c *Container) Get(id string) (*Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.chans.Get(id)
}

// All iterates over the channels in insertion order under the read lock.
// The container must not be mutated from inside the loop.
func (c *Container) All() iter.Seq[*Channel] {
	return func(yield func(*Channel) bool) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		for _, ch := range c.chans.All() {
			if !yield(ch) {
				return
			}
		}
	}
}

// Find returns the channels whose ID matches the glob pattern (path.Match
// syntax, e.g. "UW.*..EH?"), in insertion order.
func (c *Container) Find(pattern string) ([]*Channel, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("find %q: %w", pattern, err)
	}

	var out []*Channel
	for ch := range c.All() {
		if ok, _ := path.Match(pattern, ch.ID); ok {
			out = append(out, ch)
		}
	}

	return out, nil
}

// FindIDs returns the IDs matching the glob pattern, in insertion order.
func (c *Container) FindIDs(pattern string) ([]string, error) {
	found, err := c.Find(pattern)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(found))
	for i, ch := range found {
		ids[i] = ch.ID
	}

	return ids, nil
}

// FindRegexp returns the channels whose ID matches re, in insertion order.
func (c *Container) FindRegexp(re *regexp.Regexp) []*Channel {
	var out []*Channel
	for ch := range c.All() {
		if re.MatchString(ch.ID) {
			out = append(out, ch)
		}
	}

	return out
}

// Add inserts ch, or merges it into the channel with the same ID.
//
// On an identity mismatch the error is returned and neither channel changes.
// The container takes ownership of ch.
func (c *Container) Add(ch *Channel) (MergeReport, error) {
	if err := ch.Validate(); err != nil {
		return MergeReport{ID: ch.ID}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.addLocked(ch)
}

func (c *Container) addLocked(ch *Channel) (MergeReport, error) {
	existing, ok := c.chans.Get(ch.ID)
	if !ok {
		if err := c.chans.Insert(ch.ID, ch); err != nil {
			return MergeReport{ID: ch.ID}, err
		}

		return MergeReport{ID: ch.ID, Breakpoints: len(ch.T)}, nil
	}

	merged, report, err := merge(existing, ch, c.mergeCfg, true)
	if c.obs != nil {
		c.obs.ObserveMerge(report, err)
	}
	if err != nil {
		c.logger.Warn("channel not merged", slog.String("id", ch.ID), slog.Any("error", err))
		return report, err
	}

	c.chans.Set(ch.ID, merged)

	return report, nil
}

// BatchResult aggregates the per-channel outcome of MergeAll.
type BatchResult struct {
	Added   int
	Merged  int
	Reports []MergeReport
	Failed  map[string]error
}

// Err joins the per-channel failures, or returns nil.
func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}

	all := make([]error, 0, len(r.Failed))
	for id, err := range r.Failed {
		all = append(all, fmt.Errorf("%s: %w", id, err))
	}

	return errors.Join(all...)
}

// MergeAll folds chans into the container in order. Failures are collected
// per channel and never stop the batch.
//
// Called without arguments it re-normalizes the timeline of every channel,
// dropping breakpoints that no longer mark a gap.
func (c *Container) MergeAll(chans ...*Channel) BatchResult {
	res := BatchResult{Failed: map[string]error{}}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(chans) == 0 {
		for id, ch := range c.chans.All() {
			removed := ch.Normalize(-1)
			if removed != 0 {
				ch.Note("normalized timeline: %d breakpoints removed", removed)
			}
			res.Reports = append(res.Reports, MergeReport{ID: id, Breakpoints: len(ch.T)})
		}

		return res
	}

	for _, ch := range chans {
		if err := ch.Validate(); err != nil {
			res.Failed[ch.ID] = err
			continue
		}

		existed := c.chans.Has(ch.ID)
		report, err := c.addLocked(ch)
		if err != nil {
			res.Failed[ch.ID] = err
			continue
		}
		res.Reports = append(res.Reports, report)
		if existed {
			res.Merged++
		} else {
			res.Added++
		}
	}

	return res
}

// Sync resamples every channel at the target rate onto the common grid
// [start, stop). With start and stop both 0 the grid spans the union of the
// covered time of the eligible channels.
//
// Channels whose rate differs from the target (including irregular ones) are
// reported in SyncReport.Flagged and left untouched. Channels with no data in
// the window become fully filled.
func (c *Container) Sync(start, stop int64, policy RatePolicy, opts ...SyncOption) (SyncReport, error) {
	cfg := &SyncConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return SyncReport{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	chans := make([]*Channel, 0, c.chans.Len())
	for _, ch := range c.chans.All() {
		chans = append(chans, ch)
	}

	fs, err := policy.resolve(chans)
	if err != nil {
		return SyncReport{}, err
	}

	report := SyncReport{Fs: fs, Filled: map[string]int{}, Flagged: map[string]error{}}

	eligible := make([]*Channel, 0, len(chans))
	for _, ch := range chans {
		if ch.Fs == 0 || !sameRate(ch.Fs, fs) {
			report.Flagged[ch.ID] = &errs.RateMismatchError{ID: ch.ID, Fs: ch.Fs, Target: fs}
			continue
		}
		eligible = append(eligible, ch)
	}

	if start == 0 && stop == 0 {
		start, stop = coverage(eligible, fs)
	} else if stop <= start {
		return SyncReport{}, fmt.Errorf("%w: [%d, %d)", errs.ErrInvalidWindow, start, stop)
	}

	report.Start, report.Stop = start, stop
	n := int(math.Round(float64(stop-start) * fs / 1e6))
	report.Samples = n

	for _, ch := range eligible {
		filled, err := syncChannel(ch, start, n, fs, cfg.fill)
		if err != nil {
			report.Flagged[ch.ID] = err
			continue
		}
		report.Filled[ch.ID] = filled
	}

	for id, err := range report.Flagged {
		c.logger.Debug("channel not synced", slog.String("id", id), slog.Any("reason", err))
	}
	if c.obs != nil {
		c.obs.ObserveSync(report)
	}

	return report, nil
}

// coverage returns the union window of chans: from the earliest first sample
// to one period past the latest last sample.
func coverage(chans []*Channel, fs float64) (int64, int64) {
	var start, stop int64
	first := true
	for _, ch := range chans {
		if ch.IsEmpty() {
			continue
		}
		end := ch.End() + offset(1, fs)
		if first || ch.Start() < start {
			start = ch.Start()
		}
		if first || end > stop {
			stop = end
		}
		first = false
	}

	return start, stop
}

// Prune removes every channel for which pred returns true and returns their IDs.
func (c *Container) Prune(pred func(*Channel) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	for id, ch := range c.chans.All() {
		if pred(ch) {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		c.chans.Delete(id)
	}

	return removed
}

// Remove deletes the channel with the given ID.
func (c *Container) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.chans.Delete(id) {
		return fmt.Errorf("%w: %s", errs.ErrChannelNotFound, id)
	}

	return nil
}

// Rename changes a channel's ID, keeping its position.
func (c *Container) Rename(oldID, newID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.chans.Get(oldID)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrChannelNotFound, oldID)
	}
	if err := c.chans.Rename(oldID, newID); err != nil {
		return err
	}
	if oldID != newID {
		ch.ID = newID
		ch.Note("renamed from %s", oldID)
	}

	return nil
}

// ToBytes serializes every channel with w, in insertion order. Channels that
// fail to serialize are skipped and their errors joined.
func (c *Container) ToBytes(w ChannelWriter) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		out      []byte
		failures []error
	)
	for id, ch := range c.chans.All() {
		next, err := w.WriteChannel(out, ch)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", id, err))
			c.logger.LogAttrs(context.Background(), slog.LevelWarn, "channel not written",
				slog.String("id", id), slog.Any("error", err))

			continue
		}
		out = next
	}

	return out, errors.Join(failures...)
}
