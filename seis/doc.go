// Package seis holds the in-memory waveform model: channels, their
// timelines, and the container that merges and synchronizes them.
//
// # Time
//
// Times are int64 microseconds since the Unix epoch. Sample k of a segment
// starting at t0 is taken at t0 + round(k*1e6/fs).
//
// # Timelines
//
// A Channel stores its samples in one typed sample.Vector and places them in
// time with a Timeline: a list of (index, time) breakpoints, one per
// contiguous segment. A gap-free channel has exactly one breakpoint. An
// irregular channel (Fs == 0) has one breakpoint per sample.
//
// # Merging
//
// Merge combines two channels of the same stream (same ID, rate, sample type,
// and compatible units and location):
//
//	merged, report, err := seis.Merge(older, newer)
//	if errors.Is(err, errs.ErrChannelIdentity) {
//	    // keep both
//	}
//
// Samples whose times fall within half a period of each other share a slot;
// the second argument wins it. Disagreeing slots are counted in the report
// and recorded in the merged channel's notes.
//
// # Synchronizing
//
// Container.Sync resamples every channel at a common rate onto one grid,
// filling uncovered positions with the sample type's sentinel (NaN for
// floats, the minimum for signed integers, the maximum for unsigned ones)
// or a value set with WithFillValue. Channels at another rate are flagged,
// not converted.
//
// # Concurrency
//
// Container is safe for concurrent use. Channel and Timeline are plain values
// and need external synchronization.
package seis
