// Package seiskit reads, merges, synchronizes and writes seismic waveform
// data.
//
// Records from SAC, miniSEED, PASSCAL SEG-Y, GeoCSV and the native seiskit
// block format are decoded into channels held by a seis.Container. Records
// of the same stream are merged as they arrive, gaps are tracked as timeline
// breakpoints, and the container can place every channel on a common grid.
//
// # Core Features
//
//   - One typed sample vector per channel (16 sample types, Float16 to Complex128)
//   - Gap-aware timelines with microsecond resolution
//   - Order-preserving parallel decoding of record batches
//   - Merging with half-period slot matching and conflict notes
//   - Native blocks with byte shuffle and Zstd, S2 or LZ4 compression
//
// # Basic Usage
//
// Reading a miniSEED file into a container:
//
//	data, _ := os.ReadFile("UW.ELK..EHZ.mseed")
//	c, report, err := seiskit.Read(ctx, format.MiniSEED, data)
//	if err != nil {
//	    return err
//	}
//	for _, w := range report.Warnings {
//	    log.Println(w)
//	}
//
// Synchronizing and writing native blocks:
//
//	_, err = c.Sync(0, 0, seis.MostCommonRate())
//	out, err := seiskit.Write(c, format.Native,
//	    record.WithCodec(format.ShuffleByte, format.CompressionZstd))
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the record and
// seis packages. For fine-grained control use those packages directly.
package seiskit

import (
	"context"
	"fmt"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/record"
	"github.com/arloliu/seiskit/seis"
)

// detectOrder is the order in which Detect tries the formats. Formats with a
// magic number or a fixed text header go first. A UW file is recognized by
// its version byte and trailing structure table; SEG-Y has neither and is
// tried last.
var detectOrder = []format.Format{format.Native, format.GeoCSV, format.SAC, format.MiniSEED, format.UW, format.SEGY}

// Read decodes data in format f into a new container.
//
// Parameters:
//   - ctx: cancels the read between records
//   - f: format of every record in data
//   - data: concatenated records
//   - opts: reader options (see record.ReaderOption)
//
// Returns:
//   - *seis.Container: the decoded channels, merged by ID
//   - record.Report: record counts and per-record warnings
//   - error: a configuration error, or ctx.Err() when the read was canceled
//
// Records that fail to decode do not fail the read; they are listed in the
// report.
func Read(ctx context.Context, f format.Format, data []byte, opts ...record.ReaderOption) (*seis.Container, record.Report, error) {
	c, err := seis.NewContainer()
	if err != nil {
		return nil, record.Report{}, err
	}

	report, err := ReadInto(ctx, c, f, data, opts...)
	if err != nil {
		return nil, report, err
	}

	return c, report, nil
}

// ReadInto decodes data in format f and merges the records into c.
func ReadInto(ctx context.Context, c *seis.Container, f format.Format, data []byte, opts ...record.ReaderOption) (record.Report, error) {
	r, err := record.NewReader(f, opts...)
	if err != nil {
		return record.Report{}, err
	}

	return r.Read(ctx, data, c)
}

// ReadAuto detects the format of data and decodes it into a new container.
func ReadAuto(ctx context.Context, data []byte, opts ...record.ReaderOption) (*seis.Container, record.Report, error) {
	f, ok := Detect(data)
	if !ok {
		return nil, record.Report{}, fmt.Errorf("%w: no parser accepts the first record", errs.ErrUnknownFormat)
	}

	return Read(ctx, f, data, opts...)
}

// Detect returns the format whose parser accepts the first record of data.
func Detect(data []byte) (format.Format, bool) {
	for _, f := range detectOrder {
		p, err := record.ParserFor(f)
		if err != nil {
			continue
		}
		n, err := p.Frame(data)
		if err != nil || n <= 0 {
			continue
		}
		if _, _, err := p.Parse(data[:n]); err == nil {
			return f, true
		}
	}

	return 0, false
}

// Write encodes every channel of c in format f, in insertion order.
//
// Channels that cannot be written are skipped; their errors are joined in
// the returned error next to the bytes of the channels that were written.
func Write(c *seis.Container, f format.Format, opts ...record.WriterOption) ([]byte, error) {
	w, err := record.WriterFor(f, opts...)
	if err != nil {
		return nil, err
	}

	return c.ToBytes(w)
}

// WriteChannel encodes one channel in format f.
func WriteChannel(ch *seis.Channel, f format.Format, opts ...record.WriterOption) ([]byte, error) {
	w, err := record.WriterFor(f, opts...)
	if err != nil {
		return nil, err
	}

	return w.WriteChannel(nil, ch)
}
