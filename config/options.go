package config

import (
	"cmp"
	"io"
	"log/slog"
	"strings"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/record"
	"github.com/arloliu/seiskit/seis"
)

// ReaderFormat returns the configured input format.
func (c *Config) ReaderFormat() format.Format {
	f, _ := format.ParseFormat(c.Reader.Format)
	return f
}

// WriterFormat returns the configured output format.
func (c *Config) WriterFormat() format.Format {
	f, _ := format.ParseFormat(c.Writer.Format)
	return f
}

// ReaderOptions converts the reader section into record.NewReader options.
// A nil logger leaves the reader's default in place.
func (c *Config) ReaderOptions(logger *slog.Logger) []record.ReaderOption {
	var opts []record.ReaderOption
	if c.Reader.Workers > 0 {
		opts = append(opts, record.WithWorkers(c.Reader.Workers))
	}
	if logger != nil {
		opts = append(opts, record.WithLogger(logger))
	}

	var parser []record.ParserOption
	if order, _ := endian.ParseOrder(c.Reader.ByteOrder); order != endian.Auto {
		parser = append(parser, record.WithByteOrder(order))
	}
	if c.Reader.Source != "" {
		parser = append(parser, record.WithSource(c.Reader.Source))
	}
	if len(parser) > 0 {
		opts = append(opts, record.WithParserOptions(parser...))
	}

	return opts
}

// MergeOptions converts the merge section into seis merge options.
func (c *Config) MergeOptions() []seis.MergeOption {
	d, err := c.gapTolerance()
	if err != nil || c.Merge.GapTolerance == "" {
		return nil
	}

	return []seis.MergeOption{seis.WithGapTolerance(d)}
}

// ContainerOptions returns the options of a container that merges with the
// configured tolerance and logs to logger.
func (c *Config) ContainerOptions(logger *slog.Logger) []seis.ContainerOption {
	opts := []seis.ContainerOption{seis.WithMergeOptions(c.MergeOptions()...)}
	if logger != nil {
		opts = append(opts, seis.WithLogger(logger))
	}

	return opts
}

// SyncPolicy returns the configured rate policy.
func (c *Config) SyncPolicy() seis.RatePolicy {
	if c.Sync.Rate > 0 {
		return seis.ExplicitRate(c.Sync.Rate)
	}

	return seis.MostCommonRate()
}

// SyncOptions converts the sync section into Container.Sync options.
func (c *Config) SyncOptions() []seis.SyncOption {
	if c.Sync.Fill == nil {
		return nil
	}

	return []seis.SyncOption{seis.WithFillValue(*c.Sync.Fill)}
}

// WriterOptions converts the writer section into record.WriterFor options.
func (c *Config) WriterOptions() ([]record.WriterOption, error) {
	var opts []record.WriterOption

	order, ok := endian.ParseOrder(c.Writer.ByteOrder)
	if !ok {
		return nil, invalid("writer.byte_order", "unknown byte order %q", c.Writer.ByteOrder)
	}
	if order != endian.Auto {
		opts = append(opts, record.WithWriteByteOrder(order))
	}

	enc, ok := record.ParseMiniSEEDEncoding(cmp.Or(c.Writer.Encoding, defaultEncoding))
	if !ok {
		return nil, invalid("writer.encoding", "unknown miniSEED encoding %q", c.Writer.Encoding)
	}
	if !strings.EqualFold(enc.String(), defaultEncoding) {
		opts = append(opts, record.WithEncoding(enc))
	}

	if c.Writer.RecordLength != 0 {
		opts = append(opts, record.WithRecordLength(c.Writer.RecordLength))
	}

	shuffle, ok := format.ParseShuffle(c.Writer.Shuffle)
	if !ok {
		return nil, invalid("writer.shuffle", "unknown shuffle %q", c.Writer.Shuffle)
	}
	compression, ok := format.ParseCompression(c.Writer.Compression)
	if !ok {
		return nil, invalid("writer.compression", "unknown compression %q", c.Writer.Compression)
	}
	opts = append(opts, record.WithCodec(shuffle, compression))

	// Resolve the options once so range errors surface at load time.
	if _, err := record.WriterFor(format.Native, opts...); err != nil {
		return nil, err
	}

	return opts, nil
}

// Logger builds the configured slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Logging.Level))

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}

	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
