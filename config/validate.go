package config

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReader(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateWriter(); err != nil {
		return err
	}

	return c.validateLogging()
}

func invalid(key, msg string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", errs.ErrInvalidConfig, key, fmt.Sprintf(msg, args...))
}

func (c *Config) validateReader() error {
	if _, ok := format.ParseFormat(c.Reader.Format); !ok {
		return invalid("reader.format", "unknown format %q", c.Reader.Format)
	}
	if c.Reader.Workers < 0 {
		return invalid("reader.workers", "must not be negative")
	}
	if _, ok := endian.ParseOrder(c.Reader.ByteOrder); !ok {
		return invalid("reader.byte_order", "unknown byte order %q", c.Reader.ByteOrder)
	}

	return nil
}

func (c *Config) validateMerge() error {
	_, err := c.gapTolerance()
	return err
}

func (c *Config) gapTolerance() (time.Duration, error) {
	if c.Merge.GapTolerance == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Merge.GapTolerance)
	if err != nil {
		return 0, invalid("merge.gap_tolerance", "%v", err)
	}
	if d < 0 {
		return 0, invalid("merge.gap_tolerance", "must not be negative")
	}

	return d, nil
}

func (c *Config) validateSync() error {
	if c.Sync.Rate < 0 || math.IsNaN(c.Sync.Rate) || math.IsInf(c.Sync.Rate, 0) {
		return invalid("sync.rate", "%g Hz", c.Sync.Rate)
	}
	_, _, err := c.SyncWindow()

	return err
}

// SyncWindow returns the sync window in microseconds since the Unix epoch,
// or (0, 0) when neither bound is set.
func (c *Config) SyncWindow() (int64, int64, error) {
	if c.Sync.Start == "" && c.Sync.Stop == "" {
		return 0, 0, nil
	}
	if c.Sync.Start == "" || c.Sync.Stop == "" {
		return 0, 0, invalid("sync", "start and stop must be set together")
	}

	start, err := time.Parse(time.RFC3339Nano, c.Sync.Start)
	if err != nil {
		return 0, 0, invalid("sync.start", "%v", err)
	}
	stop, err := time.Parse(time.RFC3339Nano, c.Sync.Stop)
	if err != nil {
		return 0, 0, invalid("sync.stop", "%v", err)
	}
	if !stop.After(start) {
		return 0, 0, invalid("sync", "stop %s is not after start %s", c.Sync.Stop, c.Sync.Start)
	}

	return start.UnixMicro(), stop.UnixMicro(), nil
}

func (c *Config) validateWriter() error {
	f, ok := format.ParseFormat(c.Writer.Format)
	if !ok {
		return invalid("writer.format", "unknown format %q", c.Writer.Format)
	}
	if f == format.SEGY || f == format.UW {
		return invalid("writer.format", "%s cannot be written", f)
	}

	_, err := c.WriterOptions()

	return err
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return invalid("logging.format", "unknown format %q", c.Logging.Format)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return invalid("logging.level", "%v", err)
	}

	return nil
}
