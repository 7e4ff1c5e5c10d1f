package record

import (
	"fmt"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/internal/options"
	"github.com/arloliu/seiskit/seis"
)

// Writer serializes channels in one format. Writers are safe for concurrent use.
type Writer interface {
	seis.ChannelWriter
	// Format returns the format the writer produces.
	Format() format.Format
}

// DefaultRecordLength is the miniSEED record length used unless
// WithRecordLength is given.
const DefaultRecordLength = 4096

// WriterConfig holds writer options.
type WriterConfig struct {
	order        endian.Order
	codec        format.CodecID
	encoding     MiniSEEDEncoding
	recordLength int
}

// WriterOption configures WriterFor.
type WriterOption = options.Option[*WriterConfig]

// WithWriteByteOrder sets the byte order of binary output.
// Defaults to big-endian for miniSEED and SAC, little-endian for native blocks.
func WithWriteByteOrder(order endian.Order) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if order > endian.Big {
			return fmt.Errorf("%w: byte order %d", errs.ErrInvalidConfig, order)
		}
		c.order = order

		return nil
	})
}

// WithCodec sets the shuffle and compression of native blocks.
// Defaults to byte shuffle with Zstd.
func WithCodec(shuffle format.ShuffleType, compression format.CompressionType) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if shuffle > format.ShuffleByte {
			return fmt.Errorf("%w: shuffle %d", errs.ErrInvalidConfig, shuffle)
		}
		if compression < format.CompressionNone || compression > format.CompressionLZ4 {
			return fmt.Errorf("%w: compression %d", errs.ErrInvalidConfig, compression)
		}
		c.codec = format.NewCodecID(shuffle, compression)

		return nil
	})
}

// WithEncoding sets the miniSEED data encoding. By default integer channels
// are written as Steim2 and floating-point channels as FLOAT32 or FLOAT64.
func WithEncoding(enc MiniSEEDEncoding) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if !enc.writable() {
			return fmt.Errorf("%w: miniSEED encoding %s cannot be written", errs.ErrInvalidConfig, enc)
		}
		c.encoding = enc

		return nil
	})
}

// WithRecordLength sets the miniSEED record length, a power of two in [256, 65536].
func WithRecordLength(n int) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if n < 256 || n > 1<<16 || n&(n-1) != 0 {
			return fmt.Errorf("%w: record length %d", errs.ErrInvalidConfig, n)
		}
		c.recordLength = n

		return nil
	})
}

// WriterFor returns the writer of format f.
func WriterFor(f format.Format, opts ...WriterOption) (Writer, error) {
	cfg := &WriterConfig{
		codec:        format.NewCodecID(format.ShuffleByte, format.CompressionZstd),
		encoding:     encodingAuto,
		recordLength: DefaultRecordLength,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	switch f {
	case format.SAC:
		return &sacWriter{cfg: *cfg}, nil
	case format.MiniSEED:
		return &mseedWriter{cfg: *cfg}, nil
	case format.GeoCSV:
		return &geocsvWriter{}, nil
	case format.Native:
		return &nativeWriter{cfg: *cfg}, nil
	case format.SEGY, format.UW:
		return nil, fmt.Errorf("%w: %s", errs.ErrWriteUnsupported, f)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownFormat, f)
	}
}

// engine returns the configured byte order, or def when unset.
func (c WriterConfig) engine(def endian.Order) endian.EndianEngine {
	if c.order == endian.Auto {
		return def.Engine()
	}

	return c.order.Engine()
}
