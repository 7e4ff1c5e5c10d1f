package record

import (
	"fmt"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/internal/options"
)

// Parser decodes the physical records of one format.
//
// Parsers are stateless after construction and safe for concurrent use.
type Parser interface {
	// Format returns the format the parser reads.
	Format() format.Format
	// Frame returns the byte length of the record at the start of data
	// without decoding its payload.
	Frame(data []byte) (int, error)
	// Parse decodes the record at the start of data and returns it with the
	// number of bytes consumed.
	//
	// A payload that cannot be restored yields the record without samples
	// together with a *errs.CorruptPayloadError; any other error means no
	// record was produced.
	Parse(data []byte) (*Record, int, error)
}

// MultiParser is a Parser whose records hold several channels. The Reader
// routes every channel ParseAll returns.
type MultiParser interface {
	Parser
	// ParseAll decodes every channel of the record at the start of data.
	ParseAll(data []byte) ([]*Record, int, error)
}

// ParserConfig holds parser options.
type ParserConfig struct {
	order endian.Order
	src   string
}

// ParserOption configures ParserFor.
type ParserOption = options.Option[*ParserConfig]

// WithByteOrder forces the byte order of binary formats instead of
// detecting it. endian.Auto restores detection.
func WithByteOrder(order endian.Order) ParserOption {
	return options.New(func(c *ParserConfig) error {
		if order > endian.Big {
			return fmt.Errorf("%w: byte order %d", errs.ErrInvalidConfig, order)
		}
		c.order = order

		return nil
	})
}

// WithSource sets the provenance string stored in every parsed record.
func WithSource(src string) ParserOption {
	return options.NoError(func(c *ParserConfig) {
		c.src = src
	})
}

// ParserFor returns the parser of format f.
func ParserFor(f format.Format, opts ...ParserOption) (Parser, error) {
	cfg := &ParserConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	switch f {
	case format.SAC:
		return &sacParser{cfg: *cfg}, nil
	case format.MiniSEED:
		return &mseedParser{cfg: *cfg}, nil
	case format.SEGY:
		return &segyParser{cfg: *cfg}, nil
	case format.GeoCSV:
		return &geocsvParser{cfg: *cfg}, nil
	case format.Native:
		return &nativeParser{cfg: *cfg}, nil
	case format.UW:
		return &uwParser{cfg: *cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownFormat, f)
	}
}

// engines returns the byte orders to try, forced order first.
func (c ParserConfig) engines(detected ...endian.Order) []endian.EndianEngine {
	if c.order != endian.Auto {
		return []endian.EndianEngine{c.order.Engine()}
	}

	out := make([]endian.EndianEngine, 0, len(detected))
	for _, o := range detected {
		out = append(out, o.Engine())
	}

	return out
}
