package section

import (
	"fmt"
	"math"
	"time"

	"github.com/arloliu/seiskit/compress"
	"github.com/arloliu/seiskit/errs"
)

// NativeHeader is the fixed-size header at the start of every native block.
//
// The block body follows the header in this order: CBOR metadata,
// breakpoint table, sample payload. BlockLength covers header and body.
type NativeHeader struct {
	// Flag holds magic, byte order, sample type and codec.
	Flag NativeFlag // byte offset 0-3
	// StartTime is the time of the first sample, in microseconds since the Unix epoch.
	StartTime int64 // byte offset 4-11
	// SampleRate is the sampling frequency in Hz, 0 for irregular channels.
	SampleRate float64 // byte offset 12-19
	// SampleCount is the number of samples in the payload.
	SampleCount uint32 // byte offset 20-23
	// BreakpointCount is the number of entries in the breakpoint table.
	BreakpointCount uint32 // byte offset 24-27
	// MetaLength is the byte length of the CBOR metadata section.
	MetaLength uint32 // byte offset 28-31
	// BreakpointLength is the byte length of the breakpoint table.
	BreakpointLength uint32 // byte offset 32-35
	// PayloadLength is the byte length of the shuffled and compressed samples.
	PayloadLength uint32 // byte offset 36-39
	// BlockLength is the total block length including this header.
	BlockLength uint32 // byte offset 40-43
	// Checksum is the low 32 bits of the xxHash64 of the payload section.
	Checksum uint32 // byte offset 44-47
}

// Parse parses the header from exactly HeaderSize bytes.
func (h *NativeHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.SampleType = data[SampleTypeOffset]
	h.Flag.Codec = data[CodecOffset]

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.StartTime = int64(engine.Uint64(data[StartTimeOffset:])) //nolint:gosec
	h.SampleRate = math.Float64frombits(engine.Uint64(data[SampleRateOffset:]))
	h.SampleCount = engine.Uint32(data[SampleCountOffset:])
	h.BreakpointCount = engine.Uint32(data[BreakpointCountOffset:])
	h.MetaLength = engine.Uint32(data[MetaLengthOffset:])
	h.BreakpointLength = engine.Uint32(data[BreakpointLengthOffset:])
	h.PayloadLength = engine.Uint32(data[PayloadLengthOffset:])
	h.BlockLength = engine.Uint32(data[BlockLengthOffset:])
	h.Checksum = engine.Uint32(data[ChecksumOffset:])

	return h.validateLayout()
}

func (h *NativeHeader) validateLayout() error {
	if math.IsNaN(h.SampleRate) || math.IsInf(h.SampleRate, 0) || h.SampleRate < 0 {
		return fmt.Errorf("%w: %g", errs.ErrInvalidSampleRate, h.SampleRate)
	}
	if h.Flag.IsIrregular() != (h.SampleRate == 0) {
		return fmt.Errorf("%w: irregular flag disagrees with rate %g", errs.ErrInvalidHeaderFlags, h.SampleRate)
	}

	body := uint64(h.MetaLength) + uint64(h.BreakpointLength) + uint64(h.PayloadLength)
	if uint64(h.BlockLength) != HeaderSize+body {
		return fmt.Errorf("%w: block length %d, sections sum to %d", errs.ErrInvalidHeaderSize, h.BlockLength, HeaderSize+body)
	}
	if h.SampleCount > 0 && h.BreakpointCount == 0 {
		return fmt.Errorf("%w: %d samples without breakpoints", errs.ErrInvalidTimeline, h.SampleCount)
	}
	// Every breakpoint entry takes at least one byte of the table.
	if h.BreakpointCount > h.BreakpointLength {
		return fmt.Errorf("%w: %d breakpoints in a %d byte table", errs.ErrInvalidTimeline, h.BreakpointCount, h.BreakpointLength)
	}
	if size := uint64(h.SampleCount) * uint64(h.Flag.Type().Width()); size > compress.MaxDecodedSize {
		return fmt.Errorf("%w: %d samples need %d bytes, limit %d", errs.ErrLengthMismatch, h.SampleCount, size, compress.MaxDecodedSize)
	}

	return nil
}

// Bytes serializes the header.
func (h *NativeHeader) Bytes() []byte {
	return h.AppendBytes(make([]byte, 0, HeaderSize))
}

// AppendBytes appends the serialized header to dst.
func (h *NativeHeader) AppendBytes(dst []byte) []byte {
	engine := h.Flag.GetEndianEngine()

	dst = append(dst, byte(h.Flag.Options), byte(h.Flag.Options>>8), h.Flag.SampleType, h.Flag.Codec)
	dst = engine.AppendUint64(dst, uint64(h.StartTime)) //nolint:gosec
	dst = engine.AppendUint64(dst, math.Float64bits(h.SampleRate))
	dst = engine.AppendUint32(dst, h.SampleCount)
	dst = engine.AppendUint32(dst, h.BreakpointCount)
	dst = engine.AppendUint32(dst, h.MetaLength)
	dst = engine.AppendUint32(dst, h.BreakpointLength)
	dst = engine.AppendUint32(dst, h.PayloadLength)
	dst = engine.AppendUint32(dst, h.BlockLength)

	return engine.AppendUint32(dst, h.Checksum)
}

// SetSections records the section lengths and derives BlockLength.
func (h *NativeHeader) SetSections(meta, breakpoints, payload int) {
	h.MetaLength = uint32(meta)              //nolint:gosec
	h.BreakpointLength = uint32(breakpoints) //nolint:gosec
	h.PayloadLength = uint32(payload)        //nolint:gosec

	h.BlockLength = uint32(HeaderSize + meta + breakpoints + payload) //nolint:gosec
}

// MetaOffset returns the byte offset of the metadata section.
func (h *NativeHeader) MetaOffset() int { return HeaderSize }

// BreakpointOffset returns the byte offset of the breakpoint table.
func (h *NativeHeader) BreakpointOffset() int { return HeaderSize + int(h.MetaLength) }

// PayloadOffset returns the byte offset of the sample payload.
func (h *NativeHeader) PayloadOffset() int {
	return HeaderSize + int(h.MetaLength) + int(h.BreakpointLength)
}

// StartTimeAsTime returns the start time as a time.Time.
func (h *NativeHeader) StartTimeAsTime() time.Time {
	return time.UnixMicro(h.StartTime)
}

// ParseNativeHeader parses a NativeHeader from the start of data.
func ParseNativeHeader(data []byte) (NativeHeader, error) {
	if len(data) < HeaderSize {
		return NativeHeader{}, errs.ErrInvalidHeaderSize
	}

	h := NativeHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return NativeHeader{}, err
	}

	return h, nil
}

// PeekBlockLength returns the BlockLength of the block at the start of data
// after checking the magic number. It does not validate the rest of the header.
func PeekBlockLength(data []byte) (int, error) {
	if len(data) < HeaderSize {
		return 0, errs.ErrInvalidHeaderSize
	}

	flag := NativeFlag{Options: uint16(data[0]) | uint16(data[1])<<8}
	if flag.GetMagicNumber() != MagicNativeV1Opt {
		return 0, fmt.Errorf("%w: 0x%04x", errs.ErrInvalidMagicNumber, flag.GetMagicNumber())
	}

	return int(flag.GetEndianEngine().Uint32(data[BlockLengthOffset:])), nil
}
