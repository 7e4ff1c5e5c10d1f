package section

import (
	"fmt"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
)

// NativeFlag is the first 4 bytes of a native block header.
type NativeFlag struct {
	// Options is a packed field, always stored little-endian.
	// Bit 0 is set for irregularly sampled channels (fs == 0).
	// Bit 1 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bits 2-3 are reserved and must be 0.
	// Bits 4-15 are the magic number, 0x5E10 for native block v1.
	Options uint16

	// SampleType is the sample.Type tag of the payload.
	SampleType uint8
	// Codec is the format.CodecID of the payload.
	Codec uint8
}

// NewNativeFlag creates a little-endian flag for the given payload type and codec.
func NewNativeFlag(t sample.Type, codec format.CodecID) NativeFlag {
	return NativeFlag{
		Options:    MagicNativeV1Opt,
		SampleType: uint8(t),
		Codec:      uint8(codec),
	}
}

func (f NativeFlag) IsIrregular() bool {
	return f.Options&IrregularMask != 0
}

func (f *NativeFlag) SetIrregular(irregular bool) {
	if irregular {
		f.Options |= IrregularMask
	} else {
		f.Options &^= IrregularMask
	}
}

func (f NativeFlag) IsLittleEndian() bool {
	return f.Options&EndiannessMask == 0
}

func (f NativeFlag) IsBigEndian() bool {
	return f.Options&EndiannessMask != 0
}

func (f *NativeFlag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

func (f *NativeFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// WithOrder sets the byte order; endian.Auto selects little-endian.
func (f *NativeFlag) WithOrder(order endian.Order) {
	if order == endian.Big {
		f.WithBigEndian()
	} else {
		f.WithLittleEndian()
	}
}

func (f NativeFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

func (f NativeFlag) Type() sample.Type {
	return sample.Type(f.SampleType)
}

func (f NativeFlag) CodecID() format.CodecID {
	return format.CodecID(f.Codec)
}

// Validate checks the magic number, reserved bits and codec. An undefined
// sample type is reported as *errs.UnknownTypeError.
func (f NativeFlag) Validate() error {
	if f.GetMagicNumber() != MagicNativeV1Opt {
		return fmt.Errorf("%w: 0x%04x", errs.ErrInvalidMagicNumber, f.GetMagicNumber())
	}
	if f.Options&ReservedBitsMask != 0 {
		return fmt.Errorf("%w: reserved bits set", errs.ErrInvalidHeaderFlags)
	}

	codec := f.CodecID()
	if codec.Shuffle() > format.ShuffleByte {
		return fmt.Errorf("%w: shuffle %d", errs.ErrInvalidHeaderFlags, codec.Shuffle())
	}
	if c := codec.Compression(); c < format.CompressionNone || c > format.CompressionLZ4 {
		return fmt.Errorf("%w: compression %d", errs.ErrInvalidHeaderFlags, c)
	}

	if err := f.Type().Check(); err != nil {
		return &errs.UnknownTypeError{Format: format.Native.String(), Tag: int(f.SampleType)}
	}

	return nil
}

// GetEndianEngine returns the engine for the numeric header fields and payload.
func (f NativeFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
