package sample

import (
	"bytes"
	"fmt"
	"math"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/x448/float16"
)

// Decode decodes raw as a packed array of type t in the engine's byte order.
//
// Returns an UnknownTypeError for an unsupported t and ErrLengthMismatch when
// len(raw) is not a multiple of the type width. The returned vector does not
// share memory with raw.
func Decode(t Type, raw []byte, engine endian.EndianEngine) (Vector, error) {
	width := t.Width()
	if width == 0 {
		return nil, t.Check()
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %s width %d", errs.ErrLengthMismatch, len(raw), t, width)
	}

	n := len(raw) / width
	switch t {
	case Int8:
		return decodeSeries(raw, n, width, func(b []byte) int8 { return int8(b[0]) }), nil
	case Int16:
		return decodeSeries(raw, n, width, func(b []byte) int16 { return int16(engine.Uint16(b)) }), nil //nolint:gosec
	case Int32:
		return decodeSeries(raw, n, width, func(b []byte) int32 { return int32(engine.Uint32(b)) }), nil //nolint:gosec
	case Int64:
		return decodeSeries(raw, n, width, func(b []byte) int64 { return int64(engine.Uint64(b)) }), nil //nolint:gosec
	case Int128:
		return decodeSeries(raw, n, width, func(b []byte) I128 {
			hi, lo := words128(b, engine)
			return I128{Hi: int64(hi), Lo: lo} //nolint:gosec
		}), nil
	case Uint8:
		return decodeSeries(raw, n, width, func(b []byte) uint8 { return b[0] }), nil
	case Uint16:
		return decodeSeries(raw, n, width, engine.Uint16), nil
	case Uint32:
		return decodeSeries(raw, n, width, engine.Uint32), nil
	case Uint64:
		return decodeSeries(raw, n, width, engine.Uint64), nil
	case Uint128:
		return decodeSeries(raw, n, width, func(b []byte) U128 {
			hi, lo := words128(b, engine)
			return U128{Hi: hi, Lo: lo}
		}), nil
	case Float16:
		return decodeSeries(raw, n, width, func(b []byte) float16.Float16 { return float16.Frombits(engine.Uint16(b)) }), nil
	case Float32:
		return decodeSeries(raw, n, width, func(b []byte) float32 { return math.Float32frombits(engine.Uint32(b)) }), nil
	case Float64:
		return decodeSeries(raw, n, width, func(b []byte) float64 { return math.Float64frombits(engine.Uint64(b)) }), nil
	case Complex64:
		return decodeSeries(raw, n, width, func(b []byte) complex64 {
			return complex(math.Float32frombits(engine.Uint32(b[0:4])), math.Float32frombits(engine.Uint32(b[4:8])))
		}), nil
	case Complex128:
		return decodeSeries(raw, n, width, func(b []byte) complex128 {
			return complex(math.Float64frombits(engine.Uint64(b[0:8])), math.Float64frombits(engine.Uint64(b[8:16])))
		}), nil
	default:
		return decodeSeries(raw, n, width, func(b []byte) CharByte { return CharByte(b[0]) }), nil
	}
}

func decodeSeries[T Element](raw []byte, n, width int, fn func([]byte) T) Series[T] {
	out := make(Series[T], n)
	for i := range out {
		out[i] = fn(raw[i*width : (i+1)*width])
	}

	return out
}

// words128 returns the high and low words of a 16-byte field. The word order
// follows the byte order: big-endian stores the high word first.
func words128(b []byte, engine endian.EndianEngine) (uint64, uint64) {
	if endian.OrderOf(engine) == endian.Little {
		return engine.Uint64(b[8:16]), engine.Uint64(b[0:8])
	}

	return engine.Uint64(b[0:8]), engine.Uint64(b[8:16])
}

func appendWords128(dst []byte, hi, lo uint64, engine endian.EndianEngine) []byte {
	if endian.OrderOf(engine) == endian.Little {
		return engine.AppendUint64(engine.AppendUint64(dst, lo), hi)
	}

	return engine.AppendUint64(engine.AppendUint64(dst, hi), lo)
}

// Encode returns v packed in the engine's byte order.
func Encode(v Vector, engine endian.EndianEngine) []byte {
	if v == nil {
		return nil
	}

	return AppendEncode(make([]byte, 0, v.Len()*v.Type().Width()), v, engine)
}

// AppendEncode appends v packed in the engine's byte order to dst.
func AppendEncode(dst []byte, v Vector, engine endian.EndianEngine) []byte {
	switch s := v.(type) {
	case Series[int8]:
		for _, x := range s {
			dst = append(dst, byte(x))
		}
	case Series[int16]:
		for _, x := range s {
			dst = engine.AppendUint16(dst, uint16(x)) //nolint:gosec
		}
	case Series[int32]:
		for _, x := range s {
			dst = engine.AppendUint32(dst, uint32(x)) //nolint:gosec
		}
	case Series[int64]:
		for _, x := range s {
			dst = engine.AppendUint64(dst, uint64(x)) //nolint:gosec
		}
	case Series[I128]:
		for _, x := range s {
			dst = appendWords128(dst, uint64(x.Hi), x.Lo, engine) //nolint:gosec
		}
	case Series[uint8]:
		dst = append(dst, s...)
	case Series[uint16]:
		for _, x := range s {
			dst = engine.AppendUint16(dst, x)
		}
	case Series[uint32]:
		for _, x := range s {
			dst = engine.AppendUint32(dst, x)
		}
	case Series[uint64]:
		for _, x := range s {
			dst = engine.AppendUint64(dst, x)
		}
	case Series[U128]:
		for _, x := range s {
			dst = appendWords128(dst, x.Hi, x.Lo, engine)
		}
	case Series[float16.Float16]:
		for _, x := range s {
			dst = engine.AppendUint16(dst, x.Bits())
		}
	case Series[float32]:
		for _, x := range s {
			dst = engine.AppendUint32(dst, math.Float32bits(x))
		}
	case Series[float64]:
		for _, x := range s {
			dst = engine.AppendUint64(dst, math.Float64bits(x))
		}
	case Series[complex64]:
		for _, x := range s {
			dst = engine.AppendUint32(dst, math.Float32bits(real(x)))
			dst = engine.AppendUint32(dst, math.Float32bits(imag(x)))
		}
	case Series[complex128]:
		for _, x := range s {
			dst = engine.AppendUint64(dst, math.Float64bits(real(x)))
			dst = engine.AppendUint64(dst, math.Float64bits(imag(x)))
		}
	case Series[CharByte]:
		for _, x := range s {
			dst = append(dst, byte(x))
		}
	}

	return dst
}

// DecodeValue decodes a single value of type t from the start of raw.
func DecodeValue(t Type, raw []byte, engine endian.EndianEngine) (Vector, error) {
	width := t.Width()
	if width == 0 {
		return nil, t.Check()
	}
	if len(raw) < width {
		return nil, fmt.Errorf("%w: need %d bytes for %s, have %d", errs.ErrLengthMismatch, width, t, len(raw))
	}

	return Decode(t, raw[:width], engine)
}

// EncodeValue packs sample i of v in the engine's byte order.
func EncodeValue(v Vector, i int, engine endian.EndianEngine) []byte {
	return Encode(v.Slice(i, i+1), engine)
}

// DecodeString decodes a fixed-length character field, trimming trailing
// spaces and NUL bytes.
func DecodeString(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	return string(bytes.TrimRight(raw, " "))
}

// EncodeString returns s as a fixed-length, space-padded field of width bytes.
// Longer strings are truncated.
func EncodeString(s string, width int) []byte {
	out := bytes.Repeat([]byte{' '}, width)
	copy(out, s)

	return out
}

// AppendString appends s as a fixed-length, space-padded field of width bytes.
func AppendString(dst []byte, s string, width int) []byte {
	return append(dst, EncodeString(s, width)...)
}
