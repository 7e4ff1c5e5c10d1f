package sample

import (
	"math"
	"math/cmplx"

	"github.com/x448/float16"
)

// I128 is a two's-complement 128-bit signed integer split into words.
type I128 struct {
	Hi int64
	Lo uint64
}

// U128 is a 128-bit unsigned integer split into words.
type U128 struct {
	Hi uint64
	Lo uint64
}

// CharByte is one byte of a fixed-length character buffer.
type CharByte byte

type float16Type = float16.Float16

// Element is the set of Go types a Series can hold.
type Element interface {
	int8 | int16 | int32 | int64 | I128 |
		uint8 | uint16 | uint32 | uint64 | U128 |
		float16.Float16 | float32 | float64 | complex64 | complex128 | CharByte
}

const two64 = 18446744073709551616.0

const two63 = 9223372036854775808.0

// Float64 returns an approximation of v; values that fit in an int64 convert exactly.
func (v I128) Float64() float64 {
	if (v.Hi == 0 && v.Lo < 1<<63) || (v.Hi == -1 && v.Lo >= 1<<63) {
		return float64(int64(v.Lo)) //nolint:gosec
	}

	return float64(v.Hi)*two64 + float64(v.Lo)
}

// I128FromFloat64 converts f. Values within the int64 range convert exactly.
func I128FromFloat64(f float64) I128 {
	if f >= -two63 && f < two63 {
		i := int64(f)
		if i < 0 {
			return I128{Hi: -1, Lo: uint64(i)} //nolint:gosec
		}

		return I128{Lo: uint64(i)}
	}
	hi := math.Floor(f / two64)

	return I128{Hi: int64(hi), Lo: uint64(f - hi*two64)}
}

// Float64 returns an approximation of v.
func (v U128) Float64() float64 {
	return float64(v.Hi)*two64 + float64(v.Lo)
}

// U128FromFloat64 converts f; negative inputs map to zero.
func U128FromFloat64(f float64) U128 {
	if f <= 0 {
		return U128{}
	}
	hi := math.Floor(f / two64)

	return U128{Hi: uint64(hi), Lo: uint64(f - hi*two64)}
}

// TypeOf returns the Type tag of element type T.
func TypeOf[T Element]() Type {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case I128:
		return Int128
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case U128:
		return Uint128
	case float16.Float16:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		return Char
	}
}

// toFloat64 returns the real value of v. Complex values contribute their real part.
func toFloat64[T Element](v T) float64 {
	switch x := any(v).(type) {
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case I128:
		return x.Float64()
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case U128:
		return x.Float64()
	case float16.Float16:
		return float64(x.Float32())
	case float32:
		return float64(x)
	case float64:
		return x
	case complex64:
		return float64(real(x))
	case complex128:
		return real(x)
	case CharByte:
		return float64(x)
	}

	return math.NaN()
}

// fromFloat64 converts f to element type T. Integer conversions round to nearest.
func fromFloat64[T Element](f float64) T {
	var out T
	r := math.Round(f)
	switch p := any(&out).(type) {
	case *int8:
		*p = int8(r)
	case *int16:
		*p = int16(r)
	case *int32:
		*p = int32(r)
	case *int64:
		*p = int64(r)
	case *I128:
		*p = I128FromFloat64(r)
	case *uint8:
		*p = uint8(r)
	case *uint16:
		*p = uint16(r)
	case *uint32:
		*p = uint32(r)
	case *uint64:
		*p = uint64(r)
	case *U128:
		*p = U128FromFloat64(r)
	case *float16.Float16:
		*p = float16.Fromfloat32(float32(f))
	case *float32:
		*p = float32(f)
	case *float64:
		*p = f
	case *complex64:
		*p = complex(float32(f), 0)
	case *complex128:
		*p = complex(f, 0)
	case *CharByte:
		*p = CharByte(r)
	}

	return out
}

// sentinel returns the reserved fill value of element type T: NaN for floating
// and complex types, the minimum for signed integers, the maximum for unsigned
// integers and NUL for characters.
func sentinel[T Element]() T {
	var out T
	switch p := any(&out).(type) {
	case *int8:
		*p = math.MinInt8
	case *int16:
		*p = math.MinInt16
	case *int32:
		*p = math.MinInt32
	case *int64:
		*p = math.MinInt64
	case *I128:
		*p = I128{Hi: math.MinInt64}
	case *uint8:
		*p = math.MaxUint8
	case *uint16:
		*p = math.MaxUint16
	case *uint32:
		*p = math.MaxUint32
	case *uint64:
		*p = math.MaxUint64
	case *U128:
		*p = U128{Hi: math.MaxUint64, Lo: math.MaxUint64}
	case *float16.Float16:
		*p = float16.NaN()
	case *float32:
		*p = float32(math.NaN())
	case *float64:
		*p = math.NaN()
	case *complex64:
		nan := float32(math.NaN())
		*p = complex(nan, nan)
	case *complex128:
		*p = complex(math.NaN(), math.NaN())
	case *CharByte:
		*p = 0
	}

	return out
}

// same reports whether a and b hold the same value. NaN agrees with NaN.
func same[T Element](a, b T) bool {
	if a == b {
		return true
	}

	switch x := any(a).(type) {
	case float16.Float16:
		return x.IsNaN() && any(b).(float16.Float16).IsNaN()
	case float32:
		return math.IsNaN(float64(x)) && math.IsNaN(float64(any(b).(float32)))
	case float64:
		return math.IsNaN(x) && math.IsNaN(any(b).(float64))
	case complex64:
		return cmplx.IsNaN(complex128(x)) && cmplx.IsNaN(complex128(any(b).(complex64)))
	case complex128:
		return cmplx.IsNaN(x) && cmplx.IsNaN(any(b).(complex128))
	}

	return false
}

// Fill selects the value written into uncovered grid positions.
// The zero value selects the type's sentinel.
type Fill struct {
	value  float64
	custom bool
}

// SentinelFill returns the Fill that uses each type's reserved sentinel.
func SentinelFill() Fill {
	return Fill{}
}

// FillValue returns a Fill that writes v converted to the vector's element type.
func FillValue(v float64) Fill {
	return Fill{value: v, custom: true}
}

// IsSentinel reports whether f uses the type sentinel.
func (f Fill) IsSentinel() bool {
	return !f.custom
}

// Value returns the custom fill value; NaN when f uses the sentinel.
func (f Fill) Value() float64 {
	if !f.custom {
		return math.NaN()
	}

	return f.value
}

func fillOf[T Element](f Fill) T {
	if f.custom {
		return fromFloat64[T](f.value)
	}

	return sentinel[T]()
}
