package sample

import (
	"errors"
	"math"
	"testing"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func roundTripVectors() []Vector {
	return []Vector{
		Series[int8]{math.MinInt8, -1, 0, 1, math.MaxInt8},
		Series[int16]{math.MinInt16, -2, 0, 300, math.MaxInt16},
		Series[int32]{math.MinInt32, -70000, 0, 70000, math.MaxInt32},
		Series[int64]{math.MinInt64, -1 << 40, 0, 1 << 40, math.MaxInt64},
		Series[I128]{{Hi: -1, Lo: math.MaxUint64}, {Hi: 0, Lo: 42}, {Hi: math.MaxInt64, Lo: 7}},
		Series[uint8]{0, 1, math.MaxUint8},
		Series[uint16]{0, 1, math.MaxUint16},
		Series[uint32]{0, 1, math.MaxUint32},
		Series[uint64]{0, 1, math.MaxUint64},
		Series[U128]{{Hi: 0, Lo: 1}, {Hi: math.MaxUint64, Lo: 0}},
		Series[float16.Float16]{float16.Fromfloat32(1.5), float16.Fromfloat32(-2), float16.Inf(1)},
		Series[float32]{-1.25, 0, 3.5e10, float32(math.Inf(-1))},
		Series[float64]{-1.25, 0, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64},
		Series[complex64]{complex(1, -1), complex(0, 2.5)},
		Series[complex128]{complex(math.Pi, -math.E), 0},
		Series[CharByte]{'S', 'E', 'E', 'D'},
	}
}

func TestDecodeEncode_RoundTrip(t *testing.T) {
	engines := map[string]endian.EndianEngine{
		"little": endian.GetLittleEndianEngine(),
		"big":    endian.GetBigEndianEngine(),
	}

	for name, engine := range engines {
		for _, v := range roundTripVectors() {
			t.Run(name+"/"+v.Type().String(), func(t *testing.T) {
				raw := Encode(v, engine)
				require.Len(t, raw, v.Len()*v.Type().Width())

				decoded, err := Decode(v.Type(), raw, engine)
				require.NoError(t, err)
				require.Equal(t, v.Type(), decoded.Type())
				require.True(t, Equal(v, decoded), "round trip mismatch: %v vs %v", v, decoded)
			})
		}
	}
}

func TestDecode_ByteOrder(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x01, 0x02}

	big, err := Decode(Int32, raw, endian.GetBigEndianEngine())
	require.NoError(t, err)
	require.Equal(t, Series[int32]{0x0102}, big)

	little, err := Decode(Int32, raw, endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, Series[int32]{0x02010000}, little)
}

func TestDecode_Int128WordOrder(t *testing.T) {
	v := Series[I128]{{Hi: 1, Lo: 2}}

	big := Encode(v, endian.GetBigEndianEngine())
	require.Equal(t, byte(1), big[7])
	require.Equal(t, byte(2), big[15])

	little := Encode(v, endian.GetLittleEndianEngine())
	require.Equal(t, byte(2), little[0])
	require.Equal(t, byte(1), little[8])
}

func TestDecode_Errors(t *testing.T) {
	t.Run("Unknown type", func(t *testing.T) {
		_, err := Decode(Type(99), []byte{1, 2}, endian.GetBigEndianEngine())
		require.ErrorIs(t, err, errs.ErrUnknownType)

		var unknown *errs.UnknownTypeError
		require.True(t, errors.As(err, &unknown))
		require.Equal(t, 99, unknown.Tag)
	})

	t.Run("Length not multiple of width", func(t *testing.T) {
		_, err := Decode(Float32, []byte{1, 2, 3}, endian.GetBigEndianEngine())
		require.ErrorIs(t, err, errs.ErrLengthMismatch)
	})

	t.Run("Short scalar", func(t *testing.T) {
		_, err := DecodeValue(Int64, []byte{1, 2, 3}, endian.GetBigEndianEngine())
		require.ErrorIs(t, err, errs.ErrLengthMismatch)
	})
}

func TestDecodeValue(t *testing.T) {
	raw := []byte{0x40, 0x49, 0x0f, 0xdb, 0xff}
	v, err := DecodeValue(Float32, raw, endian.GetBigEndianEngine())
	require.NoError(t, err)
	require.InDelta(t, math.Pi, v.Float64At(0), 1e-6)
	require.Equal(t, raw[:4], EncodeValue(v, 0, endian.GetBigEndianEngine()))

	pair := Series[int16]{7, -2}
	require.Equal(t, []byte{0xfe, 0xff}, EncodeValue(pair, 1, endian.GetLittleEndianEngine()))
}

func TestStringFields(t *testing.T) {
	require.Equal(t, []byte("ELK     "), EncodeString("ELK", 8))
	require.Equal(t, []byte("TOOL"), EncodeString("TOOLONG", 4))
	require.Equal(t, "ELK", DecodeString([]byte("ELK     ")))
	require.Equal(t, "EHZ", DecodeString([]byte{'E', 'H', 'Z', 0, 'x'}))
	require.Equal(t, []byte("ABCD  "), AppendString([]byte("AB"), "CD", 4))
}

func TestTypeProperties(t *testing.T) {
	for _, typ := range Types {
		require.True(t, typ.Valid())
		require.NoError(t, typ.Check())
		require.Positive(t, typ.Width())

		parsed, ok := ParseType(typ.String())
		require.True(t, ok)
		require.Equal(t, typ, parsed)
	}

	require.False(t, Type(0).Valid())
	require.Zero(t, Type(0).Width())
	require.True(t, Float16.IsFloat())
	require.True(t, Complex64.IsComplex())
	require.True(t, Int128.IsSigned())
	require.True(t, Uint128.IsUnsigned())
	require.False(t, Char.IsInteger())
}
