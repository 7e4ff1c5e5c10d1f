// Package sample implements the sample type codec: the closed set of numeric
// sample types a channel can hold, typed sample vectors, and endianness-aware
// encoding and decoding of fixed-width fields.
//
// Every waveform format resolves its own type code (a miniSEED encoding
// format, a SEG-Y data form, ...) to one of the Type values below; from then
// on, samples travel as a Vector whose element type never changes unless the
// vector is explicitly converted.
//
// # Supported Types
//
//	Type        Go element        Width
//	Int8        int8              1
//	Int16       int16             2
//	Int32       int32             4
//	Int64       int64             8
//	Int128      sample.I128       16
//	Uint8       uint8             1
//	Uint16      uint16            2
//	Uint32      uint32            4
//	Uint64      uint64            8
//	Uint128     sample.U128       16
//	Float16     float16.Float16   2
//	Float32     float32           4
//	Float64     float64           8
//	Complex64   complex64         8
//	Complex128  complex128        16
//	Char        sample.CharByte   1
package sample

import (
	"strings"

	"github.com/arloliu/seiskit/errs"
)

// Type identifies the element type of a sample vector.
type Type uint8

const (
	Int8 Type = iota + 1
	Int16
	Int32
	Int64
	Int128
	Uint8
	Uint16
	Uint32
	Uint64
	Uint128
	Float16
	Float32
	Float64
	Complex64
	Complex128
	Char
)

// Types lists every supported type in tag order.
var Types = []Type{
	Int8, Int16, Int32, Int64, Int128,
	Uint8, Uint16, Uint32, Uint64, Uint128,
	Float16, Float32, Float64, Complex64, Complex128, Char,
}

var typeNames = map[Type]string{
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64", Int128: "int128",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64", Uint128: "uint128",
	Float16: "float16", Float32: "float32", Float64: "float64",
	Complex64: "complex64", Complex128: "complex128", Char: "char",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return "unknown"
}

// ParseType resolves a type name such as "float32".
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}

	return 0, false
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	return t >= Int8 && t <= Char
}

// Check returns an UnknownTypeError when t is not a supported type.
func (t Type) Check() error {
	if !t.Valid() {
		return &errs.UnknownTypeError{Format: "sample", Tag: int(t)}
	}

	return nil
}

// Width returns the encoded size of one element in bytes, or 0 for an invalid type.
func (t Type) Width() int {
	switch t {
	case Int8, Uint8, Char:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Int128, Uint128, Complex128:
		return 16
	default:
		return 0
	}
}

// IsFloat reports whether t is a real floating-point type.
func (t Type) IsFloat() bool {
	return t == Float16 || t == Float32 || t == Float64
}

// IsComplex reports whether t is a complex type.
func (t Type) IsComplex() bool {
	return t == Complex64 || t == Complex128
}

// IsSigned reports whether t is a signed integer type.
func (t Type) IsSigned() bool {
	return t >= Int8 && t <= Int128
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t Type) IsUnsigned() bool {
	return t >= Uint8 && t <= Uint128
}

// IsInteger reports whether t is a signed or unsigned integer type.
func (t Type) IsInteger() bool {
	return t.IsSigned() || t.IsUnsigned()
}
