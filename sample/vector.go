package sample

import (
	"fmt"

	"github.com/arloliu/seiskit/errs"
)

// Vector is a typed, ordered sequence of samples.
//
// All Vector values are Series[T] for one of the Element types; operations
// taking a second Vector require it to have the same Type and return
// errs.ErrTypeMismatch otherwise.
type Vector interface {
	// Type returns the element type tag.
	Type() Type
	// Len returns the number of samples.
	Len() int
	// Slice returns samples [i, j). The result shares memory with the receiver.
	Slice(i, j int) Vector
	// Clone returns a deep copy.
	Clone() Vector
	// Concat returns a new vector holding the receiver's samples followed by o's.
	Concat(o Vector) (Vector, error)
	// Append appends o's samples, reusing the receiver's storage when its
	// capacity allows. The receiver must not be read through other slices
	// past its length.
	Append(o Vector) (Vector, error)
	// Float64At returns sample i as float64 (real part for complex types).
	Float64At(i int) float64
	// Same reports whether sample i equals sample j of o. NaN agrees with NaN.
	Same(i int, o Vector, j int) bool
	// Gather builds a new vector by picking, in order, samples from the receiver or o.
	Gather(o Vector, refs []Ref) (Vector, error)
	// Scatter returns a vector of n samples where sample i of the receiver lands at
	// index at[i] (skipped when at[i] is outside [0, n)) and every other index holds fill.
	// The second return value is the number of indices that received fill.
	Scatter(n int, at []int, fill Fill) (Vector, int)
	// IsFill reports whether sample i equals the value fill would write.
	IsFill(i int, fill Fill) bool
	// Convert returns a copy converted to type t (lossy through float64).
	Convert(t Type) (Vector, error)
}

// Ref selects one sample for Vector.Gather: sample Index of the receiver, or of
// the other vector when Other is set.
type Ref struct {
	Index int
	Other bool
}

// Series is the concrete Vector implementation for element type T.
type Series[T Element] []T

var (
	_ Vector = Series[int32](nil)
	_ Vector = Series[float64](nil)
)

func (s Series[T]) Type() Type { return TypeOf[T]() }

func (s Series[T]) Len() int { return len(s) }

func (s Series[T]) Slice(i, j int) Vector { return s[i:j] }

func (s Series[T]) Clone() Vector {
	out := make(Series[T], len(s))
	copy(out, s)

	return out
}

func (s Series[T]) Concat(o Vector) (Vector, error) {
	other, err := s.peer(o)
	if err != nil {
		return nil, err
	}

	out := make(Series[T], 0, len(s)+len(other))
	out = append(out, s...)

	return append(out, other...), nil
}

func (s Series[T]) Append(o Vector) (Vector, error) {
	other, err := s.peer(o)
	if err != nil {
		return nil, err
	}

	return append(s, other...), nil
}

func (s Series[T]) Float64At(i int) float64 { return toFloat64(s[i]) }

func (s Series[T]) Same(i int, o Vector, j int) bool {
	other, ok := o.(Series[T])
	if !ok {
		return false
	}

	return same(s[i], other[j])
}

func (s Series[T]) Gather(o Vector, refs []Ref) (Vector, error) {
	var other Series[T]
	if o != nil {
		var err error
		if other, err = s.peer(o); err != nil {
			return nil, err
		}
	}

	out := make(Series[T], len(refs))
	for k, ref := range refs {
		if ref.Other {
			out[k] = other[ref.Index]
		} else {
			out[k] = s[ref.Index]
		}
	}

	return out, nil
}

func (s Series[T]) Scatter(n int, at []int, fill Fill) (Vector, int) {
	out := make(Series[T], n)
	covered := make([]bool, n)
	for i, k := range at {
		if i >= len(s) {
			break
		}
		if k < 0 || k >= n {
			continue
		}
		out[k] = s[i]
		covered[k] = true
	}

	filler := fillOf[T](fill)
	filled := 0
	for k := range out {
		if !covered[k] {
			out[k] = filler
			filled++
		}
	}

	return out, filled
}

func (s Series[T]) IsFill(i int, fill Fill) bool {
	return same(s[i], fillOf[T](fill))
}

func (s Series[T]) Convert(t Type) (Vector, error) {
	if t == s.Type() {
		return s.Clone(), nil
	}

	switch t {
	case Int8:
		return convertSeries[T, int8](s), nil
	case Int16:
		return convertSeries[T, int16](s), nil
	case Int32:
		return convertSeries[T, int32](s), nil
	case Int64:
		return convertSeries[T, int64](s), nil
	case Int128:
		return convertSeries[T, I128](s), nil
	case Uint8:
		return convertSeries[T, uint8](s), nil
	case Uint16:
		return convertSeries[T, uint16](s), nil
	case Uint32:
		return convertSeries[T, uint32](s), nil
	case Uint64:
		return convertSeries[T, uint64](s), nil
	case Uint128:
		return convertSeries[T, U128](s), nil
	case Float16:
		return convertSeries[T, float16Type](s), nil
	case Float32:
		return convertSeries[T, float32](s), nil
	case Float64:
		return convertSeries[T, float64](s), nil
	case Complex64:
		return convertSeries[T, complex64](s), nil
	case Complex128:
		return convertSeries[T, complex128](s), nil
	case Char:
		return convertSeries[T, CharByte](s), nil
	default:
		return nil, t.Check()
	}
}

func (s Series[T]) peer(o Vector) (Series[T], error) {
	if o == nil {
		return nil, nil
	}
	other, ok := o.(Series[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s vs %s", errs.ErrTypeMismatch, s.Type(), o.Type())
	}

	return other, nil
}

func convertSeries[S, D Element](src Series[S]) Series[D] {
	out := make(Series[D], len(src))
	for i, v := range src {
		out[i] = fromFloat64[D](toFloat64(v))
	}

	return out
}

// New returns a zero-filled vector of n samples of type t.
func New(t Type, n int) (Vector, error) {
	switch t {
	case Int8:
		return make(Series[int8], n), nil
	case Int16:
		return make(Series[int16], n), nil
	case Int32:
		return make(Series[int32], n), nil
	case Int64:
		return make(Series[int64], n), nil
	case Int128:
		return make(Series[I128], n), nil
	case Uint8:
		return make(Series[uint8], n), nil
	case Uint16:
		return make(Series[uint16], n), nil
	case Uint32:
		return make(Series[uint32], n), nil
	case Uint64:
		return make(Series[uint64], n), nil
	case Uint128:
		return make(Series[U128], n), nil
	case Float16:
		return make(Series[float16Type], n), nil
	case Float32:
		return make(Series[float32], n), nil
	case Float64:
		return make(Series[float64], n), nil
	case Complex64:
		return make(Series[complex64], n), nil
	case Complex128:
		return make(Series[complex128], n), nil
	case Char:
		return make(Series[CharByte], n), nil
	default:
		return nil, t.Check()
	}
}

// Sentinel returns a one-sample vector holding the reserved fill value of
// type t: NaN for floating types, the minimum for signed integers, the
// maximum for unsigned integers and 0x00 for Char.
func Sentinel(t Type) (Vector, error) {
	v, err := New(t, 0)
	if err != nil {
		return nil, err
	}
	out, _ := v.Scatter(1, nil, SentinelFill())

	return out, nil
}

// FromFloat64s converts values to a vector of type t.
func FromFloat64s(t Type, values []float64) (Vector, error) {
	return Series[float64](values).Convert(t)
}

// Float64s returns every sample of v as float64.
func Float64s(v Vector) []float64 {
	if f, ok := v.(Series[float64]); ok {
		out := make([]float64, len(f))
		copy(out, f)

		return out
	}

	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.Float64At(i)
	}

	return out
}

// Equal reports whether a and b have the same type, length and samples.
func Equal(a, b Vector) bool {
	if Len(a) == 0 && Len(b) == 0 {
		return true
	}
	if a == nil || b == nil || a.Type() != b.Type() || a.Len() != b.Len() {
		return false
	}
	for i := range a.Len() {
		if !a.Same(i, b, i) {
			return false
		}
	}

	return true
}

// Len returns v.Len(), or 0 for a nil vector.
func Len(v Vector) int {
	if v == nil {
		return 0
	}

	return v.Len()
}
