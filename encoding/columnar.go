package encoding

import "iter"

// ColumnarEncoder encodes a column of values into a pooled byte buffer.
type ColumnarEncoder[T comparable] interface {
	// Bytes returns the encoded bytes. The slice is valid until the next
	// Write, WriteSlice or Finish and must not be modified.
	Bytes() []byte

	// Len returns the number of values written.
	Len() int

	// Size returns the number of encoded bytes.
	Size() int

	// Reset clears the encoder state but keeps the accumulated bytes, so a
	// new sequence can be appended to the same column.
	Reset()

	// Finish returns the buffer to the pool. The encoder is unusable afterwards:
	//
	//	enc := NewTimestampDeltaEncoder()
	//	defer enc.Finish()
	Finish()

	// Write encodes a single value.
	Write(data T)

	// WriteSlice encodes a slice of values.
	WriteSlice(values []T)
}

// ColumnarDecoder decodes a column produced by the matching encoder.
type ColumnarDecoder[T comparable] interface {
	// All yields up to count values. Malformed or short data yields fewer.
	All(data []byte, count int) iter.Seq[T]

	// At returns the value at index, or false when index is outside
	// [0, count) or the data is too short.
	At(data []byte, index int, count int) (T, bool)
}
