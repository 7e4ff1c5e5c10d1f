// Package errs defines the error values shared by seiskit packages.
//
// Record-level and channel-level failures are reported as typed errors that
// unwrap to one of the sentinel values below, so callers can branch with
// errors.Is and inspect details with errors.As:
//
//	var malformed *errs.MalformedRecordError
//	if errors.As(err, &malformed) {
//	    log.Printf("skipping record at offset %d: %s", malformed.Offset, malformed.Reason)
//	}
//
// Propagation policy: record failures are isolated to the record that
// produced them, container operations aggregate per-channel failures.
package errs

import (
	"errors"
	"fmt"
)

// Taxonomy sentinels.
var (
	// ErrUnknownType is returned when a format type tag cannot be resolved to a sample type.
	ErrUnknownType = errors.New("unknown sample type")
	// ErrMalformedRecord is returned when a record's structural fields are inconsistent.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrCorruptPayload is returned when a payload fails to decompress or has the wrong length.
	ErrCorruptPayload = errors.New("corrupt payload")
	// ErrChannelIdentity is returned when two channels cannot be merged.
	ErrChannelIdentity = errors.New("channel identity mismatch")
	// ErrSyncRateMismatch is returned for channels whose rate differs from the sync target rate.
	ErrSyncRateMismatch = errors.New("sync rate mismatch")
)

// Structural and usage errors.
var (
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidHeaderFlags = errors.New("invalid header flags")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidTimeline    = errors.New("invalid timeline")
	ErrInvalidSampleRate  = errors.New("invalid sample rate")
	ErrInvalidChannelID   = errors.New("invalid channel id")
	ErrTypeMismatch       = errors.New("sample type mismatch")
	ErrLengthMismatch     = errors.New("sample length mismatch")
	ErrDuplicateID        = errors.New("duplicate channel id")
	ErrChannelNotFound    = errors.New("channel not found")
	ErrUnknownFormat      = errors.New("unknown format")
	ErrWriteUnsupported   = errors.New("format does not support writing")
	ErrUnsupportedType    = errors.New("sample type not supported by format")
	ErrInvalidWindow      = errors.New("invalid time window")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidFrame       = errors.New("invalid compression frame")
	ErrFrameIntegrity     = errors.New("reverse integration constant mismatch")
	ErrDiffOutOfRange     = errors.New("difference out of encodable range")
	ErrChecksumMismatch   = errors.New("payload checksum mismatch")
)

// UnknownTypeError reports a type tag that a format's type table does not define.
// The enclosing record cannot be skipped safely past its header, so the record is lost.
type UnknownTypeError struct {
	Format string
	Tag    int
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %s tag %d", ErrUnknownType, e.Format, e.Tag)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// MalformedRecordError reports a structurally inconsistent record.
type MalformedRecordError struct {
	Format string
	Offset int64
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d: %s", ErrMalformedRecord, e.Format, e.Offset, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// Malformed is a shorthand for building a MalformedRecordError.
func Malformed(format string, offset int64, reason string, args ...any) *MalformedRecordError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}

	return &MalformedRecordError{Format: format, Offset: offset, Reason: reason}
}

// CorruptPayloadError reports a payload that could not be restored to its declared length.
// Record metadata survives; the samples are dropped.
type CorruptPayloadError struct {
	Codec    string
	Declared int
	Actual   int
	Err      error
}

func (e *CorruptPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: codec %s: %v", ErrCorruptPayload, e.Codec, e.Err)
	}

	return fmt.Sprintf("%s: codec %s: declared %d bytes, got %d", ErrCorruptPayload, e.Codec, e.Declared, e.Actual)
}

func (e *CorruptPayloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCorruptPayload, e.Err}
	}

	return []error{ErrCorruptPayload}
}

// IdentityError reports why two channels are not considered the same stream.
type IdentityError struct {
	ID    string
	Field string
	A, B  any
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s: %s: %s differs (%v != %v)", ErrChannelIdentity, e.ID, e.Field, e.A, e.B)
}

func (e *IdentityError) Unwrap() error { return ErrChannelIdentity }

// RateMismatchError flags a channel whose rate differs from the sync target rate.
type RateMismatchError struct {
	ID     string
	Fs     float64
	Target float64
}

func (e *RateMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: fs %g, target %g", ErrSyncRateMismatch, e.ID, e.Fs, e.Target)
}

func (e *RateMismatchError) Unwrap() error { return ErrSyncRateMismatch }
