// Package endian provides byte order utilities for waveform record decoding and encoding.
//
// Seismic formats disagree on byte order: miniSEED is usually big-endian but
// declares its word order in blockette 1000, SAC files are written in the
// producing host's order, PASSCAL SEG-Y is little-endian by convention.
// A byte order is a record-level setting applied uniformly to every field of
// one record, so parsers resolve an Order once and pass its EndianEngine down.
//
// # Basic Usage
//
//	engine := endian.Big.Engine()
//	npts := engine.Uint32(hdr[316:320])
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Order names a byte order. The zero value means "not specified" and lets
// self-describing formats detect their own order.
type Order uint8

const (
	Auto   Order = iota // Auto lets the parser detect the byte order.
	Little              // Little is little-endian.
	Big                 // Big is big-endian.
)

func (o Order) String() string {
	switch o {
	case Auto:
		return "auto"
	case Little:
		return "little"
	case Big:
		return "big"
	default:
		return "unknown"
	}
}

// ParseOrder parses "auto", "little" or "big" (also "le"/"be").
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "", "auto":
		return Auto, true
	case "little", "le":
		return Little, true
	case "big", "be":
		return Big, true
	default:
		return Auto, false
	}
}

// Engine returns the engine for o. Auto resolves to the big-endian engine,
// the SEED default.
func (o Order) Engine() EndianEngine {
	if o == Little {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// Swap returns the opposite order. Auto is treated as Big.
func (o Order) Swap() Order {
	if o == Little {
		return Big
	}

	return Little
}

// OrderOf returns the Order for an engine returned by this package.
func OrderOf(engine EndianEngine) Order {
	if engine == binary.LittleEndian {
		return Little
	}

	return Big
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256; a little-endian host stores the LSB (0x00) first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Native returns the host's byte order as an Order.
func Native() Order {
	if CheckEndianness() == binary.LittleEndian {
		return Little
	}

	return Big
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
