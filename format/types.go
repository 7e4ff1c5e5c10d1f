package format

import "strings"

type (
	Format          uint8
	CompressionType uint8
	ShuffleType     uint8
	// CodecID packs a shuffle type (bits 4-7) and a compression type (bits 0-3)
	// into the single codec byte stored in a native block header.
	CodecID uint8
)

const (
	SAC      Format = 0x1 // SAC is the Seismic Analysis Code binary format (v6).
	MiniSEED Format = 0x2 // MiniSEED is SEED 2.4 data-only records.
	SEGY     Format = 0x3 // SEGY is PASSCAL single-trace SEG-Y.
	GeoCSV   Format = 0x4 // GeoCSV is the IRIS GeoCSV 2.0 text format.
	Native   Format = 0x5 // Native is the seiskit compressed block format.
	UW       Format = 0x6 // UW is the University of Washington UW-2 event data file.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	ShuffleNone ShuffleType = 0x0 // ShuffleNone stores sample bytes as-is.
	ShuffleByte ShuffleType = 0x1 // ShuffleByte transposes sample bytes by element width.
)

// Formats lists every supported format in tag order.
var Formats = []Format{SAC, MiniSEED, SEGY, GeoCSV, Native, UW}

func (f Format) String() string {
	switch f {
	case SAC:
		return "SAC"
	case MiniSEED:
		return "MiniSEED"
	case SEGY:
		return "SEGY"
	case GeoCSV:
		return "GeoCSV"
	case Native:
		return "Native"
	case UW:
		return "UW"
	default:
		return "Unknown"
	}
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sac":
		return SAC, true
	case "mseed", "miniseed", "seed":
		return MiniSEED, true
	case "segy", "passcal":
		return SEGY, true
	case "geocsv", "csv":
		return GeoCSV, true
	case "native", "seiskit":
		return Native, true
	case "uw", "uw2":
		return UW, true
	default:
		return 0, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression resolves a case-insensitive compression name.
func ParseCompression(name string) (CompressionType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

func (s ShuffleType) String() string {
	switch s {
	case ShuffleNone:
		return "NoShuffle"
	case ShuffleByte:
		return "ByteShuffle"
	default:
		return "Unknown"
	}
}

// ParseShuffle resolves "none" or "byte", case-insensitively.
func ParseShuffle(name string) (ShuffleType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "noshuffle":
		return ShuffleNone, true
	case "", "byte", "byteshuffle":
		return ShuffleByte, true
	default:
		return 0, false
	}
}

// NewCodecID combines a shuffle and a compression type.
func NewCodecID(shuffle ShuffleType, compression CompressionType) CodecID {
	return CodecID((uint8(shuffle)&0x0F)<<4 | uint8(compression)&0x0F)
}

// Shuffle returns the shuffle type from bits 4-7.
func (id CodecID) Shuffle() ShuffleType {
	return ShuffleType(uint8(id) >> 4)
}

// Compression returns the compression type from bits 0-3.
func (id CodecID) Compression() CompressionType {
	return CompressionType(uint8(id) & 0x0F)
}

func (id CodecID) String() string {
	return id.Shuffle().String() + "+" + id.Compression().String()
}
