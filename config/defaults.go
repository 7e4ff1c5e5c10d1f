package config

import "github.com/arloliu/seiskit/record"

const (
	defaultReaderFormat   = "miniseed"
	defaultByteOrder      = "auto"
	defaultWriterFormat   = "native"
	defaultEncoding       = "auto"
	defaultShuffle        = "byte"
	defaultCompression    = "zstd"
	defaultLogFormat      = "text"
	defaultLogLevel       = "info"
	defaultRecordLength   = record.DefaultRecordLength
	defaultReaderWorkers  = 0
	defaultSyncRate       = 0.0
	defaultMergeTolerance = ""
)

// Default returns a Config populated with the library defaults.
func Default() Config {
	return Config{
		Reader: Reader{
			Format:    defaultReaderFormat,
			Workers:   defaultReaderWorkers,
			ByteOrder: defaultByteOrder,
		},
		Merge: Merge{
			GapTolerance: defaultMergeTolerance,
		},
		Sync: Sync{
			Rate: defaultSyncRate,
		},
		Writer: Writer{
			Format:       defaultWriterFormat,
			ByteOrder:    defaultByteOrder,
			Encoding:     defaultEncoding,
			RecordLength: defaultRecordLength,
			Shuffle:      defaultShuffle,
			Compression:  defaultCompression,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
