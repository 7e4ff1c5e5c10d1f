package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Reader configures record decoding.
type Reader struct {
	Format    string `toml:"format"`
	Workers   int    `toml:"workers"`    // 0 means GOMAXPROCS
	ByteOrder string `toml:"byte_order"` // auto, little or big
	Source    string `toml:"source"`
}

// Merge configures how the container combines overlapping channels.
type Merge struct {
	// GapTolerance is a duration such as "2ms". Empty means half a sample period.
	GapTolerance string `toml:"gap_tolerance"`
}

// Sync configures Container.Sync.
type Sync struct {
	// Rate is the target rate in Hz; 0 selects the most common rate.
	Rate float64 `toml:"rate"`
	// Fill replaces the sample type's sentinel for uncovered positions.
	Fill *float64 `toml:"fill"`
	// Start and Stop bound the grid as RFC 3339 times. Both empty selects
	// the union of coverage.
	Start string `toml:"start"`
	Stop  string `toml:"stop"`
}

// Writer configures record encoding.
type Writer struct {
	Format       string `toml:"format"`
	ByteOrder    string `toml:"byte_order"`
	Encoding     string `toml:"encoding"` // miniSEED only
	RecordLength int    `toml:"record_length"`
	Shuffle      string `toml:"shuffle"`     // native only
	Compression  string `toml:"compression"` // native only
}

// Logging configures the slog logger handed to readers and containers.
type Logging struct {
	Format string `toml:"format"` // text or json
	Level  string `toml:"level"`
}

// Config is the TOML configuration of a seiskit pipeline.
//
// Sections:
//   - Reader: input format, decode workers and byte order
//   - Merge: gap tolerance used when channels are combined
//   - Sync: target rate, fill value and window
//   - Writer: output format and per-format encoding
//   - Logging: log format and level
type Config struct {
	Reader  Reader  `toml:"reader"`
	Merge   Merge   `toml:"merge"`
	Sync    Sync    `toml:"sync"`
	Writer  Writer  `toml:"writer"`
	Logging Logging `toml:"logging"`
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes a TOML document over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
