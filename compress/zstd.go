package compress

// ZstdCompressor provides Zstandard compression for sample payloads.
//
// Zstd gives the best ratio on shuffled integer waveforms, where the high-order
// byte planes are nearly constant. It is the default codec for native blocks.
//
// Two implementations exist: the pure-Go klauspost/compress/zstd codec (default)
// and the cgo valyala/gozstd binding, selected with the "gozstd" build tag on
// cgo-enabled builds. Both produce standard zstd frames and interoperate.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
