// Package compress provides the payload compression stage for native seiskit blocks.
//
// A native block stores its samples as a packed array (see package sample),
// optionally byte-shuffled and then compressed. The codec byte in the block
// header (format.CodecID) names both stages:
//
//	bits 4-7  shuffle      format.ShuffleNone | format.ShuffleByte
//	bits 0-3  compression  format.CompressionNone | Zstd | S2 | LZ4
//
// # Shuffle
//
// Byte shuffling transposes the packed samples by element width, grouping all
// least-significant bytes, then the next bytes, and so on. Seismic integers
// rarely use their full range, so the high-order planes turn into long runs
// that every compressor below exploits.
//
// # Algorithms
//
//   - None: no compression (fastest, largest)
//   - Zstd: best ratio, moderate speed (klauspost/compress, or valyala/gozstd with -tags gozstd)
//   - S2: balanced, Snappy-compatible (klauspost/compress/s2)
//   - LZ4: fastest decompression (pierrec/lz4)
//
// # Integrity
//
// Decompress checks the restored length against the length declared in the
// block header. A mismatch, or any codec failure, is reported as
// *errs.CorruptPayloadError; the record parser then keeps the block's
// metadata, drops its samples and records a note on the channel.
//
// # Thread Safety
//
// All codecs are stateless values backed by sync.Pool-managed encoders and
// decoders, and are safe for concurrent use by record decoding workers.
package compress
