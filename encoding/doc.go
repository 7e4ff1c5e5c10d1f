// Package encoding implements the integer column codecs used by seiskit record formats.
//
// # Steim compression
//
// miniSEED data records commonly store integer samples as Steim1 or Steim2
// compressed first differences packed into 64-byte frames. SteimDecoder
// implements ColumnarDecoder[int32] for both levels; AppendSteim packs
// samples into frames and reports how many samples fitted, which lets the
// record writer fill fixed-length records.
//
//	frames, n, _, err := encoding.AppendSteim(nil, encoding.Steim1, samples, 0, 63, engine)
//	...
//	decoded, err := encoding.NewSteimDecoder(encoding.Steim1, engine).Decode(frames, n)
//
// Steim1 packs four 8-bit, two 16-bit or one 32-bit difference per word.
// Steim2 adds 4, 5, 6, 10, 15 and 30-bit packings selected by a second
// 2-bit code stored in the top of the word. Decoding verifies the reverse
// integration constant and reports a mismatch with errs.ErrFrameIntegrity
// while still returning the samples.
//
// # Delta columns
//
// DeltaEncoder and DeltaDecoder store int64 columns as zigzag varints, either
// as first-order deltas (sample indices) or delta-of-deltas (microsecond
// timestamps). AppendBreakpoints and DecodeBreakpoints combine both into the
// breakpoint table of a native seiskit block: a channel at a regular rate has
// a handful of breakpoints, while an irregular (fs = 0) channel stores one
// breakpoint per sample at about two bytes each.
package encoding
