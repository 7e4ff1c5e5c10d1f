package encoding

import (
	"fmt"
	"iter"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
)

// SteimFrameSize is the size of one Steim compression frame: sixteen 32-bit words.
const SteimFrameSize = 64

const steimFrameWords = SteimFrameSize / 4

// SteimLevel selects the Steim difference-packing scheme.
type SteimLevel uint8

const (
	Steim1 SteimLevel = 1
	Steim2 SteimLevel = 2
)

func (l SteimLevel) String() string {
	switch l {
	case Steim1:
		return "STEIM1"
	case Steim2:
		return "STEIM2"
	default:
		return fmt.Sprintf("STEIM(%d)", uint8(l))
	}
}

// SteimDecoder decodes Steim1 or Steim2 compressed integer frames.
//
// Frame layout: word 0 holds sixteen 2-bit nibbles describing how each word
// of the frame is packed (bits 31-30 describe word 0 itself). In the first
// frame, words 1 and 2 carry the forward (X0) and reverse (Xn) integration
// constants. Every other word holds one or more first differences.
//
// The first difference of a record is relative to the last sample of the
// preceding record and is ignored; samples are rebuilt from X0.
type SteimDecoder struct {
	level  SteimLevel
	engine endian.EndianEngine
}

var _ ColumnarDecoder[int32] = SteimDecoder{}

// NewSteimDecoder creates a decoder for the given level and word byte order.
func NewSteimDecoder(level SteimLevel, engine endian.EndianEngine) SteimDecoder {
	return SteimDecoder{level: level, engine: engine}
}

// Decode rebuilds count samples from data.
//
// Returns ErrInvalidFrame when the frames hold fewer than count differences or
// use an undefined packing. When the last rebuilt sample disagrees with the
// reverse integration constant the samples are still returned together with
// an error wrapping ErrFrameIntegrity.
func (d SteimDecoder) Decode(data []byte, count int) ([]int32, error) {
	if count <= 0 {
		return []int32{}, nil
	}

	x0, xn, diffs, err := d.differences(data, count)
	if err != nil {
		return nil, err
	}

	out := make([]int32, count)
	out[0] = x0
	for i := 1; i < count; i++ {
		out[i] = out[i-1] + diffs[i]
	}

	if out[count-1] != xn {
		return out, fmt.Errorf("%w: last sample %d, Xn %d", errs.ErrFrameIntegrity, out[count-1], xn)
	}

	return out, nil
}

// All yields the decoded samples. It stops early on undecodable frames.
func (d SteimDecoder) All(data []byte, count int) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		samples, err := d.Decode(data, count)
		if samples == nil && err != nil {
			return
		}
		for _, v := range samples {
			if !yield(v) {
				return
			}
		}
	}
}

// At returns sample index. Steim frames are sequential, so this decodes the
// prefix up to index.
func (d SteimDecoder) At(data []byte, index int, count int) (int32, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	x0, _, diffs, err := d.differences(data, index+1)
	if err != nil {
		return 0, false
	}

	v := x0
	for i := 1; i <= index; i++ {
		v += diffs[i]
	}

	return v, true
}

func (d SteimDecoder) differences(data []byte, count int) (int32, int32, []int32, error) {
	nframes := len(data) / SteimFrameSize
	if nframes == 0 {
		return 0, 0, nil, fmt.Errorf("%w: %d bytes is less than one frame", errs.ErrInvalidFrame, len(data))
	}

	var x0, xn int32
	diffs := make([]int32, 0, count+7)

	for f := 0; f < nframes && len(diffs) < count; f++ {
		frame := data[f*SteimFrameSize : (f+1)*SteimFrameSize]
		ctrl := d.engine.Uint32(frame)

		for w := 1; w < steimFrameWords; w++ {
			word := d.engine.Uint32(frame[w*4:])
			if f == 0 && w == 1 {
				x0 = int32(word) //nolint:gosec
				continue
			}
			if f == 0 && w == 2 {
				xn = int32(word) //nolint:gosec
				continue
			}

			nib := (ctrl >> (30 - 2*uint(w))) & 0x3 //nolint:gosec
			var err error
			if diffs, err = d.unpack(diffs, nib, word); err != nil {
				return 0, 0, nil, fmt.Errorf("frame %d word %d: %w", f, w, err)
			}
		}
	}

	if len(diffs) < count {
		return 0, 0, nil, fmt.Errorf("%w: %d differences for %d samples", errs.ErrInvalidFrame, len(diffs), count)
	}

	return x0, xn, diffs, nil
}

func (d SteimDecoder) unpack(dst []int32, nib, word uint32) ([]int32, error) {
	switch nib {
	case 0:
		return dst, nil
	case 1:
		return appendPacked(dst, word, 8, 4), nil
	}

	if d.level == Steim1 {
		if nib == 2 {
			return appendPacked(dst, word, 16, 2), nil
		}

		return append(dst, int32(word)), nil //nolint:gosec
	}

	dnib := word >> 30
	if nib == 2 {
		switch dnib {
		case 1:
			return appendPacked(dst, word, 30, 1), nil
		case 2:
			return appendPacked(dst, word, 15, 2), nil
		case 3:
			return appendPacked(dst, word, 10, 3), nil
		}
	} else {
		switch dnib {
		case 0:
			return appendPacked(dst, word, 6, 5), nil
		case 1:
			return appendPacked(dst, word, 5, 6), nil
		case 2:
			return appendPacked(dst, word, 4, 7), nil
		}
	}

	return dst, fmt.Errorf("%w: steim2 nibble %d with dnib %d", errs.ErrInvalidFrame, nib, dnib)
}

// appendPacked unpacks k sign-extended values of bits width, stored
// right-aligned with the first value in the highest position.
func appendPacked(dst []int32, word uint32, bits, k int) []int32 {
	mask := uint32(1)<<bits - 1
	if bits == 32 {
		mask = ^uint32(0)
	}
	shift := 32 - bits
	for j := 0; j < k; j++ {
		v := (word >> (bits * (k - 1 - j))) & mask
		dst = append(dst, int32(v<<shift)>>shift) //nolint:gosec
	}

	return dst
}

type steimPacking struct {
	nib   uint32
	dnib  uint32
	bits  int
	count int
}

var (
	steim1Packings = []steimPacking{
		{nib: 1, bits: 8, count: 4},
		{nib: 2, bits: 16, count: 2},
		{nib: 3, bits: 32, count: 1},
	}
	steim2Packings = []steimPacking{
		{nib: 3, dnib: 2, bits: 4, count: 7},
		{nib: 3, dnib: 1, bits: 5, count: 6},
		{nib: 3, dnib: 0, bits: 6, count: 5},
		{nib: 1, bits: 8, count: 4},
		{nib: 2, dnib: 3, bits: 10, count: 3},
		{nib: 2, dnib: 2, bits: 15, count: 2},
		{nib: 2, dnib: 1, bits: 30, count: 1},
	}
)

func fits(v int32, bits int) bool {
	if bits >= 32 {
		return true
	}
	lim := int64(1) << (bits - 1)

	return int64(v) >= -lim && int64(v) < lim
}

func packWord(level SteimLevel, diffs []int32) (uint32, uint32, int, error) {
	packings := steim1Packings
	if level == Steim2 {
		packings = steim2Packings
	}

	for _, p := range packings {
		if len(diffs) < p.count {
			continue
		}
		ok := true
		for _, v := range diffs[:p.count] {
			if !fits(v, p.bits) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		var word uint32
		if p.bits < 32 {
			mask := uint32(1)<<p.bits - 1
			for j, v := range diffs[:p.count] {
				word |= (uint32(v) & mask) << (p.bits * (p.count - 1 - j)) //nolint:gosec
			}
		} else {
			word = uint32(diffs[0]) //nolint:gosec
		}
		if p.nib != 1 {
			word |= p.dnib << 30
		}

		return p.nib, word, p.count, nil
	}

	return 0, 0, 0, fmt.Errorf("%w: %s difference %d", errs.ErrDiffOutOfRange, level, diffs[0])
}

// AppendSteim appends frames encoding a prefix of values to dst.
//
// prev is the sample preceding values[0] and seeds the first difference.
// At most maxFrames frames are written (no limit when maxFrames <= 0). Returns
// the extended buffer, the number of values encoded and the number of frames
// written. On error dst is returned unchanged.
func AppendSteim(dst []byte, level SteimLevel, values []int32, prev int32, maxFrames int, engine endian.EndianEngine) ([]byte, int, int, error) {
	if len(values) == 0 {
		return dst, 0, 0, nil
	}

	diffs := make([]int32, len(values))
	diffs[0] = values[0] - prev
	for i := 1; i < len(values); i++ {
		diffs[i] = values[i] - values[i-1]
	}

	start := len(dst)
	consumed, frames := 0, 0

	for consumed < len(values) && (maxFrames <= 0 || frames < maxFrames) {
		frameStart := len(dst)
		dst = append(dst, make([]byte, SteimFrameSize)...)
		frame := dst[frameStart:]

		w := 1
		if frames == 0 {
			w = 3
		}

		var ctrl uint32
		for ; w < steimFrameWords && consumed < len(values); w++ {
			nib, word, n, err := packWord(level, diffs[consumed:])
			if err != nil {
				return dst[:start], 0, 0, err
			}
			ctrl |= nib << (30 - 2*uint(w)) //nolint:gosec
			engine.PutUint32(frame[w*4:], word)
			consumed += n
		}

		engine.PutUint32(frame, ctrl)
		frames++
	}

	engine.PutUint32(dst[start+4:], uint32(values[0]))          //nolint:gosec
	engine.PutUint32(dst[start+8:], uint32(values[consumed-1])) //nolint:gosec

	return dst, consumed, frames, nil
}
