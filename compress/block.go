package compress

import (
	"errors"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/pierrec/lz4/v4"
)

// MaxDecodedSize bounds any single decompressed payload, in bytes.
const MaxDecodedSize = 256 << 20

// Compress applies the shuffle stage and compressor named by id to raw.
// width is the sample element width used by the shuffle stage.
func Compress(id format.CodecID, raw []byte, width int) ([]byte, error) {
	codec, err := GetCodec(id.Compression())
	if err != nil {
		return nil, err
	}

	if id.Shuffle() == format.ShuffleByte {
		raw = Shuffle(raw, width)
	}

	return codec.Compress(raw)
}

// Decompress restores a payload written by Compress.
//
// The decoded length must equal declaredLength; any codec failure or length
// mismatch is returned as *errs.CorruptPayloadError.
func Decompress(id format.CodecID, block []byte, declaredLength int, width int) ([]byte, error) {
	if declaredLength < 0 || declaredLength > MaxDecodedSize {
		return nil, &errs.CorruptPayloadError{Codec: id.String(), Declared: declaredLength, Actual: len(block)}
	}
	if shuffle := id.Shuffle(); shuffle != format.ShuffleNone && shuffle != format.ShuffleByte {
		return nil, &errs.CorruptPayloadError{Codec: id.String(), Err: errors.New("unknown shuffle type")}
	}

	codec, err := GetCodec(id.Compression())
	if err != nil {
		return nil, &errs.CorruptPayloadError{Codec: id.String(), Err: err}
	}

	var raw []byte
	if lz, ok := codec.(LZ4Compressor); ok && declaredLength > 0 {
		raw, err = lz.DecompressSize(block, declaredLength)
		if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, &errs.CorruptPayloadError{Codec: id.String(), Declared: declaredLength, Actual: -1}
		}
	} else {
		raw, err = codec.Decompress(block)
	}
	if err != nil {
		return nil, &errs.CorruptPayloadError{Codec: id.String(), Err: err}
	}
	if len(raw) != declaredLength {
		return nil, &errs.CorruptPayloadError{Codec: id.String(), Declared: declaredLength, Actual: len(raw)}
	}

	if id.Shuffle() == format.ShuffleByte {
		raw = Unshuffle(raw, width)
	}

	return raw, nil
}
