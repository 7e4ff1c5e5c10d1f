package record

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/arloliu/seiskit/compress"
	"github.com/arloliu/seiskit/encoding"
	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/internal/hash"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/section"
	"github.com/arloliu/seiskit/seis"
	"github.com/fxamacker/cbor/v2"
)

// nativeMeta is the CBOR metadata section of a native block.
type nativeMeta struct {
	ID    string         `cbor:"id"`
	Src   string         `cbor:"src,omitempty"`
	Units string         `cbor:"units,omitempty"`
	Gain  float64        `cbor:"gain"`
	Loc   seis.Location  `cbor:"loc"`
	Misc  map[string]any `cbor:"misc,omitempty"`
	Notes seis.Notes     `cbor:"notes,omitempty"`
}

var (
	nativeEncMode cbor.EncMode
	nativeDecMode cbor.DecMode
)

func init() {
	var err error
	nativeEncMode, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(err)
	}

	nativeDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

type nativeParser struct {
	cfg ParserConfig
}

func (p *nativeParser) Format() format.Format { return format.Native }

func (p *nativeParser) Frame(data []byte) (int, error) {
	n, err := section.PeekBlockLength(data)
	if err != nil {
		return 0, errs.Malformed("Native", 0, "%v", err)
	}
	if n < section.HeaderSize {
		return 0, errs.Malformed("Native", section.BlockLengthOffset, "block length %d is shorter than the header", n)
	}
	if n > len(data) {
		return 0, errs.Malformed("Native", 0, "block of %d bytes truncated to %d", n, len(data))
	}

	return n, nil
}

func (p *nativeParser) Parse(data []byte) (*Record, int, error) {
	n, err := p.Frame(data)
	if err != nil {
		return nil, 0, err
	}

	h, err := section.ParseNativeHeader(data[:n])
	if err != nil {
		var unknown *errs.UnknownTypeError
		if errors.As(err, &unknown) {
			return nil, 0, err
		}

		return nil, 0, errs.Malformed("Native", 0, "%v", err)
	}
	if h.PayloadOffset()+int(h.PayloadLength) != n {
		return nil, 0, errs.Malformed("Native", section.BlockLengthOffset,
			"sections end at %d, block length %d", h.PayloadOffset()+int(h.PayloadLength), n)
	}

	var meta nativeMeta
	if err := nativeDecMode.Unmarshal(data[h.MetaOffset():h.BreakpointOffset()], &meta); err != nil {
		return nil, 0, errs.Malformed("Native", int64(h.MetaOffset()), "metadata: %v", err)
	}
	id, err := ParseIdentity(meta.ID)
	if err != nil {
		return nil, 0, errs.Malformed("Native", int64(h.MetaOffset()), "%v", err)
	}

	count := int(h.SampleCount)
	indices, times, err := encoding.DecodeBreakpoints(data[h.BreakpointOffset():h.PayloadOffset()], int(h.BreakpointCount))
	if err != nil {
		return nil, 0, errs.Malformed("Native", int64(h.BreakpointOffset()), "%v", err)
	}
	tl := make(seis.Timeline, len(indices))
	for k := range indices {
		tl[k] = seis.Breakpoint{Index: indices[k], Time: times[k]}
	}
	if err := tl.Validate(count, h.SampleRate); err != nil {
		return nil, 0, errs.Malformed("Native", int64(h.BreakpointOffset()), "%v", err)
	}

	t := h.Flag.Type()
	rec := newRecord(format.Native)
	rec.Identity = id
	rec.Start = h.StartTime
	rec.Fs = h.SampleRate
	rec.Type = t
	rec.Units = meta.Units
	rec.Gain = meta.Gain
	rec.Loc = meta.Loc
	rec.Src = meta.Src
	if p.cfg.src != "" {
		rec.Src = p.cfg.src
	}
	rec.Notes = meta.Notes
	if meta.Misc != nil {
		rec.Extra = meta.Misc
	}
	if len(tl) > 0 {
		rec.Breakpoints = tl
	}

	payload := data[h.PayloadOffset():n]
	codec := h.Flag.CodecID()
	if sum := hash.Checksum(payload); sum != h.Checksum {
		err := &errs.CorruptPayloadError{Codec: codec.String(), Err: errs.ErrChecksumMismatch}
		rec.dropSamples(err)

		return rec, n, err
	}

	raw, err := compress.Decompress(codec, payload, count*t.Width(), t.Width())
	if err != nil {
		rec.dropSamples(err)
		return rec, n, err
	}
	x, err := sample.Decode(t, raw, h.Flag.GetEndianEngine())
	if err != nil {
		err = &errs.CorruptPayloadError{Codec: codec.String(), Err: err}
		rec.dropSamples(err)

		return rec, n, err
	}
	rec.Samples = x

	return rec, n, nil
}

type nativeWriter struct {
	cfg WriterConfig
}

func (w *nativeWriter) Format() format.Format { return format.Native }

// WriteChannel appends ch as a single native block holding every segment.
func (w *nativeWriter) WriteChannel(dst []byte, ch *seis.Channel) ([]byte, error) {
	if err := ch.Validate(); err != nil {
		return dst, err
	}
	if _, err := ParseIdentity(ch.ID); err != nil {
		return dst, err
	}
	if ch.Len() > math.MaxUint32 || ch.Len()*ch.Type().Width() > compress.MaxDecodedSize {
		return dst, fmt.Errorf("%w: %d samples do not fit a native block", errs.ErrLengthMismatch, ch.Len())
	}

	meta, err := nativeEncMode.Marshal(nativeMeta{
		ID:    ch.ID,
		Src:   ch.Src,
		Units: ch.Units,
		Gain:  ch.Gain,
		Loc:   ch.Loc,
		Misc:  ch.Misc,
		Notes: ch.Notes,
	})
	if err != nil {
		return dst, fmt.Errorf("%s: metadata: %w", ch.ID, err)
	}

	indices := make([]int, len(ch.T))
	times := make([]int64, len(ch.T))
	for k, bp := range ch.T {
		indices[k], times[k] = bp.Index, bp.Time
	}
	breakpoints, err := encoding.AppendBreakpoints(nil, indices, times)
	if err != nil {
		return dst, err
	}

	engine := w.cfg.engine(endian.Little)
	t := ch.Type()
	payload, err := compress.Compress(w.cfg.codec, sample.Encode(ch.X, engine), t.Width())
	if err != nil {
		return dst, fmt.Errorf("%s: %w", ch.ID, err)
	}

	h := section.NativeHeader{
		Flag:            section.NewNativeFlag(t, w.cfg.codec),
		StartTime:       ch.Start(),
		SampleRate:      ch.Fs,
		SampleCount:     uint32(ch.Len()),  //nolint:gosec
		BreakpointCount: uint32(len(ch.T)), //nolint:gosec
		Checksum:        hash.Checksum(payload),
	}
	h.Flag.WithOrder(endian.OrderOf(engine))
	h.Flag.SetIrregular(ch.Fs == 0)
	h.SetSections(len(meta), len(breakpoints), len(payload))

	dst = h.AppendBytes(dst)
	dst = append(dst, meta...)
	dst = append(dst, breakpoints...)

	return append(dst, payload...), nil
}
