package record

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arloliu/seiskit/encoding"
	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
)

// MiniSEEDEncoding is the data encoding code of blockette 1000.
type MiniSEEDEncoding uint8

const (
	EncodingASCII   MiniSEEDEncoding = 0
	EncodingInt16   MiniSEEDEncoding = 1
	EncodingInt24   MiniSEEDEncoding = 2
	EncodingInt32   MiniSEEDEncoding = 3
	EncodingFloat32 MiniSEEDEncoding = 4
	EncodingFloat64 MiniSEEDEncoding = 5
	EncodingSteim1  MiniSEEDEncoding = 10
	EncodingSteim2  MiniSEEDEncoding = 11

	// encodingAuto picks an encoding from the channel's sample type.
	encodingAuto MiniSEEDEncoding = 0xFF
)

func (e MiniSEEDEncoding) String() string {
	switch e {
	case EncodingASCII:
		return "ASCII"
	case EncodingInt16:
		return "INT16"
	case EncodingInt24:
		return "INT24"
	case EncodingInt32:
		return "INT32"
	case EncodingFloat32:
		return "FLOAT32"
	case EncodingFloat64:
		return "FLOAT64"
	case EncodingSteim1:
		return "STEIM1"
	case EncodingSteim2:
		return "STEIM2"
	case encodingAuto:
		return "auto"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// ParseMiniSEEDEncoding resolves an encoding name such as "STEIM2".
func ParseMiniSEEDEncoding(name string) (MiniSEEDEncoding, bool) {
	for _, e := range []MiniSEEDEncoding{
		EncodingASCII, EncodingInt16, EncodingInt24, EncodingInt32,
		EncodingFloat32, EncodingFloat64, EncodingSteim1, EncodingSteim2, encodingAuto,
	} {
		if strings.EqualFold(e.String(), name) {
			return e, true
		}
	}

	return 0, false
}

// sampleType maps the encoding to the sample type it decodes to.
func (e MiniSEEDEncoding) sampleType() (sample.Type, error) {
	switch e {
	case EncodingASCII:
		return sample.Char, nil
	case EncodingInt16:
		return sample.Int16, nil
	case EncodingInt24, EncodingInt32, EncodingSteim1, EncodingSteim2:
		return sample.Int32, nil
	case EncodingFloat32:
		return sample.Float32, nil
	case EncodingFloat64:
		return sample.Float64, nil
	default:
		return 0, &errs.UnknownTypeError{Format: format.MiniSEED.String(), Tag: int(e)}
	}
}

func (e MiniSEEDEncoding) writable() bool {
	switch e {
	case EncodingInt16, EncodingInt32, EncodingFloat32, EncodingFloat64, EncodingSteim1, EncodingSteim2, encodingAuto:
		return true
	default:
		return false
	}
}

func (e MiniSEEDEncoding) steimLevel() (encoding.SteimLevel, bool) {
	switch e {
	case EncodingSteim1:
		return encoding.Steim1, true
	case EncodingSteim2:
		return encoding.Steim2, true
	default:
		return 0, false
	}
}

// Fixed section of a SEED 2.4 data record header.
const (
	mseedHeaderSize        = 48
	mseedMinRecordExponent = 7
	mseedMaxRecordExponent = 16

	// activity flag bit 1: time correction already applied
	mseedCorrectionApplied = 0x02

	blockette100  = 100
	blockette1000 = 1000
	blockette1001 = 1001
)

type mseedHeader struct {
	engine      endian.EndianEngine
	data        endian.EndianEngine
	id          Identity
	quality     byte
	start       int64
	samples     int
	fs          float64
	dataOffset  int
	encoding    MiniSEEDEncoding
	recordLen   int
	frames      int
	timingQual  int
	hasB1000    bool
	hasTimingQ  bool
	hasRateB100 bool
}

// btime decodes a SEED BTIME at b in 0.1 ms units since the epoch.
func btime(b []byte, engine endian.EndianEngine) (int64, bool) {
	year, day := engine.Uint16(b[0:]), engine.Uint16(b[2:])
	hour, minute, sec := b[4], b[5], b[6]
	if year < 1900 || year > 2100 || day < 1 || day > 366 || hour > 23 || minute > 59 || sec > 60 {
		return 0, false
	}

	t := time.Date(int(year), time.January, 1, int(hour), int(minute), int(sec), 0, time.UTC)
	t = t.AddDate(0, 0, int(day)-1)

	return t.UnixMicro() + int64(engine.Uint16(b[8:]))*100, true
}

func appendBTime(dst []byte, micros int64, engine endian.EndianEngine) []byte {
	t := time.UnixMicro(micros).UTC()
	dst = engine.AppendUint16(dst, uint16(t.Year()))    //nolint:gosec
	dst = engine.AppendUint16(dst, uint16(t.YearDay())) //nolint:gosec
	dst = append(dst, byte(t.Hour()), byte(t.Minute()), byte(t.Second()), 0)
	fract := (t.Nanosecond() / 1000) / 100

	return engine.AppendUint16(dst, uint16(fract)) //nolint:gosec
}

// splitBTime rounds micros to the nearest 100 µs BTIME tick and returns the
// tick time with the blockette 1001 remainder, in [-50, 49].
func splitBTime(micros int64) (int64, int8) {
	ticks := (micros + 50) / 100
	if (micros+50)%100 < 0 {
		ticks--
	}
	base := ticks * 100

	return base, int8(micros - base) //nolint:gosec
}

// sampleRate applies the SEED rate factor and multiplier rules.
func sampleRate(factor, multiplier int16) float64 {
	f, m := float64(factor), float64(multiplier)
	switch {
	case factor == 0 || multiplier == 0:
		return 0
	case factor > 0 && multiplier > 0:
		return f * m
	case factor > 0:
		return -f / m
	case multiplier > 0:
		return -m / f
	default:
		return 1 / (f * m)
	}
}

// rateFactors returns the factor and multiplier for fs and whether they
// represent it exactly.
func rateFactors(fs float64) (int16, int16, bool) {
	if fs == 0 {
		return 0, 0, true
	}
	if r := math.Round(fs); r >= 1 && r <= math.MaxInt16 && math.Abs(fs-r) < 1e-9*fs {
		return int16(r), 1, true
	}
	if p := 1 / fs; math.Round(p) >= 1 && math.Round(p) <= math.MaxInt16 && math.Abs(p-math.Round(p)) < 1e-9*p {
		return -int16(math.Round(p)), 1, true
	}
	for m := 10.0; m <= 10000; m *= 10 {
		f := math.Round(fs * m)
		if f >= 1 && f <= math.MaxInt16 && math.Abs(f/m-fs) < 1e-9*fs {
			return int16(f), -int16(m), true
		}
	}

	f := math.Min(math.Round(fs*100), math.MaxInt16)
	return int16(f), -100, false
}

type mseedParser struct {
	cfg ParserConfig
}

func (p *mseedParser) Format() format.Format { return format.MiniSEED }

func (p *mseedParser) header(data []byte) (mseedHeader, error) {
	if len(data) < mseedHeaderSize {
		return mseedHeader{}, errs.Malformed("MiniSEED", 0, "%d bytes is shorter than the fixed header", len(data))
	}
	for i := range 6 {
		if c := data[i]; (c < '0' || c > '9') && c != ' ' && c != 0 {
			return mseedHeader{}, errs.Malformed("MiniSEED", int64(i), "sequence number is not numeric")
		}
	}
	switch data[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return mseedHeader{}, errs.Malformed("MiniSEED", 6, "data quality indicator %q", data[6])
	}

	h := mseedHeader{quality: data[6]}
	var ok bool
	for _, engine := range p.cfg.engines(endian.Big, endian.Little) {
		if h.start, ok = btime(data[20:30], engine); ok {
			h.engine = engine
			break
		}
	}
	if !ok {
		return mseedHeader{}, errs.Malformed("MiniSEED", 20, "invalid start time")
	}

	e := h.engine
	h.id = Identity{
		Network:  trimCode(data[18:20]),
		Station:  trimCode(data[8:13]),
		Location: trimCode(data[13:15]),
		Channel:  trimCode(data[15:18]),
	}
	h.samples = int(e.Uint16(data[30:]))
	h.fs = sampleRate(int16(e.Uint16(data[32:])), int16(e.Uint16(data[34:]))) //nolint:gosec
	activity := data[36]
	nblockettes := int(data[39])
	correction := int32(e.Uint32(data[40:])) //nolint:gosec
	h.dataOffset = int(e.Uint16(data[44:]))
	next := int(e.Uint16(data[46:]))

	if activity&mseedCorrectionApplied == 0 {
		h.start += int64(correction) * 100
	}

	micros := int8(0)
	for k := 0; next != 0 && k < nblockettes; k++ {
		off := next
		if off < mseedHeaderSize || off+4 > len(data) {
			return mseedHeader{}, errs.Malformed("MiniSEED", int64(off), "blockette offset out of range")
		}
		kind := e.Uint16(data[off:])
		next = int(e.Uint16(data[off+2:]))
		if next != 0 && next <= off {
			return mseedHeader{}, errs.Malformed("MiniSEED", int64(off), "blockette chain loops back")
		}

		switch kind {
		case blockette1000:
			if off+8 > len(data) {
				return mseedHeader{}, errs.Malformed("MiniSEED", int64(off), "truncated blockette 1000")
			}
			h.hasB1000 = true
			h.encoding = MiniSEEDEncoding(data[off+4])
			h.data = endian.Little.Engine()
			if data[off+5] != 0 {
				h.data = endian.Big.Engine()
			}
			exp := int(data[off+6])
			if exp < mseedMinRecordExponent || exp > mseedMaxRecordExponent {
				return mseedHeader{}, errs.Malformed("MiniSEED", int64(off+6), "record length exponent %d", exp)
			}
			h.recordLen = 1 << exp
		case blockette1001:
			if off+8 > len(data) {
				return mseedHeader{}, errs.Malformed("MiniSEED", int64(off), "truncated blockette 1001")
			}
			h.timingQual, h.hasTimingQ = int(data[off+4]), true
			micros = int8(data[off+5]) //nolint:gosec
			h.frames = int(data[off+7])
		case blockette100:
			if off+12 > len(data) {
				return mseedHeader{}, errs.Malformed("MiniSEED", int64(off), "truncated blockette 100")
			}
			h.fs = float64(math.Float32frombits(e.Uint32(data[off+4:])))
			h.hasRateB100 = true
		}
	}
	h.start += int64(micros)

	if !h.hasB1000 {
		return mseedHeader{}, errs.Malformed("MiniSEED", 46, "no blockette 1000")
	}
	if h.fs < 0 || math.IsNaN(h.fs) || math.IsInf(h.fs, 0) {
		return mseedHeader{}, errs.Malformed("MiniSEED", 32, "sample rate %g", h.fs)
	}
	if h.samples > 0 && (h.dataOffset < mseedHeaderSize || h.dataOffset >= h.recordLen) {
		return mseedHeader{}, errs.Malformed("MiniSEED", 44, "data offset %d outside record of %d bytes", h.dataOffset, h.recordLen)
	}

	return h, nil
}

func (p *mseedParser) Frame(data []byte) (int, error) {
	h, err := p.header(data)
	if err != nil {
		return 0, err
	}
	if len(data) < h.recordLen {
		return 0, errs.Malformed("MiniSEED", 0, "record of %d bytes truncated to %d", h.recordLen, len(data))
	}

	return h.recordLen, nil
}

func (p *mseedParser) Parse(data []byte) (*Record, int, error) {
	n, err := p.Frame(data)
	if err != nil {
		return nil, 0, err
	}
	h, _ := p.header(data)

	t, err := h.encoding.sampleType()
	if err != nil {
		return nil, 0, err
	}

	rec := newRecord(format.MiniSEED)
	rec.Src = p.cfg.src
	rec.Identity = h.id
	rec.Start = h.start
	rec.Fs = h.fs
	rec.Type = t
	rec.Extra["quality"] = string(h.quality)
	if h.hasTimingQ {
		rec.Extra["timing_quality"] = h.timingQual
	}

	empty, _ := sample.New(t, 0)
	if h.samples == 0 {
		rec.Samples = empty
		return rec, n, nil
	}

	payload := data[h.dataOffset:n]
	x, err := decodeMiniSEED(h, payload)
	if errors.Is(err, errs.ErrFrameIntegrity) {
		rec.Notes.Add("samples kept despite failed integrity check: %v", err)
		err = nil
	}
	if err != nil {
		rec.dropSamples(err)
		return rec, n, err
	}

	if h.fs == 0 && h.samples > 1 {
		if h.encoding != EncodingASCII {
			return nil, 0, errs.Malformed("MiniSEED", 32, "%d samples without a sample rate", h.samples)
		}
		// Log records: the text belongs to the header, not the time series.
		rec.Extra["text"] = sample.DecodeString(sample.Encode(x, h.data))
		rec.Samples = empty

		return rec, n, nil
	}
	rec.Samples = x

	return rec, n, nil
}

// decodeMiniSEED decodes the payload of a record. A failed Steim integrity
// check returns the samples together with the error.
func decodeMiniSEED(h mseedHeader, payload []byte) (sample.Vector, error) {
	corrupt := func(need int) error {
		return &errs.CorruptPayloadError{Codec: h.encoding.String(), Declared: need, Actual: len(payload)}
	}

	switch h.encoding {
	case EncodingSteim1, EncodingSteim2:
		level, _ := h.encoding.steimLevel()
		values, err := encoding.NewSteimDecoder(level, h.data).Decode(payload, h.samples)
		if values == nil {
			return nil, &errs.CorruptPayloadError{Codec: h.encoding.String(), Err: err}
		}
		if err != nil && !errors.Is(err, errs.ErrFrameIntegrity) {
			return nil, &errs.CorruptPayloadError{Codec: h.encoding.String(), Err: err}
		}

		return sample.Series[int32](values), err
	case EncodingInt24:
		need := 3 * h.samples
		if len(payload) < need {
			return nil, corrupt(need)
		}
		out := make(sample.Series[int32], h.samples)
		for i := range out {
			b := payload[3*i : 3*i+3]
			var u uint32
			if h.data == endian.Big.Engine() {
				u = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
			} else {
				u = uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
			}
			out[i] = int32(u<<8) >> 8 //nolint:gosec
		}

		return out, nil
	default:
		t, err := h.encoding.sampleType()
		if err != nil {
			return nil, err
		}
		need := t.Width() * h.samples
		if len(payload) < need {
			return nil, corrupt(need)
		}

		return sample.Decode(t, payload[:need], h.data)
	}
}

type mseedWriter struct {
	cfg WriterConfig
}

func (w *mseedWriter) Format() format.Format { return format.MiniSEED }

// pickEncoding resolves the automatic encoding for t and checks that an
// explicit one can hold t.
func (w *mseedWriter) pickEncoding(t sample.Type) (MiniSEEDEncoding, error) {
	enc := w.cfg.encoding
	if enc == encodingAuto {
		switch {
		case t.IsInteger():
			return EncodingSteim2, nil
		case t == sample.Float64:
			return EncodingFloat64, nil
		case t.IsFloat():
			return EncodingFloat32, nil
		}
	}

	switch {
	case t.IsComplex() || t == sample.Char || !t.Valid():
		return 0, fmt.Errorf("%w: miniSEED cannot hold %s samples", errs.ErrUnsupportedType, t)
	case enc == EncodingFloat32 || enc == EncodingFloat64:
		return enc, nil
	case !t.IsInteger():
		return 0, fmt.Errorf("%w: %s needs integer samples, got %s", errs.ErrUnsupportedType, enc, t)
	default:
		return enc, nil
	}
}

// integers returns samples [first, first+n) as int32, checking that each
// fits the encoding's range.
func integers(x sample.Vector, first, n int, enc MiniSEEDEncoding) ([]int32, error) {
	lo, hi := float64(math.MinInt32), float64(math.MaxInt32)
	if enc == EncodingInt16 {
		lo, hi = math.MinInt16, math.MaxInt16
	}

	out := make([]int32, n)
	for i := range out {
		v := x.Float64At(first + i)
		if v < lo || v > hi {
			return nil, fmt.Errorf("%w: sample %d value %g out of %s range", errs.ErrUnsupportedType, first+i, v, enc)
		}
		out[i] = int32(v)
	}

	return out, nil
}

// WriteChannel appends ch as data records of the configured length. Each
// contiguous segment starts a new record.
func (w *mseedWriter) WriteChannel(dst []byte, ch *seis.Channel) ([]byte, error) {
	id, err := ParseIdentity(ch.ID)
	if err != nil {
		return dst, err
	}
	if err := id.fits(2, 5, 2, 3); err != nil {
		return dst, err
	}
	enc, err := w.pickEncoding(ch.Type())
	if err != nil {
		return dst, err
	}

	factor, multiplier, exact := rateFactors(ch.Fs)
	rw := &mseedRecordWriter{
		cfg:        w.cfg,
		engine:     w.cfg.engine(endian.Big),
		id:         id,
		enc:        enc,
		fs:         ch.Fs,
		factor:     factor,
		multiplier: multiplier,
		withB100:   !exact,
		seq:        1,
	}

	if ch.IsEmpty() {
		return rw.appendRecord(dst, ch.Start(), nil, 0, 0), nil
	}

	start := len(dst)
	for _, seg := range ch.Segments() {
		if dst, err = rw.appendSegment(dst, ch.X, seg); err != nil {
			return dst[:start], err
		}
	}

	return dst, nil
}

type mseedRecordWriter struct {
	cfg        WriterConfig
	engine     endian.EndianEngine
	id         Identity
	enc        MiniSEEDEncoding
	fs         float64
	factor     int16
	multiplier int16
	withB100   bool
	seq        int
}

func (rw *mseedRecordWriter) dataOffset() int {
	if rw.withB100 {
		return 128
	}

	return 64
}

func (rw *mseedRecordWriter) appendSegment(dst []byte, x sample.Vector, seg seis.Segment) ([]byte, error) {
	room := rw.cfg.recordLength - rw.dataOffset()

	var ints []int32
	if rw.enc != EncodingFloat32 && rw.enc != EncodingFloat64 {
		var err error
		if ints, err = integers(x, seg.Index, seg.Len, rw.enc); err != nil {
			return dst, err
		}
	}

	for k := 0; k < seg.Len; {
		var payload []byte
		var count, frames int
		remain := min(seg.Len-k, math.MaxUint16)

		switch rw.enc {
		case EncodingSteim1, EncodingSteim2:
			level, _ := rw.enc.steimLevel()
			prev := ints[k]
			if k > 0 {
				prev = ints[k-1]
			}
			var err error
			payload, count, frames, err = encoding.AppendSteim(nil, level, ints[k:k+remain], prev, room/encoding.SteimFrameSize, rw.engine)
			if err != nil {
				return dst, err
			}
		case EncodingInt16:
			count = min(remain, room/2)
			for _, v := range ints[k : k+count] {
				payload = rw.engine.AppendUint16(payload, uint16(int16(v))) //nolint:gosec
			}
		case EncodingInt32:
			count = min(remain, room/4)
			for _, v := range ints[k : k+count] {
				payload = rw.engine.AppendUint32(payload, uint32(v)) //nolint:gosec
			}
		case EncodingFloat32:
			count = min(remain, room/4)
			for i := range count {
				payload = rw.engine.AppendUint32(payload, math.Float32bits(float32(x.Float64At(seg.Index+k+i))))
			}
		default:
			count = min(remain, room/8)
			for i := range count {
				payload = rw.engine.AppendUint64(payload, math.Float64bits(x.Float64At(seg.Index+k+i)))
			}
		}

		dst = rw.appendRecord(dst, seg.Start+seis.SampleOffset(k, rw.fs), payload, count, frames)
		k += count
	}

	return dst, nil
}

func (rw *mseedRecordWriter) appendRecord(dst []byte, start int64, payload []byte, count, frames int) []byte {
	e := rw.engine
	base := len(dst)
	offset := rw.dataOffset()

	dst = fmt.Appendf(dst, "%06d", rw.seq%1_000_000)
	rw.seq++
	dst = append(dst, 'D', ' ')
	dst = appendPadded(dst, rw.id.Station, 5)
	dst = appendPadded(dst, rw.id.Location, 2)
	dst = appendPadded(dst, rw.id.Channel, 3)
	dst = appendPadded(dst, rw.id.Network, 2)
	btime, micros := splitBTime(start)
	dst = appendBTime(dst, btime, e)
	dst = e.AppendUint16(dst, uint16(count))
	dst = e.AppendUint16(dst, uint16(rw.factor))
	dst = e.AppendUint16(dst, uint16(rw.multiplier))
	nblockettes := byte(2)
	if rw.withB100 {
		nblockettes = 3
	}
	dst = append(dst, 0, 0, 0, nblockettes)
	dst = e.AppendUint32(dst, 0)
	dst = e.AppendUint16(dst, uint16(offset)) //nolint:gosec
	dst = e.AppendUint16(dst, mseedHeaderSize)

	order := byte(0)
	if e == endian.Big.Engine() {
		order = 1
	}
	exp := byte(0)
	for 1<<exp < rw.cfg.recordLength {
		exp++
	}
	dst = e.AppendUint16(dst, blockette1000)
	dst = e.AppendUint16(dst, 56)
	dst = append(dst, byte(rw.enc), order, exp, 0)

	next := uint16(0)
	if rw.withB100 {
		next = 64
	}
	dst = e.AppendUint16(dst, blockette1001)
	dst = e.AppendUint16(dst, next)
	dst = append(dst, 0, byte(micros), 0, byte(frames)) //nolint:gosec

	if rw.withB100 {
		dst = e.AppendUint16(dst, blockette100)
		dst = e.AppendUint16(dst, 0)
		dst = e.AppendUint32(dst, math.Float32bits(float32(rw.fs)))
		dst = append(dst, 0, 0, 0, 0)
	}

	dst = append(dst, make([]byte, base+offset-len(dst))...)
	dst = append(dst, payload...)

	return append(dst, make([]byte, base+rw.cfg.recordLength-len(dst))...)
}

func appendPadded(dst []byte, s string, width int) []byte {
	dst = append(dst, s...)
	for range width - len(s) {
		dst = append(dst, ' ')
	}

	return dst
}
