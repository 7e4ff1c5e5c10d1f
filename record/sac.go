package record

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
)

// SAC v6 binary layout: 70 float32 fields, 40 int32 fields, 24 string fields,
// then npts float32 samples (twice that for unevenly spaced files).
const (
	sacHeaderSize   = 632
	sacIntOffset    = 280
	sacStringOffset = 440
	sacVersion      = 6
	sacUndefined    = -12345
)

// Float field indices.
const (
	sacDelta  = 0
	sacDepmin = 1
	sacDepmax = 2
	sacScale  = 3
	sacB      = 5
	sacE      = 6
	sacO      = 7
	sacA      = 8
	sacStla   = 31
	sacStlo   = 32
	sacStel   = 33
	sacStdp   = 34
	sacEvla   = 35
	sacEvlo   = 36
	sacEvdp   = 38
	sacMag    = 39
	sacDepmen = 56
	sacCmpaz  = 57
	sacCmpinc = 58
)

// Int field indices.
const (
	sacNzyear = 0
	sacNzjday = 1
	sacNzhour = 2
	sacNzmin  = 3
	sacNzsec  = 4
	sacNzmsec = 5
	sacNvhdr  = 6
	sacNpts   = 9
	sacIftype = 15
	sacIdep   = 16
	sacIztype = 17
	sacLeven  = 35
	sacLovrok = 37
	sacLcalda = 38
)

// String field byte offsets and widths.
const (
	sacKstnm  = 440
	sacKevnm  = 448
	sacKhole  = 464
	sacKcmpnm = 600
	sacKnetwk = 608
	sacKinst  = 624
)

// Enumerated header values.
const (
	sacItime  = 1
	sacIxy    = 4
	sacIunkn  = 5
	sacIdisp  = 6
	sacIvel   = 7
	sacIacc   = 8
	sacIb     = 9
	sacIvolts = 50
)

var sacUnits = map[int32]string{
	sacIdisp:  "nm",
	sacIvel:   "nm/s",
	sacIacc:   "nm/s/s",
	sacIvolts: "V",
}

// sacFloatExtras are float fields kept in Record.Extra when defined.
var sacFloatExtras = map[string]int{
	"o": sacO, "a": sacA,
	"evla": sacEvla, "evlo": sacEvlo, "evdp": sacEvdp, "mag": sacMag,
}

type sacHeader struct {
	engine endian.EndianEngine
	raw    []byte
}

func (h sacHeader) float(i int) float32 {
	return math.Float32frombits(h.engine.Uint32(h.raw[4*i:]))
}

func (h sacHeader) int(i int) int32 {
	return int32(h.engine.Uint32(h.raw[sacIntOffset+4*i:])) //nolint:gosec
}

func (h sacHeader) str(offset, width int) string {
	s := trimCode(h.raw[offset : offset+width])
	if s == "-12345" {
		return ""
	}

	return s
}

func (h sacHeader) defined(i int) (float64, bool) {
	v := h.float(i)
	if v == sacUndefined {
		return math.NaN(), false
	}

	return float64(v), true
}

func (h sacHeader) leven() bool {
	return h.int(sacLeven) != 0
}

// reference returns the reference time in microseconds.
func (h sacHeader) reference() int64 {
	year := h.int(sacNzyear)
	if year == sacUndefined {
		return 0
	}

	ref := time.Date(int(year), time.January, 1,
		int(h.int(sacNzhour)), int(h.int(sacNzmin)), int(h.int(sacNzsec)),
		int(h.int(sacNzmsec))*int(time.Millisecond), time.UTC)

	return ref.AddDate(0, 0, int(h.int(sacNzjday))-1).UnixMicro()
}

type sacParser struct {
	cfg ParserConfig
}

func (p *sacParser) Format() format.Format { return format.SAC }

func (p *sacParser) header(data []byte) (sacHeader, error) {
	if len(data) < sacHeaderSize {
		return sacHeader{}, errs.Malformed("SAC", 0, "%d bytes is shorter than the header", len(data))
	}

	for _, engine := range p.cfg.engines(endian.Little, endian.Big) {
		h := sacHeader{engine: engine, raw: data[:sacHeaderSize]}
		if h.int(sacNvhdr) == sacVersion {
			return h, nil
		}
	}

	return sacHeader{}, errs.Malformed("SAC", sacIntOffset+4*sacNvhdr, "header version is not %d", sacVersion)
}

func (p *sacParser) Frame(data []byte) (int, error) {
	h, err := p.header(data)
	if err != nil {
		return 0, err
	}

	npts := h.int(sacNpts)
	if npts < 0 {
		return 0, errs.Malformed("SAC", sacIntOffset+4*sacNpts, "negative npts %d", npts)
	}
	switch t := h.int(sacIftype); t {
	case sacItime, sacIxy, sacUndefined:
	default:
		return 0, errs.Malformed("SAC", sacIntOffset+4*sacIftype, "iftype %d is not a time series", t)
	}

	size := 4 * int(npts)
	if !h.leven() {
		size *= 2
	}
	if len(data) < sacHeaderSize+size {
		return 0, errs.Malformed("SAC", sacHeaderSize, "%d data bytes declared, %d present", size, len(data)-sacHeaderSize)
	}

	return sacHeaderSize + size, nil
}

func (p *sacParser) Parse(data []byte) (*Record, int, error) {
	n, err := p.Frame(data)
	if err != nil {
		return nil, 0, err
	}
	h, _ := p.header(data)

	rec := newRecord(format.SAC)
	rec.Src = p.cfg.src
	rec.Identity = Identity{
		Network:  h.str(sacKnetwk, 8),
		Station:  h.str(sacKstnm, 8),
		Location: h.str(sacKhole, 8),
		Channel:  h.str(sacKcmpnm, 8),
	}
	rec.Type = sample.Float32
	rec.Units = sacUnits[h.int(sacIdep)]
	if scale, ok := h.defined(sacScale); ok && scale != 0 {
		rec.Gain = scale
	}
	rec.Loc.Latitude, _ = h.defined(sacStla)
	rec.Loc.Longitude, _ = h.defined(sacStlo)
	rec.Loc.Elevation, _ = h.defined(sacStel)
	rec.Loc.Depth, _ = h.defined(sacStdp)
	rec.Loc.Azimuth, _ = h.defined(sacCmpaz)
	rec.Loc.Incidence, _ = h.defined(sacCmpinc)

	for key, i := range sacFloatExtras {
		if v, ok := h.defined(i); ok {
			rec.Extra[key] = v
		}
	}
	if s := h.str(sacKevnm, 16); s != "" {
		rec.Extra["kevnm"] = s
	}
	if s := h.str(sacKinst, 8); s != "" {
		rec.Extra["kinst"] = s
	}

	npts := int(h.int(sacNpts))
	ref := h.reference()
	b, _ := h.defined(sacB)
	if math.IsNaN(b) {
		b = 0
	}
	rec.Start = ref + int64(math.Round(b*1e6))

	y, err := sample.Decode(sample.Float32, data[sacHeaderSize:sacHeaderSize+4*npts], h.engine)
	if err != nil {
		return nil, 0, err
	}

	if h.leven() {
		delta := h.float(sacDelta)
		if !(delta > 0) {
			return nil, 0, errs.Malformed("SAC", 0, "delta %g is not positive", delta)
		}
		rec.Fs = float64(float32(1 / float64(delta)))
		rec.Samples = y

		return rec, n, nil
	}

	x, err := sample.Decode(sample.Float32, data[sacHeaderSize+4*npts:n], h.engine)
	if err != nil {
		return nil, 0, err
	}
	times := make([]int64, npts)
	for i := range times {
		times[i] = ref + int64(math.Round(x.Float64At(i)*1e6))
		if i > 0 && times[i] <= times[i-1] {
			return nil, 0, errs.Malformed("SAC", int64(sacHeaderSize+4*(npts+i)), "independent variable not increasing at %d", i)
		}
	}
	rec.Samples = y
	rec.Breakpoints = seis.TimelineFromTimes(times, 0)
	if npts > 0 {
		rec.Start = times[0]
	}

	return rec, n, nil
}

type sacWriter struct {
	cfg WriterConfig
}

func (w *sacWriter) Format() format.Format { return format.SAC }

// WriteChannel appends one SAC file per contiguous segment of ch. Irregular
// channels become a single unevenly spaced file.
func (w *sacWriter) WriteChannel(dst []byte, ch *seis.Channel) ([]byte, error) {
	id, err := ParseIdentity(ch.ID)
	if err != nil {
		return dst, err
	}
	if err := id.fits(8, 8, 8, 8); err != nil {
		return dst, err
	}
	if t := ch.Type(); t.IsComplex() || t == sample.Char || !t.Valid() {
		return dst, fmt.Errorf("%w: SAC cannot hold %s samples", errs.ErrUnsupportedType, t)
	}

	engine := w.cfg.engine(endian.Big)
	if ch.Fs == 0 {
		times := ch.Times()
		start := ch.Start()
		if len(times) > 0 {
			start = times[0]
		}

		return w.appendFile(dst, engine, ch, id, 0, len(times), start, times), nil
	}
	if ch.IsEmpty() {
		return w.appendFile(dst, engine, ch, id, 0, 0, ch.Start(), nil), nil
	}

	for _, seg := range ch.Segments() {
		dst = w.appendFile(dst, engine, ch, id, seg.Index, seg.Len, seg.Start, nil)
	}

	return dst, nil
}

// appendFile writes the n samples of ch from index first, the first taken
// at start. times is set for unevenly spaced output.
func (w *sacWriter) appendFile(dst []byte, engine endian.EndianEngine, ch *seis.Channel, id Identity,
	first, n int, start int64, times []int64,
) []byte {
	hdr := make([]byte, sacHeaderSize)
	putFloat := func(i int, v float64) { engine.PutUint32(hdr[4*i:], math.Float32bits(float32(v))) }
	putInt := func(i, v int) { engine.PutUint32(hdr[sacIntOffset+4*i:], uint32(int32(v))) } //nolint:gosec
	putStr := func(offset, width int, s string) {
		if s == "" {
			s = "-12345"
		}
		copy(hdr[offset:offset+width], s+strings.Repeat(" ", width))
	}
	putOpt := func(i int, v float64) {
		if math.IsNaN(v) {
			v = sacUndefined
		}
		putFloat(i, v)
	}

	for i := range 70 {
		putFloat(i, sacUndefined)
	}
	for i := range 40 {
		putInt(i, sacUndefined)
	}
	for off := sacStringOffset; off < sacHeaderSize; off += 8 {
		putStr(off, 8, "")
	}
	putStr(sacKevnm, 16, "")

	// Reference time is the first sample truncated to the millisecond.
	ref := time.UnixMicro(start).UTC().Truncate(time.Millisecond)
	putInt(sacNzyear, ref.Year())
	putInt(sacNzjday, ref.YearDay())
	putInt(sacNzhour, ref.Hour())
	putInt(sacNzmin, ref.Minute())
	putInt(sacNzsec, ref.Second())
	putInt(sacNzmsec, ref.Nanosecond()/int(time.Millisecond))
	putInt(sacNvhdr, sacVersion)
	putInt(sacNpts, n)
	putInt(sacIztype, sacIb)
	putInt(sacLovrok, 1)
	putInt(sacLcalda, 1)

	b := float64(start-ref.UnixMicro()) / 1e6
	putFloat(sacB, b)
	if times == nil {
		putInt(sacIftype, sacItime)
		putInt(sacLeven, 1)
		putFloat(sacDelta, 1/ch.Fs)
		if n > 0 {
			putFloat(sacE, b+float64(n-1)/ch.Fs)
		}
	} else {
		putInt(sacIftype, sacIxy)
		putInt(sacLeven, 0)
		if n > 0 {
			putFloat(sacE, float64(times[n-1]-ref.UnixMicro())/1e6)
		}
	}

	putInt(sacIdep, sacIunkn)
	for code, units := range sacUnits {
		if units == ch.Units {
			putInt(sacIdep, int(code))
		}
	}
	if ch.Gain != 1 && ch.Gain != 0 {
		putFloat(sacScale, ch.Gain)
	}
	putOpt(sacStla, ch.Loc.Latitude)
	putOpt(sacStlo, ch.Loc.Longitude)
	putOpt(sacStel, ch.Loc.Elevation)
	putOpt(sacStdp, ch.Loc.Depth)
	putOpt(sacCmpaz, ch.Loc.Azimuth)
	putOpt(sacCmpinc, ch.Loc.Incidence)
	for key, i := range sacFloatExtras {
		if v, ok := ch.Misc[key].(float64); ok {
			putFloat(i, v)
		}
	}
	if s, ok := ch.Misc["kevnm"].(string); ok && len(s) <= 16 {
		putStr(sacKevnm, 16, s)
	}
	if s, ok := ch.Misc["kinst"].(string); ok && len(s) <= 8 {
		putStr(sacKinst, 8, s)
	}

	putStr(sacKnetwk, 8, id.Network)
	putStr(sacKstnm, 8, id.Station)
	putStr(sacKhole, 8, id.Location)
	putStr(sacKcmpnm, 8, id.Channel)

	data := make([]byte, 0, 4*n)
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for i := first; i < first+n; i++ {
		v := ch.X.Float64At(i)
		lo, hi, sum = math.Min(lo, v), math.Max(hi, v), sum+v
		data = engine.AppendUint32(data, math.Float32bits(float32(v)))
	}
	if n > 0 {
		putFloat(sacDepmin, lo)
		putFloat(sacDepmax, hi)
		putFloat(sacDepmen, sum/float64(n))
	}
	for i := range times {
		data = engine.AppendUint32(data, math.Float32bits(float32(float64(times[i]-ref.UnixMicro())/1e6)))
	}

	dst = append(dst, hdr...)

	return append(dst, data...)
}
