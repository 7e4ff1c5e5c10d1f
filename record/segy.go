package record

import (
	"math"
	"time"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
)

// PASSCAL SEG-Y trace header byte offsets. Each file holds one trace: the
// 240-byte header followed by the samples.
const (
	segyHeaderSize = 240

	segyElevation   = 40  // int32, receiver elevation
	segyElevScale   = 68  // int16
	segyCoordScale  = 70  // int16
	segyRecLon      = 80  // int32
	segyRecLat      = 84  // int32
	segyCoordUnits  = 88  // int16, 1 length, 2 arc seconds, 3 decimal degrees
	segySampleCount = 114 // int16, 0x7FFF defers to segyNumSamps
	segyDeltaMicros = 116 // int16
	segyYear        = 156
	segyDay         = 158
	segyHour        = 160
	segyMinute      = 162
	segySecond      = 164
	segyStation     = 180 // 6 bytes
	segySensor      = 186 // 8 bytes
	segyChannel     = 194 // 4 bytes
	segySampRate    = 200 // int32, sample interval in µs
	segyDataForm    = 204 // int16, 0 int16, 1 int32
	segyMillis      = 206 // int16
	segyScaleFac    = 220 // float32
	segyInstNo      = 224 // int16
	segyNumSamps    = 228 // int32
)

const (
	segyCountDeferred = 0x7FFF
	segyArcSeconds    = 2
	segyDegrees       = 3
)

type segyHeader struct {
	engine endian.EndianEngine
	raw    []byte
}

func (h segyHeader) i16(off int) int {
	return int(int16(h.engine.Uint16(h.raw[off:]))) //nolint:gosec
}

func (h segyHeader) i32(off int) int {
	return int(int32(h.engine.Uint32(h.raw[off:]))) //nolint:gosec
}

func (h segyHeader) count() int {
	if n := h.i16(segySampleCount); n != segyCountDeferred {
		return n
	}

	return h.i32(segyNumSamps)
}

func (h segyHeader) sampleType() (sample.Type, error) {
	switch form := h.i16(segyDataForm); form {
	case 0:
		return sample.Int16, nil
	case 1:
		return sample.Int32, nil
	default:
		return 0, &errs.UnknownTypeError{Format: format.SEGY.String(), Tag: form}
	}
}

// interval returns the sample interval in µs. The 16-bit field overflows
// for rates below ~30 Hz, in which case the 32-bit field holds it.
func (h segyHeader) interval() int {
	if dt := h.i16(segyDeltaMicros); dt > 1 {
		return dt
	}

	return h.i32(segySampRate)
}

func (h segyHeader) start() int64 {
	t := time.Date(h.i16(segyYear), time.January, 1,
		h.i16(segyHour), h.i16(segyMinute), h.i16(segySecond),
		h.i16(segyMillis)*int(time.Millisecond), time.UTC)

	return t.AddDate(0, 0, h.i16(segyDay)-1).UnixMicro()
}

// scaled applies a SEG-Y scalar: positive multiplies, negative divides.
func scaled(v, scale int) float64 {
	switch {
	case scale > 0:
		return float64(v) * float64(scale)
	case scale < 0:
		return float64(v) / float64(-scale)
	default:
		return float64(v)
	}
}

// plausible reports whether the date fields decode sensibly in h's byte order.
func (h segyHeader) plausible() bool {
	year, day := h.i16(segyYear), h.i16(segyDay)
	return year >= 1900 && year <= 2200 && day >= 1 && day <= 366 &&
		h.i16(segyHour) < 24 && h.i16(segyMinute) < 60 && h.i16(segySecond) <= 60
}

type segyParser struct {
	cfg ParserConfig
}

func (p *segyParser) Format() format.Format { return format.SEGY }

func (p *segyParser) header(data []byte) (segyHeader, error) {
	if len(data) < segyHeaderSize {
		return segyHeader{}, errs.Malformed("SEGY", 0, "%d bytes is shorter than the trace header", len(data))
	}

	for _, engine := range p.cfg.engines(endian.Little, endian.Big) {
		h := segyHeader{engine: engine, raw: data[:segyHeaderSize]}
		if h.plausible() {
			return h, nil
		}
	}

	return segyHeader{}, errs.Malformed("SEGY", segyYear, "trace start time is not a valid date in either byte order")
}

func (p *segyParser) Frame(data []byte) (int, error) {
	h, err := p.header(data)
	if err != nil {
		return 0, err
	}
	t, err := h.sampleType()
	if err != nil {
		return 0, err
	}

	n := h.count()
	if n < 0 {
		return 0, errs.Malformed("SEGY", segySampleCount, "negative sample count %d", n)
	}
	size := segyHeaderSize + n*t.Width()
	if len(data) < size {
		return 0, errs.Malformed("SEGY", segyHeaderSize, "%d data bytes declared, %d present", size-segyHeaderSize, len(data)-segyHeaderSize)
	}

	return size, nil
}

func (p *segyParser) Parse(data []byte) (*Record, int, error) {
	n, err := p.Frame(data)
	if err != nil {
		return nil, 0, err
	}
	h, _ := p.header(data)
	t, _ := h.sampleType()

	dt := h.interval()
	if dt <= 0 {
		return nil, 0, errs.Malformed("SEGY", segyDeltaMicros, "sample interval %d µs", dt)
	}

	rec := newRecord(format.SEGY)
	rec.Src = p.cfg.src
	rec.Identity = Identity{
		Station: trimCode(h.raw[segyStation : segyStation+6]),
		Channel: trimCode(h.raw[segyChannel : segyChannel+4]),
	}
	rec.Start = h.start()
	rec.Fs = 1e6 / float64(dt)
	rec.Type = t

	if scale := math.Float32frombits(h.engine.Uint32(h.raw[segyScaleFac:])); scale != 0 && !math.IsNaN(float64(scale)) {
		rec.Gain = float64(scale)
	}
	if s := trimCode(h.raw[segySensor : segySensor+8]); s != "" {
		rec.Extra["sensor_serial"] = s
	}
	if inst := h.i16(segyInstNo); inst != 0 {
		rec.Extra["inst_no"] = inst
	}

	coordScale := h.i16(segyCoordScale)
	lon, lat := scaled(h.i32(segyRecLon), coordScale), scaled(h.i32(segyRecLat), coordScale)
	switch h.i16(segyCoordUnits) {
	case segyArcSeconds:
		rec.Loc.Latitude, rec.Loc.Longitude = lat/3600, lon/3600
	case segyDegrees:
		rec.Loc.Latitude, rec.Loc.Longitude = lat, lon
	default:
		if lat != 0 || lon != 0 {
			rec.Extra["x"], rec.Extra["y"] = lon, lat
		}
	}
	if elev := h.i32(segyElevation); elev != 0 {
		rec.Loc.Elevation = scaled(elev, h.i16(segyElevScale))
	}

	x, err := sample.Decode(t, data[segyHeaderSize:n], h.engine)
	if err != nil {
		return nil, 0, err
	}
	rec.Samples = x

	return rec, n, nil
}
