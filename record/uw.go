package record

import (
	"time"

	"github.com/arloliu/seiskit/endian"
	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
)

// UW-2 data file layout. A file holds one event: the master header, the
// channel samples, the structures they reference and, at the very end, the
// structure table followed by the number of its entries.
const (
	uwMasterSize = 132

	uwNChan    = 0  // int16
	uwTapeNum  = 18 // int16
	uwEventNum = 20 // int16
	uwExtra    = 42 // 10 bytes, extra[2] is '2' for UW-2
	uwComment  = 52 // 80 bytes

	uwStructEntry = 12 // name[4], count int32, offset int32

	uwChannelSize = 56
	uwChLen       = 0  // int32, sample count
	uwChOffset    = 4  // int32, data offset from the start of the file
	uwChLMin      = 8  // int32, minutes since 1600-01-01
	uwChLSec      = 12 // int32, µs after uwChLMin
	uwChLRate     = 16 // int32, samples per 1000 s
	uwChBias      = 28 // int16
	uwChName      = 32 // 8 bytes, station
	uwChFmt       = 40 // 4 bytes, fmt[0] is S, L or F
	uwChID        = 44 // 4 bytes, channel code
	uwChNet       = 48 // 4 bytes, network code
	uwChCompFlg   = 52 // 4 bytes

	uwCorrectionSize = 8 // channel int32, correction int32 µs
)

var uwEpoch = time.Date(1600, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMicro()

// uwTime converts a UW minute and microsecond pair to µs since the Unix epoch.
func uwTime(lmin, lsec int) int64 {
	return uwEpoch + int64(lmin)*60_000_000 + int64(lsec)
}

type uwStruct struct {
	count, offset int
}

// uwFile is the validated layout of one UW-2 file.
type uwFile struct {
	engine  endian.EndianEngine
	data    []byte
	nchan   int
	structs map[string]uwStruct
}

func (f uwFile) i16(off int) int {
	return int(int16(f.engine.Uint16(f.data[off:]))) //nolint:gosec
}

func (f uwFile) i32(off int) int {
	return int(int32(f.engine.Uint32(f.data[off:]))) //nolint:gosec
}

// section returns the byte range of structure name holding count entries of size bytes.
func (f uwFile) section(name string, size int) (int, int, bool) {
	s, ok := f.structs[name]
	if !ok {
		return 0, 0, false
	}

	return s.offset, s.count, s.count >= 0 && s.offset >= uwMasterSize && s.offset+s.count*size <= len(f.data)
}

type uwParser struct {
	cfg ParserConfig
}

func (p *uwParser) Format() format.Format { return format.UW }

// open validates the master header and structure table in the first byte
// order that yields a consistent layout.
func (p *uwParser) open(data []byte) (uwFile, error) {
	if len(data) < uwMasterSize+4 {
		return uwFile{}, errs.Malformed("UW", 0, "%d bytes is shorter than the master header", len(data))
	}
	if data[uwExtra+2] != '2' {
		return uwFile{}, errs.Malformed("UW", uwExtra+2, "not a UW-2 file (version byte %q)", data[uwExtra+2])
	}

	var last error
	for _, engine := range p.cfg.engines(endian.Big, endian.Little) {
		f, err := openUW(data, engine)
		if err == nil {
			return f, nil
		}
		last = err
	}

	return uwFile{}, last
}

func openUW(data []byte, engine endian.EndianEngine) (uwFile, error) {
	f := uwFile{engine: engine, data: data}
	f.nchan = f.i16(uwNChan)
	if f.nchan < 0 {
		return uwFile{}, errs.Malformed("UW", uwNChan, "negative channel count %d", f.nchan)
	}

	nstructs := f.i32(len(data) - 4)
	table := len(data) - 4 - nstructs*uwStructEntry
	if nstructs <= 0 || table < uwMasterSize {
		return uwFile{}, errs.Malformed("UW", int64(len(data)-4), "structure table of %d entries does not fit", nstructs)
	}

	f.structs = make(map[string]uwStruct, nstructs)
	for k := range nstructs {
		off := table + k*uwStructEntry
		f.structs[string(data[off:off+4])] = uwStruct{count: f.i32(off + 4), offset: f.i32(off + 8)}
	}

	_, count, ok := f.section("CH2 ", uwChannelSize)
	if !ok || count != f.nchan {
		return uwFile{}, errs.Malformed("UW", int64(table), "channel headers missing or inconsistent with %d channels", f.nchan)
	}
	if _, present := f.structs["TC2 "]; present {
		if _, _, ok := f.section("TC2 ", uwCorrectionSize); !ok {
			return uwFile{}, errs.Malformed("UW", int64(table), "time correction table out of bounds")
		}
	}

	return f, nil
}

// Frame returns the length of data: a UW file is located by the structure
// table at its end, so one buffer holds exactly one file.
func (p *uwParser) Frame(data []byte) (int, error) {
	if _, err := p.open(data); err != nil {
		return 0, err
	}

	return len(data), nil
}

// Parse returns the first channel of the file. Use ParseAll for the rest.
func (p *uwParser) Parse(data []byte) (*Record, int, error) {
	recs, n, err := p.ParseAll(data)
	if err != nil {
		return nil, 0, err
	}
	if len(recs) == 0 {
		return nil, 0, errs.Malformed("UW", uwNChan, "file holds no channels")
	}

	return recs[0], n, nil
}

// ParseAll decodes every channel of the file. Each channel starts at its own
// header time plus the matching time correction.
func (p *uwParser) ParseAll(data []byte) ([]*Record, int, error) {
	f, err := p.open(data)
	if err != nil {
		return nil, 0, err
	}

	corrections := map[int]int64{}
	if off, count, ok := f.section("TC2 ", uwCorrectionSize); ok {
		for k := range count {
			at := off + k*uwCorrectionSize
			corrections[f.i32(at)] += int64(f.i32(at + 4))
		}
	}

	base, _, _ := f.section("CH2 ", uwChannelSize)
	recs := make([]*Record, 0, f.nchan)
	for k := range f.nchan {
		rec, err := p.channel(f, k, base+k*uwChannelSize, corrections[k])
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}

	return recs, len(data), nil
}

func uwSampleType(code byte) (sample.Type, error) {
	switch code {
	case 'S':
		return sample.Int16, nil
	case 'L':
		return sample.Int32, nil
	case 'F':
		return sample.Float32, nil
	default:
		return 0, &errs.UnknownTypeError{Format: format.UW.String(), Tag: int(code)}
	}
}

func (p *uwParser) channel(f uwFile, k, hdr int, correction int64) (*Record, error) {
	t, err := uwSampleType(f.data[hdr+uwChFmt])
	if err != nil {
		return nil, err
	}

	n, off := f.i32(hdr+uwChLen), f.i32(hdr+uwChOffset)
	if n < 0 || off < uwMasterSize || off+n*t.Width() > len(f.data) {
		return nil, errs.Malformed("UW", int64(hdr), "channel %d: %d samples at offset %d exceed the file", k, n, off)
	}
	lrate := f.i32(hdr + uwChLRate)
	if lrate <= 0 {
		return nil, errs.Malformed("UW", int64(hdr+uwChLRate), "channel %d: sample rate %d per 1000 s", k, lrate)
	}

	rec := newRecord(format.UW)
	rec.Src = p.cfg.src
	rec.Identity = Identity{
		Network: trimCode(f.data[hdr+uwChNet : hdr+uwChNet+4]),
		Station: trimCode(f.data[hdr+uwChName : hdr+uwChName+8]),
		Channel: trimCode(f.data[hdr+uwChID : hdr+uwChID+4]),
	}
	if rec.Network == "" {
		rec.Network = "UW"
	}
	rec.Start = uwTime(f.i32(hdr+uwChLMin), f.i32(hdr+uwChLSec)) + correction
	rec.Fs = float64(lrate) / 1000
	rec.Type = t

	if correction != 0 {
		rec.Notes.Add("applied time correction of %d µs", correction)
	}
	if bias := f.i16(hdr + uwChBias); bias != 0 {
		rec.Extra["bias"] = bias
	}
	if flg := trimCode(f.data[hdr+uwChCompFlg : hdr+uwChCompFlg+4]); flg != "" {
		rec.Extra["comp_flag"] = flg
	}
	if ev := f.i16(uwEventNum); ev != 0 {
		rec.Extra["event"] = ev
	}
	if tape := f.i16(uwTapeNum); tape != 0 {
		rec.Extra["tape"] = tape
	}
	if comment := trimCode(f.data[uwComment : uwComment+80]); comment != "" {
		rec.Extra["comment"] = comment
	}

	x, err := sample.Decode(t, f.data[off:off+n*t.Width()], f.engine)
	if err != nil {
		return nil, err
	}
	rec.Samples = x

	return rec, nil
}
