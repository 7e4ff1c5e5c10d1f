package record

import (
	"bytes"
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
)

const (
	geocsvVersion    = "GeoCSV 2.0"
	geocsvTimeLayout = "2006-01-02T15:04:05.000000Z"
)

// geocsvKnown are header keys mapped onto Record fields; every other key is
// kept in Record.Extra as a string.
var geocsvKnown = map[string]bool{
	"dataset": true, "delimiter": true, "sid": true, "sample_count": true,
	"sample_rate_hz": true, "start_time": true, "latitude_deg": true,
	"longitude_deg": true, "elevation_m": true, "depth_m": true,
	"azimuth_deg": true, "dip_deg": true, "scale_factor": true,
	"scale_units": true, "field_unit": true, "field_type": true,
}

// geocsvHeaderLine splits "# key: value" into a lower-case key and a value.
func geocsvHeaderLine(text []byte) (string, string, bool) {
	key, value, ok := strings.Cut(strings.TrimLeft(string(text), "# \t"), ":")
	if !ok {
		return "", "", false
	}

	return strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value), true
}

type geocsvParser struct {
	cfg ParserConfig
}

func (p *geocsvParser) Format() format.Format { return format.GeoCSV }

// Frame returns the length of the dataset at the start of data: its header
// comments, column names and rows up to the next header comment.
func (p *geocsvParser) Frame(data []byte) (int, error) {
	off := 0
	started, body := false, false
	for line := range bytes.Lines(data) {
		text := bytes.TrimSpace(line)
		switch {
		case len(text) == 0:
		case !started:
			key, value, ok := geocsvHeaderLine(text)
			if text[0] != '#' || !ok || key != "dataset" || !strings.HasPrefix(value, "GeoCSV") {
				return 0, errs.Malformed("GeoCSV", int64(off), "dataset does not start with a GeoCSV header")
			}
			started = true
		case text[0] == '#':
			if body {
				return off, nil
			}
		default:
			body = true
		}
		off += len(line)
	}
	if !started {
		return 0, errs.Malformed("GeoCSV", 0, "no dataset")
	}

	return off, nil
}

func (p *geocsvParser) Parse(data []byte) (*Record, int, error) {
	n, err := p.Frame(data)
	if err != nil {
		return nil, 0, err
	}

	header := map[string]string{}
	var (
		rows    [][]string
		offsets []int64
		columns []string
		off     int64
	)
	delim := ","
	for line := range bytes.Lines(data[:n]) {
		text := bytes.TrimSpace(line)
		switch {
		case len(text) == 0:
		case text[0] == '#':
			if key, value, ok := geocsvHeaderLine(text); ok {
				header[key] = value
				if key == "delimiter" && value != "" {
					delim = value
				}
			}
		default:
			fields := strings.Split(string(text), delim)
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
			// The first row names the columns unless it already holds a number.
			if columns == nil && len(rows) == 0 {
				if _, err := strconv.ParseFloat(fields[len(fields)-1], 64); err != nil {
					columns = fields
					break
				}
			}
			rows = append(rows, fields)
			offsets = append(offsets, off)
		}
		off += int64(len(line))
	}

	rec := newRecord(format.GeoCSV)
	rec.Src = p.cfg.src

	parts := strings.Split(header["sid"], "_")
	if len(parts) != 4 {
		return nil, 0, errs.Malformed("GeoCSV", 0, "SID %q is not NET_STA_LOC_CHA", header["sid"])
	}
	rec.Identity = Identity{Network: parts[0], Station: parts[1], Location: parts[2], Channel: parts[3]}

	headerFloat := func(key string) (float64, bool, error) {
		s, ok := header[key]
		if !ok || s == "" {
			return math.NaN(), false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, errs.Malformed("GeoCSV", 0, "%s: %v", key, err)
		}

		return v, true, nil
	}

	fs, hasFs, err := headerFloat("sample_rate_hz")
	if err != nil {
		return nil, 0, err
	}
	if !hasFs {
		fs = 0
	}
	if fs < 0 || math.IsInf(fs, 0) || math.IsNaN(fs) {
		return nil, 0, errs.Malformed("GeoCSV", 0, "sample rate %g", fs)
	}
	rec.Fs = fs

	locFields := []struct {
		key string
		dst *float64
	}{
		{"latitude_deg", &rec.Loc.Latitude},
		{"longitude_deg", &rec.Loc.Longitude},
		{"elevation_m", &rec.Loc.Elevation},
		{"depth_m", &rec.Loc.Depth},
		{"azimuth_deg", &rec.Loc.Azimuth},
		{"dip_deg", &rec.Loc.Incidence},
	}
	for _, f := range locFields {
		if *f.dst, _, err = headerFloat(f.key); err != nil {
			return nil, 0, err
		}
	}
	// Dip is measured down from horizontal, incidence from vertical up.
	if !math.IsNaN(rec.Loc.Incidence) {
		rec.Loc.Incidence += 90
	}

	if gain, ok, err := headerFloat("scale_factor"); err != nil {
		return nil, 0, err
	} else if ok && gain != 0 {
		rec.Gain = gain
	}
	rec.Units = header["scale_units"]
	for key, value := range header {
		if !geocsvKnown[key] {
			rec.Extra[key] = value
		}
	}

	if s, ok := header["start_time"]; ok {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, 0, errs.Malformed("GeoCSV", 0, "start_time: %v", err)
		}
		rec.Start = t.UnixMicro()
	}

	tspair := len(columns) == 2 || (len(rows) > 0 && len(rows[0]) == 2)
	values := make([]string, len(rows))
	var times []int64
	if tspair {
		times = make([]int64, len(rows))
	}
	for i, row := range rows {
		if tspair {
			if len(row) != 2 {
				return nil, 0, errs.Malformed("GeoCSV", offsets[i], "row has %d fields, want 2", len(row))
			}
			t, err := time.Parse(time.RFC3339Nano, row[0])
			if err != nil {
				return nil, 0, errs.Malformed("GeoCSV", offsets[i], "time: %v", err)
			}
			times[i] = t.UnixMicro()
			if i > 0 && times[i] <= times[i-1] {
				return nil, 0, errs.Malformed("GeoCSV", offsets[i], "time not increasing")
			}
			values[i] = row[1]
		} else {
			if len(row) != 1 {
				return nil, 0, errs.Malformed("GeoCSV", offsets[i], "row has %d fields, want 1", len(row))
			}
			values[i] = row[0]
		}
	}

	if s, ok := header["sample_count"]; ok {
		if count, err := strconv.Atoi(s); err != nil || count != len(values) {
			return nil, 0, errs.Malformed("GeoCSV", 0, "sample_count %q, %d rows present", s, len(values))
		}
	}
	if !tspair && fs == 0 && len(values) > 1 {
		return nil, 0, errs.Malformed("GeoCSV", 0, "sample list without a sample rate")
	}

	x, err := parseGeoCSVValues(values, geocsvFieldType(header["field_type"]), offsets)
	if err != nil {
		return nil, 0, err
	}
	rec.Type = x.Type()
	rec.Samples = x
	if tspair && len(times) > 0 {
		rec.Start = times[0]
		rec.Breakpoints = seis.TimelineFromTimes(times, fs)
	}

	return rec, n, nil
}

// geocsvFieldType returns the declared type of the sample column: the last
// entry of field_type, or "" when absent.
func geocsvFieldType(fieldType string) string {
	if fieldType == "" {
		return ""
	}
	types := strings.Split(fieldType, ",")

	return strings.ToLower(strings.TrimSpace(types[len(types)-1]))
}

// parseGeoCSVValues parses integer columns as Int32, widening to Int64 when a
// value does not fit, and float columns as Float64. An undeclared column is
// integer when every value is.
func parseGeoCSVValues(values []string, fieldType string, offsets []int64) (sample.Vector, error) {
	if fieldType != "float" {
		ints := make([]int64, len(values))
		wide, ok := false, true
		for i, s := range values {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				if fieldType == "integer" {
					return nil, errs.Malformed("GeoCSV", offsets[i], "sample %q: %v", s, err)
				}
				ok = false

				break
			}
			ints[i] = v
			wide = wide || v < math.MinInt32 || v > math.MaxInt32
		}
		if ok {
			if wide {
				return sample.Series[int64](ints), nil
			}
			out := make(sample.Series[int32], len(ints))
			for i, v := range ints {
				out[i] = int32(v) //nolint:gosec
			}

			return out, nil
		}
	}

	out := make(sample.Series[float64], len(values))
	for i, s := range values {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.Malformed("GeoCSV", offsets[i], "sample %q: %v", s, err)
		}
		out[i] = v
	}

	return out, nil
}

type geocsvWriter struct{}

func (w *geocsvWriter) Format() format.Format { return format.GeoCSV }

// WriteChannel appends ch as one TSPAIR dataset: every sample with its own
// timestamp, so gaps and irregular channels need no special handling.
func (w *geocsvWriter) WriteChannel(dst []byte, ch *seis.Channel) ([]byte, error) {
	id, err := ParseIdentity(ch.ID)
	if err != nil {
		return dst, err
	}
	t := ch.Type()
	if !t.Valid() || t.IsComplex() || t == sample.Char || t == sample.Int128 || t == sample.Uint128 {
		return dst, fmt.Errorf("%w: GeoCSV cannot hold %s samples", errs.ErrUnsupportedType, t)
	}

	times := ch.Times()
	start := ch.Start()
	if len(times) > 0 {
		start = times[0]
	}

	field := "float"
	if t.IsInteger() {
		field = "integer"
	}

	dst = fmt.Appendf(dst, "# dataset: %s\n", geocsvVersion)
	dst = append(dst, "# delimiter: ,\n"...)
	dst = fmt.Appendf(dst, "# SID: %s_%s_%s_%s\n", id.Network, id.Station, id.Location, id.Channel)
	dst = fmt.Appendf(dst, "# sample_count: %d\n", len(times))
	dst = fmt.Appendf(dst, "# sample_rate_hz: %s\n", strconv.FormatFloat(ch.Fs, 'g', -1, 64))
	dst = append(dst, "# start_time: "...)
	dst = time.UnixMicro(start).UTC().AppendFormat(dst, geocsvTimeLayout)
	dst = append(dst, '\n')

	appendOpt := func(key string, v float64) {
		if !math.IsNaN(v) {
			dst = fmt.Appendf(dst, "# %s: %s\n", key, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	appendOpt("latitude_deg", ch.Loc.Latitude)
	appendOpt("longitude_deg", ch.Loc.Longitude)
	appendOpt("elevation_m", ch.Loc.Elevation)
	appendOpt("depth_m", ch.Loc.Depth)
	appendOpt("azimuth_deg", ch.Loc.Azimuth)
	appendOpt("dip_deg", ch.Loc.Incidence-90)
	if ch.Gain != 1 && ch.Gain != 0 {
		appendOpt("scale_factor", ch.Gain)
	}
	if ch.Units != "" {
		dst = fmt.Appendf(dst, "# scale_units: %s\n", ch.Units)
	}
	for _, key := range slices.Sorted(maps.Keys(ch.Misc)) {
		s, ok := ch.Misc[key].(string)
		if !ok || geocsvKnown[strings.ToLower(key)] || strings.ContainsAny(key+s, ":\n") {
			continue
		}
		dst = fmt.Appendf(dst, "# %s: %s\n", key, s)
	}
	dst = fmt.Appendf(dst, "# field_unit: UTC, %s\n", cmp.Or(ch.Units, "COUNTS"))
	dst = fmt.Appendf(dst, "# field_type: datetime, %s\n", field)
	dst = append(dst, "Time, Sample\n"...)

	for i, ts := range times {
		dst = time.UnixMicro(ts).UTC().AppendFormat(dst, geocsvTimeLayout)
		dst = append(dst, ", "...)
		dst = appendGeoCSVSample(dst, ch.X, i)
		dst = append(dst, '\n')
	}

	return dst, nil
}

func appendGeoCSVSample(dst []byte, x sample.Vector, i int) []byte {
	switch s := x.(type) {
	case sample.Series[int64]:
		return strconv.AppendInt(dst, s[i], 10)
	case sample.Series[uint64]:
		return strconv.AppendUint(dst, s[i], 10)
	}

	v := x.Float64At(i)
	switch t := x.Type(); {
	case t.IsInteger():
		return strconv.AppendInt(dst, int64(v), 10)
	case t == sample.Float64:
		return strconv.AppendFloat(dst, v, 'g', -1, 64)
	default:
		return strconv.AppendFloat(dst, v, 'g', -1, 32)
	}
}
