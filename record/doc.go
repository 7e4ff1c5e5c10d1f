// Package record decodes and encodes the on-disk formats seiskit reads into
// a seis.Container.
//
// # Formats
//
//	format.MiniSEED  SEED 2.4 data records (Steim1/2, integer, float, ASCII)
//	format.SAC       SAC v6 binary files, either byte order
//	format.SEGY      PASSCAL SEG-Y traces (240-byte header, no reel header)
//	format.GeoCSV    GeoCSV 2.0 datasets, sample list or time-sample pairs
//	format.Native    seiskit blocks: header, CBOR metadata, breakpoints, payload
//	format.UW        UW-2 event files, one record holding every channel
//
// Every format has a Parser. SEG-Y and UW are read-only.
//
// A UW parser also implements MultiParser: the Reader routes each channel
// of a file separately.
//
// # Reading
//
// A Reader splits a buffer into records with Parser.Frame, decodes them on a
// worker pool and adds them to the container in input order:
//
//	r, err := record.NewReader(format.MiniSEED, record.WithWorkers(4))
//	if err != nil {
//	    return err
//	}
//	report, err := r.Read(ctx, data, c)
//
// A record that cannot be decoded is skipped and listed in Report.Warnings.
// A record whose payload is corrupt keeps its metadata and is routed without
// samples. When the framing itself fails, nothing after the failing offset
// is read and Report.Truncated is set.
//
// # Writing
//
// Writer.WriteChannel appends the encoding of one channel to a buffer. Gaps
// split a channel into several records (miniSEED, SAC) or are carried as
// breakpoints (native) or timestamps (GeoCSV).
package record
