package record

import (
	"errors"
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/format"
	"github.com/arloliu/seiskit/sample"
	"github.com/arloliu/seiskit/seis"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity(testID)
	require.NoError(t, err)
	require.Equal(t, Identity{Network: "UW", Station: "ELK", Location: "", Channel: "EHZ"}, id)
	require.Equal(t, testID, id.String())

	_, err = ParseIdentity("UW.ELK.EHZ")
	require.ErrorIs(t, err, errs.ErrInvalidChannelID)
}

func TestIdentity_Fits(t *testing.T) {
	id := Identity{Network: "UW", Station: "LONGER", Location: "00", Channel: "EHZ"}
	require.NoError(t, id.fits(8, 8, 8, 8))
	require.ErrorIs(t, id.fits(2, 5, 2, 3), errs.ErrInvalidChannelID)
}

func TestRecord_Channel(t *testing.T) {
	rec := newRecord(format.MiniSEED)
	rec.Identity = Identity{Network: "UW", Station: "ELK", Channel: "EHZ"}
	rec.Start = testStart
	rec.Fs = 100
	rec.Type = sample.Int32
	rec.Samples = walk(10, 5)
	rec.Units = "counts"
	rec.Extra["quality"] = "D"

	require.Equal(t, testID, rec.ID())
	require.Equal(t, 10, rec.Len())
	require.Equal(t, seis.NewTimeline(testStart), rec.Timeline())

	ch, err := rec.Channel()
	require.NoError(t, err)
	require.Equal(t, testID, ch.ID)
	require.Equal(t, 10, ch.Len())
	require.Equal(t, testStart, ch.Start())
	require.Equal(t, "counts", ch.Units)
	require.Equal(t, "D", ch.Misc["quality"])
	require.InDelta(t, 1.0, ch.Gain, 0)
}

func TestRecord_DroppedSamples(t *testing.T) {
	rec := newRecord(format.Native)
	rec.Identity = Identity{Network: "UW", Station: "ELK", Channel: "EHZ"}
	rec.Fs = 100
	rec.Type = sample.Float32
	rec.Samples = make(sample.Series[float32], 4)
	rec.dropSamples(&errs.CorruptPayloadError{Codec: "zstd", Err: errors.New("boom")})

	require.Zero(t, rec.Len())
	require.Nil(t, rec.Timeline())
	require.Len(t, rec.Notes, 1)
	require.Contains(t, rec.Notes[0].Text, "samples dropped")

	ch, err := rec.Channel()
	require.NoError(t, err)
	require.True(t, ch.IsEmpty())
	require.Equal(t, sample.Float32, ch.Type())
	require.Equal(t, rec.Notes.Texts(), ch.Notes.Texts())
}

func TestParserFor(t *testing.T) {
	for _, f := range format.Formats {
		p, err := ParserFor(f)
		require.NoError(t, err)
		require.Equal(t, f, p.Format())
	}

	_, err := ParserFor(format.Format(0x7F))
	require.ErrorIs(t, err, errs.ErrUnknownFormat)

	_, err = ParserFor(format.SAC, WithByteOrder(9))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestWriterFor(t *testing.T) {
	_, err := WriterFor(format.SEGY)
	require.ErrorIs(t, err, errs.ErrWriteUnsupported)

	_, err = WriterFor(format.UW)
	require.ErrorIs(t, err, errs.ErrWriteUnsupported)

	_, err = WriterFor(format.Format(0x7F))
	require.ErrorIs(t, err, errs.ErrUnknownFormat)

	_, err = WriterFor(format.MiniSEED, WithRecordLength(1000))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = WriterFor(format.MiniSEED, WithEncoding(EncodingInt24))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = WriterFor(format.Native, WithCodec(format.ShuffleByte, format.CompressionType(9)))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = WriterFor(format.Native, WithWriteByteOrder(7))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}
