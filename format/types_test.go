package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, ok := ParseFormat(f.String())
		require.True(t, ok, f.String())
		require.Equal(t, f, got)
	}

	got, ok := ParseFormat(" mseed ")
	require.True(t, ok)
	require.Equal(t, MiniSEED, got)

	got, ok = ParseFormat("UW2")
	require.True(t, ok)
	require.Equal(t, UW, got)

	_, ok = ParseFormat("ah")
	require.False(t, ok)
	require.Equal(t, "Unknown", Format(0).String())
}

func TestCodecID(t *testing.T) {
	for _, shuffle := range []ShuffleType{ShuffleNone, ShuffleByte} {
		for _, comp := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
			id := NewCodecID(shuffle, comp)
			require.Equal(t, shuffle, id.Shuffle())
			require.Equal(t, comp, id.Compression())
		}
	}

	require.Equal(t, "ByteShuffle+Zstd", NewCodecID(ShuffleByte, CompressionZstd).String())
}

func TestParseCompression(t *testing.T) {
	got, ok := ParseCompression("LZ4")
	require.True(t, ok)
	require.Equal(t, CompressionLZ4, got)

	got, ok = ParseCompression("")
	require.True(t, ok)
	require.Equal(t, CompressionNone, got)

	_, ok = ParseCompression("brotli")
	require.False(t, ok)
}

func TestParseShuffle(t *testing.T) {
	for _, s := range []ShuffleType{ShuffleNone, ShuffleByte} {
		got, ok := ParseShuffle(s.String())
		require.True(t, ok, s.String())
		require.Equal(t, s, got)
	}

	got, ok := ParseShuffle("")
	require.True(t, ok)
	require.Equal(t, ShuffleByte, got)

	_, ok = ParseShuffle("bit")
	require.False(t, ok)
}
