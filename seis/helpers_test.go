package seis

import (
	"testing"

	"github.com/arloliu/seiskit/sample"
	"github.com/stretchr/testify/require"
)

const testID = "UW.ELK..EHZ"

// ramp returns n float64 samples first, first+1, ...
func ramp(first, n int) sample.Series[float64] {
	out := make(sample.Series[float64], n)
	for i := range out {
		out[i] = float64(first + i)
	}

	return out
}

func newTestChannel(t *testing.T, fs float64, start int64, x sample.Vector) *Channel {
	t.Helper()

	ch, err := NewChannel(testID, fs, x.Type())
	require.NoError(t, err)
	require.NoError(t, ch.Append(start, x))

	return ch
}
