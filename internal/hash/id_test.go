package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.data))
		})
	}

	require.NotEqual(t, ID("UW.ELK..EHZ"), ID("UW.ELK..EHN"))
}

func TestChecksum(t *testing.T) {
	require.Equal(t, uint32(0x51d8e999), Checksum(nil))
	require.Equal(t, uint32(ID("test")), Checksum([]byte("test")))
	require.NotEqual(t, Checksum([]byte{1, 2, 3}), Checksum([]byte{1, 2, 4}))
}

func BenchmarkID(b *testing.B) {
	for b.Loop() {
		ID("IU.ANMO.00.BHZ")
	}
}
