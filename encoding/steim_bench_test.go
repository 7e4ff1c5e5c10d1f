package encoding

import (
	"testing"

	"github.com/arloliu/seiskit/endian"
)

// Record sizes: a 512-byte record, a 4096-byte record, one minute at 200 Hz
var steimBenchSizes = []struct {
	name string
	size int
}{
	{"100_samples", 100},
	{"1000_samples", 1000},
	{"12000_samples", 12000},
}

// Generate a random walk resembling broadband counts
func generateCounts(n int) []int32 {
	values := make([]int32, n)
	seed := uint32(7)
	v := int32(0)
	for i := range values {
		seed = seed*1103515245 + 12345
		v += int32(seed>>20)%257 - 128 //nolint:gosec
		values[i] = v
	}

	return values
}

func BenchmarkAppendSteim(b *testing.B) {
	engine := endian.GetBigEndianEngine()
	for _, level := range []SteimLevel{Steim1, Steim2} {
		for _, size := range steimBenchSizes {
			b.Run(level.String()+"/"+size.name, func(b *testing.B) {
				values := generateCounts(size.size)
				buf := make([]byte, 0, size.size*4+64)

				b.ResetTimer()
				b.ReportAllocs()

				for b.Loop() {
					_, _, _, _ = AppendSteim(buf[:0], level, values, 0, 0, engine)
				}
			})
		}
	}
}

func BenchmarkSteimDecode(b *testing.B) {
	engine := endian.GetBigEndianEngine()
	for _, level := range []SteimLevel{Steim1, Steim2} {
		for _, size := range steimBenchSizes {
			b.Run(level.String()+"/"+size.name, func(b *testing.B) {
				values := generateCounts(size.size)
				frames, _, _, err := AppendSteim(nil, level, values, 0, 0, engine)
				if err != nil {
					b.Fatal(err)
				}
				dec := NewSteimDecoder(level, engine)

				b.ResetTimer()
				b.ReportAllocs()

				for b.Loop() {
					_, _ = dec.Decode(frames, len(values))
				}
			})
		}
	}
}
