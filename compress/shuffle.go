package compress

// Shuffle transposes data as a matrix of elements of width bytes: all first
// bytes, then all second bytes, and so on. Bytes past the last whole element
// are copied unchanged. Sample planes with slowly varying high bytes become
// long constant runs, which generic compressors reduce well.
func Shuffle(data []byte, width int) []byte {
	out := make([]byte, len(data))
	if width <= 1 {
		copy(out, data)
		return out
	}

	n := len(data) / width
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out[j*n+i] = data[i*width+j]
		}
	}
	copy(out[n*width:], data[n*width:])

	return out
}

// Unshuffle inverts Shuffle for the same width.
func Unshuffle(data []byte, width int) []byte {
	out := make([]byte, len(data))
	if width <= 1 {
		copy(out, data)
		return out
	}

	n := len(data) / width
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out[i*width+j] = data[j*n+i]
		}
	}
	copy(out[n*width:], data[n*width:])

	return out
}
