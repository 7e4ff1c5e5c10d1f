package pool

import "sync"

// Slice pools used by the merge engine for per-sample time and position arrays.
var (
	int64SlicePool = sync.Pool{
		New: func() any { return &[]int64{} },
	}
	intSlicePool = sync.Pool{
		New: func() any { return &[]int{} },
	}
)

// GetInt64Slice retrieves an int64 slice of exactly size elements from the pool.
// The contents are not cleared. The caller must call the returned cleanup
// function (typically with defer) to return the slice to the pool.
//
// Example:
//
//	times, cleanup := pool.GetInt64Slice(ch.Len())
//	defer cleanup()
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { int64SlicePool.Put(ptr) }
}

// GetIntSlice is GetInt64Slice for int.
func GetIntSlice(size int) ([]int, func()) {
	ptr, _ := intSlicePool.Get().(*[]int)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { intSlicePool.Put(ptr) }
}
