package xcorr

import "unsafe"

// Sample is the element constraint for source and destination matrices:
// any fixed-size numeric type whose values can be multiplied, summed and
// ordered. Correlation scores accumulate in the sample type itself, so
// callers pick a type wide enough for window_size² times the squared
// sample ceiling.
type Sample interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// sizeOf returns the size of T in bytes.
func sizeOf[T Sample]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// hostBytes reinterprets a sample slice as its backing bytes, for handing
// typed host buffers to Memcpy.
func hostBytes[T Sample](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*sizeOf[T]())
}
