package xcorr

import (
	"testing"
)

// MallocOrFail allocates device memory and fails the test if unsuccessful
func MallocOrFail(t testing.TB, size int) DevicePtr {
	t.Helper()
	ptr, err := Malloc(size)
	if err != nil {
		t.Fatalf("Failed to allocate %d bytes: %v", size, err)
	}
	return ptr
}

// MemcpyOrFail copies data and fails the test if unsuccessful
func MemcpyOrFail(t testing.TB, dst DevicePtr, src interface{}, size int, direction MemcpyKind) {
	t.Helper()
	err := Memcpy(dst, src, size, direction)
	if err != nil {
		t.Fatalf("Memcpy failed: %v", err)
	}
}

// LaunchOrFail launches a kernel and fails the test if unsuccessful
func LaunchOrFail(t testing.TB, kernel KernelFunc, grid, tile Dim2) {
	t.Helper()
	err := LaunchFunc(kernel, grid, tile)
	if err != nil {
		t.Fatalf("Kernel launch failed: %v", err)
	}
}

// SynchronizeOrFail synchronizes and fails the test if unsuccessful
func SynchronizeOrFail(t testing.TB) {
	t.Helper()
	err := Synchronize()
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
}

// CorrelateOrFail runs a correlation and fails the test if unsuccessful
func CorrelateOrFail[T Sample](t testing.TB, src1, src2 []T, kernelSize, rows, cols int, cfg LaunchConfig) []T {
	t.Helper()
	dest, err := Correlate(src1, src2, kernelSize, rows, cols, cfg)
	if err != nil {
		t.Fatalf("Correlate(%dx%d, window %d, %+v) failed: %v", rows, cols, kernelSize, cfg, err)
	}
	return dest
}
