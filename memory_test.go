package xcorr

import (
	"testing"
	"unsafe"
)

func TestMallocFree(t *testing.T) {
	ptr := MallocOrFail(t, 1024)
	if ptr.Size() != 1024 {
		t.Errorf("Size() = %d, want 1024", ptr.Size())
	}

	if err := Free(ptr); err != nil {
		t.Errorf("Free failed: %v", err)
	}
}

func TestMallocInvalidSize(t *testing.T) {
	if _, err := Malloc(0); !IsInvalidArgError(err) {
		t.Errorf("Malloc(0) error = %v, want invalid argument", err)
	}
	if _, err := Malloc(-5); !IsInvalidArgError(err) {
		t.Errorf("Malloc(-5) error = %v, want invalid argument", err)
	}
}

func TestFreeZeroPointer(t *testing.T) {
	if err := Free(DevicePtr{}); err != nil {
		t.Errorf("Free of zero DevicePtr failed: %v", err)
	}
}

func TestDoubleFree(t *testing.T) {
	pool := NewMemoryPool()
	ptr, err := pool.Allocate(256)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if err := pool.Free(ptr); err != nil {
		t.Fatalf("first Free failed: %v", err)
	}
	if err := pool.Free(ptr); err != ErrDoubleFree {
		t.Errorf("second Free error = %v, want ErrDoubleFree", err)
	}
}

func TestFreeUnknownPointer(t *testing.T) {
	pool := NewMemoryPool()
	buf := make([]byte, 64)
	stray := DevicePtr{ptr: rawPointerOrFail(t, buf), size: 64}

	if err := pool.Free(stray); !IsMemoryError(err) {
		t.Errorf("freeing a stray pointer: error = %v, want memory error", err)
	}
}

func rawPointerOrFail(t *testing.T, buf []byte) unsafe.Pointer {
	t.Helper()
	ptr, err := rawPointer("test", "buf", buf)
	if err != nil {
		t.Fatalf("rawPointer failed: %v", err)
	}
	return ptr
}

func TestPoolReuse(t *testing.T) {
	pool := NewMemoryPool()

	a, err := pool.Allocate(512)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := pool.Free(a); err != nil {
		t.Fatalf("Free failed: %v", err)
	}

	b, err := pool.Allocate(256)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if b.ptr != a.ptr {
		t.Error("pool did not reuse the freed block for a smaller allocation")
	}

	_, peak := pool.GetStats()
	if peak != 512 {
		t.Errorf("peak = %d, want 512: reuse must not grow the pool", peak)
	}
}

func TestPoolStats(t *testing.T) {
	pool := NewMemoryPool()

	a, _ := pool.Allocate(100)
	b, _ := pool.Allocate(200)

	allocated, peak := pool.GetStats()
	// Sizes round up to the 64-byte alignment.
	if allocated != 128+256 {
		t.Errorf("allocated = %d, want %d", allocated, 128+256)
	}
	if peak != 128+256 {
		t.Errorf("peak = %d, want %d", peak, 128+256)
	}

	pool.Free(a)
	pool.Free(b)

	allocated, peak = pool.GetStats()
	if allocated != 0 {
		t.Errorf("allocated after frees = %d, want 0", allocated)
	}
	if peak != 128+256 {
		t.Errorf("peak after frees = %d, want unchanged %d", peak, 128+256)
	}
}

func TestMemcpyRoundTrip(t *testing.T) {
	src := []uint32{1, 2, 3, 4, 5, 6, 7, 8}
	size := len(src) * 4

	d := MallocOrFail(t, size)
	defer Free(d)

	MemcpyOrFail(t, d, src, size, MemcpyHostToDevice)

	back := make([]uint32, len(src))
	if err := Memcpy(back, d, size, MemcpyDeviceToHost); err != nil {
		t.Fatalf("Memcpy device to host failed: %v", err)
	}

	for i := range src {
		if back[i] != src[i] {
			t.Errorf("back[%d] = %d, want %d", i, back[i], src[i])
		}
	}
}

func TestMemcpyDeviceToDevice(t *testing.T) {
	src := []float32{1.5, -2.5, 3.25}
	size := len(src) * 4

	a := MallocOrFail(t, size)
	defer Free(a)
	b := MallocOrFail(t, size)
	defer Free(b)

	MemcpyOrFail(t, a, src, size, MemcpyHostToDevice)
	MemcpyOrFail(t, b, a, size, MemcpyDeviceToDevice)

	view := b.Float32()
	for i := range src {
		if view[i] != src[i] {
			t.Errorf("b[%d] = %v, want %v", i, view[i], src[i])
		}
	}
}

func TestMemcpyUnsupportedType(t *testing.T) {
	d := MallocOrFail(t, 64)
	defer Free(d)

	if err := Memcpy(d, "not a slice", 8, MemcpyHostToDevice); !IsInvalidArgError(err) {
		t.Errorf("error = %v, want invalid argument for unsupported source type", err)
	}
	if err := Memcpy(42, d, 8, MemcpyDeviceToHost); !IsInvalidArgError(err) {
		t.Errorf("error = %v, want invalid argument for unsupported destination type", err)
	}
}

func TestDevicePtrViews(t *testing.T) {
	d := MallocOrFail(t, 64)
	defer Free(d)

	if got := len(d.Byte()); got != 64 {
		t.Errorf("len(Byte()) = %d, want 64", got)
	}
	if got := len(d.Uint32()); got != 16 {
		t.Errorf("len(Uint32()) = %d, want 16", got)
	}
	if got := len(d.Int32()); got != 16 {
		t.Errorf("len(Int32()) = %d, want 16", got)
	}
	if got := len(d.Float32()); got != 16 {
		t.Errorf("len(Float32()) = %d, want 16", got)
	}
	if got := len(d.Float64()); got != 8 {
		t.Errorf("len(Float64()) = %d, want 8", got)
	}
	if got := len(View[uint16](d)); got != 32 {
		t.Errorf("len(View[uint16]) = %d, want 32", got)
	}

	// Views alias the same memory.
	d.Uint32()[0] = 0x01020304
	if d.Byte()[0] == 0 && d.Byte()[3] == 0 {
		t.Error("Uint32 view write not visible through Byte view")
	}
}

func TestDevicePtrOffset(t *testing.T) {
	d := MallocOrFail(t, 64)
	defer Free(d)

	view := d.Uint32()
	for i := range view {
		view[i] = uint32(i)
	}

	off := d.Offset(16)
	if off.Size() != 48 {
		t.Errorf("offset Size() = %d, want 48", off.Size())
	}
	if got := off.Uint32()[0]; got != 4 {
		t.Errorf("offset view begins at %d, want element 4", got)
	}
}

func TestNilViews(t *testing.T) {
	var d DevicePtr
	if d.Byte() != nil || d.Float32() != nil || View[uint32](d) != nil {
		t.Error("views of a zero DevicePtr must be nil")
	}
}
