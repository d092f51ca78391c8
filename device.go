// Device, context and stream management for the correlation engine.
//
// The engine keeps the shape of a GPU runtime on the CPU: memory is
// allocated on a "device", copies move data between host and device, and
// kernels launch over a grid of tiles on a stream. Ports from real GPU
// code keep their structure; the CPU pays no transfer cost, so the copy
// calls are cheap but preserved for fidelity and for timing parity.
//
// Example usage:
//
//	d_a, _ := xcorr.Malloc(n)
//	defer xcorr.Free(d_a)
//
//	xcorr.Memcpy(d_a, h_a, n, xcorr.MemcpyHostToDevice)
//
//	grid := xcorr.Dim2{X: (cols + 15) / 16, Y: (rows + 15) / 16}
//	tile := xcorr.Dim2{X: 16, Y: 16}
//	xcorr.Launch(myKernel, grid, tile)
//	xcorr.Synchronize()
package xcorr

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Device represents a compute device. Here this is the CPU with its
// cores and available memory. Each device has a unique ID and capabilities.
type Device struct {
	ID                int    // Unique device identifier
	Name              string // Human-readable device name
	TotalMem          uint64 // Total available memory in bytes
	NumCores          int    // Number of CPU cores
	MaxThreadsPerTile int    // Maximum threads in one tile
}

// Context represents an execution context for engine operations.
// It manages device resources, memory allocation, and stream execution.
type Context struct {
	device        *Device
	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	memory        *MemoryPool
	defaultStream *Stream
}

// Stream represents an ordered sequence of operations that execute
// asynchronously. Operations within a stream execute in order, but
// operations in different streams may execute concurrently.
type Stream struct {
	id    int
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup
}

// Dim2 represents 2-D dimensions for grid and tile configurations.
type Dim2 struct {
	X, Y int
}

// Size returns the total number of elements
func (d Dim2) Size() int {
	return d.X * d.Y
}

// ThreadID identifies a thread's position within the execution hierarchy.
// It provides the same indexing semantics as a GPU's built-in variables:
// block index, thread index, block dimensions and grid dimensions.
type ThreadID struct {
	Tile    Dim2 // Tile index within the grid
	Thread  Dim2 // Thread index within the tile
	TileDim Dim2 // Dimensions of the tile
	GridDim Dim2 // Dimensions of the grid
}

// GlobalX returns the global X index
func (tid ThreadID) GlobalX() int {
	return tid.Tile.X*tid.TileDim.X + tid.Thread.X
}

// GlobalY returns the global Y index
func (tid ThreadID) GlobalY() int {
	return tid.Tile.Y*tid.TileDim.Y + tid.Thread.Y
}

// Linear returns the thread's linear index within its tile, X fastest.
func (tid ThreadID) Linear() int {
	return tid.Thread.Y*tid.TileDim.X + tid.Thread.X
}

// Kernel represents a compute kernel executed once per thread.
// Implementations must be safe for concurrent calls: tiles run on
// multiple goroutines.
type Kernel interface {
	Execute(tid ThreadID)
}

// KernelFunc is a function that can be launched as a kernel.
type KernelFunc func(tid ThreadID)

// Execute implements Kernel.
func (fn KernelFunc) Execute(tid ThreadID) {
	fn(tid)
}

// TileKernel is a kernel with tile-wide phases. Execution is handed the
// whole tile at once so it can stage data into tile-local memory and
// barrier between phases. See TileGroup.
type TileKernel interface {
	ExecuteTile(g *TileGroup)
}

// TileKernelFunc is a function that can be launched as a tile kernel.
type TileKernelFunc func(g *TileGroup)

// ExecuteTile implements TileKernel.
func (fn TileKernelFunc) ExecuteTile(g *TileGroup) {
	fn(g)
}

// Global runtime state
var (
	defaultDevice  *Device
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultDevice = &Device{
			ID:                0,
			Name:              deviceName(),
			TotalMem:          getSystemMemory(),
			NumCores:          runtime.NumCPU(),
			MaxThreadsPerTile: MaxThreadsPerTile,
		}

		defaultContext = &Context{
			device:  defaultDevice,
			streams: make(map[int]*Stream),
			memory:  NewMemoryPool(),
		}

		defaultContext.defaultStream = defaultContext.CreateStream()
	})
}

// Malloc allocates device memory of the specified size in bytes.
// The returned DevicePtr can be used with all engine operations.
//
// Example:
//
//	d_data, err := xcorr.Malloc(1024 * 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer xcorr.Free(d_data)
func Malloc(size int) (DevicePtr, error) {
	return defaultContext.Malloc(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero-value DevicePtr.
func Free(ptr DevicePtr) error {
	return defaultContext.Free(ptr)
}

// Memcpy copies memory between host and device.
// Supports various Go slice types ([]byte, []uint32, []float32, etc.).
//
// Parameters:
//   - dst: Destination (DevicePtr or Go slice)
//   - src: Source (DevicePtr or Go slice)
//   - size: Number of bytes to copy
//   - kind: Transfer direction (MemcpyHostToDevice, MemcpyDeviceToHost, etc.)
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	return defaultContext.Memcpy(dst, src, size, kind)
}

// Launch executes a kernel over a grid of tiles on the default stream.
//
// Parameters:
//   - kernel: The kernel to execute
//   - grid: Grid dimensions (number of tiles)
//   - tile: Tile dimensions (threads per tile)
func Launch(kernel Kernel, grid, tile Dim2) error {
	return defaultContext.Launch(kernel, grid, tile)
}

// LaunchFunc executes a kernel function on the default stream
func LaunchFunc(fn KernelFunc, grid, tile Dim2) error {
	return defaultContext.LaunchFunc(fn, grid, tile)
}

// LaunchTiles executes a tile kernel on the default stream. Each tile
// receives a private scratch buffer of sharedBytes bytes.
func LaunchTiles(kernel TileKernel, grid, tile Dim2, sharedBytes int) error {
	return defaultContext.LaunchTiles(kernel, grid, tile, sharedBytes)
}

// Synchronize waits for all operations on all streams to complete.
func Synchronize() error {
	return defaultContext.Synchronize()
}

// GetDevice returns the current device information.
//
// Example:
//
//	device := xcorr.GetDevice()
//	fmt.Printf("Running on: %s with %d cores\n", device.Name, device.NumCores)
func GetDevice() *Device {
	return defaultDevice
}

// SetDevice sets the active device (no-op for CPU)
func SetDevice(id int) error {
	if id != 0 {
		return fault(ErrInvalidDevice)
	}
	return nil
}

// GetDeviceCount returns the number of available devices. Always 1: the CPU.
func GetDeviceCount() int {
	return 1
}

// GetDeviceProperties returns device properties
func GetDeviceProperties(id int) (*Device, error) {
	if id != 0 {
		return nil, fault(NewInvalidArgError("GetDeviceProperties", fmt.Sprintf("invalid device ID: %d", id)))
	}
	return defaultDevice, nil
}

// Context methods

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := &Stream{
		id:    id,
		tasks: make(chan func(), 1000),
		done:  make(chan struct{}),
	}

	go stream.worker()

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// Launch executes a kernel on the default stream
func (ctx *Context) Launch(kernel Kernel, grid, tile Dim2) error {
	return ctx.LaunchStream(kernel, grid, tile, ctx.defaultStream)
}

// LaunchFunc executes a kernel function on the default stream
func (ctx *Context) LaunchFunc(fn KernelFunc, grid, tile Dim2) error {
	return ctx.LaunchStream(fn, grid, tile, ctx.defaultStream)
}

// LaunchStream executes a kernel on a specific stream
func (ctx *Context) LaunchStream(kernel Kernel, grid, tile Dim2, stream *Stream) error {
	return ctx.launchInternal(kernel.Execute, grid, tile, stream)
}

// LaunchTiles executes a tile kernel on the default stream
func (ctx *Context) LaunchTiles(kernel TileKernel, grid, tile Dim2, sharedBytes int) error {
	return ctx.LaunchTilesStream(kernel, grid, tile, sharedBytes, ctx.defaultStream)
}

// LaunchTilesStream executes a tile kernel on a specific stream
func (ctx *Context) LaunchTilesStream(kernel TileKernel, grid, tile Dim2, sharedBytes int, stream *Stream) error {
	return ctx.launchTilesInternal(kernel.ExecuteTile, grid, tile, sharedBytes, stream)
}

// Synchronize waits for all streams to complete
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	for _, stream := range streams {
		stream.Synchronize()
	}
	return nil
}

// Destroy shuts down the context's streams. The context must not be used
// after Destroy returns.
func (ctx *Context) Destroy() {
	ctx.mu.Lock()
	streams := ctx.streams
	ctx.streams = make(map[int]*Stream)
	ctx.mu.Unlock()

	for _, s := range streams {
		s.Synchronize()
		close(s.tasks)
		<-s.done
	}
}

// Stream methods

// worker processes tasks for a stream
func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// Synchronize waits for all tasks in the stream to complete
func (s *Stream) Synchronize() {
	s.wg.Wait()
}

// Submit adds a task to the stream
func (s *Stream) Submit(task func()) {
	s.wg.Add(1)
	s.tasks <- task
}
