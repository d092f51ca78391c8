// Package xcorr configuration constants
package xcorr

// Thread and tile dimensions
const (
	// Maximum threads per tile (CUDA compatibility)
	MaxThreadsPerTile = 1024

	// Default tile edge for square launches
	DefaultTileEdge = 16

	// Default correlation window width
	DefaultWindow = 9
)

// Memory pool parameters
const (
	// Minimum allocation size to prevent fragmentation
	MinAllocationSize = 64

	// Memory alignment for allocations
	MemoryAlignment = 64

	// Free list size threshold for reuse
	FreeListThreshold = 100

	// Fallback total memory when the platform cannot report it
	defaultSystemMemory = 16 * 1024 * 1024 * 1024 // 16GB
)

// Cache sizes for different levels (in bytes)
const (
	// L1 cache size per core (typical for modern CPUs)
	L1CacheSize = 32 * 1024 // 32KB

	// L2 cache size per core (typical for modern CPUs)
	L2CacheSize = 256 * 1024 // 256KB

	// L3 cache size shared across cores (typical for modern CPUs)
	L3CacheSize = 8 * 1024 * 1024 // 8MB
)
