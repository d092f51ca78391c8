package xcorr

import (
	"runtime"
	"sync"
	"unsafe"
)

// launchInternal implements the core kernel execution logic
func (ctx *Context) launchInternal(
	kernelFunc func(ThreadID),
	grid, tile Dim2,
	stream *Stream,
) error {
	gridSize := grid.Size()
	tileSize := tile.Size()

	// Handle edge case where grid size is zero
	if gridSize == 0 {
		// Submit an empty task to maintain stream ordering
		stream.Submit(func() {})
		return nil
	}

	// Determine parallelism strategy
	numWorkers := runtime.NumCPU()
	if gridSize < numWorkers {
		numWorkers = gridSize
	}

	// Cache-aware scheduling: each worker processes multiple tiles
	// to maximize cache reuse
	tilesPerWorker := (gridSize + numWorkers - 1) / numWorkers

	stream.Submit(func() {
		var wg sync.WaitGroup
		wg.Add(numWorkers)

		for workerID := 0; workerID < numWorkers; workerID++ {
			startTile := workerID * tilesPerWorker
			endTile := startTile + tilesPerWorker
			if endTile > gridSize {
				endTile = gridSize
			}

			go func() {
				defer wg.Done()

				for tileID := startTile; tileID < endTile; tileID++ {
					tileIdx := linearTo2D(tileID, grid)

					// Threads within a tile execute sequentially on
					// one goroutine. This maximizes cache reuse and
					// needs no intra-tile synchronization.
					for threadID := 0; threadID < tileSize; threadID++ {
						tid := ThreadID{
							Tile:    tileIdx,
							Thread:  linearTo2D(threadID, tile),
							TileDim: tile,
							GridDim: grid,
						}

						kernelFunc(tid)
					}
				}
			}()
		}

		wg.Wait()
	})

	return nil
}

// launchTilesInternal executes a tile kernel: the kernel sees one whole
// tile at a time through a TileGroup, staging into the group's scratch
// buffer and phasing where GPU code would barrier.
func (ctx *Context) launchTilesInternal(
	kernelFunc func(*TileGroup),
	grid, tile Dim2,
	sharedBytes int,
	stream *Stream,
) error {
	if sharedBytes < 0 {
		return fault(NewInvalidArgError("LaunchTiles", "negative shared buffer size"))
	}

	gridSize := grid.Size()

	if gridSize == 0 {
		stream.Submit(func() {})
		return nil
	}

	numWorkers := runtime.NumCPU()
	if gridSize < numWorkers {
		numWorkers = gridSize
	}

	tilesPerWorker := (gridSize + numWorkers - 1) / numWorkers

	stream.Submit(func() {
		var wg sync.WaitGroup
		wg.Add(numWorkers)

		for workerID := 0; workerID < numWorkers; workerID++ {
			startTile := workerID * tilesPerWorker
			endTile := startTile + tilesPerWorker
			if endTile > gridSize {
				endTile = gridSize
			}

			go func() {
				defer wg.Done()

				// One scratch buffer per worker, reused across its
				// tiles. Contents are undefined when a tile starts;
				// kernels must stage before reading.
				var scratch []byte
				if sharedBytes > 0 {
					scratch = make([]byte, sharedBytes)
				}

				for tileID := startTile; tileID < endTile; tileID++ {
					group := TileGroup{
						Tile:    linearTo2D(tileID, grid),
						TileDim: tile,
						GridDim: grid,
						shared:  scratch,
					}

					kernelFunc(&group)
				}
			}()
		}

		wg.Wait()
	})

	return nil
}

// linearTo2D converts a linear index to 2-D coordinates, X fastest.
func linearTo2D(linear int, dim Dim2) Dim2 {
	return Dim2{X: linear % dim.X, Y: linear / dim.X}
}

// TileGroup is one tile's view of a tile-kernel launch: its position in
// the grid, its dimensions, and a tile-local scratch buffer playing the
// role of GPU shared memory.
//
// Because all threads of a tile run sequentially on one goroutine, a
// barrier is expressed by ending one Phase and starting the next: every
// write made during a Phase is visible to every thread of the following
// Phase.
type TileGroup struct {
	Tile    Dim2 // Tile index within the grid
	TileDim Dim2 // Dimensions of the tile
	GridDim Dim2 // Dimensions of the grid

	shared []byte
}

// Phase runs fn once for every thread in the tile, in linear thread
// order, and returns when all have run. Consecutive Phase calls have
// barrier semantics between them.
func (g *TileGroup) Phase(fn func(tid ThreadID)) {
	for y := 0; y < g.TileDim.Y; y++ {
		for x := 0; x < g.TileDim.X; x++ {
			fn(ThreadID{
				Tile:    g.Tile,
				Thread:  Dim2{X: x, Y: y},
				TileDim: g.TileDim,
				GridDim: g.GridDim,
			})
		}
	}
}

// Shared returns the tile-local scratch buffer.
func (g *TileGroup) Shared() []byte {
	return g.shared
}

// SharedView returns a typed view of a byte range of the tile-local
// scratch buffer.
func SharedView[T Sample](g *TileGroup, off, bytes int) []T {
	buf := g.shared[off : off+bytes]
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), bytes/sizeOf[T]())
}
