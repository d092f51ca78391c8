package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/depthfield/xcorr"
)

// Evicts the CPU caches between measurement sessions, so a following
// correlation run starts cold. With -probe it then times one small search
// on the cold cache for contrast with a warm second pass.
func main() {
	var (
		multiple = flag.Int("multiple", 8, "Buffer size as a multiple of the last-level cache")
		probe    = flag.Bool("probe", false, "Time a small correlation cold and warm after flushing")
	)
	flag.Parse()

	allocSize := *multiple * xcorr.L3CacheSize
	fmt.Printf("Flushing CPU caches with a %d MB sweep...\n", allocSize/(1024*1024))

	data := make([]byte, allocSize)

	// Touch every cache line so pages are physically backed, then a
	// second pass with a different pattern to force replacement.
	start := time.Now()
	for i := 0; i < len(data); i += xcorr.MemoryAlignment {
		data[i] = byte(i % 256)
	}
	for i := 0; i < len(data); i += xcorr.MemoryAlignment {
		data[i] = byte((i * 7) % 256)
	}
	fmt.Printf("Cache flush completed in %v\n", time.Since(start))

	runtime.GC()

	if !*probe {
		fmt.Println("Caches should now be mostly cold.")
		return
	}

	const size, window = 256, 9
	src1 := xcorr.GenerateScene[uint32](size, size, 42, 16)
	src2 := xcorr.ShiftScene(src1, size, size, 4)
	destRows, destCols := xcorr.DestDims(window, size, size)
	cfg := xcorr.DefaultLaunchConfig(destRows, destCols)

	cold := timeSearch(src1, src2, window, size, cfg)
	warm := timeSearch(src1, src2, window, size, cfg)
	fmt.Printf("Probe search %dx%d window %d: cold %.3f ms, warm %.3f ms\n", size, size, window, cold, warm)
}

func timeSearch(src1, src2 []uint32, window, size int, cfg xcorr.LaunchConfig) float64 {
	_, ms, err := xcorr.CorrelateTimed(src1, src2, window, size, size, cfg, xcorr.TimeTransfers)
	if err != nil {
		log.Fatalf("probe search failed: %v", err)
	}
	return ms
}
