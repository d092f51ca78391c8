package xcorr

import (
	"fmt"
	"testing"
)

// macsPerOp counts multiply-accumulates for one full search: every
// destination cell scores every candidate offset over a window² patch.
func macsPerOp(window, rows, cols int) float64 {
	destRows, destCols := DestDims(window, rows, cols)
	candidates := cols - (window - 1)
	return float64(destRows) * float64(destCols) * float64(candidates) * float64(window*window)
}

func benchmarkCorrelate(b *testing.B, variant Variant, window, size int) {
	src1 := GenerateScene[uint32](size, size, 42, 16)
	src2 := ShiftScene(src1, size, size, 4)

	destRows, destCols := DestDims(window, size, size)
	cfg := DefaultLaunchConfig(destRows, destCols)
	cfg.Variant = variant

	// Sources in, destination out.
	b.SetBytes(int64((2*size*size + destRows*destCols) * 4))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Correlate(src1, src2, window, size, size, cfg); err != nil {
			b.Fatalf("Correlate failed: %v", err)
		}
	}

	macs := macsPerOp(window, size, size)
	timePerOp := b.Elapsed().Seconds() / float64(b.N)
	b.ReportMetric(macs/timePerOp/1e9, "GMAC/s")
}

func BenchmarkCorrelateDirect(b *testing.B) {
	for _, size := range []int{32, 64, 128} {
		b.Run(fmt.Sprintf("Size_%d", size), func(b *testing.B) {
			benchmarkCorrelate(b, VariantDirect, DefaultWindow, size)
		})
	}
}

func BenchmarkCorrelateTiled(b *testing.B) {
	for _, size := range []int{32, 64, 128} {
		b.Run(fmt.Sprintf("Size_%d", size), func(b *testing.B) {
			benchmarkCorrelate(b, VariantTiled, DefaultWindow, size)
		})
	}
}

func BenchmarkCorrelateWindows(b *testing.B) {
	for _, window := range []int{3, 5, 9} {
		b.Run(fmt.Sprintf("W_%d", window), func(b *testing.B) {
			benchmarkCorrelate(b, VariantDirect, window, 64)
		})
	}
}

// BenchmarkCorrelateCacheTraffic contrasts the two variants' memory
// behavior. Hardware counter metrics appear only where the platform
// grants them.
func BenchmarkCorrelateCacheTraffic(b *testing.B) {
	const size, window = 128, 9

	for _, variant := range []Variant{VariantDirect, VariantTiled} {
		b.Run(variant.String(), func(b *testing.B) {
			src1 := GenerateScene[uint32](size, size, 42, 16)
			src2 := ShiftScene(src1, size, size, 4)

			destRows, destCols := DestDims(window, size, size)
			cfg := DefaultLaunchConfig(destRows, destCols)
			cfg.Variant = variant

			b.ResetTimer()
			pc, err := MeasureCounters(func() error {
				for i := 0; i < b.N; i++ {
					if _, err := Correlate(src1, src2, window, size, size, cfg); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				b.Fatalf("Correlate failed: %v", err)
			}

			if pc != nil {
				b.ReportMetric(pc.IPC(), "ipc")
				b.ReportMetric(float64(pc.LLCMisses)/float64(b.N), "llc-misses/op")
				b.ReportMetric(float64(pc.L1DMisses)/float64(b.N), "l1d-misses/op")
			}
		})
	}
}

func BenchmarkLaunchOverhead(b *testing.B) {
	kernel := KernelFunc(func(tid ThreadID) {})
	grid := Dim2{X: 1, Y: 1}
	tile := Dim2{X: 1, Y: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		LaunchFunc(kernel, grid, tile)
		Synchronize()
	}
}

func BenchmarkMemoryPool(b *testing.B) {
	const size = 1 << 20

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr, err := Malloc(size)
		if err != nil {
			b.Fatalf("Malloc failed: %v", err)
		}
		Free(ptr)
	}
}
