package xcorr

import (
	"fmt"
	"testing"
)

// stressScene is a challenging source image configuration.
type stressScene struct {
	Name        string
	Description string
	Generator   func(rows, cols int) []uint32
}

// Scene parameters chosen to provoke specific failure modes.
const (
	// Spike placement stride, prime so spikes drift across tile edges
	impulseStride = 37

	// Spike brightness
	impulseValue = 900

	// Base sample for window sums that straddle the uint32 ceiling:
	// a 9x9 window of squares of values near 7280 wraps 1<<32
	accumulatorBase = 7000
	accumulatorSpan = 301
)

// Collection of source images that stress the search in different ways.
var stressScenes = []stressScene{
	{
		Name:        "Constant",
		Description: "Every sample equal, so every candidate ties and ordering decides",
		Generator: func(rows, cols int) []uint32 {
			data := make([]uint32, rows*cols)
			for i := range data {
				data[i] = 7
			}
			return data
		},
	},
	{
		Name:        "Impulses",
		Description: "Sparse bright spikes on a zero field, most windows score zero",
		Generator: func(rows, cols int) []uint32 {
			data := make([]uint32, rows*cols)
			for i := 0; i < len(data); i += impulseStride {
				data[i] = impulseValue
			}
			return data
		},
	},
	{
		Name:        "HighFrequency",
		Description: "Rapid horizontal oscillation, adjacent candidates score far apart",
		Generator: func(rows, cols int) []uint32 {
			data := make([]uint32, rows*cols)
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					data[r*cols+c] = uint32((r+c)%2) * uint32(1+(r*31+c*17)%13)
				}
			}
			return data
		},
	},
	{
		Name:        "AccumulatorEdge",
		Description: "Window sums straddle the uint32 ceiling, wraparound must agree",
		Generator: func(rows, cols int) []uint32 {
			data := GenerateScene[uint32](rows, cols, 0xace, accumulatorSpan)
			for i := range data {
				data[i] += accumulatorBase
			}
			return data
		},
	},
	{
		Name:        "RowGradient",
		Description: "Monotone ramp per row, neighbouring candidates nearly tie",
		Generator: func(rows, cols int) []uint32 {
			data := make([]uint32, rows*cols)
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					data[r*cols+c] = uint32(r%16 + c)
				}
			}
			return data
		},
	},
}

// TestStressScenes runs both kernel variants on challenging sources and
// demands bit-exact agreement with the reference search.
func TestStressScenes(t *testing.T) {
	shapes := []struct{ rows, cols, window int }{
		{48, 64, 5},
		{96, 96, 9},
	}

	for _, shape := range shapes {
		for _, scene := range stressScenes {
			testName := fmt.Sprintf("%s_%dx%d_w%d", scene.Name, shape.rows, shape.cols, shape.window)
			t.Run(testName, func(t *testing.T) {
				src1 := scene.Generator(shape.rows, shape.cols)
				src2 := ShiftScene(src1, shape.rows, shape.cols, 5)

				want := ReferenceCorrelate(src1, src2, shape.window, shape.rows, shape.cols)

				destRows, destCols := DestDims(shape.window, shape.rows, shape.cols)
				for _, variant := range []Variant{VariantDirect, VariantTiled} {
					cfg := DefaultLaunchConfig(destRows, destCols)
					cfg.Variant = variant

					got := CorrelateOrFail(t, src1, src2, shape.window, shape.rows, shape.cols, cfg)
					for i := range want {
						if got[i] != want[i] {
							t.Fatalf("%s: cell (%d,%d) = %d, want %d (%s)",
								variant, i/destCols, i%destCols, got[i], want[i], scene.Description)
						}
					}
				}
			})
		}
	}
}
