package main

import (
	"fmt"
	"log"

	"github.com/depthfield/xcorr"
)

// A hand-checkable scenario: two 3x10 binary matrices, each a single
// column of ones, searched with a 3-wide window. Every destination cell
// is derivable on paper, which makes this the quickest way to see what
// the engine computes.
func main() {
	const (
		rows   = 3
		cols   = 10
		window = 3
	)

	src1 := xcorr.OnesColumn[uint32](rows, cols, 6)
	src2 := xcorr.OnesColumn[uint32](rows, cols, 4)

	fmt.Println("Windowed Cross-Correlation: Worked Example")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Search image (ones at column 6):")
	printMatrix(src1, rows, cols)
	fmt.Println("Reference image (ones at column 4):")
	printMatrix(src2, rows, cols)

	destRows, destCols := xcorr.DestDims(window, rows, cols)
	fmt.Printf("Window %dx%d leaves a %dx%d destination; candidate centres span columns %d..%d.\n\n",
		window, window, destRows, destCols, window/2, cols-window/2-1)

	cfg := xcorr.DefaultLaunchConfig(destRows, destCols)

	direct, err := xcorr.Correlate(src1, src2, window, rows, cols, cfg)
	if err != nil {
		log.Fatalf("direct search failed: %v", err)
	}

	cfg.Variant = xcorr.VariantTiled
	tiled, err := xcorr.Correlate(src1, src2, window, rows, cols, cfg)
	if err != nil {
		log.Fatalf("tiled search failed: %v", err)
	}

	want := xcorr.ReferenceCorrelate(src1, src2, window, rows, cols)

	fmt.Println("Winning offsets per destination cell:")
	fmt.Printf("  direct:    %v\n", direct)
	fmt.Printf("  tiled:     %v\n", tiled)
	fmt.Printf("  reference: %v\n\n", want)

	for i := range want {
		if direct[i] != want[i] || tiled[i] != want[i] {
			log.Fatalf("variants disagree with the reference at cell %d", i)
		}
	}

	fmt.Println("Reading the result:")
	fmt.Println("  Cells 2..4 see the reference ones-column inside their window and")
	fmt.Println("  lock onto the offset that aligns it with the search image's column 6,")
	fmt.Println("  so they read 5, 6, 7. Everywhere else every candidate scores zero,")
	fmt.Printf("  the scan ties at every offset, and the last candidate (%d) wins.\n", cols-window/2-1)
}

func printMatrix(m []uint32, rows, cols int) {
	for r := 0; r < rows; r++ {
		fmt.Print("  ")
		for c := 0; c < cols; c++ {
			fmt.Printf("%d ", m[r*cols+c])
		}
		fmt.Println()
	}
	fmt.Println()
}
