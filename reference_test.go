package xcorr

import "testing"

// The reference implementation anchors every kernel test, so it gets its
// own worked-example checks rather than being trusted blindly.

func TestReferenceOnesColumn(t *testing.T) {
	src1 := OnesColumn[uint32](3, 10, 6)
	src2 := OnesColumn[uint32](3, 10, 6)

	got := ReferenceCorrelate(src1, src2, 3, 3, 10)
	want := []uint32{8, 8, 8, 8, 5, 6, 7, 8}

	checkDisparity(t, got, want, 8)
}

func TestReferenceTieGoesRight(t *testing.T) {
	// Two identical candidate matches: columns 2 and 6 of the searched
	// matrix both carry the reference pattern, so both score equally
	// and the later candidate must win.
	const rows, cols, window = 3, 9, 3

	src1 := make([]uint32, rows*cols)
	src2 := make([]uint32, rows*cols)
	for r := 0; r < rows; r++ {
		src1[r*cols+2] = 1
		src1[r*cols+6] = 1
		src2[r*cols+4] = 1
	}

	got := ReferenceCorrelate(src1, src2, window, rows, cols)
	destCols := cols - (window - 1)
	if len(got) != destCols {
		t.Fatalf("len = %d, want %d", len(got), destCols)
	}

	// Reference centre 4 is dest column 3: candidates 2 and 6 both
	// score 3 there, and candidate 6 is scanned later.
	if got[3] != 6 {
		t.Errorf("tied cell = %d, want 6 (the later candidate)", got[3])
	}
}

func TestReferenceEmptyDestination(t *testing.T) {
	src := make([]uint32, 4*4)
	if got := ReferenceCorrelate(src, src, 5, 4, 4); got != nil {
		t.Errorf("window wider than source: got %v, want nil", got)
	}
}
