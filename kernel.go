package xcorr

// The correlation search, shared by both kernel variants.
//
// Each destination cell (row, col) owns a reference window in src2 centred
// on column col+shift, top edge at row. The kernel slides an equally sized
// window across src1 along the row axis, scoring each candidate centre
// offset by the windowed dot product of the two patches, and stores the
// offset of the best score. Candidates scan left to right and a tie goes
// to the later candidate: a score equal to the best so far replaces it.

// searchRow scores every candidate offset for one destination cell and
// returns the winning offset. a and b hold the staged source rows, aRow
// and bRow the index of the window's top row within them, stride their
// row stride, centre the reference window's centre column.
func searchRow[T Sample](a, b []T, aRow, bRow, stride, centre, kernelSize, cols int) int {
	shift := kernelSize / 2

	var bestScore T
	bestOffset := shift
	for i := shift; i < cols-shift; i++ {
		var score T
		for j := 0; j < kernelSize; j++ {
			aOff := (aRow+j)*stride + i - shift
			bOff := (bRow+j)*stride + centre - shift
			for m := 0; m < kernelSize; m++ {
				score += a[aOff+m] * b[bOff+m]
			}
		}
		// The first candidate seeds the best; after that an equal
		// score replaces it, so ties resolve to the rightmost offset.
		if i == shift || score >= bestScore {
			bestScore = score
			bestOffset = i
		}
	}
	return bestOffset
}

// directKernel builds the in-place kernel: every thread reads its source
// windows straight from device memory. src1 and src2 are rows×cols
// row-major; dest is (rows-(kernelSize-1))×(cols-(kernelSize-1)).
func directKernel[T Sample](src1, src2, dest []T, kernelSize, rows, cols int) KernelFunc {
	shift := kernelSize / 2
	destRows := rows - (kernelSize - 1)
	destCols := cols - (kernelSize - 1)

	return func(tid ThreadID) {
		col := tid.GlobalX()
		row := tid.GlobalY()
		if row >= destRows || col >= destCols {
			return
		}

		offset := searchRow(src1, src2, row, row, cols, col+shift, kernelSize, cols)
		dest[row*destCols+col] = T(offset)
	}
}
