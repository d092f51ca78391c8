// Package xcorr reference implementations for verification
package xcorr

// ReferenceCorrelate is the simple, correct implementation of the
// disparity search, used for testing and verification of the kernel
// variants. It runs single-threaded on the host with no device
// machinery: four nested loops, scanning candidates left to right with
// equal scores resolving to the later candidate.
func ReferenceCorrelate[T Sample](src1, src2 []T, kernelSize, rows, cols int) []T {
	shift := kernelSize / 2
	destRows, destCols := DestDims(kernelSize, rows, cols)
	if destRows < 1 || destCols < 1 {
		return nil
	}

	dest := make([]T, destRows*destCols)
	for row := 0; row < destRows; row++ {
		for col := 0; col < destCols; col++ {
			centre := col + shift

			var bestScore T
			bestOffset := shift
			for i := shift; i < cols-shift; i++ {
				var score T
				for j := 0; j < kernelSize; j++ {
					for m := 0; m < kernelSize; m++ {
						score += src1[(row+j)*cols+i-shift+m] * src2[(row+j)*cols+centre-shift+m]
					}
				}
				if i == shift || score >= bestScore {
					bestScore = score
					bestOffset = i
				}
			}

			dest[row*destCols+col] = T(bestOffset)
		}
	}
	return dest
}
