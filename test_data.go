package xcorr

// GenerateSamples generates deterministic test data using a linear
// congruential generator (LCG). This ensures reproducible tests and
// benchmarks across runs. Values lie in [0, ceil).
//
// Example:
//
//	data := GenerateSamples[uint32](1024, 12345, 16)
func GenerateSamples[T Sample](size int, seed uint64, ceil int) []T {
	data := make([]T, size)
	rng := seed
	for i := range data {
		rng = rng*1103515245 + 12345 // LCG parameters from Numerical Recipes
		data[i] = T((rng >> 16) % uint64(ceil))
	}
	return data
}

// GenerateScene generates a deterministic rows×cols matrix in row-major
// order with values in [0, ceil).
func GenerateScene[T Sample](rows, cols int, seed uint64, ceil int) []T {
	return GenerateSamples[T](rows*cols, seed, ceil)
}

// ShiftScene returns a copy of a rows×cols matrix with every row moved
// right by disparity columns, the vacated left edge back-filled with the
// row's first sample. Correlating the original against the shifted copy
// gives a destination dominated by that disparity, which makes benchmark
// work representative and results spot-checkable.
func ShiftScene[T Sample](src []T, rows, cols, disparity int) []T {
	dst := make([]T, rows*cols)
	for r := 0; r < rows; r++ {
		row := src[r*cols : (r+1)*cols]
		out := dst[r*cols : (r+1)*cols]
		for c := 0; c < cols; c++ {
			if c < disparity {
				out[c] = row[0]
			} else {
				out[c] = row[c-disparity]
			}
		}
	}
	return dst
}

// OnesColumn builds a rows×cols matrix that is zero everywhere except a
// single column of ones. A pair of such matrices has a disparity map that
// is easy to derive by hand, so worked-example tests use them.
func OnesColumn[T Sample](rows, cols, col int) []T {
	data := make([]T, rows*cols)
	for r := 0; r < rows; r++ {
		data[r*cols+col] = 1
	}
	return data
}
