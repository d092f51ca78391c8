package xcorr

import "fmt"

// TimeScope selects what a timed correlation measures.
type TimeScope int

const (
	// TimeTransfers brackets the whole device sequence: copy-in,
	// kernel, copy-out.
	TimeTransfers TimeScope = iota
	// TimeKernel brackets the kernel launch only.
	TimeKernel
)

// String returns the scope name used in reports and CLI flags.
func (s TimeScope) String() string {
	switch s {
	case TimeTransfers:
		return "transfers"
	case TimeKernel:
		return "kernel"
	default:
		return fmt.Sprintf("TimeScope(%d)", int(s))
	}
}

// ParseTimeScope maps a flag value to a TimeScope.
func ParseTimeScope(s string) (TimeScope, error) {
	switch s {
	case "transfers", "full":
		return TimeTransfers, nil
	case "kernel":
		return TimeKernel, nil
	}
	return 0, NewInvalidArgError("ParseTimeScope", fmt.Sprintf("unknown scope %q", s))
}

// DestDims returns the destination extents for a source of rows×cols
// searched with a kernelSize-wide window: the window must fit the source
// in both axes, so each axis loses kernelSize-1 cells.
func DestDims(kernelSize, rows, cols int) (destRows, destCols int) {
	return rows - (kernelSize - 1), cols - (kernelSize - 1)
}

// Correlate runs the disparity search: for every destination cell it
// finds the horizontal offset in src1 whose window best matches the
// reference window in src2, and stores that offset.
//
// src1 and src2 are rows×cols row-major matrices; the returned map is
// (rows-(kernelSize-1))×(cols-(kernelSize-1)) row-major, holding winning
// offsets converted to T. kernelSize must be odd and no wider than either
// source extent; oddness is not checked here and even widths give
// unspecified (but memory-safe) results.
//
// Device buffers are allocated, filled, read back and released inside the
// call; nothing is returned on error.
func Correlate[T Sample](src1, src2 []T, kernelSize, rows, cols int, cfg LaunchConfig) ([]T, error) {
	dest, _, err := correlate(src1, src2, kernelSize, rows, cols, cfg, nil)
	return dest, err
}

// CorrelateTimed is Correlate with the device work timed by a pair of
// stream events. Scope selects whether the measured interval covers the
// full transfer-launch-readback sequence or the kernel alone. Elapsed
// time is reported in milliseconds.
func CorrelateTimed[T Sample](src1, src2 []T, kernelSize, rows, cols int, cfg LaunchConfig, scope TimeScope) ([]T, float64, error) {
	return correlate(src1, src2, kernelSize, rows, cols, cfg, &scope)
}

func correlate[T Sample](src1, src2 []T, kernelSize, rows, cols int, cfg LaunchConfig, scope *TimeScope) ([]T, float64, error) {
	const op = "Correlate"

	if rows < 1 || cols < 1 {
		return nil, 0, fault(NewInvalidArgError(op, fmt.Sprintf("source extents %dx%d: must be positive", rows, cols)))
	}
	if len(src1) < rows*cols || len(src2) < rows*cols {
		return nil, 0, fault(NewInvalidArgError(op, fmt.Sprintf("source slices hold %d and %d samples, extents %dx%d need %d",
			len(src1), len(src2), rows, cols, rows*cols)))
	}

	destRows, destCols := DestDims(kernelSize, rows, cols)
	if err := cfg.Validate(GetDevice(), destRows, destCols); err != nil {
		return nil, 0, fault(err)
	}

	elem := sizeOf[T]()
	srcBytes := rows * cols * elem
	destBytes := destRows * destCols * elem

	d1, err := Malloc(srcBytes)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: allocating first source: %w", op, err)
	}
	defer Free(d1)

	d2, err := Malloc(srcBytes)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: allocating second source: %w", op, err)
	}
	defer Free(d2)

	dDest, err := Malloc(destBytes)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: allocating destination: %w", op, err)
	}
	defer Free(dDest)

	var start, end *Event
	if scope != nil {
		start, end = NewEvent(), NewEvent()
	}

	if scope != nil && *scope == TimeTransfers {
		// Copies run on the host, not the stream, so wait for the
		// start timestamp before the first copy.
		start.Record(nil)
		start.Synchronize()
	}

	if err := Memcpy(d1, hostBytes(src1[:rows*cols]), srcBytes, MemcpyHostToDevice); err != nil {
		return nil, 0, fmt.Errorf("%s: copying first source: %w", op, err)
	}
	if err := Memcpy(d2, hostBytes(src2[:rows*cols]), srcBytes, MemcpyHostToDevice); err != nil {
		return nil, 0, fmt.Errorf("%s: copying second source: %w", op, err)
	}

	if scope != nil && *scope == TimeKernel {
		start.Record(nil)
	}

	switch cfg.Variant {
	case VariantTiled:
		kern := tiledKernel(View[T](d1), View[T](d2), View[T](dDest), kernelSize, rows, cols)
		shared := tiledSharedBytes[T](kernelSize, cols, cfg.TileHeight)
		err = LaunchTiles(kern, cfg.Grid(destRows, destCols), cfg.Tile(), shared)
	default:
		kern := directKernel(View[T](d1), View[T](d2), View[T](dDest), kernelSize, rows, cols)
		err = LaunchFunc(kern, cfg.Grid(destRows, destCols), cfg.Tile())
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: launching %s kernel: %w", op, cfg.Variant, err)
	}

	if scope != nil && *scope == TimeKernel {
		end.Record(nil)
	}

	if err := Synchronize(); err != nil {
		return nil, 0, fmt.Errorf("%s: synchronizing: %w", op, err)
	}

	dest := make([]T, destRows*destCols)
	if err := Memcpy(hostBytes(dest), dDest, destBytes, MemcpyDeviceToHost); err != nil {
		return nil, 0, fmt.Errorf("%s: copying destination: %w", op, err)
	}

	var ms float64
	if scope != nil {
		if *scope == TimeTransfers {
			end.Record(nil)
		}
		ms = ElapsedTime(start, end)
	}

	return dest, ms, nil
}
