// Package bench sweeps the correlation engine across matrix sizes, tile
// shapes and window widths, reporting each measurement as it lands and
// optionally persisting it for later comparison.
package bench

import (
	"fmt"
	"time"

	"github.com/depthfield/xcorr"
)

// Record is one measurement: a matrix geometry, a launch geometry, and
// the elapsed milliseconds the engine reported for it.
type Record struct {
	Label      string // size ("512x512") or format name ("VGA")
	Rows       int
	Cols       int
	TileWidth  int
	TileHeight int
	Window     int
	Variant    xcorr.Variant
	Scope      xcorr.TimeScope
	ElapsedMS  float64
	HW         Counters
}

// Counters carries the hardware counter readings attached to one
// measurement. All zero when collection was off or unavailable.
type Counters struct {
	Cycles       uint64
	Instructions uint64
	LLCMisses    uint64
}

// IPC returns retired instructions per cycle.
func (c Counters) IPC() float64 {
	if c.Cycles == 0 {
		return 0
	}
	return float64(c.Instructions) / float64(c.Cycles)
}

// Engine abstracts who runs a timed search, so the harness can drive the
// CPU engine and the GPU backend through the same sweeps.
type Engine interface {
	Name() string
	CorrelateTimed(src1, src2 []uint32, window, rows, cols int, cfg xcorr.LaunchConfig, scope xcorr.TimeScope) ([]uint32, float64, error)
}

// CPUEngine drives the in-process engine.
type CPUEngine struct{}

// Name implements Engine.
func (CPUEngine) Name() string { return "cpu" }

// CorrelateTimed implements Engine.
func (CPUEngine) CorrelateTimed(src1, src2 []uint32, window, rows, cols int, cfg xcorr.LaunchConfig, scope xcorr.TimeScope) ([]uint32, float64, error) {
	return xcorr.CorrelateTimed(src1, src2, window, rows, cols, cfg, scope)
}

// Config bounds a sweep.
type Config struct {
	SizeFloor     int // smallest square size of the synthetic ladder
	SizeCeil      int // largest, reached by doubling
	TileEdgeFloor int // smallest square tile edge, doubled up to the device limit
	WindowCap     int // largest window width; widths go 3, 5, ... cap
	Disparity     int // horizontal shift baked into synthetic scenes
	Seed          uint64
	Variants      []xcorr.Variant
	Scope         xcorr.TimeScope
	Formats       []Format // formats harness catalog; nil means DefaultCatalog
	Counters      bool     // collect hardware counters per measurement (Linux)
}

// DefaultConfig returns the standard sweep bounds.
func DefaultConfig() Config {
	return Config{
		SizeFloor:     64,
		SizeCeil:      1024,
		TileEdgeFloor: 4,
		WindowCap:     xcorr.DefaultWindow,
		Disparity:     8,
		Seed:          42,
		Variants:      []xcorr.Variant{xcorr.VariantDirect, xcorr.VariantTiled},
		Scope:         xcorr.TimeTransfers,
	}
}

// Runner executes sweeps against an engine, reporting and storing each
// measurement as it completes. Report and Store may each be nil.
type Runner struct {
	Engine Engine
	Report *Report
	Store  *Store
}

func (r *Runner) engine() Engine {
	if r.Engine == nil {
		return CPUEngine{}
	}
	return r.Engine
}

// RunSweep walks the synthetic size ladder: square matrices doubling from
// SizeFloor to SizeCeil, each swept over tile shapes and window widths.
func (r *Runner) RunSweep(cfg Config) error {
	eng := r.engine()
	start := time.Now()
	count := 0

	runID, err := r.beginRun("sweep", eng)
	if err != nil {
		return err
	}
	if r.Report != nil {
		r.Report.Banner("correlation sweep", eng.Name())
	}

	for size := cfg.SizeFloor; size <= cfg.SizeCeil; size *= 2 {
		label := fmt.Sprintf("%dx%d", size, size)
		n, err := r.measure(runID, label, size, size, cfg, eng)
		if err != nil {
			return err
		}
		count += n
	}

	if r.Report != nil {
		r.Report.Footer(count, time.Since(start))
	}
	return nil
}

// RunFormats walks the named format catalog instead of the size ladder.
func (r *Runner) RunFormats(cfg Config) error {
	eng := r.engine()
	start := time.Now()
	count := 0

	formats := cfg.Formats
	if formats == nil {
		formats = DefaultCatalog()
	}

	runID, err := r.beginRun("formats", eng)
	if err != nil {
		return err
	}
	if r.Report != nil {
		r.Report.Banner("correlation formats", eng.Name())
	}

	for _, f := range formats {
		n, err := r.measure(runID, f.Name, f.Rows, f.Cols, cfg, eng)
		if err != nil {
			return err
		}
		count += n
	}

	if r.Report != nil {
		r.Report.Footer(count, time.Since(start))
	}
	return nil
}

func (r *Runner) beginRun(category string, eng Engine) (string, error) {
	if r.Store == nil {
		return "", nil
	}
	return r.Store.BeginRun(category, eng.Name())
}

// measure sweeps one matrix geometry over windows, tile edges and
// variants, skipping launch geometries the engine would reject.
func (r *Runner) measure(runID, label string, rows, cols int, cfg Config, eng Engine) (int, error) {
	src1 := xcorr.GenerateScene[uint32](rows, cols, cfg.Seed, 16)
	src2 := xcorr.ShiftScene(src1, rows, cols, cfg.Disparity)
	dev := xcorr.GetDevice()

	variants := cfg.Variants
	if len(variants) == 0 {
		variants = []xcorr.Variant{xcorr.VariantDirect}
	}

	count := 0
	for window := 3; window <= cfg.WindowCap; window += 2 {
		destRows, destCols := xcorr.DestDims(window, rows, cols)

		for edge := cfg.TileEdgeFloor; edge*edge <= dev.MaxThreadsPerTile; edge *= 2 {
			for _, variant := range variants {
				lcfg := xcorr.LaunchConfig{TileWidth: edge, TileHeight: edge, Variant: variant}
				if lcfg.Validate(dev, destRows, destCols) != nil {
					continue
				}

				var ms float64
				run := func() error {
					var err error
					_, ms, err = eng.CorrelateTimed(src1, src2, window, rows, cols, lcfg, cfg.Scope)
					return err
				}

				var err error
				var hw Counters
				if cfg.Counters {
					var pc *xcorr.PerfCounters
					pc, err = xcorr.MeasureCounters(run)
					if pc != nil {
						hw = Counters{Cycles: pc.Cycles, Instructions: pc.Instructions, LLCMisses: pc.LLCMisses}
					}
				} else {
					err = run()
				}
				if err != nil {
					return count, fmt.Errorf("measuring %s window %d tile %dx%d: %w", label, window, edge, edge, err)
				}

				rec := Record{
					Label:      label,
					Rows:       rows,
					Cols:       cols,
					TileWidth:  edge,
					TileHeight: edge,
					Window:     window,
					Variant:    variant,
					Scope:      cfg.Scope,
					ElapsedMS:  ms,
					HW:         hw,
				}
				if r.Report != nil {
					r.Report.Record(rec)
				}
				if r.Store != nil {
					if err := r.Store.Append(runID, rec); err != nil {
						return count, err
					}
				}
				count++
			}
		}
	}
	return count, nil
}
