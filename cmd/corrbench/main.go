// Copyright ©2026 The Depthfield Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command corrbench sweeps the correlation engine across problem sizes,
// launch geometries and window widths, and records each measurement
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/depthfield/xcorr"
	"github.com/depthfield/xcorr/bench"
	"github.com/depthfield/xcorr/gpu"
)

func main() {
	var (
		mode       = flag.String("mode", "sweep", "Harness mode: sweep (doubling size ladder) or formats (named catalog)")
		scopeFlag  = flag.String("scope", "full", "Timed scope: full (transfers included) or kernel")
		variant    = flag.String("variant", "both", "Kernel variant: direct, tiled or both")
		backend    = flag.String("backend", "cpu", "Execution backend: cpu or gpu")
		floor      = flag.Int("floor", 64, "Smallest square matrix size for sweep mode")
		ceil       = flag.Int("ceil", 1024, "Largest square matrix size for sweep mode")
		tileFloor  = flag.Int("tile-floor", 4, "Smallest square tile edge")
		windowCap  = flag.Int("window-cap", xcorr.DefaultWindow, "Largest window width (odd)")
		disparity  = flag.Int("disparity", 8, "Horizontal shift baked into synthetic scenes")
		seed       = flag.Uint64("seed", 42, "Scene generator seed")
		reportPath = flag.String("report", "corrbench.txt", "Report file, appended across sessions; empty for stdout only")
		dbPath     = flag.String("db", "", "SQLite measurement store; empty to skip persistence")
		counters   = flag.Bool("counters", false, "Collect hardware counters per measurement (Linux)")
	)
	flag.Parse()

	// A benchmark run cannot recover from a device fault; die loudly
	// with the failing operation named rather than skewing results.
	xcorr.SetFaultPolicy(xcorr.FaultTerminate)

	cfg := bench.DefaultConfig()
	cfg.SizeFloor = *floor
	cfg.SizeCeil = *ceil
	cfg.TileEdgeFloor = *tileFloor
	cfg.WindowCap = *windowCap
	cfg.Disparity = *disparity
	cfg.Seed = *seed
	cfg.Counters = *counters

	scope, err := xcorr.ParseTimeScope(*scopeFlag)
	if err != nil {
		log.Fatalf("bad -scope: %v", err)
	}
	cfg.Scope = scope

	switch *variant {
	case "both":
		cfg.Variants = []xcorr.Variant{xcorr.VariantDirect, xcorr.VariantTiled}
	default:
		v, err := xcorr.ParseVariant(*variant)
		if err != nil {
			log.Fatalf("bad -variant: %v", err)
		}
		cfg.Variants = []xcorr.Variant{v}
	}

	runner := &bench.Runner{}

	switch *backend {
	case "cpu":
		runner.Engine = bench.CPUEngine{}
	case "gpu":
		if !gpu.Available() {
			log.Fatalf("gpu backend requested but no adapter is available")
		}
		if *variant == "both" {
			// The device backend implements the direct search only.
			cfg.Variants = []xcorr.Variant{xcorr.VariantDirect}
		} else if cfg.Variants[0] != xcorr.VariantDirect {
			log.Fatalf("gpu backend implements the direct search only; use -variant direct")
		}
		fmt.Printf("adapter: %s\n", gpu.AdapterName())
		runner.Engine = gpuEngine{}
	default:
		log.Fatalf("bad -backend: %q (want cpu or gpu)", *backend)
	}

	if *reportPath != "" {
		report, err := bench.OpenReport(*reportPath)
		if err != nil {
			log.Fatalf("opening report: %v", err)
		}
		defer report.Close()
		runner.Report = report
	} else {
		runner.Report = bench.NewReport(os.Stdout)
	}

	if *dbPath != "" {
		store, err := bench.OpenStore(*dbPath)
		if err != nil {
			log.Fatalf("opening store: %v", err)
		}
		defer store.Close()
		runner.Store = store
	}

	switch *mode {
	case "sweep":
		err = runner.RunSweep(cfg)
	case "formats":
		err = runner.RunFormats(cfg)
	default:
		log.Fatalf("bad -mode: %q (want sweep or formats)", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}
}

// gpuEngine adapts the device backend to the harness. The backend picks
// its own dispatch geometry, so the tile shape only labels the
// measurement, and timing always covers the full upload-dispatch-readback
// sequence regardless of scope.
type gpuEngine struct{}

func (gpuEngine) Name() string { return "gpu" }

func (gpuEngine) CorrelateTimed(src1, src2 []uint32, window, rows, cols int, _ xcorr.LaunchConfig, _ xcorr.TimeScope) ([]uint32, float64, error) {
	start := time.Now()
	dest, err := gpu.Correlate(src1, src2, window, rows, cols)
	if err != nil {
		return nil, 0, err
	}
	return dest, float64(time.Since(start)) / float64(time.Millisecond), nil
}
