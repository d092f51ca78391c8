// Copyright ©2026 The Depthfield Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command compare checks one harness run against a baseline run from the
// same measurement store and exits non-zero on regressions
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/depthfield/xcorr/bench"
)

type ComparisonResult struct {
	Key    string
	Status string // "PASS", "FAIL", "SLOWER", "FASTER"

	BaselineMS float64
	CurrentMS  float64
	Speedup    float64 // baseline / current; above 1 is an improvement

	// LLC miss delta, present when both runs collected counters
	BaselineLLC uint64
	CurrentLLC  uint64

	Message string
}

func main() {
	var (
		dbPath      = flag.String("db", "corrbench.db", "Measurement store to read")
		baseRun     = flag.String("base", "", "Baseline run id; default second-newest")
		currentRun  = flag.String("current", "", "Current run id; default newest")
		perfRegress = flag.Float64("perf-regress", 1.1, "Regression threshold (1.1 = 10% slower fails)")
		list        = flag.Bool("list", false, "List stored runs and exit")
	)
	flag.Parse()

	store, err := bench.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		log.Fatalf("listing runs: %v", err)
	}

	if *list {
		printRuns(runs)
		return
	}

	base, current := pickRuns(runs, *baseRun, *currentRun)

	baseRecs, err := store.Records(base)
	if err != nil {
		log.Fatalf("loading baseline run: %v", err)
	}
	currRecs, err := store.Records(current)
	if err != nil {
		log.Fatalf("loading current run: %v", err)
	}
	if len(baseRecs) == 0 {
		log.Fatalf("baseline run %s holds no measurements", base)
	}

	comparisons := compareRuns(baseRecs, currRecs, *perfRegress)
	printSummary(base, current, comparisons)

	for _, comp := range comparisons {
		if comp.Status == "FAIL" || comp.Status == "SLOWER" {
			os.Exit(1)
		}
	}
}

// pickRuns resolves the run ids to compare, defaulting to the two most
// recent entries in the store.
func pickRuns(runs []bench.RunInfo, base, current string) (string, string) {
	if base != "" && current != "" {
		return base, current
	}
	if len(runs) < 2 {
		log.Fatalf("store holds %d runs; need two to compare (or pass -base and -current)", len(runs))
	}
	if current == "" {
		current = runs[0].ID
	}
	if base == "" {
		if current == runs[0].ID {
			base = runs[1].ID
		} else {
			base = runs[0].ID
		}
	}
	return base, current
}

// recordKey identifies a measurement across runs: same scene, same launch
// geometry, same timing scope.
func recordKey(rec bench.Record) string {
	return fmt.Sprintf("%s tile %dx%d window %d %s/%s",
		rec.Label, rec.TileWidth, rec.TileHeight, rec.Window, rec.Variant, rec.Scope)
}

func compareRuns(baseline, current []bench.Record, perfRegress float64) []ComparisonResult {
	currentMap := make(map[string]bench.Record)
	for _, rec := range current {
		currentMap[recordKey(rec)] = rec
	}

	comparisons := make([]ComparisonResult, 0, len(baseline))

	for _, base := range baseline {
		comp := ComparisonResult{
			Key:         recordKey(base),
			BaselineMS:  base.ElapsedMS,
			BaselineLLC: base.HW.LLCMisses,
		}

		curr, exists := currentMap[comp.Key]
		if !exists {
			comp.Status = "FAIL"
			comp.Message = "measurement missing in current run"
			comparisons = append(comparisons, comp)
			continue
		}

		comp.CurrentMS = curr.ElapsedMS
		comp.CurrentLLC = curr.HW.LLCMisses
		if curr.ElapsedMS > 0 {
			comp.Speedup = base.ElapsedMS / curr.ElapsedMS
		}

		if comp.Speedup > 0 && comp.Speedup < 1.0/perfRegress {
			comp.Status = "SLOWER"
			comp.Message = fmt.Sprintf("regression: %.2fx slower", 1.0/comp.Speedup)
		} else if comp.Speedup > 1.2 {
			comp.Status = "FASTER"
			comp.Message = fmt.Sprintf("improvement: %.2fx faster", comp.Speedup)
		} else {
			comp.Status = "PASS"
		}

		comparisons = append(comparisons, comp)
	}

	return comparisons
}

func printRuns(runs []bench.RunInfo) {
	fmt.Printf("%-36s %-8s %-8s %-20s %s\n", "Run", "Mode", "Backend", "Created", "Device")
	fmt.Println(strings.Repeat("-", 100))
	for _, ri := range runs {
		fmt.Printf("%-36s %-8s %-8s %-20s %s\n",
			ri.ID, ri.Category, ri.Backend, ri.CreatedAt.Format("2006-01-02 15:04:05"), ri.Device)
	}
}

func printSummary(base, current string, comparisons []ComparisonResult) {
	fmt.Println("=== Run Comparison ===")
	fmt.Printf("baseline: %s\n", base)
	fmt.Printf("current:  %s\n", current)
	fmt.Println()

	statusCount := make(map[string]int)
	for _, comp := range comparisons {
		statusCount[comp.Status]++
	}

	fmt.Printf("Total measurements: %d\n", len(comparisons))
	fmt.Printf("  PASS:   %d\n", statusCount["PASS"])
	fmt.Printf("  FAIL:   %d\n", statusCount["FAIL"])
	fmt.Printf("  SLOWER: %d\n", statusCount["SLOWER"])
	fmt.Printf("  FASTER: %d\n", statusCount["FASTER"])
	fmt.Println()

	if statusCount["FAIL"] > 0 {
		fmt.Println("FAILURES:")
		for _, comp := range comparisons {
			if comp.Status == "FAIL" {
				fmt.Printf("  %s: %s\n", comp.Key, comp.Message)
			}
		}
		fmt.Println()
	}

	if statusCount["SLOWER"] > 0 || statusCount["FASTER"] > 0 {
		fmt.Println("PERFORMANCE CHANGES:")
		for _, comp := range comparisons {
			if comp.Status != "SLOWER" && comp.Status != "FASTER" {
				continue
			}
			fmt.Printf("  %s: %s (%.3fms -> %.3fms)\n", comp.Key, comp.Message, comp.BaselineMS, comp.CurrentMS)
			if comp.BaselineLLC > 0 && comp.CurrentLLC > 0 {
				fmt.Printf("    llc-misses: %d -> %d\n", comp.BaselineLLC, comp.CurrentLLC)
			}
		}
		fmt.Println()
	}

	fmt.Println("DETAILED RESULTS:")
	fmt.Printf("%-48s %-6s %12s %12s %8s\n", "Measurement", "Status", "Baseline ms", "Current ms", "Speedup")
	fmt.Println(strings.Repeat("-", 92))
	for _, comp := range comparisons {
		fmt.Printf("%-48s %-6s %12.3f %12.3f %8.2f\n",
			comp.Key, comp.Status, comp.BaselineMS, comp.CurrentMS, comp.Speedup)
	}
}
