package bench

import (
	"bytes"
	"strings"
	"testing"

	"github.com/depthfield/xcorr"
)

func testConfig() Config {
	return Config{
		SizeFloor:     8,
		SizeCeil:      16,
		TileEdgeFloor: 2,
		WindowCap:     3,
		Disparity:     1,
		Seed:          1,
		Variants:      []xcorr.Variant{xcorr.VariantDirect, xcorr.VariantTiled},
		Scope:         xcorr.TimeKernel,
	}
}

// TestRunSweepCoverage pins which launch geometries the ladder visits:
// size 8 gives a 6x6 destination, admitting tile edges 2 and 4; size 16
// gives 14x14, admitting 2, 4 and 8. Edges that overhang the destination
// must be skipped, not attempted.
func TestRunSweepCoverage(t *testing.T) {
	store := openTestStore(t)
	var buf bytes.Buffer

	runner := &Runner{Report: NewReport(&buf), Store: store}
	if err := runner.RunSweep(testConfig()); err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}

	// (2 edges at 8x8 + 3 edges at 16x16) x 2 variants.
	const want = 10
	if got := strings.Count(buf.String(), "--- "); got != want {
		t.Errorf("report holds %d measurements, want %d", got, want)
	}

	runID := lastRunID(t, store)
	recs, err := store.Records(runID)
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(recs) != want {
		t.Fatalf("store holds %d measurements, want %d", len(recs), want)
	}

	for _, rec := range recs {
		if rec.ElapsedMS < 0 {
			t.Errorf("%s tile %dx%d: elapsed %v ms, want non-negative", rec.Label, rec.TileWidth, rec.TileHeight, rec.ElapsedMS)
		}
		if rec.Label != "8x8" && rec.Label != "16x16" {
			t.Errorf("unexpected label %q", rec.Label)
		}
		destRows, destCols := xcorr.DestDims(rec.Window, rec.Rows, rec.Cols)
		if rec.TileWidth > destCols || rec.TileHeight > destRows {
			t.Errorf("%s: tile %dx%d overhangs destination %dx%d and should have been skipped",
				rec.Label, rec.TileWidth, rec.TileHeight, destRows, destCols)
		}
	}
}

func TestRunFormatsCustomCatalog(t *testing.T) {
	store := openTestStore(t)
	var buf bytes.Buffer

	cfg := testConfig()
	cfg.Formats = []Format{{Name: "Probe", Rows: 8, Cols: 10}}

	runner := &Runner{Report: NewReport(&buf), Store: store}
	if err := runner.RunFormats(cfg); err != nil {
		t.Fatalf("RunFormats failed: %v", err)
	}

	recs, err := store.Records(lastRunID(t, store))
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	// Destination 6x8 admits tile edges 2 and 4, times 2 variants.
	if len(recs) != 4 {
		t.Fatalf("store holds %d measurements, want 4", len(recs))
	}
	for _, rec := range recs {
		if rec.Label != "Probe" {
			t.Errorf("label = %q, want Probe", rec.Label)
		}
		if rec.Rows != 8 || rec.Cols != 10 {
			t.Errorf("geometry = %dx%d, want 8x10", rec.Rows, rec.Cols)
		}
	}
}

func TestRunnerWithoutSinks(t *testing.T) {
	runner := &Runner{}
	cfg := testConfig()
	cfg.SizeCeil = 8

	if err := runner.RunSweep(cfg); err != nil {
		t.Fatalf("sink-less sweep failed: %v", err)
	}
}

// TestRunSweepWithCounters checks counter collection degrades quietly:
// the sweep must succeed whether or not the platform grants hardware
// counters, and record readings only when it does.
func TestRunSweepWithCounters(t *testing.T) {
	store := openTestStore(t)

	cfg := testConfig()
	cfg.SizeCeil = 8
	cfg.Counters = true

	runner := &Runner{Store: store}
	if err := runner.RunSweep(cfg); err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}

	recs, err := store.Records(lastRunID(t, store))
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("sweep stored no measurements")
	}
	for _, rec := range recs {
		if xcorr.CountersSupported() && rec.HW.Cycles == 0 {
			t.Errorf("%s tile %dx%d: counters supported but no cycles recorded", rec.Label, rec.TileWidth, rec.TileHeight)
		}
		if !xcorr.CountersSupported() && rec.HW != (Counters{}) {
			t.Errorf("%s: counters recorded without platform support: %+v", rec.Label, rec.HW)
		}
	}
}

func TestDefaultCatalogShapes(t *testing.T) {
	for _, f := range DefaultCatalog() {
		if f.Name == "" || f.Rows < 1 || f.Cols < 1 {
			t.Errorf("malformed format %+v", f)
		}
		if f.Cols < f.Rows {
			t.Errorf("%s: %dx%d is portrait; catalog formats are landscape", f.Name, f.Rows, f.Cols)
		}
	}
}

func lastRunID(t *testing.T, s *Store) string {
	t.Helper()
	var id string
	if err := s.db.QueryRow(`SELECT id FROM runs ORDER BY rowid DESC LIMIT 1`).Scan(&id); err != nil {
		t.Fatalf("querying last run: %v", err)
	}
	return id
}
