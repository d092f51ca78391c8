package bench

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/depthfield/xcorr"
)

// Report renders measurements as a section-delimited text report. Every
// write goes to all underlying writers at once, so a report opened with
// OpenReport both prints to stdout and accumulates in an append-only
// session file that survives across runs.
type Report struct {
	mu sync.Mutex
	w  io.Writer
	f  *os.File
}

// NewReport builds a report over an arbitrary writer.
func NewReport(w io.Writer) *Report {
	return &Report{w: w}
}

// OpenReport builds a report teeing stdout and the named file. The file
// is opened for appending and created if missing.
func OpenReport(path string) (*Report, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening report file: %w", err)
	}
	return &Report{w: io.MultiWriter(os.Stdout, f), f: f}, nil
}

// Close closes the session file, if any.
func (r *Report) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// Banner opens a report section for one harness run.
func (r *Report) Banner(title, backend string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := xcorr.GetDevice()
	fmt.Fprintf(r.w, "=== %s ===\n", title)
	fmt.Fprintf(r.w, "date:    %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(r.w, "backend: %s\n", backend)
	fmt.Fprintf(r.w, "device:  %s, %d cores\n", dev.Name, dev.NumCores)
	fmt.Fprintf(r.w, "%s\n\n", xcorr.GetCPUInfo())
}

// Record appends one measurement section.
func (r *Report) Record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "--- %s tile %dx%d window %d ---\n", rec.Label, rec.TileWidth, rec.TileHeight, rec.Window)
	fmt.Fprintf(r.w, "matrix:  %dx%d\n", rec.Rows, rec.Cols)
	fmt.Fprintf(r.w, "variant: %s\n", rec.Variant)
	fmt.Fprintf(r.w, "scope:   %s\n", rec.Scope)
	fmt.Fprintf(r.w, "elapsed: %.3f ms\n", rec.ElapsedMS)
	if rec.HW.Cycles > 0 {
		fmt.Fprintf(r.w, "counters: %d cycles, %.2f ipc, %d llc-misses\n", rec.HW.Cycles, rec.HW.IPC(), rec.HW.LLCMisses)
	}
	fmt.Fprintln(r.w)
}

// Footer closes a report section with a run summary.
func (r *Report) Footer(measurements int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 40))
	fmt.Fprintf(r.w, "measurements: %d in %v\n\n", measurements, elapsed.Round(time.Millisecond))
}
