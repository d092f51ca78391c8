// Package xcorr hardware performance counter collection
package xcorr

import (
	"fmt"
	"strings"
)

// PerfCounters holds hardware counter readings taken around one measured
// operation. Events the platform could not collect read as zero.
type PerfCounters struct {
	Cycles       uint64
	Instructions uint64
	BranchMisses uint64
	CacheMisses  uint64
	L1DMisses    uint64
	LLCMisses    uint64
}

// IPC returns retired instructions per cycle.
func (pc *PerfCounters) IPC() float64 {
	if pc.Cycles == 0 {
		return 0
	}
	return float64(pc.Instructions) / float64(pc.Cycles)
}

// LLCMissShare returns the fraction of all cache misses that reached the
// last-level cache.
func (pc *PerfCounters) LLCMissShare() float64 {
	if pc.CacheMisses == 0 {
		return 0
	}
	return float64(pc.LLCMisses) / float64(pc.CacheMisses)
}

// String formats the counters for display, omitting events that were not
// collected.
func (pc *PerfCounters) String() string {
	var sb strings.Builder

	sb.WriteString("Hardware Counters:\n")
	if pc.Cycles > 0 {
		sb.WriteString(fmt.Sprintf("  CPU Cycles:       %d\n", pc.Cycles))
		sb.WriteString(fmt.Sprintf("  Instructions:     %d\n", pc.Instructions))
		sb.WriteString(fmt.Sprintf("  IPC:              %.2f\n", pc.IPC()))
	}
	if pc.BranchMisses > 0 {
		sb.WriteString(fmt.Sprintf("  Branch Misses:    %d\n", pc.BranchMisses))
	}
	if pc.L1DMisses > 0 {
		sb.WriteString(fmt.Sprintf("  L1D Read Misses:  %d\n", pc.L1DMisses))
	}
	if pc.LLCMisses > 0 {
		sb.WriteString(fmt.Sprintf("  LLC Read Misses:  %d\n", pc.LLCMisses))
		sb.WriteString(fmt.Sprintf("  LLC Miss Share:   %.1f%%\n", pc.LLCMissShare()*100))
	}

	return sb.String()
}

// CountersSupported reports whether this process can open hardware
// counters. Collection needs Linux and a permissive
// kernel.perf_event_paranoid setting.
func CountersSupported() bool {
	return countersSupported()
}

// MeasureCounters runs fn and returns the hardware counters it consumed.
// fn always runs; when counters cannot be collected the returned counters
// are nil and the error reflects only fn itself.
//
// Counts cover the calling thread plus threads the kernel clones while
// the session is open, so readings for parallel launches are indicative
// rather than exact.
func MeasureCounters(fn func() error) (*PerfCounters, error) {
	return measureCounters(fn)
}
