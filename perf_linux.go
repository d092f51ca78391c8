//go:build linux

// Package xcorr Linux hardware counter collection via perf_event_open
package xcorr

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// cacheConfig packs a cache level, operation and result into the config
// word of a PERF_TYPE_HW_CACHE event.
func cacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

// perfEventSpec names one hardware event and the counter field it fills.
type perfEventSpec struct {
	typ    uint32
	config uint64
	slot   func(*PerfCounters) *uint64
}

var perfEventSpecs = []perfEventSpec{
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES,
		func(pc *PerfCounters) *uint64 { return &pc.Cycles }},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS,
		func(pc *PerfCounters) *uint64 { return &pc.Instructions }},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES,
		func(pc *PerfCounters) *uint64 { return &pc.BranchMisses }},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES,
		func(pc *PerfCounters) *uint64 { return &pc.CacheMisses }},
	{unix.PERF_TYPE_HW_CACHE,
		cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(pc *PerfCounters) *uint64 { return &pc.L1DMisses }},
	{unix.PERF_TYPE_HW_CACHE,
		cacheConfig(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(pc *PerfCounters) *uint64 { return &pc.LLCMisses }},
}

// counterSession holds one open descriptor per hardware event. Events the
// kernel or hypervisor refuses are dropped; the session is usable while at
// least one event remains open.
type counterSession struct {
	fds   []int
	slots []func(*PerfCounters) *uint64
}

func openCounterSession() (*counterSession, error) {
	s := &counterSession{}
	var lastErr error

	for _, spec := range perfEventSpecs {
		attr := unix.PerfEventAttr{
			Type:   spec.typ,
			Config: spec.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitInherit | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		attr.Size = uint32(unsafe.Sizeof(attr))

		// Monitor this process on any CPU.
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			lastErr = err
			continue
		}
		s.fds = append(s.fds, fd)
		s.slots = append(s.slots, spec.slot)
	}

	if len(s.fds) == 0 {
		return nil, NewDeviceError("OpenCounters", "opening hardware counter events", lastErr)
	}
	return s, nil
}

func (s *counterSession) start() {
	for _, fd := range s.fds {
		unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0)
		unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0)
	}
}

func (s *counterSession) stop() *PerfCounters {
	pc := &PerfCounters{}
	var buf [8]byte

	for i, fd := range s.fds {
		unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
		if n, err := unix.Read(fd, buf[:]); err == nil && n == 8 {
			*s.slots[i](pc) = *(*uint64)(unsafe.Pointer(&buf[0]))
		}
	}
	return pc
}

func (s *counterSession) close() {
	for _, fd := range s.fds {
		unix.Close(fd)
	}
	s.fds = nil
	s.slots = nil
}

func countersSupported() bool {
	s, err := openCounterSession()
	if err != nil {
		return false
	}
	s.close()
	return true
}

func measureCounters(fn func() error) (*PerfCounters, error) {
	s, err := openCounterSession()
	if err != nil {
		if err := fn(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	defer s.close()

	s.start()
	err = fn()
	pc := s.stop()
	if err != nil {
		return nil, err
	}
	return pc, nil
}
