//go:build !linux

package xcorr

// getSystemMemory returns total system memory in bytes. Platforms without
// sysinfo report a fixed working assumption.
func getSystemMemory() uint64 {
	return defaultSystemMemory
}
