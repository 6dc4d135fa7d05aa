// Package system inspects the host to size worker pools.
package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// MaxWorkers caps the rule engine fan-out; the work per segment is tiny.
const MaxWorkers = 16

// DefaultWorkers returns the number of logical CPUs, capped at MaxWorkers.
// Falls back to runtime.NumCPU when the host cannot be inspected.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	return ClampWorkers(n)
}

// ClampWorkers limits n to [1, MaxWorkers]
func ClampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
