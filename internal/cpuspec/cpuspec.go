// Package cpuspec picks interpreter thread counts from the host CPU.
package cpuspec

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName     string
	PhysicalCores int
	LogicalCores  int
	Available     int // CPUs usable by this process, lower inside containers
}

// GetCPUSpec returns the specification of the host CPU.
func GetCPUSpec() CPUSpec {
	return CPUSpec{
		BrandName:     cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		Available:     runtime.NumCPU(),
	}
}

// GetOptimalThreadCount returns the recommended number of classifier threads.
// Convolution and attention kernels gain little from SMT siblings, so
// physical cores are preferred.
func (c CPUSpec) GetOptimalThreadCount() int {
	threads := c.PhysicalCores
	if threads <= 0 {
		threads = c.LogicalCores
	}
	if c.Available > 0 && (threads <= 0 || threads > c.Available) {
		threads = c.Available
	}
	return max(1, threads)
}

// ThreadCount resolves a configured thread count, 0 meaning automatic.
func ThreadCount(configured int) int {
	optimal := GetCPUSpec().GetOptimalThreadCount()
	if configured <= 0 || configured > runtime.NumCPU() {
		return optimal
	}
	return configured
}
