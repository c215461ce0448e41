package scan

import (
	"fmt"
	"unsafe"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryPlan is the estimated working set of one full batch.
type MemoryPlan struct {
	Channels     int
	Windows      int
	WindowBytes  uint64 // classifier input tensor
	ScoreBytes   uint64 // score matrix and restored rows
	TotalBytes   uint64
	Available    uint64
	AvailableErr error
}

// Fits reports whether the batch uses at most half of the available
// memory. Unknown availability counts as fitting.
func (m MemoryPlan) Fits() bool {
	if m.AvailableErr != nil || m.Available == 0 {
		return true
	}
	return m.TotalBytes <= m.Available/2
}

func (m MemoryPlan) String() string {
	return fmt.Sprintf("%d windows x %d channels: %.1f MiB per batch, %.1f MiB available",
		m.Windows, m.Channels, mib(m.TotalBytes), mib(m.Available))
}

// availableMemory is replaced in tests.
var availableMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// PlanMemory estimates the memory a full batch of the given channel count
// needs during scoring and compares it with available system memory.
func PlanMemory(p Params, channels int) MemoryPlan {
	const (
		f32   = uint64(unsafe.Sizeof(float32(0)))
		slice = uint64(unsafe.Sizeof([]float32(nil)))
	)
	windows := uint64(p.WindowCount(p.BatchSize))
	samples := windows * uint64(p.WindowStep)
	classes := uint64(len(Labels))

	plan := MemoryPlan{
		Channels:    channels,
		Windows:     int(windows),
		WindowBytes: windows * uint64(p.Features) * uint64(channels) * f32,
		ScoreBytes: windows*(classes*f32+slice) + // score rows
			samples*slice + // restored rows share window rows
			samples*f32, // one class column at a time
	}
	plan.TotalBytes = plan.WindowBytes + plan.ScoreBytes + uint64(p.BatchSize)*uint64(channels)*f32
	plan.Available, plan.AvailableErr = availableMemory()
	return plan
}

func mib(b uint64) float64 {
	return float64(b) / (1 << 20)
}
