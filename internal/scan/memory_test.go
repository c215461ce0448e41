package scan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: replaces availableMemory.
func TestPlanMemory(t *testing.T) {
	orig := availableMemory
	t.Cleanup(func() { availableMemory = orig })

	p := mustParams(t, 0.95, 0.95)
	p.BatchSize = 500_000

	availableMemory = func() (uint64, error) { return 16 << 30, nil }
	plan := PlanMemory(p, 3)
	assert.Equal(t, 49_961, plan.Windows)
	assert.Equal(t, uint64(49_961*400*3*4), plan.WindowBytes)
	assert.Greater(t, plan.TotalBytes, plan.WindowBytes)
	assert.True(t, plan.Fits())
	assert.Contains(t, plan.String(), "49961 windows x 3 channels")

	availableMemory = func() (uint64, error) { return 64 << 20, nil }
	assert.False(t, PlanMemory(p, 3).Fits())

	availableMemory = func() (uint64, error) { return 0, fmt.Errorf("no meminfo") }
	assert.True(t, PlanMemory(p, 3).Fits(), "unknown availability does not block")
}
