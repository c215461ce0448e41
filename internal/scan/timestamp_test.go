package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestamp_CentresWindow(t *testing.T) {
	t.Parallel()

	p := mustParams(t, 0.95, 0.95)
	for _, k := range []int{0, 1, 300, 305, 309, 49_999, 499_999} {
		want := t0.Add(time.Duration(k)*10*time.Millisecond + 2*time.Second)
		got := p.Timestamp(t0, k)
		assert.True(t, want.Equal(got), "offset %d: want %s got %s", k, want, got)
	}
}

func TestTimestamp_UsesConfiguredFrequency(t *testing.T) {
	t.Parallel()

	p := mustParams(t, 0.95, 0.95)
	// a 50 Hz group still maps offsets at 100 Hz
	g := &AlignedGroup{Start: t0, SamplingRate: 50}
	b := Batch{Index: 1, Start: 1000, End: 2000}

	batchStart := g.BatchStart(b)
	assert.True(t, t0.Add(20*time.Second).Equal(batchStart), "batch start follows the trace rate")
	assert.True(t, t0.Add(20*time.Second+1*time.Second+2*time.Second).Equal(p.Timestamp(batchStart, 100)))
}
