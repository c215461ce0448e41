package waveform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func rampTrace(n int) *Trace {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return &Trace{ID: "ramp#0", Start: t0, SamplingRate: 100, Data: data}
}

func TestTrace_TimeAndIndex(t *testing.T) {
	t.Parallel()

	tr := rampTrace(1000)
	assert.Equal(t, t0.Add(70*time.Millisecond), tr.TimeOf(7))
	assert.Equal(t, t0.Add(9990*time.Millisecond), tr.End())
	assert.Equal(t, 250, tr.IndexOf(t0.Add(2500*time.Millisecond)))
	assert.Equal(t, 250, tr.IndexOf(t0.Add(2503*time.Millisecond)), "rounds to nearest sample")
	assert.Equal(t, -10, tr.IndexOf(t0.Add(-100*time.Millisecond)))

	empty := &Trace{Start: t0, SamplingRate: 100}
	assert.Equal(t, t0, empty.End())
}

func TestTrace_Slice(t *testing.T) {
	t.Parallel()

	tr := rampTrace(100)

	s := tr.Slice(10, 20)
	require.Equal(t, 10, s.Len())
	assert.InDelta(t, 10, s.Data[0], 0)
	assert.Equal(t, t0.Add(100*time.Millisecond), s.Start)

	clamped := tr.Slice(-5, 500)
	assert.Equal(t, 100, clamped.Len())

	inverted := tr.Slice(50, 40)
	assert.Equal(t, 0, inverted.Len())

	// Appending to a slice must not overwrite the parent buffer.
	s.Data = append(s.Data, -1)
	assert.InDelta(t, 20, tr.Data[20], 0)
}

func TestTrace_SliceTime(t *testing.T) {
	t.Parallel()

	tr := rampTrace(1000)
	s := tr.SliceTime(t0.Add(time.Second), t0.Add(2*time.Second))
	assert.Equal(t, 101, s.Len(), "both ends inclusive")
	assert.InDelta(t, 100, s.Data[0], 0)
	assert.Equal(t, t0.Add(time.Second), s.Start)
}

func TestStream_CloneIsDeep(t *testing.T) {
	t.Parallel()

	s := &Stream{Source: "a.wav", Traces: []*Trace{rampTrace(10)}}
	c := s.Clone()
	c.Traces[0].Data[0] = 42

	assert.InDelta(t, 0, s.Traces[0].Data[0], 0)
	assert.Equal(t, s.Source, c.Source)
}

func TestSecondsToDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 290*time.Millisecond, SecondsToDuration(0.29))
	assert.Equal(t, 2*time.Second, SecondsToDuration(200.0/100.0))
	assert.Equal(t, 3070*time.Millisecond, SecondsToDuration(307.0/100.0))
}
