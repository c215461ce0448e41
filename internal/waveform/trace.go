// Package waveform holds single-channel traces, the streams that group them
// and the loaders that decode archive files into streams.
package waveform

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Trace is one channel's continuous run of samples. Sample i was recorded at
// Start + i/SamplingRate.
type Trace struct {
	ID           string // source file and channel, e.g. "EHZ.wav#0"
	Start        time.Time
	SamplingRate float64
	Data         []float32
}

// Len returns the number of samples.
func (t *Trace) Len() int {
	return len(t.Data)
}

// TimeOf returns the recording time of sample i.
func (t *Trace) TimeOf(i int) time.Time {
	return t.Start.Add(SecondsToDuration(float64(i) / t.SamplingRate))
}

// End returns the time of the last sample. An empty trace ends at Start.
func (t *Trace) End() time.Time {
	if len(t.Data) == 0 {
		return t.Start
	}
	return t.TimeOf(len(t.Data) - 1)
}

// IndexOf returns the sample index nearest to ts. The result may fall
// outside [0, Len()).
func (t *Trace) IndexOf(ts time.Time) int {
	return int(math.Round(ts.Sub(t.Start).Seconds() * t.SamplingRate))
}

// Slice returns samples [from, to) as a new trace that shares the sample
// buffer. Bounds are clamped to the trace.
func (t *Trace) Slice(from, to int) *Trace {
	from = min(max(from, 0), len(t.Data))
	to = min(max(to, from), len(t.Data))
	return &Trace{
		ID:           t.ID,
		Start:        t.TimeOf(from),
		SamplingRate: t.SamplingRate,
		Data:         t.Data[from:to:to],
	}
}

// SliceTime returns the samples recorded between from and to, both inclusive.
func (t *Trace) SliceTime(from, to time.Time) *Trace {
	return t.Slice(t.IndexOf(from), t.IndexOf(to)+1)
}

// Clone returns a deep copy.
func (t *Trace) Clone() *Trace {
	c := *t
	c.Data = slices.Clone(t.Data)
	return &c
}

func (t *Trace) String() string {
	return fmt.Sprintf("%s | %s - %s | %g Hz, %d samples",
		t.ID, t.Start.UTC().Format(time.RFC3339Nano), t.End().UTC().Format(time.RFC3339Nano), t.SamplingRate, len(t.Data))
}

// Stream is the ordered set of traces decoded from one archive component.
// Traces of one stream may be separated by gaps.
type Stream struct {
	Source string
	Traces []*Trace
}

// Clone returns a deep copy of the stream and its traces.
func (s *Stream) Clone() *Stream {
	c := &Stream{Source: s.Source, Traces: make([]*Trace, len(s.Traces))}
	for i, tr := range s.Traces {
		c.Traces[i] = tr.Clone()
	}
	return c
}

// CloneStreams deep copies a slice of streams.
func CloneStreams(streams []*Stream) []*Stream {
	out := make([]*Stream, len(streams))
	for i, s := range streams {
		out[i] = s.Clone()
	}
	return out
}

// SecondsToDuration converts fractional seconds to a Duration rounded to the
// nearest nanosecond.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
