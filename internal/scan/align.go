package scan

import (
	"fmt"
	"time"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/waveform"
)

// AlignedGroup is the i-th trace of every stream of an archive, cut to a
// common start time and sample count. Traces are ordered like the streams
// and form the channels of each batch.
type AlignedGroup struct {
	Index        int
	Start        time.Time
	SamplingRate float64
	Traces       []*waveform.Trace
}

// Len returns the common sample count.
func (g *AlignedGroup) Len() int {
	if len(g.Traces) == 0 {
		return 0
	}
	return g.Traces[0].Len()
}

// Channels returns the number of traces in the group.
func (g *AlignedGroup) Channels() int {
	return len(g.Traces)
}

// IDs returns the trace identifiers in channel order.
func (g *AlignedGroup) IDs() []string {
	ids := make([]string, len(g.Traces))
	for i, tr := range g.Traces {
		ids[i] = tr.ID
	}
	return ids
}

// BatchStart returns the time of the first sample of b.
func (g *AlignedGroup) BatchStart(b Batch) time.Time {
	return g.Start.Add(waveform.SecondsToDuration(float64(b.Start) / g.SamplingRate))
}

// Align trims the streams of one archive so that every group of same-index
// traces shares its start time and sample count. The returned traces are
// views on the input buffers; inputs are not modified.
//
// Streams with unequal trace counts cannot be grouped and yield
// ErrTraceCountMismatch. An empty common extent gives a zero-length group.
func Align(streams []*waveform.Stream) ([]*AlignedGroup, error) {
	if len(streams) == 0 {
		return nil, nil
	}

	nTraces := len(streams[0].Traces)
	for _, s := range streams[1:] {
		if len(s.Traces) != nTraces {
			return nil, errors.New(fmt.Errorf("%w: %v", ErrTraceCountMismatch, traceCounts(streams))).
				Component("scan").
				Category(errors.CategoryAlignment).
				Context("streams", len(streams)).
				Build()
		}
	}

	groups := make([]*AlignedGroup, nTraces)
	for i := range nTraces {
		traces := make([]*waveform.Trace, len(streams))
		for s, st := range streams {
			traces[s] = st.Traces[i]
		}
		g, err := alignTraces(i, traces)
		if err != nil {
			return nil, err
		}
		groups[i] = g
	}
	return groups, nil
}

func alignTraces(index int, traces []*waveform.Trace) (*AlignedGroup, error) {
	rate := traces[0].SamplingRate
	start, end := traces[0].Start, traces[0].End()
	for _, tr := range traces[1:] {
		if tr.SamplingRate != rate {
			return nil, errors.New(fmt.Errorf("%w: group %d has %s at %g Hz and %s at %g Hz",
				ErrSamplingRateMismatch, index, traces[0].ID, rate, tr.ID, tr.SamplingRate)).
				Component("scan").
				Category(errors.CategoryAlignment).
				Build()
		}
		if tr.Start.After(start) {
			start = tr.Start
		}
		if tr.End().Before(end) {
			end = tr.End()
		}
	}

	cut := make([]*waveform.Trace, len(traces))
	n := -1
	for i, tr := range traces {
		if end.Before(start) || tr.Len() == 0 {
			cut[i] = tr.Slice(0, 0)
			n = 0
			continue
		}
		cut[i] = tr.Slice(tr.IndexOf(start), tr.Len())
		if n < 0 || cut[i].Len() < n {
			n = cut[i].Len()
		}
	}
	for i, tr := range cut {
		cut[i] = tr.Slice(0, n)
	}

	return &AlignedGroup{
		Index:        index,
		Start:        cut[0].Start,
		SamplingRate: rate,
		Traces:       cut,
	}, nil
}

func traceCounts(streams []*waveform.Stream) []int {
	counts := make([]int, len(streams))
	for i, s := range streams {
		counts[i] = len(s.Traces)
	}
	return counts
}
