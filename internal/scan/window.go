package scan

import (
	"github.com/tphakala/seismo-go/internal/waveform"
)

// Windows is the classifier input tensor of shape (Count, Features,
// Channels) stored row-major in Data.
type Windows struct {
	Count    int
	Features int
	Channels int
	Data     []float32
}

// At returns sample f of channel c in window win.
func (w Windows) At(win, f, c int) float32 {
	return w.Data[(win*w.Features+f)*w.Channels+c]
}

// Window returns the flattened (Features, Channels) block of window i.
func (w Windows) Window(i int) []float32 {
	size := w.Features * w.Channels
	return w.Data[i*size : (i+1)*size]
}

// WindowCount returns floor((n-features)/step)+1, or 0 when n < features.
func WindowCount(n, features, step int) int {
	if n < features || features <= 0 || step <= 0 {
		return 0
	}
	return (n-features)/step + 1
}

// BuildWindows slides a features-long window with the given step over the
// batch range of every trace. Windows start at offset 0 of the batch.
func BuildWindows(traces []*waveform.Trace, b Batch, features, step int) Windows {
	count := WindowCount(b.Len(), features, step)
	w := Windows{Count: count, Features: features, Channels: len(traces)}
	if count == 0 {
		return w
	}

	w.Data = make([]float32, count*features*len(traces))
	for c, tr := range traces {
		samples := tr.Data[b.Start:b.End]
		for win := range count {
			base := win * step
			row := win * features * w.Channels
			for f := range features {
				w.Data[row+f*w.Channels+c] = samples[base+f]
			}
		}
	}
	return w
}
