package classifier

import (
	"math"

	"github.com/tphakala/seismo-go/internal/scan"
)

// NormalizeWindows scales every channel of every window so its largest
// absolute sample is 1. Silent channels are left at zero. dst must hold
// len(w.Data) values and may alias w.Data.
func NormalizeWindows(dst []float32, w scan.Windows) {
	size := w.Features * w.Channels
	for win := range w.Count {
		src := w.Data[win*size : (win+1)*size]
		out := dst[win*size : (win+1)*size]
		for c := range w.Channels {
			var peak float64
			for f := range w.Features {
				peak = math.Max(peak, math.Abs(float64(src[f*w.Channels+c])))
			}
			scale := float32(0)
			if peak > 0 {
				scale = float32(1 / peak)
			}
			for f := range w.Features {
				i := f*w.Channels + c
				out[i] = src[i] * scale
			}
		}
	}
}
