package scan

import (
	"time"

	"github.com/tphakala/seismo-go/internal/waveform"
)

// Detection is a timestamped peak with its provenance.
type Detection struct {
	Label     Label
	Time      time.Time // centre of the classification window
	Score     float32
	Amplitude float32 // peak absolute original amplitude, 0 unless originals are kept

	Archive int
	Group   int
	Batch   int
	Offset  int      // sample offset inside the batch
	Traces  []string // trace IDs in channel order
}

// Timestamp maps a sample offset inside a batch starting at batchStart to
// the time of the centre of its window. Offsets are converted with the
// configured frequency, not the trace rate.
func (p Params) Timestamp(batchStart time.Time, offset int) time.Time {
	seconds := float64(offset)/p.Frequency + float64(p.Features)*0.5/p.Frequency
	return batchStart.Add(waveform.SecondsToDuration(seconds))
}
