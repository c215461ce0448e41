// Package preprocess conditions raw traces before scanning: linear detrend
// followed by a high-pass filter. Both steps keep the sample count.
package preprocess

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/waveform"
)

// Options selects the preprocessing steps.
type Options struct {
	Detrend    bool
	Filter     bool
	HighpassHz float64
	Passes     int
}

// OptionsFromSettings converts configuration.
func OptionsFromSettings(s conf.PreprocessSettings) Options {
	return Options{
		Detrend:    s.Detrend,
		Filter:     s.Filter,
		HighpassHz: s.HighpassHz,
		Passes:     s.Passes,
	}
}

// Enabled reports whether any step runs.
func (o Options) Enabled() bool {
	return o.Detrend || o.Filter
}

// Apply preprocesses every trace of every stream in place.
func Apply(streams []*waveform.Stream, opts Options) error {
	for _, s := range streams {
		for _, tr := range s.Traces {
			if err := Trace(tr, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Trace preprocesses a single trace in place.
func Trace(tr *waveform.Trace, opts Options) error {
	if tr.Len() == 0 {
		return nil
	}
	if opts.Detrend {
		Detrend(tr.Data)
	}
	if opts.Filter {
		hp, err := NewHighPass(tr.SamplingRate, opts.HighpassHz, ButterworthQ, opts.Passes)
		if err != nil {
			return errors.New(fmt.Errorf("trace %s: %w", tr.ID, err)).
				Component("preprocess").
				Category(errors.CategoryPreprocess).
				Context("sampling_rate", tr.SamplingRate).
				Build()
		}
		hp.Apply(tr.Data)
	}
	return nil
}

// Detrend subtracts the least squares line through the samples. A single
// sample is demeaned to zero.
func Detrend(samples []float32) {
	n := len(samples)
	switch n {
	case 0:
		return
	case 1:
		samples[0] = 0
		return
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i, v := range samples {
		x[i] = float64(i)
		y[i] = float64(v)
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	for i := range samples {
		samples[i] = float32(y[i] - (alpha + beta*x[i]))
	}
}
