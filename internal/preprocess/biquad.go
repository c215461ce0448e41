package preprocess

import (
	"fmt"
	"math"
)

// ButterworthQ gives a maximally flat second order section.
const ButterworthQ = math.Sqrt2 / 2

// Biquad is an RBJ cookbook second order IIR section run for a number of
// cascaded passes. Coefficients are normalised by a0.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	passes int
	in1    []float64
	in2    []float64
	out1   []float64
	out2   []float64
}

func newBiquad(a0, a1, a2, b0, b1, b2 float64, passes int) *Biquad {
	return &Biquad{
		b0:     b0 / a0,
		b1:     b1 / a0,
		b2:     b2 / a0,
		a1:     a1 / a0,
		a2:     a2 / a0,
		passes: passes,
		in1:    make([]float64, passes),
		in2:    make([]float64, passes),
		out1:   make([]float64, passes),
		out2:   make([]float64, passes),
	}
}

// NewHighPass returns a high-pass section with corner frequency in Hz.
func NewHighPass(sampleRate, frequency, q float64, passes int) (*Biquad, error) {
	if passes < 1 {
		return nil, fmt.Errorf("passes must be 1 or greater")
	}
	if frequency <= 0 || frequency >= sampleRate/2 {
		return nil, fmt.Errorf("corner frequency %g Hz outside (0, %g)", frequency, sampleRate/2)
	}

	w0 := 2.0 * math.Pi * frequency / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2.0 * q)

	return newBiquad(
		1.0+alpha,
		-2.0*cosW0,
		1.0-alpha,
		(1.0+cosW0)/2.0,
		-(1.0 + cosW0),
		(1.0+cosW0)/2.0,
		passes,
	), nil
}

// Reset clears the filter state so the next trace starts from rest.
func (f *Biquad) Reset() {
	clear(f.in1)
	clear(f.in2)
	clear(f.out1)
	clear(f.out2)
}

// Apply filters samples in place. State carries over between calls.
func (f *Biquad) Apply(samples []float32) {
	for p := range f.passes {
		for i, x := range samples {
			in := float64(x)
			out := f.b0*in + f.b1*f.in1[p] + f.b2*f.in2[p] - f.a1*f.out1[p] - f.a2*f.out2[p]

			f.in2[p] = f.in1[p]
			f.in1[p] = in
			f.out2[p] = f.out1[p]
			f.out1[p] = out

			samples[i] = float32(out)
		}
	}
}
