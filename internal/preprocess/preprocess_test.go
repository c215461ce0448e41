package preprocess

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/waveform"
)

func sine(n int, rate, freq, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

func rms(samples []float32) float64 {
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestDetrend_RemovesLine(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 500)
	for i := range samples {
		samples[i] = float32(3.5 + 0.02*float64(i))
	}
	Detrend(samples)
	for i, v := range samples {
		require.InDelta(t, 0, v, 1e-3, "sample %d", i)
	}
}

func TestDetrend_KeepsSignalAroundTrend(t *testing.T) {
	t.Parallel()

	signal := sine(1000, 100, 5, 1)
	samples := make([]float32, len(signal))
	for i := range samples {
		samples[i] = signal[i] + float32(10+0.01*float64(i))
	}
	Detrend(samples)
	assert.InDelta(t, rms(signal), rms(samples), 0.01)
}

func TestDetrend_EdgeCases(t *testing.T) {
	t.Parallel()

	Detrend(nil)
	one := []float32{7}
	Detrend(one)
	assert.InDelta(t, 0, one[0], 0)
}

func TestHighPass_Response(t *testing.T) {
	t.Parallel()

	const rate = 100.0
	tests := []struct {
		name     string
		freq     float64
		minRatio float64
		maxRatio float64
	}{
		{"passband 10 Hz", 10, 0.95, 1.05},
		{"stopband 0.2 Hz", 0.2, 0, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hp, err := NewHighPass(rate, 2, ButterworthQ, 2)
			require.NoError(t, err)

			in := sine(6000, rate, tt.freq, 1)
			out := append([]float32(nil), in...)
			hp.Apply(out)

			// skip the transient
			ratio := rms(out[3000:]) / rms(in[3000:])
			assert.GreaterOrEqual(t, ratio, tt.minRatio)
			assert.LessOrEqual(t, ratio, tt.maxRatio)
		})
	}
}

func TestHighPass_InvalidParameters(t *testing.T) {
	t.Parallel()

	_, err := NewHighPass(100, 2, ButterworthQ, 0)
	require.Error(t, err)
	_, err = NewHighPass(100, 60, ButterworthQ, 1)
	require.Error(t, err)
	_, err = NewHighPass(100, 0, ButterworthQ, 1)
	require.Error(t, err)
}

func TestBiquad_Reset(t *testing.T) {
	t.Parallel()

	hp, err := NewHighPass(100, 2, ButterworthQ, 1)
	require.NoError(t, err)

	a := sine(200, 100, 5, 1)
	b := append([]float32(nil), a...)
	hp.Apply(a)
	hp.Reset()
	hp.Apply(b)
	assert.InDeltaSlice(t, a, b, 1e-7)
}

func TestApply_PreservesLengthAndHonoursOptions(t *testing.T) {
	t.Parallel()

	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func() []*waveform.Stream {
		data := make([]float32, 800)
		for i := range data {
			data[i] = float32(i)
		}
		return []*waveform.Stream{{Traces: []*waveform.Trace{{ID: "t", Start: start, SamplingRate: 100, Data: data}}}}
	}

	streams := mk()
	require.NoError(t, Apply(streams, Options{Detrend: true, Filter: true, HighpassHz: 2, Passes: 2}))
	assert.Equal(t, 800, streams[0].Traces[0].Len())
	assert.Less(t, math.Abs(float64(streams[0].Traces[0].Data[400])), 1.0)

	untouched := mk()
	require.NoError(t, Apply(untouched, Options{}))
	assert.InDelta(t, 400, untouched[0].Traces[0].Data[400], 0)
	assert.False(t, Options{}.Enabled())
}

func TestApply_BadSamplingRate(t *testing.T) {
	t.Parallel()

	streams := []*waveform.Stream{{Traces: []*waveform.Trace{{ID: "slow", SamplingRate: 2, Data: []float32{1, 2, 3}}}}}
	err := Apply(streams, Options{Filter: true, HighpassHz: 2, Passes: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryPreprocess))
}
