package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/seismo-go/internal/waveform"
)

func TestWindowCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, features, step, want int
	}{
		{1000, 400, 10, 61},
		{400, 400, 10, 1},
		{409, 400, 10, 1},
		{410, 400, 10, 2},
		{399, 400, 10, 0},
		{0, 400, 10, 0},
		{500_000, 400, 10, 49_961},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowCount(tt.n, tt.features, tt.step), "n=%d", tt.n)
	}
}

func TestBuildWindows_Layout(t *testing.T) {
	t.Parallel()

	a := ramp("a", t0, 100, 30)
	b := ramp("b", t0, 100, 30)
	for i := range b.Data {
		b.Data[i] = -b.Data[i]
	}

	// second batch of size 15: samples 15..29
	w := BuildWindows([]*waveform.Trace{a, b}, Batch{Index: 1, Start: 15, End: 30}, 5, 3)
	require.Equal(t, 4, w.Count)
	assert.Equal(t, 5, w.Features)
	assert.Equal(t, 2, w.Channels)
	require.Len(t, w.Data, 4*5*2)

	for win := range w.Count {
		for f := range w.Features {
			want := float32(15 + win*3 + f)
			assert.InDelta(t, want, w.At(win, f, 0), 0)
			assert.InDelta(t, -want, w.At(win, f, 1), 0)
		}
	}
	assert.Equal(t, []float32{21, -21, 22, -22, 23, -23, 24, -24, 25, -25}, w.Window(2))
}

func TestBuildWindows_ShortBatch(t *testing.T) {
	t.Parallel()

	w := BuildWindows([]*waveform.Trace{ramp("a", t0, 100, 399)}, Batch{End: 399}, 400, 10)
	assert.Equal(t, 0, w.Count)
	assert.Empty(t, w.Data)
}
