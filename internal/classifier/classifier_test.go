package classifier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/scan"
)

func TestResolveModelPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range modelFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("tflite"), 0o600))
	}
	custom := filepath.Join(dir, "mine.tflite")
	require.NoError(t, os.WriteFile(custom, []byte("tflite"), 0o600))

	tests := []struct {
		name     string
		settings conf.ModelSettings
		want     string
		category errors.ErrorCategory
	}{
		{"transformer", conf.ModelSettings{Type: conf.ModelTransformer, Dir: dir}, filepath.Join(dir, "seismo-transformer.tflite"), ""},
		{"favor", conf.ModelSettings{Type: conf.ModelFavor, Dir: dir}, filepath.Join(dir, "seismo-favor.tflite"), ""},
		{"cnn", conf.ModelSettings{Type: conf.ModelCNN, Dir: dir}, filepath.Join(dir, "seismo-cnn.tflite"), ""},
		{"explicit path wins", conf.ModelSettings{Type: conf.ModelCNN, Dir: dir, Path: custom}, custom, ""},
		{"custom", conf.ModelSettings{Type: conf.ModelCustom, Path: custom}, custom, ""},
		{"custom without path", conf.ModelSettings{Type: conf.ModelCustom, Dir: dir}, "", errors.CategoryConfiguration},
		{"unknown type", conf.ModelSettings{Type: "rnn", Dir: dir}, "", errors.CategoryConfiguration},
		{"missing file", conf.ModelSettings{Type: conf.ModelCNN, Dir: t.TempDir()}, "", errors.CategoryModelLoad},
		{"directory", conf.ModelSettings{Type: conf.ModelCustom, Path: dir}, "", errors.CategoryConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveModelPath(tt.settings)
			if tt.category != "" {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, tt.category), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeWindows(t *testing.T) {
	t.Parallel()

	// two windows, two features, two channels
	w := scan.Windows{Count: 2, Features: 2, Channels: 2, Data: []float32{
		2, 0, -4, 0, // window 0: channel 0 {2,-4}, channel 1 silent
		1, 10, 0.5, -5, // window 1: channel 0 {1,0.5}, channel 1 {10,-5}
	}}
	dst := make([]float32, len(w.Data))
	NormalizeWindows(dst, w)
	assert.InDeltaSlice(t, []float32{0.5, 0, -1, 0, 1, 1, 0.5, -0.5}, dst, 1e-6)

	// in place
	NormalizeWindows(w.Data, w)
	assert.InDeltaSlice(t, dst, w.Data, 0)
}

// echoFirst returns the first input value of every window as its P score.
func echoFirst(size int, calls *[]int) func([]float32, int) ([]float32, error) {
	return func(in []float32, rows int) ([]float32, error) {
		*calls = append(*calls, rows)
		out := make([]float32, rows*len(scan.Labels))
		for r := range rows {
			out[r*3] = in[r*size]
			out[r*3+2] = 1 - in[r*size]
		}
		return out, nil
	}
}

func TestScoreChunks(t *testing.T) {
	t.Parallel()

	const features, channels = 4, 3
	size := features * channels
	w := scan.Windows{Count: 7, Features: features, Channels: channels, Data: make([]float32, 7*size)}
	for i := range w.Count {
		w.Data[i*size] = float32(i) / 10
	}

	var calls []int
	scores, err := scoreChunks(context.Background(), w, 3, false, echoFirst(size, &calls))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, calls)
	require.Len(t, scores, 7)
	for i, row := range scores {
		require.Len(t, row, 3)
		assert.InDelta(t, float32(i)/10, row[0], 1e-6)
	}
	require.NoError(t, scores.Validate(w.Count))
}

func TestScoreChunks_Normalize(t *testing.T) {
	t.Parallel()

	w := scan.Windows{Count: 2, Features: 2, Channels: 1, Data: []float32{4, 2, -3, 6}}
	var calls []int
	scores, err := scoreChunks(context.Background(), w, 8, true, echoFirst(2, &calls))
	require.NoError(t, err)
	assert.InDelta(t, 1, scores[0][0], 1e-6)
	assert.InDelta(t, -0.5, scores[1][0], 1e-6)
	assert.Equal(t, []float32{4, 2, -3, 6}, w.Data, "input windows untouched")
}

func TestScoreChunks_Errors(t *testing.T) {
	t.Parallel()

	w := scan.Windows{Count: 4, Features: 1, Channels: 1, Data: make([]float32, 4)}
	failing := func([]float32, int) ([]float32, error) { return nil, fmt.Errorf("invoke failed") }
	_, err := scoreChunks(context.Background(), w, 2, false, failing)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryClassifier))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls []int
	_, err = scoreChunks(ctx, w, 2, false, echoFirst(1, &calls))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}
