package scan

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomScores(rng *rand.Rand, n int) ScoreMatrix {
	m := make(ScoreMatrix, n)
	for i := range m {
		p, s := rng.Float32(), rng.Float32()
		if p+s > 1 {
			p, s = 1-p, 1-s
		}
		m[i] = []float32{p, s, 1 - p - s}
	}
	return m
}

func TestRestore_ShapeLaw(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{0, 1, 2, 61} {
		for _, step := range []int{1, 3, 10} {
			scores := randomScores(rng, n)
			restored := Restore(scores, step)
			require.Len(t, restored, n*step)
			for i := range restored {
				assert.Equal(t, scores[i/step], restored[i])
			}
		}
	}
}

func TestRestoredScores_Column(t *testing.T) {
	t.Parallel()

	restored := Restore(ScoreMatrix{{0.1, 0.2, 0.7}, {0.8, 0.1, 0.1}}, 2)
	assert.Equal(t, []float32{0.1, 0.1, 0.8, 0.8}, restored.Column(0))
	assert.Equal(t, []float32{0.7, 0.7, 0.1, 0.1}, restored.Column(2))
}

func TestScoreMatrix_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ScoreMatrix{{0, 0, 1}}.Validate(1))
	require.Error(t, ScoreMatrix{{0, 0, 1}}.Validate(2))
	require.Error(t, ScoreMatrix{{0, 1}}.Validate(1))
}
