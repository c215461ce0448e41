package scan

import (
	"fmt"

	"github.com/tphakala/seismo-go/internal/errors"
)

// ScoreMatrix holds one row of class scores per window, columns ordered
// as Labels.
type ScoreMatrix [][]float32

// Validate checks that every row has one score per label.
func (m ScoreMatrix) Validate(windows int) error {
	if len(m) != windows {
		return errors.Newf("classifier returned %d score rows for %d windows", len(m), windows).
			Component("scan").
			Category(errors.CategoryClassifier).
			Build()
	}
	for i, row := range m {
		if len(row) != len(Labels) {
			return errors.New(fmt.Errorf("score row %d has %d classes, expected %d", i, len(row), len(Labels))).
				Component("scan").
				Category(errors.CategoryClassifier).
				Build()
		}
	}
	return nil
}

// RestoredScores holds one score row per sample. Row i is the row of
// window i/step, rows of one window share storage.
type RestoredScores [][]float32

// Restore upsamples window scores to sample resolution by holding each
// row for step samples. The result has len(scores)*step rows; samples past
// the last full stride of the batch are not covered.
func Restore(scores ScoreMatrix, step int) RestoredScores {
	out := make(RestoredScores, len(scores)*step)
	for i := range out {
		out[i] = scores[i/step]
	}
	return out
}

// Column copies one class column.
func (r RestoredScores) Column(c int) []float32 {
	col := make([]float32, len(r))
	for i, row := range r {
		col[i] = row[c]
	}
	return col
}
