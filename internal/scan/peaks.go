package scan

// Peak is a detected class maximum at a sample offset inside a batch.
type Peak struct {
	Label  Label
	Offset int
	Score  float32
}

// FindPeaks returns, in offset order, the local maxima of the rule's class
// column that exceed the threshold and beat every competing class at the
// same sample.
func FindPeaks(scores RestoredScores, rule PhaseRule) []Peak {
	col := scores.Column(rule.Column)

	var peaks []Peak
	for _, i := range localMaxima(col) {
		v := col[i]
		if float64(v) <= rule.Threshold {
			continue
		}
		if !dominates(scores[i], rule.Column, rule.Competitors) {
			continue
		}
		peaks = append(peaks, Peak{Label: rule.Label, Offset: i, Score: v})
	}
	return peaks
}

func dominates(row []float32, column int, competitors []int) bool {
	for _, c := range competitors {
		if row[column] <= row[c] {
			return false
		}
	}
	return true
}

// localMaxima returns the first index of every run of equal values that is
// strictly greater than its neighbours. The test is applied to whole runs, so
// a run touching an edge only needs to beat the sample past its inner end.
// A series that is constant throughout has no maximum.
func localMaxima(x []float32) []int {
	var out []int
	n := len(x)
	for a := 0; a < n; {
		b := a
		for b+1 < n && x[b+1] == x[a] {
			b++
		}
		v := x[a]
		leftOK := a == 0 || x[a-1] < v
		rightOK := b == n-1 || x[b+1] < v
		if leftOK && rightOK && (a > 0 || b < n-1) {
			out = append(out, a)
		}
		a = b + 1
	}
	return out
}
