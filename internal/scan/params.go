package scan

import (
	"fmt"
	"time"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/waveform"
)

// Label names a classifier output class.
type Label string

const (
	LabelP Label = "P"
	LabelS Label = "S"
	LabelN Label = "N"
)

// Labels lists the classes in classifier column order.
var Labels = []Label{LabelP, LabelS, LabelN}

// Column returns the score column of l, or -1 for an unknown label.
func (l Label) Column() int {
	for i, c := range Labels {
		if c == l {
			return i
		}
	}
	return -1
}

// PhaseRule selects peaks of one positive class.
type PhaseRule struct {
	Label       Label
	Column      int
	Threshold   float64
	Competitors []int // columns the class must beat at the peak sample
}

// Params is the immutable pipeline configuration. It is built once before
// the scan starts and passed by value.
type Params struct {
	BatchSize    int
	Features     int     // window length in samples
	WindowStep   int     // samples between window starts
	Frequency    float64 // Hz, converts sample offsets to time
	KeepOriginal bool
	MemoryCheck  bool

	rules []PhaseRule
}

// NewParams validates the pipeline values and builds the per-phase rules.
func NewParams(batchSize, features, windowStep int, frequency, thresholdP, thresholdS float64) (Params, error) {
	p := Params{
		BatchSize:  batchSize,
		Features:   features,
		WindowStep: windowStep,
		Frequency:  frequency,
	}

	var problems []string
	if batchSize <= 0 {
		problems = append(problems, fmt.Sprintf("batch size must be positive, got %d", batchSize))
	}
	if features <= 0 {
		problems = append(problems, fmt.Sprintf("window length must be positive, got %d", features))
	}
	if windowStep <= 0 {
		problems = append(problems, fmt.Sprintf("window step must be positive, got %d", windowStep))
	}
	if frequency <= 0 {
		problems = append(problems, fmt.Sprintf("frequency must be positive, got %g", frequency))
	}
	for _, thr := range []float64{thresholdP, thresholdS} {
		if thr <= 0 || thr > 1 {
			problems = append(problems, fmt.Sprintf("threshold %g outside (0, 1]", thr))
		}
	}
	if len(problems) > 0 {
		return Params{}, errors.Newf("invalid scan parameters: %v", problems).
			Component("scan").
			Category(errors.CategoryValidation).
			Build()
	}

	p.rules = []PhaseRule{
		phaseRule(LabelP, thresholdP),
		phaseRule(LabelS, thresholdS),
	}
	return p, nil
}

// ParamsFromSettings derives Params from loaded configuration.
func ParamsFromSettings(s *conf.ScanSettings) (Params, error) {
	thrP, thrS := s.PhaseThresholds()
	p, err := NewParams(s.BatchSize, s.Features, s.WindowStep, s.Frequency, thrP, thrS)
	if err != nil {
		return Params{}, err
	}
	p.KeepOriginal = s.KeepOriginal
	p.MemoryCheck = s.MemoryCheck
	return p, nil
}

// phaseRule makes every other label a competitor, noise included.
func phaseRule(label Label, threshold float64) PhaseRule {
	rule := PhaseRule{Label: label, Column: label.Column(), Threshold: threshold}
	for i, other := range Labels {
		if other != label {
			rule.Competitors = append(rule.Competitors, i)
		}
	}
	return rule
}

// Rules returns the positive phase rules in label order.
func (p Params) Rules() []PhaseRule {
	out := make([]PhaseRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// HalfWindow is the time from a window's first sample to its centre.
func (p Params) HalfWindow() time.Duration {
	return waveform.SecondsToDuration(float64(p.Features) * 0.5 / p.Frequency)
}

// WindowCount returns the number of windows that fit in n samples.
func (p Params) WindowCount(n int) int {
	return WindowCount(n, p.Features, p.WindowStep)
}
