package scan

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressReporter observes batch progress. It has no effect on results.
type ProgressReporter interface {
	SetTotal(total int64)
	Increment()
	Finish()
}

// Progress accumulates completed batches across the whole run. The total
// grows as archives are planned.
type Progress struct {
	done     atomic.Int64
	total    atomic.Int64
	reporter ProgressReporter
}

// NewProgress returns an accumulator forwarding to reporter, which may be nil.
func NewProgress(reporter ProgressReporter) *Progress {
	return &Progress{reporter: reporter}
}

// AddTotal adds planned batches.
func (p *Progress) AddTotal(n int) {
	total := p.total.Add(int64(n))
	if p.reporter != nil {
		p.reporter.SetTotal(total)
	}
}

// Complete records one finished batch.
func (p *Progress) Complete() {
	p.done.Add(1)
	if p.reporter != nil {
		p.reporter.Increment()
	}
}

// Skip removes planned batches that will not run.
func (p *Progress) Skip(n int) {
	p.AddTotal(-n)
}

func (p *Progress) Done() int64  { return p.done.Load() }
func (p *Progress) Total() int64 { return p.total.Load() }

// Fraction returns completed/total, 0 before anything is planned.
func (p *Progress) Fraction() float64 {
	total := p.total.Load()
	if total <= 0 {
		return 0
	}
	return float64(p.done.Load()) / float64(total)
}

// Finish completes the reporter.
func (p *Progress) Finish() {
	if p.reporter != nil {
		p.reporter.Finish()
	}
}

// BarReporter draws a terminal progress bar.
type BarReporter struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	last     time.Time
}

// NewBarReporter renders to w, typically os.Stderr.
func NewBarReporter(w io.Writer, name string) *BarReporter {
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(w))
	bar := p.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Name(" "),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
	return &BarReporter{progress: p, bar: bar, last: time.Now()}
}

func (r *BarReporter) SetTotal(total int64) {
	r.bar.SetTotal(total, false)
}

func (r *BarReporter) Increment() {
	now := time.Now()
	r.bar.EwmaIncrement(now.Sub(r.last))
	r.last = now
}

// Finish completes the bar at its current count and waits for the last
// render.
func (r *BarReporter) Finish() {
	r.bar.SetTotal(-1, true)
	r.progress.Wait()
}
