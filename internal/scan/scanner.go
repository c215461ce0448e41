// Package scan runs phase detection over archives of continuous
// multi-channel recordings. Each archive is aligned into groups of
// same-index traces, every group is cut into memory-bounded batches and
// each batch is scored window by window. Window scores are held for one
// window step to get per-sample scores, from which mutually exclusive P and
// S peaks are picked and mapped to absolute time.
package scan

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/preprocess"
	"github.com/tphakala/seismo-go/internal/waveform"
)

// Classifier scores every window of a batch. The result has one row per
// window with columns ordered as Labels. Score is called once per batch and
// must not retain the windows.
type Classifier interface {
	Score(ctx context.Context, windows Windows) (ScoreMatrix, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, windows Windows) (ScoreMatrix, error)

func (f ClassifierFunc) Score(ctx context.Context, windows Windows) (ScoreMatrix, error) {
	return f(ctx, windows)
}

// Sink receives the detections of one batch in time order.
type Sink interface {
	Write(ctx context.Context, detections []Detection) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, detections []Detection) error

func (f SinkFunc) Write(ctx context.Context, detections []Detection) error {
	return f(ctx, detections)
}

// Archive outcomes passed to Recorder.
const (
	ArchiveScanned = "scanned"
	ArchiveSkipped = "skipped"
)

// Recorder collects scan metrics.
type Recorder interface {
	RecordArchive(status string)
	RecordBatch(windows int, elapsed time.Duration)
	RecordDetection(label Label)
}

type nopRecorder struct{}

func (nopRecorder) RecordArchive(string)           {}
func (nopRecorder) RecordBatch(int, time.Duration) {}
func (nopRecorder) RecordDetection(Label)          {}

// forgetter is implemented by caching loaders.
type forgetter interface {
	Forget(archive waveform.Archive)
}

// Summary counts the outcome of a run.
type Summary struct {
	Archives   int
	Skipped    int
	Batches    int
	Detections map[Label]int
	Elapsed    time.Duration
}

// Total returns the number of detections of all labels.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Detections {
		n += c
	}
	return n
}

// Scanner is the driver loop. It processes archives one at a time and the
// work items of an archive strictly in order.
type Scanner struct {
	params     Params
	classifier Classifier
	loader     waveform.Loader
	sink       Sink

	prep     preprocess.Options
	workers  int
	progress *Progress
	recorder Recorder
	log      logger.Logger

	checkedChannels map[int]bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPreprocess sets the per-trace conditioning applied after loading.
func WithPreprocess(opts preprocess.Options) Option {
	return func(s *Scanner) { s.prep = opts }
}

// WithWorkers sets how many files of an archive are decoded in parallel.
func WithWorkers(n int) Option {
	return func(s *Scanner) { s.workers = max(1, n) }
}

// WithProgress sets the run-wide progress accumulator.
func WithProgress(p *Progress) Option {
	return func(s *Scanner) { s.progress = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *Scanner) { s.recorder = r }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// New returns a Scanner. Params must come from NewParams.
func New(params Params, classifier Classifier, loader waveform.Loader, sink Sink, opts ...Option) *Scanner {
	s := &Scanner{
		params:          params,
		classifier:      classifier,
		loader:          loader,
		sink:            sink,
		workers:         1,
		recorder:        nopRecorder{},
		checkedChannels: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.progress == nil {
		s.progress = NewProgress(nil)
	}
	if s.log == nil {
		s.log = GetLogger()
	}
	return s
}

// Progress returns the accumulator used by the scanner.
func (s *Scanner) Progress() *Progress {
	return s.progress
}

// Run scans archives in order. Archives that cannot be loaded or aligned
// are logged and skipped. Any other error stops the run and is returned
// together with the summary so far. The context is checked between
// archives and between batches.
func (s *Scanner) Run(ctx context.Context, archives []waveform.Archive) (Summary, error) {
	started := time.Now()
	summary := Summary{Detections: make(map[Label]int)}
	log := s.log.WithContext(ctx)
	defer s.progress.Finish()

	for _, archive := range archives {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(started)
			return summary, cancelled(err)
		}

		err := s.scanArchive(ctx, archive, &summary)
		switch {
		case err == nil:
			summary.Archives++
			s.recorder.RecordArchive(ArchiveScanned)
		case ctx.Err() != nil:
			summary.Elapsed = time.Since(started)
			return summary, cancelled(ctx.Err())
		case IsArchiveSkip(err):
			summary.Skipped++
			s.recorder.RecordArchive(ArchiveSkipped)
			log.Warn("skipping archive",
				logger.Int("archive", archive.Index),
				logger.Int("line", archive.Line),
				logger.Error(err))
		default:
			summary.Elapsed = time.Since(started)
			return summary, err
		}
	}

	summary.Elapsed = time.Since(started)
	log.Info("scan finished",
		logger.Int("archives", summary.Archives),
		logger.Int("skipped", summary.Skipped),
		logger.Int("batches", summary.Batches),
		logger.Int("detections", summary.Total()),
		logger.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// prepared is an archive ready for batching.
type prepared struct {
	groups    []*AlignedGroup
	originals []*AlignedGroup // nil unless originals are kept
}

func (s *Scanner) scanArchive(ctx context.Context, archive waveform.Archive, summary *Summary) error {
	if f, ok := s.loader.(forgetter); ok {
		defer f.Forget(archive)
	}

	arch, err := s.prepare(ctx, archive)
	if err != nil {
		return err
	}

	items := Plan(archive.Index, arch.groups, s.params.BatchSize)
	s.progress.AddTotal(len(items))

	log := s.log.WithContext(ctx).With(logger.Int("archive", archive.Index))
	for _, g := range arch.groups {
		s.checkGroup(log, g)
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			s.progress.Skip(len(items) - i)
			return err
		}
		if err := s.scanBatch(ctx, log, arch, item, summary); err != nil {
			s.progress.Skip(len(items) - i)
			return err
		}
		summary.Batches++
		s.progress.Complete()
	}
	return nil
}

// prepare loads, conditions and aligns an archive and, if requested, an
// untouched copy of it.
func (s *Scanner) prepare(ctx context.Context, archive waveform.Archive) (*prepared, error) {
	streams, err := waveform.LoadArchive(ctx, s.loader, archive, s.workers)
	if err != nil {
		return nil, err
	}

	var originals []*waveform.Stream
	if s.params.KeepOriginal {
		if originals, err = waveform.LoadArchive(ctx, s.loader, archive, s.workers); err != nil {
			return nil, err
		}
	}

	if err := preprocess.Apply(streams, s.prep); err != nil {
		return nil, errors.New(err).
			Component("scan").
			Category(errors.CategoryArchive).
			ArchiveContext(archive.Index, archive.Paths()).
			Build()
	}

	arch := &prepared{}
	if arch.groups, err = Align(streams); err != nil {
		return nil, err
	}
	if originals != nil {
		if arch.originals, err = Align(originals); err != nil {
			return nil, err
		}
		if len(arch.originals) != len(arch.groups) {
			return nil, errors.New(fmt.Errorf("%w: %d groups, %d original groups",
				ErrOriginalLengthMismatch, len(arch.groups), len(arch.originals))).
				Component("scan").
				Category(errors.CategoryBatch).
				Priority(errors.PriorityCritical).
				Build()
		}
	}
	return arch, nil
}

// checkGroup warns about groups whose rate differs from the frequency used
// for timestamps and, once per channel count, about batches that may not
// fit in memory.
func (s *Scanner) checkGroup(log logger.Logger, g *AlignedGroup) {
	if g.Len() > 0 && g.SamplingRate != s.params.Frequency {
		log.Warn("trace sampling rate differs from scan frequency, detection times assume the scan frequency",
			logger.Int("group", g.Index),
			logger.Float64("sampling_rate", g.SamplingRate),
			logger.Float64("frequency", s.params.Frequency))
	}

	if !s.params.MemoryCheck || s.checkedChannels[g.Channels()] {
		return
	}
	s.checkedChannels[g.Channels()] = true
	plan := PlanMemory(s.params, g.Channels())
	if !plan.Fits() {
		log.Warn("batch may not fit in available memory, consider a smaller batch size",
			logger.String("plan", plan.String()),
			logger.Int("batch_size", s.params.BatchSize))
		return
	}
	log.Debug("batch memory plan", logger.String("plan", plan.String()))
}

func (s *Scanner) scanBatch(ctx context.Context, log logger.Logger, arch *prepared, item WorkItem, summary *Summary) error {
	started := time.Now()
	g := arch.groups[item.Group]
	b := item.Batch

	var orig *AlignedGroup
	if arch.originals != nil {
		orig = arch.originals[item.Group]
		if err := checkOriginal(b, g, orig, s.params.BatchSize); err != nil {
			return err
		}
	}

	windows := BuildWindows(g.Traces, b, s.params.Features, s.params.WindowStep)
	if windows.Count == 0 {
		log.Debug("batch shorter than one window",
			logger.Int("group", item.Group),
			logger.Int("batch", b.Index),
			logger.Int("samples", b.Len()))
		return nil
	}

	scores, err := s.classifier.Score(ctx, windows)
	if err != nil {
		return errors.New(fmt.Errorf("score %s: %w", item, err)).
			Component("scan").
			Category(errors.CategoryClassifier).
			Context("windows", windows.Count).
			Build()
	}
	if len(scores) == 0 {
		return nil
	}
	if err := scores.Validate(windows.Count); err != nil {
		return err
	}

	restored := Restore(scores, s.params.WindowStep)
	batchStart := g.BatchStart(b)

	var detections []Detection
	for _, rule := range s.params.Rules() {
		for _, pk := range FindPeaks(restored, rule) {
			d := Detection{
				Label:   pk.Label,
				Time:    s.params.Timestamp(batchStart, pk.Offset),
				Score:   pk.Score,
				Archive: item.Archive,
				Group:   item.Group,
				Batch:   b.Index,
				Offset:  pk.Offset,
				Traces:  g.IDs(),
			}
			if orig != nil {
				d.Amplitude = windowAmplitude(orig, b, pk.Offset, windows.Count, s.params)
			}
			detections = append(detections, d)
		}
	}
	slices.SortStableFunc(detections, func(a, b Detection) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	elapsed := time.Since(started)
	s.recorder.RecordBatch(windows.Count, elapsed)
	log.Debug("batch scanned",
		logger.Int("group", item.Group),
		logger.Int("batch", b.Index),
		logger.Time("start", batchStart),
		logger.Int("windows", windows.Count),
		logger.Int("detections", len(detections)),
		logger.Duration("elapsed", elapsed))

	if len(detections) == 0 {
		return nil
	}
	for _, d := range detections {
		summary.Detections[d.Label]++
		s.recorder.RecordDetection(d.Label)
	}
	if err := s.sink.Write(ctx, detections); err != nil {
		return errors.New(fmt.Errorf("write detections of %s: %w", item, err)).
			Component("scan").
			Category(errors.CategoryOutput).
			Build()
	}
	return nil
}

// windowAmplitude returns the largest absolute original sample of all
// channels inside the window that produced the score at offset.
func windowAmplitude(orig *AlignedGroup, b Batch, offset, windows int, p Params) float32 {
	w := min(offset/p.WindowStep, windows-1)
	from := b.Start + w*p.WindowStep
	to := min(from+p.Features, b.End)

	var peak float64
	for _, tr := range orig.Traces {
		for _, v := range tr.Data[from:to] {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
	}
	return float32(peak)
}

func cancelled(err error) error {
	return errors.New(fmt.Errorf("scan cancelled: %w", err)).
		Component("scan").
		Category(errors.CategoryCancellation).
		Build()
}
