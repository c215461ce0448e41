// Package scan implements the scan command.
package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tphakala/seismo-go/internal/buildinfo"
	"github.com/tphakala/seismo-go/internal/classifier"
	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/datastore"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/observability"
	"github.com/tphakala/seismo-go/internal/preprocess"
	"github.com/tphakala/seismo-go/internal/report"
	"github.com/tphakala/seismo-go/internal/scan"
	"github.com/tphakala/seismo-go/internal/waveform"
)

// Command creates the scan command.
func Command(build *buildinfo.Context) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "scan [archives.csv]",
		Short: "Scan waveform archives for P and S phases",
		Long: `Scan every archive listed in the archive list. Each line of the list
names the component files of one archive, separated by commas.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := conf.GetSettings()
			settings.Input.ArchiveList = args[0]
			var progressOut io.Writer = os.Stderr
			if noProgress {
				progressOut = nil
			}
			return Run(cmd.Context(), settings, build, progressOut)
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw the progress bar")
	return cmd
}

// Run scans the archives of settings.Input.ArchiveList. A progress bar is
// drawn on progressOut unless it is nil.
func Run(ctx context.Context, settings *conf.Settings, build *buildinfo.Context, progressOut io.Writer) (err error) {
	log := logger.Global().Module("cmd")

	archives, err := waveform.ReadArchiveList(settings.Input.ArchiveList)
	if err != nil {
		return err
	}
	params, err := scan.ParamsFromSettings(&settings.Scan)
	if err != nil {
		return err
	}

	if settings.Telemetry.Sentry.Enabled {
		flush, serr := errors.InitSentry(settings.Telemetry.Sentry.DSN, build.GetVersion())
		if serr != nil {
			log.Warn("error telemetry disabled", logger.Error(serr))
		}
		defer flush()
	}

	modelPath, err := classifier.ResolveModelPath(settings.Model)
	if err != nil {
		return err
	}
	model, err := classifier.Open(settings.Model)
	if err != nil {
		return err
	}
	if c, ok := model.(io.Closer); ok {
		defer c.Close()
	}

	run := scan.NewRun(build.NodeName(settings.Main.Name), settings.Model.Type, modelPath, settings.Input.ArchiveList)
	ctx = logger.WithTraceID(ctx, run.ID.String())

	var recorder scan.Recorder
	var metrics *observability.Metrics
	if settings.Telemetry.Metrics.Enabled {
		var stop func()
		metrics, stop, err = startMetrics(ctx, settings)
		if err != nil {
			return err
		}
		defer stop()
		recorder = metrics.Scan
		model = metrics.Stages.Classifier(model, settings.Model.Type)
	}

	out, err := openOutputs(settings, run, metrics)
	if err != nil {
		return err
	}
	defer func() {
		out.finish(err)
		if cerr := out.Close(); cerr != nil {
			log.Error("failed to close outputs", logger.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	var loader waveform.Loader = waveform.NewFileLoader()
	if settings.Input.CacheTTL > 0 && settings.Scan.KeepOriginal {
		loader = waveform.NewCachedLoader(loader, settings.Input.CacheTTL)
	}

	var reporter scan.ProgressReporter
	if progressOut != nil {
		reporter = scan.NewBarReporter(progressOut, "scanning")
	}

	opts := []scan.Option{
		scan.WithPreprocess(preprocess.OptionsFromSettings(settings.Scan.Preprocess)),
		scan.WithWorkers(settings.Input.Workers),
		scan.WithProgress(scan.NewProgress(reporter)),
	}
	if recorder != nil {
		opts = append(opts, scan.WithRecorder(recorder))
	}
	scanner := scan.New(params, model, loader, out.sink, opts...)

	log.Info("scan starting",
		logger.String("run_id", run.ID.String()),
		logger.Int("archives", len(archives)),
		logger.String("model", modelPath),
		logger.Int("outputs", out.sink.Len()))

	summary, err := scanner.Run(ctx, archives)
	log.Info("scan summary",
		logger.Int("archives", summary.Archives),
		logger.Int("skipped", summary.Skipped),
		logger.Int("batches", summary.Batches),
		logger.Int("detections_p", summary.Detections[scan.LabelP]),
		logger.Int("detections_s", summary.Detections[scan.LabelS]),
		logger.Duration("elapsed", summary.Elapsed))
	return err
}

// startMetrics serves /metrics until stop is called.
func startMetrics(ctx context.Context, settings *conf.Settings) (m *observability.Metrics, stop func(), err error) {
	m, err = observability.NewMetrics()
	if err != nil {
		return nil, nil, err
	}
	endpoint, err := observability.NewEndpoint(settings, m)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if _, err := endpoint.Start(ctx, &wg); err != nil {
		cancel()
		return nil, nil, err
	}
	return m, func() {
		cancel()
		wg.Wait()
	}, nil
}

// outputs is the set of configured sinks for one run.
type outputs struct {
	sink    *report.MultiSink
	closers []io.Closer
	store   *datastore.Sink
}

func openOutputs(settings *conf.Settings, run scan.Run, m *observability.Metrics) (o *outputs, err error) {
	o = &outputs{sink: report.NewMultiSink()}
	defer func() {
		if err != nil {
			_ = o.Close()
		}
	}()

	add := func(name string, s scan.Sink) {
		if c, ok := s.(io.Closer); ok {
			o.closers = append(o.closers, c)
		}
		if m != nil {
			s = m.Stages.Sink(s, name)
		}
		o.sink.Add(s)
	}

	if settings.Output.File.Enabled {
		file, err := report.NewFileSink(settings.Output.File)
		if err != nil {
			return o, err
		}
		add("file", file)
	}

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return o, err
		}
		sink, err := datastore.NewSink(store, run)
		if err != nil {
			_ = store.Close()
			return o, err
		}
		o.store = sink
		add("database", sink)
	}

	if settings.Output.MQTT.Enabled {
		mqttSink, err := report.NewMQTTSink(settings.Output.MQTT, run)
		if err != nil {
			return o, err
		}
		add("mqtt", mqttSink)
	}

	if o.sink.Len() == 0 {
		return o, errors.New(fmt.Errorf("no output enabled")).
			Component("cmd").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return o, nil
}

// finish records the run outcome in the database.
func (o *outputs) finish(runErr error) {
	if o.store == nil {
		return
	}
	switch {
	case runErr == nil:
		o.store.SetStatus(datastore.StatusCompleted)
	case errors.IsCategory(runErr, errors.CategoryCancellation):
		o.store.SetStatus(datastore.StatusCancelled)
	default:
		o.store.SetStatus(datastore.StatusFailed)
	}
}

// Close closes every sink, in reverse order of opening.
func (o *outputs) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		errs = append(errs, o.closers[i].Close())
	}
	o.closers = nil
	return errors.Join(errs...)
}
