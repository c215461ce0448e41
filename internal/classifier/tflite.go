package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/cpuspec"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/scan"
)

// TFLite runs a TensorFlow Lite phase model. The input tensor is resized
// to (chunk, features, channels) on first use; batches with more windows
// are scored in several invocations.
type TFLite struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter

	path      string
	modelType string
	chunk     int
	normalize bool
	shape     [3]int
}

// NewTFLite loads the model at path.
func NewTFLite(path string, s conf.ModelSettings) (*TFLite, error) {
	start := time.Now()
	log := GetLogger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			ModelContext(path, s.Type).
			Build()
	}

	model := tflite.NewModel(data)
	if model == nil {
		return nil, errors.New(fmt.Errorf("cannot load TensorFlow Lite model")).
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(path, s.Type).
			Context("model_size_mb", len(data)/1024/1024).
			Timing("model-init", time.Since(start)).
			Build()
	}

	threads := cpuspec.ThreadCount(s.Threads)
	options := tflite.NewInterpreterOptions()
	if s.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: bounded by CPU count
		if delegate == nil {
			log.Warn("failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}
	options.SetErrorReporter(func(msg string, _ any) {
		GetLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, errors.New(fmt.Errorf("cannot create interpreter")).
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(path, s.Type).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, errors.New(fmt.Errorf("tensor allocation failed: %v", status)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(path, s.Type).
			Build()
	}

	t := &TFLite{
		model:       model,
		options:     options,
		interpreter: interpreter,
		path:        path,
		modelType:   s.Type,
		chunk:       max(1, s.InferenceBatch),
		normalize:   s.Normalize,
	}

	log.Info("phase model initialized",
		logger.String("model", path),
		logger.String("type", s.Type),
		logger.String("input", tensorShape(interpreter.GetInputTensor(0))),
		logger.Int("threads", threads),
		logger.Bool("xnnpack", s.UseXNNPACK),
		logger.Duration("elapsed", time.Since(start)))
	return t, nil
}

// Score implements scan.Classifier. Calls are serialised since the
// interpreter is not safe for concurrent use.
func (t *TFLite) Score(ctx context.Context, w scan.Windows) (scan.ScoreMatrix, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interpreter == nil {
		return nil, errors.Newf("classifier is closed").
			Component("classifier").
			Category(errors.CategoryClassifier).
			Build()
	}
	if w.Count == 0 {
		return nil, nil
	}
	if err := t.ensureShape(w.Features, w.Channels); err != nil {
		return nil, err
	}
	return scoreChunks(ctx, w, t.chunk, t.normalize, t.invoke)
}

// ensureShape resizes the input tensor when the window geometry changes.
func (t *TFLite) ensureShape(features, channels int) error {
	shape := [3]int{t.chunk, features, channels}
	if shape == t.shape {
		return nil
	}
	dims := []int32{int32(t.chunk), int32(features), int32(channels)} //nolint:gosec // G115: window geometry is small
	if status := t.interpreter.ResizeInputTensor(0, dims); status != tflite.OK {
		return t.shapeError(fmt.Errorf("resize input tensor to %v: %v", dims, status))
	}
	if status := t.interpreter.AllocateTensors(); status != tflite.OK {
		return t.shapeError(fmt.Errorf("tensor allocation for %v failed: %v", dims, status))
	}
	t.shape = shape
	GetLogger().Debug("input tensor resized", logger.String("shape", fmt.Sprint(dims)))
	return nil
}

// invoke runs one chunk. in holds rows windows; unused rows of the input
// tensor are zeroed. The returned slice is owned by the interpreter.
func (t *TFLite) invoke(in []float32, rows int) ([]float32, error) {
	input := t.interpreter.GetInputTensor(0).Float32s()
	n := copy(input, in)
	clear(input[n:])

	if status := t.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v", status)
	}

	output := t.interpreter.GetOutputTensor(0)
	classes := output.Dim(output.NumDims() - 1)
	if classes != len(scan.Labels) {
		return nil, fmt.Errorf("model outputs %d classes, expected %d", classes, len(scan.Labels))
	}
	return output.Float32s()[:rows*classes], nil
}

func (t *TFLite) shapeError(err error) error {
	return errors.New(err).
		Component("classifier").
		Category(errors.CategoryModelInit).
		ModelContext(t.path, t.modelType).
		Build()
}

// Close releases the interpreter.
func (t *TFLite) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interpreter != nil {
		t.interpreter.Delete()
		t.options.Delete()
		t.model.Delete()
		t.interpreter = nil
	}
	return nil
}

func tensorShape(tensor *tflite.Tensor) string {
	if tensor == nil {
		return "unknown"
	}
	dims := make([]int, tensor.NumDims())
	for i := range dims {
		dims[i] = tensor.Dim(i)
	}
	return fmt.Sprint(dims)
}

// scoreChunks scores windows in chunks of at most chunk windows. invoke
// receives the flattened input of rows windows and returns rows*classes
// scores.
func scoreChunks(ctx context.Context, w scan.Windows, chunk int, normalize bool,
	invoke func(in []float32, rows int) ([]float32, error),
) (scan.ScoreMatrix, error) {
	size := w.Features * w.Channels
	classes := len(scan.Labels)
	flat := make([]float32, w.Count*classes)
	out := make(scan.ScoreMatrix, w.Count)

	var buf []float32
	if normalize {
		buf = make([]float32, min(chunk, w.Count)*size)
	}

	for first := 0; first < w.Count; first += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows := min(chunk, w.Count-first)
		in := w.Data[first*size : (first+rows)*size]
		if normalize {
			part := scan.Windows{Count: rows, Features: w.Features, Channels: w.Channels, Data: in}
			NormalizeWindows(buf[:len(in)], part)
			in = buf[:len(in)]
		}

		scores, err := invoke(in, rows)
		if err != nil {
			return nil, errors.New(err).
				Component("classifier").
				Category(errors.CategoryClassifier).
				Context("windows", rows).
				Build()
		}
		copy(flat[first*classes:], scores[:rows*classes])
	}

	for i := range out {
		out[i] = flat[i*classes : (i+1)*classes : (i+1)*classes]
	}
	return out, nil
}
