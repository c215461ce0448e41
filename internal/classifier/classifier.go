// Package classifier provides the phase classifiers used by the scanner.
// A classifier maps windows of shape (n, features, channels) to rows of
// P, S and noise pseudo-probabilities.
package classifier

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/scan"
)

// Built-in model file names under model.dir.
var modelFiles = map[string]string{
	conf.ModelTransformer: "seismo-transformer.tflite",
	conf.ModelFavor:       "seismo-favor.tflite",
	conf.ModelCNN:         "seismo-cnn.tflite",
}

// ResolveModelPath returns the model file selected by settings. An explicit
// path wins for every type; built-in types otherwise resolve under Dir.
func ResolveModelPath(s conf.ModelSettings) (string, error) {
	path := s.Path
	if path == "" {
		name, ok := modelFiles[s.Type]
		if !ok {
			if s.Type == conf.ModelCustom {
				return "", modelError(fmt.Errorf("model type custom requires model.path"), s)
			}
			return "", modelError(fmt.Errorf("unknown model type %q", s.Type), s)
		}
		path = filepath.Join(s.Dir, name)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.New(fmt.Errorf("model file: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			ModelContext(path, s.Type).
			Build()
	}
	if info.IsDir() {
		return "", modelError(fmt.Errorf("model path %s is a directory", path), s)
	}
	return path, nil
}

// Open creates the classifier configured in settings.
func Open(s conf.ModelSettings) (scan.Classifier, error) {
	path, err := ResolveModelPath(s)
	if err != nil {
		return nil, err
	}
	return NewTFLite(path, s)
}

func modelError(err error, s conf.ModelSettings) error {
	return errors.New(err).
		Component("classifier").
		Category(errors.CategoryConfiguration).
		ModelContext(s.Path, s.Type).
		Build()
}
