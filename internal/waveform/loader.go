package waveform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
)

// Loader decodes one archive file into streams, one per channel.
type Loader interface {
	Load(ctx context.Context, ref FileRef) ([]*Stream, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, ref FileRef) ([]*Stream, error)

func (f LoaderFunc) Load(ctx context.Context, ref FileRef) ([]*Stream, error) {
	return f(ctx, ref)
}

// FileLoader picks a decoder from the file extension.
type FileLoader struct {
	WAV  Loader
	FLAC Loader
}

// NewFileLoader returns a FileLoader with the WAV and FLAC decoders.
func NewFileLoader() *FileLoader {
	return &FileLoader{WAV: WAVLoader{}, FLAC: FLACLoader{}}
}

func (l *FileLoader) Load(ctx context.Context, ref FileRef) ([]*Stream, error) {
	switch ext := strings.ToLower(filepath.Ext(ref.Path)); ext {
	case ".wav":
		return l.WAV.Load(ctx, ref)
	case ".flac":
		return l.FLAC.Load(ctx, ref)
	default:
		return nil, errors.New(fmt.Errorf("unsupported waveform format %q", ext)).
			Component("waveform").
			Category(errors.CategoryValidation).
			FileContext(ref.Path, 0).
			Build()
	}
}

// LoadArchive decodes all files of an archive with up to workers files in
// flight. Streams are returned in file order, channels of a file in channel
// order. Any failing file fails the archive.
func LoadArchive(ctx context.Context, loader Loader, archive Archive, workers int) ([]*Stream, error) {
	started := time.Now()
	perFile := make([][]*Stream, len(archive.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, ref := range archive.Files {
		g.Go(func() error {
			streams, err := loader.Load(gctx, ref)
			if err != nil {
				return fmt.Errorf("load %s: %w", filepath.Base(ref.Path), err)
			}
			perFile[i] = streams
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.New(err).
			Component("waveform").
			Category(errors.CategoryArchive).
			ArchiveContext(archive.Index, archive.Paths()).
			Timing("load-archive", time.Since(started)).
			Build()
	}

	var streams []*Stream
	for _, s := range perFile {
		streams = append(streams, s...)
	}

	GetLogger().Debug("archive loaded",
		logger.Int("archive", archive.Index),
		logger.Int("files", len(archive.Files)),
		logger.Int("streams", len(streams)),
		logger.Duration("elapsed", time.Since(started)))
	return streams, nil
}
