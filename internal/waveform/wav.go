package waveform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/seismo-go/internal/errors"
)

// wavReadChunk is the number of interleaved samples read per PCMBuffer call.
const wavReadChunk = 64 * 1024

// WAVLoader decodes PCM WAV files. Every channel of the file becomes one
// stream with a single trace.
type WAVLoader struct{}

func (WAVLoader) Load(ctx context.Context, ref FileRef) ([]*Stream, error) {
	file, err := os.Open(ref.Path)
	if err != nil {
		return nil, errors.New(err).
			Component("waveform").
			Category(errors.CategoryFileIO).
			FileContext(ref.Path, 0).
			Build()
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.New(err).
			Component("waveform").
			Category(errors.CategoryFileIO).
			FileContext(ref.Path, 0).
			Build()
	}

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, decodeError(fmt.Errorf("%s is not a valid WAV file", filepath.Base(ref.Path)), ref.Path, info.Size())
	}

	divisor, err := pcmDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, decodeError(err, ref.Path, info.Size())
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return nil, decodeError(fmt.Errorf("WAV file declares %d channels", channels), ref.Path, info.Size())
	}

	// Data chunk size gives an upper bound for preallocation.
	bytesPerSample := int(decoder.BitDepth) / 8
	estimate := int(decoder.PCMSize) / max(1, bytesPerSample*channels)
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, 0, estimate)
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, wavReadChunk*channels),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: channels},
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, decodeError(err, ref.Path, info.Size())
		}
		if n == 0 {
			break
		}
		for i := 0; i+channels <= n; i += channels {
			for c := range channels {
				data[c] = append(data[c], float32(buf.Data[i+c])/divisor)
			}
		}
	}

	start := resolveStart(ref, info)
	return channelStreams(ref.Path, start, float64(decoder.SampleRate), data), nil
}

func channelStreams(path string, start time.Time, rate float64, data [][]float32) []*Stream {
	base := filepath.Base(path)
	streams := make([]*Stream, len(data))
	for c, samples := range data {
		streams[c] = &Stream{
			Source: path,
			Traces: []*Trace{{
				ID:           fmt.Sprintf("%s#%d", base, c),
				Start:        start,
				SamplingRate: rate,
				Data:         samples,
			}},
		}
	}
	return streams
}

func decodeError(err error, path string, size int64) error {
	return errors.New(err).
		Component("waveform").
		Category(errors.CategoryWaveformDecode).
		FileContext(path, size).
		Build()
}

// pcmDivisor maps integer PCM samples to [-1, 1).
func pcmDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}
