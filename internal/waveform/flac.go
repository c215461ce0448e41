package waveform

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/tphakala/seismo-go/internal/errors"
)

// FLACLoader decodes FLAC files. Every channel becomes one stream.
type FLACLoader struct{}

func (FLACLoader) Load(ctx context.Context, ref FileRef) ([]*Stream, error) {
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

	decoder, err := flac.NewDecoder(file)
	if err != nil {
		return nil, decodeError(err, ref.Path, info.Size())
	}

	divisor, err := pcmDivisor(decoder.BitsPerSample)
	if err != nil {
		return nil, decodeError(err, ref.Path, info.Size())
	}
	channels := decoder.NChannels
	if channels < 1 {
		return nil, decodeError(fmt.Errorf("FLAC stream declares %d channels", channels), ref.Path, info.Size())
	}
	bytesPerSample := decoder.BitsPerSample / 8
	stride := bytesPerSample * channels

	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, 0, int(decoder.TotalSamples))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeError(err, ref.Path, info.Size())
		}

		// Frames are interleaved little-endian PCM.
		for i := 0; i+stride <= len(frame); i += stride {
			for c := range channels {
				off := i + c*bytesPerSample
				data[c] = append(data[c], float32(pcmSample(frame[off:], bytesPerSample))/divisor)
			}
		}
	}

	start := resolveStart(ref, info)
	return channelStreams(ref.Path, start, float64(decoder.SampleRate), data), nil
}

// pcmSample reads one signed little-endian sample of width bytes.
func pcmSample(b []byte, width int) int32 {
	switch width {
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		// sign extend from 24 bits
		return v << 8 >> 8
	default:
		return int32(binary.LittleEndian.Uint32(b)) //nolint:gosec // reinterpretation of signed PCM
	}
}
