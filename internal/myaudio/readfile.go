// Package myaudio decodes audio files into the normalized mono waveform the
// feature extractor consumes. WAV and FLAC are decoded natively, everything
// else goes through an ffmpeg transcode.
package myaudio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

// AudioInfo holds decoded stream parameters.
type AudioInfo struct {
	SampleRate   int
	TotalSamples int
	NumChannels  int
	BitDepth     int
}

// ReadFile decodes path into a mono waveform at the configured sample rate.
// The waveform is truncated to the configured maximum duration, rejected if
// it holds less than the minimum duration, and peak-normalized to [-1, 1].
func ReadFile(ctx context.Context, settings *conf.Settings, path string) ([]float64, int, error) {
	wave, sourceRate, err := decodeFile(ctx, settings, path)
	if err != nil {
		return nil, 0, err
	}

	targetRate := settings.Audio.SampleRate
	if sourceRate != targetRate {
		wave = Resample(wave, sourceRate, targetRate)
	}

	if len(wave) > settings.MaxSamples() {
		wave = wave[:settings.MaxSamples()]
	}

	if len(wave) == 0 {
		return nil, 0, errors.Newf("audio file is empty or corrupted").
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}
	if len(wave) < settings.MinSamples() {
		return nil, 0, errors.Newf("audio too short: minimum %.1f seconds required", settings.Audio.MinClipSeconds).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Context("samples", len(wave)).
			Build()
	}

	Normalize(wave)
	return wave, targetRate, nil
}

// decodeFile picks a decoder by extension and returns source-rate mono
// samples. Unknown extensions are handed to ffmpeg, which also covers files
// whose extension lies about their contents.
func decodeFile(ctx context.Context, settings *conf.Settings, path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.New(fmt.Errorf("opening audio file: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer file.Close() //nolint:errcheck // read-only descriptor

	// Source-rate sample budget keeps decode memory bounded regardless of
	// the file's claimed duration.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return readWAV(file, settings.Audio.MaxClipSeconds)
	case ".flac":
		return readFLAC(file, settings.Audio.MaxClipSeconds)
	default:
		if err := file.Close(); err != nil {
			return nil, 0, err
		}
		return readViaFfmpeg(ctx, settings, path)
	}
}

// Normalize peak-normalizes the waveform in place. An all-zero signal is left
// untouched to avoid dividing by zero.
func Normalize(wave []float64) {
	var peak float64
	for _, s := range wave {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		return
	}
	for i := range wave {
		wave[i] /= peak
	}
}

// downmix averages interleaved channel samples into mono.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	mono := make([]float64, 0, len(interleaved)/channels)
	for i := 0; i+channels <= len(interleaved); i += channels {
		var sum float64
		for c := range channels {
			sum += interleaved[i+c]
		}
		mono = append(mono, sum/float64(channels))
	}
	return mono
}

func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.Newf("unsupported audio bit depth: %d", bitDepth).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}
}
