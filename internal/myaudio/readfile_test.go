package myaudio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

func testSettings() *conf.Settings {
	return &conf.Settings{
		Audio: conf.AudioSettings{
			SampleRate:     16000,
			MaxClipSeconds: 60,
			MinClipSeconds: 0.5,
		},
	}
}

// writeTestWAV writes a 16-bit mono sine tone and returns its path.
func writeTestWAV(t *testing.T, sampleRate int, seconds float64, freq float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	file, err := os.Create(path)
	require.NoError(t, err)

	samples := int(seconds * float64(sampleRate))
	data := make([]int, samples)
	for i := range data {
		data[i] = int(30000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}

	enc := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	err = enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, file.Close())
	return path
}

func TestReadFileWAV(t *testing.T) {
	settings := testSettings()
	path := writeTestWAV(t, 16000, 1.0, 440)

	wave, rate, err := ReadFile(context.Background(), settings, path)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Len(t, wave, 16000)

	var peak float64
	for _, s := range wave {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	assert.InDelta(t, 1.0, peak, 1e-9, "waveform must be peak normalized")
}

func TestReadFileResamples(t *testing.T) {
	settings := testSettings()
	path := writeTestWAV(t, 8000, 1.0, 440)

	wave, rate, err := ReadFile(context.Background(), settings, path)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Len(t, wave, 16000)
}

func TestReadFileTruncates(t *testing.T) {
	settings := testSettings()
	settings.Audio.MaxClipSeconds = 1.0
	path := writeTestWAV(t, 16000, 3.0, 440)

	wave, _, err := ReadFile(context.Background(), settings, path)
	require.NoError(t, err)
	assert.Len(t, wave, 16000)
}

func TestReadFileTooShort(t *testing.T) {
	settings := testSettings()
	path := writeTestWAV(t, 16000, 0.2, 440)

	_, _, err := ReadFile(context.Background(), settings, path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAudioDecode))
	assert.Contains(t, err.Error(), "audio too short")
}

func TestReadFileMissing(t *testing.T) {
	settings := testSettings()

	_, _, err := ReadFile(context.Background(), settings, filepath.Join(t.TempDir(), "absent.wav"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileIO))
}

func TestReadFileInvalidWAV(t *testing.T) {
	settings := testSettings()
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("this is not audio"), 0o644))

	_, _, err := ReadFile(context.Background(), settings, path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAudioDecode))
}

func TestNormalize(t *testing.T) {
	wave := []float64{0.1, -0.5, 0.25}
	Normalize(wave)
	assert.InDelta(t, 0.2, wave[0], 1e-12)
	assert.InDelta(t, -1.0, wave[1], 1e-12)
	assert.InDelta(t, 0.5, wave[2], 1e-12)

	silence := []float64{0, 0, 0}
	Normalize(silence)
	assert.Equal(t, []float64{0, 0, 0}, silence)
}

func TestDownmix(t *testing.T) {
	stereo := []float64{1, 0, 0.5, 0.5, -1, 1}
	mono := downmix(stereo, 2)
	assert.Equal(t, []float64{0.5, 0.5, 0}, mono)

	passthrough := []float64{1, 2, 3}
	assert.Equal(t, passthrough, downmix(passthrough, 1))
}

func TestGetAudioDivisor(t *testing.T) {
	for bits, want := range map[int]float64{16: 32768, 24: 8388608, 32: 2147483648} {
		divisor, err := getAudioDivisor(bits)
		require.NoError(t, err)
		assert.Equal(t, want, divisor)
	}

	_, err := getAudioDivisor(8)
	assert.Error(t, err)
}

func TestResample(t *testing.T) {
	t.Run("same rate passthrough", func(t *testing.T) {
		wave := []float64{1, 2, 3}
		assert.Equal(t, wave, Resample(wave, 16000, 16000))
	})

	t.Run("upsampling doubles length", func(t *testing.T) {
		wave := make([]float64, 8000)
		for i := range wave {
			wave[i] = math.Sin(2 * math.Pi * 100 * float64(i) / 8000)
		}
		out := Resample(wave, 8000, 16000)
		assert.Len(t, out, 16000)
	})

	t.Run("constant signal stays constant", func(t *testing.T) {
		wave := make([]float64, 100)
		for i := range wave {
			wave[i] = 0.7
		}
		out := Resample(wave, 8000, 16000)
		for _, s := range out {
			assert.InDelta(t, 0.7, s, 1e-9)
		}
	})

	t.Run("short input falls back to nearest", func(t *testing.T) {
		out := Resample([]float64{1, 2}, 8000, 16000)
		assert.Len(t, out, 4)
	})
}
