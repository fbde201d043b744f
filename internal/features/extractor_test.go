package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verbalis/voicedetect-go/internal/conf"
)

func testSettings() *conf.FeatureSettings {
	return &conf.FeatureSettings{
		NFFT:    2048,
		Hop:     512,
		NMFCC:   13,
		NMels:   128,
		NChroma: 12,
	}
}

// sine generates a mono test tone.
func sine(freq float64, sampleRate, samples int) []float64 {
	wave := make([]float64, samples)
	for i := range wave {
		wave[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return wave
}

func TestExtractorDim(t *testing.T) {
	e := New(testSettings())
	assert.Equal(t, 116, e.Dim())
	assert.Len(t, e.FeatureNames(), e.Dim())
}

func TestExtractVectorLength(t *testing.T) {
	e := New(testSettings())

	vector, err := e.Extract(sine(440, 16000, 16000), 16000)
	require.NoError(t, err)
	require.Len(t, vector, 116)

	for i, v := range vector {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "value %d is not finite: %v", i, v)
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := New(testSettings())
	wave := sine(440, 16000, 16000)

	first, err := e.Extract(wave, 16000)
	require.NoError(t, err)
	second, err := e.Extract(wave, 16000)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must produce bit-identical output")
}

func TestExtractSilence(t *testing.T) {
	e := New(testSettings())

	vector, err := e.Extract(make([]float64, 16000), 16000)
	require.NoError(t, err)
	require.Len(t, vector, 116)

	for i, v := range vector {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "value %d is not finite: %v", i, v)
	}

	// All frames of a constant signal are identical, so every std must be
	// zero. The layout is groups of four: mean, std, min, max.
	for i := 1; i < len(vector); i += 4 {
		assert.InDelta(t, 0, vector[i], 1e-9, "std at index %d", i)
	}
}

func TestExtractShortSignal(t *testing.T) {
	e := New(testSettings())

	// Shorter than one analysis window still yields one frame per descriptor.
	vector, err := e.Extract(sine(200, 16000, 512), 16000)
	require.NoError(t, err)
	assert.Len(t, vector, 116)
}

func TestExtractRejectsBadInput(t *testing.T) {
	e := New(testSettings())

	_, err := e.Extract(nil, 16000)
	assert.Error(t, err)

	_, err = e.Extract(sine(440, 16000, 1000), 0)
	assert.Error(t, err)
}

func TestFeatureNamesLayout(t *testing.T) {
	e := New(testSettings())
	names := e.FeatureNames()

	require.Len(t, names, 116)
	assert.Equal(t, "mfcc_0_mean", names[0])
	assert.Equal(t, "mfcc_0_std", names[1])
	assert.Equal(t, "mfcc_12_max", names[13*4-1])
	assert.Equal(t, "spectral_centroid_mean", names[13*4])
	assert.Equal(t, "spectral_rolloff_mean", names[14*4])
	assert.Equal(t, "zero_crossing_rate_mean", names[15*4])
	assert.Equal(t, "spectral_bandwidth_mean", names[16*4])
	assert.Equal(t, "chroma_0_mean", names[17*4])
	assert.Equal(t, "chroma_11_max", names[115])

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		assert.False(t, seen[name], "duplicate feature name %s", name)
		seen[name] = true
	}
}

func TestCentroidTracksFrequency(t *testing.T) {
	e := New(testSettings())

	low, err := e.Extract(sine(200, 16000, 16000), 16000)
	require.NoError(t, err)
	high, err := e.Extract(sine(3000, 16000, 16000), 16000)
	require.NoError(t, err)

	// spectral_centroid_mean sits right after the MFCC block.
	centroidIdx := 13 * 4
	assert.Greater(t, high[centroidIdx], low[centroidIdx],
		"higher tone must have a higher spectral centroid")
}

func TestReflectPad(t *testing.T) {
	wave := []float64{1, 2, 3, 4, 5}
	padded := reflectPad(wave, 2)

	assert.Equal(t, []float64{3, 2, 1, 2, 3, 4, 5, 4, 3}, padded)
}

func TestReflectIndex(t *testing.T) {
	assert.Equal(t, 0, reflectIndex(0, 5))
	assert.Equal(t, 3, reflectIndex(-3, 5))
	assert.Equal(t, 3, reflectIndex(5, 5))
	assert.Equal(t, 0, reflectIndex(0, 1))
}
