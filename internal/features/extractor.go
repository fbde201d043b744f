// Package features converts a normalized waveform into the fixed-length
// acoustic descriptor vector the classifier was trained on.
//
// Six frame-level descriptors are computed over a sliding Hann-windowed
// analysis grid: 13 MFCCs, spectral centroid, spectral rolloff, zero-crossing
// rate, spectral bandwidth and a 12-bin chroma distribution. Each descriptor
// row is summarized over time as mean, standard deviation, minimum and
// maximum, always in that order, giving (13+1+1+1+1+12)*4 = 116 values.
//
// The vector layout is a load-bearing contract: a model trained against one
// ordering must only ever see vectors produced by the same ordering.
// FeatureNames enumerates the layout and the model artifact embeds it so a
// mismatch fails at load time instead of silently producing garbage.
package features

import (
	"fmt"

	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

// statsPerRow is the number of summary statistics per descriptor row.
const statsPerRow = 4

// Extractor computes feature vectors. It is stateless apart from its
// parameters and safe for concurrent use.
type Extractor struct {
	nFFT    int
	hop     int
	nMFCC   int
	nMels   int
	nChroma int
}

// New creates an Extractor from the feature settings.
func New(settings *conf.FeatureSettings) *Extractor {
	return &Extractor{
		nFFT:    settings.NFFT,
		hop:     settings.Hop,
		nMFCC:   settings.NMFCC,
		nMels:   settings.NMels,
		nChroma: settings.NChroma,
	}
}

// Dim returns the length of the extracted vector.
func (e *Extractor) Dim() int {
	return (e.nMFCC + 4 + e.nChroma) * statsPerRow
}

// Extract computes the feature vector for a waveform. The result is
// deterministic: identical input yields bit-identical output.
func (e *Extractor) Extract(wave []float64, sampleRate int) ([]float64, error) {
	if len(wave) == 0 {
		return nil, errors.Newf("cannot extract features from empty waveform").
			Component("features").
			Category(errors.CategoryFeatures).
			Build()
	}
	if sampleRate <= 0 {
		return nil, errors.Newf("invalid sample rate: %d", sampleRate).
			Component("features").
			Category(errors.CategoryFeatures).
			Build()
	}

	padded := reflectPad(wave, e.nFFT/2)
	spec := e.spectrogram(padded)

	vector := make([]float64, 0, e.Dim())

	mfcc := e.mfcc(spec, sampleRate)
	for _, row := range mfcc {
		vector = append(vector, summarize(row)...)
	}

	vector = append(vector, summarize(e.spectralCentroid(spec, sampleRate))...)
	vector = append(vector, summarize(e.spectralRolloff(spec, sampleRate))...)
	vector = append(vector, summarize(e.zeroCrossingRate(padded))...)
	vector = append(vector, summarize(e.spectralBandwidth(spec, sampleRate))...)

	chroma := e.chroma(spec, sampleRate)
	for _, row := range chroma {
		vector = append(vector, summarize(row)...)
	}

	if len(vector) != e.Dim() {
		return nil, errors.Newf("feature vector length %d does not match schema length %d", len(vector), e.Dim()).
			Component("features").
			Category(errors.CategoryFeatures).
			Build()
	}
	return vector, nil
}

// FeatureNames enumerates the vector layout in extraction order. The model
// artifact stores this list verbatim.
func (e *Extractor) FeatureNames() []string {
	stats := []string{"mean", "std", "min", "max"}
	names := make([]string, 0, e.Dim())

	for i := range e.nMFCC {
		for _, s := range stats {
			names = append(names, fmt.Sprintf("mfcc_%d_%s", i, s))
		}
	}
	for _, base := range []string{"spectral_centroid", "spectral_rolloff", "zero_crossing_rate", "spectral_bandwidth"} {
		for _, s := range stats {
			names = append(names, fmt.Sprintf("%s_%s", base, s))
		}
	}
	for i := range e.nChroma {
		for _, s := range stats {
			names = append(names, fmt.Sprintf("chroma_%d_%s", i, s))
		}
	}
	return names
}

// reflectPad mirrors pad samples around both edges so analysis frames are
// centered on the signal, matching the framing used at training time.
func reflectPad(wave []float64, pad int) []float64 {
	n := len(wave)
	if n == 0 {
		return wave
	}
	out := make([]float64, 0, n+2*pad)
	for i := pad; i > 0; i-- {
		out = append(out, wave[reflectIndex(i, n)])
	}
	out = append(out, wave...)
	for i := 1; i <= pad; i++ {
		out = append(out, wave[reflectIndex(n-1-i, n)])
	}
	return out
}

// reflectIndex folds an out-of-range index back into [0, n) by reflection.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
