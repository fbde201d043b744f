package features

import "math"

// rolloffPercentile is the cumulative-energy fraction defining the rolloff
// frequency of a frame.
const rolloffPercentile = 0.85

// spectralCentroid returns the magnitude-weighted mean frequency per frame.
// Silent frames yield zero.
func (e *Extractor) spectralCentroid(spec [][]float64, sampleRate int) []float64 {
	out := make([]float64, len(spec))
	for f, frame := range spec {
		var weighted, total float64
		for k, mag := range frame {
			weighted += e.binFrequency(k, sampleRate) * mag
			total += mag
		}
		if total > 0 {
			out[f] = weighted / total
		}
	}
	return out
}

// spectralRolloff returns, per frame, the frequency below which 85% of the
// spectral energy is contained. Silent frames yield zero.
func (e *Extractor) spectralRolloff(spec [][]float64, sampleRate int) []float64 {
	out := make([]float64, len(spec))
	for f, frame := range spec {
		var total float64
		for _, mag := range frame {
			total += mag
		}
		if total == 0 {
			continue
		}
		threshold := rolloffPercentile * total
		var cumulative float64
		for k, mag := range frame {
			cumulative += mag
			if cumulative >= threshold {
				out[f] = e.binFrequency(k, sampleRate)
				break
			}
		}
	}
	return out
}

// spectralBandwidth returns the magnitude-weighted standard deviation of
// frequency around the centroid per frame. Silent frames yield zero.
func (e *Extractor) spectralBandwidth(spec [][]float64, sampleRate int) []float64 {
	centroids := e.spectralCentroid(spec, sampleRate)
	out := make([]float64, len(spec))
	for f, frame := range spec {
		var weighted, total float64
		for k, mag := range frame {
			d := e.binFrequency(k, sampleRate) - centroids[f]
			weighted += mag * d * d
			total += mag
		}
		if total > 0 {
			out[f] = math.Sqrt(weighted / total)
		}
	}
	return out
}

// zeroCrossingRate returns the fraction of sign changes per analysis frame of
// the padded time-domain signal, using the same framing as the spectrogram.
func (e *Extractor) zeroCrossingRate(padded []float64) []float64 {
	frames := frameCount(len(padded), e.nFFT, e.hop)
	out := make([]float64, frames)
	for f := range frames {
		start := f * e.hop
		end := start + e.nFFT
		if end > len(padded) {
			end = len(padded)
		}
		if end-start < 2 {
			continue
		}
		var crossings int
		for i := start + 1; i < end; i++ {
			if (padded[i-1] >= 0) != (padded[i] >= 0) {
				crossings++
			}
		}
		out[f] = float64(crossings) / float64(end-start)
	}
	return out
}
