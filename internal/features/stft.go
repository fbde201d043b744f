package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// spectrogram computes the magnitude spectrogram of an already-padded signal:
// one row per frame, nFFT/2+1 bins per row, Hann window applied per frame.
func (e *Extractor) spectrogram(padded []float64) [][]float64 {
	window := hann(e.nFFT)
	fft := fourier.NewFFT(e.nFFT)

	frames := frameCount(len(padded), e.nFFT, e.hop)
	nBins := e.nFFT/2 + 1

	spec := make([][]float64, frames)
	buf := make([]float64, e.nFFT)
	coeffs := make([]complex128, nBins)

	for f := range frames {
		start := f * e.hop
		for i := range e.nFFT {
			if start+i < len(padded) {
				buf[i] = padded[start+i] * window[i]
			} else {
				buf[i] = 0
			}
		}
		fft.Coefficients(coeffs, buf)

		row := make([]float64, nBins)
		for k, c := range coeffs {
			row[k] = math.Hypot(real(c), imag(c))
		}
		spec[f] = row
	}
	return spec
}

// frameCount returns the number of complete analysis frames; a signal shorter
// than one window still yields a single zero-padded frame so downstream
// statistics always have at least one observation.
func frameCount(n, nFFT, hop int) int {
	if n < nFFT {
		return 1
	}
	return 1 + (n-nFFT)/hop
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range n {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// binFrequency returns the center frequency in Hz of FFT bin k.
func (e *Extractor) binFrequency(k, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(e.nFFT)
}
