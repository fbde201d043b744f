package features

import (
	"math"
)

// logFloor guards the log of silent mel bands; -100 dB relative to full scale.
const logFloor = 1e-10

// mfcc computes nMFCC cepstral coefficients per frame and returns them
// transposed: one row per coefficient, one column per frame.
func (e *Extractor) mfcc(spec [][]float64, sampleRate int) [][]float64 {
	filterbank := e.melFilterbank(sampleRate)
	dct := dctMatrix(e.nMFCC, e.nMels)

	rows := make([][]float64, e.nMFCC)
	for i := range rows {
		rows[i] = make([]float64, len(spec))
	}

	melEnergies := make([]float64, e.nMels)
	for f, frame := range spec {
		// Mel-weighted log power spectrum.
		for m, filter := range filterbank {
			var sum float64
			for _, w := range filter {
				sum += w.weight * frame[w.bin] * frame[w.bin]
			}
			melEnergies[m] = 10 * math.Log10(sum+logFloor)
		}
		for k := range e.nMFCC {
			var c float64
			for m := range e.nMels {
				c += dct[k][m] * melEnergies[m]
			}
			rows[k][f] = c
		}
	}
	return rows
}

// binWeight is one FFT bin's contribution to a mel filter.
type binWeight struct {
	bin    int
	weight float64
}

// melFilterbank builds nMels triangular filters over the HTK mel scale
// spanning 0 Hz to Nyquist. Filters are stored sparsely: only bins with
// non-zero weight.
func (e *Extractor) melFilterbank(sampleRate int) [][]binWeight {
	nBins := e.nFFT/2 + 1
	melMax := hzToMel(float64(sampleRate) / 2)

	// Band edge frequencies, nMels+2 points equally spaced in mel.
	edges := make([]float64, e.nMels+2)
	for i := range edges {
		edges[i] = melToHz(melMax * float64(i) / float64(e.nMels+1))
	}

	filters := make([][]binWeight, e.nMels)
	for m := range e.nMels {
		lower, center, upper := edges[m], edges[m+1], edges[m+2]
		var filter []binWeight
		for k := range nBins {
			f := e.binFrequency(k, sampleRate)
			var w float64
			switch {
			case f <= lower || f >= upper:
				continue
			case f <= center:
				w = (f - lower) / (center - lower)
			default:
				w = (upper - f) / (upper - center)
			}
			if w > 0 {
				filter = append(filter, binWeight{bin: k, weight: w})
			}
		}
		filters[m] = filter
	}
	return filters
}

// dctMatrix returns the orthonormal DCT-II basis, nCoeffs rows by n columns.
func dctMatrix(nCoeffs, n int) [][]float64 {
	m := make([][]float64, nCoeffs)
	for k := range nCoeffs {
		m[k] = make([]float64, n)
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		for i := range n {
			m[k][i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
	}
	return m
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
