package features

import "math"

// chroma distributes per-frame spectral power across the pitch classes and
// returns one row per class (row 0 = C), one column per frame. Each frame is
// normalized by its maximum so chroma describes pitch-class shape, not level.
func (e *Extractor) chroma(spec [][]float64, sampleRate int) [][]float64 {
	rows := make([][]float64, e.nChroma)
	for i := range rows {
		rows[i] = make([]float64, len(spec))
	}

	// Pitch class per FFT bin; -1 marks the DC bin, which carries no pitch.
	nBins := e.nFFT/2 + 1
	classOf := make([]int, nBins)
	classOf[0] = -1
	for k := 1; k < nBins; k++ {
		midi := 69 + 12*math.Log2(e.binFrequency(k, sampleRate)/440.0)
		pc := int(math.Round(midi)) % 12
		if pc < 0 {
			pc += 12
		}
		classOf[k] = pc % e.nChroma
	}

	frameEnergy := make([]float64, e.nChroma)
	for f, frame := range spec {
		for i := range frameEnergy {
			frameEnergy[i] = 0
		}
		for k := 1; k < nBins; k++ {
			frameEnergy[classOf[k]] += frame[k] * frame[k]
		}

		var peak float64
		for _, v := range frameEnergy {
			if v > peak {
				peak = v
			}
		}
		if peak == 0 {
			continue // silent frame, leave the column at zero
		}
		for i, v := range frameEnergy {
			rows[i][f] = v / peak
		}
	}
	return rows
}
