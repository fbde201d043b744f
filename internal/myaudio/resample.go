package myaudio

// Resample converts audio from originalRate to targetRate using cubic
// interpolation. Inputs shorter than the interpolation kernel fall back to
// nearest-sample copying.
func Resample(wave []float64, originalRate, targetRate int) []float64 {
	if originalRate == targetRate || len(wave) == 0 {
		return wave
	}

	ratio := float64(targetRate) / float64(originalRate)
	newLength := int(float64(len(wave)) * ratio)
	if newLength == 0 {
		return nil
	}
	resampled := make([]float64, newLength)

	if len(wave) < 4 {
		for i := range resampled {
			idx := int(float64(i) / ratio)
			if idx >= len(wave) {
				idx = len(wave) - 1
			}
			resampled[i] = wave[idx]
		}
		return resampled
	}

	lastIndex := len(wave) - 3

	for i := range newLength {
		origPos := float64(i) / ratio
		index := int(origPos)

		// Clamp index to keep the 4-point kernel in bounds.
		if index < 1 {
			index = 1
		} else if index > lastIndex {
			index = lastIndex
		}

		frac := origPos - float64(index)

		y0, y1, y2, y3 := wave[index-1], wave[index], wave[index+1], wave[index+2]
		mu2 := frac * frac
		a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
		a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
		a2 := -0.5*y0 + 0.5*y2
		a3 := y1

		resampled[i] = a0*frac*mu2 + a1*mu2 + a2*frac + a3
	}

	return resampled
}
