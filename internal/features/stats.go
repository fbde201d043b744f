package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// summarize reduces a descriptor row over the time axis to the four summary
// statistics, in the fixed order the model schema depends on: mean, standard
// deviation (population), min, max.
func summarize(row []float64) []float64 {
	if len(row) == 0 {
		return []float64{0, 0, 0, 0}
	}
	return []float64{
		stat.Mean(row, nil),
		stat.PopStdDev(row, nil),
		floats.Min(row),
		floats.Max(row),
	}
}
