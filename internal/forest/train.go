package forest

import (
	"math"
	"math/rand"

	"github.com/verbalis/voicedetect-go/internal/errors"
)

// testFraction is the held-out share of the stratified train/test split.
const testFraction = 0.2

// cvFolds is the cross-validation fold count reported as a sanity metric.
const cvFolds = 5

// Metrics summarizes a training run.
type Metrics struct {
	TrainSamples int
	TestSamples  int
	CVScores     []float64
	CVMean       float64
	CVStd        float64
	TestAccuracy float64
	Confusion    [][]int   // [actual][predicted]
	Precision    []float64 // per class
	Recall       []float64 // per class
}

// Train fits the ensemble: stratified 80/20 split, cross-validation on the
// training split, final fit on the full training split and evaluation on the
// held-out samples. The split and all sampling derive from the configured
// seed, so repeated runs on the same data produce the same model.
func (f *Forest) Train(x [][]float64, y []int, featureNames []string) (*Metrics, error) {
	if err := f.validateTrainingData(x, y, featureNames); err != nil {
		return nil, err
	}
	f.FeatureNames = featureNames

	rng := rand.New(rand.NewSource(f.Config.Seed)) //nolint:gosec // reproducibility, not cryptography

	trainIdx, testIdx := stratifiedSplit(y, testFraction, rng)

	metrics := &Metrics{
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
	}

	metrics.CVScores = f.crossValidate(x, y, trainIdx, rng)
	metrics.CVMean, metrics.CVStd = meanStd(metrics.CVScores)

	f.fit(gather(x, trainIdx), gatherLabels(y, trainIdx), rng)

	f.evaluate(x, y, testIdx, metrics)
	return metrics, nil
}

func (f *Forest) validateTrainingData(x [][]float64, y []int, featureNames []string) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.Newf("training data shape mismatch: %d samples, %d labels", len(x), len(y)).
			Component("forest").
			Category(errors.CategoryValidation).
			Build()
	}
	for _, row := range x {
		if len(row) != len(featureNames) {
			return errors.Newf("sample length %d does not match feature schema length %d", len(row), len(featureNames)).
				Component("forest").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	counts := make([]int, len(f.ClassNames))
	for _, label := range y {
		if label < 0 || label >= len(f.ClassNames) {
			return errors.Newf("label %d outside class range", label).
				Component("forest").
				Category(errors.CategoryValidation).
				Build()
		}
		counts[label]++
	}
	for c, count := range counts {
		if count == 0 {
			return errors.Newf("no training samples for class %s", f.ClassNames[c]).
				Component("forest").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}

// crossValidate runs stratified k-fold cross-validation over the training
// indices, fitting a fresh clone per fold. Returns nil when the data is too
// small to fold.
func (f *Forest) crossValidate(x [][]float64, y []int, trainIdx []int, rng *rand.Rand) []float64 {
	folds := stratifiedFolds(y, trainIdx, cvFolds, rng)
	if len(folds) < 2 {
		return nil
	}

	scores := make([]float64, 0, len(folds))
	for held := range folds {
		var fitIdx []int
		for i, fold := range folds {
			if i != held {
				fitIdx = append(fitIdx, fold...)
			}
		}

		clone := New(&f.Config)
		clone.FeatureNames = f.FeatureNames
		clone.fit(gather(x, fitIdx), gatherLabels(y, fitIdx), rng)

		var correct int
		for _, s := range folds[held] {
			probs, err := clone.PredictProba(x[s])
			if err != nil {
				continue
			}
			if argmax(probs) == y[s] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(folds[held])))
	}
	return scores
}

// evaluate fills accuracy, confusion matrix and per-class precision/recall
// from the held-out split.
func (f *Forest) evaluate(x [][]float64, y []int, testIdx []int, metrics *Metrics) {
	n := f.NumClasses()
	metrics.Confusion = make([][]int, n)
	for i := range metrics.Confusion {
		metrics.Confusion[i] = make([]int, n)
	}

	var correct int
	for _, s := range testIdx {
		probs, err := f.PredictProba(x[s])
		if err != nil {
			continue
		}
		pred := argmax(probs)
		metrics.Confusion[y[s]][pred]++
		if pred == y[s] {
			correct++
		}
	}
	if len(testIdx) > 0 {
		metrics.TestAccuracy = float64(correct) / float64(len(testIdx))
	}

	metrics.Precision = make([]float64, n)
	metrics.Recall = make([]float64, n)
	for c := range n {
		var predicted, actual int
		for other := range n {
			predicted += metrics.Confusion[other][c]
			actual += metrics.Confusion[c][other]
		}
		if predicted > 0 {
			metrics.Precision[c] = float64(metrics.Confusion[c][c]) / float64(predicted)
		}
		if actual > 0 {
			metrics.Recall[c] = float64(metrics.Confusion[c][c]) / float64(actual)
		}
	}
}

// stratifiedSplit shuffles each class independently and holds out the test
// fraction of every class, so class balance survives the split.
func stratifiedSplit(y []int, fraction float64, rng *rand.Rand) (train, test []int) {
	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		cut := int(math.Round(float64(len(indices)) * fraction))
		if cut == 0 && len(indices) > 1 {
			cut = 1
		}
		test = append(test, indices[:cut]...)
		train = append(train, indices[cut:]...)
	}
	return train, test
}

// stratifiedFolds distributes each class round-robin over k folds. Folds that
// would be empty are dropped.
func stratifiedFolds(y []int, indices []int, k int, rng *rand.Rand) [][]int {
	byClass := map[int][]int{}
	for _, i := range indices {
		byClass[y[i]] = append(byClass[y[i]], i)
	}

	folds := make([][]int, k)
	for _, classIdx := range byClass {
		rng.Shuffle(len(classIdx), func(i, j int) {
			classIdx[i], classIdx[j] = classIdx[j], classIdx[i]
		})
		for i, s := range classIdx {
			folds[i%k] = append(folds[i%k], s)
		}
	}

	var nonEmpty [][]int
	for _, fold := range folds {
		if len(fold) > 0 {
			nonEmpty = append(nonEmpty, fold)
		}
	}
	return nonEmpty
}

func gather(x [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, s := range indices {
		out[i] = x[s]
	}
	return out
}

func gatherLabels(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, s := range indices {
		out[i] = y[s]
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
