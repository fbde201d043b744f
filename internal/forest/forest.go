// Package forest implements the bagged decision-tree ensemble used to
// classify feature vectors as human or AI-generated speech, together with its
// training, evaluation and persistence code.
//
// The ensemble is deliberately plain: CART trees on Gini impurity, bootstrap
// sampling, sqrt-feature subsampling per split, balanced class weights and
// probability voting. Inference is a few thousand float comparisons, fast
// enough that a request spends its time in feature extraction, not here.
package forest

import (
	"math"
	"math/rand"

	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

// Class indices, aligned with training labels (0 = human, 1 = AI).
const (
	ClassHuman = iota
	ClassAI
)

// DefaultClassNames is the fixed class-name ordering persisted with every
// artifact.
var DefaultClassNames = []string{"HUMAN", "AI_GENERATED"}

// ErrNotTrained is returned by Predict when no model has been trained or
// loaded.
var ErrNotTrained = errors.Newf("model not trained: train or load a model first").
	Component("forest").
	Category(errors.CategoryModelState).
	Build()

// Forest is the trained classifier. Fields are exported for gob encoding;
// a loaded Forest is immutable and safe for unsynchronized concurrent reads.
type Forest struct {
	Config       conf.ForestSettings
	Trees        []Tree
	FeatureNames []string
	ClassNames   []string
	Trained      bool
}

// New creates an untrained Forest with the given hyperparameters.
func New(config *conf.ForestSettings) *Forest {
	return &Forest{
		Config:     *config,
		ClassNames: DefaultClassNames,
	}
}

// Predict returns the majority class name and its vote probability.
func (f *Forest) Predict(features []float64) (string, float64, error) {
	probs, err := f.PredictProba(features)
	if err != nil {
		return "", 0, err
	}

	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return f.ClassNames[best], probs[best], nil
}

// PredictProba returns per-class probabilities, averaged over all trees.
func (f *Forest) PredictProba(features []float64) ([]float64, error) {
	if !f.Trained || len(f.Trees) == 0 {
		return nil, ErrNotTrained
	}
	if len(features) != len(f.FeatureNames) {
		return nil, errors.Newf("feature vector length %d does not match model schema length %d",
			len(features), len(f.FeatureNames)).
			Component("forest").
			Category(errors.CategoryValidation).
			Build()
	}

	probs := make([]float64, len(f.ClassNames))
	for i := range f.Trees {
		leaf := f.Trees[i].predict(features)
		for c, p := range leaf {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs, nil
}

// NumClasses returns the number of classes the forest separates.
func (f *Forest) NumClasses() int {
	return len(f.ClassNames)
}

// fit trains the ensemble on the given rows. Class weights follow the
// "balanced" scheme: n_samples / (n_classes * count_c), computed over the
// full training set so minority-class mistakes cost more.
func (f *Forest) fit(x [][]float64, y []int, rng *rand.Rand) {
	nClasses := len(f.ClassNames)
	weights := balancedClassWeights(y, nClasses)

	maxFeatures := int(math.Sqrt(float64(len(x[0]))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	builder := treeBuilder{
		maxDepth:        f.Config.MaxDepth,
		minSamplesSplit: f.Config.MinSamplesSplit,
		minSamplesLeaf:  f.Config.MinSamplesLeaf,
		maxFeatures:     maxFeatures,
		nClasses:        nClasses,
		classWeights:    weights,
	}

	f.Trees = make([]Tree, f.Config.Trees)
	for t := range f.Trees {
		sample := bootstrap(len(x), rng)
		f.Trees[t] = builder.build(x, y, sample, rng)
	}
	f.Trained = true
}

// bootstrap draws n indices with replacement.
func bootstrap(n int, rng *rand.Rand) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	return sample
}

func balancedClassWeights(y []int, nClasses int) []float64 {
	counts := make([]int, nClasses)
	for _, label := range y {
		counts[label]++
	}
	weights := make([]float64, nClasses)
	for c, count := range counts {
		if count > 0 {
			weights[c] = float64(len(y)) / (float64(nClasses) * float64(count))
		}
	}
	return weights
}
