package forest

import (
	"math/rand"
	"sort"
)

// Node is one decision node in flattened form. Leaves have Feature == -1 and
// carry the weighted class distribution of their training samples.
type Node struct {
	Feature   int32 // split feature index, -1 for leaf
	Threshold float64
	Left      int32 // index of the left child in Tree.Nodes
	Right     int32
	Probs     []float64 // leaf only
}

// Tree is a single CART tree stored as a flat node slice, which keeps gob
// encoding simple and traversal cache-friendly.
type Tree struct {
	Nodes []Node
}

// predict walks the tree and returns the leaf class distribution.
func (t *Tree) predict(features []float64) []float64 {
	idx := int32(0)
	for {
		node := &t.Nodes[idx]
		if node.Feature < 0 {
			return node.Probs
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

type treeBuilder struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	nClasses        int
	classWeights    []float64
}

// build grows one tree on the bootstrap sample.
func (b *treeBuilder) build(x [][]float64, y []int, sample []int, rng *rand.Rand) Tree {
	tree := Tree{}
	b.grow(&tree, x, y, sample, 0, rng)
	return tree
}

// grow appends the subtree for the given samples and returns its root index.
func (b *treeBuilder) grow(tree *Tree, x [][]float64, y []int, samples []int, depth int, rng *rand.Rand) int32 {
	idx := int32(len(tree.Nodes))
	tree.Nodes = append(tree.Nodes, Node{Feature: -1})

	if depth >= b.maxDepth || len(samples) < b.minSamplesSplit || b.pure(y, samples) {
		tree.Nodes[idx].Probs = b.leafProbs(y, samples)
		return idx
	}

	feature, threshold, ok := b.bestSplit(x, y, samples, rng)
	if !ok {
		tree.Nodes[idx].Probs = b.leafProbs(y, samples)
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) < b.minSamplesLeaf || len(right) < b.minSamplesLeaf {
		tree.Nodes[idx].Probs = b.leafProbs(y, samples)
		return idx
	}

	tree.Nodes[idx].Feature = int32(feature)
	tree.Nodes[idx].Threshold = threshold
	tree.Nodes[idx].Left = b.grow(tree, x, y, left, depth+1, rng)
	tree.Nodes[idx].Right = b.grow(tree, x, y, right, depth+1, rng)
	return idx
}

func (b *treeBuilder) pure(y []int, samples []int) bool {
	first := y[samples[0]]
	for _, s := range samples[1:] {
		if y[s] != first {
			return false
		}
	}
	return true
}

// leafProbs returns the weighted, normalized class distribution of samples.
func (b *treeBuilder) leafProbs(y []int, samples []int) []float64 {
	probs := make([]float64, b.nClasses)
	var total float64
	for _, s := range samples {
		w := b.classWeights[y[s]]
		probs[y[s]] += w
		total += w
	}
	if total > 0 {
		for c := range probs {
			probs[c] /= total
		}
	}
	return probs
}

// bestSplit searches a random feature subset for the split with the lowest
// weighted Gini impurity. Returns ok=false when no feature admits a split.
func (b *treeBuilder) bestSplit(x [][]float64, y []int, samples []int, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(x[0])
	candidates := rng.Perm(nFeatures)[:b.maxFeatures]

	bestGini := 1e18
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(samples))
	leftCounts := make([]float64, b.nClasses)
	rightCounts := make([]float64, b.nClasses)

	for _, feature := range candidates {
		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool {
			return x[sorted[i]][feature] < x[sorted[j]][feature]
		})

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = 0
		}
		var rightTotal float64
		for _, s := range sorted {
			rightCounts[y[s]] += b.classWeights[y[s]]
			rightTotal += b.classWeights[y[s]]
		}
		var leftTotal float64

		// Move samples left one at a time; each boundary between distinct
		// consecutive values is a candidate threshold.
		for i := 0; i < len(sorted)-1; i++ {
			s := sorted[i]
			w := b.classWeights[y[s]]
			leftCounts[y[s]] += w
			leftTotal += w
			rightCounts[y[s]] -= w
			rightTotal -= w

			v, next := x[s][feature], x[sorted[i+1]][feature]
			if v == next {
				continue
			}
			if i+1 < b.minSamplesLeaf || len(sorted)-i-1 < b.minSamplesLeaf {
				continue
			}

			gini := weightedGini(leftCounts, leftTotal)*leftTotal + weightedGini(rightCounts, rightTotal)*rightTotal
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func weightedGini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	gini := 1.0
	for _, c := range counts {
		p := c / total
		gini -= p * p
	}
	return gini
}
