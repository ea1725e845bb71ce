package model

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a CART tree. Feature is -1 on leaves; leaves carry the
// weighted class counts observed during training.
type Node struct {
	Feature   int        `json:"feature"`
	Threshold float64    `json:"threshold"`
	Left      int        `json:"left"`
	Right     int        `json:"right"`
	Dist      [2]float64 `json:"dist"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a random forest of CART trees for the binary offload decision
// (class 0 = local, class 1 = remote).
type Forest struct {
	Version     string `json:"version"`
	NumFeatures int    `json:"num_features"`
	Trees       []Tree `json:"trees"`
}

// ForestParams bound the ensemble: a small depth biases towards
// generalization over memorization of individual benchmark rows.
type ForestParams struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

const minSamplesSplit = 2

// TrainForest fits the ensemble on x/y with class-balanced sample weights.
// Each tree is grown on a bootstrap resample, considering sqrt(d) random
// features per split. A fixed seed reproduces the forest exactly.
func TrainForest(x [][]float64, y []int, p ForestParams) *Forest {
	n := len(x)
	d := 0
	if n > 0 {
		d = len(x[0])
	}

	// balanced weighting: w_c = n / (2 * n_c)
	counts := [2]float64{}
	for _, label := range y {
		counts[label]++
	}
	classWeight := [2]float64{1, 1}
	for c := 0; c < 2; c++ {
		if counts[c] > 0 {
			classWeight[c] = float64(n) / (2 * counts[c])
		}
	}

	mtry := int(math.Sqrt(float64(d)))
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(p.Seed))
	forest := &Forest{NumFeatures: d, Trees: make([]Tree, 0, p.Trees)}

	for t := 0; t < p.Trees; t++ {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}

		builder := treeBuilder{
			x:           x,
			y:           y,
			classWeight: classWeight,
			maxDepth:    p.MaxDepth,
			mtry:        mtry,
			rng:         rng,
		}
		builder.build(indices, 0)
		forest.Trees = append(forest.Trees, Tree{Nodes: builder.nodes})
	}

	return forest
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	classWeight [2]float64
	maxDepth    int
	mtry        int
	rng         *rand.Rand
	nodes       []Node
}

func (b *treeBuilder) weightedDist(indices []int) [2]float64 {
	var dist [2]float64
	for _, i := range indices {
		dist[b.y[i]] += b.classWeight[b.y[i]]
	}
	return dist
}

func gini(dist [2]float64) float64 {
	total := dist[0] + dist[1]
	if total == 0 {
		return 0
	}
	p0 := dist[0] / total
	p1 := dist[1] / total
	return 1 - p0*p0 - p1*p1
}

// build grows the subtree for indices and returns its node id.
func (b *treeBuilder) build(indices []int, depth int) int {
	dist := b.weightedDist(indices)

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Dist: dist})

	if depth >= b.maxDepth || len(indices) < minSamplesSplit || dist[0] == 0 || dist[1] == 0 {
		return id
	}

	feature, threshold, ok := b.bestSplit(indices, dist)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = b.build(left, depth+1)
	b.nodes[id].Right = b.build(right, depth+1)
	return id
}

// bestSplit scans mtry random features for the split with the largest
// weighted impurity decrease.
func (b *treeBuilder) bestSplit(indices []int, parentDist [2]float64) (int, float64, bool) {
	d := len(b.x[indices[0]])
	parentImpurity := gini(parentDist)
	parentTotal := parentDist[0] + parentDist[1]

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	values := make([]float64, 0, len(indices))
	for _, feature := range b.rng.Perm(d)[:b.mtry] {
		values = values[:0]
		for _, i := range indices {
			values = append(values, b.x[i][feature])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			var leftDist [2]float64
			for _, i := range indices {
				if b.x[i][feature] <= threshold {
					leftDist[b.y[i]] += b.classWeight[b.y[i]]
				}
			}
			rightDist := [2]float64{parentDist[0] - leftDist[0], parentDist[1] - leftDist[1]}
			leftTotal := leftDist[0] + leftDist[1]
			rightTotal := rightDist[0] + rightDist[1]
			if leftTotal == 0 || rightTotal == 0 {
				continue
			}

			gain := parentImpurity -
				(leftTotal/parentTotal)*gini(leftDist) -
				(rightTotal/parentTotal)*gini(rightDist)
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (t *Tree) proba(x []float64) [2]float64 {
	id := 0
	for t.Nodes[id].Feature >= 0 {
		node := t.Nodes[id]
		if x[node.Feature] <= node.Threshold {
			id = node.Left
		} else {
			id = node.Right
		}
	}
	dist := t.Nodes[id].Dist
	total := dist[0] + dist[1]
	if total == 0 {
		return [2]float64{0.5, 0.5}
	}
	return [2]float64{dist[0] / total, dist[1] / total}
}

// PredictProba averages the leaf class distributions over all trees.
func (f *Forest) PredictProba(x []float64) [2]float64 {
	var sum [2]float64
	for i := range f.Trees {
		p := f.Trees[i].proba(x)
		sum[0] += p[0]
		sum[1] += p[1]
	}
	n := float64(len(f.Trees))
	return [2]float64{sum[0] / n, sum[1] / n}
}

// Predict returns the predicted class and the confidence in that class.
// Note the confidence is of the predicted class, not of class 1; ties go to
// class 0.
func (f *Forest) Predict(x []float64) (int, float64) {
	p := f.PredictProba(x)
	if p[1] > p[0] {
		return 1, p[1]
	}
	return 0, p[0]
}
