package gbm

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// Node is one node of a regression tree. Leaves have Feature == -1 and
// carry the prediction in Value; internal nodes route on
// x[Feature] <= Threshold.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is a depth-limited regression tree stored as a flat node array,
// root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// split is a candidate split of one feature, scored by the gain in
// sum-of-squares: sumL²/nL + sumR²/nR (higher is better).
type split struct {
	feature   int
	threshold float64
	score     float64
	valid     bool
}

type treeBuilder struct {
	x       [][]float64
	targets []float64
	params  Params
}

// build grows a tree on the given sample indices and returns the index of
// the created node.
func (b *treeBuilder) build(t *Tree, indices []int, depth int) int {
	sum := 0.0
	for _, i := range indices {
		sum += b.targets[i]
	}
	mean := sum / float64(len(indices))

	if depth >= b.params.MaxDepth || len(indices) < 2*b.params.MinSamplesLeaf {
		return b.leaf(t, mean)
	}

	best := b.bestSplit(indices)
	if !best.valid {
		return b.leaf(t, mean)
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(t, mean)
	}

	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: best.feature, Threshold: best.threshold})
	t.Nodes[idx].Left = b.build(t, left, depth+1)
	t.Nodes[idx].Right = b.build(t, right, depth+1)
	return idx
}

func (b *treeBuilder) leaf(t *Tree, value float64) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Value: value})
	return idx
}

// bestSplit scans every feature for the best threshold. Features are
// scanned in parallel; this is pure CPU work with no shared mutable state
// beyond the per-feature result slot.
func (b *treeBuilder) bestSplit(indices []int) split {
	numFeatures := len(b.x[indices[0]])
	results := make([]split, numFeatures)

	var g errgroup.Group
	g.SetLimit(8)
	for j := 0; j < numFeatures; j++ {
		g.Go(func() error {
			results[j] = b.bestSplitForFeature(indices, j)
			return nil
		})
	}
	_ = g.Wait() // feature scans never return errors

	best := split{}
	for _, s := range results {
		if s.valid && (!best.valid || s.score > best.score) {
			best = s
		}
	}
	return best
}

func (b *treeBuilder) bestSplitForFeature(indices []int, feature int) split {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(a, c int) bool {
		return b.x[sorted[a]][feature] < b.x[sorted[c]][feature]
	})

	total := 0.0
	for _, i := range sorted {
		total += b.targets[i]
	}

	minLeaf := b.params.MinSamplesLeaf
	n := len(sorted)
	best := split{feature: feature}

	sumLeft := 0.0
	for pos := 0; pos < n-1; pos++ {
		sumLeft += b.targets[sorted[pos]]

		vHere := b.x[sorted[pos]][feature]
		vNext := b.x[sorted[pos+1]][feature]
		if vHere == vNext {
			continue // can't split between equal values
		}

		nLeft := pos + 1
		nRight := n - nLeft
		if nLeft < minLeaf || nRight < minLeaf {
			continue
		}

		sumRight := total - sumLeft
		score := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
		if !best.valid || score > best.score {
			best.valid = true
			best.score = score
			best.threshold = (vHere + vNext) / 2
		}
	}

	return best
}
