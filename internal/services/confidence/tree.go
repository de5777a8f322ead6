package confidence

import (
	"math/rand"
	"sort"
)

// treeNode is one CART node. Leaves carry the weighted probability of
// the success class; internal nodes route on feature <= threshold.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Prob      float64   `json:"p,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

type treeParams struct {
	maxDepth         int
	minSamplesSplit  int
	minSamplesLeaf   int
	featuresPerSplit int
}

// buildTree grows a CART tree on the rows named by idx, using sample
// weights for both impurity and leaf probabilities.
func buildTree(x [][]float64, y []int, w []float64, idx []int, depth int, p treeParams, rng *rand.Rand) *treeNode {
	if len(idx) == 0 {
		return &treeNode{Leaf: true, Prob: 0.5}
	}
	prob := weightedSuccess(y, w, idx)
	if depth >= p.maxDepth || len(idx) < p.minSamplesSplit || prob == 0 || prob == 1 {
		return &treeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, ok := bestSplit(x, y, w, idx, p, rng)
	if !ok {
		return &treeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return &treeNode{Leaf: true, Prob: prob}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(x, y, w, left, depth+1, p, rng),
		Right:     buildTree(x, y, w, right, depth+1, p, rng),
	}
}

// bestSplit searches a random feature subset for the threshold with
// the lowest weighted gini after the split.
func bestSplit(x [][]float64, y []int, w []float64, idx []int, p treeParams, rng *rand.Rand) (int, float64, bool) {
	d := len(x[idx[0]])
	features := rng.Perm(d)
	if p.featuresPerSplit < d {
		features = features[:p.featuresPerSplit]
	}

	bestGini := gini(y, w, idx)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var totalW, totalS float64
		for _, i := range order {
			totalW += w[i]
			if y[i] == 1 {
				totalS += w[i]
			}
		}

		var leftW, leftS float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			leftW += w[i]
			if y[i] == 1 {
				leftS += w[i]
			}
			cur, next := x[i][f], x[order[k+1]][f]
			if cur == next {
				continue
			}
			if k+1 < p.minSamplesLeaf || len(order)-k-1 < p.minSamplesLeaf {
				continue
			}
			rightW := totalW - leftW
			rightS := totalS - leftS
			g := (leftW*giniOf(leftS, leftW) + rightW*giniOf(rightS, rightW)) / totalW
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// predictTree walks to a leaf and returns its success probability.
func predictTree(node *treeNode, x []float64) float64 {
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prob
}

func weightedSuccess(y []int, w []float64, idx []int) float64 {
	var total, success float64
	for _, i := range idx {
		total += w[i]
		if y[i] == 1 {
			success += w[i]
		}
	}
	if total == 0 {
		return 0.5
	}
	return success / total
}

func gini(y []int, w []float64, idx []int) float64 {
	var total, success float64
	for _, i := range idx {
		total += w[i]
		if y[i] == 1 {
			success += w[i]
		}
	}
	return giniOf(success, total)
}

// giniOf is the two-class gini impurity from the success weight share.
func giniOf(success, total float64) float64 {
	if total == 0 {
		return 0
	}
	p := success / total
	return 1 - p*p - (1-p)*(1-p)
}
