package confidence

import (
	"math"
	"math/rand"
	"sync"
)

const (
	defaultTrees    = 150
	defaultMaxDepth = 15
	defaultMinSplit = 50
	defaultMinLeaf  = 20

	// forestSeed anchors every per-tree RNG so training is reproducible.
	forestSeed = 42
)

// ForestConfig controls training. Zero values fall back to the
// defaults above.
type ForestConfig struct {
	Trees    int `yaml:"trees"`
	MaxDepth int `yaml:"max_depth"`
	MinSplit int `yaml:"min_split"`
	MinLeaf  int `yaml:"min_leaf"`
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = defaultTrees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.MinSplit <= 0 {
		c.MinSplit = defaultMinSplit
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = defaultMinLeaf
	}
	return c
}

// Forest is a bagged ensemble of CART trees.
type Forest struct {
	Trees []*treeNode `json:"trees"`
}

// TrainForest fits the ensemble. Each tree gets its own seeded RNG for
// the bootstrap sample and the per-node feature subsets, so the same
// data always yields the same forest regardless of scheduling.
func TrainForest(x [][]float64, y []int, w []float64, cfg ForestConfig) *Forest {
	cfg = cfg.withDefaults()
	n := len(x)
	d := len(x[0])
	perSplit := int(math.Ceil(math.Sqrt(float64(d))))

	params := treeParams{
		maxDepth:         cfg.MaxDepth,
		minSamplesSplit:  cfg.MinSplit,
		minSamplesLeaf:   cfg.MinLeaf,
		featuresPerSplit: perSplit,
	}

	trees := make([]*treeNode, cfg.Trees)
	var wg sync.WaitGroup
	for t := 0; t < cfg.Trees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(forestSeed + int64(t)))
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
			}
			trees[t] = buildTree(x, y, w, idx, 0, params, rng)
		}(t)
	}
	wg.Wait()
	return &Forest{Trees: trees}
}

// Predict returns the ensemble probability of success for one vector.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for _, t := range f.Trees {
		sum += predictTree(t, x)
	}
	return sum / float64(len(f.Trees))
}
