package patterns

import (
	"math"
	"sort"
)

// extremum is a candidate turning point in the close series.
type extremum struct {
	index int
	price float64
}

// findPeaks extracts local maxima with a minimum separation of
// distance bars and a prominence of at least minProminence. When two
// candidates sit closer than distance, the higher one wins.
func findPeaks(values []float64, distance int, minProminence float64) []extremum {
	return findExtrema(values, distance, minProminence, false)
}

// findTroughs is findPeaks on the inverted series.
func findTroughs(values []float64, distance int, minProminence float64) []extremum {
	return findExtrema(values, distance, minProminence, true)
}

func findExtrema(values []float64, distance int, minProminence float64, inverted bool) []extremum {
	n := len(values)
	if n < 3 {
		return nil
	}
	v := values
	if inverted {
		v = make([]float64, n)
		for i, x := range values {
			v[i] = -x
		}
	}

	var candidates []extremum
	for i := 1; i < n-1; i++ {
		if v[i] > v[i-1] && v[i] > v[i+1] {
			if prominence(v, i) >= minProminence {
				candidates = append(candidates, extremum{index: i, price: v[i]})
			}
		}
	}

	// Highest first, then greedily drop anything within distance of an
	// already accepted extremum.
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].price != candidates[b].price {
			return candidates[a].price > candidates[b].price
		}
		return candidates[a].index < candidates[b].index
	})
	accepted := make([]extremum, 0, len(candidates))
	for _, c := range candidates {
		ok := true
		for _, a := range accepted {
			if abs(c.index-a.index) < distance {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(a, b int) bool { return accepted[a].index < accepted[b].index })
	if inverted {
		for i := range accepted {
			accepted[i].price = -accepted[i].price
		}
	}
	return accepted
}

// prominence measures how far the peak rises above the higher of the
// two valley floors separating it from taller terrain (or the series
// edge) on each side.
func prominence(v []float64, peak int) float64 {
	leftMin := v[peak]
	for i := peak - 1; i >= 0; i-- {
		if v[i] > v[peak] {
			break
		}
		if v[i] < leftMin {
			leftMin = v[i]
		}
	}
	rightMin := v[peak]
	for i := peak + 1; i < len(v); i++ {
		if v[i] > v[peak] {
			break
		}
		if v[i] < rightMin {
			rightMin = v[i]
		}
	}
	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return v[peak] - base
}

// minSeparation is the extremum distance rule: wider series allow
// wider spacing, floor of five bars.
func minSeparation(n int) int {
	d := n / 50
	if d < 5 {
		d = 5
	}
	return d
}

func stddev(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / n)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
