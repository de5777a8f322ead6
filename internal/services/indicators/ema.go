package indicators

import "math"

// nanSlice returns a slice of n NaNs. Undefined indicator entries are
// always NaN, never zero.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// maskWarmup overwrites the first n entries with NaN in place and
// returns the slice. Used on outputs whose warm-up region is zero-filled.
func maskWarmup(v []float64, n int) []float64 {
	if n > len(v) {
		n = len(v)
	}
	for i := 0; i < n; i++ {
		v[i] = math.NaN()
	}
	return v
}

// EMA computes the recursive exponential moving average with
// alpha = 2/(period+1), seeded with the first defined value. Entries
// before the seed are NaN.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	return emaInto(out, values, alpha)
}

// SmoothEMA is the DecisionPoint variant with alpha = 2/period, used by
// the PMO smoothing stages.
func SmoothEMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period)
	return emaInto(out, values, alpha)
}

func emaInto(out, values []float64, alpha float64) []float64 {
	seeded := false
	var prev float64
	for i, v := range values {
		if math.IsNaN(v) {
			if seeded {
				out[i] = prev
			}
			continue
		}
		if !seeded {
			prev = v
			seeded = true
			out[i] = v
			continue
		}
		prev = alpha*v + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// Rising reports whether the series is sloping up at i, defined as the
// value now exceeding the value three bars back.
func Rising(v []float64, i int) bool {
	if i < 3 || i >= len(v) {
		return false
	}
	a, b := v[i], v[i-3]
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a > b
}

// Falling is the mirror of Rising.
func Falling(v []float64, i int) bool {
	if i < 3 || i >= len(v) {
		return false
	}
	a, b := v[i], v[i-3]
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a < b
}

// CrossedAbove reports whether a crossed above b at bar i: a leads now
// and did not lead on the previous bar.
func CrossedAbove(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
		return false
	}
	return a[i] > b[i] && a[i-1] <= b[i-1]
}

// CrossedBelow reports whether a crossed below b at bar i.
func CrossedBelow(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
		return false
	}
	return a[i] < b[i] && a[i-1] >= b[i-1]
}
