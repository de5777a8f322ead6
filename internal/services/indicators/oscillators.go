package indicators

import "math"

// PPO computes the percentage price oscillator: the gap between a fast
// and a slow EMA expressed as a percentage of the slow one. Returns the
// oscillator, its signal line and the histogram.
func PPO(closes []float64, fast, slow, signalPeriod int) (ppo, signal, hist []float64) {
	n := len(closes)
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	ppo = nanSlice(n)
	for i := 0; i < n; i++ {
		f, s := emaFast[i], emaSlow[i]
		if math.IsNaN(f) || math.IsNaN(s) || s == 0 {
			continue
		}
		ppo[i] = (f - s) / s * 100
	}
	signal = EMA(ppo, signalPeriod)

	hist = nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(ppo[i]) || math.IsNaN(signal[i]) {
			continue
		}
		hist[i] = ppo[i] - signal[i]
	}
	return ppo, signal, hist
}

// PMO computes the DecisionPoint price momentum oscillator: one-bar
// rate of change smoothed twice with the 2/period decay, scaled by 10.
// The signal is the same smoothing applied to the PMO line.
func PMO(closes []float64, smooth1, smooth2, signalPeriod int) (pmo, signal []float64) {
	n := len(closes)
	roc := nanSlice(n)
	for i := 1; i < n; i++ {
		prev := closes[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(closes[i]) {
			continue
		}
		roc[i] = (closes[i]/prev - 1) * 100
	}

	stage1 := SmoothEMA(roc, smooth1)
	stage2 := SmoothEMA(stage1, smooth2)

	pmo = nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(stage2[i]) {
			continue
		}
		pmo[i] = stage2[i] * 10
	}
	signal = SmoothEMA(pmo, signalPeriod)
	return pmo, signal
}
