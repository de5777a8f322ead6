package indicators

import "math"

// Ichimoku series with the classic 9/26/52 windows. Span A/B are
// projected 26 bars forward and the lagging span 26 bars back; entries
// without enough history (or future, for chikou) are NaN.
type IchimokuSet struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64
}

const (
	ichimokuConversion = 9
	ichimokuBase       = 26
	ichimokuSpanB      = 52
	ichimokuShift      = 26
)

// Ichimoku computes the five lines over aligned high/low/close series.
func Ichimoku(highs, lows, closes []float64) IchimokuSet {
	n := len(closes)
	set := IchimokuSet{
		Tenkan:  midline(highs, lows, ichimokuConversion),
		Kijun:   midline(highs, lows, ichimokuBase),
		SenkouA: nanSlice(n),
		SenkouB: nanSlice(n),
		Chikou:  nanSlice(n),
	}

	spanBRaw := midline(highs, lows, ichimokuSpanB)
	for i := 0; i < n; i++ {
		src := i - ichimokuShift
		if src < 0 {
			continue
		}
		if !math.IsNaN(set.Tenkan[src]) && !math.IsNaN(set.Kijun[src]) {
			set.SenkouA[i] = (set.Tenkan[src] + set.Kijun[src]) / 2
		}
		set.SenkouB[i] = spanBRaw[src]
	}
	for i := 0; i+ichimokuShift < n; i++ {
		set.Chikou[i] = closes[i+ichimokuShift]
	}
	return set
}

// midline is (highest high + lowest low) / 2 over a trailing window.
func midline(highs, lows []float64, window int) []float64 {
	n := len(highs)
	out := nanSlice(n)
	for i := window - 1; i < n; i++ {
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - window + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		out[i] = (hh + ll) / 2
	}
	return out
}
