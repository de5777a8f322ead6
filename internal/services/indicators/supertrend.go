package indicators

import "math"

// SuperTrend computes the trailing stop line from pre-computed ATR
// values. The line flips between the upper and lower band when the
// close breaks through it; trendUp reports which side is active.
// Entries where ATR is undefined are NaN with trendUp false.
func SuperTrend(highs, lows, closes, atr []float64, mult float64) (line []float64, trendUp []bool) {
	n := len(closes)
	line = nanSlice(n)
	trendUp = make([]bool, n)

	finalUpper := nanSlice(n)
	finalLower := nanSlice(n)
	started := false

	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) {
			continue
		}
		hl2 := (highs[i] + lows[i]) / 2
		upper := hl2 + mult*atr[i]
		lower := hl2 - mult*atr[i]

		if !started {
			finalUpper[i] = upper
			finalLower[i] = lower
			line[i] = upper
			trendUp[i] = false
			started = true
			continue
		}

		if upper < finalUpper[i-1] || closes[i-1] > finalUpper[i-1] {
			finalUpper[i] = upper
		} else {
			finalUpper[i] = finalUpper[i-1]
		}
		if lower > finalLower[i-1] || closes[i-1] < finalLower[i-1] {
			finalLower[i] = lower
		} else {
			finalLower[i] = finalLower[i-1]
		}

		if line[i-1] == finalUpper[i-1] {
			if closes[i] > finalUpper[i] {
				line[i] = finalLower[i]
			} else {
				line[i] = finalUpper[i]
			}
		} else {
			if closes[i] < finalLower[i] {
				line[i] = finalUpper[i]
			} else {
				line[i] = finalLower[i]
			}
		}
		trendUp[i] = line[i] == finalLower[i]
	}
	return line, trendUp
}
