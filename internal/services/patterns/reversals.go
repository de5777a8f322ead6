package patterns

import "TrendRadar/internal/domain/models"

const (
	headMarginPct       = 0.02
	shoulderSymmetryPct = 0.05
	doubleTolerancePct  = 0.02
)

// detectHeadAndShoulders scans consecutive peak triples for the
// bearish head-and-shoulders shape: a head at least 2% above both
// shoulders, shoulders within 5% of each other.
func detectHeadAndShoulders(closes []float64, peaks []extremum) []models.PatternMatch {
	var out []models.PatternMatch
	for i := 0; i+2 < len(peaks); i++ {
		left, head, right := peaks[i], peaks[i+1], peaks[i+2]
		tallerShoulder := maxf(left.price, right.price)
		if head.price <= tallerShoulder*(1+headMarginPct) {
			continue
		}
		if absf(left.price-right.price)/tallerShoulder > shoulderSymmetryPct {
			continue
		}
		v1i, v1 := minBetween(closes, left.index, head.index)
		v2i, v2 := minBetween(closes, head.index, right.index)
		neckline := (v1 + v2) / 2
		if neckline <= 0 || head.price <= neckline {
			continue
		}
		depthPct := (head.price - neckline) / head.price * 100
		out = append(out, models.PatternMatch{
			Type:        models.PatternHeadAndShoulders,
			StartIndex:  left.index,
			EndIndex:    right.index,
			Confidence:  clampConfidence(60+depthPct, 85),
			TargetPrice: neckline - (head.price - neckline),
			Direction:   models.DirectionBearish,
			KeyPoints: []models.KeyPoint{
				{Index: left.index, Price: left.price},
				{Index: v1i, Price: v1},
				{Index: head.index, Price: head.price},
				{Index: v2i, Price: v2},
				{Index: right.index, Price: right.price},
			},
		})
	}
	return out
}

// detectInverseHeadAndShoulders is the bullish mirror over troughs.
func detectInverseHeadAndShoulders(closes []float64, troughs []extremum) []models.PatternMatch {
	var out []models.PatternMatch
	for i := 0; i+2 < len(troughs); i++ {
		left, head, right := troughs[i], troughs[i+1], troughs[i+2]
		lowerShoulder := minf(left.price, right.price)
		if head.price >= lowerShoulder*(1-headMarginPct) {
			continue
		}
		if absf(left.price-right.price)/maxf(left.price, right.price) > shoulderSymmetryPct {
			continue
		}
		p1i, p1 := maxBetween(closes, left.index, head.index)
		p2i, p2 := maxBetween(closes, head.index, right.index)
		neckline := (p1 + p2) / 2
		if head.price <= 0 || neckline <= head.price {
			continue
		}
		depthPct := (neckline - head.price) / head.price * 100
		out = append(out, models.PatternMatch{
			Type:        models.PatternInvHeadAndShoulders,
			StartIndex:  left.index,
			EndIndex:    right.index,
			Confidence:  clampConfidence(60+depthPct, 85),
			TargetPrice: neckline + (neckline - head.price),
			Direction:   models.DirectionBullish,
			KeyPoints: []models.KeyPoint{
				{Index: left.index, Price: left.price},
				{Index: p1i, Price: p1},
				{Index: head.index, Price: head.price},
				{Index: p2i, Price: p2},
				{Index: right.index, Price: right.price},
			},
		})
	}
	return out
}

// detectDoubleTops pairs consecutive peaks of near-equal height with a
// valley in between. Confidence grows with the valley depth.
func detectDoubleTops(closes []float64, peaks []extremum) []models.PatternMatch {
	var out []models.PatternMatch
	for i := 0; i+1 < len(peaks); i++ {
		first, second := peaks[i], peaks[i+1]
		taller := maxf(first.price, second.price)
		if absf(first.price-second.price)/taller > doubleTolerancePct {
			continue
		}
		vi, valley := minBetween(closes, first.index, second.index)
		shorter := minf(first.price, second.price)
		if shorter <= 0 || valley >= shorter {
			continue
		}
		depth := (shorter - valley) / shorter
		height := (first.price+second.price)/2 - valley
		out = append(out, models.PatternMatch{
			Type:        models.PatternDoubleTop,
			StartIndex:  first.index,
			EndIndex:    second.index,
			Confidence:  clampConfidence(55+depth*100, 80),
			TargetPrice: valley - height,
			Direction:   models.DirectionBearish,
			KeyPoints: []models.KeyPoint{
				{Index: first.index, Price: first.price},
				{Index: vi, Price: valley},
				{Index: second.index, Price: second.price},
			},
		})
	}
	return out
}

// detectDoubleBottoms is the bullish mirror over troughs.
func detectDoubleBottoms(closes []float64, troughs []extremum) []models.PatternMatch {
	var out []models.PatternMatch
	for i := 0; i+1 < len(troughs); i++ {
		first, second := troughs[i], troughs[i+1]
		deeper := minf(first.price, second.price)
		if deeper <= 0 {
			continue
		}
		if absf(first.price-second.price)/maxf(first.price, second.price) > doubleTolerancePct {
			continue
		}
		pi, peak := maxBetween(closes, first.index, second.index)
		higher := maxf(first.price, second.price)
		if peak <= higher {
			continue
		}
		depth := (peak - higher) / higher
		height := peak - (first.price+second.price)/2
		out = append(out, models.PatternMatch{
			Type:        models.PatternDoubleBottom,
			StartIndex:  first.index,
			EndIndex:    second.index,
			Confidence:  clampConfidence(55+depth*100, 80),
			TargetPrice: peak + height,
			Direction:   models.DirectionBullish,
			KeyPoints: []models.KeyPoint{
				{Index: first.index, Price: first.price},
				{Index: pi, Price: peak},
				{Index: second.index, Price: second.price},
			},
		})
	}
	return out
}

func minBetween(closes []float64, a, b int) (int, float64) {
	idx, val := a, closes[a]
	for i := a + 1; i <= b && i < len(closes); i++ {
		if closes[i] < val {
			idx, val = i, closes[i]
		}
	}
	return idx, val
}

func maxBetween(closes []float64, a, b int) (int, float64) {
	idx, val := a, closes[a]
	for i := a + 1; i <= b && i < len(closes); i++ {
		if closes[i] > val {
			idx, val = i, closes[i]
		}
	}
	return idx, val
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
