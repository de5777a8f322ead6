package patterns

import "TrendRadar/internal/domain/models"

const (
	cupWindow       = 50
	cupStep         = 10
	cupMinDepthPct  = 0.05
	handleMinPct    = 0.03
	handleMaxPct    = 0.12
)

// detectCupAndHandle slides a 50-bar window looking for a rounded
// decline of at least 5% below the left rim, a recovery back to the
// rim, then a shallow handle pullback of 3 to 12 percent.
func detectCupAndHandle(closes []float64) []models.PatternMatch {
	n := len(closes)
	if n < cupWindow {
		return nil
	}
	var out []models.PatternMatch
	for start := 0; start+cupWindow <= n; start += cupStep {
		end := start + cupWindow - 1
		if m, ok := cupInWindow(closes, start, end); ok {
			out = append(out, m)
		}
	}
	return out
}

func cupInWindow(closes []float64, start, end int) (models.PatternMatch, bool) {
	rim := closes[start]
	if rim <= 0 {
		return models.PatternMatch{}, false
	}

	lowIdx, low := minBetween(closes, start+1, end-1)
	if low >= rim*(1-cupMinDepthPct) {
		return models.PatternMatch{}, false
	}

	// Recovery: first close back at the rim level after the bottom.
	recoveryIdx := -1
	for i := lowIdx + 1; i <= end; i++ {
		if closes[i] >= rim*(1-cupMinDepthPct) {
			recoveryIdx = i
			break
		}
	}
	if recoveryIdx < 0 || recoveryIdx >= end {
		return models.PatternMatch{}, false
	}
	recovery := closes[recoveryIdx]

	handleIdx, handleLow := minBetween(closes, recoveryIdx+1, end)
	pullback := (recovery - handleLow) / recovery
	if pullback < handleMinPct || pullback > handleMaxPct {
		return models.PatternMatch{}, false
	}

	depth := (rim - low) / rim
	return models.PatternMatch{
		Type:        models.PatternCupAndHandle,
		StartIndex:  start,
		EndIndex:    handleIdx,
		Confidence:  clampConfidence(60+depth*100, 85),
		TargetPrice: recovery + (rim - low),
		Direction:   models.DirectionBullish,
		KeyPoints: []models.KeyPoint{
			{Index: start, Price: rim},
			{Index: lowIdx, Price: low},
			{Index: recoveryIdx, Price: recovery},
			{Index: handleIdx, Price: handleLow},
		},
	}, true
}
