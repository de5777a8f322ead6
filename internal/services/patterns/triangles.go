package patterns

import (
	"sort"

	"TrendRadar/internal/domain/models"
)

const (
	triangleWindow  = 30
	triangleStep    = 10
	flatSidePct     = 0.03
	minTouchesEach  = 2
)

// detectTriangles slides a fixed window over the series and tests the
// extrema inside it for the three triangle shapes. Overlapping windows
// produce duplicate candidates; dedup handles those downstream.
func detectTriangles(closes []float64, peaks, troughs []extremum) []models.PatternMatch {
	n := len(closes)
	if n < triangleWindow {
		return nil
	}
	var out []models.PatternMatch
	for start := 0; start+triangleWindow <= n; start += triangleStep {
		end := start + triangleWindow - 1
		wp := within(peaks, start, end)
		wt := within(troughs, start, end)
		if len(wp) < minTouchesEach || len(wt) < minTouchesEach {
			continue
		}
		if m, ok := ascendingTriangle(wp, wt); ok {
			out = append(out, m)
		}
		if m, ok := descendingTriangle(wp, wt); ok {
			out = append(out, m)
		}
		if m, ok := symmetricalTriangle(wp, wt); ok {
			out = append(out, m)
		}
	}
	return out
}

// ascendingTriangle wants a flat resistance (every peak within 3% of
// the peak mean) pressed by strictly rising troughs.
func ascendingTriangle(peaks, troughs []extremum) (models.PatternMatch, bool) {
	if !flat(peaks) || !strictlyRising(troughs) {
		return models.PatternMatch{}, false
	}
	resistance := mean(peaks)
	low := troughs[0].price
	m := models.PatternMatch{
		Type:        models.PatternAscendingTriangle,
		StartIndex:  spanStart(peaks, troughs),
		EndIndex:    spanEnd(peaks, troughs),
		Confidence:  clampConfidence(50+float64(len(peaks))*10, 75),
		TargetPrice: resistance + (resistance - low),
		Direction:   models.DirectionBullish,
		KeyPoints:   keyPoints(peaks, troughs),
	}
	return m, true
}

// descendingTriangle is the mirror: flat support hammered by strictly
// falling peaks.
func descendingTriangle(peaks, troughs []extremum) (models.PatternMatch, bool) {
	if !flat(troughs) || !strictlyFalling(peaks) {
		return models.PatternMatch{}, false
	}
	support := mean(troughs)
	high := peaks[0].price
	m := models.PatternMatch{
		Type:        models.PatternDescendingTriangle,
		StartIndex:  spanStart(peaks, troughs),
		EndIndex:    spanEnd(peaks, troughs),
		Confidence:  clampConfidence(50+float64(len(troughs))*10, 75),
		TargetPrice: support - (high - support),
		Direction:   models.DirectionBearish,
		KeyPoints:   keyPoints(peaks, troughs),
	}
	return m, true
}

// symmetricalTriangle converges from both sides. Neutral: it carries
// no breakout target.
func symmetricalTriangle(peaks, troughs []extremum) (models.PatternMatch, bool) {
	if !strictlyFalling(peaks) || !strictlyRising(troughs) {
		return models.PatternMatch{}, false
	}
	m := models.PatternMatch{
		Type:       models.PatternSymmetricalTriangle,
		StartIndex: spanStart(peaks, troughs),
		EndIndex:   spanEnd(peaks, troughs),
		Confidence: clampConfidence(45+float64(len(peaks)+len(troughs))*5, 70),
		Direction:  models.DirectionNeutral,
		KeyPoints:  keyPoints(peaks, troughs),
	}
	return m, true
}

func within(xs []extremum, start, end int) []extremum {
	var out []extremum
	for _, x := range xs {
		if x.index >= start && x.index <= end {
			out = append(out, x)
		}
	}
	return out
}

func flat(xs []extremum) bool {
	m := mean(xs)
	if m <= 0 {
		return false
	}
	for _, x := range xs {
		if absf(x.price-m)/m > flatSidePct {
			return false
		}
	}
	return true
}

func strictlyRising(xs []extremum) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i].price <= xs[i-1].price {
			return false
		}
	}
	return true
}

func strictlyFalling(xs []extremum) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i].price >= xs[i-1].price {
			return false
		}
	}
	return true
}

func mean(xs []extremum) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x.price
	}
	return sum / float64(len(xs))
}

func spanStart(peaks, troughs []extremum) int {
	s := peaks[0].index
	if troughs[0].index < s {
		s = troughs[0].index
	}
	return s
}

func spanEnd(peaks, troughs []extremum) int {
	e := peaks[len(peaks)-1].index
	if t := troughs[len(troughs)-1].index; t > e {
		e = t
	}
	return e
}

// keyPoints merges both sides in bar order so the geometry reads
// left to right like the other templates.
func keyPoints(peaks, troughs []extremum) []models.KeyPoint {
	pts := make([]models.KeyPoint, 0, len(peaks)+len(troughs))
	for _, p := range peaks {
		pts = append(pts, models.KeyPoint{Index: p.index, Price: p.price})
	}
	for _, t := range troughs {
		pts = append(pts, models.KeyPoint{Index: t.index, Price: t.price})
	}
	sort.Slice(pts, func(a, b int) bool { return pts[a].Index < pts[b].Index })
	return pts
}
