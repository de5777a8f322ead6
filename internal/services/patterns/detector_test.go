package patterns

import (
	"context"
	"math"
	"testing"
	"time"

	"TrendRadar/internal/domain/models"
)

// anchorSeries interpolates linearly between (index, price) anchors.
func anchorSeries(n int, anchors [][2]float64) []float64 {
	out := make([]float64, n)
	for k := 0; k+1 < len(anchors); k++ {
		i0, p0 := int(anchors[k][0]), anchors[k][1]
		i1, p1 := int(anchors[k+1][0]), anchors[k+1][1]
		for i := i0; i <= i1 && i < n; i++ {
			t := float64(i-i0) / float64(i1-i0)
			out[i] = p0 + t*(p1-p0)
		}
	}
	return out
}

func barsFromCloses(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c * 1.005, Low: c * 0.995, Close: c,
			Volume: 1_000_000,
		}
	}
	return bars
}

// doubleBottomCloses carves a W between bars 50 and 90 into an
// otherwise quiet 300-bar series.
func doubleBottomCloses() []float64 {
	return anchorSeries(300, [][2]float64{
		{0, 100}, {50, 100},
		{58, 90},    // first bottom
		{70, 101},   // interim peak
		{82, 90.5},  // second bottom, within 2% of the first
		{95, 102},
		{299, 112},
	})
}

func TestDoubleBottomScenario(t *testing.T) {
	d := NewDetector(Config{}, nil)
	matches, err := d.Detect(context.Background(), barsFromCloses(doubleBottomCloses()))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var found *models.PatternMatch
	for i := range matches {
		if matches[i].Type == models.PatternDoubleBottom {
			found = &matches[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected a double bottom, got %d other matches", len(matches))
	}
	if found.Confidence < 0.6 {
		t.Fatalf("expected confidence >= 0.6, got %v", found.Confidence)
	}
	if found.Direction != models.DirectionBullish {
		t.Fatalf("double bottom must be bullish, got %v", found.Direction)
	}
	if found.StartIndex < 50 || found.EndIndex > 90 {
		t.Fatalf("match outside the carved region: [%d,%d]", found.StartIndex, found.EndIndex)
	}
	if found.TargetPrice <= found.KeyPoints[1].Price {
		t.Fatalf("measured move target must sit above the interim peak")
	}
}

func TestHeadAndShouldersDetected(t *testing.T) {
	closes := anchorSeries(120, [][2]float64{
		{0, 95}, {15, 95},
		{25, 100}, // left shoulder
		{35, 91},
		{50, 110}, // head, > 2% above both shoulders
		{65, 91},
		{75, 100.5}, // right shoulder, within 5% of the left
		{90, 88},
		{119, 92},
	})
	d := NewDetector(Config{}, nil)
	matches, err := d.Detect(context.Background(), barsFromCloses(closes))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var found *models.PatternMatch
	for i := range matches {
		if matches[i].Type == models.PatternHeadAndShoulders {
			found = &matches[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected head and shoulders")
	}
	if found.Direction != models.DirectionBearish {
		t.Fatalf("head and shoulders must be bearish")
	}
	neckline := (found.KeyPoints[1].Price + found.KeyPoints[3].Price) / 2
	if found.TargetPrice >= neckline {
		t.Fatalf("target %v must project below the neckline %v", found.TargetPrice, neckline)
	}
}

func TestAscendingTriangleDetected(t *testing.T) {
	closes := anchorSeries(40, [][2]float64{
		{0, 95},
		{5, 90}, {10, 100},
		{15, 93}, {20, 100.5},
		{25, 96}, {30, 100},
		{39, 98},
	})
	d := NewDetector(Config{}, nil)
	matches, err := d.Detect(context.Background(), barsFromCloses(closes))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var found *models.PatternMatch
	for i := range matches {
		if matches[i].Type == models.PatternAscendingTriangle {
			found = &matches[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected ascending triangle")
	}
	if found.Direction != models.DirectionBullish {
		t.Fatalf("ascending triangle must be bullish")
	}
	if found.TargetPrice <= 100 {
		t.Fatalf("target must break above the flat resistance, got %v", found.TargetPrice)
	}
}

func TestConfidenceBoundsAndDirections(t *testing.T) {
	expected := map[models.PatternType]models.Direction{
		models.PatternHeadAndShoulders:    models.DirectionBearish,
		models.PatternInvHeadAndShoulders: models.DirectionBullish,
		models.PatternDoubleTop:           models.DirectionBearish,
		models.PatternDoubleBottom:        models.DirectionBullish,
		models.PatternAscendingTriangle:   models.DirectionBullish,
		models.PatternDescendingTriangle:  models.DirectionBearish,
		models.PatternSymmetricalTriangle: models.DirectionNeutral,
		models.PatternCupAndHandle:        models.DirectionBullish,
	}

	series := [][]float64{
		doubleBottomCloses(),
		anchorSeries(250, [][2]float64{{0, 100}, {60, 130}, {120, 95}, {180, 125}, {249, 90}}),
	}
	// A choppy but deterministic series to stress every template.
	chop := make([]float64, 400)
	for i := range chop {
		chop[i] = 100 + 8*math.Sin(float64(i)/9) + 4*math.Sin(float64(i)/23) + float64(i)*0.02
	}
	series = append(series, chop)

	d := NewDetector(Config{}, nil)
	for si, closes := range series {
		matches, err := d.Detect(context.Background(), barsFromCloses(closes))
		if err != nil {
			t.Fatalf("series %d: %v", si, err)
		}
		for _, m := range matches {
			if m.Confidence < 0.6 || m.Confidence > 1 {
				t.Fatalf("series %d: confidence %v outside surfaced range for %v", si, m.Confidence, m.Type)
			}
			if want, ok := expected[m.Type]; !ok || m.Direction != want {
				t.Fatalf("series %d: %v reported %v, want %v", si, m.Type, m.Direction, want)
			}
			if m.Type == models.PatternSymmetricalTriangle && m.TargetPrice != 0 {
				t.Fatalf("symmetrical triangle carries no target")
			}
			if m.StartIndex > m.EndIndex {
				t.Fatalf("inverted span [%d,%d]", m.StartIndex, m.EndIndex)
			}
		}
	}
}

func TestDetectDeterministic(t *testing.T) {
	bars := barsFromCloses(doubleBottomCloses())
	d := NewDetector(Config{}, nil)
	a, _ := d.Detect(context.Background(), bars)
	b, _ := d.Detect(context.Background(), bars)
	if len(a) != len(b) {
		t.Fatalf("match counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Confidence != b[i].Confidence || a[i].StartIndex != b[i].StartIndex {
			t.Fatalf("match %d differs between runs", i)
		}
	}
}

func TestInsufficientBarsYieldZeroMatches(t *testing.T) {
	d := NewDetector(Config{}, nil)
	matches, err := d.Detect(context.Background(), barsFromCloses(anchorSeries(10, [][2]float64{{0, 100}, {9, 105}})))
	if err != nil {
		t.Fatalf("short series must not error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected zero matches, got %d", len(matches))
	}
}

func TestDedupKeepsHigherConfidenceWithinType(t *testing.T) {
	in := []models.PatternMatch{
		{Type: models.PatternDoubleTop, StartIndex: 0, EndIndex: 20, Confidence: 0.7},
		{Type: models.PatternDoubleTop, StartIndex: 5, EndIndex: 25, Confidence: 0.65}, // >50% overlap, dropped
		{Type: models.PatternDoubleBottom, StartIndex: 0, EndIndex: 20, Confidence: 0.62},
		{Type: models.PatternDoubleTop, StartIndex: 40, EndIndex: 60, Confidence: 0.61},
	}
	out := dedupWithinType(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(out))
	}
	for _, m := range out {
		if m.Type == models.PatternDoubleTop && m.StartIndex == 5 {
			t.Fatalf("overlapping lower-confidence match survived dedup")
		}
	}
}

func TestKeyPointsOrderedByIndex(t *testing.T) {
	peaks := []extremum{{index: 10, price: 110}, {index: 30, price: 109}}
	troughs := []extremum{{index: 5, price: 90}, {index: 20, price: 92}, {index: 35, price: 94}}
	pts := keyPoints(peaks, troughs)
	if len(pts) != 5 {
		t.Fatalf("expected 5 key points, got %d", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Index < pts[i-1].Index {
			t.Fatalf("key points out of bar order at %d: %d after %d", i, pts[i].Index, pts[i-1].Index)
		}
	}
}

func TestMinSeparationRule(t *testing.T) {
	if minSeparation(100) != 5 {
		t.Fatalf("floor must be 5")
	}
	if minSeparation(500) != 10 {
		t.Fatalf("expected n/50, got %d", minSeparation(500))
	}
}
