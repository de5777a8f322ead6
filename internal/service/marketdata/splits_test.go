package marketdata

import (
	"math"
	"testing"
	"time"

	"TrendRadar/internal/domain/models"
)

func mkBars(closes, volumes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      closes[i],
			High:      closes[i],
			Low:       closes[i],
			Close:     closes[i],
			Volume:    volumes[i],
		}
	}
	return bars
}

func TestAdjustSplitsRescalesHistory(t *testing.T) {
	// A 2:1 split on bar 3: close halves, volume triples.
	bars := mkBars(
		[]float64{100, 102, 104, 52, 53},
		[]float64{1000, 1000, 1000, 3000, 2900},
	)
	adjusted, n := AdjustSplits(bars)
	if n != 1 {
		t.Fatalf("expected one split, got %d", n)
	}
	ratio := 52.0 / 104.0
	if math.Abs(adjusted[0].Close-100*ratio) > 1e-9 {
		t.Fatalf("prior close not rescaled: %v", adjusted[0].Close)
	}
	if math.Abs(adjusted[0].Volume-1000/ratio) > 1e-9 {
		t.Fatalf("prior volume not rescaled: %v", adjusted[0].Volume)
	}
	if adjusted[3].Close != 52 || adjusted[4].Close != 53 {
		t.Fatalf("post-split bars must be untouched")
	}
}

func TestAdjustSplitsIgnoresCrashWithoutVolumeSpike(t *testing.T) {
	// Same drop, ordinary volume: a crash, not a split.
	bars := mkBars(
		[]float64{100, 102, 104, 52, 53},
		[]float64{1000, 1000, 1000, 1200, 1100},
	)
	adjusted, n := AdjustSplits(bars)
	if n != 0 {
		t.Fatalf("crash must not be adjusted, got %d splits", n)
	}
	if adjusted[0].Close != 100 {
		t.Fatalf("history must be untouched, got %v", adjusted[0].Close)
	}
}

func TestAdjustSplitsUsesTrailingAverageVolume(t *testing.T) {
	// One bloated bar right before the split must not raise the volume
	// baseline: the spike is judged against the trailing average.
	bars := mkBars(
		[]float64{100, 102, 104, 104, 51},
		[]float64{1000, 1000, 1000, 2600, 4000},
	)
	_, n := AdjustSplits(bars)
	if n != 1 {
		t.Fatalf("expected one split against the trailing average, got %d", n)
	}
}

func TestAdjustSplitsIgnoresSmallDrop(t *testing.T) {
	bars := mkBars(
		[]float64{100, 90, 88},
		[]float64{1000, 5000, 4000},
	)
	if _, n := AdjustSplits(bars); n != 0 {
		t.Fatalf("a 10%% drop is not a split")
	}
}
