package indicators

import (
	"context"
	"math"
	"testing"
	"time"

	"TrendRadar/internal/domain/models"
)

func syntheticBars(n int, f func(i int) float64) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := f(i)
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c * 0.995,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1_000_000,
		}
	}
	return bars
}

func trendingBars(n int) []models.Bar {
	return syntheticBars(n, func(i int) float64 {
		return 100 + float64(i)*0.5 + 2*math.Sin(float64(i)/7)
	})
}

func TestComputeEmptySeries(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Compute(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected error on empty series")
	}
	if !models.IsDataError(err) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestComputeRejectsNonFiniteClose(t *testing.T) {
	bars := trendingBars(50)
	bars[10].Close = math.NaN()
	engine := NewEngine(nil)
	if _, err := engine.Compute(context.Background(), bars); !models.IsDataError(err) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestComputeRejectsNonMonotonicTimestamps(t *testing.T) {
	bars := trendingBars(50)
	bars[20].Timestamp = bars[19].Timestamp
	engine := NewEngine(nil)
	if _, err := engine.Compute(context.Background(), bars); !models.IsDataError(err) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestComputeDeterministic(t *testing.T) {
	bars := trendingBars(300)
	engine := NewEngine(nil)
	a, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < a.Length; i++ {
		if !sameFloat(a.PPO[i], b.PPO[i]) || !sameFloat(a.PMO[i], b.PMO[i]) || !sameFloat(a.EMA[34][i], b.EMA[34][i]) {
			t.Fatalf("non-deterministic output at index %d", i)
		}
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// Streaming continuity: recomputing over a window that extends one bar
// must not disturb earlier EMA values beyond float tolerance.
func TestEMAContinuity(t *testing.T) {
	bars := trendingBars(300)
	engine := NewEngine(nil)
	full, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	partial, err := engine.Compute(context.Background(), bars[:299])
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, p := range models.EMAPeriods {
		for i := 0; i < 299; i++ {
			a, b := full.EMA[p][i], partial.EMA[p][i]
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if math.Abs(a-b) > 1e-9 {
				t.Fatalf("ema%d diverges at index %d: %v vs %v", p, i, a, b)
			}
		}
	}
}

func TestEMASeededWithFirstClose(t *testing.T) {
	closes := []float64{100, 102, 101, 105}
	out := EMA(closes, 9)
	if out[0] != 100 {
		t.Fatalf("expected seed 100, got %v", out[0])
	}
	alpha := 2.0 / 10.0
	want := alpha*102 + (1-alpha)*100
	if math.Abs(out[1]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, out[1])
	}
}

func TestPPOHistogramIdentity(t *testing.T) {
	bars := trendingBars(200)
	engine := NewEngine(nil)
	frame, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < frame.Length; i++ {
		p, s, h := frame.PPO[i], frame.PPOSignal[i], frame.PPOHistogram[i]
		if math.IsNaN(p) || math.IsNaN(s) {
			continue
		}
		if math.Abs(h-(p-s)) > 1e-12 {
			t.Fatalf("histogram mismatch at %d: %v != %v - %v", i, h, p, s)
		}
	}
}

func TestPPOPositiveInUptrend(t *testing.T) {
	bars := syntheticBars(200, func(i int) float64 { return 100 * math.Pow(1.005, float64(i)) })
	engine := NewEngine(nil)
	frame, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := frame.Length - 1
	if frame.PPO[last] <= 0 {
		t.Fatalf("expected positive PPO in steady uptrend, got %v", frame.PPO[last])
	}
	if frame.PMO[last] <= 0 {
		t.Fatalf("expected positive PMO in steady uptrend, got %v", frame.PMO[last])
	}
}

func TestWarmupRegionsAreNaN(t *testing.T) {
	bars := trendingBars(100)
	engine := NewEngine(nil)
	frame, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !math.IsNaN(frame.RSI[5]) {
		t.Fatalf("expected NaN RSI during warmup, got %v", frame.RSI[5])
	}
	if !math.IsNaN(frame.ATR[5]) {
		t.Fatalf("expected NaN ATR during warmup, got %v", frame.ATR[5])
	}
	if !math.IsNaN(frame.Tenkan[4]) {
		t.Fatalf("expected NaN tenkan before window fills, got %v", frame.Tenkan[4])
	}
	if math.IsNaN(frame.RSI[99]) {
		t.Fatalf("expected defined RSI at the end")
	}
}

func TestShortSeriesIndicatorsUndefined(t *testing.T) {
	bars := trendingBars(10)
	engine := NewEngine(nil)
	frame, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := range frame.RSI {
		if !math.IsNaN(frame.RSI[i]) {
			t.Fatalf("expected whole RSI series undefined for 10 bars")
		}
		if !math.IsNaN(frame.MACD[i]) {
			t.Fatalf("expected whole MACD series undefined for 10 bars")
		}
	}
}

func TestRisingAndCrossovers(t *testing.T) {
	v := []float64{1, 2, 3, 4, 5}
	if !Rising(v, 4) {
		t.Fatalf("expected rising")
	}
	if Rising(v, 2) {
		t.Fatalf("lookback shorter than 3 bars must not report rising")
	}
	a := []float64{1, 1, 3}
	b := []float64{2, 2, 2}
	if !CrossedAbove(a, b, 2) {
		t.Fatalf("expected cross above at index 2")
	}
	if CrossedAbove(a, b, 1) {
		t.Fatalf("no cross at index 1")
	}
	if !CrossedBelow(b, a, 2) {
		t.Fatalf("expected mirror cross below")
	}
}

func TestSuperTrendFlips(t *testing.T) {
	// Ramp up for 60 bars then collapse; the line must flip sides.
	bars := syntheticBars(120, func(i int) float64 {
		if i < 60 {
			return 100 + float64(i)
		}
		return 160 - 2*float64(i-60)
	})
	engine := NewEngine(nil)
	frame, err := engine.Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !frame.TrendUp[55] {
		t.Fatalf("expected uptrend near the top of the ramp")
	}
	if frame.TrendUp[frame.Length-1] {
		t.Fatalf("expected downtrend after the collapse")
	}
}
