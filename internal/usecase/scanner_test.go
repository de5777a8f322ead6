package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	"TrendRadar/internal/services/indicators"
	"TrendRadar/internal/services/stage"
)

type fakeBars struct {
	series map[string][]models.Bar
}

func (f *fakeBars) GetBars(_ context.Context, symbol string, n int, _ domrepo.Timeframe) ([]models.Bar, error) {
	bars := f.series[symbol]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

type fakeRanks struct {
	ranks *models.PercentileRanks
	mu    sync.Mutex
	asOf  []time.Time
}

func (f *fakeRanks) GetRanks(_ context.Context, _ string, asOf time.Time) (*models.PercentileRanks, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asOf = append(f.asOf, asOf)
	return f.ranks, nil
}

type fakePublisher struct {
	signals     int
	predictions int
}

func (f *fakePublisher) PublishSignal(_ context.Context, _ *models.BuySignal) error {
	f.signals++
	return nil
}

func (f *fakePublisher) PublishPrediction(_ context.Context, _ *models.Prediction) error {
	f.predictions++
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordMessageSent(string, string) {}
func (noopMetrics) RecordError(string)               {}
func (noopMetrics) RecordLastPrice(string, float64)  {}
func (noopMetrics) RecordLatency(string, float64)    {}

// rampBars produces a long basing period followed by a steady advance,
// enough history for every indicator to warm up.
func rampBars(n int) []models.Bar {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 100.0
		if i >= n/2 {
			c = 100.0 * math.Pow(1.004, float64(i-n/2))
		}
		bars[i] = models.Bar{
			Timestamp: t0.AddDate(0, 0, i),
			Open:      c * 0.999,
			High:      c * 1.004,
			Low:       c * 0.996,
			Close:     c,
			Volume:    1_000_000,
		}
	}
	return bars
}

func TestScanEmitsSignalsAndPublishes(t *testing.T) {
	bars := &fakeBars{series: map[string][]models.Bar{
		"AAA": rampBars(400),
		"BBB": rampBars(400),
	}}
	pub := &fakePublisher{}
	ranks := &fakeRanks{ranks: &models.PercentileRanks{RelativeStrength: 97, ChaikinAD: 96}}
	uc := NewScanUseCase(
		bars,
		ranks,
		indicators.NewEngine(nil),
		stage.NewClassifier(nil),
		pub,
		noopMetrics{},
		nil,
	)

	res, err := uc.Scan(context.Background(), ScanParams{Symbols: []string{"AAA", "BBB"}, N: 400})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Scanned != 2 {
		t.Fatalf("scanned = %d, want 2", res.Scanned)
	}
	if len(res.Signals) == 0 {
		t.Fatalf("expected signals from a ramp series")
	}
	if pub.signals != len(res.Signals) {
		t.Fatalf("published %d signals, emitted %d", pub.signals, len(res.Signals))
	}
	for _, s := range res.Signals {
		if !s.Stage.IsBuy() {
			t.Fatalf("signal stage %v is not a buy stage", s.Stage)
		}
		if !s.Flags.HasRSChaikin {
			t.Fatalf("elite ranks should set the rs/chaikin flag")
		}
		if got, want := s.StopLoss, s.EntryPrice*0.90; math.Abs(got-want) > 1e-9 {
			t.Fatalf("stop loss = %v, want %v", got, want)
		}
	}
	for _, asOf := range ranks.asOf {
		if asOf.IsZero() {
			t.Fatalf("historical signals must resolve ranks as of their entry date")
		}
	}
}

func TestScanOrdersByEntryDateThenSymbol(t *testing.T) {
	bars := &fakeBars{series: map[string][]models.Bar{
		"ZZZ": rampBars(400),
		"AAA": rampBars(400),
	}}
	uc := NewScanUseCase(
		bars,
		&fakeRanks{},
		indicators.NewEngine(nil),
		stage.NewClassifier(nil),
		nil,
		noopMetrics{},
		nil,
	)

	res, err := uc.Scan(context.Background(), ScanParams{Symbols: []string{"ZZZ", "AAA"}, N: 400})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for i := 1; i < len(res.Signals); i++ {
		a, b := res.Signals[i-1], res.Signals[i]
		if a.EntryDate.After(b.EntryDate) {
			t.Fatalf("signals out of date order at %d", i)
		}
		if a.EntryDate.Equal(b.EntryDate) && a.Symbol > b.Symbol {
			t.Fatalf("tie not broken by symbol at %d", i)
		}
	}
}

func TestScanRequiresSymbols(t *testing.T) {
	uc := NewScanUseCase(&fakeBars{}, nil, indicators.NewEngine(nil), stage.NewClassifier(nil), nil, noopMetrics{}, nil)
	if _, err := uc.Scan(context.Background(), ScanParams{}); err == nil {
		t.Fatalf("expected error for empty symbol list")
	}
}

func TestAnalyzeReportsStageAndPatterns(t *testing.T) {
	bars := &fakeBars{series: map[string][]models.Bar{"AAA": rampBars(400)}}
	uc := NewAnalyzeUseCase(
		bars,
		&fakeRanks{},
		indicators.NewEngine(nil),
		stage.NewClassifier(nil),
		stubDetector{},
		stubPredictor{},
		noopMetrics{},
	)

	res, err := uc.Analyze(context.Background(), AnalyzeParams{Symbol: "AAA", N: 400, Timeframe: domrepo.TFDaily})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stage == "" {
		t.Fatalf("stage missing from report")
	}
	if res.Bars != 400 {
		t.Fatalf("bars = %d, want 400", res.Bars)
	}
	if res.Indicators == nil {
		t.Fatalf("indicator snapshot missing")
	}
}

type stubDetector struct{}

func (stubDetector) Detect(_ context.Context, _ []models.Bar) ([]models.PatternMatch, error) {
	return nil, nil
}

type stubPredictor struct{}

func (stubPredictor) Predict(_ context.Context, tf string, _ []float64) (*models.Prediction, error) {
	return &models.Prediction{Timeframe: tf, Confidence: 61.5, ModelVersion: "test"}, nil
}
