package usecase

import (
	"context"
	"testing"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	"TrendRadar/internal/services/confidence"
	"TrendRadar/internal/services/indicators"
	"TrendRadar/internal/services/stage"
)

type capturePredictor struct {
	features []float64
}

func (p *capturePredictor) Predict(_ context.Context, tf string, features []float64) (*models.Prediction, error) {
	p.features = append([]float64(nil), features...)
	return &models.Prediction{Timeframe: tf, Confidence: 50, ModelVersion: "test"}, nil
}

// Serving must feed the model the same quality flags a dataset row for
// the same bar would carry.
func TestPredictDerivesQualityFlags(t *testing.T) {
	bars := &fakeBars{series: map[string][]models.Bar{"AAA": rampBars(400)}}
	cp := &capturePredictor{}
	uc := NewPredictUseCase(
		bars,
		&fakeRanks{ranks: &models.PercentileRanks{RelativeStrength: 97, ChaikinAD: 96}},
		indicators.NewEngine(nil),
		stage.NewClassifier(nil),
		cp,
		nil,
		noopMetrics{},
	)

	pred, err := uc.Predict(context.Background(), PredictParams{Symbol: "AAA", N: 400, Timeframe: domrepo.TFDaily})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Symbol != "AAA" {
		t.Fatalf("symbol = %q", pred.Symbol)
	}

	idx := make(map[string]int, len(confidence.FeatureNames))
	for i, name := range confidence.FeatureNames {
		idx[name] = i
	}
	for _, name := range []string{"has_uptrend", "has_rs_chaikin", "has_quality"} {
		if got := cp.features[idx[name]]; got != 1 {
			t.Fatalf("%s = %v, want 1", name, got)
		}
	}
}

func TestPredictScoresRawFeatures(t *testing.T) {
	cp := &capturePredictor{}
	uc := NewPredictUseCase(nil, nil, indicators.NewEngine(nil), stage.NewClassifier(nil), cp, nil, noopMetrics{})

	features := make([]float64, confidence.NumFeatures)
	features[0] = float64(models.StageBuy)
	pred, err := uc.Predict(context.Background(), PredictParams{Timeframe: domrepo.TFDaily, Features: features})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred == nil || len(cp.features) != confidence.NumFeatures {
		t.Fatalf("raw features must reach the model unchanged")
	}
}
