package confidence

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
)

// syntheticDataset builds rows whose outcome is fully determined by the
// has_buy_point and has_uptrend flags, with noise everywhere else. The
// forest must recover that rule.
func syntheticDataset(n int) []models.LabeledSignal {
	rng := rand.New(rand.NewSource(7))
	rows := make([]models.LabeledSignal, n)
	for i := range rows {
		buyPoint := rng.Float64() < 0.4
		uptrend := rng.Float64() < 0.4

		f := make([]float64, NumFeatures)
		f[0] = 5
		for j := 1; j <= 4; j++ {
			f[j] = rng.NormFloat64() * 2
		}
		for j := 5; j <= 8; j++ {
			f[j] = float64(rng.Intn(2))
		}
		f[9] = float64(rng.Intn(2))
		f[10] = rng.NormFloat64()
		f[11] = rng.NormFloat64() * 0.5
		f[12] = bit(f[10] > 0)
		f[13] = bit(math.Abs(f[10]) > ppoStrongThreshold)
		f[14] = rng.NormFloat64()
		f[15] = bit(buyPoint || uptrend)
		f[16] = bit(buyPoint)
		f[17] = bit(uptrend)
		f[18] = 0

		outcome := models.OutcomeFailure
		if buyPoint || uptrend {
			outcome = models.OutcomeSuccess
		}
		rows[i] = models.LabeledSignal{Features: f, Outcome: outcome}
	}
	return rows
}

func trainSmall(t *testing.T, rows []models.LabeledSignal) *Model {
	t.Helper()
	m, err := Train(rows, repository.TFDaily, ForestConfig{Trees: 30, MaxDepth: 8, MinSplit: 20, MinLeaf: 5})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	return m
}

func TestTrainRecoversFlagRule(t *testing.T) {
	m := trainSmall(t, syntheticDataset(600))
	if m.Metrics.Accuracy < 0.9 {
		t.Fatalf("expected accuracy >= 0.9 on a deterministic rule, got %v", m.Metrics.Accuracy)
	}
	if m.Metrics.ValidationSamples == 0 {
		t.Fatalf("expected a held-out validation split")
	}
	if m.TargetPct != 0.05 {
		t.Fatalf("daily model must carry the 5%% target, got %v", m.TargetPct)
	}
	if len(m.FeatureNames) != NumFeatures {
		t.Fatalf("artifact must pin the feature contract")
	}
}

func TestTrainingDeterministic(t *testing.T) {
	rows := syntheticDataset(400)
	a := trainSmall(t, rows)
	b := trainSmall(t, rows)
	probe := rows[0].Features
	if a.Forest.Predict(probe) != b.Forest.Predict(probe) {
		t.Fatalf("two trainings on the same data must predict identically")
	}
}

func TestMonotonicitySpotCheck(t *testing.T) {
	m := trainSmall(t, syntheticDataset(600))
	p := NewPredictor(nil)
	p.Swap(m)

	base := make([]float64, NumFeatures)
	base[0] = 5
	base[10] = 0.3
	base[12] = 1

	for _, flag := range []int{16, 17} {
		off := append([]float64(nil), base...)
		on := append([]float64(nil), base...)
		on[flag] = 1
		on[15] = 1 // quality follows the flags

		predOff, err := p.Predict(context.Background(), "daily", off)
		if err != nil {
			t.Fatalf("predict off: %v", err)
		}
		predOn, err := p.Predict(context.Background(), "daily", on)
		if err != nil {
			t.Fatalf("predict on: %v", err)
		}
		if predOn.Confidence < predOff.Confidence {
			t.Fatalf("setting %s lowered confidence: %v -> %v",
				FeatureNames[flag], predOff.Confidence, predOn.Confidence)
		}
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	rows := syntheticDataset(300)
	m := trainSmall(t, rows)
	payload, err := m.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := UnmarshalModel(payload)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		probe := rows[i].Features
		if got, want := loaded.Forest.Predict(probe), m.Forest.Predict(probe); got != want {
			t.Fatalf("loaded artifact predicts %v, original %v", got, want)
		}
	}
	if loaded.Version != m.Version {
		t.Fatalf("version must survive the round trip")
	}
}

func TestUnmarshalRejectsEmptyArtifact(t *testing.T) {
	if _, err := UnmarshalModel([]byte(`{"version":"x"}`)); err == nil {
		t.Fatalf("expected error for artifact without trees")
	}
}

func TestTrainInsufficientRows(t *testing.T) {
	_, err := Train(syntheticDataset(5), repository.TFDaily, ForestConfig{})
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrainSkipsIncompleteRows(t *testing.T) {
	rows := syntheticDataset(100)
	for i := 0; i < 90; i++ {
		rows[i].Features[3] = math.NaN()
	}
	_, err := Train(rows, repository.TFDaily, ForestConfig{})
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("90 incomplete rows leave too few to train, got %v", err)
	}
}

func TestPredictFeatureIncomplete(t *testing.T) {
	p := NewPredictor(nil)
	p.Swap(trainSmall(t, syntheticDataset(300)))

	f := make([]float64, NumFeatures)
	f[2] = math.NaN()
	_, err := p.Predict(context.Background(), "daily", f)
	if !models.IsFeatureIncomplete(err) {
		t.Fatalf("expected FeatureIncompleteError, got %v", err)
	}
	var fe *models.FeatureIncompleteError
	if errors.As(err, &fe) && fe.Feature != "distance_from_ema9" {
		t.Fatalf("error must name the offending feature, got %q", fe.Feature)
	}
}

func TestPredictWrongWidth(t *testing.T) {
	p := NewPredictor(nil)
	if _, err := p.Predict(context.Background(), "daily", []float64{1, 2}); !models.IsDataError(err) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestPredictWithoutModel(t *testing.T) {
	p := NewPredictor(nil)
	_, err := p.Predict(context.Background(), "daily", make([]float64, NumFeatures))
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestPredictEliteAndFactors(t *testing.T) {
	p := NewPredictor(nil)
	p.Swap(trainSmall(t, syntheticDataset(300)))

	f := make([]float64, NumFeatures)
	f[0] = 6
	f[9] = 1
	f[10] = 2
	f[11] = 0.4
	f[12] = 1
	f[13] = 1
	f[14] = 1
	f[15] = 1
	f[16] = 1
	f[17] = 1
	f[18] = 1

	pred, err := p.Predict(context.Background(), "daily", f)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !pred.IsElite {
		t.Fatalf("rs/chaikin flag must mark the prediction elite")
	}
	if pred.Confidence < 0 || pred.Confidence > 100 {
		t.Fatalf("confidence out of range: %v", pred.Confidence)
	}
	want := map[string]bool{
		"strong buy stage":                         true,
		"bullish EMA alignment":                    true,
		"strong positive momentum":                 true,
		"entry near buy point":                     true,
		"fresh uptrend":                            true,
		"elite relative strength and accumulation": true,
	}
	for _, factor := range pred.ContributingFactors {
		delete(want, factor)
	}
	if len(want) != 0 {
		t.Fatalf("missing factors: %v (got %v)", want, pred.ContributingFactors)
	}
}

func TestExtractFeatureVector(t *testing.T) {
	n := 40
	f := &models.IndicatorFrame{Length: n, EMA: make(map[int][]float64)}
	mk := func(v float64) []float64 {
		s := make([]float64, n)
		for i := range s {
			s[i] = v
		}
		return s
	}
	f.EMA[3] = mk(104)
	f.EMA[9] = mk(103)
	f.EMA[20] = mk(102)
	f.EMA[34] = mk(101)
	f.EMA[50] = mk(100)
	f.EMA[200] = mk(99)
	f.PPO = mk(2)
	f.PPOSignal = mk(1.5)
	f.PPOHistogram = mk(0.5)
	f.PMO = mk(1)
	f.PMOSignal = mk(0.5)

	sig := &models.BuySignal{
		EntryIndex: 35,
		EntryPrice: 105,
		Stage:      models.StageStrongBuy,
		Flags:      models.QualityFlags{HasBuyPoint: true},
	}
	vec := Extract(sig, f)
	if len(vec) != NumFeatures {
		t.Fatalf("expected %d features, got %d", NumFeatures, len(vec))
	}
	if vec[0] != 6 {
		t.Fatalf("stage ordinal: got %v", vec[0])
	}
	wantDist := (105.0 - 104.0) / 105.0 * 100
	if math.Abs(vec[1]-wantDist) > 1e-12 {
		t.Fatalf("distance_from_ema3: got %v want %v", vec[1], wantDist)
	}
	if vec[5] != 1 || vec[8] != 1 {
		t.Fatalf("price above every EMA, got %v %v", vec[5], vec[8])
	}
	if vec[9] != 1 {
		t.Fatalf("EMAs are aligned 3>9>20>34")
	}
	if vec[13] != 1 {
		t.Fatalf("PPO of 2 is strong")
	}
	if vec[15] != 1 || vec[16] != 1 || vec[17] != 0 {
		t.Fatalf("quality flags wrong: %v %v %v", vec[15], vec[16], vec[17])
	}
}
