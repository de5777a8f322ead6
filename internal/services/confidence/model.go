package confidence

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
)

// minTrainingRows is the smallest dataset worth fitting at all.
const minTrainingRows = 20

// Model is the immutable, versioned training artifact. It serializes
// to JSON in full; a loaded artifact predicts identically to the
// freshly trained one.
type Model struct {
	Version      string       `json:"version"`
	Timeframe    string       `json:"timeframe"`
	TargetPct    float64      `json:"target_pct"`
	FeatureNames []string     `json:"feature_names"`
	Forest       *Forest      `json:"forest"`
	TrainedAt    time.Time    `json:"trained_at"`
	Metrics      ModelMetrics `json:"metrics"`
}

type ModelMetrics struct {
	TrainingSamples   int     `json:"training_samples"`
	ValidationSamples int     `json:"validation_samples"`
	Accuracy          float64 `json:"accuracy"`
	SuccessPrecision  float64 `json:"success_precision"`
	SuccessRecall     float64 `json:"success_recall"`
	SuccessRate       float64 `json:"success_rate"`
}

// Train fits a forest for one timeframe from labeled signals. Rows
// with incomplete feature vectors are skipped. The split is stratified
// 80/20 and sample weights are class-balanced, so a lopsided dataset
// does not collapse into the majority class.
func Train(rows []models.LabeledSignal, tf repository.Timeframe, cfg ForestConfig) (*Model, error) {
	var x [][]float64
	var y []int
	for _, r := range rows {
		if len(r.Features) != NumFeatures {
			continue
		}
		if _, bad := Incomplete(r.Features); bad {
			continue
		}
		x = append(x, r.Features)
		y = append(y, int(r.Outcome))
	}
	if len(x) < minTrainingRows {
		return nil, models.ErrInsufficientData
	}

	trainIdx, valIdx := stratifiedSplit(y, 0.2)

	// Balanced weights: each class contributes half the total mass.
	counts := [2]int{}
	for _, i := range trainIdx {
		counts[y[i]]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, fmt.Errorf("training set has a single outcome class: %w", models.ErrInsufficientData)
	}
	w := make([]float64, len(x))
	total := float64(len(trainIdx))
	for _, i := range trainIdx {
		w[i] = total / (2 * float64(counts[y[i]]))
	}

	tx := make([][]float64, len(trainIdx))
	ty := make([]int, len(trainIdx))
	tw := make([]float64, len(trainIdx))
	for k, i := range trainIdx {
		tx[k], ty[k], tw[k] = x[i], y[i], w[i]
	}
	forest := TrainForest(tx, ty, tw, cfg)

	trainedAt := time.Now().UTC()
	m := &Model{
		Version:      trainedAt.Format("20060102150405"),
		Timeframe:    string(tf),
		TargetPct:    tf.TargetPct(),
		FeatureNames: append([]string(nil), FeatureNames...),
		Forest:       forest,
		TrainedAt:    trainedAt,
	}
	m.Metrics = evaluate(forest, x, y, trainIdx, valIdx)
	return m, nil
}

// Report converts the artifact metadata into the API-facing summary.
func (m *Model) Report() models.TrainReport {
	return models.TrainReport{
		Timeframe:       m.Timeframe,
		Version:         m.Version,
		TargetPct:       m.TargetPct,
		TrainingSamples: m.Metrics.TrainingSamples,
		SuccessRate:     m.Metrics.SuccessRate,
		Accuracy:        m.Metrics.Accuracy,
		TrainedAt:       m.TrainedAt,
	}
}

func (m *Model) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func UnmarshalModel(payload []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if m.Forest == nil || len(m.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model artifact has no trees")
	}
	return &m, nil
}

// stratifiedSplit shuffles each class independently with a fixed seed
// and carves the validation share off the front of both.
func stratifiedSplit(y []int, valShare float64) (train, val []int) {
	var byClass [2][]int
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	rng := rand.New(rand.NewSource(forestSeed))
	for _, class := range byClass {
		rng.Shuffle(len(class), func(a, b int) { class[a], class[b] = class[b], class[a] })
		cut := int(float64(len(class)) * valShare)
		val = append(val, class[:cut]...)
		train = append(train, class[cut:]...)
	}
	return train, val
}

func evaluate(forest *Forest, x [][]float64, y []int, trainIdx, valIdx []int) ModelMetrics {
	eval := valIdx
	if len(eval) == 0 {
		eval = trainIdx
	}
	var correct, tp, fp, fn int
	for _, i := range eval {
		pred := 0
		if forest.Predict(x[i]) >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 1:
			fn++
		}
	}

	successes := 0
	for _, label := range y {
		successes += label
	}

	m := ModelMetrics{
		TrainingSamples:   len(trainIdx),
		ValidationSamples: len(valIdx),
		Accuracy:          float64(correct) / float64(len(eval)),
		SuccessRate:       float64(successes) / float64(len(y)),
	}
	if tp+fp > 0 {
		m.SuccessPrecision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.SuccessRecall = float64(tp) / float64(tp+fn)
	}
	return m
}
