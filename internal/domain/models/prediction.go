package models

import "time"

// Prediction is the inference output for a single signal.
type Prediction struct {
	Symbol              string    `json:"symbol,omitempty"`
	Timeframe           string    `json:"timeframe"`
	Confidence          float64   `json:"confidence"` // 0..100, P(success) scaled
	ContributingFactors []string  `json:"contributing_factors"`
	IsElite             bool      `json:"is_elite"`
	ModelVersion        string    `json:"model_version"`
	Timestamp           time.Time `json:"timestamp"`
}

// TrainReport summarizes a completed training run. The produced model
// artifact is versioned and immutable; retraining never mutates a
// previously stored version.
type TrainReport struct {
	Timeframe       string    `json:"timeframe"`
	Version         string    `json:"version"`
	TargetPct       float64   `json:"target_pct"`
	TrainingSamples int       `json:"training_samples"`
	SuccessRate     float64   `json:"success_rate"` // share of Success labels in the dataset
	Accuracy        float64   `json:"accuracy"`     // held-out validation accuracy
	TrainedAt       time.Time `json:"trained_at"`
}
