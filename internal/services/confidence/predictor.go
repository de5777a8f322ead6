package confidence

import (
	"context"
	"errors"
	"sync"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/pkg/logger"
)

// ErrModelNotLoaded is returned when no artifact has been loaded for
// the requested timeframe.
var ErrModelNotLoaded = errors.New("confidence model not loaded")

// Predictor serves inference from loaded model artifacts, one per
// timeframe. Loaded models are immutable; Swap replaces the pointer
// atomically under the lock.
type Predictor struct {
	log *logger.Logger

	mu     sync.RWMutex
	models map[repository.Timeframe]*Model
}

func NewPredictor(log *logger.Logger) *Predictor {
	return &Predictor{
		log:    log,
		models: make(map[repository.Timeframe]*Model),
	}
}

// Swap installs a model for its timeframe, replacing any previous one.
func (p *Predictor) Swap(m *Model) {
	p.mu.Lock()
	p.models[repository.Timeframe(m.Timeframe)] = m
	p.mu.Unlock()
	if p.log != nil {
		p.log.Info("confidence model loaded",
			logger.String("timeframe", m.Timeframe),
			logger.String("version", m.Version),
		)
	}
}

// Loaded returns the active model for a timeframe, if any.
func (p *Predictor) Loaded(tf repository.Timeframe) (*Model, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.models[tf]
	return m, ok
}

// Predict scores one feature vector. A vector with any undefined
// feature fails with FeatureIncompleteError; callers running batches
// skip the item and continue.
func (p *Predictor) Predict(_ context.Context, tf string, features []float64) (*models.Prediction, error) {
	if len(features) != NumFeatures {
		return nil, models.NewDataError("expected %d features, got %d", NumFeatures, len(features))
	}
	if name, bad := Incomplete(features); bad {
		return nil, &models.FeatureIncompleteError{Feature: name}
	}

	m, ok := p.Loaded(repository.NormalizeTimeframe(tf))
	if !ok {
		return nil, ErrModelNotLoaded
	}

	prob := m.Forest.Predict(features)
	return &models.Prediction{
		Timeframe:           m.Timeframe,
		Confidence:          prob * 100,
		ContributingFactors: contributingFactors(features),
		IsElite:             features[18] > 0.5,
		ModelVersion:        m.Version,
		Timestamp:           time.Now().UTC(),
	}, nil
}

// contributingFactors translates the feature vector into the
// human-readable reasons shown next to the score. Rule-based on
// purpose: the explanation must not drift when the forest is retrained.
func contributingFactors(f []float64) []string {
	var out []string
	if models.Stage(int(f[0])) == models.StageStrongBuy {
		out = append(out, "strong buy stage")
	} else if models.Stage(int(f[0])) == models.StageBuy {
		out = append(out, "buy stage")
	}
	if f[9] > 0.5 {
		out = append(out, "bullish EMA alignment")
	}
	if f[12] > 0.5 {
		if f[13] > 0.5 {
			out = append(out, "strong positive momentum")
		} else {
			out = append(out, "positive momentum")
		}
	}
	if f[11] > 0 {
		out = append(out, "PPO above signal line")
	}
	if f[14] > 0 {
		out = append(out, "positive PMO")
	}
	if f[16] > 0.5 {
		out = append(out, "entry near buy point")
	}
	if f[17] > 0.5 {
		out = append(out, "fresh uptrend")
	}
	if f[18] > 0.5 {
		out = append(out, "elite relative strength and accumulation")
	}
	return out
}

var _ domsvc.Predictor = (*Predictor)(nil)
