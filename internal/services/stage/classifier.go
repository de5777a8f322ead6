package stage

import (
	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/services/indicators"
	"TrendRadar/pkg/logger"
)

// minClassifyIndex is the first bar with a fully defined alignment
// snapshot: the longest EMA in the rule table is 34 bars.
const minClassifyIndex = 34

// Classifier maps the indicator alignment at a bar onto the six-level
// trend stage. Stateless; the same frame and index always produce the
// same stage.
type Classifier struct {
	log *logger.Logger
}

func NewClassifier(log *logger.Logger) *Classifier {
	return &Classifier{log: log}
}

// snapshot gathers everything the rule table reads at bar i.
type snapshot struct {
	ema3, ema9, ema20, ema34 float64
	ppo, ppoSignal           float64
	pmo, pmoSignal           float64

	ppoRising, ppoFalling   bool
	pmoFalling              bool
	ema9Rising, ema9Falling bool
	ema34Rising             bool
	ema34Falling            bool

	ema3CrossedAbove9 bool
	ema3CrossedBelow9 bool
}

// Classify returns the stage at bar i, or ErrIndeterminate when the
// lookback window is not filled or a required indicator is undefined.
func (c *Classifier) Classify(f *models.IndicatorFrame, i int) (models.Stage, error) {
	s, err := c.take(f, i)
	if err != nil {
		return 0, err
	}
	return classify(s), nil
}

func (c *Classifier) take(f *models.IndicatorFrame, i int) (snapshot, error) {
	var s snapshot
	if f == nil || i < minClassifyIndex || i >= f.Length {
		return s, models.ErrIndeterminate
	}
	s.ema3 = f.EMA[3][i]
	s.ema9 = f.EMA[9][i]
	s.ema20 = f.EMA[20][i]
	s.ema34 = f.EMA[34][i]
	s.ppo = f.PPO[i]
	s.ppoSignal = f.PPOSignal[i]
	s.pmo = f.PMO[i]
	s.pmoSignal = f.PMOSignal[i]

	for _, v := range []float64{s.ema3, s.ema9, s.ema20, s.ema34, s.ppo, s.ppoSignal, s.pmo, s.pmoSignal} {
		if !models.Defined(v) {
			return s, models.ErrIndeterminate
		}
	}

	s.ppoRising = indicators.Rising(f.PPO, i)
	s.ppoFalling = indicators.Falling(f.PPO, i)
	s.pmoFalling = indicators.Falling(f.PMO, i)
	s.ema9Rising = indicators.Rising(f.EMA[9], i)
	s.ema9Falling = indicators.Falling(f.EMA[9], i)
	s.ema34Rising = indicators.Rising(f.EMA[34], i)
	s.ema34Falling = indicators.Falling(f.EMA[34], i)
	s.ema3CrossedAbove9 = indicators.CrossedAbove(f.EMA[3], f.EMA[9], i)
	s.ema3CrossedBelow9 = indicators.CrossedBelow(f.EMA[3], f.EMA[9], i)
	return s, nil
}

func classify(s snapshot) models.Stage {
	if s.ppo > 0 && s.ppoRising && s.ema34Rising && s.ppo > s.ppoSignal && s.ema9 > s.ema20 {
		if s.ema9Rising && s.pmo > 0 {
			return models.StageStrongBuy
		}
		return models.StageBuy
	}
	if s.ppo < 0 && s.ppoFalling && s.ppo < s.ppoSignal && s.ema9Falling && s.ema34Falling && s.ema9 < s.ema20 {
		if s.ppo <= 0 && s.pmoFalling && s.pmo < s.pmoSignal && s.ema9 < s.ema34 {
			return models.StageStrongSell
		}
		return models.StageSell
	}
	if s.ema3CrossedAbove9 {
		return models.StageNeutralBuy
	}
	if s.ema3CrossedBelow9 {
		return models.StageNeutralSell
	}
	if s.ema9 >= s.ema20 {
		return models.StageNeutralBuy
	}
	return models.StageNeutralSell
}
