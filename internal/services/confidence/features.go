package confidence

import (
	"math"

	"TrendRadar/internal/domain/models"
)

// FeatureNames is the versioned feature contract. Order is part of the
// model artifact; never reorder, only append in a new version.
var FeatureNames = []string{
	"tr_stage",
	"distance_from_ema3",
	"distance_from_ema9",
	"distance_from_ema20",
	"distance_from_ema34",
	"above_ema3",
	"above_ema9",
	"above_ema20",
	"above_ema34",
	"ema_alignment",
	"ppo_value",
	"ppo_histogram",
	"ppo_positive",
	"ppo_strong",
	"pmo_value",
	"has_quality",
	"has_buy_point",
	"has_uptrend",
	"has_rs_chaikin",
}

// NumFeatures is the width of every feature vector.
var NumFeatures = len(FeatureNames)

// ppoStrongThreshold marks a PPO magnitude considered decisive.
const ppoStrongThreshold = 1.5

// Extract builds the feature vector for a signal at its entry bar.
// Undefined inputs propagate as NaN; completeness is checked at
// prediction time, not here.
func Extract(sig *models.BuySignal, f *models.IndicatorFrame) []float64 {
	i := sig.EntryIndex
	entry := sig.EntryPrice

	distance := func(period int) float64 {
		ema := f.EMA[period][i]
		if !models.Defined(ema) || entry == 0 {
			return math.NaN()
		}
		return (entry - ema) / entry * 100
	}
	above := func(period int) float64 {
		ema := f.EMA[period][i]
		if !models.Defined(ema) {
			return math.NaN()
		}
		return bit(entry > ema)
	}

	ema3, ema9 := f.EMA[3][i], f.EMA[9][i]
	ema20, ema34 := f.EMA[20][i], f.EMA[34][i]
	alignment := math.NaN()
	if models.Defined(ema3) && models.Defined(ema9) && models.Defined(ema20) && models.Defined(ema34) {
		alignment = bit(ema3 > ema9 && ema9 > ema20 && ema20 > ema34)
	}

	ppo := f.PPO[i]
	ppoHist := f.PPOHistogram[i]
	ppoPositive, ppoStrong := math.NaN(), math.NaN()
	if models.Defined(ppo) {
		ppoPositive = bit(ppo > 0)
		ppoStrong = bit(math.Abs(ppo) > ppoStrongThreshold)
	}

	hasQuality := sig.Flags.HasBuyPoint || sig.Flags.HasUptrend || sig.Flags.HasRSChaikin

	return []float64{
		float64(sig.Stage),
		distance(3),
		distance(9),
		distance(20),
		distance(34),
		above(3),
		above(9),
		above(20),
		above(34),
		alignment,
		ppo,
		ppoHist,
		ppoPositive,
		ppoStrong,
		f.PMO[i],
		bit(hasQuality),
		bit(sig.Flags.HasBuyPoint),
		bit(sig.Flags.HasUptrend),
		bit(sig.Flags.HasRSChaikin),
	}
}

// Incomplete returns the name of the first undefined feature.
func Incomplete(features []float64) (string, bool) {
	for i, v := range features {
		if !models.Defined(v) {
			if i < len(FeatureNames) {
				return FeatureNames[i], true
			}
			return "unknown", true
		}
	}
	return "", false
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
