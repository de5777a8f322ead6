package labeling

import (
	"context"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/pkg/logger"
)

// minLookahead is the fewest forward bars a signal needs before it can
// be judged at all.
const minLookahead = 5

// Labeler resolves buy signals into training labels by walking the
// bars after entry. Target and stop are percentage moves off the entry
// price; the stop is uniform, the target comes from the timeframe.
type Labeler struct {
	log *logger.Logger
}

func NewLabeler(log *logger.Logger) *Labeler {
	return &Labeler{log: log}
}

// Label walks forward bar by bar until the signal resolves.
//   - gain reaches the target before the stop: Success.
//   - gain reaches the stop: Failure.
//   - history ends with the position open: positive gain is Success,
//     anything else (including exactly zero) is ErrExcluded.
//
// Signals with fewer than minLookahead forward bars return
// ErrInsufficientData. A moving-average break never resolves a label.
func (l *Labeler) Label(_ context.Context, sig *models.BuySignal, forward []models.Bar) (*models.LabeledSignal, error) {
	if sig == nil || sig.EntryPrice <= 0 {
		return nil, models.NewDataError("signal without a usable entry price")
	}
	if len(forward) < minLookahead {
		return nil, models.ErrInsufficientData
	}

	tf := repository.NormalizeTimeframe(sig.Timeframe)
	target := tf.TargetPct()
	stop := repository.StopPct

	var gain float64
	for i, b := range forward {
		gain = (b.Close - sig.EntryPrice) / sig.EntryPrice
		if gain >= target {
			return l.resolved(sig, models.OutcomeSuccess, gain, i+1, target), nil
		}
		if gain <= -stop {
			return l.resolved(sig, models.OutcomeFailure, gain, i+1, target), nil
		}
	}

	// Still open at the end of history.
	if gain > 0 {
		return l.resolved(sig, models.OutcomeSuccess, gain, len(forward), target), nil
	}
	return nil, models.ErrExcluded
}

func (l *Labeler) resolved(sig *models.BuySignal, outcome models.Outcome, gain float64, held int, target float64) *models.LabeledSignal {
	if l.log != nil {
		l.log.Debug("signal resolved",
			logger.String("symbol", sig.Symbol),
			logger.String("outcome", outcome.String()),
			logger.Int("bars_held", held),
		)
	}
	return &models.LabeledSignal{
		BuySignal: *sig,
		Outcome:   outcome,
		Gain:      gain,
		BarsHeld:  held,
		TargetPct: target,
	}
}

var _ domsvc.Labeler = (*Labeler)(nil)
