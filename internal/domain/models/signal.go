package models

import "time"

// QualityFlags are boolean tags attached to a signal at entry time.
type QualityFlags struct {
	HasBuyPoint  bool `json:"has_buy_point"` // entry inside the buy zone around the last confirmed peak
	HasUptrend   bool `json:"has_uptrend"`   // fresh uptrend: close above the long EMA with rising slope
	HasRSChaikin bool `json:"has_rs_chaikin"`
}

// BuySignal is created whenever the classifier transitions into a buy
// stage. It is the unit consumed by the labeling pipeline.
type BuySignal struct {
	Symbol     string       `json:"symbol"`
	Timeframe  string       `json:"timeframe"`
	EntryDate  time.Time    `json:"entry_date"`
	EntryIndex int          `json:"entry_index"`
	EntryPrice float64      `json:"entry_price"`
	Stage      Stage        `json:"stage"`
	BuyPoint   float64      `json:"buy_point"`
	StopLoss   float64      `json:"stop_loss"`
	Flags      QualityFlags `json:"flags"`
}

// Outcome is the label assigned to a retained signal.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// LabeledSignal is an immutable training record: a BuySignal plus its
// resolved outcome and the feature vector observed at entry.
type LabeledSignal struct {
	BuySignal
	Features  []float64 `json:"features"`
	Outcome   Outcome   `json:"outcome"`
	Gain      float64   `json:"gain"`       // realized gain at resolution
	BarsHeld  int       `json:"bars_held"`  // forward bars walked before resolution
	TargetPct float64   `json:"target_pct"` // profit target the label was judged against
}
