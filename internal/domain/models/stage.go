package models

// Stage is the six-level trend classification attached to a bar.
// It is a pure function of the EMA alignment snapshot plus the
// PPO/PMO state at that bar; no lookahead, no hidden state.
type Stage int

const (
	StageStrongSell Stage = iota + 1
	StageSell
	StageNeutralSell
	StageNeutralBuy
	StageBuy
	StageStrongBuy
)

var stageNames = map[Stage]string{
	StageStrongSell:  "strong_sell",
	StageSell:        "sell",
	StageNeutralSell: "neutral_sell",
	StageNeutralBuy:  "neutral_buy",
	StageBuy:         "buy",
	StageStrongBuy:   "strong_buy",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether s is one of the six enumerated stages.
func (s Stage) Valid() bool {
	return s >= StageStrongSell && s <= StageStrongBuy
}

// IsBuy reports whether the stage is an entry stage (Buy or StrongBuy).
// Neutral Buy is transitional and does not open a signal.
func (s Stage) IsBuy() bool {
	return s == StageBuy || s == StageStrongBuy
}
