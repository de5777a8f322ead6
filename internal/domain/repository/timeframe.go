package repository

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TFDaily  Timeframe = "daily"
	TFWeekly Timeframe = "weekly"
)

// StopPct is the uniform protective stop applied to every signal.
const StopPct = 0.10

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TFDaily, TFWeekly:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TFDaily }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// TargetPct returns the profit target a signal must hit to label as
// success on this timeframe.
func (tf Timeframe) TargetPct() float64 {
	if tf == TFWeekly {
		return 0.08
	}
	return 0.05
}
