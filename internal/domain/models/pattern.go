package models

// PatternType enumerates the eight canonical geometric templates.
type PatternType string

const (
	PatternHeadAndShoulders    PatternType = "head_and_shoulders"
	PatternInvHeadAndShoulders PatternType = "inverse_head_and_shoulders"
	PatternDoubleTop           PatternType = "double_top"
	PatternDoubleBottom        PatternType = "double_bottom"
	PatternAscendingTriangle   PatternType = "ascending_triangle"
	PatternDescendingTriangle  PatternType = "descending_triangle"
	PatternSymmetricalTriangle PatternType = "symmetrical_triangle"
	PatternCupAndHandle        PatternType = "cup_and_handle"
)

// Direction classifies the expected resolution of a pattern.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// KeyPoint is one extremum defining a pattern's shape.
type KeyPoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}

// PatternMatch is one detected pattern occurrence. Immutable after
// creation; matches of different types may overlap freely.
type PatternMatch struct {
	Type        PatternType `json:"type"`
	StartIndex  int         `json:"start_index"`
	EndIndex    int         `json:"end_index"`
	Confidence  float64     `json:"confidence"` // 0..1
	TargetPrice float64     `json:"target_price,omitempty"`
	Direction   Direction   `json:"direction"`
	KeyPoints   []KeyPoint  `json:"key_points"`
}

// Span returns the number of bars the match covers.
func (m PatternMatch) Span() int {
	return m.EndIndex - m.StartIndex + 1
}

// Overlap returns the number of indices shared with other.
func (m PatternMatch) Overlap(other PatternMatch) int {
	lo := m.StartIndex
	if other.StartIndex > lo {
		lo = other.StartIndex
	}
	hi := m.EndIndex
	if other.EndIndex < hi {
		hi = other.EndIndex
	}
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}
