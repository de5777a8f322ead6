package patterns

import (
	"context"
	"sort"
	"time"

	"TrendRadar/internal/domain/models"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/pkg/logger"
)

const (
	defaultMinConfidence = 0.60
	prominenceFactor     = 0.3
	// overlapLimit is the dedup threshold: two same-type matches
	// sharing more than half their bars collapse into one.
	overlapLimit = 0.5
)

type Config struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// Detector scans close series for the eight geometric templates.
// Deterministic: the same bars always produce the same matches and
// confidences.
type Detector struct {
	cfg Config
	log *logger.Logger
}

func NewDetector(cfg Config, log *logger.Logger) *Detector {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}
	return &Detector{cfg: cfg, log: log}
}

// Detect returns matches sorted by confidence, highest first, keeping
// only those at or above the configured minimum. Series too short for
// a template yield zero matches for it, never an error.
func (d *Detector) Detect(_ context.Context, bars []models.Bar) ([]models.PatternMatch, error) {
	start := time.Now()
	n := len(bars)
	if n < 3 {
		return nil, nil
	}
	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	distance := minSeparation(n)
	prom := prominenceFactor * stddev(closes)
	peaks := findPeaks(closes, distance, prom)
	troughs := findTroughs(closes, distance, prom)

	var all []models.PatternMatch
	all = append(all, detectHeadAndShoulders(closes, peaks)...)
	all = append(all, detectInverseHeadAndShoulders(closes, troughs)...)
	all = append(all, detectDoubleTops(closes, peaks)...)
	all = append(all, detectDoubleBottoms(closes, troughs)...)
	all = append(all, detectTriangles(closes, peaks, troughs)...)
	all = append(all, detectCupAndHandle(closes)...)

	all = dedupWithinType(all)

	out := all[:0]
	for _, m := range all {
		if m.Confidence >= d.cfg.MinConfidence {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Confidence != out[b].Confidence {
			return out[a].Confidence > out[b].Confidence
		}
		return out[a].StartIndex < out[b].StartIndex
	})

	if d.log != nil {
		d.log.Debug("pattern scan finished",
			logger.Int("bars", n),
			logger.Int("matches", len(out)),
			logger.Duration("took_ms", time.Since(start)),
		)
	}
	return out, nil
}

// dedupWithinType drops the lower-confidence match of any same-type
// pair overlapping more than half of the shorter span. Different types
// overlap freely.
func dedupWithinType(matches []models.PatternMatch) []models.PatternMatch {
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Confidence != matches[b].Confidence {
			return matches[a].Confidence > matches[b].Confidence
		}
		return matches[a].StartIndex < matches[b].StartIndex
	})
	var kept []models.PatternMatch
	for _, m := range matches {
		dup := false
		for _, k := range kept {
			if k.Type != m.Type {
				continue
			}
			shorter := m.Span()
			if k.Span() < shorter {
				shorter = k.Span()
			}
			if shorter > 0 && float64(m.Overlap(k))/float64(shorter) > overlapLimit {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, m)
		}
	}
	return kept
}

// clampConfidence converts a raw 0..100 score with a per-template cap
// into the [0,1] confidence scale.
func clampConfidence(raw, limit float64) float64 {
	if raw > limit {
		raw = limit
	}
	if raw < 0 {
		raw = 0
	}
	return raw / 100
}

var _ domsvc.PatternDetector = (*Detector)(nil)
