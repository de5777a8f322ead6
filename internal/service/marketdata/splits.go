package marketdata

import "TrendRadar/internal/domain/models"

const (
	// splitDropPct: a one-bar close drop beyond this fraction is a
	// split candidate.
	splitDropPct = 0.25
	// splitVolumeSpike: the candidate only counts when volume jumps by
	// more than 150% over the trailing average.
	splitVolumeSpike = 2.5
	// splitVolumeLookback bars feed the trailing volume average.
	splitVolumeLookback = 20
)

// AdjustSplits detects unadjusted share splits and rescales everything
// before the split bar: prices down by the implied ratio, volume up.
// Returns the adjusted series and how many splits were applied.
func AdjustSplits(bars []models.Bar) ([]models.Bar, int) {
	applied := 0
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		if prev.Close <= 0 || cur.Close <= 0 {
			continue
		}
		drop := 1 - cur.Close/prev.Close
		if drop <= splitDropPct {
			continue
		}
		avg := trailingVolume(bars, i)
		if avg <= 0 || cur.Volume <= avg*splitVolumeSpike {
			continue
		}
		ratio := cur.Close / prev.Close
		for j := 0; j < i; j++ {
			bars[j].Open *= ratio
			bars[j].High *= ratio
			bars[j].Low *= ratio
			bars[j].Close *= ratio
			if ratio > 0 {
				bars[j].Volume /= ratio
			}
		}
		applied++
	}
	return bars, applied
}

// trailingVolume averages the volume of up to splitVolumeLookback bars
// before index i.
func trailingVolume(bars []models.Bar, i int) float64 {
	lo := i - splitVolumeLookback
	if lo < 0 {
		lo = 0
	}
	if lo == i {
		return 0
	}
	var sum float64
	for j := lo; j < i; j++ {
		sum += bars[j].Volume
	}
	return sum / float64(i-lo)
}
