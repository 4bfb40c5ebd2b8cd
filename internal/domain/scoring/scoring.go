// Package scoring computes the composite reputation score.
//
// The formula is fixed; displayed values on the original dashboard were
// produced with exactly these weights and caps, so any change here silently
// rewrites every participant's visible reputation.
package scoring

import "math"

// Weights and saturation caps of the composite score.
const (
	accuracyWeight = 0.4
	volumeWeight   = 0.3
	stakeWeight    = 0.3

	volumePointsPerPrediction = 10
	volumeCap                 = 1000 // saturates at 100 predictions

	stakePointsPerWholeUnit = 5
	stakeCap                = 500 // saturates at 100 whole units
)

// Score maps a win rate (percent), prediction count and total stake (whole
// currency units) to a non-negative integer reputation score.
//
//	accuracy = winRate * 100 * 0.4
//	volume   = min(predictions * 10, 1000) * 0.3
//	stake    = min(stakedWhole * 5, 500) * 0.3
//	score    = round(accuracy + volume + stake)
func Score(winRatePercent float64, predictions int, stakedWholeUnits float64) int {
	accuracy := winRatePercent * 100 * accuracyWeight
	volume := math.Min(float64(predictions)*volumePointsPerPrediction, volumeCap) * volumeWeight
	stake := math.Min(stakedWholeUnits*stakePointsPerWholeUnit, stakeCap) * stakeWeight

	s := int(math.Round(accuracy + volume + stake))
	if s < 0 {
		return 0
	}
	return s
}
