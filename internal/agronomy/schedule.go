/**
 * @description
 * Pure date arithmetic for crop lifecycle signals: growth percentage,
 * days remaining to harvest, and the irrigation countdown. Every function
 * takes the clock as an explicit argument so results are reproducible.
 *
 * @notes
 * - All math runs on whole elapsed days, floored. Clock skew that puts
 *   now before createdAt is clamped to 0 elapsed days, never negative.
 * - GrowthPercent and DaysRemainingToHarvest must agree at the boundary:
 *   at daysElapsed == harvestDurationDays growth is exactly 100 and
 *   remaining is exactly 0.
 */
package agronomy

import (
	"math"
	"time"

	"github.com/agroai/crop-engine/internal/domain"
)

const hoursPerDay = 24

// DaysElapsed returns the number of whole days between createdAt and now,
// clamped to 0 when now precedes createdAt.
func DaysElapsed(createdAt, now time.Time) int {
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Hours() / hoursPerDay)
}

// GrowthPercent maps elapsed lifetime onto [0,100]. 100 is reported exactly
// when the harvest duration has fully elapsed, and never before: rounding
// alone could claim 100% a few days early, which would disagree with
// DaysRemainingToHarvest still being positive.
func GrowthPercent(createdAt time.Time, harvestDurationDays int, now time.Time) (int, error) {
	if harvestDurationDays <= 0 {
		return 0, &domain.DivisionUndefinedError{Param: "harvestDurationDays", Value: harvestDurationDays}
	}
	elapsed := DaysElapsed(createdAt, now)
	if elapsed >= harvestDurationDays {
		return 100, nil
	}
	percent := int(math.Round(100 * float64(elapsed) / float64(harvestDurationDays)))
	if percent > 99 {
		percent = 99
	}
	return percent, nil
}

// DaysRemainingToHarvest counts down to the harvest date. A crop past its
// harvest date reports 0, not a negative count: "already harvestable".
func DaysRemainingToHarvest(createdAt time.Time, harvestDurationDays int, now time.Time) int {
	remaining := harvestDurationDays - DaysElapsed(createdAt, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NextIrrigationInDays returns how many days until the next watering.
// 0 means irrigation is due today. The result is always within
// [0, irrigationFrequencyDays).
func NextIrrigationInDays(createdAt time.Time, irrigationFrequencyDays int, now time.Time) (int, error) {
	if irrigationFrequencyDays <= 0 {
		return 0, &domain.DivisionUndefinedError{Param: "irrigationFrequencyDays", Value: irrigationFrequencyDays}
	}
	r := DaysElapsed(createdAt, now) % irrigationFrequencyDays
	if r == 0 {
		return 0, nil
	}
	return irrigationFrequencyDays - r, nil
}

// HarvestDate is the projected harvest day, for display only.
func HarvestDate(createdAt time.Time, harvestDurationDays int) time.Time {
	return createdAt.AddDate(0, 0, harvestDurationDays)
}

// Metrics bundles the derived signals for one crop. Metrics are never
// persisted; they are recomputed on every read so they always agree with
// wall-clock time.
type Metrics struct {
	DaysElapsed            int       `json:"daysElapsed"`
	GrowthPercent          int       `json:"growthPercent"`
	DaysRemainingToHarvest int       `json:"daysRemainingToHarvest"`
	NextIrrigationInDays   int       `json:"nextIrrigationInDays"`
	HarvestDate            time.Time `json:"harvestDate"`
}

// Compute derives the full metric set for a crop planted at createdAt with
// the given catalog parameters. It fails with DivisionUndefinedError when
// the catalog entry is malformed.
func Compute(createdAt time.Time, cropType domain.CropType, now time.Time) (Metrics, error) {
	growth, err := GrowthPercent(createdAt, cropType.HarvestDurationDays, now)
	if err != nil {
		return Metrics{}, err
	}
	irrigation, err := NextIrrigationInDays(createdAt, cropType.IrrigationFrequencyDays, now)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{
		DaysElapsed:            DaysElapsed(createdAt, now),
		GrowthPercent:          growth,
		DaysRemainingToHarvest: DaysRemainingToHarvest(createdAt, cropType.HarvestDurationDays, now),
		NextIrrigationInDays:   irrigation,
		HarvestDate:            HarvestDate(createdAt, cropType.HarvestDurationDays),
	}, nil
}
