/**
 * @description
 * Static reference data describing how a named crop grows: its season,
 * how long it takes to reach harvest, and how often it needs water.
 * Entries are seeded into the local cache once and never mutated.
 */
package domain

// Season is the Indian cropping season a crop type belongs to.
type Season string

const (
	SeasonKharif     Season = "Kharif"
	SeasonRabi       Season = "Rabi"
	SeasonZaid       Season = "Zaid"
	SeasonKharifRabi Season = "Kharif/Rabi"
)

// WaterNeeds is a coarse classification of a crop type's water demand.
type WaterNeeds string

const (
	WaterNeedsLow    WaterNeeds = "Low"
	WaterNeedsMedium WaterNeeds = "Medium"
	WaterNeedsHigh   WaterNeeds = "High"
)

// CropType is a catalog entry, keyed by Name.
// HarvestDurationDays and IrrigationFrequencyDays must be positive; the
// scheduler treats non-positive values as malformed catalog data.
type CropType struct {
	Name                    string     `json:"name"`
	Season                  Season     `json:"season"`
	HarvestDurationDays     int        `json:"harvestDuration"`
	WaterNeeds              WaterNeeds `json:"waterNeeds"`
	IrrigationFrequencyDays int        `json:"irrigationFrequency"`
}
