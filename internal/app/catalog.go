/**
 * @description
 * Crop type catalog seeding. The built-in set is written to the local cache
 * exactly once, on first launch; an existing cached catalog is never
 * overwritten, even when the built-in set changes across releases.
 *
 * @notes
 * - CatalogVersion is stamped into the persisted record so a later release
 *   can detect a stale catalog and migrate it deliberately. Reseeding on a
 *   version bump is intentionally not implemented here.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/agroai/crop-engine/internal/domain"
	"github.com/agroai/crop-engine/internal/store"
)

// CatalogVersion identifies the built-in catalog generation.
const CatalogVersion = 1

// DefaultCatalog returns the built-in crop type set.
func DefaultCatalog() []domain.CropType {
	return []domain.CropType{
		{
			Name:                    "Tomato",
			Season:                  domain.SeasonKharifRabi,
			HarvestDurationDays:     70,
			WaterNeeds:              domain.WaterNeedsMedium,
			IrrigationFrequencyDays: 5,
		},
		{
			Name:                    "Rice",
			Season:                  domain.SeasonKharif,
			HarvestDurationDays:     120,
			WaterNeeds:              domain.WaterNeedsHigh,
			IrrigationFrequencyDays: 7,
		},
		{
			Name:                    "Wheat",
			Season:                  domain.SeasonRabi,
			HarvestDurationDays:     100,
			WaterNeeds:              domain.WaterNeedsLow,
			IrrigationFrequencyDays: 14,
		},
		{
			Name:                    "Cotton",
			Season:                  domain.SeasonKharif,
			HarvestDurationDays:     150,
			WaterNeeds:              domain.WaterNeedsMedium,
			IrrigationFrequencyDays: 10,
		},
	}
}

// SeedCatalog writes the built-in catalog if the cache holds none.
// Calling it again is a no-op; the cached record wins.
func SeedCatalog(ctx context.Context, cache *store.Cache, logger *slog.Logger) error {
	_, ok, err := cache.Catalog(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	record := store.CatalogRecord{Version: CatalogVersion, Crops: DefaultCatalog()}
	if err := cache.SetCatalog(ctx, record); err != nil {
		return err
	}
	logger.Info("crop catalog seeded", "version", CatalogVersion, "crops", len(record.Crops))
	return nil
}
