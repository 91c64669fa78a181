/**
 * @description
 * The crop write coordinator and the metric read path. Adding a crop is a
 * remote-first dual write: validation happens before any I/O, the remote
 * store must acknowledge before the cache is touched, and a failed cache
 * write downgrades to a scheduled re-hydration rather than a failure.
 *
 * @notes
 * - The ordering contract is the point: the cache may transiently lag the
 *   remote store (self-healing on the next hydration), but it can never
 *   show a crop the remote store cannot reproduce.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/agroai/crop-engine/internal/agronomy"
	"github.com/agroai/crop-engine/internal/domain"
	"github.com/agroai/crop-engine/internal/store"
)

// CropService coordinates crop writes and computes display metrics.
type CropService struct {
	machine *SessionMachine
	cache   *store.Cache
	remote  RemoteStore
	logger  *slog.Logger
}

// NewCropService wires the coordinator to the session machine it shares a
// cache and remote store with.
func NewCropService(machine *SessionMachine, cache *store.Cache, remote RemoteStore, logger *slog.Logger) *CropService {
	return &CropService{machine: machine, cache: cache, remote: remote, logger: logger}
}

// AddCrop validates the crop, records it remotely, then mirrors it into the
// cached snapshot. Validation failures reject before any remote call; a
// remote failure leaves the cache untouched.
func (s *CropService) AddCrop(ctx context.Context, crop domain.Crop) error {
	sess, err := s.machine.Session()
	if err != nil {
		return err
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}
	if _, ok := catalog.Lookup(crop.CropTypeName); !ok {
		return &domain.ValidationError{Reason: domain.UnknownCropType}
	}
	if crop.Location == nil {
		return &domain.ValidationError{Reason: domain.MissingLocation}
	}
	account, err := s.machine.Account()
	if err != nil {
		return err
	}
	if account.HasCrop(crop) {
		return &domain.ValidationError{Reason: domain.DuplicateCrop}
	}

	if err := s.remote.AppendCrop(ctx, sess, crop); err != nil {
		return err
	}

	s.machine.appendCropToSnapshot(ctx, crop)

	if err := s.cache.SetLocation(ctx, *crop.Location); err != nil {
		s.logger.Warn("last-known location write failed", "error", err)
	}
	s.logger.Info("crop added", "crop_type", crop.CropTypeName, "created_at", crop.CreatedAt)
	return nil
}

// loadCatalog reads the cached catalog, reseeding it opportunistically if a
// partial cache write left it missing.
func (s *CropService) loadCatalog(ctx context.Context) (store.CatalogRecord, error) {
	catalog, ok, err := s.cache.Catalog(ctx)
	if err != nil {
		return store.CatalogRecord{}, err
	}
	if ok {
		return catalog, nil
	}
	if err := SeedCatalog(ctx, s.cache, s.logger); err != nil {
		return store.CatalogRecord{}, err
	}
	catalog, _, err = s.cache.Catalog(ctx)
	return catalog, err
}

// CropStatus is one crop joined with its catalog entry and derived metrics.
// Unknown marks a crop whose catalog entry is missing or malformed; its
// metrics are zero and must be rendered as "unknown growth", not believed.
type CropStatus struct {
	Crop    domain.Crop      `json:"crop"`
	Type    domain.CropType  `json:"type"`
	Metrics agronomy.Metrics `json:"metrics"`
	Unknown bool             `json:"unknown"`
}

// Overview computes metrics for every crop in the confirmed snapshot.
// Metrics are derived on every call from the immutable creation timestamps
// and the given clock; nothing here is cached.
func (s *CropService) Overview(ctx context.Context, now time.Time) ([]CropStatus, error) {
	account, err := s.machine.Account()
	if err != nil {
		return nil, err
	}
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]CropStatus, 0, len(account.Crops))
	for _, crop := range account.Crops {
		status := CropStatus{Crop: crop}
		cropType, ok := catalog.Lookup(crop.CropTypeName)
		if !ok {
			status.Unknown = true
			statuses = append(statuses, status)
			continue
		}
		status.Type = cropType
		metrics, err := agronomy.Compute(crop.CreatedAt, cropType, now)
		if err != nil {
			// Malformed catalog entry: report the crop, not a failure.
			s.logger.Warn("metrics unavailable", "crop_type", crop.CropTypeName, "error", err)
			status.Unknown = true
			statuses = append(statuses, status)
			continue
		}
		status.Metrics = metrics
		statuses = append(statuses, status)
	}
	return statuses, nil
}
