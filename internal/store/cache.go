/**
 * @description
 * The local cache contract and its typed wrapper. The engine persists four
 * logical namespaces on-device: the session, the cached account snapshot,
 * the crop type catalog, and the last-known location.
 *
 * @notes
 * - No transactions span keys. A session that was written while the account
 *   snapshot write failed is legal state; the session machine treats it as
 *   "needs re-hydration", never as corruption.
 * - All failures come back as *domain.CacheError so callers can absorb and
 *   repair them instead of crashing.
 */
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/agroai/crop-engine/internal/domain"
)

// Cache keys. These are the only keys the engine ever touches.
const (
	KeySession  = "session"
	KeyAccount  = "account"
	KeyCatalog  = "cropCatalog"
	KeyLocation = "location"
)

// KV is the durable key-value device store the cache is built on.
// Get reports absence through the boolean, not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CatalogRecord is the persisted shape of the crop type catalog. The version
// stamp exists so a future release can migrate a stale catalog instead of
// silently reseeding over it.
type CatalogRecord struct {
	Version int               `json:"version"`
	Crops   []domain.CropType `json:"crops"`
}

// Lookup returns the catalog entry for a crop name, if present.
func (r CatalogRecord) Lookup(name string) (domain.CropType, bool) {
	for _, ct := range r.Crops {
		if ct.Name == name {
			return ct, true
		}
	}
	return domain.CropType{}, false
}

// Cache gives the engine typed access to the four namespaces on top of a KV.
type Cache struct {
	kv KV
}

// NewCache wraps a KV store.
func NewCache(kv KV) *Cache {
	return &Cache{kv: kv}
}

func (c *Cache) getJSON(ctx context.Context, key string, target interface{}) (bool, error) {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		return false, &domain.CacheError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		// A snapshot that no longer parses is stale state to re-hydrate,
		// not data to crash on. Report absence.
		return false, nil
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &domain.CacheError{Op: "marshal", Key: key, Err: err}
	}
	if err := c.kv.Set(ctx, key, string(raw)); err != nil {
		return &domain.CacheError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (c *Cache) delete(ctx context.Context, key string) error {
	if err := c.kv.Delete(ctx, key); err != nil {
		return &domain.CacheError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Session returns the cached session, if any.
func (c *Cache) Session(ctx context.Context) (domain.Session, bool, error) {
	var sess domain.Session
	ok, err := c.getJSON(ctx, KeySession, &sess)
	if err != nil || !ok {
		return domain.Session{}, false, err
	}
	if sess.Token == "" {
		return domain.Session{}, false, nil
	}
	return sess, true, nil
}

// SetSession caches a session after successful authentication.
func (c *Cache) SetSession(ctx context.Context, sess domain.Session) error {
	return c.setJSON(ctx, KeySession, sess)
}

// ClearSession removes the cached session.
func (c *Cache) ClearSession(ctx context.Context) error {
	return c.delete(ctx, KeySession)
}

// Account returns the cached account snapshot, if any.
func (c *Cache) Account(ctx context.Context) (*domain.Account, bool, error) {
	var account domain.Account
	ok, err := c.getJSON(ctx, KeyAccount, &account)
	if err != nil || !ok {
		return nil, false, err
	}
	return &account, true, nil
}

// SetAccount overwrites the cached account snapshot.
func (c *Cache) SetAccount(ctx context.Context, account *domain.Account) error {
	return c.setJSON(ctx, KeyAccount, account)
}

// ClearAccount removes the cached account snapshot.
func (c *Cache) ClearAccount(ctx context.Context) error {
	return c.delete(ctx, KeyAccount)
}

// Catalog returns the cached crop type catalog, if any.
func (c *Cache) Catalog(ctx context.Context) (CatalogRecord, bool, error) {
	var record CatalogRecord
	ok, err := c.getJSON(ctx, KeyCatalog, &record)
	if err != nil || !ok {
		return CatalogRecord{}, false, err
	}
	return record, true, nil
}

// SetCatalog writes the crop type catalog.
func (c *Cache) SetCatalog(ctx context.Context, record CatalogRecord) error {
	return c.setJSON(ctx, KeyCatalog, record)
}

// Location returns the last-known location, if one has been recorded.
func (c *Cache) Location(ctx context.Context) (domain.Location, bool, error) {
	raw, ok, err := c.kv.Get(ctx, KeyLocation)
	if err != nil {
		return domain.Location{}, false, &domain.CacheError{Op: "get", Key: KeyLocation, Err: err}
	}
	if !ok {
		return domain.Location{}, false, nil
	}
	loc, err := parseLocation(raw)
	if err != nil {
		return domain.Location{}, false, nil
	}
	return loc, true, nil
}

// SetLocation records the last-known location as "lat,lon".
func (c *Cache) SetLocation(ctx context.Context, loc domain.Location) error {
	value := fmt.Sprintf("%s,%s",
		strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	if err := c.kv.Set(ctx, KeyLocation, value); err != nil {
		return &domain.CacheError{Op: "set", Key: KeyLocation, Err: err}
	}
	return nil
}

func parseLocation(raw string) (domain.Location, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return domain.Location{}, fmt.Errorf("malformed location %q", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Location{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Location{}, err
	}
	return domain.Location{Latitude: lat, Longitude: lon}, nil
}
