/**
 * @description
 * Core data model for the crop lifecycle engine: the remote-owned Account,
 * the crops planted against it, and the locally cached Session.
 *
 * @notes
 * - Accounts are owned by the remote store; the engine only ever holds a
 *   denormalized snapshot of one in the local cache.
 * - A Crop has no server-issued id. Its identity is the (cropTypeName,
 *   createdAt) pair, which must be unique within an account.
 */
package domain

import "time"

// Location is a latitude/longitude pair fixed at planting time.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Crop is one planted instance of a catalog crop type. All fields are
// immutable once the crop is created; CreatedAt establishes the lifecycle
// clock every derived metric is computed from.
type Crop struct {
	CropTypeName string    `json:"cropTypeName"`
	Location     *Location `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SameIdentity reports whether two crops denote the same planting.
func (c Crop) SameIdentity(other Crop) bool {
	return c.CropTypeName == other.CropTypeName && c.CreatedAt.Equal(other.CreatedAt)
}

// Account is the authoritative per-user record held by the remote store.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Crops     []Crop    `json:"crops"`
	CreatedAt time.Time `json:"created_at"`
}

// HasCrop reports whether the account already contains a crop with the
// same (cropTypeName, createdAt) identity.
func (a *Account) HasCrop(crop Crop) bool {
	for _, existing := range a.Crops {
		if existing.SameIdentity(crop) {
			return true
		}
	}
	return false
}

// Session is the locally cached result of a successful authentication.
// The token is opaque to the engine; only the remote store interprets it.
type Session struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
}
