/**
 * @description
 * The engine's view of the remote authoritative account store. The concrete
 * transport lives in pkg/farmapi; tests substitute stubs.
 *
 * Error contract:
 *   - Authenticate / CreateAccount fail with *domain.AuthError.
 *   - FetchAccount fails with domain.ErrAccountNotFound for a stale or
 *     foreign session, or *domain.RemoteError otherwise.
 *   - AppendCrop fails with *domain.RemoteError; a nil return means the
 *     crop is durably recorded server-side.
 */
package app

import (
	"context"

	"github.com/agroai/crop-engine/internal/domain"
)

// RemoteStore is the remote account store the engine synchronizes against.
type RemoteStore interface {
	Authenticate(ctx context.Context, email, password string) (domain.Session, error)
	CreateAccount(ctx context.Context, email, password string) (domain.Session, error)
	FetchAccount(ctx context.Context, sess domain.Session) (*domain.Account, error)
	AppendCrop(ctx context.Context, sess domain.Session, crop domain.Crop) error
}
