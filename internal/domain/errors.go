/**
 * @description
 * Typed error taxonomy shared by the engine and the remote store client.
 * Callers classify failures with errors.Is / errors.As; nothing in this
 * package (or anything that returns these) terminates the process.
 *
 * Taxonomy:
 *   - AuthError: sign-in/sign-up failures, carrying a Reason.
 *   - ErrAccountNotFound: the session's account no longer exists remotely.
 *   - RemoteError: remote store failure; Transient marks it retryable.
 *   - CacheError: local cache failure. Always recoverable — triggers
 *     re-hydration or re-seeding, never a crash.
 *   - ValidationError: rejected before any I/O is attempted.
 *   - DivisionUndefinedError: malformed catalog parameters reaching the
 *     scheduler.
 */
package domain

import (
	"errors"
	"fmt"
)

// AuthReason discriminates authentication failures.
type AuthReason string

const (
	AuthInvalidCredentials AuthReason = "invalid_credentials"
	AuthAccountExists      AuthReason = "account_exists"
	AuthNetworkError       AuthReason = "network_error"
)

// AuthError is returned by authenticate/create-account operations.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrAccountNotFound is returned by FetchAccount when the token no longer
// maps to a live account (stale or foreign session).
var ErrAccountNotFound = errors.New("account not found")

// RemoteError wraps a remote store failure. Transient failures are surfaced
// to the caller as retryable; the engine never retries them internally.
type RemoteError struct {
	Transient bool
	Err       error
}

func (e *RemoteError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("remote store error (%s): %v", kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// CacheError wraps a local cache failure with the operation and key involved.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// ValidationReason discriminates pre-I/O rejections of a crop write.
type ValidationReason string

const (
	UnknownCropType ValidationReason = "unknown_crop_type"
	MissingLocation ValidationReason = "missing_location"
	DuplicateCrop   ValidationReason = "duplicate_crop"
)

// ValidationError rejects a crop before any remote call is attempted.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("crop validation failed: %s", e.Reason)
}

// DivisionUndefinedError marks a catalog entry whose duration or frequency
// is not positive. Callers must treat the affected crop as "unknown" rather
// than fail the whole listing.
type DivisionUndefinedError struct {
	Param string
	Value int
}

func (e *DivisionUndefinedError) Error() string {
	return fmt.Sprintf("division undefined: %s = %d", e.Param, e.Value)
}
