/**
 * @description
 * The session/auth state machine. It reconciles the locally cached session
 * against the remote account store and owns the in-memory account snapshot
 * that the rest of the engine reads.
 *
 * States: Unauthenticated -> Authenticating -> Hydrating -> Ready, with
 * Error reachable from Authenticating and a path back to Unauthenticated on
 * sign-out or on hydration discovering the account no longer exists.
 *
 * @notes
 * - Transitions are serialized. A sign-in or hydration attempt while
 *   another is in flight fails with ErrBusy; nothing is queued or raced.
 * - Ready is only reachable through a fetch confirmed in this process
 *   lifetime. An abandoned hydration leaves the machine in Hydrating; it is
 *   never forced to Ready over unconfirmed data.
 * - Cache failures are absorbed and logged, never fatal. Partial cached
 *   state (session without snapshot) simply hydrates again.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/agroai/crop-engine/internal/domain"
	"github.com/agroai/crop-engine/internal/store"
)

// State names a position in the session lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateHydrating       State = "hydrating"
	StateReady           State = "ready"
	StateError           State = "error"
)

// ErrBusy rejects a session operation while another is already in flight.
var ErrBusy = errors.New("session operation already in progress")

// ErrNotReady rejects operations that require a hydrated session.
var ErrNotReady = errors.New("session is not ready")

// SessionMachine drives authentication and cache hydration.
type SessionMachine struct {
	cache  *store.Cache
	remote RemoteStore
	logger *slog.Logger

	mu               sync.Mutex
	state            State
	reason           domain.AuthReason
	session          domain.Session
	account          *domain.Account
	inflight         bool
	needsRehydration bool
}

// NewSessionMachine creates a machine in the Unauthenticated state.
func NewSessionMachine(cache *store.Cache, remote RemoteStore, logger *slog.Logger) *SessionMachine {
	return &SessionMachine{
		cache:  cache,
		remote: remote,
		logger: logger,
		state:  StateUnauthenticated,
	}
}

// Start runs the app-launch path: seed the catalog if absent, then consult
// the cache for a session. A cached session moves the machine to Hydrating;
// the caller must follow up with Hydrate before any data is trusted.
func (m *SessionMachine) Start(ctx context.Context) State {
	if err := SeedCatalog(ctx, m.cache, m.logger); err != nil {
		// Recoverable: seeding retries on the next AddCrop validation.
		m.logger.Warn("catalog seed failed", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok, err := m.cache.Session(ctx)
	if err != nil {
		m.logger.Warn("session read failed, treating as signed out", "error", err)
	}
	if !ok {
		m.state = StateUnauthenticated
		return m.state
	}
	m.session = sess
	m.state = StateHydrating
	return m.state
}

// SignIn authenticates existing credentials. On success the session is
// cached and the machine moves to Hydrating.
func (m *SessionMachine) SignIn(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, email, password, m.remote.Authenticate)
}

// SignUp creates a new account. The remote store initializes the account
// with an empty crop list before the session is issued, so first hydration
// always finds a well-formed document.
func (m *SessionMachine) SignUp(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, email, password, m.remote.CreateAccount)
}

func (m *SessionMachine) authenticate(
	ctx context.Context,
	email, password string,
	call func(context.Context, string, string) (domain.Session, error),
) error {
	if err := m.beginAuthenticating(); err != nil {
		return err
	}

	sess, err := call(ctx, email, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateError
		m.reason = authReason(err)
		return err
	}

	if cerr := m.cache.SetSession(ctx, sess); cerr != nil {
		// The run proceeds on the in-memory session; the next launch just
		// starts signed out.
		m.logger.Warn("session cache write failed", "error", cerr)
	}
	m.session = sess
	m.state = StateHydrating
	m.logger.Info("authenticated", "account_id", sess.AccountID)
	return nil
}

func (m *SessionMachine) beginAuthenticating() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateAuthenticating, StateHydrating:
		return ErrBusy
	case StateUnauthenticated:
		m.state = StateAuthenticating
		return nil
	default:
		return fmt.Errorf("cannot authenticate from state %q", m.state)
	}
}

func authReason(err error) domain.AuthReason {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return domain.AuthNetworkError
}

// Acknowledge returns the machine from Error to Unauthenticated once the
// caller has shown the failure. There is no silent retry.
func (m *SessionMachine) Acknowledge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateError {
		m.state = StateUnauthenticated
		m.reason = ""
	}
}

// Hydrate fetches the account behind the current session and overwrites the
// cached snapshot. Callable from Hydrating (initial or retried hydration)
// and from Ready (foreground refresh / cache repair).
//
// On a transient remote failure the state is left where it was and the
// error is returned for the caller to retry; the machine never reaches
// Ready over data it has not confirmed.
func (m *SessionMachine) Hydrate(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateHydrating && m.state != StateReady {
		m.mu.Unlock()
		return fmt.Errorf("cannot hydrate from state %q", m.state)
	}
	if m.inflight {
		m.mu.Unlock()
		return ErrBusy
	}
	m.inflight = true
	sess := m.session
	m.mu.Unlock()

	if sess.Token == "" {
		// Partial cached state: a hydrating machine without a session means
		// an earlier write failed halfway. Re-authentication repairs it.
		m.mu.Lock()
		defer m.mu.Unlock()
		m.inflight = false
		m.state = StateUnauthenticated
		return nil
	}

	account, err := m.remote.FetchAccount(ctx, sess)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight = false

	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			m.logger.Info("session no longer maps to an account, signing out", "account_id", sess.AccountID)
			m.clearCachedIdentity(ctx)
			m.session = domain.Session{}
			m.account = nil
			m.state = StateUnauthenticated
			return nil
		}
		// Transient or permanent remote failure: stay put, surface retry.
		return err
	}

	m.account = account
	if cerr := m.cache.SetAccount(ctx, account); cerr != nil {
		m.logger.Warn("account snapshot cache write failed", "error", cerr)
		m.needsRehydration = true
	} else {
		m.needsRehydration = false
	}
	m.state = StateReady
	m.logger.Info("hydrated", "account_id", account.ID, "crops", len(account.Crops))
	return nil
}

// SignOut clears the session and account snapshot from the cache. The crop
// catalog and last-known location persist across sign-outs.
func (m *SessionMachine) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady {
		return ErrNotReady
	}
	if err := m.cache.ClearSession(ctx); err != nil {
		// Leaving a live token cached while claiming to be signed out is
		// worse than staying Ready; let the caller retry.
		return err
	}
	m.clearCachedAccountOnly(ctx)
	m.session = domain.Session{}
	m.account = nil
	m.needsRehydration = false
	m.state = StateUnauthenticated
	m.logger.Info("signed out")
	return nil
}

func (m *SessionMachine) clearCachedIdentity(ctx context.Context) {
	if err := m.cache.ClearSession(ctx); err != nil {
		m.logger.Warn("session cache clear failed", "error", err)
	}
	m.clearCachedAccountOnly(ctx)
}

func (m *SessionMachine) clearCachedAccountOnly(ctx context.Context) {
	if err := m.cache.ClearAccount(ctx); err != nil {
		m.logger.Warn("account cache clear failed", "error", err)
	}
}

// State returns the current lifecycle state.
func (m *SessionMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ErrorReason returns the failure reason while the machine is in Error.
func (m *SessionMachine) ErrorReason() domain.AuthReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// Account returns the confirmed account snapshot while Ready.
func (m *SessionMachine) Account() (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady || m.account == nil {
		return nil, ErrNotReady
	}
	return m.account, nil
}

// Session returns the active session while Ready.
func (m *SessionMachine) Session() (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady {
		return domain.Session{}, ErrNotReady
	}
	return m.session, nil
}

// NeedsRehydration reports whether the cached snapshot is known to lag the
// remote store. The caller should run Hydrate on the next app foreground.
func (m *SessionMachine) NeedsRehydration() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.needsRehydration
}

// appendCropToSnapshot applies a remotely acknowledged crop to the local
// view. A cache write failure here never fails the overall operation: the
// remote store is authoritative, so the stale cache is flagged for repair
// on the next hydration instead.
func (m *SessionMachine) appendCropToSnapshot(ctx context.Context, crop domain.Crop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		m.needsRehydration = true
		return
	}
	m.account.Crops = append(m.account.Crops, crop)
	if err := m.cache.SetAccount(ctx, m.account); err != nil {
		m.logger.Warn("crop cached snapshot write failed, scheduling re-hydration", "error", err)
		m.needsRehydration = true
	}
}
