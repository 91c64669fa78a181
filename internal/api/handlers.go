/**
 * @description
 * HTTP handlers for the farm backend: credential exchange and the per-account
 * crop document. Handlers stay thin; persistence rules (email uniqueness,
 * crop identity uniqueness) live in the repository.
 *
 * Error bodies are {"error": "<code>"} with codes the client maps back into
 * its own taxonomy: account_exists, invalid_credentials, account_not_found,
 * duplicate_crop, invalid_request.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/agroai/crop-engine/internal/domain"
	"github.com/agroai/crop-engine/internal/store"
)

type contextKey string

const accountIDKey contextKey = "accountID"

// Handlers serves the /v1 surface.
type Handlers struct {
	repo   store.AccountRepository
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(repo store.AccountRepository, tokens *TokenIssuer, logger *slog.Logger) *Handlers {
	return &Handlers{repo: repo, tokens: tokens, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r credentialsRequest) valid() bool {
	return strings.Contains(r.Email, "@") && r.Password != ""
}

type authResponse struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// Signup registers an account with an empty crop list and issues its first
// session token.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	account, err := h.repo.CreateAccount(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), string(hash))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "account_exists")
			return
		}
		h.logger.Error("account creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	token, err := h.tokens.Mint(account.ID)
	if err != nil {
		h.logger.Error("token mint failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, Account: account})
}

// Login exchanges credentials for a session token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	account, hash, err := h.repo.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Indistinguishable from a bad password on purpose.
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		h.logger.Error("account lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := h.tokens.Mint(account.ID)
	if err != nil {
		h.logger.Error("token mint failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, Account: account})
}

// GetAccount returns the authoritative account for the bearer token.
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())
	account, err := h.repo.FindByID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account_not_found")
			return
		}
		h.logger.Error("account fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// AppendCrop appends a crop to the bearer token's account.
func (h *Handlers) AppendCrop(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	var crop domain.Crop
	if err := json.NewDecoder(r.Body).Decode(&crop); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if crop.CropTypeName == "" || crop.Location == nil || crop.CreatedAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := h.repo.AppendCrop(r.Context(), accountID, crop); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateCrop):
			writeError(w, http.StatusConflict, "duplicate_crop")
		case errors.Is(err, domain.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "account_not_found")
		default:
			h.logger.Error("crop append failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// AuthMiddleware validates the Bearer token and stores the account id in
// the request context.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		accountID, err := h.tokens.Verify(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountIDFromContext(ctx context.Context) string {
	accountID, _ := ctx.Value(accountIDKey).(string)
	return accountID
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
