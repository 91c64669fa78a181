/**
 * @description
 * HTTP client for the remote account store. It implements the engine's
 * RemoteStore contract against the /v1 REST surface and translates HTTP
 * outcomes into the engine's error taxonomy.
 *
 * Mapping:
 *   - transport failures and 5xx  -> RemoteError{Transient: true}
 *     (AuthError{network_error} on the credential endpoints)
 *   - 401 invalid credentials     -> AuthError{invalid_credentials}
 *   - 409 on sign-up              -> AuthError{account_exists}
 *   - 401/404 on account reads    -> ErrAccountNotFound (stale token)
 *   - other 4xx                   -> RemoteError{Transient: false}
 */
package farmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agroai/crop-engine/internal/domain"
)

// Client talks to the farm backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Account domain.Account `json:"account"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Authenticate exchanges credentials for a session.
func (c *Client) Authenticate(ctx context.Context, email, password string) (domain.Session, error) {
	return c.credentials(ctx, "/v1/auth/login", email, password)
}

// CreateAccount registers a new account and returns its first session. The
// backend initializes the account with an empty crop list.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (domain.Session, error) {
	return c.credentials(ctx, "/v1/auth/signup", email, password)
}

func (c *Client) credentials(ctx context.Context, path, email, password string) (domain.Session, error) {
	var resp authResponse
	status, err := c.do(ctx, http.MethodPost, path, "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return domain.Session{}, &domain.AuthError{Reason: domain.AuthNetworkError, Err: err}
	}
	switch {
	case status >= 200 && status < 300:
		return domain.Session{Token: resp.Token, AccountID: resp.Account.ID}, nil
	case status == http.StatusUnauthorized:
		return domain.Session{}, &domain.AuthError{Reason: domain.AuthInvalidCredentials}
	case status == http.StatusConflict:
		return domain.Session{}, &domain.AuthError{Reason: domain.AuthAccountExists}
	case status >= 500:
		return domain.Session{}, &domain.AuthError{
			Reason: domain.AuthNetworkError,
			Err:    fmt.Errorf("backend returned status %d", status),
		}
	default:
		return domain.Session{}, &domain.AuthError{
			Reason: domain.AuthInvalidCredentials,
			Err:    fmt.Errorf("backend rejected credentials with status %d", status),
		}
	}
}

// FetchAccount retrieves the authoritative account for the session.
func (c *Client) FetchAccount(ctx context.Context, sess domain.Session) (*domain.Account, error) {
	var account domain.Account
	status, err := c.do(ctx, http.MethodGet, "/v1/account", sess.Token, nil, &account)
	if err != nil {
		return nil, &domain.RemoteError{Transient: true, Err: err}
	}
	switch {
	case status >= 200 && status < 300:
		return &account, nil
	case status == http.StatusNotFound, status == http.StatusUnauthorized:
		return nil, domain.ErrAccountNotFound
	case status >= 500:
		return nil, &domain.RemoteError{Transient: true, Err: fmt.Errorf("backend returned status %d", status)}
	default:
		return nil, &domain.RemoteError{Transient: false, Err: fmt.Errorf("backend returned status %d", status)}
	}
}

// AppendCrop records a crop against the session's account. A nil return
// means the crop is durably stored server-side.
func (c *Client) AppendCrop(ctx context.Context, sess domain.Session, crop domain.Crop) error {
	status, err := c.do(ctx, http.MethodPost, "/v1/account/crops", sess.Token, crop, nil)
	if err != nil {
		return &domain.RemoteError{Transient: true, Err: err}
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return &domain.ValidationError{Reason: domain.DuplicateCrop}
	case status >= 500:
		return &domain.RemoteError{Transient: true, Err: fmt.Errorf("backend returned status %d", status)}
	default:
		return &domain.RemoteError{Transient: false, Err: fmt.Errorf("backend returned status %d", status)}
	}
}

// do issues one request and decodes a success body into target. It returns
// the status code for the caller to map; only transport-level failures
// produce an error.
func (c *Client) do(ctx context.Context, method, path, token string, body, target interface{}) (int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}
	return resp.StatusCode, nil
}
