// Package gateway wraps the remote tenant API. It attaches the stored
// credential to authenticated calls and targets the endpoint derived from
// the current host, so tenant identity rides on the hostname alone.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/session"
	"github.com/taskdeck-dev/taskdeck/internal/tenant"
)

// DefaultAPIPort is the port the tenant API listens on for every host.
const DefaultAPIPort = 8000

// Gateway is the HTTP client for the tenant API.
type Gateway struct {
	store      *session.Store
	resolver   *tenant.Resolver
	httpClient *http.Client
	validate   *validator.Validate
	port       int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *Gateway) { g.httpClient = httpClient }
}

// WithPort overrides the API port. Tests point this at an httptest server.
func WithPort(port int) Option {
	return func(g *Gateway) { g.port = port }
}

// New creates a gateway over the given session store and tenant resolver.
func New(store *session.Store, resolver *tenant.Resolver, opts ...Option) *Gateway {
	g := &Gateway{
		store:    store,
		resolver: resolver,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		validate: validator.New(),
		port:     DefaultAPIPort,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// baseURL derives the API root from the live host, so requests follow the
// client onto tenant subdomains without reconfiguration.
func (g *Gateway) baseURL() string {
	return fmt.Sprintf("http://%s:%d/api", g.resolver.Resolve().Domain, g.port)
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the account-creation request body. Organization names
// the tenant the account is scoped to.
type RegisterForm struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Organization    string `json:"organization" validate:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// CreateUserForm is the tenant-scoped user creation request body. The
// target tenant is implied by the caller's credential, never sent.
type CreateUserForm struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// AuthResponse is the envelope returned by the auth endpoints.
type AuthResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty"`
	ExpiresIn   int          `json:"expires_in,omitempty"`
	User        *models.User `json:"user,omitempty"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

// Status is the result of a session validation check.
type Status struct {
	IsAuthenticated bool           `json:"is_authenticated"`
	User            *models.User   `json:"user,omitempty"`
	TenantInfo      *models.Tenant `json:"tenant_info,omitempty"`
}

// Login exchanges credentials for a bearer token. On success the token is
// persisted before returning, so a follow-up CheckStatus observes it. On
// failure the stored credential is left untouched.
func (g *Gateway) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if err := g.validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("invalid login input: %w", err)
	}

	var authResp AuthResponse
	if err := g.postJSON(ctx, "/auth/login-jwt", creds, &authResp); err != nil {
		return nil, err
	}

	if !authResp.Success {
		return nil, &APIError{Message: authResp.Message}
	}
	if authResp.AccessToken == "" {
		return nil, &APIError{Message: "login response carried no access token"}
	}

	if err := g.store.Save(authResp.AccessToken); err != nil {
		return nil, err
	}
	return &authResp, nil
}

// Register creates an account scoped to the named organization. The
// response may carry a token, but it is deliberately not persisted:
// registration success requires an explicit subsequent login.
func (g *Gateway) Register(ctx context.Context, form RegisterForm) (*AuthResponse, error) {
	if err := g.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("invalid registration input: %w", err)
	}

	var authResp AuthResponse
	if err := g.postJSON(ctx, "/auth/register-jwt", form, &authResp); err != nil {
		return nil, err
	}

	if !authResp.Success {
		return nil, &APIError{Message: authResp.Message}
	}
	return &authResp, nil
}

// CheckStatus validates the stored credential against the server. With no
// credential it returns unauthenticated immediately, without touching the
// network. Any rejection or transport failure clears the stored session
// and reports unauthenticated: the failure mode is logged-out, never a
// stale authenticated view.
func (g *Gateway) CheckStatus(ctx context.Context) (*Status, error) {
	token, err := g.store.Read()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return &Status{IsAuthenticated: false}, nil
		}
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL()+"/auth/check-auth-jwt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Treat transport failure like an invalid credential
		return g.clearedStatus()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.clearedStatus()
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return g.clearedStatus()
	}
	return &status, nil
}

func (g *Gateway) clearedStatus() (*Status, error) {
	if err := g.store.Clear(); err != nil {
		return nil, err
	}
	return &Status{IsAuthenticated: false}, nil
}

// Profile fetches the authenticated user's profile.
func (g *Gateway) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := g.doAuthed(ctx, http.MethodGet, "/auth/profile-jwt", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the session server-side on a best-effort basis and
// unconditionally clears all local auth data. The server call's outcome
// (non-success status, transport error) never surfaces to the caller.
func (g *Gateway) Logout(ctx context.Context) error {
	token, err := g.store.Read()
	if err == nil && token != "" {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL()+"/auth/logout-jwt", nil)
		if reqErr == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")
			if resp, doErr := g.httpClient.Do(req); doErr == nil {
				resp.Body.Close()
			}
		}
	}

	return g.store.Clear()
}

// ClearSession drops all local auth data without a server call.
func (g *Gateway) ClearSession() error {
	return g.store.Clear()
}

// CreateScopedUser creates a user inside the caller's tenant. It requires
// a live credential and fails immediately without one; server validation
// errors (password mismatch, duplicate username) surface verbatim.
func (g *Gateway) CreateScopedUser(ctx context.Context, form CreateUserForm) (*AuthResponse, error) {
	if err := g.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("invalid user input: %w", err)
	}

	var authResp AuthResponse
	if err := g.doAuthed(ctx, http.MethodPost, "/auth/create-user-tenant", form, &authResp); err != nil {
		return nil, err
	}

	if !authResp.Success {
		return nil, &APIError{Message: authResp.Message}
	}
	return &authResp, nil
}

// postJSON sends an unauthenticated JSON POST and decodes the response
// envelope. Auth endpoints return their failure payload with HTTP 200, so
// only transport and decode failures are errors here.
func (g *Gateway) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL()+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// doAuthed sends an authenticated JSON request. Without a stored
// credential it fails with ErrNoCredential before any network activity.
func (g *Gateway) doAuthed(ctx context.Context, method, path string, body, out any) error {
	token, err := g.store.Read()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrNoCredential
		}
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
