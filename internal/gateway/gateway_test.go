package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/session"
	"github.com/taskdeck-dev/taskdeck/internal/tenant"
)

// handleFunc registers a "METHOD /path" pattern on mux, matching the
// method explicitly so the mocks also work on toolchains older than
// go1.22 (whose ServeMux lacks method patterns).
func handleFunc(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}

// newTestGateway wires a gateway at an httptest server. The resolver
// points at the test server's loopback host so baseURL lands on it.
func newTestGateway(t *testing.T, handler http.Handler) (*Gateway, *session.Store, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	parsed, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil {
		t.Fatalf("failed to parse test server port: %v", err)
	}

	store := session.NewStore(session.NewMemoryBackend())
	resolver := tenant.NewResolver(func() string { return parsed.Hostname() })
	return New(store, resolver, WithPort(port)), store, ts
}

func authSuccessHandler(token string) http.Handler {
	mux := http.NewServeMux()
	handleFunc(mux, "POST /api/auth/login-jwt", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{
			Success:     true,
			Message:     "Login successful",
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   86400,
			User: &models.User{
				ID:       1,
				Username: "alice",
				Tenant:   &models.Tenant{ID: 1, Name: "Acme", SchemaName: "acme"},
			},
		})
	})
	return mux
}

func TestGateway_LoginPersistsToken(t *testing.T) {
	gw, store, _ := newTestGateway(t, authSuccessHandler("tok123"))

	resp, err := gw.Login(context.Background(), Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken != "tok123" {
		t.Errorf("accessToken = %q, want %q", resp.AccessToken, "tok123")
	}

	token, err := store.Read()
	if err != nil {
		t.Fatalf("no credential persisted: %v", err)
	}
	if token != "tok123" {
		t.Errorf("stored token = %q, want %q", token, "tok123")
	}
}

func TestGateway_LoginFailureEnvelope(t *testing.T) {
	// Auth failures ride in a 200 response with success=false
	mux := http.NewServeMux()
	handleFunc(mux, "POST /api/auth/login-jwt", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{Success: false, Message: "Invalid credentials"})
	})

	gw, store, _ := newTestGateway(t, mux)

	_, err := gw.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("message = %q, want %q", apiErr.Message, "Invalid credentials")
	}

	// A failed login must not touch the stored credential
	if _, err := store.Read(); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("store after failed login = %v, want ErrNotFound", err)
	}
}

func TestGateway_LoginValidatesInput(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	gw, _, _ := newTestGateway(t, handler)

	_, err := gw.Login(context.Background(), Credentials{Username: "alice"})
	if err == nil {
		t.Fatal("expected validation error for missing password")
	}
	if calls != 0 {
		t.Errorf("network calls = %d, want 0", calls)
	}
}

func TestGateway_RegisterDoesNotPersistToken(t *testing.T) {
	mux := http.NewServeMux()
	handleFunc(mux, "POST /api/auth/register-jwt", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{
			Success:     true,
			Message:     "Account created, please log in",
			AccessToken: "tok-from-register",
		})
	})

	gw, store, _ := newTestGateway(t, mux)

	form := RegisterForm{
		Username:        "bob",
		Email:           "bob@acme.test",
		Password:        "secret",
		PasswordConfirm: "secret",
		Organization:    "Acme",
	}
	if _, err := gw.Register(context.Background(), form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Registration success still requires an explicit login
	if _, err := store.Read(); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("store after register = %v, want ErrNotFound", err)
	}
}

func TestGateway_RegisterPasswordMismatch(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	gw, _, _ := newTestGateway(t, handler)

	form := RegisterForm{
		Username:        "bob",
		Email:           "bob@acme.test",
		Password:        "secret",
		PasswordConfirm: "different",
		Organization:    "Acme",
	}
	if _, err := gw.Register(context.Background(), form); err == nil {
		t.Fatal("expected validation error for mismatched passwords")
	}
	if calls != 0 {
		t.Errorf("network calls = %d, want 0", calls)
	}
}

func TestGateway_CheckStatusWithoutCredential(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	gw, _, _ := newTestGateway(t, handler)

	status, err := gw.CheckStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.IsAuthenticated {
		t.Error("expected unauthenticated status")
	}
	// No credential means no network activity at all
	if calls != 0 {
		t.Errorf("network calls = %d, want 0", calls)
	}
}

func TestGateway_CheckStatusValidCredential(t *testing.T) {
	mux := http.NewServeMux()
	handleFunc(mux, "GET /api/auth/check-auth-jwt", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Status{
			IsAuthenticated: true,
			User:            &models.User{ID: 1, Username: "alice"},
			TenantInfo:      &models.Tenant{ID: 1, Name: "Acme", SchemaName: "acme"},
		})
	})

	gw, store, _ := newTestGateway(t, mux)
	if err := store.Save("tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := gw.CheckStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.IsAuthenticated {
		t.Fatal("expected authenticated status")
	}
	if status.User == nil || status.User.Username != "alice" {
		t.Errorf("user = %+v, want alice", status.User)
	}
	if status.TenantInfo == nil || status.TenantInfo.SchemaName != "acme" {
		t.Errorf("tenantInfo = %+v, want acme", status.TenantInfo)
	}
}

func TestGateway_CheckStatusRejectionClearsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	gw, store, _ := newTestGateway(t, handler)
	if err := store.Save("expired-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := gw.CheckStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.IsAuthenticated {
		t.Error("expected unauthenticated status after rejection")
	}

	// The rejected credential must be gone
	if _, err := store.Read(); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("store after rejection = %v, want ErrNotFound", err)
	}
}

func TestGateway_CheckStatusTransportFailureClearsSession(t *testing.T) {
	gw, store, ts := newTestGateway(t, http.NotFoundHandler())
	ts.Close() // every request now fails at the transport level

	if err := store.Save("tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := gw.CheckStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.IsAuthenticated {
		t.Error("expected unauthenticated status after transport failure")
	}
	if _, err := store.Read(); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("store after transport failure = %v, want ErrNotFound", err)
	}
}

func TestGateway_LogoutAlwaysClears(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		close   bool
	}{
		{
			name: "server accepts",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"success": true})
			},
		},
		{
			name: "server errors",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name:    "server unreachable",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			close:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, store, ts := newTestGateway(t, tt.handler)
			if tt.close {
				ts.Close()
			}
			if err := store.Save("tok123"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if err := gw.Logout(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if _, err := store.Read(); !errors.Is(err, session.ErrNotFound) {
				t.Errorf("store after logout = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGateway_LogoutWithoutCredential(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	gw, _, _ := newTestGateway(t, handler)

	if err := gw.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("network calls = %d, want 0", calls)
	}
}

func TestGateway_CreateScopedUserRequiresCredential(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	gw, _, _ := newTestGateway(t, handler)

	form := CreateUserForm{
		Username:        "carol",
		Email:           "carol@acme.test",
		Password:        "secret",
		PasswordConfirm: "secret",
	}
	_, err := gw.CreateScopedUser(context.Background(), form)
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
	if calls != 0 {
		t.Errorf("network calls = %d, want 0", calls)
	}
}

func TestGateway_CreateScopedUserServerValidation(t *testing.T) {
	mux := http.NewServeMux()
	handleFunc(mux, "POST /api/auth/create-user-tenant", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{Success: false, Message: "Username already exists"})
	})

	gw, store, _ := newTestGateway(t, mux)
	if err := store.Save("tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	form := CreateUserForm{
		Username:        "carol",
		Email:           "carol@acme.test",
		Password:        "secret",
		PasswordConfirm: "secret",
	}
	_, err := gw.CreateScopedUser(context.Background(), form)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Message != "Username already exists" {
		t.Errorf("message = %q, want %q", apiErr.Message, "Username already exists")
	}
}

func TestGateway_AuthedRequestUnauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
	})

	gw, store, _ := newTestGateway(t, handler)
	if err := store.Save("stale-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := gw.ListProjects(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated match", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("statusCode = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Message != "Invalid or expired token" {
		t.Errorf("message = %q, want %q", apiErr.Message, "Invalid or expired token")
	}
}

func TestGateway_ListProjects(t *testing.T) {
	mux := http.NewServeMux()
	handleFunc(mux, "GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]models.Project{
			{ID: 1, Name: "Website relaunch"},
			{ID: 2, Name: "Mobile app", IsCompleted: true},
		})
	})

	gw, store, _ := newTestGateway(t, mux)
	if err := store.Save("tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	projects, err := gw.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	if projects[0].Name != "Website relaunch" {
		t.Errorf("name = %q, want %q", projects[0].Name, "Website relaunch")
	}
	if !projects[1].IsCompleted {
		t.Error("expected second project completed")
	}
}

func TestGateway_DeleteProjectNoContent(t *testing.T) {
	mux := http.NewServeMux()
	handleFunc(mux, "DELETE /api/projects/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	gw, store, _ := newTestGateway(t, mux)
	if err := store.Save("tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := gw.DeleteProject(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
