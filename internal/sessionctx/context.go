// Package sessionctx owns the one authoritative session record: current
// user, current tenant, authentication state. It is the single writer;
// views and commands subscribe as read-only observers.
package sessionctx

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdeck-dev/taskdeck/internal/gateway"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/tenant"
)

// State is the authentication state of the session.
type State int

const (
	// StateUnknown is the initial state, before the first status check
	// resolves. Consumers must render nothing gated rather than assume
	// logged-out.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session handed to observers.
type Snapshot struct {
	State   State
	Loading bool
	User    *models.User
	Tenant  *models.Tenant
}

// Notifier surfaces non-blocking messages to the user (the toast analog).
type Notifier interface {
	Success(message string)
	Warn(message string)
	Error(message string)
}

// Navigator performs navigation after auth transitions. NavigateTo is an
// in-app route change; NavigateExternal is a full navigation that may
// cross origins (e.g. onto a tenant subdomain).
type Navigator interface {
	NavigateTo(route string)
	NavigateExternal(rawURL string)
}

// Policy tunes session behavior. The zero value is completed by New.
type Policy struct {
	// StrictTenantMatch turns the advisory tenant-domain mismatch warning
	// into a denial. Off by default: the backend, not the client, is the
	// authority on tenant access.
	StrictTenantMatch bool
	// PostRegisterDelay is how long to wait before routing a freshly
	// registered user to the login view.
	PostRegisterDelay time.Duration
	DefaultRoute      string
	LoginRoute        string
}

// Context is the process-wide session record and its state machine:
// Unknown resolves to Authenticated or Unauthenticated once, then moves
// between the two on login, logout, and failed re-checks.
type Context struct {
	mu       sync.Mutex
	gw       *gateway.Gateway
	resolver *tenant.Resolver
	notifier Notifier
	nav      Navigator
	policy   Policy
	log      zerolog.Logger
	sleep    func(time.Duration)

	state        State
	loading      bool
	user         *models.User
	tenantInfo   *models.Tenant
	justLoggedIn bool
	reqSeq       uint64
	subs         map[int]func(Snapshot)
	nextSubID    int
}

// Option configures a Context.
type Option func(*Context)

// WithNotifier sets the user-facing message sink.
func WithNotifier(n Notifier) Option {
	return func(c *Context) { c.notifier = n }
}

// WithNavigator sets the navigation sink.
func WithNavigator(n Navigator) Option {
	return func(c *Context) { c.nav = n }
}

// WithPolicy overrides the default policy.
func WithPolicy(p Policy) Option {
	return func(c *Context) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Context) { c.log = log }
}

// withSleep replaces the post-registration delay for tests.
func withSleep(sleep func(time.Duration)) Option {
	return func(c *Context) { c.sleep = sleep }
}

// New creates a session context in the Unknown state. Call Init to run
// the first status check.
func New(gw *gateway.Gateway, resolver *tenant.Resolver, opts ...Option) *Context {
	c := &Context{
		gw:       gw,
		resolver: resolver,
		notifier: nopNotifier{},
		nav:      nopNavigator{},
		policy: Policy{
			PostRegisterDelay: 2 * time.Second,
			DefaultRoute:      "/",
			LoginRoute:        "/login",
		},
		log:     zerolog.Nop(),
		sleep:   time.Sleep,
		state:   StateUnknown,
		loading: true,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.DefaultRoute == "" {
		c.policy.DefaultRoute = "/"
	}
	if c.policy.LoginRoute == "" {
		c.policy.LoginRoute = "/login"
	}
	return c
}

// Snapshot returns the current session view.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	return Snapshot{
		State:   c.state,
		Loading: c.loading,
		User:    c.user,
		Tenant:  c.tenantInfo,
	}
}

// Subscribe registers an observer called on every state change. The
// returned function unsubscribes it.
func (c *Context) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Context) broadcastLocked() {
	snap := c.snapshotLocked()
	for _, fn := range c.subs {
		fn(snap)
	}
}

// Init performs the first status check and resolves the Unknown state.
// The loading flag drops only after this completes.
func (c *Context) Init(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh re-validates the session against the server and applies the
// result. A response that lost the race to a newer request is discarded
// (last writer wins).
func (c *Context) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.reqSeq++
	seq := c.reqSeq
	c.mu.Unlock()

	status, err := c.gw.CheckStatus(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.reqSeq {
		// A newer check superseded this one while it was in flight.
		return nil
	}

	c.loading = false
	if err != nil {
		c.applyUnauthenticatedLocked()
		return err
	}

	if !status.IsAuthenticated || status.User == nil {
		c.applyUnauthenticatedLocked()
		return nil
	}

	c.user = status.User
	if status.TenantInfo != nil {
		c.tenantInfo = status.TenantInfo
	} else {
		c.tenantInfo = status.User.Tenant
	}
	c.state = StateAuthenticated

	mismatch := c.reconcileTenantLocked(status.User)
	c.justLoggedIn = false

	if mismatch && c.policy.StrictTenantMatch {
		c.applyUnauthenticatedLocked()
		if err := c.gw.ClearSession(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to clear session after tenant mismatch")
		}
		c.notifier.Error("Access denied: this host belongs to a different tenant")
		c.broadcastLocked()
		return nil
	}

	c.broadcastLocked()
	return nil
}

func (c *Context) applyUnauthenticatedLocked() {
	c.state = StateUnauthenticated
	c.user = nil
	c.tenantInfo = nil
	c.broadcastLocked()
}

// reconcileTenantLocked compares the user's tenant domain against the
// live host. A mismatch is detectable but non-fatal: the backend is the
// authority on access, this check only explains confusing states to the
// user. The warning is suppressed on the check immediately following a
// login, since the post-login redirect legitimately lands mid-transition.
func (c *Context) reconcileTenantLocked(user *models.User) bool {
	if user.Tenant == nil {
		return false
	}

	current := c.resolver.Resolve()
	if !current.IsSubdomain {
		return false
	}

	expected := tenant.ExpectedDomain(user.Tenant.SchemaName)
	if current.Domain == expected {
		return false
	}

	c.log.Warn().
		Str("domain", current.Domain).
		Str("expected", expected).
		Msg("User is on a different domain than their tenant")

	if !c.justLoggedIn {
		c.notifier.Warn("You are on domain " + current.Domain + " but your tenant is " + expected)
	}
	return true
}

// Login authenticates and transitions to Authenticated. The credential is
// persisted and the state updated before any navigation happens, so a
// guarded view rendered after the redirect observes the new state.
func (c *Context) Login(ctx context.Context, creds gateway.Credentials) (*gateway.AuthResponse, error) {
	resp, err := c.gw.Login(ctx, creds)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			c.notifier.Error(apiErr.Message)
		} else {
			c.notifier.Error("Login failed, check your credentials and connection")
		}
		return nil, err
	}

	c.mu.Lock()
	c.reqSeq++ // invalidate any in-flight status check
	c.user = resp.User
	if resp.User != nil {
		c.tenantInfo = resp.User.Tenant
	}
	c.state = StateAuthenticated
	c.loading = false
	if resp.User != nil {
		// Warn now if the login landed on the wrong tenant's domain; the
		// status check that follows the redirect stays quiet.
		c.reconcileTenantLocked(resp.User)
	}
	c.justLoggedIn = true
	c.broadcastLocked()
	c.mu.Unlock()

	c.notifier.Success("Logged in as " + creds.Username)
	c.navigateAfterLogin(resp.RedirectURL)
	return resp, nil
}

// navigateAfterLogin honors a server-specified redirect target. A target
// pointing at another host needs a full external navigation; otherwise
// only its path is used, falling back to the default landing route.
func (c *Context) navigateAfterLogin(redirectURL string) {
	if redirectURL == "" {
		c.nav.NavigateTo(c.policy.DefaultRoute)
		return
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		c.log.Warn().Str("redirect_url", redirectURL).Msg("Unparseable redirect URL, using default route")
		c.nav.NavigateTo(c.policy.DefaultRoute)
		return
	}

	current := c.resolver.Resolve()
	if parsed.Hostname() != "" && parsed.Hostname() != current.Domain {
		c.nav.NavigateExternal(redirectURL)
		return
	}

	route := parsed.Path
	if route == "" {
		route = c.policy.DefaultRoute
	}
	c.nav.NavigateTo(route)
}

// Register creates an account. On success the user is routed to the login
// view after a short fixed delay; they are never auto-authenticated.
func (c *Context) Register(ctx context.Context, form gateway.RegisterForm) error {
	_, err := c.gw.Register(ctx, form)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			c.notifier.Error(apiErr.Message)
		} else {
			c.notifier.Error("Registration failed, try again")
		}
		return err
	}

	c.notifier.Success("Account created, redirecting to login")
	c.sleep(c.policy.PostRegisterDelay)
	c.nav.NavigateTo(c.policy.LoginRoute)
	return nil
}

// Logout clears the session locally no matter what the server says, then
// transitions to Unauthenticated. Logging out on a tenant subdomain
// navigates back to the primary host to avoid tenant confusion.
func (c *Context) Logout(ctx context.Context) error {
	onSubdomain := c.resolver.Resolve().IsSubdomain

	err := c.gw.Logout(ctx)

	c.mu.Lock()
	c.reqSeq++
	c.loading = false
	c.justLoggedIn = false
	c.applyUnauthenticatedLocked()
	c.mu.Unlock()

	c.notifier.Success("Logged out")
	if onSubdomain {
		c.nav.NavigateExternal("http://localhost" + c.policy.LoginRoute)
	} else {
		c.nav.NavigateTo(c.policy.LoginRoute)
	}
	return err
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Warn(string)    {}
func (nopNotifier) Error(string)   {}

type nopNavigator struct{}

func (nopNavigator) NavigateTo(string)       {}
func (nopNavigator) NavigateExternal(string) {}
