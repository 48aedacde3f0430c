// Package guard gates protected views on session state. While the state
// is still unknown it must hold rather than redirect, or a logged-in user
// with a slow status check would bounce to the login view.
package guard

import (
	"github.com/taskdeck-dev/taskdeck/internal/sessionctx"
)

// Decision is the outcome of checking a session against a guarded view.
type Decision int

const (
	// Wait means the session is still resolving: render nothing gated
	// and perform no redirect.
	Wait Decision = iota
	// Redirect means the caller must send the user to the login route.
	Redirect
	// Allow means the guarded view may render.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	default:
		return "wait"
	}
}

// Guard wraps protected views with an authentication predicate.
type Guard struct {
	loginRoute string
}

// New creates a guard redirecting unauthenticated access to loginRoute.
func New(loginRoute string) *Guard {
	if loginRoute == "" {
		loginRoute = "/login"
	}
	return &Guard{loginRoute: loginRoute}
}

// Check decides what to do with a guarded view for the given session
// snapshot. The returned route is only meaningful for Redirect.
func (g *Guard) Check(snap sessionctx.Snapshot) (Decision, string) {
	switch snap.State {
	case sessionctx.StateUnknown:
		return Wait, ""
	case sessionctx.StateAuthenticated:
		return Allow, ""
	default:
		return Redirect, g.loginRoute
	}
}
