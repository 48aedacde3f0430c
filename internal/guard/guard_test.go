package guard

import (
	"testing"

	"github.com/taskdeck-dev/taskdeck/internal/sessionctx"
)

func TestGuard_Check(t *testing.T) {
	tests := []struct {
		name         string
		state        sessionctx.State
		wantDecision Decision
		wantRoute    string
	}{
		{
			name:         "unknown state holds without redirecting",
			state:        sessionctx.StateUnknown,
			wantDecision: Wait,
			wantRoute:    "",
		},
		{
			name:         "authenticated state allows",
			state:        sessionctx.StateAuthenticated,
			wantDecision: Allow,
			wantRoute:    "",
		},
		{
			name:         "unauthenticated state redirects to login",
			state:        sessionctx.StateUnauthenticated,
			wantDecision: Redirect,
			wantRoute:    "/login",
		},
	}

	g := New("/login")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, route := g.Check(sessionctx.Snapshot{State: tt.state})
			if decision != tt.wantDecision {
				t.Errorf("decision = %s, want %s", decision, tt.wantDecision)
			}
			if route != tt.wantRoute {
				t.Errorf("route = %q, want %q", route, tt.wantRoute)
			}
		})
	}
}

func TestGuard_DefaultLoginRoute(t *testing.T) {
	g := New("")

	decision, route := g.Check(sessionctx.Snapshot{State: sessionctx.StateUnauthenticated})
	if decision != Redirect {
		t.Fatalf("decision = %s, want redirect", decision)
	}
	if route != "/login" {
		t.Errorf("route = %q, want %q", route, "/login")
	}
}

func TestGuard_UnknownWithLoadingNeverRedirects(t *testing.T) {
	g := New("/login")

	// The initial snapshot before the first status check resolves
	decision, _ := g.Check(sessionctx.Snapshot{State: sessionctx.StateUnknown, Loading: true})
	if decision != Wait {
		t.Errorf("decision = %s, want wait", decision)
	}
}
