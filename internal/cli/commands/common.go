package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/taskdeck-dev/taskdeck/internal/cli/hostselect"
	"github.com/taskdeck-dev/taskdeck/internal/cli/userconfig"
	"github.com/taskdeck-dev/taskdeck/internal/config"
	"github.com/taskdeck-dev/taskdeck/internal/gateway"
	"github.com/taskdeck-dev/taskdeck/internal/guard"
	"github.com/taskdeck-dev/taskdeck/internal/logger"
	"github.com/taskdeck-dev/taskdeck/internal/session"
	"github.com/taskdeck-dev/taskdeck/internal/sessionctx"
	"github.com/taskdeck-dev/taskdeck/internal/tenant"
)

const appName = "taskdeck"

// env bundles the wired client components for one command invocation.
type env struct {
	workspace     *config.Config
	workspacePath string
	host          *config.Host
	store         *session.Store
	resolver      *tenant.Resolver
	gw            *gateway.Gateway
	sc            *sessionctx.Context
	guard         *guard.Guard
}

// buildEnv loads the workspace config, resolves the active host and wires
// store, resolver, gateway and session context together.
func buildEnv(hostAlias string) (*env, error) {
	workspacePath, err := config.FindConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'taskdeck init' to create a configuration file", err)
	}
	workspace, err := config.Load(workspacePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	host, err := hostselect.ResolveHost(workspace, hostAlias)
	if err != nil {
		return nil, err
	}
	if host.Hostname == "" {
		return nil, fmt.Errorf("host is empty. Please edit %s and add a valid hostname", config.ConfigFileName)
	}

	// The resolver reads the selected host live on every call, the CLI
	// analog of window.location: a "navigation" mid-process is visible to
	// the next resolve.
	locate := func() string {
		if selected, err := userconfig.GetSelectedHost(); err == nil && selected != "" {
			return selected
		}
		return host.Hostname
	}
	resolver := tenant.NewResolver(locate)

	backend, err := sessionBackend(host.Hostname)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(backend)

	gw := gateway.New(store, resolver, gateway.WithPort(workspace.Port()))

	e := &env{
		workspace:     workspace,
		workspacePath: workspacePath,
		host:          host,
		store:         store,
		resolver:      resolver,
		gw:            gw,
		guard:         guard.New("/login"),
	}

	e.sc = sessionctx.New(gw, resolver,
		sessionctx.WithNotifier(&termNotifier{}),
		sessionctx.WithNavigator(&hostNavigator{env: e}),
		sessionctx.WithLogger(logger.GetLogger()),
	)

	return e, nil
}

// sessionBackend picks the credential storage: the OS keyring when
// TASKDECK_KEYRING=1, a per-host JSON file otherwise.
func sessionBackend(hostname string) (session.Backend, error) {
	if os.Getenv("TASKDECK_KEYRING") == "1" {
		return session.NewKeyringBackend(appName, hostname), nil
	}
	path, err := session.DefaultSessionPath(appName, hostname)
	if err != nil {
		return nil, err
	}
	return session.NewFileBackend(path), nil
}

// requireSession resolves the session state and gates the command on it.
func requireSession(ctx context.Context, e *env) error {
	if err := e.sc.Init(ctx); err != nil {
		return err
	}

	decision, _ := e.guard.Check(e.sc.Snapshot())
	if decision != guard.Allow {
		return gateway.ErrNoCredential
	}
	return nil
}

// termNotifier prints session notifications to the terminal.
type termNotifier struct{}

func (n *termNotifier) Success(message string) {
	fmt.Printf("✓ %s\n", message)
}

func (n *termNotifier) Warn(message string) {
	fmt.Fprintf(os.Stderr, "⚠ %s\n", message)
}

func (n *termNotifier) Error(message string) {
	fmt.Fprintf(os.Stderr, "✗ %s\n", message)
}

// hostNavigator is the CLI's navigation sink. In-app route changes have
// no terminal equivalent; an external navigation switches the selected
// host, which the next resolve observes.
type hostNavigator struct {
	env *env
}

func (h *hostNavigator) NavigateTo(route string) {}

func (h *hostNavigator) NavigateExternal(rawURL string) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		fmt.Fprintf(os.Stderr, "⚠ Ignoring unusable redirect target %q\n", rawURL)
		return
	}

	target := parsed.Hostname()
	h.env.workspace.AddHost(config.Host{Hostname: target, Alias: target})
	if err := config.Save(h.env.workspacePath, h.env.workspace); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Failed to record host %s in workspace config: %v\n", target, err)
	}
	if err := userconfig.SetSelectedHost(target); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Failed to switch host: %v\n", err)
		return
	}
	fmt.Printf("→ Switched active host to %s\n", target)
}
