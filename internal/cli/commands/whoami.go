package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck-dev/taskdeck/internal/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user and tenant context",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, hostAlias)
		},
	}

	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")

	return cmd
}

func runWhoami(cmd *cobra.Command, hostAlias string) error {
	e, err := buildEnv(hostAlias)
	if err != nil {
		return err
	}

	if err := requireSession(cmd.Context(), e); err != nil {
		return err
	}

	snap := e.sc.Snapshot()
	current := e.resolver.Resolve()

	fmt.Printf("User:    %s (%s)\n", snap.User.Username, snap.User.Email)
	if snap.Tenant != nil {
		fmt.Printf("Tenant:  %s (schema %s)\n", snap.Tenant.Name, snap.Tenant.SchemaName)
	} else {
		fmt.Println("Tenant:  none")
	}
	fmt.Printf("Host:    %s (subdomain: %v)\n", current.Domain, current.IsSubdomain)

	if token, err := e.store.Read(); err == nil {
		if expiry, err := session.TokenExpiry(token); err == nil && !expiry.IsZero() {
			fmt.Printf("Session: expires %s\n", expiry.Local().Format(time.RFC1123))
		}
	}

	return nil
}
