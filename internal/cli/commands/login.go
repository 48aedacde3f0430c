package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskdeck-dev/taskdeck/internal/gateway"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password, hostAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Taskdeck host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, username, password, hostAlias)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set TASKDECK_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TASKDECK_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")

	return cmd
}

func runLogin(cmd *cobra.Command, username, password, hostAlias string) error {
	// Environment variables are useful for CI
	if username == "" {
		username = os.Getenv("TASKDECK_USERNAME")
	}
	if password == "" {
		password = os.Getenv("TASKDECK_PASSWORD")
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or TASKDECK_USERNAME env var)")
	}

	e, err := buildEnv(hostAlias)
	if err != nil {
		return err
	}

	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or TASKDECK_PASSWORD env var)")
		}
	}

	fmt.Printf("Logging in to %s...\n", e.host.Hostname)

	resp, err := e.sc.Login(cmd.Context(), gateway.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if resp.User != nil {
		fmt.Printf("  User: %s (%s)\n", resp.User.Username, resp.User.Email)
		if resp.User.Tenant != nil {
			fmt.Printf("  Tenant: %s (%s)\n", resp.User.Tenant.Name, resp.User.Tenant.SchemaName)
		}
	}

	return nil
}
