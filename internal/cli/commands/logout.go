package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long: `Invalidate the session server-side and remove all local auth data.
Local data is cleared even if the server cannot be reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}

			if err := e.sc.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")

	return cmd
}
