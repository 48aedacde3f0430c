package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck-dev/taskdeck/internal/gateway"
)

// NewUsersCmd creates the users command group
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users in your tenant",
	}

	cmd.AddCommand(newUsersCreateCmd())

	return cmd
}

func newUsersCreateCmd() *cobra.Command {
	var form gateway.CreateUserForm
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user inside your tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}

			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			if form.PasswordConfirm == "" {
				form.PasswordConfirm = form.Password
			}

			resp, err := e.gw.CreateScopedUser(cmd.Context(), form)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			if resp.User != nil {
				fmt.Printf("✓ Created user %s (%s)\n", resp.User.Username, resp.User.Email)
			} else {
				fmt.Printf("✓ %s\n", resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "Username")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password")
	cmd.Flags().StringVar(&form.PasswordConfirm, "password-confirm", "", "Password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")

	return cmd
}
