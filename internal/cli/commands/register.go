package commands

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskdeck-dev/taskdeck/internal/gateway"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var form gateway.RegisterForm
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account scoped to an organization",
		Long: `Create a new account. The organization names the tenant the account
belongs to; a new organization creates a new tenant. Registration never
logs you in: run 'taskdeck login' afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, form, hostAlias)
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "Username")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&form.PasswordConfirm, "password-confirm", "", "Password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&form.Organization, "organization", "", "Organization (tenant) name")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")

	return cmd
}

func runRegister(cmd *cobra.Command, form gateway.RegisterForm, hostAlias string) error {
	if form.Username == "" {
		return fmt.Errorf("username is required (use --username)")
	}
	if form.Organization == "" {
		return fmt.Errorf("organization is required (use --organization)")
	}

	e, err := buildEnv(hostAlias)
	if err != nil {
		return err
	}

	if form.Password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password)")
		}
		form.Password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
		form.PasswordConfirm, err = promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
	} else if form.PasswordConfirm == "" {
		form.PasswordConfirm = form.Password
	}

	if err := e.sc.Register(cmd.Context(), form); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
