package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck-dev/taskdeck/internal/cli/hostselect"
	"github.com/taskdeck-dev/taskdeck/internal/cli/userconfig"
	"github.com/taskdeck-dev/taskdeck/internal/config"
)

// NewUseHostCmd creates the use-host command
func NewUseHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-host [alias]",
		Short: "Select the active host",
		Long: `Select which host subsequent commands target. With no argument an
interactive picker is shown. Switching host is the terminal equivalent of
navigating the browser to a different tenant subdomain.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, err := config.LoadFromCurrentDir()
			if err != nil {
				return fmt.Errorf("failed to load config: %w\nRun 'taskdeck init' to create a configuration file", err)
			}

			var host *config.Host
			if len(args) == 1 {
				host, err = workspace.GetHostByAlias(args[0])
				if err != nil {
					return err
				}
			} else {
				host, err = hostselect.PromptHostSelection(workspace)
				if err != nil {
					return err
				}
			}

			if err := userconfig.SetSelectedHost(host.Hostname); err != nil {
				return fmt.Errorf("failed to save selected host: %w", err)
			}

			fmt.Printf("✓ Active host is now %s (%s)\n", host.Alias, host.Hostname)
			return nil
		},
	}
}
