package hostselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/taskdeck-dev/taskdeck/internal/cli/userconfig"
	"github.com/taskdeck-dev/taskdeck/internal/config"
)

// ResolveHost determines which host to point at, in priority order:
// 1. The --host alias flag, if provided
// 2. The host selected previously (persisted in the user config)
// 3. The only host in the workspace config, if there is exactly one
// 4. An interactive prompt
func ResolveHost(workspace *config.Config, hostAlias string) (*config.Host, error) {
	// Priority 1: explicit alias
	if hostAlias != "" {
		host, err := workspace.GetHostByAlias(hostAlias)
		if err != nil {
			return nil, err
		}
		return host, nil
	}

	// Priority 2: previously selected host
	selected, err := userconfig.GetSelectedHost()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selected != "" {
		host, err := workspace.GetHostByName(selected)
		if err != nil {
			// Selected host no longer exists in the workspace, clear it
			_ = userconfig.SetSelectedHost("")
		} else {
			return host, nil
		}
	}

	// Priority 3: single host
	if len(workspace.Hosts) == 1 {
		host := &workspace.Hosts[0]
		if err := userconfig.SetSelectedHost(host.Hostname); err != nil {
			fmt.Printf("Warning: failed to save selected host: %v\n", err)
		}
		return host, nil
	}

	// Priority 4: prompt
	host, err := PromptHostSelection(workspace)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedHost(host.Hostname); err != nil {
		fmt.Printf("Warning: failed to save selected host: %v\n", err)
	}

	return host, nil
}

// PromptHostSelection shows an interactive prompt to pick a host.
func PromptHostSelection(workspace *config.Config) (*config.Host, error) {
	if len(workspace.Hosts) == 0 {
		return nil, fmt.Errorf("no hosts configured in %s", config.ConfigFileName)
	}

	type hostOption struct {
		Label string
		Host  *config.Host
	}

	options := make([]hostOption, len(workspace.Hosts))
	for i := range workspace.Hosts {
		host := &workspace.Hosts[i]
		options[i] = hostOption{
			Label: fmt.Sprintf("%s (%s)", host.Alias, host.Hostname),
			Host:  host,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a host",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("host selection cancelled: %w", err)
	}

	return options[index].Host, nil
}
