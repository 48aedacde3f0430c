// Package config handles the workspace configuration file. A taskdeck
// workspace lists the API hosts it talks to: the primary development host
// plus any tenant subdomains.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the workspace configuration file name.
const ConfigFileName = "taskdeck.json"

// DefaultAPIPort matches the tenant API's development port.
const DefaultAPIPort = 8000

// Host represents an API host the client can point at.
type Host struct {
	Hostname string `json:"hostname"`
	Alias    string `json:"alias"`
}

// Config represents the workspace configuration file.
type Config struct {
	Hosts   []Host `json:"hosts"`
	APIPort int    `json:"api_port,omitempty"`
}

// DefaultConfig returns a starter configuration pointing at the local
// development server.
func DefaultConfig() *Config {
	return &Config{
		Hosts: []Host{
			{Hostname: "localhost", Alias: "primary"},
		},
	}
}

// Port returns the configured API port or the default.
func (c *Config) Port() int {
	if c.APIPort > 0 {
		return c.APIPort
	}
	return DefaultAPIPort
}

// GetHostByAlias returns a host by its alias.
func (c *Config) GetHostByAlias(alias string) (*Host, error) {
	for i := range c.Hosts {
		if c.Hosts[i].Alias == alias {
			return &c.Hosts[i], nil
		}
	}
	return nil, fmt.Errorf("host with alias '%s' not found", alias)
}

// GetHostByName returns a host by its hostname.
func (c *Config) GetHostByName(hostname string) (*Host, error) {
	for i := range c.Hosts {
		if c.Hosts[i].Hostname == hostname {
			return &c.Hosts[i], nil
		}
	}
	return nil, fmt.Errorf("host '%s' not found in workspace config", hostname)
}

// AddHost appends a host if its hostname is not already present.
func (c *Config) AddHost(host Host) {
	for _, existing := range c.Hosts {
		if existing.Hostname == host.Hostname {
			return
		}
	}
	c.Hosts = append(c.Hosts, host)
}

// FindConfigFile searches for taskdeck.json in the current directory and
// its parents.
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from the current directory or parents.
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}
	return Load(configPath)
}

// Save writes the configuration to a file.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
