package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Hosts) != 1 {
		t.Fatalf("hosts = %d, want 1", len(cfg.Hosts))
	}
	if cfg.Hosts[0].Hostname != "localhost" {
		t.Errorf("hostname = %q, want %q", cfg.Hosts[0].Hostname, "localhost")
	}
	if cfg.Hosts[0].Alias != "primary" {
		t.Errorf("alias = %q, want %q", cfg.Hosts[0].Alias, "primary")
	}
	if cfg.Port() != DefaultAPIPort {
		t.Errorf("port = %d, want %d", cfg.Port(), DefaultAPIPort)
	}
}

func TestConfig_PortOverride(t *testing.T) {
	cfg := &Config{APIPort: 9000}
	if cfg.Port() != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Port())
	}
}

func TestConfig_GetHostByAlias(t *testing.T) {
	cfg := &Config{
		Hosts: []Host{
			{Hostname: "localhost", Alias: "primary"},
			{Hostname: "acme.localhost", Alias: "acme"},
		},
	}

	host, err := cfg.GetHostByAlias("acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.Hostname != "acme.localhost" {
		t.Errorf("hostname = %q, want %q", host.Hostname, "acme.localhost")
	}

	if _, err := cfg.GetHostByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias")
	}
}

func TestConfig_GetHostByName(t *testing.T) {
	cfg := &Config{
		Hosts: []Host{
			{Hostname: "localhost", Alias: "primary"},
		},
	}

	host, err := cfg.GetHostByName("localhost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.Alias != "primary" {
		t.Errorf("alias = %q, want %q", host.Alias, "primary")
	}

	if _, err := cfg.GetHostByName("beta.localhost"); err == nil {
		t.Error("expected error for unknown hostname")
	}
}

func TestConfig_AddHostDeduplicates(t *testing.T) {
	cfg := DefaultConfig()

	cfg.AddHost(Host{Hostname: "acme.localhost", Alias: "acme"})
	cfg.AddHost(Host{Hostname: "acme.localhost", Alias: "acme-again"})

	if len(cfg.Hosts) != 2 {
		t.Errorf("hosts = %d, want 2", len(cfg.Hosts))
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := DefaultConfig()
	cfg.AddHost(Host{Hostname: "acme.localhost", Alias: "acme"})
	cfg.APIPort = 9000

	if err := Save(path, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Hosts) != 2 {
		t.Errorf("hosts = %d, want 2", len(loaded.Hosts))
	}
	if loaded.APIPort != 9000 {
		t.Errorf("apiPort = %d, want 9000", loaded.APIPort)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	configPath := filepath.Join(root, ConfigFileName)
	if err := Save(configPath, DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(nested); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Resolve symlinks before comparing; temp dirs are often symlinked
	wantResolved, _ := filepath.EvalSymlinks(configPath)
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != wantResolved {
		t.Errorf("found = %q, want %q", found, configPath)
	}
}
