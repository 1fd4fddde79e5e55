package main

import (
	"os"
	"testing"

	"github.com/distillkit/distillkit/internal/config"
)

func TestPersistedConfigSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var cfg persistedConfig
	cfg.Provider.Name = "openai"
	cfg.Provider.APIKey = "sk-test-key-12345"
	cfg.Provider.Model = "gpt-4o-mini"
	cfg.Run.Language = "de"

	if err := savePersistedConfig(&cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := loadPersistedConfig()
	if loaded.Provider.Name != "openai" {
		t.Errorf("provider = %q, want openai", loaded.Provider.Name)
	}
	if loaded.Provider.APIKey != "sk-test-key-12345" {
		t.Errorf("api key = %q", loaded.Provider.APIKey)
	}
	if loaded.Provider.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", loaded.Provider.Model)
	}
	if loaded.Run.Language != "de" {
		t.Errorf("language = %q", loaded.Run.Language)
	}
}

func TestPersistedConfigPermissions(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var cfg persistedConfig
	cfg.Provider.Name = "claude"
	cfg.Provider.APIKey = "secret"
	if err := savePersistedConfig(&cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(config.ConfigFile())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perms := info.Mode().Perm(); perms != 0o600 {
		t.Errorf("permissions = %o, want 600", perms)
	}
}

func TestLoadPersistedConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := loadPersistedConfig()
	if cfg.Provider.Name != "" {
		t.Errorf("expected empty config, got provider %q", cfg.Provider.Name)
	}
}

func TestMaskKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "****"},
		{"sk-ant-abcdef123456", "sk-a...3456"},
	}
	for _, tc := range cases {
		if got := maskKey(tc.in); got != tc.want {
			t.Errorf("maskKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
