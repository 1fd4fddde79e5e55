package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "claude", cfg.Provider.Name)
	require.Equal(t, "en", cfg.Run.Language)
	require.Equal(t, 2, cfg.Run.Levels)
	require.Equal(t, 5, cfg.Run.TagsPerLevel)
	require.Equal(t, 10, cfg.Run.QuestionsPerTag)
	require.Equal(t, 5, cfg.Run.Concurrency)
	require.Equal(t, 2, cfg.Run.MultiTurnConcurrency)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("provider.name", "openai")
	viper.Set("provider.model", "gpt-4o-mini")
	viper.Set("run.levels", 3)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Provider.Name)
	require.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	require.Equal(t, 3, cfg.Run.Levels)
}

func TestLoadEnvOverride(t *testing.T) {
	resetViper(t)
	viper.SetEnvPrefix("DISTILLKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	t.Setenv("DISTILLKIT_PROVIDER_NAME", "openai")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Provider.Name)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "bard" }},
		{"zero levels", func(c *Config) { c.Run.Levels = 0 }},
		{"zero tags per level", func(c *Config) { c.Run.TagsPerLevel = 0 }},
		{"zero questions per tag", func(c *Config) { c.Run.QuestionsPerTag = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestResolveDataDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	require.Equal(t, filepath.Join(home, ".distillkit"), cfg.ResolveDataDir())
	require.Equal(t, filepath.Join(home, ".distillkit", "catalog.db"), cfg.DatabasePath())
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "sk-oa-test")

	cfg := Default()
	require.Equal(t, "sk-ant-test", cfg.APIKeyFor())

	cfg.Provider.Name = "openai"
	require.Equal(t, "sk-oa-test", cfg.APIKeyFor())

	cfg.Provider.APIKey = "explicit"
	require.Equal(t, "explicit", cfg.APIKeyFor())
}

func TestConfigDirRespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.Equal(t, filepath.Join(dir, "distillkit"), ConfigDir())
	require.Equal(t, filepath.Join(dir, "distillkit", "config.yaml"), ConfigFile())
}
