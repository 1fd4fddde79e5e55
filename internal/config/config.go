// Package config holds the toolkit configuration loaded via viper from the
// config file, environment variables, and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete distillkit configuration.
type Config struct {
	Provider Provider `mapstructure:"provider"`
	Run      Run      `mapstructure:"run"`
	Storage  Storage  `mapstructure:"storage"`
	Logging  Logging  `mapstructure:"logging"`
}

// Provider selects and configures the LLM backend.
type Provider struct {
	// Name is the provider to use: "claude" or "openai".
	Name string `mapstructure:"name"`
	// Model is the default model for generation runs.
	Model string `mapstructure:"model"`
	// APIKey overrides the provider's environment variable
	// (ANTHROPIC_API_KEY or OPENAI_API_KEY).
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the provider endpoint, e.g. for OpenAI-compatible
	// gateways.
	BaseURL string `mapstructure:"base_url"`
}

// Run carries the default shape of a distillation run.
type Run struct {
	// Language of generated content; empty or "en" means English.
	Language string `mapstructure:"language"`
	// Levels is the default tag tree depth.
	Levels int `mapstructure:"levels"`
	// TagsPerLevel is the default fan-out per tag tree node.
	TagsPerLevel int `mapstructure:"tags_per_level"`
	// QuestionsPerTag is the default question count per leaf tag.
	QuestionsPerTag int `mapstructure:"questions_per_tag"`
	// Concurrency caps parallel generation calls within a stage.
	Concurrency int `mapstructure:"concurrency"`
	// MultiTurnConcurrency caps parallel conversation generations.
	MultiTurnConcurrency int `mapstructure:"multi_turn_concurrency"`
}

// Storage controls where the catalog database and exports live.
type Storage struct {
	// DataDir holds the SQLite database and default export output.
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
}

// Logging controls log output.
type Logging struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `mapstructure:"level"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Provider: Provider{
			Name:  "claude",
			Model: "",
		},
		Run: Run{
			Language:             "en",
			Levels:               2,
			TagsPerLevel:         5,
			QuestionsPerTag:      10,
			Concurrency:          5,
			MultiTurnConcurrency: 2,
		},
		Storage: Storage{
			DataDir: "~/.distillkit",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("provider.name", defaults.Provider.Name)
	viper.SetDefault("provider.model", defaults.Provider.Model)
	viper.SetDefault("provider.api_key", defaults.Provider.APIKey)
	viper.SetDefault("provider.base_url", defaults.Provider.BaseURL)

	viper.SetDefault("run.language", defaults.Run.Language)
	viper.SetDefault("run.levels", defaults.Run.Levels)
	viper.SetDefault("run.tags_per_level", defaults.Run.TagsPerLevel)
	viper.SetDefault("run.questions_per_tag", defaults.Run.QuestionsPerTag)
	viper.SetDefault("run.concurrency", defaults.Run.Concurrency)
	viper.SetDefault("run.multi_turn_concurrency", defaults.Run.MultiTurnConcurrency)

	viper.SetDefault("storage.data_dir", defaults.Storage.DataDir)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and
// validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values that would otherwise surface as confusing
// failures deep inside a run.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "claude", "openai":
	default:
		return fmt.Errorf("config: unknown provider %q (want claude or openai)", c.Provider.Name)
	}
	if c.Run.Levels < 1 {
		return fmt.Errorf("config: run.levels must be >= 1, got %d", c.Run.Levels)
	}
	if c.Run.TagsPerLevel < 1 {
		return fmt.Errorf("config: run.tags_per_level must be >= 1, got %d", c.Run.TagsPerLevel)
	}
	if c.Run.QuestionsPerTag < 1 {
		return fmt.Errorf("config: run.questions_per_tag must be >= 1, got %d", c.Run.QuestionsPerTag)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

// ResolveDataDir expands ~ in the configured data directory and returns an
// absolute path.
func (c *Config) ResolveDataDir() string {
	return expandHome(c.Storage.DataDir)
}

// DatabasePath returns the path of the catalog database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ResolveDataDir(), "catalog.db")
}

// APIKeyFor returns the configured key for the active provider, falling back
// to the provider's conventional environment variable.
func (c *Config) APIKeyFor() string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}
	switch c.Provider.Name {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "distillkit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".distillkit"
	}
	return filepath.Join(home, ".config", "distillkit")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}
