package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/distillkit/distillkit/internal/config"
	"github.com/distillkit/distillkit/internal/llm"
	"github.com/distillkit/distillkit/internal/observability"
	"github.com/distillkit/distillkit/internal/store"
)

var version = "v0.3.0"

var rootCmd = &cobra.Command{
	Use:   "distillkit",
	Short: "distillkit generates fine-tuning datasets by knowledge distillation",
	Long: `distillkit grows a tag tree for a topic, brainstorms questions for the
leaf tags, and asks a teacher model to answer them — producing single-turn
and multi-turn datasets ready for fine-tuning.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/distillkit/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configureCmd)
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DISTILLKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars apply.
	_ = viper.ReadInConfig()
}

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the catalog database under the configured data directory.
func openStore(cfg *config.Config) (store.Store, error) {
	if err := os.MkdirAll(cfg.ResolveDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return st, nil
}

// newProvider builds the configured LLM provider.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	key := cfg.APIKeyFor()
	if key == "" {
		return nil, fmt.Errorf("no API key: set provider.api_key, ANTHROPIC_API_KEY, or OPENAI_API_KEY (or run: distillkit configure)")
	}

	switch cfg.Provider.Name {
	case "openai":
		var opts []llm.OpenAIOption
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, llm.WithOpenAIBaseURL(cfg.Provider.BaseURL))
		}
		if cfg.Provider.Model != "" {
			opts = append(opts, llm.WithOpenAIDefaultModel(cfg.Provider.Model))
		}
		return llm.NewOpenAIProvider(key, opts...), nil
	default:
		var opts []llm.ClaudeOption
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, llm.WithClaudeBaseURL(cfg.Provider.BaseURL))
		}
		if cfg.Provider.Model != "" {
			opts = append(opts, llm.WithClaudeDefaultModel(cfg.Provider.Model))
		}
		return llm.NewClaudeProvider(key, opts...), nil
	}
}

func newLogger(component string) *observability.Logger {
	return observability.NewLogger(component, os.Stderr)
}
