package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/distillkit/distillkit/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactive configuration wizard",
	Long: `Walk through provider selection, API key entry, and default model choice,
then write the result to the config file with owner-only permissions.`,
	RunE: runConfigure,
}

// persistedConfig mirrors the config file layout written by the wizard.
type persistedConfig struct {
	Provider struct {
		Name    string `yaml:"name"`
		Model   string `yaml:"model,omitempty"`
		APIKey  string `yaml:"api_key,omitempty"`
		BaseURL string `yaml:"base_url,omitempty"`
	} `yaml:"provider"`
	Run struct {
		Language string `yaml:"language,omitempty"`
	} `yaml:"run,omitempty"`
}

func runConfigure(cmd *cobra.Command, args []string) error {
	fmt.Printf("\ndistillkit %s — configuration\n\n", version)

	reader := bufio.NewReader(os.Stdin)
	existing := loadPersistedConfig()

	var cfg persistedConfig

	// Step 1: Provider.
	defaultProvider := existing.Provider.Name
	if defaultProvider == "" {
		defaultProvider = "claude"
	}
	for {
		name := promptString(reader, "Provider (claude/openai)", defaultProvider)
		if name == "claude" || name == "openai" {
			cfg.Provider.Name = name
			break
		}
		fmt.Println("  Enter claude or openai.")
	}

	// Step 2: API key, hidden input.
	masked := maskKey(existing.Provider.APIKey)
	if masked != "" {
		fmt.Printf("  Current API key: %s\n", masked)
		fmt.Print("  Enter new API key (or press Enter to keep current): ")
	} else {
		fmt.Print("  Enter your API key: ")
	}
	key := readSecretLine(reader)
	if key == "" {
		key = existing.Provider.APIKey
	}
	if key == "" {
		fmt.Println("  No API key provided; the environment variable will be used at run time.")
	}
	cfg.Provider.APIKey = key

	// Step 3: Base URL, for OpenAI-compatible gateways.
	baseURL := promptString(reader, "Base URL (empty for the provider default)", existing.Provider.BaseURL)
	cfg.Provider.BaseURL = baseURL

	// Step 4: Default model.
	cfg.Provider.Model = promptString(reader, "Default model (empty for the provider default)", existing.Provider.Model)

	// Step 5: Language.
	defaultLang := existing.Run.Language
	if defaultLang == "" {
		defaultLang = "en"
	}
	cfg.Run.Language = promptString(reader, "Output language", defaultLang)

	if err := savePersistedConfig(&cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("\n  Configuration saved to %s\n", config.ConfigFile())

	fmt.Print("  Testing connection... ")
	if err := testProviderConnection(&cfg); err != nil {
		fmt.Printf("failed: %v\n", err)
		fmt.Println("  You can fix this later and re-run: distillkit configure")
	} else {
		fmt.Println("ok")
	}

	fmt.Println("\n  Ready! Create a project with: distillkit project create")
	return nil
}

func loadPersistedConfig() persistedConfig {
	var cfg persistedConfig
	data, err := os.ReadFile(config.ConfigFile())
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}

// savePersistedConfig writes the config file with 0600 permissions; the file
// holds an API key.
func savePersistedConfig(cfg *persistedConfig) error {
	path := config.ConfigFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "****"
}

// testProviderConnection hits the provider's model list endpoint to validate
// the key.
func testProviderConnection(cfg *persistedConfig) error {
	var url string
	switch cfg.Provider.Name {
	case "openai":
		url = "https://api.openai.com/v1/models"
		if cfg.Provider.BaseURL != "" {
			url = strings.TrimRight(cfg.Provider.BaseURL, "/") + "/models"
		}
	default:
		url = "https://api.anthropic.com/v1/models"
		if cfg.Provider.BaseURL != "" {
			url = strings.TrimRight(cfg.Provider.BaseURL, "/") + "/v1/models"
		}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if cfg.Provider.APIKey != "" {
		if cfg.Provider.Name == "openai" {
			req.Header.Set("Authorization", "Bearer "+cfg.Provider.APIKey)
		} else {
			req.Header.Set("x-api-key", cfg.Provider.APIKey)
			req.Header.Set("anthropic-version", "2023-06-01")
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("authentication failed (HTTP %d), check your API key", resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}
	return nil
}

// promptString asks for a string input with a default value.
func promptString(reader *bufio.Reader, prompt, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", prompt, defaultVal)
	} else {
		fmt.Printf("  %s: ", prompt)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// readSecretLine reads a line without echoing (for API keys).
func readSecretLine(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
