package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Explainer providers.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Environment variables that override the explain section.
const (
	EnvAPIKey   = "GOEXPLAIN_LLM_API_KEY"
	EnvEndpoint = "GOEXPLAIN_LLM_ENDPOINT"
	EnvModel    = "GOEXPLAIN_LLM_MODEL"
	EnvProvider = "GOEXPLAIN_LLM_PROVIDER"
)

// Config is the user configuration file. Command-line flags take precedence
// over anything set here.
type Config struct {
	Width             int           `yaml:"width"`
	Format            string        `yaml:"format"`
	IncludeUnexported bool          `yaml:"include_unexported"`
	Explain           ExplainConfig `yaml:"explain"`
}

// ExplainConfig selects and configures the LLM backend for -explain. An empty
// endpoint or model means the provider's default.
type ExplainConfig struct {
	Provider string        `yaml:"provider"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"-"` // environment only
	Timeout  time.Duration `yaml:"timeout"`
}

// LogValue masks the API key when the config is logged via slog.
func (c ExplainConfig) LogValue() slog.Value {
	key := ""
	if c.APIKey != "" {
		key = "[REDACTED]"
	}
	return slog.GroupValue(
		slog.String("provider", c.Provider),
		slog.String("endpoint", c.Endpoint),
		slog.String("model", c.Model),
		slog.String("api_key", key),
	)
}

// Default is the configuration used when no file exists: text output at
// width 100 with explanations from the openai provider.
func Default() Config {
	return Config{
		Width:  100,
		Format: FormatText,
		Explain: ExplainConfig{
			Provider: ProviderOpenAI,
			Timeout:  30 * time.Second,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/goexplain/config.yaml or the
// platform equivalent. It returns "" when no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "goexplain", "config.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file, or an
// empty path, yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides the explain section from GOEXPLAIN_LLM_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIKey); v != "" {
		c.Explain.APIKey = v
	}
	if v := getenv(EnvEndpoint); v != "" {
		c.Explain.Endpoint = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Explain.Model = v
	}
	if v := getenv(EnvProvider); v != "" {
		c.Explain.Provider = strings.ToLower(v)
	}
}

// Validate rejects an unknown format or provider and a negative width.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (valid: text, json)", c.Format)
	}
	if c.Width < 0 {
		return fmt.Errorf("width must not be negative, got %d", c.Width)
	}
	switch c.Explain.Provider {
	case ProviderNone, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown explain provider %q (valid: none, openai, gemini)", c.Explain.Provider)
	}
	if c.Explain.Timeout < 0 {
		return fmt.Errorf("explain timeout must not be negative, got %s", c.Explain.Timeout)
	}
	return nil
}
