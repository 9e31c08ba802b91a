// Package config handles configuration loading for JyotishAI.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Astro   AstroConfig   `mapstructure:"astro"   yaml:"astro"`
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Credits CreditsConfig `mapstructure:"credits" yaml:"credits"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// AstroConfig holds process-wide astronomical settings.
type AstroConfig struct {
	AyanamsaMode              string `mapstructure:"ayanamsa_mode"                 yaml:"ayanamsa_mode"` // "Lahiri", "Raman", "KP"
	NodeMode                  string `mapstructure:"node_mode"                     yaml:"node_mode"`     // "Mean" or "True"
	TransitStepDays           int    `mapstructure:"transit_step_days"             yaml:"transit_step_days"`
	TransitLongWindowStepDays int    `mapstructure:"transit_long_window_step_days" yaml:"transit_long_window_step_days"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary           string   `mapstructure:"primary"             yaml:"primary"` // "openai" or "gemini"
	OpenAIKey         string   `mapstructure:"openai_key"          yaml:"openai_key"`
	GeminiKey         string   `mapstructure:"gemini_key"          yaml:"gemini_key"`
	BaseURL           string   `mapstructure:"base_url"            yaml:"base_url"` // OpenAI-compatible endpoint override
	Model             string   `mapstructure:"model"               yaml:"model"`
	Models            []string `mapstructure:"models"              yaml:"models"` // preference order, first available wins
	Temperature       float64  `mapstructure:"temperature"         yaml:"temperature"`
	MaxTokens         int      `mapstructure:"max_tokens"          yaml:"max_tokens"`
	RequestsPerMinute float64  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSec        int      `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
}

// CreditsConfig maps spend reason codes to integer costs.
type CreditsConfig struct {
	Costs map[string]int `mapstructure:"costs" yaml:"costs"`
}

// Cost returns the configured cost for a reason code, or the fallback
// of 1 credit when the code is unknown.
func (c CreditsConfig) Cost(reason string) int {
	if v, ok := c.Costs[strings.ToLower(reason)]; ok {
		return v
	}
	return 1
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path          string `mapstructure:"path"           yaml:"path"`           // sqlite file, ":memory:" for tests
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"` // hex, 32 bytes; empty disables AEAD
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"          yaml:"host"`
	Port        int      `mapstructure:"port"          yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"  yaml:"cors_origins"`
	AuthSecret  string   `mapstructure:"auth_secret"   yaml:"auth_secret"` // bearer-token HMAC secret
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"        yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"       yaml:"format"` // "text" or "json"
	File       string `mapstructure:"file"         yaml:"file"`   // empty = stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"  yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.jyotishai/config.yaml (home directory)
//  3. /etc/jyotishai/config.yaml (system)
//
// A .env file in the working directory is loaded first, if present.
// Environment variables override config file values.
// Format: JYOTISHAI_<SECTION>_<KEY>, e.g., JYOTISHAI_LLM_OPENAI_KEY
func Load() (*Config, error) {
	_ = godotenv.Load() // absent .env is fine

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".jyotishai"))
	v.AddConfigPath("/etc/jyotishai")

	v.SetEnvPrefix("JYOTISHAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("JYOTISHAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would silently corrupt downstream math.
func (c *Config) Validate() error {
	switch c.Astro.NodeMode {
	case "Mean", "True":
	default:
		return fmt.Errorf("config: node_mode must be Mean or True, got %q", c.Astro.NodeMode)
	}
	if c.Astro.TransitStepDays < 1 {
		return fmt.Errorf("config: transit_step_days must be >= 1, got %d", c.Astro.TransitStepDays)
	}
	if c.Astro.TransitLongWindowStepDays < 1 {
		return fmt.Errorf("config: transit_long_window_step_days must be >= 1, got %d", c.Astro.TransitLongWindowStepDays)
	}
	for reason, cost := range c.Credits.Costs {
		if cost < 0 {
			return fmt.Errorf("config: credit cost for %q is negative", reason)
		}
	}
	if key := c.Store.EncryptionKey; key != "" && len(key) != 64 {
		return fmt.Errorf("config: encryption_key must be 64 hex chars (32 bytes), got %d", len(key))
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Astro defaults
	v.SetDefault("astro.ayanamsa_mode", "Lahiri")
	v.SetDefault("astro.node_mode", "Mean")
	v.SetDefault("astro.transit_step_days", 1)
	v.SetDefault("astro.transit_long_window_step_days", 7)

	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.models", []string{"gpt-4o", "gpt-4o-mini", "gemini-2.0-flash"})
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.requests_per_minute", 30)
	v.SetDefault("llm.timeout_sec", 120)

	// Credit defaults: reason code → cost
	v.SetDefault("credits.costs", map[string]int{
		"chat":     1,
		"daily":    1,
		"marriage": 5,
		"career":   5,
		"wealth":   5,
		"health":   5,
		"progeny":  5,
		"nadi":     3,
	})

	// Store defaults
	v.SetDefault("store.path", "jyotishai.db")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("JYOTISHAI_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("JYOTISHAI_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if key := os.Getenv("JYOTISHAI_STORE_ENCRYPTION_KEY"); key != "" {
		cfg.Store.EncryptionKey = key
	}
	if key := os.Getenv("JYOTISHAI_API_AUTH_SECRET"); key != "" {
		cfg.API.AuthSecret = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
