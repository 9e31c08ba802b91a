package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"JYOTISHAI_LLM_OPENAI_KEY", "JYOTISHAI_LLM_GEMINI_KEY",
		"JYOTISHAI_STORE_ENCRYPTION_KEY", "JYOTISHAI_API_AUTH_SECRET",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Astro defaults
	if cfg.Astro.AyanamsaMode != "Lahiri" {
		t.Errorf("Astro.AyanamsaMode: got %q, want %q", cfg.Astro.AyanamsaMode, "Lahiri")
	}
	if cfg.Astro.NodeMode != "Mean" {
		t.Errorf("Astro.NodeMode: got %q, want %q", cfg.Astro.NodeMode, "Mean")
	}
	if cfg.Astro.TransitStepDays != 1 {
		t.Errorf("Astro.TransitStepDays: got %d, want 1", cfg.Astro.TransitStepDays)
	}
	if cfg.Astro.TransitLongWindowStepDays != 7 {
		t.Errorf("Astro.TransitLongWindowStepDays: got %d, want 7", cfg.Astro.TransitLongWindowStepDays)
	}

	// LLM defaults
	if cfg.LLM.Primary != "openai" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "openai")
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model: got %q, want %q", cfg.LLM.Model, "gpt-4o")
	}
	if cfg.LLM.Temperature != 0.4 {
		t.Errorf("LLM.Temperature: got %f, want 0.4", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 4096 {
		t.Errorf("LLM.MaxTokens: got %d, want 4096", cfg.LLM.MaxTokens)
	}
	if len(cfg.LLM.Models) == 0 {
		t.Error("LLM.Models preference list should have defaults")
	}
	if cfg.LLM.RequestsPerMinute != 30 {
		t.Errorf("LLM.RequestsPerMinute: got %f, want 30", cfg.LLM.RequestsPerMinute)
	}
	if cfg.LLM.TimeoutSec != 120 {
		t.Errorf("LLM.TimeoutSec: got %d, want 120", cfg.LLM.TimeoutSec)
	}

	// Credit defaults
	if got := cfg.Credits.Cost("marriage"); got != 5 {
		t.Errorf("Credits.Cost(marriage): got %d, want 5", got)
	}
	if got := cfg.Credits.Cost("chat"); got != 1 {
		t.Errorf("Credits.Cost(chat): got %d, want 1", got)
	}
	if got := cfg.Credits.Cost("unknown-reason"); got != 1 {
		t.Errorf("Credits.Cost(unknown): got %d, want fallback 1", got)
	}

	// Store defaults
	if cfg.Store.Path != "jyotishai.db" {
		t.Errorf("Store.Path: got %q", cfg.Store.Path)
	}
	if cfg.Store.EncryptionKey != "" {
		t.Errorf("Store.EncryptionKey should default empty, got %q", cfg.Store.EncryptionKey)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
	if cfg.Logging.MaxSizeMB != 50 {
		t.Errorf("Logging.MaxSizeMB: got %d, want 50", cfg.Logging.MaxSizeMB)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
astro:
  ayanamsa_mode: "Raman"
  node_mode: "True"
  transit_step_days: 2
llm:
  primary: "gemini"
  model: "gemini-2.0-flash"
  temperature: 0.3
  max_tokens: 8192
credits:
  costs:
    marriage: 7
    chat: 2
store:
  path: ":memory:"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("JYOTISHAI_LLM_OPENAI_KEY")
	os.Unsetenv("JYOTISHAI_STORE_ENCRYPTION_KEY")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Astro.AyanamsaMode != "Raman" {
		t.Errorf("Astro.AyanamsaMode: got %q, want %q", cfg.Astro.AyanamsaMode, "Raman")
	}
	if cfg.Astro.NodeMode != "True" {
		t.Errorf("Astro.NodeMode: got %q, want %q", cfg.Astro.NodeMode, "True")
	}
	if cfg.Astro.TransitStepDays != 2 {
		t.Errorf("Astro.TransitStepDays: got %d, want 2", cfg.Astro.TransitStepDays)
	}
	if cfg.LLM.Primary != "gemini" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "gemini")
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature: got %f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 8192 {
		t.Errorf("LLM.MaxTokens: got %d, want 8192", cfg.LLM.MaxTokens)
	}
	if got := cfg.Credits.Cost("marriage"); got != 7 {
		t.Errorf("Credits.Cost(marriage): got %d, want 7", got)
	}
	if got := cfg.Credits.Cost("chat"); got != 2 {
		t.Errorf("Credits.Cost(chat): got %d, want 2", got)
	}
	if cfg.Store.Path != ":memory:" {
		t.Errorf("Store.Path: got %q", cfg.Store.Path)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Validate ──

func TestValidateRejectsBadNodeMode(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("astro:\n  node_mode: \"Wobbly\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(cfgPath); err == nil {
		t.Error("expected validation error for node_mode=Wobbly")
	}
}

func TestValidateRejectsBadEncryptionKey(t *testing.T) {
	os.Unsetenv("JYOTISHAI_STORE_ENCRYPTION_KEY")
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("store:\n  encryption_key: \"deadbeef\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(cfgPath); err == nil {
		t.Error("expected validation error for short encryption key")
	}
}

func TestValidateRejectsZeroStep(t *testing.T) {
	cfg := &Config{
		Astro: AstroConfig{NodeMode: "Mean", TransitStepDays: 0, TransitLongWindowStepDays: 7},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for transit_step_days=0")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	cfg := &Config{}

	os.Setenv("JYOTISHAI_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	os.Setenv("JYOTISHAI_LLM_GEMINI_KEY", "gemini-key-789")
	os.Setenv("JYOTISHAI_API_AUTH_SECRET", "hmac-secret-value")
	defer func() {
		os.Unsetenv("JYOTISHAI_LLM_OPENAI_KEY")
		os.Unsetenv("JYOTISHAI_LLM_GEMINI_KEY")
		os.Unsetenv("JYOTISHAI_API_AUTH_SECRET")
	}()

	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "sk-test-openai-key-123456" {
		t.Errorf("OpenAIKey: got %q", cfg.LLM.OpenAIKey)
	}
	if cfg.LLM.GeminiKey != "gemini-key-789" {
		t.Errorf("GeminiKey: got %q", cfg.LLM.GeminiKey)
	}
	if cfg.API.AuthSecret != "hmac-secret-value" {
		t.Errorf("AuthSecret: got %q", cfg.API.AuthSecret)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	os.Unsetenv("JYOTISHAI_LLM_OPENAI_KEY")
	os.Unsetenv("JYOTISHAI_LLM_GEMINI_KEY")
	os.Unsetenv("JYOTISHAI_STORE_ENCRYPTION_KEY")
	os.Unsetenv("JYOTISHAI_API_AUTH_SECRET")

	cfg := &Config{
		LLM: LLMConfig{OpenAIKey: "from-config"},
	}
	overrideFromEnv(cfg)

	// Should retain the original value when env is not set
	if cfg.LLM.OpenAIKey != "from-config" {
		t.Errorf("OpenAIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.OpenAIKey)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	// Keys with 8 or fewer characters should be fully masked
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	// Keys with more than 8 characters show first 3 + ... + last 3
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	envVars := []string{
		"JYOTISHAI_LLM_OPENAI_KEY", "JYOTISHAI_LLM_GEMINI_KEY",
		"JYOTISHAI_STORE_ENCRYPTION_KEY", "JYOTISHAI_API_AUTH_SECRET",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg := &Config{}
	statuses := CheckAPIKeys(cfg)

	if len(statuses) != 4 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 4", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != KeySourceNone {
			t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceNone)
		}
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	os.Unsetenv("JYOTISHAI_LLM_OPENAI_KEY")

	cfg := &Config{
		LLM: LLMConfig{
			OpenAIKey: "sk-test-very-long-key-value",
		},
	}
	statuses := CheckAPIKeys(cfg)

	found := false
	for _, s := range statuses {
		if s.Name == "OpenAI API Key" {
			found = true
			if !s.IsSet {
				t.Error("OpenAI key should be set")
			}
			if s.Source != KeySourceConfig {
				t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
			}
			if s.Masked != "sk-...lue" {
				t.Errorf("Masked: got %q, want %q", s.Masked, "sk-...lue")
			}
		}
	}
	if !found {
		t.Error("OpenAI API Key status not found")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	os.Setenv("JYOTISHAI_LLM_OPENAI_KEY", "sk-env-key-for-testing")
	defer os.Unsetenv("JYOTISHAI_LLM_OPENAI_KEY")

	cfg := &Config{
		LLM: LLMConfig{
			OpenAIKey: "sk-env-key-for-testing",
		},
	}
	statuses := CheckAPIKeys(cfg)

	for _, s := range statuses {
		if s.Name == "OpenAI API Key" {
			if s.Source != KeySourceEnv {
				t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
			}
		}
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	// No env, no value
	os.Unsetenv("TEST_VAR")
	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone {
		t.Errorf("empty value: got source %q, want %q", s.Source, KeySourceNone)
	}
	if s.IsSet {
		t.Error("empty value should not be set")
	}

	// Value from config (no env)
	s = checkKey("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}
	if !s.IsSet {
		t.Error("config value should be set")
	}

	// Value from env
	os.Setenv("TEST_VAR", "env-value-long-enough")
	defer os.Unsetenv("TEST_VAR")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
