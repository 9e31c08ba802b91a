package api

import (
	"net/http"

	"github.com/saptarishi/jyotishai/internal/config"
)

// handleGetConfig echoes the effective configuration with every secret
// redacted. Key material never leaves the process, only its presence.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	c := s.cfg
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"astro": map[string]interface{}{
			"ayanamsa_mode":                 c.Astro.AyanamsaMode,
			"node_mode":                     c.Astro.NodeMode,
			"transit_step_days":             c.Astro.TransitStepDays,
			"transit_long_window_step_days": c.Astro.TransitLongWindowStepDays,
		},
		"llm": map[string]interface{}{
			"primary":             c.LLM.Primary,
			"openai_key":          redact(c.LLM.OpenAIKey),
			"gemini_key":          redact(c.LLM.GeminiKey),
			"base_url":            c.LLM.BaseURL,
			"model":               c.LLM.Model,
			"models":              c.LLM.Models,
			"temperature":         c.LLM.Temperature,
			"max_tokens":          c.LLM.MaxTokens,
			"requests_per_minute": c.LLM.RequestsPerMinute,
			"timeout_sec":         c.LLM.TimeoutSec,
		},
		"credits": map[string]interface{}{
			"costs": c.Credits.Costs,
		},
		"store": map[string]interface{}{
			"path":      c.Store.Path,
			"encrypted": c.Store.EncryptionKey != "",
		},
		"api": map[string]interface{}{
			"host":         c.API.Host,
			"port":         c.API.Port,
			"cors_origins": c.API.CORSOrigins,
			"auth_enabled": c.API.AuthSecret != "",
		},
		"logging": map[string]interface{}{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
			"file":   c.Logging.File,
		},
	}})
}

// handleGetConfigKeys reports which provider credentials are present,
// without revealing them.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"keys":    config.CheckAPIKeys(s.cfg),
		"primary": s.cfg.LLM.Primary,
	}})
}

// redact keeps only the last four characters of a secret.
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
