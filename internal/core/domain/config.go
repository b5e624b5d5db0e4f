package domain

import (
	"strings"
	"time"
)

// BackendConfig holds connection settings for one backend.
type BackendConfig struct {
	BaseURL string        `json:"base_url" toml:"base_url"`
	Model   string        `json:"model" toml:"model"`
	APIKey  string        `json:"api_key" toml:"api_key"` // may be "enc:..." in the config file
	Timeout time.Duration `json:"timeout" toml:"timeout"`
}

// ProviderConfig holds configuration for all generative backends.
type ProviderConfig struct {
	Local          BackendConfig `json:"local" toml:"local"`
	CloudPrimary   BackendConfig `json:"cloud_primary" toml:"cloud_primary"`
	CloudSecondary BackendConfig `json:"cloud_secondary" toml:"cloud_secondary"`
	Router         BackendConfig `json:"router" toml:"router"`

	// Preferred forces every task's routing to start at this backend.
	Preferred string `json:"preferred" toml:"preferred"`
}

// RetryConfig configures the resilient transport.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" toml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" toml:"base_delay"`
	MaxJitter  time.Duration `json:"max_jitter" toml:"max_jitter"`
}

// ServerConfig configures the HTTP kernel.
type ServerConfig struct {
	Addr           string   `json:"addr" toml:"addr"`
	DBPath         string   `json:"db_path" toml:"db_path"`
	AllowedOrigins []string `json:"allowed_origins" toml:"allowed_origins"`
	Production     bool     `json:"production" toml:"production"`
	LogLevel       string   `json:"log_level" toml:"log_level"`
}

// AppConfig is the process-wide configuration. It is built once at startup
// and treated as read-only afterwards.
type AppConfig struct {
	Providers ProviderConfig `json:"providers" toml:"providers"`
	Retry     RetryConfig    `json:"retry" toml:"retry"`
	Server    ServerConfig   `json:"server" toml:"server"`
}

// DefaultConfig returns safe defaults: only the local backend is eligible.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Providers: ProviderConfig{
			Local: BackendConfig{
				BaseURL: "http://localhost:11434",
				Model:   "qwen2.5:latest",
				Timeout: 120 * time.Second,
			},
			CloudPrimary: BackendConfig{
				BaseURL: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "gemini-1.5-flash",
				Timeout: 60 * time.Second,
			},
			CloudSecondary: BackendConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
				Timeout: 60 * time.Second,
			},
			Router: BackendConfig{
				BaseURL: "https://api-inference.huggingface.co",
				Model:   "mistralai/Mistral-7B-Instruct-v0.2",
				Timeout: 60 * time.Second,
			},
		},
		Retry: RetryConfig{
			MaxRetries: 5,
			BaseDelay:  500 * time.Millisecond,
			MaxJitter:  200 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			DBPath:         "muse.db",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:5174"},
			LogLevel:       "info",
		},
	}
}

// Backend returns the configuration block for id.
func (c *AppConfig) Backend(id BackendID) BackendConfig {
	switch id {
	case BackendLocal:
		return c.Providers.Local
	case BackendCloudPrimary:
		return c.Providers.CloudPrimary
	case BackendCloudSecondary:
		return c.Providers.CloudSecondary
	case BackendRouter:
		return c.Providers.Router
	}
	return BackendConfig{}
}

// Eligible reports whether a backend has enough configuration to be attempted.
// The local server needs only a URL; hosted backends also need a credential.
func (c *AppConfig) Eligible(id BackendID) bool {
	bc := c.Backend(id)
	if strings.TrimSpace(bc.BaseURL) == "" {
		return false
	}
	if id == BackendLocal {
		return true
	}
	return strings.TrimSpace(bc.APIKey) != ""
}

// Masked returns a copy safe for API responses (credentials masked).
func (c *AppConfig) Masked() *AppConfig {
	cp := *c
	cp.Providers.Local.APIKey = maskSecret(c.Providers.Local.APIKey)
	cp.Providers.CloudPrimary.APIKey = maskSecret(c.Providers.CloudPrimary.APIKey)
	cp.Providers.CloudSecondary.APIKey = maskSecret(c.Providers.CloudSecondary.APIKey)
	cp.Providers.Router.APIKey = maskSecret(c.Providers.Router.APIKey)
	cp.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &cp
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
