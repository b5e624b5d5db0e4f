// Package config builds the process configuration once at startup: defaults,
// then an optional TOML file, then environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/manthysbr/muse/internal/core/domain"
)

// Load returns the application config. path may be empty, in which case
// MUSE_CONFIG is consulted; with neither set only defaults and environment
// apply. Credentials stored with the "enc:" prefix are decrypted.
func Load(path string) (*domain.AppConfig, error) {
	cfg := domain.DefaultConfig()

	if path == "" {
		path = os.Getenv("MUSE_CONFIG")
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := decryptCredentials(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *domain.AppConfig) error {
	setString(&cfg.Server.Addr, "MUSE_ADDR")
	setString(&cfg.Server.DBPath, "MUSE_DB_PATH")
	setString(&cfg.Server.LogLevel, "MUSE_LOG_LEVEL")
	if env, ok := os.LookupEnv("MUSE_ENV"); ok {
		cfg.Server.Production = strings.EqualFold(strings.TrimSpace(env), "production")
	}
	if origins := strings.TrimSpace(os.Getenv("MUSE_ALLOWED_ORIGINS")); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	p := &cfg.Providers
	setString(&p.Local.BaseURL, "LOCAL_LLM_URL")
	setString(&p.Local.BaseURL, "OLLAMA_HOST")
	p.Local.BaseURL = withScheme(p.Local.BaseURL)
	setString(&p.Local.Model, "LOCAL_LLM_MODEL")

	setString(&p.CloudPrimary.APIKey, "GEMINI_API_KEY")
	setString(&p.CloudPrimary.BaseURL, "GEMINI_BASE_URL")
	setString(&p.CloudPrimary.Model, "GEMINI_MODEL")

	setString(&p.CloudSecondary.APIKey, "OPENAI_API_KEY")
	setString(&p.CloudSecondary.BaseURL, "OPENAI_BASE_URL")
	setString(&p.CloudSecondary.Model, "OPENAI_MODEL")

	setString(&p.Router.APIKey, "HF_API_KEY")
	setString(&p.Router.BaseURL, "HF_BASE_URL")
	setString(&p.Router.Model, "HF_MODEL")

	setString(&p.Preferred, "PREFERRED_PROVIDER")

	if v := strings.TrimSpace(os.Getenv("MUSE_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MUSE_MAX_RETRIES: %w", err)
		}
		cfg.Retry.MaxRetries = n
	}
	if v := strings.TrimSpace(os.Getenv("MUSE_RETRY_BASE_DELAY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MUSE_RETRY_BASE_DELAY: %w", err)
		}
		cfg.Retry.BaseDelay = d
	}
	return nil
}

func decryptCredentials(cfg *domain.AppConfig) error {
	keys := []*string{
		&cfg.Providers.Local.APIKey,
		&cfg.Providers.CloudPrimary.APIKey,
		&cfg.Providers.CloudSecondary.APIKey,
		&cfg.Providers.Router.APIKey,
	}

	var sk *SecretKey
	for _, k := range keys {
		if !IsEncrypted(*k) {
			continue
		}
		if sk == nil {
			var err error
			if sk, err = NewSecretKey(); err != nil {
				return err
			}
		}
		plain, err := sk.Decrypt(*k)
		if err != nil {
			return fmt.Errorf("decrypt credential: %w", err)
		}
		*k = plain
	}
	return nil
}

func validate(cfg *domain.AppConfig) error {
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay < 0 || cfg.Retry.MaxJitter < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if raw := strings.TrimSpace(cfg.Providers.Preferred); raw != "" {
		if _, err := domain.ParseBackendID(raw); err != nil {
			return fmt.Errorf("PREFERRED_PROVIDER: %w", err)
		}
	}
	return nil
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// withScheme accepts OLLAMA_HOST values such as "0.0.0.0:11434".
func withScheme(u string) string {
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	return "http://" + u
}
