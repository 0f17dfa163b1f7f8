package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/BasilJohn/GraceGuide/pkg/config"
)

// Config holds all configuration for the GraceGuide client tooling.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend API
	APIBaseURL     string        `env:"API_URL" envDefault:"http://localhost:4001"`
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"30s"`
	RefreshTimeout time.Duration `env:"API_REFRESH_TIMEOUT" envDefault:"15s"`

	// Credential store. With an empty path credentials live in memory only.
	CredentialsPath string `env:"CREDENTIALS_PATH" envDefault:""`
	KeyPath         string `env:"CREDENTIALS_KEY_PATH" envDefault:""`
}

// StubConfig holds configuration for the local stub backend.
type StubConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"STUB_HTTP_PORT" envDefault:"4001"`

	// JWT
	JWTSecret        string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry string `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
}

// Load reads client configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_URL must not be empty")
	}
	// A sealed file store needs both the file and its key.
	if (cfg.CredentialsPath == "") != (cfg.KeyPath == "") {
		return nil, fmt.Errorf("CREDENTIALS_PATH and CREDENTIALS_KEY_PATH must be set together")
	}
	return cfg, nil
}

// LoadStub reads stub backend configuration from environment variables.
func LoadStub() (*StubConfig, error) {
	cfg := &StubConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load stub config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// Outside development, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}
	return cfg, nil
}
