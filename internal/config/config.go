// Package config provides configuration loading for sitegen.
//
// Configuration is assembled from hardcoded defaults, an optional YAML file,
// and environment variable overrides. See LoadWithFile for precedence rules.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete sitegen configuration.
type Config struct {
	Server     ServerConfig    `koanf:"server"`
	Auth       AuthConfig      `koanf:"auth"`
	Generator  GeneratorConfig `koanf:"generator"`
	Tokens     TokenBudgets    `koanf:"tokens"`
	Deploy     DeployConfig    `koanf:"deploy"`
	Thresholds Thresholds      `koanf:"thresholds"`
	Jobs       JobsConfig      `koanf:"jobs"`
	Logging    LoggingConfig   `koanf:"logging"`
	Telemetry  TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// AuthConfig controls bearer-token authentication on the API.
// Auth is disabled when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret Secret `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
}

// Enabled reports whether API authentication is required.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret.IsSet()
}

// GeneratorConfig selects and tunes the text generator.
type GeneratorConfig struct {
	Provider       string        `koanf:"provider"` // mock, anthropic, openai
	Model          string        `koanf:"model"`
	APIKey         Secret        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	Temperature    float64       `koanf:"temperature"`
	TopP           float64       `koanf:"top_p"`
	Timeout        time.Duration `koanf:"timeout"`
	RateLimit      float64       `koanf:"rate_limit"`
	MaxRetries     int           `koanf:"max_retries"`
	FallbackToMock bool          `koanf:"fallback_to_mock"`
}

// TokenBudgets holds max_tokens per generation call site.
type TokenBudgets struct {
	Planning     int `koanf:"planning"`
	Content      int `koanf:"content"`
	Design       int `koanf:"design"`
	Plugins      int `koanf:"plugins"`
	Deployment   int `koanf:"deployment"`
	Orchestrator int `koanf:"orchestrator"`
}

// DeployConfig holds remote deployment settings.
type DeployConfig struct {
	RetryAttempts      int           `koanf:"retry_attempts"`
	RetryDelay         time.Duration `koanf:"retry_delay"`
	BatchSize          int           `koanf:"batch_size"`
	APITimeout         time.Duration `koanf:"api_timeout"`
	PermalinkStructure string        `koanf:"permalink_structure"`
	Timezone           string        `koanf:"timezone"`
	// SSHKnownHosts verifies WP-CLI hosts. Empty disables host key checks.
	SSHKnownHosts string `koanf:"ssh_known_hosts"`
	// WPPath is the WordPress root on the remote host, passed as --path.
	WPPath string `koanf:"wp_path"`
}

// Thresholds are the per-stage confidence levels below which a warning is logged.
type Thresholds struct {
	Deploy  float64 `koanf:"deploy"`
	Content float64 `koanf:"content"`
	Design  float64 `koanf:"design"`
	Overall float64 `koanf:"overall"`
}

// JobsConfig holds job tracker settings.
type JobsConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	ShutdownGrace time.Duration `koanf:"shutdown_grace"`
}

// LoggingConfig is the subset of logging settings exposed through config files.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig is the subset of OpenTelemetry settings exposed through config files.
type TelemetryConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Endpoint        string        `koanf:"endpoint"`
	ServiceName     string        `koanf:"service_name"`
	ServiceVersion  string        `koanf:"service_version"`
	Insecure        bool          `koanf:"insecure"`
	SampleRate      float64       `koanf:"sample_rate"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Default returns a configuration populated with production defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:3002", "http://localhost:3000"},
		},
		Auth: AuthConfig{
			Issuer: "sitegen",
		},
		Generator: GeneratorConfig{
			Provider:       "mock",
			Temperature:    0.10,
			TopP:           0.8,
			Timeout:        30 * time.Second,
			RateLimit:      1,
			MaxRetries:     3,
			FallbackToMock: true,
		},
		Tokens: TokenBudgets{
			Planning:     600,
			Content:      2000,
			Design:       500,
			Plugins:      500,
			Deployment:   800,
			Orchestrator: 600,
		},
		Deploy: DeployConfig{
			RetryAttempts:      2,
			RetryDelay:         5 * time.Second,
			BatchSize:          20,
			APITimeout:         30 * time.Second,
			PermalinkStructure: "/%postname%/",
			Timezone:           "UTC",
		},
		Thresholds: Thresholds{
			Deploy:  0.80,
			Content: 0.70,
			Design:  0.60,
			Overall: 0.75,
		},
		Jobs: JobsConfig{
			Timeout:       30 * time.Minute,
			ShutdownGrace: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:         false,
			Endpoint:        "localhost:4317",
			ServiceName:     "sitegen",
			ServiceVersion:  "0.1.0",
			Insecure:        true,
			SampleRate:      1.0,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch strings.ToLower(c.Generator.Provider) {
	case "mock":
	case "anthropic", "openai":
		if !c.Generator.APIKey.IsSet() && !c.Generator.FallbackToMock {
			return fmt.Errorf("generator.api_key required for provider %q", c.Generator.Provider)
		}
	default:
		return fmt.Errorf("unknown generator provider %q (want mock, anthropic or openai)", c.Generator.Provider)
	}
	if c.Generator.Temperature < 0 || c.Generator.Temperature > 1 {
		return fmt.Errorf("generator.temperature must be between 0 and 1, got %v", c.Generator.Temperature)
	}
	if c.Generator.TopP <= 0 || c.Generator.TopP > 1 {
		return fmt.Errorf("generator.top_p must be in (0, 1], got %v", c.Generator.TopP)
	}
	if c.Generator.RateLimit <= 0 {
		return errors.New("generator.rate_limit must be positive")
	}
	if c.Generator.MaxRetries < 0 {
		return errors.New("generator.max_retries cannot be negative")
	}

	if c.Tokens.Planning <= 0 || c.Tokens.Content <= 0 {
		return errors.New("token budgets must be positive")
	}

	if c.Deploy.RetryAttempts < 1 {
		return fmt.Errorf("deploy.retry_attempts must be >= 1, got %d", c.Deploy.RetryAttempts)
	}
	if c.Deploy.RetryDelay < 0 {
		return errors.New("deploy.retry_delay cannot be negative")
	}
	if c.Deploy.BatchSize < 1 {
		return fmt.Errorf("deploy.batch_size must be >= 1, got %d", c.Deploy.BatchSize)
	}
	if c.Deploy.APITimeout <= 0 {
		return errors.New("deploy.api_timeout must be positive")
	}

	for name, v := range map[string]float64{
		"deploy":  c.Thresholds.Deploy,
		"content": c.Thresholds.Content,
		"design":  c.Thresholds.Design,
		"overall": c.Thresholds.Overall,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("thresholds.%s must be between 0 and 1, got %v", name, v)
		}
	}

	if c.Jobs.Timeout < 0 {
		return errors.New("jobs.timeout cannot be negative")
	}
	if c.Jobs.ShutdownGrace <= 0 {
		return errors.New("jobs.shutdown_grace must be positive")
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}
