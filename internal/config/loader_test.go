package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir and returns the sitegen config dir inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "sitegen")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3002", "http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "mock", cfg.Generator.Provider)
	assert.InDelta(t, 0.10, cfg.Generator.Temperature, 1e-9)
	assert.InDelta(t, 0.8, cfg.Generator.TopP, 1e-9)
	assert.Equal(t, 600, cfg.Tokens.Planning)
	assert.Equal(t, 2000, cfg.Tokens.Content)
	assert.Equal(t, 2, cfg.Deploy.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.Deploy.RetryDelay)
	assert.Equal(t, 20, cfg.Deploy.BatchSize)
	assert.Equal(t, "/%postname%/", cfg.Deploy.PermalinkStructure)
	assert.Equal(t, "UTC", cfg.Deploy.Timezone)
	assert.InDelta(t, 0.75, cfg.Thresholds.Overall, 1e-9)
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	setupTestHome(t)
	t.Setenv("SITEGEN_SERVER_HTTP_PORT", "9191")
	t.Setenv("SITEGEN_DEPLOY_RETRY_DELAY", "250ms")
	t.Setenv("SITEGEN_DEPLOY_BATCH_SIZE", "7")
	t.Setenv("SITEGEN_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SITEGEN_AUTH_JWT_SECRET", "s3cr3t")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Deploy.RetryDelay)
	assert.Equal(t, 7, cfg.Deploy.BatchSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret.Value())
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	dir := setupTestHome(t)
	path := filepath.Join(dir, "config.yaml")

	yamlContent := `server:
  http_port: 9090
  http_host: 127.0.0.1
generator:
  provider: anthropic
  api_key: sk-ant-test
  model: claude-test
deploy:
  retry_attempts: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "anthropic", cfg.Generator.Provider)
	assert.Equal(t, "sk-ant-test", cfg.Generator.APIKey.Value())
	assert.Equal(t, 3, cfg.Deploy.RetryAttempts)
	// untouched sections keep defaults
	assert.Equal(t, 20, cfg.Deploy.BatchSize)
}

func TestLoadWithFile_EnvBeatsFile(t *testing.T) {
	dir := setupTestHome(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9090\n"), 0600))
	t.Setenv("SITEGEN_SERVER_HTTP_PORT", "7070")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	dir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadWithFile_Rejections(t *testing.T) {
	t.Run("path outside allowed dirs", func(t *testing.T) {
		setupTestHome(t)
		_, err := LoadWithFile(filepath.Join(t.TempDir(), "config.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config path validation failed")
	})

	t.Run("world readable file", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission model differs on windows")
		}
		dir := setupTestHome(t)
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9090\n"), 0644))
		require.NoError(t, os.Chmod(path, 0644))

		_, err := LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insecure config file permissions")
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		dir := setupTestHome(t)
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("generator:\n  provider: llama\n"), 0600))

		_, err := LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown generator provider")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "zero batch size", mutate: func(c *Config) { c.Deploy.BatchSize = 0 }, wantErr: "deploy.batch_size"},
		{name: "zero retry attempts", mutate: func(c *Config) { c.Deploy.RetryAttempts = 0 }, wantErr: "deploy.retry_attempts"},
		{name: "temperature out of range", mutate: func(c *Config) { c.Generator.Temperature = 1.5 }, wantErr: "generator.temperature"},
		{name: "threshold out of range", mutate: func(c *Config) { c.Thresholds.Design = 2 }, wantErr: "thresholds.design"},
		{
			name: "real provider without key or fallback",
			mutate: func(c *Config) {
				c.Generator.Provider = "openai"
				c.Generator.FallbackToMock = false
			},
			wantErr: "generator.api_key required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
