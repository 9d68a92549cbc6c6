package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fourgears/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fourgears.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
shutdown_timeout: 15s
database:
  driver: postgres
  dsn: postgres://localhost/fourgears
log:
  level: debug
  format: text
github:
  owner: 4gears
  timeout: 3s
pricing:
  hourly_rate: 70
`)
	t.Setenv("FOURGEARS_ADDR", ":7070")
	t.Setenv("FOURGEARS_SECRET_KEY", "s3cret")
	t.Setenv("FOURGEARS_GITHUB_TIMEOUT", "4s")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, "4gears", cfg.GitHub.Owner)
	assert.Equal(t, 4*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)

	pricing := cfg.Pricing.Pricing()
	assert.True(t, pricing.HourlyRate.Equal(decimal.NewFromInt(70)))
	assert.True(t, pricing.MarketBaseFee.Equal(decimal.NewFromInt(3500)))
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  dsn: ""
pricing:
  base_fee: -1
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "database.dsn")
	assert.Contains(t, err.Error(), "pricing.base_fee")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "addr: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := config.LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
