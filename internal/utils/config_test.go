package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg := LoadFrom(writeConfig(t, "server:\n  host: 0.0.0.0\n"))

	assert.Equal(t, ":3001", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, defaultAdminPassword, cfg.Admin.Password)
	assert.Equal(t, 30*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, time.Hour, cfg.Relay.RateInterval)
	assert.Equal(t, 8.27, cfg.PriceList.PaperWidth)
	assert.Equal(t, 20, cfg.PriceList.TimeoutSecs)
}

func TestLoadFromReadsYAML(t *testing.T) {
	chdir(t, t.TempDir())
	cfg := LoadFrom(writeConfig(t, `
server:
  port: ":8080"
storage:
  driver: bolt
  bolt_path: /tmp/site.db
relay:
  rate_limit: 5
  rate_interval: 10m
mail:
  smtp_host: smtp.example.com
  smtp_port: 465
pricelist:
  enabled: true
  cache_ttl: 2h
`))
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/site.db", cfg.Storage.BoltPath)
	assert.Equal(t, 5, cfg.Relay.RateLimit)
	assert.Equal(t, 10*time.Minute, cfg.Relay.RateInterval)
	assert.Equal(t, 465, cfg.Mail.SMTPPort)
	assert.True(t, cfg.PriceList.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.PriceList.CacheTTL)
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SMTP_HOST", "mail.arkana.test")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_TO", "studio@arkana.test")
	t.Setenv("ADMIN_PASSWORD", "otra")
	t.Setenv("PORT", "9000")

	cfg := LoadFrom(writeConfig(t, "mail:\n  smtp_host: ignored\n"))
	assert.Equal(t, "mail.arkana.test", cfg.Mail.SMTPHost)
	assert.Equal(t, 2525, cfg.Mail.SMTPPort)
	assert.Equal(t, "studio@arkana.test", cfg.Mail.To)
	assert.Equal(t, "otra", cfg.Admin.Password)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoadFromPanicsOnInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	assert.Panics(t, func() { LoadFrom(writeConfig(t, "storage:\n  driver: mongo\n")) })
	assert.Panics(t, func() { LoadFrom(writeConfig(t, "storage:\n  driver: redis\n")) })
	assert.Panics(t, func() { LoadFrom(writeConfig(t, "relay:\n  rate_limit: -1\n")) })
	assert.Panics(t, func() { LoadFrom(writeConfig(t, "server: [")) })
	assert.Panics(t, func() { LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestLoadConfigWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg := LoadConfig()
	assert.Equal(t, ":3001", cfg.Server.Port)
	assert.Equal(t, cfg, GetConfig())
}

func TestRelayEndpoint(t *testing.T) {
	var cfg Config
	cfg.Server.Port = ":3001"
	assert.Equal(t, "http://127.0.0.1:3001/api/send-email", cfg.RelayEndpoint())

	cfg.Server.Host = "10.0.0.5"
	assert.Equal(t, "http://10.0.0.5:3001/api/send-email", cfg.RelayEndpoint())

	cfg.Relay.Endpoint = "https://mail.arkana.test/api/send-email"
	assert.Equal(t, "https://mail.arkana.test/api/send-email", cfg.RelayEndpoint())
}
