package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INR", cfg.Gateway.Currency)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Fulfillment.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.Renewal.Interval)
	assert.Equal(t, 30*24*time.Hour, cfg.Renewal.Window)
	assert.Equal(t, "payable_order.completed", cfg.Kafka.Topic)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crea.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
gateway:
  key_id: rzp_file
  timeout: 3s
renewal:
  interval: 0s
`), 0o600))

	t.Setenv("GATEWAY_KEY_ID", "rzp_env")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "rzp_env", cfg.Gateway.KeyID)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Zero(t, cfg.Renewal.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateForServe(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.ValidateForServe(), "GATEWAY_KEY_ID")

	cfg.Gateway = GatewayConfig{KeyID: "rzp_test", KeySecret: "secret"}
	assert.ErrorContains(t, cfg.ValidateForServe(), "ADMIN_JWT_SECRET")

	cfg.Admin.JWTSecret = "jwt"
	assert.NoError(t, cfg.ValidateForServe())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "crea", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/crea?sslmode=disable", d.DSN())
}
