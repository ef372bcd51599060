package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("DEVELOPER_ID", "dev")
	t.Setenv("KEY_ID", "kid")
	t.Setenv("SIGNING_SECRET", "c2VjcmV0")

	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, ":3001", c.Server.Addr)
	assert.Equal(t, []string{"*"}, c.Server.CORSAllowedOrigins)
	assert.Equal(t, ".env", c.Credential.EnvFile)
	assert.Equal(t, "DOORDASH_API_KEY", c.Credential.Key)
	assert.True(t, c.Credential.Watch)
	assert.Equal(t, 5*time.Minute, c.RefreshInterval())
	assert.Equal(t, "https://openapi.doordash.com", c.DoorDash.BaseURL)
	assert.Equal(t, "dev", c.Identity().DeveloperID)
	assert.Equal(t, 60, c.RateMax())
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
doordash:
  developer_id: yaml-dev
  key_id: yaml-kid
  signing_secret: c2VjcmV0
credential:
  env_file: /etc/relay/.env
  refresh_interval: 2m
rate:
  enabled: true
  max_requests: 5
`), 0o600))
	t.Setenv("KEY_ID", "env-kid")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "yaml-dev", c.DoorDash.DeveloperID)
	assert.Equal(t, "env-kid", c.DoorDash.KeyID)
	assert.Equal(t, "/etc/relay/.env", c.Credential.EnvFile)
	assert.Equal(t, 2*time.Minute, c.RefreshInterval())
	assert.True(t, c.Rate.Enabled)
	assert.Equal(t, 5, c.RateMax())
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
}

func TestValidate_MissingIdentityIsFatal(t *testing.T) {
	t.Setenv("DEVELOPER_ID", "")
	t.Setenv("KEY_ID", "")
	t.Setenv("SIGNING_SECRET", "")

	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEVELOPER_ID is required")
	assert.Contains(t, err.Error(), "SIGNING_SECRET is required")
}

func TestValidate_BadDuration(t *testing.T) {
	t.Setenv("DEVELOPER_ID", "dev")
	t.Setenv("KEY_ID", "kid")
	t.Setenv("SIGNING_SECRET", "c2VjcmV0")
	t.Setenv("CREDENTIAL_REFRESH_INTERVAL", "soon")

	c, err := Load("")
	require.NoError(t, err)
	require.ErrorContains(t, c.Validate(), "credential.refresh_interval")
}

func TestValidate_ExplicitZeroMaxRequests(t *testing.T) {
	t.Setenv("DEVELOPER_ID", "dev")
	t.Setenv("KEY_ID", "kid")
	t.Setenv("SIGNING_SECRET", "c2VjcmV0")
	t.Setenv("RATE_MAX_REQUESTS", "0")

	t.Run("rate enabled rejects zero", func(t *testing.T) {
		t.Setenv("RATE_ENABLED", "true")
		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 0, c.RateMax(), "explicit zero must not fall back to the default")
		require.ErrorContains(t, c.Validate(), "rate.max_requests must be > 0")
	})

	t.Run("rate disabled ignores it", func(t *testing.T) {
		t.Setenv("RATE_ENABLED", "false")
		c, err := Load("")
		require.NoError(t, err)
		require.NoError(t, c.Validate())
	})

	t.Run("yaml zero is honoured too", func(t *testing.T) {
		t.Setenv("RATE_MAX_REQUESTS", "")
		t.Setenv("RATE_ENABLED", "")
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rate:\n  enabled: true\n  max_requests: 0\n"), 0o600))
		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0, c.RateMax())
		require.Error(t, c.Validate())
	})
}
