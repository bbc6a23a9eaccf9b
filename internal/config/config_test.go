package config

// Config Tests - YAML loading, env expansion, defaults, validation.

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 8097
upstream:
  base_url: http://localhost:8096
  api_key: secret
`

// TestConfig_LoadMinimal verifies the three required parameters are enough.
func TestConfig_LoadMinimal(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8097, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8096", cfg.Upstream.BaseURL)
	assert.Equal(t, "secret", cfg.Upstream.APIKey)

	// Defaults
	assert.Equal(t, time.Minute, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 4096, cfg.Cache.Capacity)
	assert.Equal(t, "info", cfg.Monitoring.LogLevel)
}

// TestConfig_EnvExpansion verifies ${VAR} and ${VAR:-default} syntax.
func TestConfig_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_STRMGW_KEY", "from-env")

	yaml := `
server:
  port: 8097
upstream:
  base_url: ${TEST_STRMGW_URL:-http://fallback:8096}
  api_key: ${TEST_STRMGW_KEY}
`
	cfg, err := LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "http://fallback:8096", cfg.Upstream.BaseURL)
	assert.Equal(t, "from-env", cfg.Upstream.APIKey)
}

// TestConfig_RequiredFields verifies missing required fields are rejected.
func TestConfig_RequiredFields(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing port", "upstream:\n  base_url: http://h:1\n  api_key: k\n"},
		{"missing base_url", "server:\n  port: 8097\nupstream:\n  api_key: k\n"},
		{"missing api_key", "server:\n  port: 8097\nupstream:\n  base_url: http://h:1\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

// TestConfig_InvalidValues verifies semantic validation.
func TestConfig_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"port out of range", "server:\n  port: 99999\nupstream:\n  base_url: http://h:1\n  api_key: k\n"},
		{"bad scheme", "server:\n  port: 8097\nupstream:\n  base_url: ftp://h:1\n  api_key: k\n"},
		{"unknown cache type", "server:\n  port: 8097\nupstream:\n  base_url: http://h:1\n  api_key: k\ncache:\n  type: redis\n"},
		{"sqlite without path", "server:\n  port: 8097\nupstream:\n  base_url: http://h:1\n  api_key: k\ncache:\n  type: sqlite\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

// TestConfig_UpstreamURL verifies the parsed URL helper.
func TestConfig_UpstreamURL(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(minimalYAML))
	require.NoError(t, err)

	u := cfg.UpstreamURL()
	require.NotNil(t, u)
	assert.Equal(t, "localhost:8096", u.Host)
}
