package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5, cfg.Clustering.MaxDepth)
	assert.Equal(t, 200, cfg.Clustering.MaxNodes)
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletiq.yaml")
	content := `
server:
  port: 9090
cache:
  backend: redis
  redis_addr: localhost:6379
  ttl:
    trending: 30s
chains: [ethereum]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Trending.Std())
	// Defaults survive for untouched fields.
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Eligibility.Std())
	assert.Equal(t, []string{"ethereum"}, cfg.Chains)
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string]func(*Config){
		"bad port":             func(c *Config) { c.Server.Port = -1 },
		"redis without addr":   func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisAddr = "" },
		"unknown backend":      func(c *Config) { c.Cache.Backend = "memcached" },
		"no chains":            func(c *Config) { c.Chains = nil },
		"postgres without dsn": func(c *Config) { c.Registry.Source = "postgres" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
