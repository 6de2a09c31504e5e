// Package config loads the engine configuration from a YAML file with
// explicit validation at startup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"walletiq/internal/clustering"
	"walletiq/internal/provider"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// CacheConfig selects the cache backend and per-domain TTLs.
type CacheConfig struct {
	Backend   string    `yaml:"backend"` // memory | redis
	RedisAddr string    `yaml:"redis_addr"`
	TTL       CacheTTLs `yaml:"ttl"`
}

// CacheTTLs are the memoization windows per operation.
type CacheTTLs struct {
	Eligibility Duration `yaml:"eligibility"`
	Trending    Duration `yaml:"trending"`
	Clustering  Duration `yaml:"clustering"`
	Health      Duration `yaml:"health"`
}

// ProviderConfig holds chain-data client settings.
type ProviderConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	CallTimeout Duration `yaml:"call_timeout"`
	Retries     uint     `yaml:"retries"`
	RPS         float64  `yaml:"rps"`
	Burst       int      `yaml:"burst"`
}

// Client converts to the provider package's client configuration.
func (p ProviderConfig) Client() provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL:     p.BaseURL,
		APIKey:      p.APIKey,
		CallTimeout: p.CallTimeout.Std(),
		Retries:     p.Retries,
		RPS:         p.RPS,
		Burst:       p.Burst,
	}
}

// RegistryConfig selects the project registry source.
type RegistryConfig struct {
	Source      string `yaml:"source"` // file | postgres
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Config is the root configuration document.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Cache      CacheConfig       `yaml:"cache"`
	Provider   ProviderConfig    `yaml:"provider"`
	Chains     []string          `yaml:"chains"`
	Clustering clustering.Config `yaml:"clustering"`
	Lookback   Duration          `yaml:"lookback"`
	Registry   RegistryConfig    `yaml:"registry"`
	// HealthWeights points at the health metric weight vector file;
	// empty falls back to the built-in defaults.
	HealthWeights string `yaml:"health_weights"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	def := provider.DefaultClientConfig()
	return Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
			IdleTimeout:  Duration(60 * time.Second),
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL: CacheTTLs{
				Eligibility: Duration(5 * time.Minute),
				Trending:    Duration(2 * time.Minute),
				Clustering:  Duration(15 * time.Minute),
				Health:      Duration(10 * time.Minute),
			},
		},
		Provider: ProviderConfig{
			CallTimeout: Duration(def.CallTimeout),
			Retries:     def.Retries,
			RPS:         def.RPS,
			Burst:       def.Burst,
		},
		Chains:     []string{"ethereum", "arbitrum", "base", "optimism"},
		Clustering: clustering.DefaultConfig(),
		Lookback:   Duration(90 * 24 * time.Hour),
		Registry: RegistryConfig{
			Source: "file",
			Path:   "config/projects.yaml",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend redis requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Registry.Source {
	case "file":
		if c.Registry.Path == "" {
			return fmt.Errorf("registry source file requires path")
		}
	case "postgres":
		if c.Registry.PostgresDSN == "" {
			return fmt.Errorf("registry source postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown registry source %q", c.Registry.Source)
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("at least one chain is required")
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive")
	}
	return nil
}
