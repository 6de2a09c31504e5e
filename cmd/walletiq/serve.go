package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"walletiq/internal/app"
	"walletiq/internal/cache"
	"walletiq/internal/config"
	"walletiq/internal/health"
	httpserver "walletiq/internal/interfaces/http"
	"walletiq/internal/interfaces/http/handlers"
	"walletiq/internal/metrics"
	"walletiq/internal/provider"
	"walletiq/internal/registry"
)

const shutdownGrace = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	offline, _ := cmd.Flags().GetBool("offline")
	levelStr, _ := cmd.Flags().GetString("log-level")

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	zerolog.SetGlobalLevel(level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	weights := health.DefaultWeights()
	if cfg.HealthWeights != "" {
		weights, err = health.LoadWeights(cfg.HealthWeights)
		if err != nil {
			return fmt.Errorf("health weights: %w", err)
		}
	}

	m := metrics.NewRegistry()
	checks := make(map[string]handlers.HealthChecker)

	var source provider.ChainData
	if offline {
		log.Warn().Msg("offline mode: serving canned provider data")
		source = provider.NewFake()
	} else {
		if cfg.Provider.BaseURL == "" {
			return fmt.Errorf("provider base_url is required (or run with --offline)")
		}
		client := provider.NewClient(cfg.Provider.Client())
		checks["provider"] = func(ctx context.Context) string {
			if state := client.BreakerState(); state != "closed" {
				return state
			}
			return "ok"
		}
		source = client
	}

	store, err := buildStore(cfg.Cache, checks)
	if err != nil {
		return err
	}

	reg, err := buildRegistry(cfg.Registry)
	if err != nil {
		return err
	}

	svc, err := app.New(source, reg, store, weights, cfg, m)
	if err != nil {
		return err
	}

	h := handlers.NewHandlers(svc, m, checks)
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}, h, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info().
		Str("version", version).
		Strs("chains", cfg.Chains).
		Str("cache", cfg.Cache.Backend).
		Str("registry", cfg.Registry.Source).
		Msg("walletiq serving")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStore selects the cache backend. A redis backend that fails its
// startup ping still starts; the cache boundary bypasses on errors.
func buildStore(cfg config.CacheConfig, checks map[string]handlers.HealthChecker) (cache.Store, error) {
	switch cfg.Backend {
	case "redis":
		store := cache.NewRedis(cfg.RedisAddr)
		checks["cache"] = func(ctx context.Context) string {
			if err := store.Ping(ctx); err != nil {
				return "unreachable"
			}
			return "ok"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup, cache will be bypassed until it recovers")
		}
		return store, nil
	case "memory":
		return cache.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func buildRegistry(cfg config.RegistryConfig) (registry.Source, error) {
	switch cfg.Source {
	case "postgres":
		reg, err := registry.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open registry database: %w", err)
		}
		return reg, nil
	case "file":
		reg, err := registry.NewFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("load registry file: %w", err)
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unknown registry source %q", cfg.Source)
	}
}
