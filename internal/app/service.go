// Package app wires the analytics components together: one service
// method per exposed operation, each wrapped by the TTL cache boundary
// under a deterministic composite key.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"walletiq/internal/cache"
	"walletiq/internal/clustering"
	"walletiq/internal/config"
	"walletiq/internal/domain"
	"walletiq/internal/eligibility"
	"walletiq/internal/health"
	"walletiq/internal/metrics"
	"walletiq/internal/normalize"
	"walletiq/internal/provider"
	"walletiq/internal/registry"
	"walletiq/internal/trending"
)

// keyVariant versions the cache key space; bump when a result shape
// changes so stale entries from older builds never deserialize.
const keyVariant = "v1"

// TrendingResult is the trending operation result including whether it
// was served from cache.
type TrendingResult struct {
	Entries     []domain.TrendingEntry `json:"trending"`
	Cached      bool                   `json:"cached"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Service exposes the four analytics operations.
type Service struct {
	source     provider.ChainData
	registry   registry.Source
	normalizer *normalize.Normalizer
	clusterer  *clustering.Engine
	composer   *health.Composer
	keyed      *cache.Keyed
	ttl        config.CacheTTLs
	lookback   time.Duration
	metrics    *metrics.Registry
	now        func() time.Time
}

// New assembles the service. The health weight vector is validated here;
// a bad vector fails construction rather than individual requests.
func New(
	source provider.ChainData,
	reg registry.Source,
	store cache.Store,
	weights health.Weights,
	cfg config.Config,
	m *metrics.Registry,
) (*Service, error) {
	composer, err := health.NewComposer(weights)
	if err != nil {
		return nil, fmt.Errorf("health composer: %w", err)
	}
	return &Service{
		source:     source,
		registry:   reg,
		normalizer: normalize.New(source, cfg.Chains, m),
		clusterer:  clustering.NewEngine(cfg.Clustering),
		composer:   composer,
		keyed:      cache.NewKeyed(store, m),
		ttl:        cfg.Cache.TTL,
		lookback:   cfg.Lookback.Std(),
		metrics:    m,
		now:        time.Now,
	}, nil
}

// Eligibility validates the address, then computes (or serves from
// cache) the full eligibility report.
func (s *Service) Eligibility(ctx context.Context, address string) (*domain.EligibilityReport, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	key := cache.Key("eligibility", addr, keyVariant)
	var report domain.EligibilityReport
	err = s.cached(ctx, key, s.ttl.Eligibility.Std(), &report, func(ctx context.Context) (interface{}, error) {
		profile, err := s.normalizer.Build(ctx, addr)
		if err != nil {
			return nil, err
		}
		projects, err := s.registry.Projects(ctx)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		return eligibility.Report(profile, projects, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Trending ranks the project registry for the given query.
func (s *Service) Trending(ctx context.Context, q trending.Query) (*TrendingResult, error) {
	key := cache.Key("trending", trendingParam(q), keyVariant)
	var result TrendingResult
	value, cached, err := s.keyed.Do(ctx, key, s.ttl.Trending.Std(), func(ctx context.Context) ([]byte, error) {
		projects, err := s.registry.Projects(ctx)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		return json.Marshal(TrendingResult{
			Entries:     trending.Rank(projects, q, s.now()),
			GeneratedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(value, &result); err != nil {
		return nil, fmt.Errorf("decode cached trending: %w", err)
	}
	result.Cached = cached
	return &result, nil
}

// Clustering builds the funding graph analysis for an address.
func (s *Service) Clustering(ctx context.Context, address string) (*domain.ClusteringReport, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	key := cache.Key("cluster", addr, keyVariant)
	var report domain.ClusteringReport
	err = s.cached(ctx, key, s.ttl.Clustering.Std(), &report, func(ctx context.Context) (interface{}, error) {
		edges, err := s.source.Transfers(ctx, addr, s.lookback)
		if err != nil {
			return nil, &domain.UpstreamUnavailable{Sources: []string{"transfers"}}
		}
		return s.clusterer.Analyze(addr, edges), nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Health composes the wallet health report for an address. Secondary
// inputs (gas, approvals, counterparties) degrade to zero values on
// source failure; only a failed profile build fails the request.
func (s *Service) Health(ctx context.Context, address string) (*domain.HealthReport, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	key := cache.Key("health", addr, keyVariant)
	var report domain.HealthReport
	err = s.cached(ctx, key, s.ttl.Health.Std(), &report, func(ctx context.Context) (interface{}, error) {
		profile, err := s.normalizer.Build(ctx, addr)
		if err != nil {
			return nil, err
		}

		in := health.Inputs{Profile: profile, Now: s.now()}
		if gas, err := s.source.GasStats(ctx, addr); err == nil {
			in.Gas = gas
		} else {
			s.degraded(addr, "gas", err)
		}
		if approvals, err := s.source.Approvals(ctx, addr); err == nil {
			in.Approvals = approvals
		} else {
			s.degraded(addr, "approvals", err)
		}
		if parties, err := s.source.Counterparties(ctx, addr); err == nil {
			in.Counterparties = len(parties)
		} else {
			s.degraded(addr, "counterparties", err)
		}
		return s.composer.Compose(in), nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// cached runs compute through the single-flight cache boundary with
// JSON as the storage codec.
func (s *Service) cached(ctx context.Context, key string, ttl time.Duration, out interface{}, compute func(context.Context) (interface{}, error)) error {
	value, _, err := s.keyed.Do(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(value, out); err != nil {
		return fmt.Errorf("decode cached value for %s: %w", key, err)
	}
	return nil
}

func (s *Service) degraded(addr, source string, err error) {
	if s.metrics != nil {
		s.metrics.UpstreamFailures.WithLabelValues(source).Inc()
	}
	log.Warn().Err(err).Str("address", addr).Str("source", source).Msg("health input source failed, using zero values")
}

// trendingParam flattens a trending query into its cache key segment.
func trendingParam(q trending.Query) string {
	statuses := make([]string, len(q.Statuses))
	for i, s := range q.Statuses {
		statuses[i] = string(s)
	}
	return fmt.Sprintf("%s|%s|%d", strings.Join(statuses, ","), q.Chain, q.Limit)
}
