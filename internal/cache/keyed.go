package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"walletiq/internal/metrics"
)

// Key builds the deterministic composite cache key
// {domain}:{address-or-param}:{variant}.
func Key(domain, param, variant string) string {
	return fmt.Sprintf("%s:%s:%s", domain, param, variant)
}

// Keyed wraps a Store with a single-flight compute path: concurrent
// callers of an identical key within its TTL trigger at most one
// computation and all receive its result. A store failure is logged and
// bypassed; it never fails the request.
type Keyed struct {
	store   Store
	group   singleflight.Group
	metrics *metrics.Registry
}

// NewKeyed creates the compute wrapper. metrics may be nil.
func NewKeyed(store Store, m *metrics.Registry) *Keyed {
	return &Keyed{store: store, metrics: m}
}

type flightResult struct {
	value []byte
	fresh bool
}

// Do returns the cached value for key, or computes, stores, and returns
// it. cached reports whether the value was served from the store. The
// computation runs on a context detached from the caller's cancellation,
// since concurrent waiters may still need its result after one caller
// aborts; compute is expected to carry its own upstream deadlines.
func (k *Keyed) Do(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) (value []byte, cached bool, err error) {
	v, err, shared := k.group.Do(key, func() (interface{}, error) {
		if value, ok := k.lookup(ctx, key); ok {
			return flightResult{value: value}, nil
		}

		value, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if err := k.store.Set(context.WithoutCancel(ctx), key, value, ttl); err != nil {
			k.storeError(key, "set", err)
		}
		return flightResult{value: value, fresh: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared && k.metrics != nil {
		k.metrics.SingleflightShare.Inc()
	}
	result := v.(flightResult)
	return result.value, !result.fresh, nil
}

func (k *Keyed) lookup(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := k.store.Get(ctx, key)
	if err != nil {
		k.storeError(key, "get", err)
		return nil, false
	}
	if k.metrics != nil {
		if ok {
			k.metrics.CacheHits.WithLabelValues(keyDomain(key)).Inc()
		} else {
			k.metrics.CacheMisses.WithLabelValues(keyDomain(key)).Inc()
		}
	}
	return value, ok
}

func (k *Keyed) storeError(key, op string, err error) {
	if k.metrics != nil {
		k.metrics.CacheErrors.Inc()
	}
	log.Warn().Err(err).Str("key", key).Str("op", op).Msg("cache store unreachable, bypassing")
}

func keyDomain(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
