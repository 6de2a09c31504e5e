package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyed_SingleFlight(t *testing.T) {
	var computes atomic.Int64
	keyed := NewKeyed(NewMemory(), nil)

	compute := func(ctx context.Context) ([]byte, error) {
		computes.Add(1)
		time.Sleep(50 * time.Millisecond) // hold the flight open
		return []byte("result"), nil
	}

	const callers = 20
	results := make([][]byte, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, _, err := keyed.Do(context.Background(), "eligibility:0xabc:v1", time.Minute, compute)
			require.NoError(t, err)
			results[i] = value
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, computes.Load(), "identical concurrent keys must compute once")
	for _, r := range results {
		assert.Equal(t, []byte("result"), r)
	}
}

func TestKeyed_ServesFromStoreWithinTTL(t *testing.T) {
	var computes atomic.Int64
	keyed := NewKeyed(NewMemory(), nil)
	compute := func(ctx context.Context) ([]byte, error) {
		computes.Add(1)
		return []byte(fmt.Sprintf("v%d", computes.Load())), nil
	}

	value, cached, err := keyed.Do(context.Background(), "trending:all:v1", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []byte("v1"), value)

	value, cached, err = keyed.Do(context.Background(), "trending:all:v1", time.Minute, compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, []byte("v1"), value)
	assert.EqualValues(t, 1, computes.Load())
}

func TestMemory_LazyTTLExpiry(t *testing.T) {
	store := NewMemory()
	current := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), time.Minute))

	_, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok, err = store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok, "expiry is checked lazily on read")
}

// brokenStore simulates an unreachable cache backend.
type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("connection refused")
}

func TestKeyed_BypassesBrokenStore(t *testing.T) {
	var computes atomic.Int64
	keyed := NewKeyed(brokenStore{}, nil)
	compute := func(ctx context.Context) ([]byte, error) {
		computes.Add(1)
		return []byte("fresh"), nil
	}

	value, cached, err := keyed.Do(context.Background(), "health:0xabc:v1", time.Minute, compute)
	require.NoError(t, err, "cache store failure must never fail the request")
	assert.False(t, cached)
	assert.Equal(t, []byte("fresh"), value)
	assert.EqualValues(t, 1, computes.Load())
}

func TestKeyed_CallerAbortDoesNotCancelFlight(t *testing.T) {
	keyed := NewKeyed(NewMemory(), nil)
	started := make(chan struct{})
	compute := func(ctx context.Context) ([]byte, error) {
		close(started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
			return []byte("done"), nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := keyed.Do(ctx, "cluster:0xabc:v1", time.Minute, compute)
		errCh <- err
	}()
	<-started
	cancel()

	// The computation ran on a detached context, so it completes despite
	// the cancel and its result lands in the store for later callers.
	require.NoError(t, <-errCh)

	value, cached, err := keyed.Do(context.Background(), "cluster:0xabc:v1", time.Minute, func(ctx context.Context) ([]byte, error) {
		return []byte("recomputed"), nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, []byte("done"), value)
}

func TestKey_CompositeFormat(t *testing.T) {
	assert.Equal(t, "eligibility:0xabc:v1", Key("eligibility", "0xabc", "v1"))
	assert.Equal(t, "trending:confirmed|ethereum|5:v1", Key("trending", "confirmed|ethereum|5", "v1"))
}
