package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
)

func TestGetCachesWithinTTL(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()

	var computes int32
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&computes, 1)
		return "value", nil
	}

	for i := 0; i < 5; i++ {
		got, err := c.Get(ctx, "key", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&computes))

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(4), stats.Hits)
}

func TestGetExpiredEntryRecomputes(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()

	var computes int32
	fn := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&computes, 1), nil
	}

	first, err := c.Get(ctx, "key", time.Millisecond, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(1), first)

	time.Sleep(5 * time.Millisecond)

	second, err := c.Get(ctx, "key", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), second)
}

func TestGetSingleFlight(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()

	var computes int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&computes, 1)
		close(started)
		<-release
		return "shared", nil
	}

	results := make(chan any, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		got, err := c.Get(ctx, "key", time.Minute, fn)
		assert.NoError(t, err)
		results <- got
	}()

	<-started

	// Everyone arriving while the computation is in flight waits for it
	// instead of recomputing.
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Get(ctx, "key", time.Minute, func(ctx context.Context) (any, error) {
				t.Error("duplicate computation")
				return nil, nil
			})
			assert.NoError(t, err)
			results <- got
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	count := 0
	for got := range results {
		assert.Equal(t, "shared", got)
		count++
	}
	assert.Equal(t, 10, count)
	assert.Equal(t, int32(1), atomic.LoadInt32(&computes))
}

func TestGetErrorNotCached(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()
	boom := errors.New("compute failed")

	var computes int32
	fn := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&computes, 1) == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := c.Get(ctx, "key", time.Minute, fn)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Stats().Size)

	got, err := c.Get(ctx, "key", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&computes))
}

func TestGetCanceledContextNotCached(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(ctx context.Context) (any, error) {
		cancel()
		return "partial", nil
	}

	_, err := c.Get(ctx, "key", time.Minute, fn)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "key", time.Minute, func(ctx context.Context) (any, error) {
		return 1, nil
	})
	require.NoError(t, err)

	assert.True(t, c.Invalidate("key"))
	assert.False(t, c.Invalidate("key"))
	assert.Equal(t, 0, c.Stats().Size)
}

func TestInvalidateByPrefix(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()

	keys := []string{
		"health:student:a",
		"health:student:b",
		"health:classroom:a",
		"other:student:a",
	}
	for _, key := range keys {
		_, err := c.Get(ctx, key, time.Minute, func(ctx context.Context) (any, error) {
			return key, nil
		})
		require.NoError(t, err)
	}

	removed := c.InvalidateByPrefix("health:student:")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, c.Stats().Size)

	assert.Equal(t, 0, c.InvalidateByPrefix("missing:"))
}

func TestClearPreservesCounters(t *testing.T) {
	t.Parallel()

	c := cache.New(nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Get(ctx, "key", time.Minute, func(ctx context.Context) (any, error) {
			return 1, nil
		})
		require.NoError(t, err)
	}

	removed := c.Clear()
	assert.Equal(t, 1, removed)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}
