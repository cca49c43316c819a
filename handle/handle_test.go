/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package handle_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/mock"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/handle"
	"github.com/suparena/storagekit/storagemodels"
)

type countingObserver struct {
	mu                              sync.Mutex
	hits, misses, attempts, retries int
}

func (o *countingObserver) CacheHit(string)          { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *countingObserver) CacheMiss(string)         { o.mu.Lock(); o.misses++; o.mu.Unlock() }
func (o *countingObserver) CreateAttempt(string)     { o.mu.Lock(); o.attempts++; o.mu.Unlock() }
func (o *countingObserver) BeingDeletedRetry(string) { o.mu.Lock(); o.retries++; o.mu.Unlock() }

func fastOptions(obs storagemodels.Observer) storagemodels.Options {
	return storagemodels.ApplyOptions(
		storagemodels.WithRetryPolicy(storagemodels.RetryPolicy{MaxAttempts: 10, Interval: time.Millisecond}),
		storagemodels.WithObserver(obs),
	)
}

func newTableCache(svc *mock.TableService, obs *countingObserver) *handle.Cache[datastore.Table] {
	opts := fastOptions(obs)
	return handle.NewCache(errors.KindTable, svc.Table, handle.NewCreator(opts), obs)
}

func TestCacheGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondLookupIsCached", func(t *testing.T) {
		svc := mock.NewTableService()
		obs := &countingObserver{}
		cache := newTableCache(svc, obs)

		first, ok, err := cache.GetOrCreate(ctx, "Orders", true)
		require.NoError(t, err)
		require.True(t, ok)

		second, ok, err := cache.GetOrCreate(ctx, "Orders", true)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Same(t, first, second)
		assert.Equal(t, 1, svc.CreateCalls("Orders"))
		assert.Equal(t, 1, svc.ExistsCalls("Orders"))
		assert.Equal(t, 1, obs.hits)
		assert.Equal(t, 1, obs.misses)
	})

	t.Run("AbsentWithoutCreate", func(t *testing.T) {
		svc := mock.NewTableService()
		cache := newTableCache(svc, &countingObserver{})

		tbl, ok, err := cache.GetOrCreate(ctx, "Orders", false)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, tbl)
		assert.Equal(t, 0, cache.Len())
		assert.Equal(t, 0, svc.CreateCalls("Orders"))
		assert.False(t, svc.Has("Orders"))
	})

	t.Run("ExistingWithoutCreate", func(t *testing.T) {
		svc := mock.NewTableService().Seed("Orders")
		cache := newTableCache(svc, &countingObserver{})

		_, ok, err := cache.GetOrCreate(ctx, "Orders", false)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"Orders"}, cache.Names())
	})

	t.Run("EmptyName", func(t *testing.T) {
		cache := newTableCache(mock.NewTableService(), &countingObserver{})
		_, _, err := cache.GetOrCreate(ctx, "", true)
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("NoResolver", func(t *testing.T) {
		cache := handle.NewCache[datastore.Table](errors.KindTable, nil, nil, nil)
		_, _, err := cache.GetOrCreate(ctx, "Orders", true)
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("ProbeFailure", func(t *testing.T) {
		svc := mock.NewTableService()
		svc.FailExists(fmt.Errorf("connection refused"))
		cache := newTableCache(svc, &countingObserver{})

		_, ok, err := cache.GetOrCreate(ctx, "Orders", true)
		assert.False(t, ok)
		assert.True(t, errors.IsUnavailable(err))
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("Remove", func(t *testing.T) {
		svc := mock.NewTableService()
		cache := newTableCache(svc, &countingObserver{})

		_, _, err := cache.GetOrCreate(ctx, "Orders", true)
		require.NoError(t, err)
		assert.True(t, cache.Remove("Orders"))
		assert.False(t, cache.Remove("Orders"))

		_, found := cache.Get("Orders")
		assert.False(t, found)
	})

	t.Run("Concurrent", func(t *testing.T) {
		svc := mock.NewTableService()
		cache := newTableCache(svc, &countingObserver{})

		const workers = 16
		results := make([]datastore.Table, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tbl, _, err := cache.GetOrCreate(ctx, "Orders", true)
				assert.NoError(t, err)
				results[i] = tbl
			}(i)
		}
		wg.Wait()

		for _, r := range results[1:] {
			assert.Same(t, results[0], r)
		}
		assert.Equal(t, 1, cache.Len())
	})
}

func TestCreatorRetriesWhileBeingDeleted(t *testing.T) {
	ctx := context.Background()

	for _, k := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d conflicts", k), func(t *testing.T) {
			svc := mock.NewQueueService()
			svc.BeingDeleted("jobs", k)
			obs := &countingObserver{}

			err := handle.NewCreator(fastOptions(obs)).Create(ctx, errors.KindQueue, svc.Queue("jobs"))
			require.NoError(t, err)
			assert.Equal(t, k+1, svc.CreateCalls("jobs"))
			assert.Equal(t, k+1, obs.attempts)
			assert.Equal(t, k, obs.retries)
			assert.True(t, svc.Has("jobs"))
		})
	}
}

func TestCreatorFailsFastOnOtherErrors(t *testing.T) {
	svc := mock.NewBlobService()
	svc.FailCreate("images", errors.NewRemoteFailureError("create", errors.KindContainer, "images", 403, "AuthorizationFailure", nil))
	obs := &countingObserver{}

	err := handle.NewCreator(fastOptions(obs)).Create(context.Background(), errors.KindContainer, svc.Container("images"))
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
	assert.True(t, errors.IsRemoteFailure(err))
	assert.Contains(t, err.Error(), "emulator")
	assert.Equal(t, 1, svc.CreateCalls("images"))
	assert.Equal(t, 0, obs.retries)
}

func TestCreatorBoundExhausted(t *testing.T) {
	svc := mock.NewTableService()
	svc.BeingDeleted("Orders", 100)
	opts := storagemodels.ApplyOptions(storagemodels.WithRetryPolicy(storagemodels.RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}))

	err := handle.NewCreator(opts).Create(context.Background(), errors.KindTable, svc.Table("Orders"))
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
	assert.True(t, errors.IsBeingDeleted(err))
	assert.Equal(t, 3, svc.CreateCalls("Orders"))
}

func TestCreatorHonoursCancellation(t *testing.T) {
	svc := mock.NewTableService()
	svc.BeingDeleted("Orders", 100)
	opts := storagemodels.ApplyOptions(storagemodels.WithRetryPolicy(storagemodels.RetryForever()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := handle.NewCreator(opts).Create(ctx, errors.KindTable, svc.Table("Orders"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.IsUnavailable(err))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, 1, svc.CreateCalls("Orders"))
}

func TestCreatorZeroIntervalWaits(t *testing.T) {
	policies := map[string]storagemodels.Options{
		"applied": storagemodels.ApplyOptions(storagemodels.WithRetryPolicy(storagemodels.RetryPolicy{})),
		"raw":     {Retry: storagemodels.RetryPolicy{Interval: -time.Second}},
	}

	for name, opts := range policies {
		t.Run(name, func(t *testing.T) {
			svc := mock.NewTableService()
			svc.BeingDeleted("Orders", 1<<30)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			err := handle.NewCreator(opts).Create(ctx, errors.KindTable, svc.Table("Orders"))
			require.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Equal(t, 1, svc.CreateCalls("Orders"))
		})
	}
}

func TestCreatorNilResource(t *testing.T) {
	err := handle.NewCreator(storagemodels.DefaultOptions()).Create(context.Background(), errors.KindTable, nil)
	assert.True(t, errors.IsInvalidArgument(err))
}
