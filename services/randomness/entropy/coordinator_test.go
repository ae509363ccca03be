// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package entropy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCoordinator returns a coordinator sized small enough to keep
// generation builds fast.
func testCoordinator(clock Clock) *Coordinator {
	return NewCoordinator(CoordinatorConfig{
		CacheSize:          1000,
		SampleSize:         50,
		RefreshInterval:    time.Hour, // scheduler effectively off
		StalenessThreshold: 10 * time.Minute,
		Clock:              clock,
	})
}

// ============================================================================
// Configuration Tests
// ============================================================================

func TestNewCoordinator_AppliesDefaults(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	assert.Equal(t, DefaultCacheSize, c.cfg.CacheSize)
	assert.Equal(t, DefaultSampleSize, c.cfg.SampleSize)
	assert.Equal(t, 5*time.Minute, c.cfg.RefreshInterval)
	assert.Equal(t, 10*time.Minute, c.cfg.StalenessThreshold)
	assert.NotNil(t, c.clock)
}

func TestNewCoordinator_PreservesCustomValues(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{
		CacheSize:          500,
		SampleSize:         25,
		RefreshInterval:    time.Minute,
		StalenessThreshold: 2 * time.Minute,
	})

	assert.Equal(t, 500, c.cfg.CacheSize)
	assert.Equal(t, 25, c.cfg.SampleSize)
	assert.Equal(t, time.Minute, c.cfg.RefreshInterval)
	assert.Equal(t, 2*time.Minute, c.cfg.StalenessThreshold)
}

// ============================================================================
// Count Validation Tests
// ============================================================================

func TestMaxCount_PerCache(t *testing.T) {
	assert.Equal(t, 1000, MaxCount(CacheStochasticJitter))
	assert.Equal(t, 100, MaxCount(CacheClusteringWeights))
	assert.Equal(t, 1000, MaxCount(CacheTemporalVariance))
	assert.Equal(t, 1000, MaxCount(CacheContentSeeds))
	assert.Equal(t, 1000, MaxCount(CacheSimilarityThresholds))
	assert.Equal(t, 1000, MaxCount(CacheExplorationPaths))
}

func TestCoordinator_Read_CountZero(t *testing.T) {
	c := testCoordinator(nil)

	_, err := c.Read(context.Background(), CacheStochasticJitter, 0)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCoordinator_Read_CountOverScalarBound(t *testing.T) {
	c := testCoordinator(nil)

	_, err := c.Read(context.Background(), CacheStochasticJitter, 1001)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCoordinator_Read_CountOverWeightsBound(t *testing.T) {
	c := testCoordinator(nil)

	_, err := c.Read(context.Background(), CacheClusteringWeights, 101)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCoordinator_Read_UnknownCache(t *testing.T) {
	c := testCoordinator(nil)

	_, err := c.Read(context.Background(), CacheName("bogus"), 10)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCoordinator_Read_BoundRejectedWithoutBuild(t *testing.T) {
	c := testCoordinator(nil)

	_, err := c.Read(context.Background(), CacheStochasticJitter, 5000)

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, c.Current(), "validation must run before any generation work")
}

// ============================================================================
// Read Tests
// ============================================================================

func TestCoordinator_Read_FirstReadBuildsSynchronously(t *testing.T) {
	c := testCoordinator(nil)
	require.Nil(t, c.Current())

	values, err := c.Read(context.Background(), CacheStochasticJitter, 10)

	require.NoError(t, err)
	require.NotNil(t, c.Current())
	jitter, ok := values.([]float64)
	require.True(t, ok)
	assert.Len(t, jitter, 10)
}

func TestCoordinator_Read_Idempotent(t *testing.T) {
	c := testCoordinator(nil)

	first, err := c.Read(context.Background(), CacheTemporalVariance, 20)
	require.NoError(t, err)
	second, err := c.Read(context.Background(), CacheTemporalVariance, 20)
	require.NoError(t, err)

	assert.Equal(t, first, second,
		"reads between refreshes must serve the same generation")
}

func TestCoordinator_Read_AllCacheTypes(t *testing.T) {
	c := testCoordinator(nil)
	ctx := context.Background()

	jitter, err := c.Read(ctx, CacheStochasticJitter, 5)
	require.NoError(t, err)
	assert.Len(t, jitter.([]float64), 5)

	weights, err := c.Read(ctx, CacheClusteringWeights, 3)
	require.NoError(t, err)
	vecs := weights.([][]float64)
	require.Len(t, vecs, 3)
	for _, vec := range vecs {
		assert.Len(t, vec, 5)
	}

	seeds, err := c.Read(ctx, CacheContentSeeds, 4)
	require.NoError(t, err)
	assert.Len(t, seeds.([]int64), 4)

	paths, err := c.Read(ctx, CacheExplorationPaths, 50)
	require.NoError(t, err)
	assert.Len(t, paths.([]float64), 50)

	thresholds, err := c.Read(ctx, CacheSimilarityThresholds, 10)
	require.NoError(t, err)
	for _, v := range thresholds.([]float64) {
		assert.GreaterOrEqual(t, v, 0.1)
		assert.LessOrEqual(t, v, 0.8)
	}
}

func TestCoordinator_Read_Concurrent(t *testing.T) {
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, err := c.Read(context.Background(), CacheStochasticJitter, 100)
			assert.NoError(t, err)
			assert.Len(t, values.([]float64), 100)
		}()
	}
	wg.Wait()
}

// ============================================================================
// Refresh Tests
// ============================================================================

func TestCoordinator_Refresh_PublishesGeneration(t *testing.T) {
	c := testCoordinator(nil)

	require.NoError(t, c.Refresh(context.Background()))

	gen := c.Current()
	require.NotNil(t, gen)
	assert.Equal(t, uint64(1), gen.RefreshCount)
	assert.NotZero(t, gen.ID)
}

func TestCoordinator_Refresh_ReplacesGeneration(t *testing.T) {
	c := testCoordinator(nil)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	first := c.Current()

	require.NoError(t, c.Refresh(ctx))
	second := c.Current()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.RefreshCount, first.RefreshCount)
	assert.NotEqual(t, first.Caches.StochasticJitter, second.Caches.StochasticJitter)
}

func TestCoordinator_Refresh_ReaderIsolation(t *testing.T) {
	c := testCoordinator(nil)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	held := c.Current()
	saved := append([]float64(nil), held.Caches.StochasticJitter...)

	require.NoError(t, c.Refresh(ctx))

	assert.Equal(t, saved, held.Caches.StochasticJitter,
		"a handed-out generation must not change under the reader")
}

func TestCoordinator_TriggerRefresh_Completes(t *testing.T) {
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))
	before := c.Current().RefreshCount

	c.TriggerRefresh()

	assert.Eventually(t, func() bool {
		return c.Current().RefreshCount > before
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCoordinator_TriggerRefresh_CoalescesButNeverDrops(t *testing.T) {
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))
	before := c.Current().RefreshCount

	for i := 0; i < 25; i++ {
		c.TriggerRefresh()
	}

	// At least one build lands; a burst never produces 25 of them.
	assert.Eventually(t, func() bool {
		return c.Current().RefreshCount > before
	}, 5*time.Second, 10*time.Millisecond)
	final := c.Current().RefreshCount
	assert.LessOrEqual(t, final, before+25)
}

// ============================================================================
// Mixed Tests
// ============================================================================

func TestCoordinator_Mixed_Bounds(t *testing.T) {
	c := testCoordinator(nil)
	ctx := context.Background()

	_, err := c.Mixed(ctx, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Mixed(ctx, MaxMixedCount+1, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCoordinator_Mixed_DefaultsToAllSources(t *testing.T) {
	c := testCoordinator(nil)

	result, err := c.Mixed(context.Background(), 100, nil)

	require.NoError(t, err)
	assert.Len(t, result.Values, 100)
	assert.Equal(t, AllSources, result.SourcesUsed)
	assert.Len(t, result.Quality, 7)
	assert.False(t, result.GeneratedAt.IsZero())
	assert.NotZero(t, result.RefreshCount)
}

func TestCoordinator_Mixed_SubsetSources(t *testing.T) {
	c := testCoordinator(nil)
	subset := []Source{SourceCryptoSecure, SourceSystemTime}

	result, err := c.Mixed(context.Background(), 10, subset)

	require.NoError(t, err)
	assert.Equal(t, subset, result.SourcesUsed)
}

func TestCoordinator_Mixed_MaxCount(t *testing.T) {
	c := testCoordinator(nil)

	result, err := c.Mixed(context.Background(), MaxMixedCount, nil)

	require.NoError(t, err)
	assert.Len(t, result.Values, MaxMixedCount)
}

// ============================================================================
// Introspection Tests
// ============================================================================

func TestCoordinator_CacheStatistics(t *testing.T) {
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))

	stats := c.CacheStatistics()

	require.Len(t, stats, len(AllCaches))
	assert.Equal(t, 200, stats[CacheStochasticJitter].Count)
	assert.Equal(t, 199, stats[CacheClusteringWeights].Count)
	assert.Equal(t, uint64(1), stats[CacheExplorationPaths].RefreshCount)
	assert.GreaterOrEqual(t, stats[CacheStochasticJitter].AgeSeconds, 0.0)
}

func TestCoordinator_PoolInfo_EmptyState(t *testing.T) {
	c := testCoordinator(nil)

	lastRefresh, refreshCount := c.PoolInfo()

	assert.True(t, lastRefresh.IsZero())
	assert.Zero(t, refreshCount)
}

func TestCoordinator_QualityReport(t *testing.T) {
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))

	report := c.QualityReport()

	require.Len(t, report, 7)
	for src, score := range report {
		assert.GreaterOrEqual(t, score, 0.0, "source %s", src)
		assert.LessOrEqual(t, score, 1.0, "source %s", src)
	}
}

// ============================================================================
// Health Tests
// ============================================================================

func TestCoordinator_HealthCheck_EmptyState(t *testing.T) {
	c := testCoordinator(nil)

	h := c.HealthCheck()

	assert.Equal(t, "degraded", h.Status)
	assert.False(t, h.CachePopulated)
	assert.False(t, h.EntropyFresh)
}

func TestCoordinator_HealthCheck_Healthy(t *testing.T) {
	clock := newFakeClock(time.Unix(1700000000, 0))
	c := testCoordinator(clock)
	require.NoError(t, c.Refresh(context.Background()))

	h := c.HealthCheck()

	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.CachePopulated)
	assert.True(t, h.EntropyFresh)
}

func TestCoordinator_HealthCheck_StalePool(t *testing.T) {
	clock := newFakeClock(time.Unix(1700000000, 0))
	c := testCoordinator(clock)
	require.NoError(t, c.Refresh(context.Background()))

	clock.Advance(11 * time.Minute)

	h := c.HealthCheck()
	assert.Equal(t, "degraded", h.Status)
	assert.True(t, h.CachePopulated)
	assert.False(t, h.EntropyFresh)
}

// ============================================================================
// Scheduler Tests
// ============================================================================

func TestCoordinator_Start_Twice(t *testing.T) {
	c := testCoordinator(nil)

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.Error(t, c.Start(context.Background()))
}

func TestCoordinator_StopWithoutStart(t *testing.T) {
	c := testCoordinator(nil)

	assert.NoError(t, c.Stop())
}

func TestCoordinator_Restart(t *testing.T) {
	c := testCoordinator(nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Stop())
	require.NoError(t, c.Start(ctx))
	assert.NoError(t, c.Stop())
}

func TestCoordinator_ScheduledRefresh(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{
		CacheSize:       1000,
		SampleSize:      50,
		RefreshInterval: 20 * time.Millisecond,
	})
	require.NoError(t, c.Refresh(context.Background()))
	before := c.Current().RefreshCount

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.Eventually(t, func() bool {
		return c.Current().RefreshCount > before
	}, 5*time.Second, 10*time.Millisecond)
}

// ============================================================================
// Generation Tests
// ============================================================================

func TestGeneration_Values_UnknownCache(t *testing.T) {
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))

	_, err := c.Current().Values(CacheName("bogus"), 10)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGeneration_Values_ClampsToCacheLength(t *testing.T) {
	// CacheSize 1000 yields 200-entry scalar caches; a request for
	// more than the cache holds returns what exists.
	c := testCoordinator(nil)
	require.NoError(t, c.Refresh(context.Background()))

	values, err := c.Current().Values(CacheStochasticJitter, 500)

	require.NoError(t, err)
	assert.Len(t, values.([]float64), 200)
}
