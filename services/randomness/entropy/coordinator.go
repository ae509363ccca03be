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
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("silverlining.randomness.entropy")

// =============================================================================
// Generation
// =============================================================================

// Generation is the atomic unit of consistency: all six derived caches
// built from one Pool snapshot, plus the metadata they were built from.
//
// # Description
//
// Exactly one generation is current at any time. A generation is
// immutable once published; building a new one never touches a
// published one, and readers only ever see the generation that existed
// before a refresh or the one after.
type Generation struct {
	// ID uniquely identifies this generation.
	ID uuid.UUID

	// BuiltAt is when the generation was assembled.
	BuiltAt time.Time

	// RefreshCount is the pool counter this generation was built from.
	// Strictly increasing across published generations.
	RefreshCount uint64

	// PoolLastRefresh is the collection time of the source snapshot.
	PoolLastRefresh time.Time

	// Caches holds the six derived value sequences.
	Caches DerivedCaches

	// Quality is the per-source quality snapshot taken at build time.
	Quality map[Source]float64
}

// Values returns the first count entries of the named cache. The
// result is []float64, [][]float64, or []int64 depending on the cache.
// count is clamped to the cache length only when the cache itself is
// smaller than its documented maximum (undersized configurations);
// bound validation happens before this in Coordinator.Read.
func (g *Generation) Values(name CacheName, count int) (any, error) {
	switch name {
	case CacheStochasticJitter:
		return firstN(g.Caches.StochasticJitter, count), nil
	case CacheClusteringWeights:
		return firstN(g.Caches.ClusteringWeights, count), nil
	case CacheTemporalVariance:
		return firstN(g.Caches.TemporalVariance, count), nil
	case CacheContentSeeds:
		return firstN(g.Caches.ContentSeeds, count), nil
	case CacheSimilarityThresholds:
		return firstN(g.Caches.SimilarityThresholds, count), nil
	case CacheExplorationPaths:
		return firstN(g.Caches.ExplorationPaths, count), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache %q", ErrInvalidArgument, name)
	}
}

func firstN[T any](values []T, count int) []T {
	if count > len(values) {
		count = len(values)
	}
	return values[:count:count]
}

// =============================================================================
// Count Bounds
// =============================================================================

// MaxMixedCount bounds count for on-demand mixed streams.
const MaxMixedCount = 5000

// cacheMaxCount bounds count per derived cache. Requests outside
// [1, max] are rejected before any generation work, never clamped.
var cacheMaxCount = map[CacheName]int{
	CacheStochasticJitter:     1000,
	CacheClusteringWeights:    100,
	CacheTemporalVariance:     1000,
	CacheContentSeeds:         1000,
	CacheSimilarityThresholds: 1000,
	CacheExplorationPaths:     1000,
}

// MaxCount returns the documented count upper bound for a cache, or 0
// for an unknown name.
func MaxCount(name CacheName) int {
	return cacheMaxCount[name]
}

func validateCount(name CacheName, count int) error {
	max, ok := cacheMaxCount[name]
	if !ok {
		return fmt.Errorf("%w: unknown cache %q", ErrInvalidArgument, name)
	}
	if count < 1 || count > max {
		return fmt.Errorf("%w: count for %s must be in [1,%d], got %d",
			ErrInvalidArgument, name, max, count)
	}
	return nil
}

// =============================================================================
// Coordinator
// =============================================================================

// CoordinatorConfig holds configuration for the cache coordinator.
//
// # Fields
//
//   - CacheSize: Mixed-stream length per generation. Default: 10000.
//   - SampleSize: Observations per source. Default: 100.
//   - RefreshInterval: Periodic refresh cadence. Default: 5 minutes.
//   - StalenessThreshold: Pool age beyond which health degrades.
//     Default: 10 minutes.
//   - Clock: Time source. Default: system clock.
type CoordinatorConfig struct {
	CacheSize          int
	SampleSize         int
	RefreshInterval    time.Duration
	StalenessThreshold time.Duration
	Clock              Clock
}

// DefaultCoordinatorConfig returns production defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		CacheSize:          DefaultCacheSize,
		SampleSize:         DefaultSampleSize,
		RefreshInterval:    5 * time.Minute,
		StalenessThreshold: 10 * time.Minute,
	}
}

// Coordinator owns the current generation, drives periodic and
// on-demand refresh, and serves reads.
//
// # Description
//
// The coordinator moves through Empty -> Ready -> Refreshing -> Ready.
// Reads never block on an in-flight refresh: they always serve the
// last published generation through a lock-free pointer load, except
// in the Empty state where the first read builds synchronously.
// Refresh is coalesced: concurrent callers join the in-flight build
// via singleflight, and async triggers that arrive mid-build schedule
// exactly one follow-up build so no request is lost. A failed build
// never replaces a published generation.
//
// # Thread Safety
//
// All methods are safe for unlimited concurrent use.
type Coordinator struct {
	cfg       CoordinatorConfig
	clock     Clock
	collector *Collector

	current atomic.Pointer[Generation]
	flight  singleflight.Group

	// mu protects the async-trigger and scheduler state below.
	mu       sync.Mutex
	building bool
	pending  bool
	running  bool
	done     chan struct{}
}

// NewCoordinator creates a Coordinator with defaults applied for any
// zero-valued configuration field. The coordinator starts Empty; call
// Refresh (or let the first Read do it) to publish a generation, and
// Start to run the periodic scheduler.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	def := DefaultCoordinatorConfig()
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = def.RefreshInterval
	}
	if cfg.StalenessThreshold <= 0 {
		cfg.StalenessThreshold = def.StalenessThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	return &Coordinator{
		cfg:       cfg,
		clock:     cfg.Clock,
		collector: NewCollector(cfg.SampleSize, cfg.Clock),
		done:      make(chan struct{}),
	}
}

// =============================================================================
// Reads
// =============================================================================

// Read returns the first count values of the named cache from the
// current published generation.
//
// # Description
//
// Count bounds are validated before any generation work; out-of-bound
// requests fail with ErrInvalidArgument rather than being clamped.
// If no generation has ever been published, Read builds one
// synchronously; after that it never blocks on a refresh.
//
// # Inputs
//
//   - ctx: Context for the synchronous first build only.
//   - name: One of the six cache names.
//   - count: 1..MaxCount(name).
//
// # Outputs
//
//   - any: []float64, [][]float64, or []int64 depending on the cache.
//   - error: ErrInvalidArgument on bad name or count.
func (c *Coordinator) Read(ctx context.Context, name CacheName, count int) (any, error) {
	if err := validateCount(name, count); err != nil {
		return nil, err
	}
	gen, err := c.ensureGeneration(ctx)
	if err != nil {
		return nil, err
	}
	return gen.Values(name, count)
}

// MixedResult is the response payload for an on-demand mixed stream.
type MixedResult struct {
	Values       []float64
	SourcesUsed  []Source
	Quality      map[Source]float64
	GeneratedAt  time.Time
	RefreshCount uint64
}

// Mixed produces count mixed values from the live pool.
//
// # Description
//
// Unlike the derived caches, mixed streams are not persisted with a
// generation: they are computed per call from the most recent pool
// snapshot, so they reflect the latest collection even mid-refresh.
// Unknown names in sources have already been filtered by the caller
// (see FilterSources); an empty selection mixes all seven.
func (c *Coordinator) Mixed(ctx context.Context, count int, sources []Source) (*MixedResult, error) {
	if count < 1 || count > MaxMixedCount {
		return nil, fmt.Errorf("%w: mixed count must be in [1,%d], got %d",
			ErrInvalidArgument, MaxMixedCount, count)
	}
	if _, err := c.ensureGeneration(ctx); err != nil {
		return nil, err
	}

	pool := c.collector.Snapshot()
	values, err := Mix(pool, count, sources)
	if err != nil {
		return nil, err
	}
	used := sources
	if used == nil {
		used = AllSources
	}
	return &MixedResult{
		Values:       values,
		SourcesUsed:  used,
		Quality:      Assess(pool),
		GeneratedAt:  c.clock.Now(),
		RefreshCount: pool.RefreshCount,
	}, nil
}

// Current returns the published generation, or nil in the Empty state.
func (c *Coordinator) Current() *Generation {
	return c.current.Load()
}

// QualityReport scores the live pool, not the frozen per-generation
// snapshot, so it reflects the most recent collection even mid-refresh.
func (c *Coordinator) QualityReport() map[Source]float64 {
	return Assess(c.collector.Snapshot())
}

// PoolInfo returns the live pool's collection time and refresh count.
// Zero values indicate no collection has happened yet.
func (c *Coordinator) PoolInfo() (time.Time, uint64) {
	pool := c.collector.Snapshot()
	if pool == nil {
		return time.Time{}, 0
	}
	return pool.LastRefresh, pool.RefreshCount
}

// CacheStats describes one derived cache for monitoring.
type CacheStats struct {
	Count        int     `json:"count"`
	AgeSeconds   float64 `json:"age_seconds"`
	RefreshCount uint64  `json:"refresh_count"`
}

// CacheStatistics reports count, age, and refresh count per derived
// cache from the current generation. Empty in the Empty state.
func (c *Coordinator) CacheStatistics() map[CacheName]CacheStats {
	out := make(map[CacheName]CacheStats, len(AllCaches))
	gen := c.current.Load()
	if gen == nil {
		return out
	}
	age := c.clock.Now().Sub(gen.BuiltAt).Seconds()
	for _, name := range AllCaches {
		out[name] = CacheStats{
			Count:        gen.Caches.Len(name),
			AgeSeconds:   age,
			RefreshCount: gen.RefreshCount,
		}
	}
	return out
}

// Health describes coordinator liveness for the /health endpoint.
type Health struct {
	Status         string `json:"status"`
	CachePopulated bool   `json:"cache_populated"`
	EntropyFresh   bool   `json:"entropy_fresh"`
}

// HealthCheck reports degraded when no generation has been published
// or the live pool is older than the staleness threshold.
func (c *Coordinator) HealthCheck() Health {
	populated := c.current.Load() != nil

	fresh := false
	if pool := c.collector.Snapshot(); pool != nil {
		fresh = pool.Age(c.clock.Now()) < c.cfg.StalenessThreshold
	}

	status := "healthy"
	if !populated || !fresh {
		status = "degraded"
	}
	return Health{
		Status:         status,
		CachePopulated: populated,
		EntropyFresh:   fresh,
	}
}

// =============================================================================
// Refresh
// =============================================================================

// Refresh builds and publishes a fresh generation, blocking until the
// swap completes.
//
// # Description
//
// Collect -> Mix -> BuildDerived -> atomic pointer swap. Concurrent
// callers are coalesced onto a single build via singleflight; at most
// one build runs at a time. A build error (none expected under normal
// floating-point operation) leaves the published generation intact.
// There is no cancellation: once started a build runs to completion.
func (c *Coordinator) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx, "manual")
	return err
}

// TriggerRefresh schedules a refresh without waiting for the build.
//
// # Description
//
// If no build is in flight one starts immediately in the background.
// If one is already running, a single follow-up build is scheduled to
// run once it completes; triggers are coalesced but never lost.
func (c *Coordinator) TriggerRefresh() {
	c.mu.Lock()
	if c.building {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.building = true
	c.mu.Unlock()

	go c.buildLoop()
}

// buildLoop drains async triggers one build at a time.
func (c *Coordinator) buildLoop() {
	for {
		if _, err := c.refresh(context.Background(), "triggered"); err != nil {
			slog.Error("entropy refresh failed", "error", err)
		}
		c.mu.Lock()
		if !c.pending {
			c.building = false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
	}
}

// ensureGeneration returns the published generation, building one
// synchronously only in the Empty state.
func (c *Coordinator) ensureGeneration(ctx context.Context) (*Generation, error) {
	if gen := c.current.Load(); gen != nil {
		return gen, nil
	}
	return c.refresh(ctx, "on_demand")
}

// refresh coalesces concurrent builds and publishes the result.
func (c *Coordinator) refresh(ctx context.Context, trigger string) (*Generation, error) {
	v, err, _ := c.flight.Do("generation", func() (any, error) {
		return c.buildGeneration(ctx, trigger)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Generation), nil
}

// buildGeneration runs one full pipeline pass and swaps the published
// pointer. Readers touch only the previous generation until the single
// Store below.
func (c *Coordinator) buildGeneration(ctx context.Context, trigger string) (*Generation, error) {
	_, span := tracer.Start(ctx, "entropy.build_generation")
	defer span.End()

	start := c.clock.Now()
	pool := c.collector.Collect()

	stream, err := Mix(pool, c.cfg.CacheSize, nil)
	if err != nil {
		observability.RecordRefresh(trigger, "error", 0)
		return nil, fmt.Errorf("mixing entropy stream: %w", err)
	}

	quality := Assess(pool)
	gen := &Generation{
		ID:              uuid.New(),
		BuiltAt:         c.clock.Now(),
		RefreshCount:    pool.RefreshCount,
		PoolLastRefresh: pool.LastRefresh,
		Caches:          BuildDerived(stream),
		Quality:         quality,
	}
	c.current.Store(gen)

	elapsed := c.clock.Now().Sub(start)
	observability.RecordRefresh(trigger, "success", elapsed.Seconds())
	observability.SetGeneration(gen.RefreshCount)
	for src, q := range quality {
		observability.SetSourceQuality(string(src), q)
	}

	slog.Info("entropy generation published",
		"generation_id", gen.ID.String(),
		"refresh_count", gen.RefreshCount,
		"stream_size", c.cfg.CacheSize,
		"trigger", trigger,
		"duration_ms", elapsed.Milliseconds(),
	)
	return gen, nil
}

// =============================================================================
// Periodic Scheduler
// =============================================================================

// Start begins the periodic refresh scheduler.
//
// # Description
//
// Starts a goroutine that refreshes at the configured interval until
// Stop is called or the context is cancelled. The scheduler and manual
// triggers share the same coalesced refresh path, so the two never run
// builds in parallel.
//
// # Outputs
//
//   - error: Non-nil if the scheduler is already running.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("refresh scheduler is already running")
	}
	c.running = true
	c.done = make(chan struct{}) // reset for potential restart
	c.mu.Unlock()

	slog.Info("entropy refresh scheduler starting",
		"interval", c.cfg.RefreshInterval.String(),
		"cache_size", c.cfg.CacheSize,
		"sample_size", c.cfg.SampleSize,
	)

	go c.runLoop(ctx)
	return nil
}

// Stop halts the periodic scheduler. Safe to call multiple times; an
// in-flight build is never interrupted.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	slog.Info("entropy refresh scheduler stopping")
	close(c.done)
	c.running = false
	return nil
}

// runLoop is the scheduler goroutine.
func (c *Coordinator) runLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("entropy refresh scheduler stopped (context cancelled)")
			return
		case <-c.done:
			slog.Info("entropy refresh scheduler stopped (stop requested)")
			return
		case <-ticker.C:
			// A failed cycle is fatal to that cycle only; the published
			// generation stays intact and the next tick retries.
			if _, err := c.refresh(ctx, "scheduled"); err != nil {
				slog.Error("scheduled entropy refresh failed", "error", err)
			}
		}
	}
}
