// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP surface of the randomness
// service. Validation happens here, before anything touches the
// coordinator: out-of-range count values produce a 400, never a 5xx
// and never a silent clamp.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/entropy"
	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var handlersTracer = otel.Tracer("silverlining.randomness.handlers")

// serviceName identifies this service in status payloads.
const serviceName = "silver-lining-randomness"

// Default count values per endpoint, carried over from the service's
// published API contract.
const (
	defaultJitterCount     = 10
	defaultWeightsCount    = 5
	defaultVarianceCount   = 10
	defaultThresholdsCount = 10
	defaultPathsCount      = 50
	defaultMixedCount      = 100
)

// =============================================================================
// Derived Cache Endpoints
// =============================================================================

// GetStochasticJitter serves GET /entropy/jitter: small perturbation
// values in [-0.1, 0.1] for clustering jitter.
func GetStochasticJitter(coord *entropy.Coordinator) gin.HandlerFunc {
	return readCache(coord, entropy.CacheStochasticJitter, defaultJitterCount)
}

// GetClusteringWeights serves GET /entropy/clustering-weights:
// normalized 5-element weight vectors.
func GetClusteringWeights(coord *entropy.Coordinator) gin.HandlerFunc {
	return readCache(coord, entropy.CacheClusteringWeights, defaultWeightsCount)
}

// GetTemporalVariance serves GET /entropy/temporal-variance:
// multipliers in [0.5, 2.0] for time-based randomness.
func GetTemporalVariance(coord *entropy.Coordinator) gin.HandlerFunc {
	return readCache(coord, entropy.CacheTemporalVariance, defaultVarianceCount)
}

// GetSimilarityThresholds serves GET /entropy/similarity-thresholds:
// adaptive clustering thresholds in [0.1, 0.8].
func GetSimilarityThresholds(coord *entropy.Coordinator) gin.HandlerFunc {
	return readCache(coord, entropy.CacheSimilarityThresholds, defaultThresholdsCount)
}

// GetExplorationPaths serves GET /entropy/exploration-paths: raw
// [0,1) values for UI exploration path generation.
func GetExplorationPaths(coord *entropy.Coordinator) gin.HandlerFunc {
	return readCache(coord, entropy.CacheExplorationPaths, defaultPathsCount)
}

// readCache builds the shared handler for all scalar and vector cache
// endpoints: parse count, read from the published generation, respond.
func readCache(coord *entropy.Coordinator, cache entropy.CacheName, defaultCount int) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, ok := parseCount(c, defaultCount)
		if !ok {
			observability.RecordRead(string(cache), "invalid")
			return
		}

		values, err := coord.Read(c.Request.Context(), cache, count)
		if err != nil {
			observability.RecordRead(string(cache), "invalid")
			respondError(c, err)
			return
		}

		observability.RecordRead(string(cache), "success")
		c.JSON(http.StatusOK, values)
	}
}

// =============================================================================
// Mixed Entropy
// =============================================================================

// GetMixedEntropy serves GET /entropy/mixed: an on-demand weighted
// combination of the live pool's sources.
//
// Query parameters:
//   - count: 1..5000 values (default 100)
//   - sources: comma-separated source names; unknown names are
//     filtered out rather than failing the whole mix
func GetMixedEntropy(coord *entropy.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "entropy.mixed")
		defer span.End()

		count, ok := parseCount(c, defaultMixedCount)
		if !ok {
			return
		}

		var sources []entropy.Source
		if raw := c.Query("sources"); raw != "" {
			names := strings.Split(raw, ",")
			for i := range names {
				names[i] = strings.TrimSpace(names[i])
			}
			sources = entropy.FilterSources(names)
		}

		result, err := coord.Mixed(ctx, count, sources)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"values":       result.Values,
			"count":        len(result.Values),
			"sources_used": result.SourcesUsed,
			"quality":      result.Quality,
			"metadata": gin.H{
				"generated_at":  unixSeconds(result.GeneratedAt),
				"refresh_count": result.RefreshCount,
			},
		})
	}
}

// =============================================================================
// Quality, Refresh, Status
// =============================================================================

// GetEntropyQuality serves GET /entropy/quality: per-source quality
// scores, per-cache statistics, and the overall mean. Scores come from
// the live pool, so they reflect the latest collection even
// mid-refresh.
func GetEntropyQuality(coord *entropy.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		quality := coord.QualityReport()
		c.JSON(http.StatusOK, gin.H{
			"entropy_quality":  quality,
			"cache_statistics": coord.CacheStatistics(),
			"overall_quality":  entropy.OverallQuality(quality),
			"entropy_sources":  entropy.AllSources,
		})
	}
}

// TriggerRefresh serves POST /entropy/refresh. The request is accepted
// immediately and the build runs in the background; the response
// reports the pool state from before the trigger.
func TriggerRefresh(coord *entropy.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lastRefresh, refreshCount := coord.PoolInfo()
		coord.TriggerRefresh()

		c.JSON(http.StatusAccepted, gin.H{
			"message":          "entropy cache refresh initiated",
			"previous_refresh": unixSeconds(lastRefresh),
			"refresh_count":    refreshCount,
		})
	}
}

// ServiceStatus serves GET /: service identity and entropy overview.
func ServiceStatus(coord *entropy.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lastRefresh, _ := coord.PoolInfo()
		c.JSON(http.StatusOK, gin.H{
			"service":         serviceName,
			"status":          "active",
			"entropy_sources": len(entropy.AllSources),
			"cache_types":     entropy.AllCaches,
			"last_refresh":    unixSeconds(lastRefresh),
			"quality_metrics": coord.QualityReport(),
		})
	}
}

// =============================================================================
// Helpers
// =============================================================================

// parseCount reads the count query parameter, defaulting when absent.
// On a malformed value it writes the 400 response and returns ok=false.
// Range validation is the coordinator's job; only syntax is checked
// here.
func parseCount(c *gin.Context, defaultCount int) (int, bool) {
	raw := c.DefaultQuery("count", strconv.Itoa(defaultCount))
	count, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": fmt.Sprintf("count must be an integer, got %q", raw)})
		return 0, false
	}
	return count, true
}

// respondError maps coordinator errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entropy.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entropy.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// unixSeconds renders a timestamp as fractional Unix seconds, with the
// zero time mapping to 0 rather than a large negative number.
func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}
