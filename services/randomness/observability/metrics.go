// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the randomness
// service.
//
// # Description
//
// Metrics cover the refresh pipeline (builds by trigger and status,
// build duration), the read path (reads by cache and status), and
// entropy quality (per-source gauge, published refresh count).
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. All package-level
// record helpers are nil-safe no-ops until InitMetrics runs, so library
// code can call them unconditionally.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "silverlining"

// Subsystem for entropy cache metrics
const entropySubsystem = "entropy"

// EntropyMetrics holds all Prometheus metrics for the entropy cache.
//
// # Fields
//
//   - RefreshesTotal: Counter of generation builds by trigger and status
//   - RefreshDurationSeconds: Histogram of build duration
//   - ReadsTotal: Counter of cache reads by cache name and status
//   - SourceQuality: Gauge of per-source chi-square quality score
//   - GenerationRefreshCount: Gauge of the published generation's counter
type EntropyMetrics struct {
	// RefreshesTotal counts generation builds.
	// Labels: trigger (scheduled, manual, triggered, on_demand, startup),
	// status (success, error)
	RefreshesTotal *prometheus.CounterVec

	// RefreshDurationSeconds measures end-to-end build duration.
	RefreshDurationSeconds prometheus.Histogram

	// ReadsTotal counts derived-cache reads.
	// Labels: cache (stochastic_jitter, ...), status (success, invalid)
	ReadsTotal *prometheus.CounterVec

	// SourceQuality tracks the latest quality score per source.
	// Labels: source (system_time, crypto_secure, ...)
	SourceQuality *prometheus.GaugeVec

	// GenerationRefreshCount tracks the published generation's
	// refresh counter.
	GenerationRefreshCount prometheus.Gauge
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *EntropyMetrics

var initOnce sync.Once

// InitMetrics initializes and registers the default metrics instance.
//
// # Description
//
// Registers all metrics with the default Prometheus registry. Safe to
// call more than once; registration happens on the first call only.
//
// # Outputs
//
//   - *EntropyMetrics: The initialized singleton.
func InitMetrics() *EntropyMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &EntropyMetrics{
			RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: entropySubsystem,
				Name:      "refreshes_total",
				Help:      "Generation builds by trigger and status.",
			}, []string{"trigger", "status"}),
			RefreshDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: entropySubsystem,
				Name:      "refresh_duration_seconds",
				Help:      "End-to-end generation build duration.",
				Buckets:   prometheus.DefBuckets,
			}),
			ReadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: entropySubsystem,
				Name:      "reads_total",
				Help:      "Derived-cache reads by cache and status.",
			}, []string{"cache", "status"}),
			SourceQuality: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: entropySubsystem,
				Name:      "source_quality",
				Help:      "Latest chi-square quality score per source.",
			}, []string{"source"}),
			GenerationRefreshCount: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: entropySubsystem,
				Name:      "generation_refresh_count",
				Help:      "Refresh counter of the published generation.",
			}),
		}
	})
	return DefaultMetrics
}

// =============================================================================
// Nil-safe Record Helpers
// =============================================================================

// RecordRefresh records one generation build attempt.
func RecordRefresh(trigger, status string, seconds float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RefreshesTotal.WithLabelValues(trigger, status).Inc()
	if status == "success" {
		DefaultMetrics.RefreshDurationSeconds.Observe(seconds)
	}
}

// RecordRead records one derived-cache read.
func RecordRead(cache, status string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.ReadsTotal.WithLabelValues(cache, status).Inc()
}

// SetSourceQuality updates the quality gauge for one source.
func SetSourceQuality(source string, score float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.SourceQuality.WithLabelValues(source).Set(score)
}

// SetGeneration updates the published-generation gauge.
func SetGeneration(refreshCount uint64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.GenerationRefreshCount.Set(float64(refreshCount))
}
