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

// =============================================================================
// Cache Names
// =============================================================================

// CacheName identifies one of the six derived caches.
type CacheName string

const (
	CacheStochasticJitter     CacheName = "stochastic_jitter"
	CacheClusteringWeights    CacheName = "clustering_weights"
	CacheTemporalVariance     CacheName = "temporal_variance"
	CacheContentSeeds         CacheName = "content_seeds"
	CacheSimilarityThresholds CacheName = "similarity_thresholds"
	CacheExplorationPaths     CacheName = "exploration_paths"
)

// AllCaches lists the derived caches in stream-window order.
var AllCaches = []CacheName{
	CacheStochasticJitter,
	CacheClusteringWeights,
	CacheTemporalVariance,
	CacheContentSeeds,
	CacheSimilarityThresholds,
	CacheExplorationPaths,
}

// DefaultCacheSize is the mixed-stream length a generation is built
// from. The stream splits into five equal scalar windows of
// DefaultCacheSize/5 values each.
const DefaultCacheSize = 10000

// weightVectorDim is the dimensionality of clustering weight vectors.
const weightVectorDim = 5

// jitterScale maps a centered [−0.5,0.5) value into [−0.1,0.1).
const jitterScale = 0.2

// seedSpan scales [0,1) values into 31-bit integer seeds.
const seedSpan = 1 << 31

// =============================================================================
// Derived Caches
// =============================================================================

// DerivedCaches holds the six ready-to-serve value sequences built
// from one mixed stream.
//
// # Description
//
// Each cache has its own range contract, guaranteed by construction of
// its transform (values are never clamped after the fact):
//
//   - StochasticJitter: [-0.1, 0.1), mean ≈ 0
//   - ClusteringWeights: non-negative 5-vectors summing to 1.0
//   - TemporalVariance: [0.5, 2.0)
//   - ContentSeeds: integers in [0, 2³¹)
//   - SimilarityThresholds: [0.1, 0.8)
//   - ExplorationPaths: [0, 1)
type DerivedCaches struct {
	StochasticJitter     []float64
	ClusteringWeights    [][]float64
	TemporalVariance     []float64
	ContentSeeds         []int64
	SimilarityThresholds []float64
	ExplorationPaths     []float64
}

// BuildDerived slices the mixed stream into consecutive windows and
// applies each cache's shape transform.
//
// # Description
//
// The stream is partitioned into five equal consecutive windows
// (jitter, variance, seeds, thresholds, paths) whose proportions scale
// with the stream length; window ordering is always preserved.
// Clustering weight vectors stride the whole stream in groups of five,
// independent of the windows. BuildDerived is a pure transform with no
// failure modes.
//
// # Inputs
//
//   - stream: Mixed entropy values in [0,1). Length should be a
//     multiple of 5; the default is DefaultCacheSize.
//
// # Outputs
//
//   - DerivedCaches: All six caches, mutually consistent since they
//     come from the same stream.
func BuildDerived(stream []float64) DerivedCaches {
	n := len(stream)
	w := n / 5

	d := DerivedCaches{
		StochasticJitter:     make([]float64, w),
		TemporalVariance:     make([]float64, w),
		ContentSeeds:         make([]int64, w),
		SimilarityThresholds: make([]float64, w),
		ExplorationPaths:     make([]float64, n-4*w),
	}

	for i, v := range stream[:w] {
		d.StochasticJitter[i] = (v - 0.5) * jitterScale
	}
	for i, v := range stream[w : 2*w] {
		d.TemporalVariance[i] = 0.5 + v*1.5
	}
	for i, v := range stream[2*w : 3*w] {
		d.ContentSeeds[i] = int64(v * seedSpan)
	}
	for i, v := range stream[3*w : 4*w] {
		d.SimilarityThresholds[i] = 0.1 + v*0.7
	}
	copy(d.ExplorationPaths, stream[4*w:])

	d.ClusteringWeights = buildWeightVectors(stream)
	return d
}

// buildWeightVectors normalizes consecutive groups of five stream
// values into weight vectors. A zero-sum group produces no vector for
// that slot.
func buildWeightVectors(stream []float64) [][]float64 {
	out := make([][]float64, 0, len(stream)/weightVectorDim)
	for i := 0; i < len(stream)-weightVectorDim; i += weightVectorDim {
		raw := stream[i : i+weightVectorDim]
		sum := 0.0
		for _, v := range raw {
			sum += v
		}
		if sum <= 0 {
			continue
		}
		vec := make([]float64, weightVectorDim)
		for j, v := range raw {
			vec[j] = v / sum
		}
		out = append(out, vec)
	}
	return out
}

// Len returns the number of entries in the named cache, or 0 for an
// unknown name.
func (d *DerivedCaches) Len(name CacheName) int {
	switch name {
	case CacheStochasticJitter:
		return len(d.StochasticJitter)
	case CacheClusteringWeights:
		return len(d.ClusteringWeights)
	case CacheTemporalVariance:
		return len(d.TemporalVariance)
	case CacheContentSeeds:
		return len(d.ContentSeeds)
	case CacheSimilarityThresholds:
		return len(d.SimilarityThresholds)
	case CacheExplorationPaths:
		return len(d.ExplorationPaths)
	default:
		return 0
	}
}
