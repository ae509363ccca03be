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
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// qualityBins is the number of equal-width histogram bins over [0,1]
// used by the uniformity test. Degrees of freedom is qualityBins-1.
const qualityBins = 10

// Assess scores every source's uniformity over [0,1].
//
// # Description
//
// For each source, observations are bucketed into ten equal-width bins,
// a chi-square statistic is computed against the expected uniform count
// per bin, and the statistic's survival probability under a chi-square
// distribution with 9 degrees of freedom becomes the score via
// min(1, 2p). Moderate-to-high p-values saturate at 1.0; very low
// p-values trend to 0. The 2x scaling is a legacy display convention,
// not a calibrated statistic; keep it stable for consumers.
//
// An empty (or missing) source vector scores 0.0. Assess is advisory
// only and never blocks refresh or reads; a nil pool yields all-zero
// scores.
//
// # Inputs
//
//   - pool: The snapshot to assess. May be nil.
//
// # Outputs
//
//   - map[Source]float64: Score in [0,1] for every enumerated source.
func Assess(pool *Pool) map[Source]float64 {
	out := make(map[Source]float64, len(AllSources))
	for _, src := range AllSources {
		if pool == nil {
			out[src] = 0.0
			continue
		}
		out[src] = scoreUniformity(pool.Observations[src])
	}
	return out
}

// OverallQuality returns the mean score across all sources.
func OverallQuality(scores map[Source]float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, q := range scores {
		sum += q
	}
	return sum / float64(len(scores))
}

// scoreUniformity runs the chi-square goodness-of-fit test on one
// observation vector.
func scoreUniformity(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	var bins [qualityBins]float64
	for _, v := range values {
		idx := int(v * qualityBins)
		if idx >= qualityBins {
			idx = qualityBins - 1 // v == 1.0 lands in the top bin
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx]++
	}

	expected := float64(len(values)) / qualityBins
	chi2 := 0.0
	for _, c := range bins {
		diff := c - expected
		chi2 += diff * diff / expected
	}

	dist := distuv.ChiSquared{K: qualityBins - 1}
	p := dist.Survival(chi2)
	return math.Min(1.0, p*2)
}
