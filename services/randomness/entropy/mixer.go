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
	"fmt"
	"math"
)

// mixWeights combines sources positionally; the vector sums to 1.0.
// When fewer sources are requested, the leading weights apply in
// request order and the tail is unused.
var mixWeights = []float64{0.20, 0.15, 0.15, 0.15, 0.10, 0.15, 0.10}

// Mix produces a weighted combination of the pool's sources.
//
// # Description
//
// For output index i, each requested source contributes
// weight_j * source_j[i mod len(source_j)]; the sum is reduced modulo
// 1.0 so every value lies in [0,1). Sources are treated as cyclic, so
// count may exceed the per-source observation length. Mix is a pure
// function of the pool; it never mutates state.
//
// # Inputs
//
//   - pool: The snapshot to mix. Must be non-nil.
//   - count: Number of output values. Must be >= 1.
//   - sources: Subset of sources to combine, in weight order. Nil
//     selects all seven. An empty non-nil slice (a requested list
//     that filtered down to nothing) contributes no sources and
//     yields a zero-valued stream.
//
// # Outputs
//
//   - []float64: count values in [0,1).
//   - error: ErrInvalidArgument for count < 1, ErrNotReady for a nil
//     pool.
func Mix(pool *Pool, count int, sources []Source) ([]float64, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be >= 1, got %d", ErrInvalidArgument, count)
	}
	if pool == nil {
		return nil, ErrNotReady
	}
	if sources == nil {
		sources = AllSources
	}

	out := make([]float64, count)
	for i := range out {
		v := 0.0
		for j, src := range sources {
			if j >= len(mixWeights) {
				break
			}
			obs := pool.Observations[src]
			if len(obs) == 0 {
				continue
			}
			v += mixWeights[j] * obs[i%len(obs)]
		}
		out[i] = math.Mod(v, 1.0)
	}
	return out, nil
}
