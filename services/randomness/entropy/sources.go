// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package entropy implements the Silver Lining entropy pool and the
// derived-randomness caches built from it.
//
// # Description
//
// The package gathers observations from seven pseudo-random sources,
// mixes them into a single normalized stream, slices the stream into
// six consumer-shaped caches, scores per-source statistical quality,
// and coordinates periodic plus on-demand refresh of all of it behind
// an atomic generation swap.
//
// The sources are deterministic functions of wall-clock time and a draw
// counter, not true entropy. That is intentional: downstream consumers
// (clustering perturbation, exploration paths) need reproducible,
// statistically reasonable variety, not security-grade randomness.
//
// # Thread Safety
//
// Collector and Coordinator are safe for concurrent use. Pool and
// Generation values are immutable once published.
package entropy

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	mrand "math/rand/v2"
	"strconv"
	"sync"
	"time"
)

// =============================================================================
// Sources
// =============================================================================

// Source names one entropy source with its own formula family.
type Source string

// The fixed set of entropy sources. Order matters: mixing weights are
// aligned positionally to this list.
const (
	SourceSystemTime    Source = "system_time"
	SourceCryptoSecure  Source = "crypto_secure"
	SourceAtmospheric   Source = "atmospheric"
	SourceMathematical  Source = "mathematical"
	SourceQuantumSim    Source = "quantum_sim"
	SourceContentHash   Source = "content_hash"
	SourceTemporalDrift Source = "temporal_drift"
)

// AllSources lists every source in canonical (mixing-weight) order.
var AllSources = []Source{
	SourceSystemTime,
	SourceCryptoSecure,
	SourceAtmospheric,
	SourceMathematical,
	SourceQuantumSim,
	SourceContentHash,
	SourceTemporalDrift,
}

// IsValidSource reports whether name is one of the enumerated sources.
func IsValidSource(name string) bool {
	for _, s := range AllSources {
		if string(s) == name {
			return true
		}
	}
	return false
}

// FilterSources maps raw source names to Source values, dropping
// unknown names. Unknown names are filtered rather than rejected so a
// partially wrong sources= query still mixes the valid remainder.
func FilterSources(names []string) []Source {
	out := make([]Source, 0, len(names))
	for _, n := range names {
		if IsValidSource(n) {
			out = append(out, Source(n))
		}
	}
	return out
}

// =============================================================================
// Pool
// =============================================================================

// DefaultSampleSize is the per-source observation count.
const DefaultSampleSize = 100

// Pool is a snapshot of all sources' observations plus refresh
// bookkeeping.
//
// # Description
//
// A Pool is built wholesale by Collector.Collect and never mutated
// afterwards; readers always see a complete, consistent snapshot.
// RefreshCount is strictly increasing across snapshots from the same
// collector and pairs 1:1 with the generation built from it.
type Pool struct {
	// Observations maps each source to its observation vector.
	// Every value lies in [0,1].
	Observations map[Source][]float64

	// LastRefresh is when this snapshot was collected.
	LastRefresh time.Time

	// RefreshCount is the collector's monotonic collection counter.
	RefreshCount uint64
}

// Age returns how long ago the pool was collected.
func (p *Pool) Age(now time.Time) time.Duration {
	return now.Sub(p.LastRefresh)
}

// =============================================================================
// Collector
// =============================================================================

// Collector produces Pool snapshots from the seven source formulas.
//
// # Description
//
// Collect regenerates every source vector from scratch (no incremental
// append), stamps the snapshot with the collection time, and bumps the
// monotonic refresh counter. A per-collector draw counter is folded
// into the time-seeded formulas so successive collections differ even
// at sub-second clock resolution.
//
// # Thread Safety
//
// Safe for concurrent use. Collect serializes internally; Snapshot is
// a lock-free pointer read of the latest immutable Pool.
type Collector struct {
	clock      Clock
	sampleSize int

	mu    sync.Mutex
	count uint64
	pool  *Pool
}

// NewCollector creates a Collector with the given per-source sample
// size. A non-positive sampleSize falls back to DefaultSampleSize; a
// nil clock falls back to the system clock.
func NewCollector(sampleSize int, clock Clock) *Collector {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Collector{
		clock:      clock,
		sampleSize: sampleSize,
	}
}

// Collect builds and publishes a fresh Pool snapshot.
//
// # Description
//
// Runs all seven source formulas against the current wall-clock time
// and the incremented draw counter, replaces the current snapshot, and
// returns it. Collect has no failure modes.
//
// # Outputs
//
//   - *Pool: The new snapshot. Immutable; safe to share.
func (c *Collector) Collect() *Pool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.count++
	seq := c.count
	nowSec := float64(now.UnixNano()) / 1e9

	pool := &Pool{
		Observations: map[Source][]float64{
			SourceSystemTime:    c.systemTime(now, seq),
			SourceCryptoSecure:  c.cryptoSecure(),
			SourceAtmospheric:   c.atmospheric(nowSec),
			SourceMathematical:  c.mathematical(nowSec),
			SourceQuantumSim:    c.quantumSim(),
			SourceContentHash:   c.contentHash(nowSec, seq),
			SourceTemporalDrift: c.temporalDrift(nowSec),
		},
		LastRefresh:  now,
		RefreshCount: seq,
	}
	c.pool = pool
	return pool
}

// Snapshot returns the latest collected Pool, or nil if Collect has
// never run.
func (c *Collector) Snapshot() *Pool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool
}

// SampleSize returns the configured per-source observation count.
func (c *Collector) SampleSize() int {
	return c.sampleSize
}

// =============================================================================
// Source Formulas
// =============================================================================

// timeModulus buckets nanosecond timestamps into fractional residues.
const timeModulus = 10000

// goldenGamma is the 64-bit golden-ratio increment used to spread
// consecutive draw indices across the residue space.
const goldenGamma = 0x9E3779B97F4A7C15

// mix64 is the 64-bit finalizer from MurmurHash3. It decorrelates the
// nanosecond counter so consecutive draws do not form a ramp when the
// OS clock granularity is coarse.
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// systemTime derives observations from sub-millisecond clock residues.
func (c *Collector) systemTime(now time.Time, seq uint64) []float64 {
	out := make([]float64, c.sampleSize)
	base := uint64(now.UnixNano()) + seq*goldenGamma
	for i := range out {
		h := mix64(base + uint64(i)*goldenGamma)
		out[i] = float64(h%timeModulus) / timeModulus
	}
	return out
}

// cryptoSecure draws uniform values from the platform CSPRNG.
func (c *Collector) cryptoSecure() []float64 {
	out := make([]float64, c.sampleSize)
	buf := make([]byte, 4*c.sampleSize)
	// crypto/rand.Read cannot fail on supported platforms.
	_, _ = crand.Read(buf)
	for i := range out {
		out[i] = float64(binary.BigEndian.Uint32(buf[4*i:])) / (1 << 32)
	}
	return out
}

// atmospheric simulates atmospheric noise by hashing closely spaced
// timestamps.
func (c *Collector) atmospheric(nowSec float64) []float64 {
	out := make([]float64, c.sampleSize)
	for i := range out {
		h := fnv.New64a()
		_, _ = h.Write([]byte(strconv.FormatFloat(nowSec+float64(i)*0.001, 'f', 6, 64)))
		out[i] = float64(h.Sum64()%timeModulus) / timeModulus
	}
	return out
}

// mathematical iterates a logistic map with a time-varying growth
// parameter. r stays inside the chaotic band [3.8, 4.0].
func (c *Collector) mathematical(nowSec float64) []float64 {
	out := make([]float64, c.sampleSize)
	x := 0.5
	r := 3.9 + 0.1*math.Sin(nowSec*0.1)
	for i := range out {
		x = r * x * (1 - x)
		out[i] = x
	}
	return out
}

// quantumSim models measurement collapse of a random-phase state.
// sin²φ+cos²φ pins the amplitude at 1.0; the constant source is
// intentional and the mixing weights assume it.
func (c *Collector) quantumSim() []float64 {
	out := make([]float64, c.sampleSize)
	for i := range out {
		phase := mrand.Float64() * 2 * math.Pi
		re := math.Sin(phase)
		im := math.Cos(phase)
		out[i] = re*re + im*im
	}
	return out
}

// contentHash derives observations from SHA-256 digests of a
// time-and-counter salted content string.
func (c *Collector) contentHash(nowSec float64, seq uint64) []float64 {
	out := make([]float64, c.sampleSize)
	base := fmt.Sprintf("silver_lining_%.6f_%d", nowSec, seq)
	for i := range out {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%d", base, i)))
		out[i] = float64(binary.BigEndian.Uint32(sum[:4])) / (1 << 32)
	}
	return out
}

// temporalDrift samples a multi-frequency beat pattern, normalized
// from [-1,1] to [0,1].
func (c *Collector) temporalDrift(nowSec float64) []float64 {
	out := make([]float64, c.sampleSize)
	for i := range out {
		drift := math.Sin(nowSec*0.01+float64(i)*0.1) * math.Cos(nowSec*0.007+float64(i)*0.13)
		out[i] = (drift + 1) / 2
	}
	return out
}
