// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers_SafeBeforeInit(t *testing.T) {
	// The package-level recorders are no-ops until InitMetrics runs.
	assert.NotPanics(t, func() {
		RecordRefresh("manual", "success", 0.01)
		RecordRead("stochastic_jitter", "success")
		SetSourceQuality("crypto_secure", 0.9)
		SetGeneration(3)
	})
}

func TestInitMetrics_Idempotent(t *testing.T) {
	m1 := InitMetrics()
	m2 := InitMetrics()

	assert.Same(t, m1, m2, "repeated init must reuse the registered collectors")
	assert.NotNil(t, m1.RefreshesTotal)
	assert.NotNil(t, m1.RefreshDurationSeconds)
	assert.NotNil(t, m1.ReadsTotal)
	assert.NotNil(t, m1.SourceQuality)
	assert.NotNil(t, m1.GenerationRefreshCount)
}
