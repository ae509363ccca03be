// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"
	"time"

	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/entropy"
	"github.com/gin-gonic/gin"
)

// HealthCheck serves GET /health.
//
// # Description
//
// Reports degraded when no generation has ever been published or when
// the live pool's age exceeds the staleness threshold. The check is an
// immediate read over published state and never blocks on a refresh.
// The HTTP status is always 200; orchestration reads the status field.
func HealthCheck(coord *entropy.Coordinator, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := coord.HealthCheck()
		c.JSON(http.StatusOK, gin.H{
			"status":          h.Status,
			"cache_populated": h.CachePopulated,
			"entropy_fresh":   h.EntropyFresh,
			"service":         serviceName,
			"uptime_seconds":  time.Since(startedAt).Seconds(),
		})
	}
}
