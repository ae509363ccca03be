// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"time"

	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/entropy"
	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers every endpoint of the randomness service.
func SetupRoutes(router *gin.Engine, coord *entropy.Coordinator, startedAt time.Time) {
	router.GET("/", handlers.ServiceStatus(coord))
	router.GET("/health", handlers.HealthCheck(coord, startedAt))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Entropy cache endpoints
	entropyGroup := router.Group("/entropy")
	{
		entropyGroup.GET("/jitter", handlers.GetStochasticJitter(coord))
		entropyGroup.GET("/clustering-weights", handlers.GetClusteringWeights(coord))
		entropyGroup.GET("/temporal-variance", handlers.GetTemporalVariance(coord))
		entropyGroup.GET("/similarity-thresholds", handlers.GetSimilarityThresholds(coord))
		entropyGroup.GET("/exploration-paths", handlers.GetExplorationPaths(coord))
		entropyGroup.GET("/mixed", handlers.GetMixedEntropy(coord))
		entropyGroup.GET("/quality", handlers.GetEntropyQuality(coord))
		entropyGroup.POST("/refresh", handlers.TriggerRefresh(coord))
	}
}
