// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command randomd starts the Silver Lining randomness HTTP server.
//
// This is the main entry point for the containerized randomness service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - RANDOMD_PORT: HTTP server port (default: 47777)
//   - RANDOMD_CACHE_SIZE: mixed entropy stream length per generation (default: 10000)
//   - RANDOMD_SAMPLE_SIZE: observations collected per source (default: 100)
//   - RANDOMD_REFRESH_INTERVAL: periodic refresh cadence (default: 5m)
//   - RANDOMD_STALENESS_THRESHOLD: pool age before /health degrades (default: 10m)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: silverlining-otel-collector:4317)
//   - GIN_MODE: Gin framework mode (default: debug)
//
// # Usage
//
//	# Build
//	go build -o randomd ./cmd/randomd
//
//	# Run
//	./randomd
//
//	# Or via container
//	podman-compose up randomd
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := randomness.Config{
		Port:               getEnvInt("RANDOMD_PORT", 47777),
		CacheSize:          getEnvInt("RANDOMD_CACHE_SIZE", 10000),
		SampleSize:         getEnvInt("RANDOMD_SAMPLE_SIZE", 100),
		RefreshInterval:    getEnvDuration("RANDOMD_REFRESH_INTERVAL", 5*time.Minute),
		StalenessThreshold: getEnvDuration("RANDOMD_STALENESS_THRESHOLD", 10*time.Minute),
		OTelEndpoint:       getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "silverlining-otel-collector:4317"),
		GinMode:            os.Getenv("GIN_MODE"),
	}

	slog.Info("Starting randomness service",
		"port", cfg.Port,
		"cache_size", cfg.CacheSize,
		"refresh_interval", cfg.RefreshInterval.String(),
	)

	svc, err := randomness.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create randomness service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Randomness service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
//
// Accepts Go duration strings ("5m", "90s") or a bare integer, which is
// interpreted as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
