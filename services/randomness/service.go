// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package randomness provides the multi-tier entropy provider service
// for the Silver Lining ecosystem.
//
// This package contains the main Service type that coordinates all
// components: the entropy cache coordinator, HTTP routing, Prometheus
// metrics, and OpenTelemetry tracing.
//
// # Usage
//
//	cfg := randomness.Config{Port: 47777}
//	svc, err := randomness.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package randomness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/entropy"
	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/observability"
	"github.com/SilverLiningAI/SilverLiningFOSS/services/randomness/routes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the randomness service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine

	// Coordinator returns the entropy cache coordinator, primarily for
	// integration testing and embedding.
	Coordinator() *entropy.Coordinator
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds randomness service configuration options.
//
// All fields are optional; zero values use defaults applied by New.
type Config struct {
	// Port is the HTTP server port. Default: 47777
	Port int

	// CacheSize is the mixed-stream length per generation.
	// Default: 10000
	CacheSize int

	// SampleSize is the per-source observation count. Default: 100
	SampleSize int

	// RefreshInterval is the periodic refresh cadence.
	// Default: 5 minutes
	RefreshInterval time.Duration

	// StalenessThreshold is the pool age beyond which /health reports
	// degraded. Default: 10 minutes
	StalenessThreshold time.Duration

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "silverlining-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// DisableTracing skips OTLP tracer setup. Useful for tests.
	// Default: false (tracing enabled)
	DisableTracing bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction; all fields are read-only after New
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	coordinator   *entropy.Coordinator
	tracerCleanup func(context.Context)
	startedAt     time.Time
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new randomness Service with the given configuration.
//
// # Description
//
// New initializes all components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing (unless disabled)
//  3. Initializes Prometheus metrics
//  4. Creates the cache coordinator and builds the first generation
//  5. Starts the periodic refresh scheduler
//  6. Sets up HTTP routes
//
// The first generation is built eagerly so the service comes up
// healthy; after that, reads never block on refresh.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run randomness service
//   - error: Non-nil if initialization fails
func New(cfg Config) (Service, error) {
	s := &service{
		config:    applyConfigDefaults(cfg),
		startedAt: time.Now(),
	}

	if !s.config.DisableTracing {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for entropy cache")
	}

	s.coordinator = entropy.NewCoordinator(entropy.CoordinatorConfig{
		CacheSize:          s.config.CacheSize,
		SampleSize:         s.config.SampleSize,
		RefreshInterval:    s.config.RefreshInterval,
		StalenessThreshold: s.config.StalenessThreshold,
	})

	// Build the first generation before serving traffic.
	if err := s.coordinator.Refresh(context.Background()); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to build initial entropy generation: %w", err)
	}

	if err := s.coordinator.Start(context.Background()); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to start refresh scheduler: %w", err)
	}

	s.initRouter()
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting randomness server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Coordinator returns the entropy cache coordinator.
func (s *service) Coordinator() *entropy.Coordinator {
	return s.coordinator
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 47777
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = entropy.DefaultCacheSize
	}
	if cfg.SampleSize == 0 {
		cfg.SampleSize = entropy.DefaultSampleSize
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if cfg.StalenessThreshold == 0 {
		cfg.StalenessThreshold = 10 * time.Minute
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "silverlining-otel-collector:4317"
	}
	// EnableMetrics defaults to true (zero value is false, so we need
	// an explicit override here)
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
// The connection is lazy; an unreachable collector does not fail setup.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("randomness-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	if !s.config.DisableTracing {
		s.router.Use(otelgin.Middleware("randomness-service"))
	}

	routes.SetupRoutes(s.router, s.coordinator, s.startedAt)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.coordinator != nil {
		if err := s.coordinator.Stop(); err != nil {
			slog.Warn("refresh scheduler stop error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
