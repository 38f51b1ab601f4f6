// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"sales_pricing_backend/internal/events"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (upstream collaborator reachability).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
	// RateLimitRPS and RateLimitBurst configure the per-IP inbound limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}
