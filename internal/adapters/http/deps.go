package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/parkfinder/internal/adapters/postgres"
	"github.com/samirrijal/parkfinder/internal/adapters/valkey"
	"github.com/samirrijal/parkfinder/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// Only Parks is required; nil integrations are reported as not configured.
type Dependencies struct {
	Parks   *usecases.ParkService
	Events  EventSource
	Backend string

	DB     *postgres.DB
	NATS   *nats.Conn
	Valkey *valkey.Client

	// LimiterStorage shares rate limit counters between replicas.
	// nil keeps them in process memory.
	LimiterStorage fiber.Storage
	RateLimit      int
	RequestTimeout time.Duration
	DocsPath       string
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit <= 0 {
		return 120
	}
	return d.RateLimit
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return d.RequestTimeout
}

func (d *Dependencies) docsPath() string {
	if d.DocsPath == "" {
		return "api/openapi.yaml"
	}
	return d.DocsPath
}
