package postgres

import (
	"context"
	"time"
)

// HealthChecker implements ports.HealthChecker for the PostgreSQL ledger.
type HealthChecker struct {
	pool Pool
}

// NewHealthChecker creates a PostgreSQL health checker.
func NewHealthChecker(pool Pool) *HealthChecker {
	return &HealthChecker{pool: pool}
}

func (h *HealthChecker) Name() string {
	return "postgres"
}

// Ping verifies database connectivity with a short timeout.
func (h *HealthChecker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.pool.Ping(ctx)
}
