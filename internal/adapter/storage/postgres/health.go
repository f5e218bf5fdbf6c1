package postgres

import (
	"context"
	"fmt"
)

// HealthCheck reports PostgreSQL as unhealthy when it is unreachable or when
// the schema lags behind the migrations compiled into the binary.
type HealthCheck struct {
	pool Pool
	want int
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	migrations, _ := Migrations()
	return &HealthCheck{pool: pool, want: len(migrations)}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	var applied int
	if err := h.pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if applied < h.want {
		return fmt.Errorf("%d of %d migrations applied", applied, h.want)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
