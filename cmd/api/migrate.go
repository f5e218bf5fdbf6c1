package main

import (
	"context"
	"fmt"

	"vendor-invoicing/config"
	pgStorage "vendor-invoicing/internal/adapter/storage/postgres"

	"github.com/rs/zerolog"
)

func runMigrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer pool.Close()

	applied, err := pgStorage.Migrate(ctx, pool, log)
	if err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	log.Info().Int("applied", applied).Msg("Migrations complete")
	return nil
}
