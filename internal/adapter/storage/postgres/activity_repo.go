package postgres

import (
	"context"
	"fmt"

	"vendor-invoicing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActivityRepo implements ports.ActivityRepository.
type ActivityRepo struct {
	pool Pool
}

// NewActivityRepo creates a new ActivityRepo.
func NewActivityRepo(pool Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Create appends an activity entry as part of tx.
func (r *ActivityRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.ActivityLog) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO activity_logs (id, vendor_id, action, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.VendorID, a.Action, a.Message, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ListRecent returns the vendor's latest activity entries, newest first.
func (r *ActivityRepo) ListRecent(ctx context.Context, vendorID uuid.UUID, limit int) ([]domain.ActivityLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, vendor_id, action, message, created_at
		 FROM activity_logs WHERE vendor_id = $1
		 ORDER BY created_at DESC LIMIT $2`, vendorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.ActivityLog, 0, limit)
	for rows.Next() {
		var a domain.ActivityLog
		if err := rows.Scan(&a.ID, &a.VendorID, &a.Action, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}
