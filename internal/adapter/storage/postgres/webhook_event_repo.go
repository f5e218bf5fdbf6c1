package postgres

import (
	"context"
	"fmt"

	"vendor-invoicing/internal/core/domain"
)

// WebhookEventRepo implements ports.WebhookEventRepository.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Create journals one inbound webhook with its reconciliation outcome.
func (r *WebhookEventRepo) Create(ctx context.Context, e *domain.WebhookEventLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO webhook_events
		 (id, event_type, reference, gateway_id, vendor_id, outcome, detail, payload, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.EventType, e.Reference, e.GatewayID, e.VendorID,
		e.Outcome, e.Detail, e.Payload, e.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}
