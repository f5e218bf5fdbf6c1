package postgres

import (
	"context"
	"errors"
	"fmt"

	"vendor-invoicing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invoiceSelect = `SELECT i.id, i.vendor_id, i.client_id, i.status, i.total_amount, i.due_date,
		c.name, c.email, i.created_at, i.updated_at
		FROM invoices i JOIN clients c ON c.id = i.client_id`

// InvoiceRepo implements ports.InvoiceRepository.
type InvoiceRepo struct {
	pool Pool
}

// NewInvoiceRepo creates a new InvoiceRepo.
func NewInvoiceRepo(pool Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

// GetByID fetches an invoice with its client's contact details.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get invoice by id: %w", err)
	}
	return inv, nil
}

// GetByIDForUpdate fetches and row-locks an invoice.
// This MUST be called within a transaction.
func (r *InvoiceRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := scanInvoice(tx.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1 FOR UPDATE OF i`, id))
	if err != nil {
		return nil, fmt.Errorf("get invoice for update: %w", err)
	}
	return inv, nil
}

// MarkPaid flips the invoice to PAID if it belongs to vendorID and is unpaid.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, vendorID uuid.UUID) (bool, error) {
	query := `UPDATE invoices SET status = $1, updated_at = NOW()
		WHERE id = $2 AND vendor_id = $3 AND status <> $1`

	tag, err := tx.Exec(ctx, query, domain.InvoiceStatusPaid, id, vendorID)
	if err != nil {
		return false, fmt.Errorf("mark invoice paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	err := row.Scan(
		&inv.ID, &inv.VendorID, &inv.ClientID, &inv.Status, &inv.TotalAmount, &inv.DueDate,
		&inv.ClientName, &inv.ClientEmail, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}
