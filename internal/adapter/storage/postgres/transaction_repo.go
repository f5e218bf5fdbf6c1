package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, reference_id, vendor_id, amount, type, status, transacter_name, transacter_email, gateway_id, created_at, updated_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a transaction unless one with the same reference exists.
// The unique index on reference_id decides concurrent inserts.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) (bool, error) {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (reference_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		t.ID, t.ReferenceID, t.VendorID, t.Amount, t.Type, t.Status,
		t.TransacterName, t.TransacterEmail, t.GatewayID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByReference fetches a transaction by gateway reference (non-locking read).
func (r *TransactionRepo) GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, referenceID))
	if err != nil {
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return t, nil
}

// GetByReferenceForUpdate fetches and row-locks a transaction by reference.
// This MUST be called within a transaction.
func (r *TransactionRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, referenceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_id = $1 FOR UPDATE`

	t, err := scanTransaction(tx.QueryRow(ctx, query, referenceID))
	if err != nil {
		return nil, fmt.Errorf("get transaction for update: %w", err)
	}
	return t, nil
}

// TransitionStatus moves a transaction from one status to another.
// Returns false when the row is no longer in the expected status.
func (r *TransactionRepo) TransitionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus) (bool, error) {
	query := `UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	tag, err := tx.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List fetches a vendor's transactions, newest first, with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("vendor_id = $%d", argIdx))
	args = append(args, params.VendorID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, params.PageSize)
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.ReferenceID, &t.VendorID, &t.Amount, &t.Type, &t.Status,
			&t.TransacterName, &t.TransacterEmail, &t.GatewayID, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// PendingDebitTotal sums the amounts of the vendor's PENDING debits.
func (r *TransactionRepo) PendingDebitTotal(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE vendor_id = $1 AND type = $2 AND status = $3`

	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, query, vendorID, domain.TransactionTypeDebit, domain.TransactionStatusPending).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum pending debits: %w", err)
	}
	return total, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.ReferenceID, &t.VendorID, &t.Amount, &t.Type, &t.Status,
		&t.TransacterName, &t.TransacterEmail, &t.GatewayID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}
