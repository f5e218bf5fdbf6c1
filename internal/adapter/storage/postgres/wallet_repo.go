package postgres

import (
	"context"
	"errors"
	"fmt"

	"vendor-invoicing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, vendor_id, balance, total_credit, total_withdrawal, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a wallet. Returns false if the vendor already has one.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) (bool, error) {
	query := `INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vendor_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		w.ID, w.VendorID, w.Balance, w.TotalCredit, w.TotalWithdrawal, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert wallet: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByVendorID fetches the vendor's wallet (non-locking read).
func (r *WalletRepo) GetByVendorID(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE vendor_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, vendorID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by vendor: %w", err)
	}
	return w, nil
}

// GetOrCreate returns the vendor's wallet, inserting an empty one first if absent.
func (r *WalletRepo) GetOrCreate(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	if _, err := r.Create(ctx, domain.NewWallet(vendorID)); err != nil {
		return nil, err
	}
	w, err := r.GetByVendorID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("wallet for vendor %s vanished after insert", vendorID)
	}
	return w, nil
}

// Ensure creates an empty wallet inside tx if the vendor has none.
func (r *WalletRepo) Ensure(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID) error {
	w := domain.NewWallet(vendorID)
	query := `INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vendor_id) DO NOTHING`

	_, err := tx.Exec(ctx, query,
		w.ID, w.VendorID, w.Balance, w.TotalCredit, w.TotalWithdrawal, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ensure wallet: %w", err)
	}
	return nil
}

// Credit adds amount to balance and total_credit.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE wallets
		SET balance = balance + $1, total_credit = total_credit + $1, updated_at = NOW()
		WHERE vendor_id = $2`

	tag, err := tx.Exec(ctx, query, amount, vendorID)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found for vendor: %s", vendorID)
	}
	return nil
}

// Debit subtracts amount from balance and adds it to total_withdrawal,
// only when the balance covers it.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID, amount decimal.Decimal) (bool, error) {
	query := `UPDATE wallets
		SET balance = balance - $1, total_withdrawal = total_withdrawal + $1, updated_at = NOW()
		WHERE vendor_id = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, query, amount, vendorID)
	if err != nil {
		return false, fmt.Errorf("debit wallet: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.VendorID, &w.Balance, &w.TotalCredit, &w.TotalWithdrawal, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}
