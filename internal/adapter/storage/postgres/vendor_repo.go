package postgres

import (
	"context"
	"errors"
	"fmt"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const vendorColumns = `id, email, password_hash, transaction_pin, first_name, last_name, business_name, created_at, updated_at`

// VendorRepo implements ports.VendorRepository.
type VendorRepo struct {
	pool Pool
}

// NewVendorRepo creates a new VendorRepo.
func NewVendorRepo(pool Pool) *VendorRepo {
	return &VendorRepo{pool: pool}
}

// Create inserts a new vendor.
func (r *VendorRepo) Create(ctx context.Context, v *domain.Vendor) error {
	query := `INSERT INTO vendors (` + vendorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.Email, v.PasswordHash, v.TransactionPinHash,
		v.FirstName, v.LastName, v.BusinessName, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ports.ErrDuplicateEmail
		}
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

// GetByID fetches a vendor by id.
func (r *VendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`
	v, err := scanVendor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get vendor by id: %w", err)
	}
	return v, nil
}

// GetByEmail fetches a vendor by login email.
func (r *VendorRepo) GetByEmail(ctx context.Context, email string) (*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE email = $1`
	v, err := scanVendor(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get vendor by email: %w", err)
	}
	return v, nil
}

// SetTransactionPin stores the PIN hash if the vendor has none yet.
func (r *VendorRepo) SetTransactionPin(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID, pinHash string) (bool, error) {
	query := `UPDATE vendors SET transaction_pin = $1, updated_at = NOW()
		WHERE id = $2 AND transaction_pin IS NULL`

	tag, err := tx.Exec(ctx, query, pinHash, vendorID)
	if err != nil {
		return false, fmt.Errorf("set transaction pin: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanVendor(row pgx.Row) (*domain.Vendor, error) {
	v := &domain.Vendor{}
	err := row.Scan(
		&v.ID, &v.Email, &v.PasswordHash, &v.TransactionPinHash,
		&v.FirstName, &v.LastName, &v.BusinessName, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
