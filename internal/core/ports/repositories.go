package ports

import (
	"context"
	"errors"

	"vendor-invoicing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrDuplicateEmail is returned by VendorRepository.Create when the email is taken.
var ErrDuplicateEmail = errors.New("vendor email already exists")

// VendorRepository defines persistence operations for vendors.
type VendorRepository interface {
	Create(ctx context.Context, vendor *domain.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Vendor, error)
	// SetTransactionPin stores the PIN hash only if none is set. Returns false otherwise.
	SetTransactionPin(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID, pinHash string) (bool, error)
}

// WalletRepository defines persistence operations for wallets.
// Balance columns are only changed by SQL arithmetic inside a pgx.Tx.
type WalletRepository interface {
	// Create inserts the wallet. Returns false if the vendor already has one.
	Create(ctx context.Context, wallet *domain.Wallet) (bool, error)
	GetByVendorID(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error)
	// GetOrCreate returns the vendor's wallet, creating an empty one if absent.
	GetOrCreate(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error)
	// Ensure creates the vendor's wallet inside tx if absent.
	Ensure(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID) error
	Credit(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID, amount decimal.Decimal) error
	// Debit subtracts amount only if the balance covers it. Returns false otherwise.
	Debit(ctx context.Context, tx pgx.Tx, vendorID uuid.UUID, amount decimal.Decimal) (bool, error)
}

// TransactionRepository defines persistence operations for ledger transactions.
type TransactionRepository interface {
	// Create inserts the row unless its reference already exists. Returns false on conflict.
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) (bool, error)
	GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error)
	GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, referenceID string) (*domain.Transaction, error)
	// TransitionStatus moves the row from -> to. Returns false if it was not in from.
	TransitionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus) (bool, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	// PendingDebitTotal sums the vendor's withdrawals still awaiting the gateway.
	PendingDebitTotal(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	VendorID uuid.UUID
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	Page     int
	PageSize int
}

// InvoiceRepository defines the invoice operations the ledger needs.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Invoice, error)
	// MarkPaid sets PAID if the invoice belongs to vendorID and is not paid yet.
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, vendorID uuid.UUID) (bool, error)
}

// ActivityRepository persists the vendor activity trail.
type ActivityRepository interface {
	Create(ctx context.Context, tx pgx.Tx, activity *domain.ActivityLog) error
	ListRecent(ctx context.Context, vendorID uuid.UUID, limit int) ([]domain.ActivityLog, error)
}

// WebhookEventRepository journals inbound gateway notifications.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *domain.WebhookEventLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
