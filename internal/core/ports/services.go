package ports

import (
	"context"
	"time"

	"vendor-invoicing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password and PIN hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(vendorID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	VendorID uuid.UUID
	Email    string
}

// WebhookAuthenticator validates the shared-secret header of gateway webhooks.
type WebhookAuthenticator interface {
	Verify(signature string) bool
}

// ReferenceGenerator issues unique, time-ordered transfer references.
type ReferenceGenerator interface {
	NewWithdrawalReference() string
}

// ReferenceLock serialises processing of one gateway reference across instances.
type ReferenceLock interface {
	// Acquire returns true if the caller now holds the lock.
	Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, reference string) error
}

// SettledReferenceCache remembers references that reached a terminal state.
type SettledReferenceCache interface {
	IsSettled(ctx context.Context, reference string) (bool, error)
	MarkSettled(ctx context.Context, reference string, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// ReconciliationService applies authenticated gateway events to the ledger.
type ReconciliationService interface {
	Reconcile(ctx context.Context, event domain.WebhookEvent) (*domain.ReconcileResult, error)
}

// WithdrawalService starts vendor payouts.
type WithdrawalService interface {
	Withdraw(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error)
}

// WithdrawalRequest holds validated input for a payout.
type WithdrawalRequest struct {
	VendorID      uuid.UUID
	Password      string
	Pin           string
	BankCode      string
	AccountNumber string
	Amount        decimal.Decimal
}

// WithdrawalResult is the synchronous acknowledgement of a payout.
type WithdrawalResult struct {
	Reference string                   `json:"reference"`
	Status    domain.TransactionStatus `json:"status"`
	Amount    decimal.Decimal          `json:"amount"`
	Message   string                   `json:"message"`
}

// WalletService defines wallet management and read operations.
type WalletService interface {
	CreateWallet(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error)
	GetWallet(ctx context.Context, vendorID uuid.UUID) (*WalletSummary, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListBanks(ctx context.Context) ([]domain.Bank, error)
	VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (*domain.BankAccount, error)
	SetTransactionPin(ctx context.Context, vendorID uuid.UUID, pin string) error
	VerifyTransactionPin(ctx context.Context, vendorID uuid.UUID, pin string) error
}

// WalletSummary is the vendor-facing view of a wallet.
type WalletSummary struct {
	Balance         decimal.Decimal `json:"balance"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	TotalWithdrawal decimal.Decimal `json:"total_withdrawal"`
}

// AuthService defines vendor authentication.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Vendor, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for vendor signup.
type RegisterRequest struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	BusinessName string
}

// VendorService defines vendor profile reads.
type VendorService interface {
	GetProfile(ctx context.Context, vendorID uuid.UUID) (*VendorProfile, error)
	RecentActivity(ctx context.Context, vendorID uuid.UUID) ([]domain.ActivityLog, error)
}

// VendorProfile combines the vendor record with its wallet totals.
type VendorProfile struct {
	Vendor *domain.Vendor `json:"vendor"`
	Wallet WalletSummary  `json:"wallet"`
}
