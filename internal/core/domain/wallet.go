package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the per-vendor running balance. Balance is never negative.
type Wallet struct {
	ID              uuid.UUID       `json:"id"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	Balance         decimal.Decimal `json:"balance"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	TotalWithdrawal decimal.Decimal `json:"total_withdrawal"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewWallet returns an empty wallet for the vendor.
func NewWallet(vendorID uuid.UUID) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:              uuid.New(),
		VendorID:        vendorID,
		Balance:         decimal.Zero,
		TotalCredit:     decimal.Zero,
		TotalWithdrawal: decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CanCover reports whether the balance covers amount.
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
