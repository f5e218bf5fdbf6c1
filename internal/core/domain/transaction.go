package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a ledger movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionStatus represents the lifecycle state of a transaction.
// Allowed transitions: PENDING -> COMPLETED, PENDING -> FAILED.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Transaction is an append-only record of a ledger movement, unique per ReferenceID.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	ReferenceID     string            `json:"reference_id"`
	VendorID        uuid.UUID         `json:"vendor_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	TransacterName  string            `json:"transacter_name"`
	TransacterEmail string            `json:"transacter_email"`
	// GatewayID is the provider's transfer id for a withdrawal, empty for credits.
	GatewayID       string            `json:"gateway_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// CanTransitionTo reports whether moving to next is a legal state change.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	return t.Status == TransactionStatusPending &&
		(next == TransactionStatusCompleted || next == TransactionStatusFailed)
}
