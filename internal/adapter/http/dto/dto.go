package dto

import (
	"vendor-invoicing/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for vendor registration.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email,max=255"`
	Password     string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	FirstName    string `json:"firstName" binding:"required,min=1,max=100"`
	LastName     string `json:"lastName" binding:"required,min=1,max=100"`
	BusinessName string `json:"businessName" binding:"omitempty,max=150"`
}

// LoginRequest is the request body for vendor login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	VendorID string `json:"vendor_id"`
	Email    string `json:"email"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// WithdrawRequest is the request body for a bank payout.
// Amount accepts a JSON number or a numeric string.
type WithdrawRequest struct {
	Password      string          `json:"password" binding:"required" sanitize:"-"`
	Pin           string          `json:"pin" binding:"omitempty,len=4,numeric" sanitize:"-"`
	BankCode      string          `json:"bankCode" binding:"required,max=20,safe_id"`
	AccountNumber string          `json:"accountNumber" binding:"required,account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// PinRequest carries a transaction PIN for set and verify.
type PinRequest struct {
	Pin string `json:"pin" binding:"required" sanitize:"-"`
}

// VerifyAccountRequest is the request body for bank account resolution.
type VerifyAccountRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required,account_number"`
	BankCode      string `json:"bankCode" binding:"required,max=20,safe_id"`
}

// TransactionListQuery holds query parameters of the history endpoint.
type TransactionListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED"`
	Type     string `form:"type" binding:"omitempty,oneof=CREDIT DEBIT"`
}

// StatusFilter returns the typed status filter, or nil when unset.
func (q TransactionListQuery) StatusFilter() *domain.TransactionStatus {
	if q.Status == "" {
		return nil
	}
	s := domain.TransactionStatus(q.Status)
	return &s
}

// TypeFilter returns the typed type filter, or nil when unset.
func (q TransactionListQuery) TypeFilter() *domain.TransactionType {
	if q.Type == "" {
		return nil
	}
	t := domain.TransactionType(q.Type)
	return &t
}

// TransactionResponse is one row of the transaction history.
type TransactionResponse struct {
	ID              string `json:"id"`
	ReferenceID     string `json:"reference_id"`
	Amount          string `json:"amount"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	TransacterName  string `json:"transacter_name"`
	TransacterEmail string `json:"transacter_email"`
	CreatedAt       string `json:"created_at"`
}

// WebhookAck is the body returned to the payment provider.
type WebhookAck struct {
	Outcome   string `json:"outcome"`
	Reference string `json:"reference,omitempty"`
	Detail    string `json:"detail,omitempty"`
}
