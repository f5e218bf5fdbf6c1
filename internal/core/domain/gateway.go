package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Gateway-reported states. Comparisons are case-insensitive.
const (
	GatewayStatusSuccessful = "successful"
	TransferStateNew        = "NEW"
	TransferStateSuccessful = "SUCCESSFUL"
	TransferStateFailed     = "FAILED"
	TransferStatePending    = "PENDING"
)

// ChargeVerification is the gateway's authoritative view of a card charge.
type ChargeVerification struct {
	ID            string
	Status        string
	Amount        decimal.Decimal
	Currency      string
	TxRef         string
	CustomerName  string
	CustomerEmail string
}

// Successful reports whether the gateway settled the charge.
func (c *ChargeVerification) Successful() bool {
	return strings.EqualFold(c.Status, GatewayStatusSuccessful)
}

// TransferDetails is the gateway's authoritative view of a payout.
type TransferDetails struct {
	ID        string
	Reference string
	Amount    decimal.Decimal
	Status    string
}

// Succeeded reports a terminal-success transfer.
func (t *TransferDetails) Succeeded() bool {
	return strings.EqualFold(t.Status, TransferStateSuccessful)
}

// Failed reports a terminal-failure transfer.
func (t *TransferDetails) Failed() bool {
	return strings.EqualFold(t.Status, TransferStateFailed)
}

// TransferRequest is an outbound payout instruction.
type TransferRequest struct {
	BankCode      string
	AccountNumber string
	Amount        decimal.Decimal
	Currency      string
	Narration     string
	Reference     string
	CallbackURL   string
}

// TransferAck is the gateway's synchronous answer to a payout instruction.
type TransferAck struct {
	ID            string
	Status        string
	TransferState string
	Message       string
}

// Accepted reports whether the payout was queued or already completed.
func (a *TransferAck) Accepted() bool {
	if !strings.EqualFold(a.Status, "success") {
		return false
	}
	return strings.EqualFold(a.TransferState, TransferStateNew) ||
		strings.EqualFold(a.TransferState, TransferStateSuccessful)
}

// Bank is a destination bank supported by the gateway.
type Bank struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// BankAccount is a resolved destination account.
type BankAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankCode      string `json:"bank_code"`
}
