package ports

import (
	"context"
	"errors"
	"fmt"

	"vendor-invoicing/internal/core/domain"
)

// ErrGatewayTimeout is returned when the provider does not answer in time.
var ErrGatewayTimeout = errors.New("payment gateway timeout")

// GatewayError is a non-success answer from the payment provider.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Rejected reports a client-side rejection (4xx) rather than a provider fault.
func (e *GatewayError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// PaymentGateway is the outbound payment provider boundary.
type PaymentGateway interface {
	VerifyTransaction(ctx context.Context, id string) (*domain.ChargeVerification, error)
	GetTransfer(ctx context.Context, id string) (*domain.TransferDetails, error)
	InitiateTransfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferAck, error)
	VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (*domain.BankAccount, error)
	ListBanks(ctx context.Context, country string) ([]domain.Bank, error)
}
