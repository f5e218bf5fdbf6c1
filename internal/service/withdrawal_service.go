package service

import (
	"context"
	"fmt"
	"time"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/metrics"
	"vendor-invoicing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WithdrawalOptions are the business limits applied to payouts.
type WithdrawalOptions struct {
	Minimum     decimal.Decimal
	Currency    string
	Narration   string
	CallbackURL string
}

// WithdrawalServiceImpl implements ports.WithdrawalService.
// The wallet is not debited here; the debit happens when the transfer
// webhook confirms success.
type WithdrawalServiceImpl struct {
	vendorRepo ports.VendorRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	activity   ports.ActivityRepository
	gateway    ports.PaymentGateway
	hashSvc    ports.HashService
	refs       ports.ReferenceGenerator
	transactor ports.DBTransactor
	metrics    *metrics.Metrics
	opts       WithdrawalOptions
	log        zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	vendorRepo ports.VendorRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	activity ports.ActivityRepository,
	gateway ports.PaymentGateway,
	hashSvc ports.HashService,
	refs ports.ReferenceGenerator,
	transactor ports.DBTransactor,
	m *metrics.Metrics,
	opts WithdrawalOptions,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		vendorRepo: vendorRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		activity:   activity,
		gateway:    gateway,
		hashSvc:    hashSvc,
		refs:       refs,
		transactor: transactor,
		metrics:    m,
		opts:       opts,
		log:        log,
	}
}

// Withdraw validates the request, starts the gateway transfer and records a
// PENDING debit. The final outcome arrives through the transfer webhook.
func (s *WithdrawalServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawalRequest) (*ports.WithdrawalResult, error) {
	res, err := s.withdraw(ctx, req)
	switch {
	case err == nil:
		s.metrics.ObserveWithdrawal("accepted")
	case apperror.Retryable(err):
		s.metrics.ObserveWithdrawal("error")
	default:
		s.metrics.ObserveWithdrawal("rejected")
	}
	return res, err
}

func (s *WithdrawalServiceImpl) withdraw(ctx context.Context, req ports.WithdrawalRequest) (*ports.WithdrawalResult, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, req.VendorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find vendor: %w", err))
	}
	if vendor == nil {
		return nil, apperror.ErrNotFound("Vendor")
	}

	valid, err := s.hashSvc.Verify(req.Password, vendor.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrIncorrectPassword()
	}

	if vendor.HasTransactionPin() {
		valid, err := s.hashSvc.Verify(req.Pin, *vendor.TransactionPinHash)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
		}
		if !valid {
			return nil, apperror.ErrIncorrectPin()
		}
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, vendor.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ensure wallet: %w", err))
	}

	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Amount.LessThan(s.opts.Minimum) {
		return nil, apperror.ErrMinimumWithdrawal(s.opts.Minimum.String())
	}
	// Open withdrawals are not debited yet but are already committed to the gateway.
	pending, err := s.txRepo.PendingDebitTotal(ctx, vendor.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum pending withdrawals: %w", err))
	}
	if !wallet.CanCover(req.Amount.Add(pending)) {
		return nil, apperror.ErrInsufficientFunds()
	}

	reference := s.refs.NewWithdrawalReference()

	ack, err := s.gateway.InitiateTransfer(ctx, domain.TransferRequest{
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
		Currency:      s.opts.Currency,
		Narration:     s.opts.Narration,
		Reference:     reference,
		CallbackURL:   s.opts.CallbackURL,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("initiate transfer %s: %w", reference, err))
	}
	if !ack.Accepted() {
		s.log.Warn().
			Str("reference", reference).
			Str("status", ack.Status).
			Str("transfer_state", ack.TransferState).
			Str("message", ack.Message).
			Msg("Gateway did not accept transfer")
		return nil, apperror.InternalError(fmt.Errorf("transfer %s not accepted: %s", reference, ack.TransferState))
	}

	if err := s.recordPending(ctx, vendor, reference, ack.ID, req.Amount); err != nil {
		// The gateway already holds the transfer; its webhook will find no record.
		s.log.Error().Err(err).
			Str("reference", reference).
			Str("vendor_id", vendor.ID.String()).
			Str("gateway_transfer_id", ack.ID).
			Msg("Transfer accepted but pending transaction was not recorded")
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("reference", reference).
		Str("vendor_id", vendor.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("Withdrawal initiated")

	return &ports.WithdrawalResult{
		Reference: reference,
		Status:    domain.TransactionStatusPending,
		Amount:    req.Amount,
		Message:   "Withdrawal is processing",
	}, nil
}

func (s *WithdrawalServiceImpl) recordPending(ctx context.Context, vendor *domain.Vendor, reference, gatewayID string, amount decimal.Decimal) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	created, err := s.txRepo.Create(ctx, dbTx, &domain.Transaction{
		ID:              uuid.New(),
		ReferenceID:     reference,
		VendorID:        vendor.ID,
		Amount:          amount,
		Type:            domain.TransactionTypeDebit,
		Status:          domain.TransactionStatusPending,
		TransacterName:  vendor.FullName(),
		TransacterEmail: vendor.Email,
		GatewayID:       gatewayID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	if !created {
		return fmt.Errorf("reference %s already recorded", reference)
	}

	entry := domain.NewActivity(vendor.ID, domain.ActivityActionWithdrawal,
		fmt.Sprintf("Withdrawal of %s initiated", amount.StringFixed(2)))
	if err := s.activity.Create(ctx, dbTx, entry); err != nil {
		return fmt.Errorf("write activity: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
