package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// walletService implements ports.WalletService.
type walletService struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	vendorRepo ports.VendorRepository
	activity   ports.ActivityRepository
	gateway    ports.PaymentGateway
	hashSvc    ports.HashService
	transactor ports.DBTransactor
	country    string
	log        zerolog.Logger
}

// NewWalletService creates a new wallet service. country selects the bank list.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	vendorRepo ports.VendorRepository,
	activity ports.ActivityRepository,
	gateway ports.PaymentGateway,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	country string,
	log zerolog.Logger,
) ports.WalletService {
	return &walletService{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		vendorRepo: vendorRepo,
		activity:   activity,
		gateway:    gateway,
		hashSvc:    hashSvc,
		transactor: transactor,
		country:    country,
		log:        log,
	}
}

func (s *walletService) CreateWallet(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	wallet := domain.NewWallet(vendorID)
	created, err := s.walletRepo.Create(ctx, wallet)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !created {
		return nil, apperror.ErrWalletExists()
	}

	s.log.Info().Str("vendor_id", vendorID.String()).Msg("Wallet created")
	return wallet, nil
}

// GetWallet returns a zero summary when the wallet has not been created yet.
func (s *walletService) GetWallet(ctx context.Context, vendorID uuid.UUID) (*ports.WalletSummary, error) {
	wallet, err := s.walletRepo.GetByVendorID(ctx, vendorID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		wallet = domain.NewWallet(vendorID)
	}
	return &ports.WalletSummary{
		Balance:         wallet.Balance,
		TotalCredit:     wallet.TotalCredit,
		TotalWithdrawal: wallet.TotalWithdrawal,
	}, nil
}

func (s *walletService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, apperror.Validation("invalid status filter")
	}
	if params.Type != nil && !params.Type.Valid() {
		return nil, 0, apperror.Validation("invalid type filter")
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

func (s *walletService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	banks, err := s.gateway.ListBanks(ctx, s.country)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}
	return banks, nil
}

func (s *walletService) VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (*domain.BankAccount, error) {
	account, err := s.gateway.VerifyBankAccount(ctx, accountNumber, bankCode)
	if err != nil {
		var gwErr *ports.GatewayError
		if errors.As(err, &gwErr) && gwErr.Rejected() {
			return nil, apperror.Validation("Could not verify bank account")
		}
		return nil, apperror.ErrGatewayUnavailable(err)
	}
	return account, nil
}

// SetTransactionPin stores a PIN once. Changing an existing PIN is not supported.
func (s *walletService) SetTransactionPin(ctx context.Context, vendorID uuid.UUID, pin string) error {
	if !pinPattern.MatchString(pin) {
		return apperror.Validation("PIN must be exactly 4 digits")
	}

	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return apperror.InternalError(err)
	}
	if vendor == nil {
		return apperror.ErrNotFound("Vendor")
	}
	if vendor.HasTransactionPin() {
		return apperror.ErrPinAlreadySet()
	}

	pinHash, err := s.hashSvc.Hash(pin)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	stored, err := s.vendorRepo.SetTransactionPin(ctx, dbTx, vendorID, pinHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("store pin: %w", err))
	}
	if !stored {
		return apperror.ErrPinAlreadySet()
	}

	if err := s.activity.Create(ctx, dbTx, domain.NewActivity(vendorID, domain.ActivityActionSecurity, "Transaction PIN set")); err != nil {
		return apperror.InternalError(fmt.Errorf("write activity: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (s *walletService) VerifyTransactionPin(ctx context.Context, vendorID uuid.UUID, pin string) error {
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return apperror.InternalError(err)
	}
	if vendor == nil {
		return apperror.ErrNotFound("Vendor")
	}
	if !vendor.HasTransactionPin() {
		return apperror.ErrPinNotSet()
	}

	valid, err := s.hashSvc.Verify(pin, *vendor.TransactionPinHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !valid {
		return apperror.ErrIncorrectPin()
	}
	return nil
}
