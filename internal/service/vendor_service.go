package service

import (
	"context"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/apperror"

	"github.com/google/uuid"
)

// recentActivityLimit is the number of entries shown on the vendor dashboard.
const recentActivityLimit = 10

type vendorService struct {
	vendorRepo ports.VendorRepository
	walletRepo ports.WalletRepository
	activity   ports.ActivityRepository
}

// NewVendorService creates a new vendor profile service.
func NewVendorService(
	vendorRepo ports.VendorRepository,
	walletRepo ports.WalletRepository,
	activity ports.ActivityRepository,
) ports.VendorService {
	return &vendorService{
		vendorRepo: vendorRepo,
		walletRepo: walletRepo,
		activity:   activity,
	}
}

func (s *vendorService) GetProfile(ctx context.Context, vendorID uuid.UUID) (*ports.VendorProfile, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if vendor == nil {
		return nil, apperror.ErrNotFound("Vendor")
	}

	wallet, err := s.walletRepo.GetByVendorID(ctx, vendorID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		wallet = domain.NewWallet(vendorID)
	}

	return &ports.VendorProfile{
		Vendor: vendor,
		Wallet: ports.WalletSummary{
			Balance:         wallet.Balance,
			TotalCredit:     wallet.TotalCredit,
			TotalWithdrawal: wallet.TotalWithdrawal,
		},
	}, nil
}

func (s *vendorService) RecentActivity(ctx context.Context, vendorID uuid.UUID) ([]domain.ActivityLog, error) {
	entries, err := s.activity.ListRecent(ctx, vendorID, recentActivityLimit)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return entries, nil
}
