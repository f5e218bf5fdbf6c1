package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	vendorRepo ports.VendorRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	vendorRepo ports.VendorRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		vendorRepo: vendorRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		log:        log,
	}
}

// Register creates a vendor account. The wallet is created separately.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Vendor, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.vendorRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	vendor := &domain.Vendor{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		BusinessName: strings.TrimSpace(req.BusinessName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, ports.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create vendor: %w", err))
	}

	s.log.Info().Str("vendor_id", vendor.ID.String()).Msg("Vendor registered")
	return vendor, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	vendor, err := s.vendorRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find vendor: %w", err))
	}
	if vendor == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, vendor.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(vendor.ID, vendor.Email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
