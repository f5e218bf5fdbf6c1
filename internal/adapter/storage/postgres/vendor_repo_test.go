package postgres

import (
	"context"
	"testing"
	"time"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vendorColumnNames() []string {
	return []string{"id", "email", "password_hash", "transaction_pin", "first_name", "last_name",
		"business_name", "created_at", "updated_at"}
}

func newTestVendor() *domain.Vendor {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Vendor{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		FirstName:    "Ada",
		LastName:     "Obi",
		BusinessName: "Ada Prints",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestVendorRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVendorRepo(mock)
	v := newTestVendor()

	mock.ExpectExec("INSERT INTO vendors").
		WithArgs(v.ID, v.Email, v.PasswordHash, v.TransactionPinHash,
			v.FirstName, v.LastName, v.BusinessName, v.CreatedAt, v.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorRepo_Create_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVendorRepo(mock)
	v := newTestVendor()

	mock.ExpectExec("INSERT INTO vendors").
		WithArgs(v.ID, v.Email, v.PasswordHash, v.TransactionPinHash,
			v.FirstName, v.LastName, v.BusinessName, v.CreatedAt, v.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	assert.ErrorIs(t, repo.Create(context.Background(), v), ports.ErrDuplicateEmail)
}

func TestVendorRepo_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVendorRepo(mock)
	v := newTestVendor()
	pin := "$argon2id$pin"

	mock.ExpectQuery("SELECT .+ FROM vendors WHERE email").
		WithArgs(v.Email).
		WillReturnRows(pgxmock.NewRows(vendorColumnNames()).AddRow(
			v.ID, v.Email, v.PasswordHash, &pin, v.FirstName, v.LastName,
			v.BusinessName, v.CreatedAt, v.UpdatedAt,
		))

	result, err := repo.GetByEmail(context.Background(), v.Email)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, v.ID, result.ID)
	assert.True(t, result.HasTransactionPin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVendorRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM vendors WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(vendorColumnNames()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestVendorRepo_SetTransactionPin(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"first pin", 1, true},
		{"pin already set", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewVendorRepo(mock)
			id := uuid.New()

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE vendors SET transaction_pin = \\$1.+transaction_pin IS NULL").
				WithArgs("hash", id).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			ok, err := repo.SetTransactionPin(context.Background(), tx, id, "hash")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
