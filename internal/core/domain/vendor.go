package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is an account holder that issues invoices and owns a wallet.
type Vendor struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	TransactionPinHash *string   `json:"-"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	BusinessName       string    `json:"business_name"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasTransactionPin reports whether the vendor configured a withdrawal PIN.
func (v *Vendor) HasTransactionPin() bool {
	return v.TransactionPinHash != nil && *v.TransactionPinHash != ""
}

// FullName joins first and last name.
func (v *Vendor) FullName() string {
	switch {
	case v.FirstName == "":
		return v.LastName
	case v.LastName == "":
		return v.FirstName
	}
	return v.FirstName + " " + v.LastName
}
