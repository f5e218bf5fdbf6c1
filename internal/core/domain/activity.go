package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction classifies an activity log entry.
type ActivityAction string

const (
	ActivityActionPayment    ActivityAction = "PAYMENT"
	ActivityActionWithdrawal ActivityAction = "WITHDRAWAL"
	ActivityActionWallet     ActivityAction = "WALLET"
	ActivityActionSecurity   ActivityAction = "SECURITY"
)

// ActivityLog is an append-only audit entry for a vendor.
type ActivityLog struct {
	ID        uuid.UUID      `json:"id"`
	VendorID  uuid.UUID      `json:"vendor_id"`
	Action    ActivityAction `json:"action"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewActivity builds an activity entry stamped now.
func NewActivity(vendorID uuid.UUID, action ActivityAction, message string) *ActivityLog {
	return &ActivityLog{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Action:    action,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
