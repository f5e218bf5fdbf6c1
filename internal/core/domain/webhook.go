package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind is the normalized class of an inbound gateway notification.
type EventKind string

const (
	EventKindCardPayment EventKind = "CARD_PAYMENT"
	EventKindTransfer    EventKind = "TRANSFER"
	EventKindUnknown     EventKind = "UNKNOWN"
)

// WebhookEvent is an authenticated gateway notification reduced to the
// fields used to locate ledger records. Amount and Status are claims only.
type WebhookEvent struct {
	Kind      EventKind
	RawType   string
	GatewayID string
	Reference string
	Amount    decimal.Decimal
	Status    string
	Payload   []byte
}

// Outcome is the result of reconciling one webhook event.
type Outcome string

const (
	OutcomeCredited   Outcome = "credited"
	OutcomeDebited    Outcome = "debited"
	OutcomeFailed     Outcome = "withdrawal_failed"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeInProgress Outcome = "in_progress"
	OutcomeStillOpen  Outcome = "pending"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeRejected   Outcome = "rejected"
	OutcomeError      Outcome = "error"
)

// Mutated reports whether the outcome changed ledger state.
func (o Outcome) Mutated() bool {
	return o == OutcomeCredited || o == OutcomeDebited || o == OutcomeFailed
}

// ReconcileResult describes what reconciliation did with an event.
type ReconcileResult struct {
	Outcome   Outcome    `json:"outcome"`
	Reference string     `json:"reference,omitempty"`
	VendorID  *uuid.UUID `json:"vendor_id,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

// WebhookEventLog is the journal row written for every authenticated webhook.
type WebhookEventLog struct {
	ID         uuid.UUID  `json:"id"`
	EventType  string     `json:"event_type"`
	Reference  string     `json:"reference"`
	GatewayID  string     `json:"gateway_id"`
	VendorID   *uuid.UUID `json:"vendor_id,omitempty"`
	Outcome    Outcome    `json:"outcome"`
	Detail     string     `json:"detail,omitempty"`
	Payload    []byte     `json:"-"`
	ReceivedAt time.Time  `json:"received_at"`
}
