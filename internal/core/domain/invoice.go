package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// PaymentReferencePrefix prefixes the invoice id in gateway payment references.
const PaymentReferencePrefix = "FLW-TRE-"

// Client is a vendor-scoped invoicing contact.
type Client struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice is a bill issued by a vendor to one of its clients.
type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	ClientID    uuid.UUID       `json:"client_id"`
	Status      InvoiceStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     time.Time       `json:"due_date"`
	ClientName  string          `json:"client_name"`
	ClientEmail string          `json:"client_email"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsPaid reports whether the invoice was already settled.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// PaymentReference encodes an invoice id as a gateway tx_ref.
func PaymentReference(invoiceID uuid.UUID) string {
	return PaymentReferencePrefix + invoiceID.String()
}

// InvoiceIDFromReference decodes the invoice id carried by a payment reference.
func InvoiceIDFromReference(ref string) (uuid.UUID, bool) {
	if !strings.HasPrefix(ref, PaymentReferencePrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(ref, PaymentReferencePrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
