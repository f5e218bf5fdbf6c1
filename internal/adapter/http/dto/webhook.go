package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"vendor-invoicing/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Event discriminators sent by the payment provider. Older deliveries use the
// dotted "event.type" key with the transaction fields at the top level (card)
// or under "transfer"; current ones use "event" with the fields under "data".
const (
	legacyEventCard     = "CARD_TRANSACTION"
	legacyEventTransfer = "Transfer"
	eventChargeComplete = "charge.completed"
	eventTransferDone   = "transfer.completed"
)

type webhookEnvelope struct {
	LegacyType string          `json:"event.type"`
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data"`
	Transfer   json.RawMessage `json:"transfer"`
	webhookFields
}

type webhookFields struct {
	ID          json.Number     `json:"id"`
	TxRef       string          `json:"tx_ref"`
	LegacyTxRef string          `json:"txRef"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
}

// ParseWebhook reduces a provider notification to a domain.WebhookEvent.
// Unrecognised discriminators yield EventKindUnknown, not an error; only a
// body that is not a JSON object is rejected.
func ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("decode webhook body: %w", err)
	}

	rawType := env.LegacyType
	if rawType == "" {
		rawType = env.Event
	}
	ev := domain.WebhookEvent{Kind: classify(rawType), RawType: rawType, Payload: body}

	fields := env.webhookFields
	switch {
	case len(env.Data) > 0 && string(env.Data) != "null":
		if err := json.Unmarshal(env.Data, &fields); err != nil {
			return domain.WebhookEvent{}, fmt.Errorf("decode webhook data: %w", err)
		}
	case ev.Kind == domain.EventKindTransfer && len(env.Transfer) > 0 && string(env.Transfer) != "null":
		if err := json.Unmarshal(env.Transfer, &fields); err != nil {
			return domain.WebhookEvent{}, fmt.Errorf("decode webhook transfer: %w", err)
		}
	}

	ev.GatewayID = fields.ID.String()
	ev.Amount = fields.Amount
	ev.Status = fields.Status
	switch ev.Kind {
	case domain.EventKindCardPayment:
		ev.Reference = fields.TxRef
		if ev.Reference == "" {
			ev.Reference = fields.LegacyTxRef
		}
	case domain.EventKindTransfer:
		ev.Reference = fields.Reference
	}
	ev.Reference = strings.TrimSpace(ev.Reference)
	return ev, nil
}

func classify(rawType string) domain.EventKind {
	switch rawType {
	case legacyEventCard, eventChargeComplete:
		return domain.EventKindCardPayment
	case legacyEventTransfer, eventTransferDone:
		return domain.EventKindTransfer
	}
	return domain.EventKindUnknown
}
