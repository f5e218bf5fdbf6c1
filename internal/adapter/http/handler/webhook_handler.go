package handler

import (
	"io"

	"vendor-invoicing/internal/adapter/http/dto"
	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/apperror"
	"vendor-invoicing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives payment provider callbacks. The signature gate runs
// in middleware before Handle.
type WebhookHandler struct {
	reconciler ports.ReconciliationService
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(reconciler ports.ReconciliationService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, log: log}
}

// Handle handles POST /api/v1/wallet/webhook.
//
// Business outcomes, including rejections, answer 200 so the provider stops
// retrying. Only transient faults answer 5xx.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	event, err := dto.ParseWebhook(body)
	if err != nil {
		h.log.Warn().Err(err).Int("bytes", len(body)).Msg("unparseable webhook body")
		response.OK(c, dto.WebhookAck{Outcome: string(domain.OutcomeRejected), Detail: "malformed payload"})
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), event)
	if err != nil && apperror.Retryable(err) {
		response.Error(c, err)
		return
	}

	ack := dto.WebhookAck{Outcome: string(domain.OutcomeRejected), Reference: event.Reference}
	if result != nil {
		ack.Outcome = string(result.Outcome)
		ack.Detail = result.Detail
	}
	response.OK(c, ack)
}
