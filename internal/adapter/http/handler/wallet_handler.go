package handler

import (
	"time"

	"vendor-invoicing/internal/adapter/http/dto"
	"vendor-invoicing/internal/adapter/http/middleware"
	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/apperror"
	"vendor-invoicing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultHistoryPageSize = 20

// WalletHandler handles wallet, bank and withdrawal endpoints.
type WalletHandler struct {
	walletSvc     ports.WalletService
	withdrawalSvc ports.WithdrawalService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, withdrawalSvc ports.WithdrawalService) *WalletHandler {
	return &WalletHandler{
		walletSvc:     walletSvc,
		withdrawalSvc: withdrawalSvc,
	}
}

// CreateWallet handles POST /api/v1/wallet.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), vendorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wallet)
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	summary, err := h.walletSvc.GetWallet(c.Request.Context(), vendorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// History handles GET /api/v1/wallet/history.
func (h *WalletHandler) History(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultHistoryPageSize
	}

	txns, total, err := h.walletSvc.ListTransactions(c.Request.Context(), ports.TransactionListParams{
		VendorID: vendorID,
		Status:   q.StatusFilter(),
		Type:     q.TypeFilter(),
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	response.Page(c, items, q.Page, q.PageSize, total)
}

// SetPin handles POST /api/v1/wallet/pin.
func (h *WalletHandler) SetPin(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	var req dto.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.walletSvc.SetTransactionPin(c.Request.Context(), vendorID, req.Pin); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Transaction pin set"})
}

// VerifyPin handles POST /api/v1/wallet/pin/verify.
func (h *WalletHandler) VerifyPin(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	var req dto.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.walletSvc.VerifyTransactionPin(c.Request.Context(), vendorID, req.Pin); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"valid": true})
}

// ListBanks handles GET /api/v1/wallet/banks.
func (h *WalletHandler) ListBanks(c *gin.Context) {
	banks, err := h.walletSvc.ListBanks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, banks)
}

// VerifyAccount handles POST /api/v1/wallet/verify-account.
func (h *WalletHandler) VerifyAccount(c *gin.Context) {
	var req dto.VerifyAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.walletSvc.VerifyBankAccount(c.Request.Context(), req.AccountNumber, req.BankCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account)
}

// Withdraw handles POST /api/v1/wallet/withdraw. The answer only
// acknowledges the transfer; the wallet moves when the gateway confirms it.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.withdrawalSvc.Withdraw(c.Request.Context(), ports.WithdrawalRequest{
		VendorID:      vendorID,
		Password:      req.Password,
		Pin:           req.Pin,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// currentVendor writes the 401 itself when no vendor is on the context.
func currentVendor(c *gin.Context) (uuid.UUID, bool) {
	vendorID, ok := middleware.VendorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
	}
	return vendorID, ok
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:              tx.ID.String(),
		ReferenceID:     tx.ReferenceID,
		Amount:          tx.Amount.StringFixed(2),
		Type:            string(tx.Type),
		Status:          string(tx.Status),
		TransacterName:  tx.TransacterName,
		TransacterEmail: tx.TransacterEmail,
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
	}
}
