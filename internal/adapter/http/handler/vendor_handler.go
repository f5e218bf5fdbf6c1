package handler

import (
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

// VendorHandler handles the authenticated vendor's profile endpoints.
type VendorHandler struct {
	vendorSvc ports.VendorService
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(vendorSvc ports.VendorService) *VendorHandler {
	return &VendorHandler{vendorSvc: vendorSvc}
}

// GetProfile handles GET /api/v1/vendors/me.
func (h *VendorHandler) GetProfile(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	profile, err := h.vendorSvc.GetProfile(c.Request.Context(), vendorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// RecentActivity handles GET /api/v1/vendors/me/activity.
func (h *VendorHandler) RecentActivity(c *gin.Context) {
	vendorID, ok := currentVendor(c)
	if !ok {
		return
	}

	entries, err := h.vendorSvc.RecentActivity(c.Request.Context(), vendorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}
