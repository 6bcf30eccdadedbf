package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// PurchasingHandler exposes vendors and purchase orders.
type PurchasingHandler struct {
	purchasing *services.PurchasingService
}

// NewPurchasingHandler creates a new PurchasingHandler.
func NewPurchasingHandler(purchasing *services.PurchasingService) *PurchasingHandler {
	return &PurchasingHandler{purchasing: purchasing}
}

// ========== Vendors ==========

func (h *PurchasingHandler) CreateVendor(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	vendor, err := h.purchasing.CreateVendor(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.VendorResponse{Success: true, Data: vendor})
}

func (h *PurchasingHandler) GetVendor(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	vendor, err := h.purchasing.GetVendor(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VendorResponse{Success: true, Data: vendor})
}

func (h *PurchasingHandler) ListVendors(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	vendors, total, err := h.purchasing.ListVendors(c.Request.Context(), tenantID, c.Query("active") == "true", limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VendorListResponse{
		Success:    true,
		Data:       vendors,
		Pagination: paginationMeta(limit, offset, total),
	})
}

type vendorProductRequest struct {
	VariantID     uuid.UUID `json:"variantId" binding:"required"`
	VendorSKU     *string   `json:"vendorSku,omitempty"`
	UnitCostCents int64     `json:"unitCostCents" binding:"gte=0"`
	IsPreferred   bool      `json:"isPreferred"`
	LeadTimeDays  *int      `json:"leadTimeDays,omitempty"`
}

// SetVendorProduct upserts one vendor/variant sourcing row.
func (h *PurchasingHandler) SetVendorProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req vendorProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	vp := &models.VendorProduct{
		TenantID:      tenantID,
		VendorID:      vendorID,
		VariantID:     req.VariantID,
		VendorSKU:     req.VendorSKU,
		UnitCostCents: req.UnitCostCents,
		IsPreferred:   req.IsPreferred,
		LeadTimeDays:  req.LeadTimeDays,
	}
	if err := h.purchasing.SetVendorProduct(c.Request.Context(), tenantID, vp); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: vp})
}

// ========== Purchase orders ==========

func (h *PurchasingHandler) CreatePO(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	po, err := h.purchasing.CreatePO(c.Request.Context(), tenantID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PurchaseOrderResponse{Success: true, Data: po})
}

func (h *PurchasingHandler) GetPO(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	po, err := h.purchasing.GetPO(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseOrderResponse{Success: true, Data: po})
}

func (h *PurchasingHandler) ListPOs(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	var status *models.PurchaseOrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PurchaseOrderStatus(raw)
		status = &s
	}
	var vendorID *uuid.UUID
	if raw := c.Query("vendorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		vendorID = &id
	}

	pos, total, err := h.purchasing.ListPOs(c.Request.Context(), tenantID, status, vendorID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseOrderListResponse{
		Success:    true,
		Data:       pos,
		Pagination: paginationMeta(limit, offset, total),
	})
}

type poLinesRequest struct {
	Lines []models.CreatePurchaseOrderLineRequest `json:"lines" binding:"required,min=1"`
}

// UpdateDraftLines replaces the line set of a draft PO.
func (h *PurchasingHandler) UpdateDraftLines(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req poLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	po, err := h.purchasing.UpdateDraftLines(c.Request.Context(), tenantID, id, req.Lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseOrderResponse{Success: true, Data: po})
}

// Submit runs approval routing on a draft PO.
func (h *PurchasingHandler) Submit(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	po, err := h.purchasing.Submit(c.Request.Context(), tenantID, id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseOrderResponse{Success: true, Data: po})
}

type poTransitionRequest struct {
	Status models.PurchaseOrderStatus `json:"status" binding:"required"`
}

// Transition moves a PO through its status machine.
func (h *PurchasingHandler) Transition(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req poTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	po, err := h.purchasing.Transition(c.Request.Context(), tenantID, id, req.Status, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseOrderResponse{Success: true, Data: po})
}

// ReviseLines amends a sent PO and records a revision diff.
func (h *PurchasingHandler) ReviseLines(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req poLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	po, err := h.purchasing.ReviseLines(c.Request.Context(), tenantID, id, req.Lines, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseOrderResponse{Success: true, Data: po})
}

func (h *PurchasingHandler) ListRevisions(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	revisions, err := h.purchasing.ListRevisions(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: revisions})
}

// Reorder turns low-stock suggestions into draft POs grouped by vendor.
func (h *PurchasingHandler) Reorder(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	pos, err := h.purchasing.Reorder(c.Request.Context(), tenantID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PurchaseOrderListResponse{Success: true, Data: pos})
}

// OnOrder reports open on-order quantities for the given variants.
func (h *PurchasingHandler) OnOrder(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req struct {
		VariantIDs []uuid.UUID `json:"variantIds" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	summaries, err := h.purchasing.OnOrder(c.Request.Context(), tenantID, req.VariantIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: summaries})
}
