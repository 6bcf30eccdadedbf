package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// ShipmentHandler exposes inbound shipments, costs and landed cost results.
type ShipmentHandler struct {
	shipments *services.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(shipments *services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

func (h *ShipmentHandler) Create(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	shipment, err := h.shipments.CreateShipment(c.Request.Context(), tenantID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ShipmentResponse{Success: true, Data: shipment})
}

func (h *ShipmentHandler) Get(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	shipment, err := h.shipments.GetShipment(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ShipmentResponse{Success: true, Data: shipment})
}

func (h *ShipmentHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	var status *models.InboundShipmentStatus
	if raw := c.Query("status"); raw != "" {
		s := models.InboundShipmentStatus(raw)
		status = &s
	}
	shipments, total, err := h.shipments.ListShipments(c.Request.Context(), tenantID, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ShipmentListResponse{
		Success:    true,
		Data:       shipments,
		Pagination: paginationMeta(limit, offset, total),
	})
}

func (h *ShipmentHandler) AddLine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreateShipmentLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := h.shipments.AddLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: line})
}

func (h *ShipmentHandler) RemoveLine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(c, "lineId")
	if !ok {
		return
	}
	if err := h.shipments.RemoveLine(c.Request.Context(), tenantID, id, lineID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Line removed")})
}

func (h *ShipmentHandler) AddCost(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreateShipmentCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cost, err := h.shipments.AddCost(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: cost})
}

type updateCostRequest struct {
	ActualCents *int64                   `json:"actualCents,omitempty"`
	Method      *models.AllocationMethod `json:"method,omitempty"`
}

// UpdateCost records an actual amount or overrides the allocation method.
func (h *ShipmentHandler) UpdateCost(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	costID, ok := pathID(c, "costId")
	if !ok {
		return
	}
	var req updateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cost, err := h.shipments.UpdateCost(c.Request.Context(), tenantID, id, costID, req.ActualCents, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: cost})
}

type shipmentTransitionRequest struct {
	Status models.InboundShipmentStatus `json:"status" binding:"required"`
}

// Transition moves a shipment along its lifecycle. Closing finalizes landed
// costs and freezes the shipment.
func (h *ShipmentHandler) Transition(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req shipmentTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	shipment, err := h.shipments.Transition(c.Request.Context(), tenantID, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ShipmentResponse{Success: true, Data: shipment})
}

// Allocate recomputes provisional cost allocations across lines.
func (h *ShipmentHandler) Allocate(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	shipment, err := h.shipments.Allocate(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ShipmentResponse{Success: true, Data: shipment})
}

func (h *ShipmentHandler) ListAllocations(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	allocations, err := h.shipments.ListAllocations(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: allocations})
}

func (h *ShipmentHandler) ListSnapshots(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshots, err := h.shipments.ListSnapshots(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: snapshots})
}
