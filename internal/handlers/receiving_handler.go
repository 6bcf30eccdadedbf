package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// ReceivingHandler exposes receiving orders, lines and CSV import.
type ReceivingHandler struct {
	receiving *services.ReceivingService
}

// NewReceivingHandler creates a new ReceivingHandler.
func NewReceivingHandler(receiving *services.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{receiving: receiving}
}

func (h *ReceivingHandler) Create(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateReceivingOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.receiving.CreateOrder(c.Request.Context(), tenantID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ReceivingOrderResponse{Success: true, Data: order})
}

func (h *ReceivingHandler) Get(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.receiving.GetOrder(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceivingOrderResponse{Success: true, Data: order})
}

func (h *ReceivingHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	var status *models.ReceivingOrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ReceivingOrderStatus(raw)
		status = &s
	}
	orders, total, err := h.receiving.ListOrders(c.Request.Context(), tenantID, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceivingOrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: paginationMeta(limit, offset, total),
	})
}

type receivingTransitionRequest struct {
	Status models.ReceivingOrderStatus `json:"status" binding:"required"`
}

func (h *ReceivingHandler) Transition(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req receivingTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.receiving.Transition(c.Request.Context(), tenantID, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceivingOrderResponse{Success: true, Data: order})
}

// Close posts all counted lines to the ledger and rolls the source PO up.
func (h *ReceivingHandler) Close(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.receiving.Close(c.Request.Context(), tenantID, id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceivingOrderResponse{Success: true, Data: order})
}

func (h *ReceivingHandler) AddLine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreateReceivingLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := h.receiving.AddLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: line})
}

func (h *ReceivingHandler) UpdateLine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(c, "lineId")
	if !ok {
		return
	}
	var req models.UpdateReceivingLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := h.receiving.UpdateLine(c.Request.Context(), tenantID, id, lineID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: line})
}

func (h *ReceivingHandler) DeleteLine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(c, "lineId")
	if !ok {
		return
	}
	if err := h.receiving.DeleteLine(c.Request.Context(), tenantID, id, lineID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Line deleted")})
}

// ImportTemplate serves the header row for bulk line entry, as CSV or XLSX.
func (h *ReceivingHandler) ImportTemplate(c *gin.Context) {
	serveTemplate(c, "receiving", "Receiving Lines", h.receiving.ImportTemplate())
}

// ImportLines ingests a CSV or XLSX upload of receiving lines, reporting
// per-row errors without aborting the rest of the file.
func (h *ReceivingHandler) ImportLines(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILE_REQUIRED", Message: "Multipart field 'file' is required"},
		})
		return
	}
	defer file.Close()

	rows, err := importFileRows(file, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "PARSE_ERROR", Message: err.Error()},
		})
		return
	}

	result, err := h.receiving.ImportLinesCSV(c.Request.Context(), tenantID, id, rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}
