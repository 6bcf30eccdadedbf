package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wms-service/internal/models"
	"wms-service/internal/repository"
	"wms-service/internal/services"
)

// InventoryHandler exposes ledger movements, balances and availability.
type InventoryHandler struct {
	ledger *services.LedgerService
	atp    *services.ATPService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(ledger *services.LedgerService, atp *services.ATPService) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, atp: atp}
}

func refsFrom(c *gin.Context, reference, notes *string) models.TxnRefs {
	return models.TxnRefs{
		Reference: reference,
		Notes:     notes,
		UserID:    actor(c),
	}
}

// Receive adds stock into on_hand at a location.
func (h *InventoryHandler) Receive(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.ledger.Receive(c.Request.Context(), tenantID, req, refsFrom(c, req.Reference, nil)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Stock received")})
}

// Adjust applies a signed correction with a mandatory reason.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.ledger.Adjust(c.Request.Context(), tenantID, req, refsFrom(c, nil, req.Notes)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Stock adjusted")})
}

// Transfer moves on_hand stock between locations and returns an undo token.
func (h *InventoryHandler) Transfer(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	resp, err := h.ledger.Transfer(c.Request.Context(), tenantID, req, refsFrom(c, req.Reference, req.Notes))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UndoTransfer reverses a transfer by its undo token.
func (h *InventoryHandler) UndoTransfer(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	token := c.Param("token")

	if err := h.ledger.UndoTransfer(c.Request.Context(), tenantID, token, refsFrom(c, nil, nil)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Transfer reversed")})
}

// VariantBalances lists every balance cell of one variant.
func (h *InventoryHandler) VariantBalances(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	balances, err := h.ledger.ListBalances(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceListResponse{Success: true, Data: balances})
}

// LocationBalances lists balance cells at one location.
func (h *InventoryHandler) LocationBalances(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, offset := pagination(c)

	balances, total, err := h.ledger.ListLocationBalances(c.Request.Context(), tenantID, id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceListResponse{
		Success:    true,
		Data:       balances,
		Pagination: paginationMeta(limit, offset, total),
	})
}

// History lists ledger transactions, newest first.
func (h *InventoryHandler) History(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	var filter repository.TransactionFilter
	if raw := c.Query("variantId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		filter.VariantID = &id
	}
	if raw := c.Query("locationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		filter.LocationID = &id
	}
	if raw := c.Query("orderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		filter.OrderID = &id
	}
	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		filter.Type = &t
	}

	txns, total, err := h.ledger.History(c.Request.Context(), tenantID, filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TransactionListResponse{
		Success:    true,
		Data:       txns,
		Pagination: paginationMeta(limit, offset, total),
	})
}

// ProductATP projects availability for every variant of a product.
func (h *InventoryHandler) ProductATP(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouseId"))
	if err != nil {
		respondBindError(c, err)
		return
	}
	figures, err := h.atp.ProductATP(c.Request.Context(), tenantID, productID, warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ATPResponse{Success: true, Data: figures})
}

// VariantATP projects availability for one variant.
func (h *InventoryHandler) VariantATP(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	variantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouseId"))
	if err != nil {
		respondBindError(c, err)
		return
	}
	figure, err := h.atp.VariantATP(c.Request.Context(), tenantID, variantID, warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ATPResponse{Success: true, Data: []models.ATPFigure{*figure}})
}
