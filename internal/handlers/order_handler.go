package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wms-service/internal/models"
	"wms-service/internal/repository"
	"wms-service/internal/services"
)

// OrderHandler exposes sales orders, combining and OMS settings.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Create(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SalesOrderResponse{Success: true, Data: order})
}

func (h *OrderHandler) Get(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SalesOrderResponse{Success: true, Data: order})
}

func (h *OrderHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	filter := repository.OrderFilter{Search: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		s := models.SalesOrderStatus(raw)
		filter.Status = &s
	}
	if raw := c.Query("priority"); raw != "" {
		p := models.OrderPriority(raw)
		filter.Priority = &p
	}
	if raw := c.Query("channelId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		filter.ChannelID = &id
	}
	if raw := c.Query("onHold"); raw != "" {
		v := raw == "true"
		filter.OnHold = &v
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), tenantID, filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SalesOrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: paginationMeta(limit, offset, total),
	})
}

type orderTransitionRequest struct {
	Status models.SalesOrderStatus `json:"status" binding:"required"`
}

func (h *OrderHandler) Transition(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.orders.Transition(c.Request.Context(), tenantID, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SalesOrderResponse{Success: true, Data: order})
}

// Cancel releases reservations and cancels the order.
func (h *OrderHandler) Cancel(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SalesOrderResponse{Success: true, Data: order})
}

type holdRequest struct {
	OnHold *bool `json:"onHold" binding:"required"`
}

func (h *OrderHandler) Hold(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.orders.Hold(c.Request.Context(), tenantID, id, *req.OnHold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SalesOrderResponse{Success: true, Data: order})
}

// Combine merges shippable orders for one customer and address.
func (h *OrderHandler) Combine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CombineOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	resp, err := h.orders.Combine(c.Request.Context(), tenantID, req.OrderIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Uncombine dissolves a combine group before picking starts.
func (h *OrderHandler) Uncombine(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return
	}
	if err := h.orders.Uncombine(c.Request.Context(), tenantID, groupID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Group dissolved")})
}

func (h *OrderHandler) GroupMembers(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return
	}
	orders, err := h.orders.GroupMembers(c.Request.Context(), tenantID, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SalesOrderListResponse{Success: true, Data: orders})
}

func (h *OrderHandler) GetSettings(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	settings, err := h.orders.GetSettings(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}

type settingsRequest struct {
	AutoReleaseInterval models.AutoReleaseInterval `json:"autoReleaseInterval" binding:"required"`
}

func (h *OrderHandler) UpdateSettings(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	settings, err := h.orders.UpdateSettings(c.Request.Context(), tenantID, req.AutoReleaseInterval)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}
