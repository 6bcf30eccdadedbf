package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// ReplenHandler exposes replenishment rules, sweeps and tasks.
type ReplenHandler struct {
	replen *services.ReplenService
}

// NewReplenHandler creates a new ReplenHandler.
func NewReplenHandler(replen *services.ReplenService) *ReplenHandler {
	return &ReplenHandler{replen: replen}
}

// ========== Rules ==========

func (h *ReplenHandler) CreateRule(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateReplenRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	rule, err := h.replen.CreateRule(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ReplenRuleResponse{Success: true, Data: rule})
}

func (h *ReplenHandler) GetRule(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rule, err := h.replen.GetRule(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReplenRuleResponse{Success: true, Data: rule})
}

func (h *ReplenHandler) ListRules(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	rules, total, err := h.replen.ListRules(c.Request.Context(), tenantID, c.Query("active") == "true", limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReplenRuleListResponse{
		Success:    true,
		Data:       rules,
		Pagination: paginationMeta(limit, offset, total),
	})
}

func (h *ReplenHandler) DeleteRule(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.replen.DeleteRule(c.Request.Context(), tenantID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Rule deleted")})
}

// ImportRulesTemplate serves the header row for bulk rule entry, as CSV or
// XLSX.
func (h *ReplenHandler) ImportRulesTemplate(c *gin.Context) {
	serveTemplate(c, "replen_rules", "Replen Rules", h.replen.ImportTemplate())
}

// ImportRules ingests a CSV or XLSX of min/max rules for one warehouse.
func (h *ReplenHandler) ImportRules(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	warehouseID, err := uuid.Parse(c.Query("warehouseId"))
	if err != nil {
		respondBindError(c, err)
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

	result, err := h.replen.ImportRulesCSV(c.Request.Context(), tenantID, warehouseID, rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ========== Sweeps and tasks ==========

type sweepRequest struct {
	WarehouseID uuid.UUID `json:"warehouseId" binding:"required"`
}

// Sweep evaluates every active rule in a warehouse and opens tasks for the
// ones below minimum.
func (h *ReplenHandler) Sweep(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	tasks, err := h.replen.Sweep(c.Request.Context(), tenantID, req.WarehouseID, models.ReplenTriggerManual)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReplenTaskListResponse{Success: true, Data: tasks})
}

func (h *ReplenHandler) GetTask(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.replen.GetTask(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: task})
}

func (h *ReplenHandler) ListTasks(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	var status *models.ReplenTaskStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ReplenTaskStatus(raw)
		status = &s
	}
	tasks, total, err := h.replen.ListTasks(c.Request.Context(), tenantID, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReplenTaskListResponse{
		Success:    true,
		Data:       tasks,
		Pagination: paginationMeta(limit, offset, total),
	})
}

func (h *ReplenHandler) UpdateTask(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateReplenTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	task, err := h.replen.UpdateTask(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: task})
}

// CompleteTask executes the stock movement behind a task, including case
// break conversion when source and pick variants differ.
func (h *ReplenHandler) CompleteTask(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.replen.CompleteTask(c.Request.Context(), tenantID, id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: task})
}
