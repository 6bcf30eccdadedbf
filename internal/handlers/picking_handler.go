package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// PickingHandler exposes wave generation and pick confirmation.
type PickingHandler struct {
	picking *services.PickingService
}

// NewPickingHandler creates a new PickingHandler.
func NewPickingHandler(picking *services.PickingService) *PickingHandler {
	return &PickingHandler{picking: picking}
}

// GenerateWave plans pick tasks for a batch of allocated orders.
func (h *PickingHandler) GenerateWave(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.GenerateWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	wave, err := h.picking.GenerateWave(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PickWaveResponse{Success: true, Data: wave})
}

func (h *PickingHandler) Get(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	wave, err := h.picking.GetWave(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PickWaveResponse{Success: true, Data: wave})
}

func (h *PickingHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	var status *models.PickWaveStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PickWaveStatus(raw)
		status = &s
	}
	waves, total, err := h.picking.ListWaves(c.Request.Context(), tenantID, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PickWaveListResponse{
		Success:    true,
		Data:       waves,
		Pagination: paginationMeta(limit, offset, total),
	})
}

type assignTaskRequest struct {
	Assignee string `json:"assignee" binding:"required"`
}

func (h *PickingHandler) AssignTask(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	var req assignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	task, err := h.picking.AssignTask(c.Request.Context(), tenantID, taskID, req.Assignee)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: task})
}

// ConfirmPick records the picked quantity on a task; shortfalls either spawn
// follow-up tasks or push the line to exception.
func (h *PickingHandler) ConfirmPick(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	waveID, ok := pathID(c, "id")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	var req models.ConfirmPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.PickedBy == nil {
		req.PickedBy = actor(c)
	}
	wave, err := h.picking.ConfirmPick(c.Request.Context(), tenantID, waveID, taskID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PickWaveResponse{Success: true, Data: wave})
}

func (h *PickingHandler) CancelWave(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	wave, err := h.picking.CancelWave(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PickWaveResponse{Success: true, Data: wave})
}
