package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// ChannelHandler exposes sales channels, feeds and manual sync.
type ChannelHandler struct {
	sync *services.SyncService
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(sync *services.SyncService) *ChannelHandler {
	return &ChannelHandler{sync: sync}
}

func (h *ChannelHandler) Create(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	channel, err := h.sync.CreateChannel(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ChannelResponse{Success: true, Data: channel})
}

func (h *ChannelHandler) Get(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	channel, err := h.sync.GetChannel(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ChannelResponse{Success: true, Data: channel})
}

func (h *ChannelHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	channels, err := h.sync.ListChannels(c.Request.Context(), tenantID, c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ChannelListResponse{Success: true, Data: channels})
}

func (h *ChannelHandler) Update(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	channel, err := h.sync.UpdateChannel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ChannelResponse{Success: true, Data: channel})
}

func (h *ChannelHandler) AddFeed(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreateChannelFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	feed, err := h.sync.AddFeed(c.Request.Context(), tenantID, channelID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: feed})
}

func (h *ChannelHandler) ListFeeds(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	feeds, err := h.sync.ListFeeds(c.Request.Context(), tenantID, channelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ChannelFeedListResponse{Success: true, Data: feeds})
}

// Sync pushes every active feed of the channel now, regardless of sync mode.
func (h *ChannelHandler) Sync(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.sync.SyncChannel(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SyncPushResponse{Success: true, Data: result})
}
