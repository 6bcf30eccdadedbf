package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"wms-service/internal/events"
)

// HealthHandler reports liveness and dependency readiness.
type HealthHandler struct {
	db        *gorm.DB
	redis     *redis.Client
	publisher *events.Publisher
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, publisher *events.Publisher) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, publisher: publisher}
}

// Health returns basic liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "wms-service",
	})
}

// Ready checks the database, session store and event bus.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = gin.H{"status": "unhealthy", "error": err.Error()}
			healthy = false
		} else {
			checks["redis"] = gin.H{"status": "healthy"}
		}
	}

	if h.publisher != nil {
		if h.publisher.IsConnected() {
			checks["nats"] = gin.H{"status": "healthy"}
		} else {
			// Event publishing degrades gracefully, not a readiness failure.
			checks["nats"] = gin.H{"status": "degraded"}
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "wms-service",
		"checks":  checks,
	})
}
