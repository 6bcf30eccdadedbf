// Package handlers wires the HTTP surface to the service layer.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
)

func stringPtr(s string) *string { return &s }

// respondError maps a service error onto the wire envelope.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    apperrors.CodeOf(err),
			Message: apperrors.MessageOf(err),
		},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		},
	})
}

// pathID parses a UUID path parameter. A false return means the response
// has already been written.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid " + name + " in path",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func paginationMeta(limit, offset int, total int64) *models.PaginationMeta {
	if limit <= 0 {
		return nil
	}
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	return &models.PaginationMeta{
		Page:       offset/limit + 1,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// actor returns the authenticated user ID for audit fields.
func actor(c *gin.Context) *string {
	if id := c.GetString("user_id"); id != "" {
		return &id
	}
	return nil
}
