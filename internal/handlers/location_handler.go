package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// LocationHandler exposes warehouses and bin locations.
type LocationHandler struct {
	locations *services.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

func (h *LocationHandler) CreateWarehouse(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	warehouse, err := h.locations.CreateWarehouse(c.Request.Context(), tenantID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.WarehouseResponse{Success: true, Data: warehouse})
}

func (h *LocationHandler) GetWarehouse(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	warehouse, err := h.locations.GetWarehouse(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.WarehouseResponse{Success: true, Data: warehouse})
}

func (h *LocationHandler) ListWarehouses(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	warehouses, err := h.locations.ListWarehouses(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.WarehouseListResponse{Success: true, Data: warehouses})
}

func (h *LocationHandler) UpdateWarehouse(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	warehouse, err := h.locations.UpdateWarehouse(c.Request.Context(), tenantID, id, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.WarehouseResponse{Success: true, Data: warehouse})
}

func (h *LocationHandler) CreateLocation(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	location, err := h.locations.CreateLocation(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.LocationResponse{Success: true, Data: location})
}

func (h *LocationHandler) ListLocations(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	warehouseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, offset := pagination(c)

	var locType *models.LocationType
	if raw := c.Query("type"); raw != "" {
		t := models.LocationType(raw)
		locType = &t
	}
	locations, total, err := h.locations.ListLocations(c.Request.Context(), tenantID, warehouseID, locType, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LocationListResponse{
		Success:    true,
		Data:       locations,
		Pagination: paginationMeta(limit, offset, total),
	})
}

func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.locations.DeleteLocation(c.Request.Context(), tenantID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Location deleted")})
}

// ImportTemplate serves the header row for bulk warehouse entry, as CSV or
// XLSX.
func (h *LocationHandler) ImportTemplate(c *gin.Context) {
	serveTemplate(c, "warehouses", "Warehouses", h.locations.ImportTemplate())
}

// ImportWarehouses ingests a CSV or XLSX of warehouses with per-row
// warnings.
func (h *LocationHandler) ImportWarehouses(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

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

	result, err := h.locations.ImportWarehousesCSV(c.Request.Context(), tenantID, rows, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}
