package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wms-service/internal/models"
	"wms-service/internal/services"
)

// CatalogHandler exposes products, variants and SKU lookup.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), tenantID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: product})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	products, total, err := h.catalog.ListProducts(c.Request.Context(), tenantID, c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: paginationMeta(limit, offset, total),
	})
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), tenantID, id, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

func (h *CatalogHandler) AddVariant(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	variant, err := h.catalog.AddVariant(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.VariantResponse{Success: true, Data: variant})
}

func (h *CatalogHandler) DeleteVariant(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteVariant(c.Request.Context(), tenantID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Variant deleted")})
}

// ResolveSKU resolves a raw SKU string, including suffixed case/pack forms.
func (h *CatalogHandler) ResolveSKU(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	code := c.Param("code")

	variant, err := h.catalog.ResolveSKU(c.Request.Context(), tenantID, code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VariantResponse{Success: true, Data: variant})
}

func (h *CatalogHandler) SearchSKUs(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	variants, err := h.catalog.SearchSKUs(c.Request.Context(), tenantID, c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: variants})
}

// ImportTemplate serves the header row for bulk product entry, as CSV or
// XLSX.
func (h *CatalogHandler) ImportTemplate(c *gin.Context) {
	serveTemplate(c, "products", "Products", h.catalog.ImportTemplate())
}

// ImportProducts ingests a CSV or XLSX of suffixed SKUs, creating products
// and variants with per-row warnings.
func (h *CatalogHandler) ImportProducts(c *gin.Context) {
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

	result, err := h.catalog.ImportProductsCSV(c.Request.Context(), tenantID, rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}
