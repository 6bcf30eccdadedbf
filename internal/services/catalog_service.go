package services

import (
	"context"
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// skuSuffixPattern matches UOM-suffixed SKUs such as "WIDGET-C12": the base
// SKU, a hierarchy letter and the units-per-variant count.
var skuSuffixPattern = regexp.MustCompile(`^(.+)-([PBC])(\d+)$`)

// ParsedSKU is the decomposition of an imported SKU.
type ParsedSKU struct {
	BaseSKU         string
	HierarchyLevel  models.HierarchyLevel
	UnitsPerVariant int64
}

// ParseSKU decomposes a SKU into base and UOM suffix. SKUs without a
// recognized suffix are level-1 Each variants of themselves.
func ParseSKU(sku string) ParsedSKU {
	m := skuSuffixPattern.FindStringSubmatch(sku)
	if m == nil {
		return ParsedSKU{BaseSKU: sku, HierarchyLevel: models.HierarchyEach, UnitsPerVariant: 1}
	}
	units, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil || units < 1 {
		return ParsedSKU{BaseSKU: sku, HierarchyLevel: models.HierarchyEach, UnitsPerVariant: 1}
	}
	level := models.HierarchyEach
	switch m[2] {
	case "P":
		level = models.HierarchyPack
	case "B":
		level = models.HierarchyBox
	case "C":
		level = models.HierarchyCase
	}
	return ParsedSKU{BaseSKU: m[1], HierarchyLevel: level, UnitsPerVariant: units}
}

// CatalogService handles product and variant business logic
type CatalogService struct {
	repo   repository.CatalogRepositoryInterface
	ledger repository.LedgerRepositoryInterface
	logger *logrus.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(repo repository.CatalogRepositoryInterface, ledger repository.LedgerRepositoryInterface, logger *logrus.Logger) *CatalogService {
	return &CatalogService{repo: repo, ledger: ledger, logger: logger}
}

// CreateProduct creates a product with an implicit level-1 Each variant.
func (s *CatalogService) CreateProduct(ctx context.Context, tenantID string, req models.CreateProductRequest, createdBy *string) (*models.Product, error) {
	if _, err := s.repo.GetProductByBaseSKU(ctx, tenantID, req.BaseSKU); err == nil {
		return nil, apperrors.Conflict("DUPLICATE_BASE_SKU", "a product with this base SKU already exists")
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	product := &models.Product{
		TenantID:          tenantID,
		BaseSKU:           req.BaseSKU,
		Name:              req.Name,
		Category:          req.Category,
		Brand:             req.Brand,
		ExternalProductID: req.ExternalProductID,
		Metadata:          req.Metadata,
		CreatedBy:         createdBy,
		Variants: []models.ProductVariant{{
			TenantID:        tenantID,
			SKU:             req.BaseSKU,
			Name:            req.Name,
			UnitsPerVariant: 1,
			HierarchyLevel:  models.HierarchyEach,
		}},
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves one product with its variants.
func (s *CatalogService) GetProduct(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("PRODUCT_NOT_FOUND", "product not found")
	}
	return product, err
}

// ListProducts lists products with optional search.
func (s *CatalogService) ListProducts(ctx context.Context, tenantID, search string, limit, offset int) ([]models.Product, int64, error) {
	return s.repo.ListProducts(ctx, tenantID, search, limit, offset)
}

// UpdateProduct applies a partial update.
func (s *CatalogService) UpdateProduct(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateProductRequest, updatedBy *string) (*models.Product, error) {
	product, err := s.GetProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = req.Category
	}
	if req.Brand != nil {
		product.Brand = req.Brand
	}
	if req.ExternalProductID != nil {
		product.ExternalProductID = req.ExternalProductID
	}
	if req.Metadata != nil {
		product.Metadata = req.Metadata
	}
	product.UpdatedBy = updatedBy
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// AddVariant attaches a new UOM variant to a product. SKU and barcode must be
// unique across the tenant.
func (s *CatalogService) AddVariant(ctx context.Context, tenantID string, productID uuid.UUID, req models.CreateVariantRequest) (*models.ProductVariant, error) {
	if _, err := s.repo.GetProductByID(ctx, tenantID, productID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("PRODUCT_NOT_FOUND", "product not found")
		}
		return nil, err
	}
	if existing, err := s.repo.GetVariantBySKU(ctx, tenantID, req.SKU); err == nil {
		if existing.ProductID != productID {
			return nil, apperrors.Conflict("SKU_OWNED_BY_OTHER_PRODUCT", "SKU already belongs to another product")
		}
		return nil, apperrors.Conflict("DUPLICATE_SKU", "a variant with this SKU already exists")
	} else if err != repository.ErrNotFound {
		return nil, err
	}
	if req.Barcode != nil && *req.Barcode != "" {
		if _, err := s.repo.GetVariantByBarcode(ctx, tenantID, *req.Barcode); err == nil {
			return nil, apperrors.Conflict("DUPLICATE_BARCODE", "a variant with this barcode already exists")
		} else if err != repository.ErrNotFound {
			return nil, err
		}
	}

	level := models.HierarchyEach
	if req.HierarchyLevel != nil {
		level = *req.HierarchyLevel
	} else {
		level = ParseSKU(req.SKU).HierarchyLevel
	}
	if level == models.HierarchyEach && req.UnitsPerVariant != 1 {
		return nil, apperrors.Validation("INVALID_UNITS", "level-1 variants must have exactly 1 unit per variant")
	}

	variant := &models.ProductVariant{
		TenantID:                tenantID,
		ProductID:               productID,
		SKU:                     req.SKU,
		Name:                    req.Name,
		UnitsPerVariant:         req.UnitsPerVariant,
		HierarchyLevel:          level,
		Barcode:                 req.Barcode,
		ExternalVariantID:       req.ExternalVariantID,
		ExternalInventoryItemID: req.ExternalInventoryItemID,
		WeightGrams:             req.WeightGrams,
		LengthMM:                req.LengthMM,
		WidthMM:                 req.WidthMM,
		HeightMM:                req.HeightMM,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// ResolveSKU finds a variant by SKU, falling back to barcode lookup so
// scanner input resolves either way.
func (s *CatalogService) ResolveSKU(ctx context.Context, tenantID, code string) (*models.ProductVariant, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation("EMPTY_SKU", "sku or barcode is required")
	}
	variant, err := s.repo.GetVariantBySKU(ctx, tenantID, code)
	if err == nil {
		return variant, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}
	variant, err = s.repo.GetVariantByBarcode(ctx, tenantID, code)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("SKU_NOT_FOUND", "no variant matches "+code)
	}
	return variant, err
}

// ImportVariant resolves an external SKU into a product/variant pair,
// creating both as needed. A SKU already owned by a different product is
// refused rather than silently moved.
func (s *CatalogService) ImportVariant(ctx context.Context, tenantID, sku, name string) (*models.ProductVariant, error) {
	parsed := ParseSKU(sku)

	if existing, err := s.repo.GetVariantBySKU(ctx, tenantID, sku); err == nil {
		product, perr := s.repo.GetProductByID(ctx, tenantID, existing.ProductID)
		if perr != nil {
			return nil, perr
		}
		if product.BaseSKU != parsed.BaseSKU {
			return nil, apperrors.Conflict("SKU_OWNED_BY_OTHER_PRODUCT",
				"SKU "+sku+" already exists under product "+product.BaseSKU)
		}
		return existing, nil
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	product, err := s.repo.GetProductByBaseSKU(ctx, tenantID, parsed.BaseSKU)
	if err == repository.ErrNotFound {
		product, err = s.CreateProduct(ctx, tenantID, models.CreateProductRequest{
			BaseSKU: parsed.BaseSKU,
			Name:    name,
		}, nil)
		if err != nil {
			return nil, err
		}
		if parsed.HierarchyLevel == models.HierarchyEach {
			return &product.Variants[0], nil
		}
	} else if err != nil {
		return nil, err
	}

	return s.AddVariant(ctx, tenantID, product.ID, models.CreateVariantRequest{
		SKU:             sku,
		Name:            name,
		UnitsPerVariant: parsed.UnitsPerVariant,
		HierarchyLevel:  &parsed.HierarchyLevel,
	})
}

// DeleteVariant removes a variant unless it still carries inventory.
func (s *CatalogService) DeleteVariant(ctx context.Context, tenantID string, id uuid.UUID) error {
	balances, err := s.ledger.ListBalancesByVariant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	for _, b := range balances {
		if b.Quantity != 0 {
			return apperrors.Conflict("VARIANT_IN_USE", "variant still carries inventory")
		}
	}
	err = s.repo.DeleteVariant(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("VARIANT_NOT_FOUND", "variant not found")
	}
	return err
}

// ========== Bulk product import ==========

// productImportHeader is the column order of the product CSV template.
var productImportHeader = []string{"sku", "name", "barcode"}

// ImportTemplate returns the CSV header row for bulk product import.
func (s *CatalogService) ImportTemplate() string {
	return strings.Join(productImportHeader, ",") + "\n"
}

// ImportProductsCSV bulk-loads products and variants from suffixed SKUs.
// Bad rows produce warnings; good rows still land.
func (s *CatalogService) ImportProductsCSV(ctx context.Context, tenantID string, r io.Reader) (*models.ProductImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Validation("INVALID_CSV", "could not read CSV header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"sku", "name"} {
		if _, ok := col[required]; !ok {
			return nil, apperrors.Validation("INVALID_CSV", "CSV is missing the "+required+" column")
		}
	}
	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &models.ProductImportResult{Success: true}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Warnings = append(result.Warnings, models.ProductImportWarning{Row: row, Message: err.Error()})
			continue
		}
		result.TotalRows++

		sku := field(record, "sku")
		name := field(record, "name")
		if sku == "" || name == "" {
			result.Warnings = append(result.Warnings, models.ProductImportWarning{Row: row, SKU: sku, Message: "sku and name are required"})
			continue
		}
		variant, err := s.ImportVariant(ctx, tenantID, sku, name)
		if err != nil {
			result.Warnings = append(result.Warnings, models.ProductImportWarning{Row: row, SKU: sku, Message: apperrors.MessageOf(err)})
			continue
		}
		if barcode := field(record, "barcode"); barcode != "" && variant.Barcode == nil {
			variant.Barcode = &barcode
			if err := s.repo.UpdateVariant(ctx, variant); err != nil {
				result.Warnings = append(result.Warnings, models.ProductImportWarning{Row: row, SKU: sku, Message: "could not set barcode: " + err.Error()})
				continue
			}
		}
		result.CreatedCount++
	}
	result.Success = len(result.Warnings) == 0
	return result, nil
}

// SearchSKUs serves the scan/autocomplete endpoint.
func (s *CatalogService) SearchSKUs(ctx context.Context, tenantID, query string, limit int) ([]models.ProductVariant, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.repo.SearchSKUs(ctx, tenantID, query, limit)
}
