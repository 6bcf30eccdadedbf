package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wms-service/internal/models"
	"wms-service/internal/repository"
)

func TestParseSKU(t *testing.T) {
	testCases := []struct {
		sku       string
		wantBase  string
		wantLevel models.HierarchyLevel
		wantUnits int64
	}{
		{"WIDGET", "WIDGET", models.HierarchyEach, 1},
		{"WIDGET-P6", "WIDGET", models.HierarchyPack, 6},
		{"WIDGET-B24", "WIDGET", models.HierarchyBox, 24},
		{"WIDGET-C144", "WIDGET", models.HierarchyCase, 144},
		// Dashes inside the base SKU stay with the base.
		{"ACME-WIDGET-C12", "ACME-WIDGET", models.HierarchyCase, 12},
		// Unrecognized suffix letters are part of the SKU itself.
		{"WIDGET-X12", "WIDGET-X12", models.HierarchyEach, 1},
		// A zero unit count is not a valid suffix.
		{"WIDGET-C0", "WIDGET-C0", models.HierarchyEach, 1},
		{"WIDGET-C", "WIDGET-C", models.HierarchyEach, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.sku, func(t *testing.T) {
			parsed := ParseSKU(tc.sku)
			assert.Equal(t, tc.wantBase, parsed.BaseSKU)
			assert.Equal(t, tc.wantLevel, parsed.HierarchyLevel)
			assert.Equal(t, tc.wantUnits, parsed.UnitsPerVariant)
		})
	}
}

func TestImportProductsCSV_GoodRowsLandBadRowsWarn(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalogRepository)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	service := NewCatalogService(catalog, newFakeLedgerRepo(), logger)

	productID := uuid.New()

	// Row 2: new case variant of a new product.
	catalog.On("GetVariantBySKU", ctx, testTenant, "WIDGET-C12").Return(nil, repository.ErrNotFound)
	catalog.On("GetProductByBaseSKU", ctx, testTenant, "WIDGET").Return(nil, repository.ErrNotFound)
	catalog.On("CreateProduct", ctx, mock.AnythingOfType("*models.Product")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Product).ID = productID
	}).Return(nil)
	catalog.On("GetProductByID", ctx, testTenant, productID).
		Return(&models.Product{ID: productID, TenantID: testTenant, BaseSKU: "WIDGET"}, nil)
	catalog.On("CreateVariant", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)
	catalog.On("UpdateVariant", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)

	// Row 3: SKU already owned by a different product.
	otherProduct := uuid.New()
	catalog.On("GetVariantBySKU", ctx, testTenant, "ACME-B2").
		Return(&models.ProductVariant{ID: uuid.New(), TenantID: testTenant, ProductID: otherProduct, SKU: "ACME-B2"}, nil)
	catalog.On("GetProductByID", ctx, testTenant, otherProduct).
		Return(&models.Product{ID: otherProduct, TenantID: testTenant, BaseSKU: "OTHER"}, nil)

	csvBody := strings.Join([]string{
		"sku,name,barcode",
		"WIDGET-C12,Widget Case,0123456789",
		"ACME-B2,Acme Box,",
		",Missing SKU,",
	}, "\n") + "\n"

	result, err := service.ImportProductsCSV(ctx, testTenant, strings.NewReader(csvBody))

	assert.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Len(t, result.Warnings, 2)
	assert.False(t, result.Success)
	assert.Equal(t, "ACME-B2", result.Warnings[0].SKU)
	catalog.AssertExpectations(t)
}
