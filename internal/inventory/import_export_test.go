package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func authAs(userID uint, role models.UserRole, branchID *uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, userID)
		c.Locals(auth.CtxUserRoleKey, role)
		c.Locals(auth.CtxBranchIDKey, branchID)
		return c.Next()
	}
}

func newImportApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(authAs(1, models.RoleSuperAdmin, nil))
	app.Post("/api/admin/products/import", ImportProductsHandler())
	app.Get("/api/admin/products/export", ExportProductsHandler())
	return app
}

// buildWorkbook: başlık satırı + veri satırlarından xlsx üretir.
func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func uploadWorkbook(t *testing.T, app *fiber.App, path, filename string, content *bytes.Buffer) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestNormalizeHeader(t *testing.T) {
	require.Equal(t, "product name", normalizeHeader(" Product_Name "))
	require.Equal(t, "low stock threshold", normalizeHeader("Low  Stock   Threshold"))
	require.Equal(t, "sku", normalizeHeader("SKU"))
}

func TestImportCreatesAndUpdatesProducts(t *testing.T) {
	db := setupTestDB(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)
	category := models.ProductCategory{Name: "Bakliyat"}
	require.NoError(t, db.Create(&category).Error)
	supplier := models.Supplier{Name: "Anadolu Gıda", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)

	// SKU eşleşen ürün güncellenecek
	existing := models.Product{Name: "Eski İsim", SKU: "NHT-1", IsActive: true}
	require.NoError(t, db.Create(&existing).Error)

	workbook := buildWorkbook(t, [][]any{
		{"Product Name", "SKU", "Category", "Supplier", "Cost Price", "Stock", "Branch"},
		{"Nohut 1kg", "NHT-1", "Bakliyat", "Anadolu Gıda", "3.50", 25, "Merkez"},
		{"Mercimek 1kg", "MRC-1", "Bakliyat", "Bilinmeyen Tedarikçi", "4.00", 10, "Merkez"},
		{"Bozuk Satır", "BZK-1", "", "", "fiyat değil", "", ""},
	})

	app := newImportApp()
	resp := uploadWorkbook(t, app, "/api/admin/products/import", "urunler.xlsx", workbook)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result ImportResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 1, result.CreatedCount)
	require.Equal(t, 1, result.UpdatedCount)
	require.Equal(t, 1, result.SkippedCount)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "Satır 4")
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "Bilinmeyen Tedarikçi")

	var updated models.Product
	require.NoError(t, db.Where("sku = ?", "NHT-1").First(&updated).Error)
	require.Equal(t, "Nohut 1kg", updated.Name)
	require.NotNil(t, updated.CategoryID)
	require.Equal(t, category.ID, *updated.CategoryID)

	var record models.InventoryRecord
	require.NoError(t, db.Where("branch_id = ? AND product_id = ?", branch.ID, updated.ID).
		First(&record).Error)
	require.Equal(t, 25, record.Stock)
}

func TestImportAcceptsAliasHeaders(t *testing.T) {
	db := setupTestDB(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)

	// "Stock Quantity" başlığı "Stock" ile eş anlamlı, toptan fiyat da okunur
	workbook := buildWorkbook(t, [][]any{
		{"Product Name", "SKU", "Wholesale Price", "Stock Quantity", "Branch"},
		{"Nohut 1kg", "NHT-1", "3.20", 15, "Merkez"},
	})

	app := newImportApp()
	resp := uploadWorkbook(t, app, "/api/admin/products/import", "urunler.xlsx", workbook)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result ImportResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 1, result.CreatedCount)
	require.Empty(t, result.Errors)

	var product models.Product
	require.NoError(t, db.Where("sku = ?", "NHT-1").First(&product).Error)
	require.NotNil(t, product.WholesalePrice)
	require.InDelta(t, 3.20, *product.WholesalePrice, 0.001)

	var record models.InventoryRecord
	require.NoError(t, db.Where("branch_id = ? AND product_id = ?", branch.ID, product.ID).
		First(&record).Error)
	require.Equal(t, 15, record.Stock)
}

func TestImportRejectsMissingNameColumn(t *testing.T) {
	setupTestDB(t)

	workbook := buildWorkbook(t, [][]any{
		{"SKU", "Cost Price"},
		{"NHT-1", "3.50"},
	})

	app := newImportApp()
	resp := uploadWorkbook(t, app, "/api/admin/products/import", "urunler.xlsx", workbook)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestImportRejectsNonXLSX(t *testing.T) {
	setupTestDB(t)

	app := newImportApp()
	resp := uploadWorkbook(t, app, "/api/admin/products/import", "urunler.csv", bytes.NewBufferString("a,b"))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExportIncludesBranchStock(t *testing.T) {
	db := setupTestDB(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)
	cost := 3.5
	product := models.Product{Name: "Nohut 1kg", SKU: "NHT-1", CostPrice: &cost, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&models.InventoryRecord{
		BranchID: branch.ID, ProductID: product.ID, Stock: 42,
	}).Error)

	app := newImportApp()
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/admin/products/export?branch_id=%d", branch.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Product Name", rows[0][0])
	require.Equal(t, "Stock Quantity", rows[0][8])
	require.Equal(t, "Nohut 1kg", rows[1][0])
	require.Equal(t, "42", rows[1][8])
}
