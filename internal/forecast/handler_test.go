package forecast

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/config"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
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

func testPolicyConfig() *config.Config {
	return &config.Config{
		SalesWindowDays:     30,
		ReorderCycleDays:    14,
		DefaultLeadTimeDays: 7,
		UrgentFactor:        1.0,
		SoonFactor:          1.5,
	}
}

func newForecastApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(authAs(1, models.RoleSuperAdmin, nil))
	app.Get("/api/forecast", ListForecastHandler(cfg))
	app.Get("/api/forecast/summary", SummaryHandler(cfg))
	return app
}

func TestSummarySlowMoversRequireStockOnHand(t *testing.T) {
	db := setupTestDB(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)

	cost := 2.0
	selling := models.Product{Name: "Süzme Bal 500g", SKU: "BAL-500", CostPrice: &cost, IsActive: true}
	shelfWarmer := models.Product{Name: "Kestane Balı 250g", SKU: "BAL-250", CostPrice: &cost, IsActive: true}
	deadSKU := models.Product{Name: "Petek Bal 1kg", SKU: "BAL-1000", CostPrice: &cost, IsActive: true}
	require.NoError(t, db.Create(&selling).Error)
	require.NoError(t, db.Create(&shelfWarmer).Error)
	require.NoError(t, db.Create(&deadSKU).Error)

	// Satan ürün stoklu ve satışı var; rafta bekleyen stoklu ve satışsız;
	// ölü ürün hem stoksuz hem satışsız
	require.NoError(t, db.Create(&models.InventoryRecord{
		BranchID: branch.ID, ProductID: selling.ID, Stock: 100,
	}).Error)
	require.NoError(t, db.Create(&models.InventoryRecord{
		BranchID: branch.ID, ProductID: shelfWarmer.ID, Stock: 80,
	}).Error)
	require.NoError(t, db.Create(&models.Sale{
		BranchID: branch.ID, ProductID: selling.ID, Quantity: 30,
		UnitPrice: 5.0, Date: time.Now().AddDate(0, 0, -3),
	}).Error)

	app := newForecastApp(testPolicyConfig())
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/forecast/summary?branch_id=%d", branch.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary SummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))

	require.Len(t, summary.SlowMovers, 1)
	require.Equal(t, shelfWarmer.ID, summary.SlowMovers[0].ProductID)

	// Stoksuz ölü ürün yavaş hareket listesine değil urgent sayısına gider
	require.GreaterOrEqual(t, summary.UrgentCount, 1)

	require.Len(t, summary.HighVelocity, 1)
	require.Equal(t, selling.ID, summary.HighVelocity[0].ProductID)
}

func TestForecastWindowDaysOverride(t *testing.T) {
	db := setupTestDB(t)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)

	cost := 2.0
	product := models.Product{Name: "Süzme Bal 500g", SKU: "BAL-500", CostPrice: &cost, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&models.InventoryRecord{
		BranchID: branch.ID, ProductID: product.ID, Stock: 100,
	}).Error)
	// 20 gün önceki satış 10 günlük pencerenin dışında kalır
	require.NoError(t, db.Create(&models.Sale{
		BranchID: branch.ID, ProductID: product.ID, Quantity: 30,
		UnitPrice: 5.0, Date: time.Now().AddDate(0, 0, -20),
	}).Error)

	app := newForecastApp(testPolicyConfig())

	req := httptest.NewRequest("GET",
		fmt.Sprintf("/api/forecast?branch_id=%d&window_days=10", branch.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []ForecastRowResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	require.Equal(t, 0, rows[0].UnitsSold)

	req = httptest.NewRequest("GET",
		fmt.Sprintf("/api/forecast?branch_id=%d&window_days=30", branch.ID), nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Equal(t, 30, rows[0].UnitsSold)
}
