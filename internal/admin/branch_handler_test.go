package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stokpanel-backend/internal/auth"
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

func newAdminApp(userID uint) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(authAs(userID, models.RoleSuperAdmin, nil))

	app.Post("/api/admin/branches", CreateBranchHandler())
	app.Delete("/api/admin/branches/:id", DeleteBranchHandler())
	app.Post("/api/admin/branches/:id/admin", CreateBranchAdminHandler())
	app.Get("/api/admin/branches/:id/admins", ListBranchAdminsHandler())

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func seedSuperAdmin(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Name: "Patron", Email: "patron@test.local", PasswordHash: "x",
		Role: models.RoleSuperAdmin,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestBranchAdminResponsesNeverExposeCredentials(t *testing.T) {
	db := setupTestDB(t)
	owner := seedSuperAdmin(t, db)

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)

	app := newAdminApp(owner.ID)
	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/admin/branches/%d/admin", branch.ID), fiber.Map{
		"name": "Şube Sorumlusu", "email": "sube@test.local", "password": "gizli-sifre-123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotContains(t, created, "password")
	require.NotContains(t, created, "password_hash")

	resp = doJSON(t, app, "GET", fmt.Sprintf("/api/admin/branches/%d/admins", branch.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var admins []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&admins))
	require.Len(t, admins, 1)
	require.NotContains(t, admins[0], "password_hash")
}

func TestDeleteBranchBlockedWhileDocumentsExist(t *testing.T) {
	db := setupTestDB(t)
	owner := seedSuperAdmin(t, db)

	branch := models.Branch{Name: "Kadıköy"}
	require.NoError(t, db.Create(&branch).Error)
	supplier := models.Supplier{Name: "Anadolu Gıda", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)
	require.NoError(t, db.Create(&models.PurchaseOrder{
		PONumber: "PO-2026-0001", BranchID: branch.ID, SupplierID: supplier.ID,
		Status: models.POStatusDraft, CreatedBy: owner.ID,
	}).Error)

	app := newAdminApp(owner.ID)
	resp := doJSON(t, app, "DELETE", fmt.Sprintf("/api/admin/branches/%d", branch.ID), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Belge zinciri olmayan şube silinebilir
	empty := models.Branch{Name: "Moda"}
	require.NoError(t, db.Create(&empty).Error)
	resp = doJSON(t, app, "DELETE", fmt.Sprintf("/api/admin/branches/%d", empty.ID), nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Branch{}).Where("id = ?", empty.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
}
