package procurement

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
	"stokpanel-backend/internal/notify"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent []notify.Message
	fail bool
}

func (s *fakeSender) Send(msg notify.Message) error {
	if s.fail {
		return fmt.Errorf("gönderim hatası")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func seedBasics(t *testing.T, db *gorm.DB) (models.Branch, models.User, models.Supplier, models.Product) {
	t.Helper()

	branch := models.Branch{Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)

	user := models.User{
		Name:     "Test Admin",
		Email:    "admin@test.local",
		PasswordHash: "x",
		Role:     models.RoleSuperAdmin,
	}
	require.NoError(t, db.Create(&user).Error)

	supplier := models.Supplier{
		Name:     "Anadolu Gıda",
		Email:    "siparis@anadolu.local",
		Phone:    "+905551112233",
		IsActive: true,
	}
	require.NoError(t, db.Create(&supplier).Error)

	cost := 4.0
	product := models.Product{
		Name:              "Süzme Bal 500g",
		SKU:               "BAL-500",
		SupplierID:        &supplier.ID,
		Unit:              "adet",
		CostPrice:         &cost,
		LowStockThreshold: 10,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&product).Error)

	return branch, user, supplier, product
}

func authAs(userID uint, role models.UserRole, branchID *uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, userID)
		c.Locals(auth.CtxUserRoleKey, role)
		c.Locals(auth.CtxBranchIDKey, branchID)
		return c.Next()
	}
}

func newTestApp(userID uint, role models.UserRole, branchID *uint) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(authAs(userID, role, branchID))

	app.Post("/api/requests", CreateRequestHandler())
	app.Get("/api/requests", ListRequestsHandler())
	app.Post("/api/requests/:id/convert", ConvertRequestHandler())
	app.Post("/api/requests/:id/cancel", CancelRequestHandler())
	app.Delete("/api/requests/:id", DeleteRequestHandler())

	app.Post("/api/purchase-orders", CreatePOHandler())
	app.Post("/api/purchase-orders/:id/approve", ApprovePOHandler())
	app.Post("/api/purchase-orders/:id/cancel", CancelPOHandler())

	app.Post("/api/grn", CreateGRNHandler())
	app.Put("/api/grn/:id", UpdateGRNHandler())
	app.Post("/api/grn/:id/confirm", ConfirmGRNHandler())

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

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateRequestSendsNotification(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	sender := &fakeSender{}
	notify.Default = sender
	t.Cleanup(func() { notify.Default = &notify.LogSender{} })

	require.NoError(t, db.Create(&models.InventoryRecord{
		BranchID: branch.ID, ProductID: product.ID, Stock: 3,
	}).Error)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)
	resp := doJSON(t, app, "POST", "/api/requests", fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 50,
		"comm_methods":       []string{"email", "sms"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body RequestResponse
	decodeBody(t, resp, &body)
	require.Equal(t, "sent", body.Status)
	require.Equal(t, "requested", body.ConversionStatus)
	require.Equal(t, 3, body.CurrentStock)
	require.Len(t, sender.sent, 2)
	require.Equal(t, "siparis@anadolu.local", sender.sent[0].Contact)
	require.Equal(t, "+905551112233", sender.sent[1].Contact)
}

func TestCreateRequestFailedDispatchStillPersists(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	notify.Default = &fakeSender{fail: true}
	t.Cleanup(func() { notify.Default = &notify.LogSender{} })

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)
	resp := doJSON(t, app, "POST", "/api/requests", fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 20,
		"comm_methods":       []string{"email"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body RequestResponse
	decodeBody(t, resp, &body)
	require.Equal(t, "failed", body.Status)

	var count int64
	require.NoError(t, db.Model(&models.SupplierRequest{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateRequestRejectsDuplicateOpenRequest(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	notify.Default = &fakeSender{}
	t.Cleanup(func() { notify.Default = &notify.LogSender{} })

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)
	payload := fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 10,
		"comm_methods":       []string{"email"},
	}

	resp := doJSON(t, app, "POST", "/api/requests", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/requests", payload)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateRequestValidation(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	// Miktar sıfır
	resp := doJSON(t, app, "POST", "/api/requests", fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 0,
		"comm_methods":       []string{"email"},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Kanal listesi boş
	resp = doJSON(t, app, "POST", "/api/requests", fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 5,
		"comm_methods":       []string{},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Bilinmeyen kanal
	resp = doJSON(t, app, "POST", "/api/requests", fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 5,
		"comm_methods":       []string{"fax"},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestConvertRequestIsOneWay(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	req := models.SupplierRequest{
		BranchID:          branch.ID,
		ProductID:         product.ID,
		SupplierID:        supplier.ID,
		RequestedQuantity: 30,
		CommMethods:       "email",
		Status:            models.RequestSendSent,
		ConversionStatus:  models.ConversionRequested,
		CreatedBy:         user.ID,
	}
	require.NoError(t, db.Create(&req).Error)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/requests/%d/convert", req.ID), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body["po_number"])

	// İkinci dönüştürme denemesi 409
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/requests/%d/convert", req.ID), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Tek PO oluşmuş olmalı
	var poCount int64
	require.NoError(t, db.Model(&models.PurchaseOrder{}).Count(&poCount).Error)
	require.EqualValues(t, 1, poCount)

	var po models.PurchaseOrder
	require.NoError(t, db.Preload("Items").First(&po).Error)
	require.Equal(t, models.POStatusDraft, po.Status)
	require.Len(t, po.Items, 1)
	require.Equal(t, 30, po.Items[0].Quantity)
	require.NotNil(t, po.Items[0].UnitCost)
	require.InDelta(t, 4.0, *po.Items[0].UnitCost, 0.001)

	// Dönüştürülmüş talep iptal edilemez
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/requests/%d/cancel", req.ID), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestDeleteRequestOnlyCreatorOrPrivileged(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	other := models.User{
		Name: "Şube Yetkilisi", Email: "sube@test.local", PasswordHash: "x",
		Role: models.RoleBranchAdmin, BranchID: &branch.ID,
	}
	require.NoError(t, db.Create(&other).Error)

	req := models.SupplierRequest{
		BranchID:          branch.ID,
		ProductID:         product.ID,
		SupplierID:        supplier.ID,
		RequestedQuantity: 10,
		CommMethods:       "email",
		Status:            models.RequestSendSent,
		ConversionStatus:  models.ConversionRequested,
		CreatedBy:         user.ID,
	}
	require.NoError(t, db.Create(&req).Error)

	// Başkasının talebi, branch_admin silemez
	branchApp := newTestApp(other.ID, models.RoleBranchAdmin, &branch.ID)
	resp := doJSON(t, branchApp, "DELETE", fmt.Sprintf("/api/requests/%d", req.ID), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Oluşturan silebilir
	ownerApp := newTestApp(user.ID, models.RoleSuperAdmin, nil)
	resp = doJSON(t, ownerApp, "DELETE", fmt.Sprintf("/api/requests/%d", req.ID), nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestDeleteConvertedRequestLeavesPOIntact(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	notify.Default = &fakeSender{}
	t.Cleanup(func() { notify.Default = &notify.LogSender{} })

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	resp := doJSON(t, app, "POST", "/api/requests", fiber.Map{
		"branch_id":          branch.ID,
		"product_id":         product.ID,
		"supplier_id":        supplier.ID,
		"requested_quantity": 20,
		"comm_methods":       []string{"email"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var req RequestResponse
	decodeBody(t, resp, &req)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/requests/%d/convert", req.ID), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var po POResponse
	decodeBody(t, resp, &po)

	// Dönüştürülmüş talep silinebilir, sipariş etkilenmez
	resp = doJSON(t, app, "DELETE", fmt.Sprintf("/api/requests/%d", req.ID), nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var remaining models.PurchaseOrder
	require.NoError(t, db.Preload("Items").First(&remaining, "id = ?", po.ID).Error)
	require.Equal(t, models.POStatusDraft, remaining.Status)
	require.Len(t, remaining.Items, 1)
	require.Equal(t, 20, remaining.Items[0].Quantity)
}

func TestApprovePOIsOneWay(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)
	resp := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"branch_id":   branch.ID,
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "quantity": 100},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var po POResponse
	decodeBody(t, resp, &po)
	require.Equal(t, "draft", po.Status)
	require.InDelta(t, 400.0, po.TotalCost, 0.001)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// İkinci onay 409
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Onaylı sipariş iptal edilemez
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/cancel", po.ID), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGRNClampsAndConfirmIncrementsStockOnce(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	// Onaylı sipariş hazırla
	resp := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"branch_id":   branch.ID,
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "quantity": 100},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var po POResponse
	decodeBody(t, resp, &po)
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Mevcut stok 20
	require.NoError(t, db.Create(&models.InventoryRecord{
		BranchID: branch.ID, ProductID: product.ID, Stock: 20,
	}).Error)

	// 150 girilse bile 100'e kırpılır; 60 teslim kısmi sayılır
	resp = doJSON(t, app, "POST", "/api/grn", fiber.Map{
		"purchase_order_id": po.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "received_quantity": 60},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var grn GRNResponse
	decodeBody(t, resp, &grn)
	require.Equal(t, "draft", grn.Status)
	require.Equal(t, "partial", grn.DeliveryStatus)
	require.Equal(t, 60, grn.Items[0].ReceivedQuantity)

	// Onay stok artırır
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/grn/%d/confirm", grn.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var record models.InventoryRecord
	require.NoError(t, db.Where("branch_id = ? AND product_id = ?", branch.ID, product.ID).
		First(&record).Error)
	require.Equal(t, 80, record.Stock)

	// İkinci onay 409 ve stok değişmez
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/grn/%d/confirm", grn.ID), nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.NoError(t, db.Where("branch_id = ? AND product_id = ?", branch.ID, product.ID).
		First(&record).Error)
	require.Equal(t, 80, record.Stock)
}

func TestGRNRejectsZeroTotalAndDraftPO(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	resp := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"branch_id":   branch.ID,
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "quantity": 10},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var po POResponse
	decodeBody(t, resp, &po)

	// Taslak siparişe mal kabul açılamaz
	resp = doJSON(t, app, "POST", "/api/grn", fiber.Map{
		"purchase_order_id": po.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "received_quantity": 5},
		},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Toplam sıfır teslimat reddedilir
	resp = doJSON(t, app, "POST", "/api/grn", fiber.Map{
		"purchase_order_id": po.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "received_quantity": 0},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGRNCoversOmittedPOLines(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	cost := 2.5
	second := models.Product{
		Name: "Kestane Balı 250g", SKU: "BAL-250",
		SupplierID: &supplier.ID, Unit: "adet", CostPrice: &cost, IsActive: true,
	}
	require.NoError(t, db.Create(&second).Error)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	resp := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"branch_id":   branch.ID,
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "quantity": 100},
			{"product_id": second.ID, "quantity": 50},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var po POResponse
	decodeBody(t, resp, &po)
	doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)

	// İkinci sipariş satırı hiç gönderilmese de fişte sıfır teslimle yer alır,
	// teslimat durumu siparişin tamamından türetilir
	resp = doJSON(t, app, "POST", "/api/grn", fiber.Map{
		"purchase_order_id": po.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "received_quantity": 100},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var grn GRNResponse
	decodeBody(t, resp, &grn)
	require.Equal(t, "partial", grn.DeliveryStatus)
	require.Len(t, grn.Items, 2)

	receivedByProduct := map[uint]int{}
	for _, item := range grn.Items {
		receivedByProduct[item.ProductID] = item.ReceivedQuantity
	}
	require.Equal(t, 100, receivedByProduct[product.ID])
	require.Equal(t, 0, receivedByProduct[second.ID])
}

func TestGRNDraftUpdateRederivesDeliveryStatus(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	resp := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"branch_id":   branch.ID,
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "quantity": 50},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var po POResponse
	decodeBody(t, resp, &po)
	doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)

	resp = doJSON(t, app, "POST", "/api/grn", fiber.Map{
		"purchase_order_id": po.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "received_quantity": 30},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var grn GRNResponse
	decodeBody(t, resp, &grn)
	require.Equal(t, "partial", grn.DeliveryStatus)

	// Miktar tamamlanınca teslimat full'a döner, fazlası yine kırpılır
	resp = doJSON(t, app, "PUT", fmt.Sprintf("/api/grn/%d", grn.ID), fiber.Map{
		"items": []fiber.Map{
			{"item_id": grn.Items[0].ID, "received_quantity": 80},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &grn)
	require.Equal(t, "full", grn.DeliveryStatus)
	require.Equal(t, 50, grn.Items[0].ReceivedQuantity)

	// Onaylandıktan sonra düzenlenemez
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/grn/%d/confirm", grn.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, "PUT", fmt.Sprintf("/api/grn/%d", grn.ID), fiber.Map{
		"items": []fiber.Map{
			{"item_id": grn.Items[0].ID, "received_quantity": 10},
		},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGRNConfirmCreatesMissingStockRecord(t *testing.T) {
	db := setupTestDB(t)
	branch, user, supplier, product := seedBasics(t, db)

	app := newTestApp(user.ID, models.RoleSuperAdmin, nil)

	resp := doJSON(t, app, "POST", "/api/purchase-orders", fiber.Map{
		"branch_id":   branch.ID,
		"supplier_id": supplier.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "quantity": 40},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var po POResponse
	decodeBody(t, resp, &po)
	doJSON(t, app, "POST", fmt.Sprintf("/api/purchase-orders/%d/approve", po.ID), nil)

	resp = doJSON(t, app, "POST", "/api/grn", fiber.Map{
		"purchase_order_id": po.ID,
		"items": []fiber.Map{
			{"product_id": product.ID, "received_quantity": 40},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var grn GRNResponse
	decodeBody(t, resp, &grn)
	require.Equal(t, "full", grn.DeliveryStatus)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/grn/%d/confirm", grn.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var confirmBody map[string]any
	decodeBody(t, resp, &confirmBody)
	require.EqualValues(t, 1, confirmBody["created_stock_records"])

	var record models.InventoryRecord
	require.NoError(t, db.Where("branch_id = ? AND product_id = ?", branch.ID, product.ID).
		First(&record).Error)
	require.Equal(t, 40, record.Stock)
}
