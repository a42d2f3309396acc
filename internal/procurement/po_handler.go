package procurement

import (
	"fmt"
	"strings"
	"time"

	"stokpanel-backend/internal/audit"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type POItemRequest struct {
	ProductID uint     `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,gt=0"`
	UnitCost  *float64 `json:"unit_cost"`
}

type CreatePORequest struct {
	BranchID             *uint           `json:"branch_id"`
	SupplierID           uint            `json:"supplier_id" validate:"required"`
	ExpectedDeliveryDate string          `json:"expected_delivery_date"` // YYYY-MM-DD, opsiyonel
	Items                []POItemRequest `json:"items" validate:"required,min=1,dive"`
}

type POItemResponse struct {
	ID          uint     `json:"id"`
	ProductID   uint     `json:"product_id"`
	ProductName string   `json:"product_name"`
	ProductSKU  string   `json:"product_sku"`
	Quantity    int      `json:"quantity"`
	UnitCost    *float64 `json:"unit_cost"`
	TotalCost   *float64 `json:"total_cost"`
}

type POResponse struct {
	ID                   uint             `json:"id"`
	PONumber             string           `json:"po_number"`
	BranchID             uint             `json:"branch_id"`
	SupplierID           uint             `json:"supplier_id"`
	SupplierName         string           `json:"supplier_name"`
	Status               string           `json:"status"`
	ExpectedDeliveryDate *string          `json:"expected_delivery_date"`
	SourceRequestID      *uint            `json:"source_request_id"`
	TotalCost            float64          `json:"total_cost"`
	Items                []POItemResponse `json:"items"`
	CreatedAt            string           `json:"created_at"`
}

func toPOResponse(po models.PurchaseOrder) POResponse {
	res := POResponse{
		ID:              po.ID,
		PONumber:        po.PONumber,
		BranchID:        po.BranchID,
		SupplierID:      po.SupplierID,
		SupplierName:    po.Supplier.Name,
		Status:          string(po.Status),
		SourceRequestID: po.SourceRequestID,
		Items:           make([]POItemResponse, 0, len(po.Items)),
		CreatedAt:       po.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if po.ExpectedDeliveryDate != nil {
		d := po.ExpectedDeliveryDate.Format("2006-01-02")
		res.ExpectedDeliveryDate = &d
	}
	for _, item := range po.Items {
		res.Items = append(res.Items, POItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			TotalCost:   item.TotalCost,
		})
		if item.TotalCost != nil {
			res.TotalCost += *item.TotalCost
		}
	}
	return res
}

// POST /api/purchase-orders
// Talepten bağımsız, doğrudan taslak sipariş oluşturur.
func CreatePOHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body CreatePORequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Doğrulama hatası: "+err.Error())
		}

		branchID, err := resolveBranchIDFromBodyOrRole(c, body.BranchID)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
		}

		var expectedDate *time.Time
		if strings.TrimSpace(body.ExpectedDeliveryDate) != "" {
			parsed, err := time.Parse("2006-01-02", body.ExpectedDeliveryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz teslim tarihi (YYYY-MM-DD olmalı)")
			}
			expectedDate = &parsed
		}

		items := make([]models.PurchaseOrderItem, 0, len(body.Items))
		for _, itemReq := range body.Items {
			var product models.Product
			if err := database.DB.First(&product, "id = ?", itemReq.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Ürün bulunamadı (id=%d)", itemReq.ProductID))
			}

			item := models.PurchaseOrderItem{
				ProductID:  itemReq.ProductID,
				ProductSKU: product.SKU,
				Quantity:   itemReq.Quantity,
			}
			unitCost := product.UnitCost()
			if itemReq.UnitCost != nil {
				unitCost = *itemReq.UnitCost
			}
			if unitCost > 0 {
				total := unitCost * float64(itemReq.Quantity)
				item.UnitCost = &unitCost
				item.TotalCost = &total
			}
			items = append(items, item)
		}

		var po models.PurchaseOrder
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			poNumber, err := nextDocumentNumber(tx, &models.PurchaseOrder{}, "po_number", "PO")
			if err != nil {
				return err
			}
			po = models.PurchaseOrder{
				PONumber:             poNumber,
				BranchID:             branchID,
				SupplierID:           body.SupplierID,
				Status:               models.POStatusDraft,
				ExpectedDeliveryDate: expectedDate,
				CreatedBy:            userID,
				Items:                items,
			}
			return tx.Create(&po).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş oluşturulamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_order",
			EntityID:    po.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Sipariş oluşturuldu: %s (%s)", po.PONumber, supplier.Name),
			After:       po,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		po.Supplier = supplier
		for i := range po.Items {
			database.DB.Preload("Product").First(&po.Items[i], po.Items[i].ID)
		}
		return c.Status(fiber.StatusCreated).JSON(toPOResponse(po))
	}
}

// GET /api/purchase-orders?branch_id=&status=&supplier_id=
func ListPOsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.PurchaseOrder{}).
			Preload("Supplier").Preload("Items").Preload("Items.Product")

		if branchID != 0 {
			dbq = dbq.Where("branch_id = ?", branchID)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if supplierID := c.Query("supplier_id"); supplierID != "" {
			dbq = dbq.Where("supplier_id = ?", supplierID)
		}

		var orders []models.PurchaseOrder
		if err := dbq.Order("created_at desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		res := make([]POResponse, 0, len(orders))
		for _, po := range orders {
			res = append(res, toPOResponse(po))
		}
		return c.JSON(res)
	}
}

// GET /api/purchase-orders/:id
func GetPOHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var po models.PurchaseOrder
		if err := database.DB.Preload("Supplier").Preload("Items").Preload("Items.Product").
			First(&po, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		return c.JSON(toPOResponse(po))
	}
}

// POST /api/purchase-orders/:id/approve
// Taslak siparişi onaylar. Onay tek yönlüdür, ikinci deneme 409 alır.
func ApprovePOHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var po models.PurchaseOrder
		if err := database.DB.First(&po, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if !po.Status.CanTransitionTo(models.POStatusApproved) {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak siparişler onaylanabilir")
		}

		now := time.Now()
		result := database.DB.Model(&models.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, models.POStatusDraft).
			Updates(map[string]any{
				"status":      models.POStatusApproved,
				"approved_by": userID,
				"approved_at": now,
			})
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş onaylanamadı")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak siparişler onaylanabilir")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &po.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_order",
			EntityID:    po.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Sipariş onaylandı: %s", po.PONumber),
			Before:      fiber.Map{"status": models.POStatusDraft},
			After:       fiber.Map{"status": models.POStatusApproved},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{"id": po.ID, "po_number": po.PONumber, "status": models.POStatusApproved})
	}
}

// POST /api/purchase-orders/:id/cancel
// Sadece taslak siparişler iptal edilebilir; onaylı sipariş mal kabul sürecine girmiştir.
func CancelPOHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var po models.PurchaseOrder
		if err := database.DB.First(&po, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if !po.Status.CanTransitionTo(models.POStatusCancelled) {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak siparişler iptal edilebilir")
		}

		result := database.DB.Model(&models.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, models.POStatusDraft).
			Update("status", models.POStatusCancelled)
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş iptal edilemedi")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak siparişler iptal edilebilir")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &po.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_order",
			EntityID:    po.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Sipariş iptal edildi: %s", po.PONumber),
			Before:      fiber.Map{"status": models.POStatusDraft},
			After:       fiber.Map{"status": models.POStatusCancelled},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{"id": po.ID, "po_number": po.PONumber, "status": models.POStatusCancelled})
	}
}

// GET /api/purchase-orders/available-for-grn?branch_id=
// Mal kabulü yapılabilecek siparişler: onaylı ve henüz tam teslimatla kapatılmamış.
func ListAvailableForGRNHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.PurchaseOrder{}).
			Preload("Supplier").Preload("Items").Preload("Items.Product").
			Where("status = ?", models.POStatusApproved).
			Where("id NOT IN (?)", database.DB.Model(&models.GoodsReceivedNote{}).
				Select("purchase_order_id").
				Where("status = ? AND delivery_status = ?", models.GRNStatusConfirmed, models.DeliveryFull))

		if branchID != 0 {
			dbq = dbq.Where("branch_id = ?", branchID)
		}

		var orders []models.PurchaseOrder
		if err := dbq.Order("created_at desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		res := make([]POResponse, 0, len(orders))
		for _, po := range orders {
			res = append(res, toPOResponse(po))
		}
		return c.JSON(res)
	}
}
