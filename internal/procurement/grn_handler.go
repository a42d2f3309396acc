package procurement

import (
	"fmt"
	"time"

	"stokpanel-backend/internal/audit"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type GRNItemRequest struct {
	ProductID        uint   `json:"product_id" validate:"required"`
	ReceivedQuantity int    `json:"received_quantity"`
	Note             string `json:"note" validate:"max=255"`
}

type CreateGRNRequest struct {
	PurchaseOrderID uint             `json:"purchase_order_id" validate:"required"`
	Items           []GRNItemRequest `json:"items" validate:"required,min=1,dive"`
}

type GRNItemResponse struct {
	ID               uint   `json:"id"`
	ProductID        uint   `json:"product_id"`
	ProductName      string `json:"product_name"`
	OrderedQuantity  int    `json:"ordered_quantity"`
	ReceivedQuantity int    `json:"received_quantity"`
	Note             string `json:"note"`
}

type GRNResponse struct {
	ID              uint              `json:"id"`
	GRNNumber       string            `json:"grn_number"`
	PurchaseOrderID uint              `json:"purchase_order_id"`
	PONumber        string            `json:"po_number"`
	BranchID        uint              `json:"branch_id"`
	SupplierID      uint              `json:"supplier_id"`
	SupplierName    string            `json:"supplier_name"`
	DeliveryStatus  string            `json:"delivery_status"`
	Status          string            `json:"status"`
	ConfirmedAt     *string           `json:"confirmed_at"`
	Items           []GRNItemResponse `json:"items"`
	CreatedAt       string            `json:"created_at"`
}

func toGRNResponse(grn models.GoodsReceivedNote) GRNResponse {
	res := GRNResponse{
		ID:              grn.ID,
		GRNNumber:       grn.GRNNumber,
		PurchaseOrderID: grn.PurchaseOrderID,
		PONumber:        grn.PurchaseOrder.PONumber,
		BranchID:        grn.BranchID,
		SupplierID:      grn.SupplierID,
		SupplierName:    grn.Supplier.Name,
		DeliveryStatus:  string(grn.DeliveryStatus),
		Status:          string(grn.Status),
		Items:           make([]GRNItemResponse, 0, len(grn.Items)),
		CreatedAt:       grn.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if grn.ConfirmedAt != nil {
		t := grn.ConfirmedAt.Format("2006-01-02 15:04:05")
		res.ConfirmedAt = &t
	}
	for _, item := range grn.Items {
		res.Items = append(res.Items, GRNItemResponse{
			ID:               item.ID,
			ProductID:        item.ProductID,
			ProductName:      item.Product.Name,
			OrderedQuantity:  item.OrderedQuantity,
			ReceivedQuantity: item.ReceivedQuantity,
			Note:             item.Note,
		})
	}
	return res
}

// POST /api/grn
// Onaylı siparişe karşı taslak mal kabul fişi açar. Girilen miktarlar sipariş
// miktarına kırpılır, toplam sıfırsa fiş açılmaz.
func CreateGRNHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body CreateGRNRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Doğrulama hatası: "+err.Error())
		}

		var po models.PurchaseOrder
		if err := database.DB.Preload("Items").First(&po, "id = ?", body.PurchaseOrderID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		if po.Status != models.POStatusApproved {
			return fiber.NewError(fiber.StatusConflict, "Sadece onaylı siparişler için mal kabul yapılabilir")
		}

		orderedByProduct := make(map[uint]int, len(po.Items))
		for _, item := range po.Items {
			orderedByProduct[item.ProductID] = item.Quantity
		}

		receivedByProduct := make(map[uint]GRNItemRequest, len(body.Items))
		for _, itemReq := range body.Items {
			if _, ok := orderedByProduct[itemReq.ProductID]; !ok {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Ürün siparişte yok (id=%d)", itemReq.ProductID))
			}
			receivedByProduct[itemReq.ProductID] = itemReq
		}

		// Fiş her sipariş satırını kapsar; gönderilmeyen satır sıfır teslim sayılır.
		// Teslimat durumu böylece siparişin tamamı üzerinden türetilir.
		items := make([]models.GRNItem, 0, len(po.Items))
		totalReceived := 0
		for _, poItem := range po.Items {
			itemReq := receivedByProduct[poItem.ProductID]
			received := models.ClampReceived(itemReq.ReceivedQuantity, poItem.Quantity)
			totalReceived += received
			items = append(items, models.GRNItem{
				ProductID:        poItem.ProductID,
				OrderedQuantity:  poItem.Quantity,
				ReceivedQuantity: received,
				Note:             itemReq.Note,
			})
		}
		if totalReceived == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Teslim alınan toplam miktar sıfır olamaz")
		}

		var grn models.GoodsReceivedNote
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			grnNumber, err := nextDocumentNumber(tx, &models.GoodsReceivedNote{}, "grn_number", "GRN")
			if err != nil {
				return err
			}
			grn = models.GoodsReceivedNote{
				GRNNumber:       grnNumber,
				PurchaseOrderID: po.ID,
				BranchID:        po.BranchID,
				SupplierID:      po.SupplierID,
				DeliveryStatus:  models.DeriveDeliveryStatus(items),
				Status:          models.GRNStatusDraft,
				ReceivedBy:      userID,
				Items:           items,
			}
			return tx.Create(&grn).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mal kabul fişi oluşturulamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &po.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "grn",
			EntityID:    grn.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Mal kabul fişi açıldı: %s (%s)", grn.GRNNumber, po.PONumber),
			After:       grn,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		database.DB.Preload("PurchaseOrder").Preload("Supplier").
			Preload("Items").Preload("Items.Product").First(&grn, grn.ID)
		return c.Status(fiber.StatusCreated).JSON(toGRNResponse(grn))
	}
}

// GET /api/grn?branch_id=&status=
func ListGRNsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.GoodsReceivedNote{}).
			Preload("PurchaseOrder").Preload("Supplier").
			Preload("Items").Preload("Items.Product")

		if branchID != 0 {
			dbq = dbq.Where("branch_id = ?", branchID)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var grns []models.GoodsReceivedNote
		if err := dbq.Order("created_at desc").Find(&grns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mal kabul fişleri listelenemedi")
		}

		res := make([]GRNResponse, 0, len(grns))
		for _, grn := range grns {
			res = append(res, toGRNResponse(grn))
		}
		return c.JSON(res)
	}
}

// GET /api/grn/:id
func GetGRNHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var grn models.GoodsReceivedNote
		if err := database.DB.Preload("PurchaseOrder").Preload("Supplier").
			Preload("Items").Preload("Items.Product").
			First(&grn, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mal kabul fişi bulunamadı")
		}

		return c.JSON(toGRNResponse(grn))
	}
}

type UpdateGRNItemRequest struct {
	ItemID           uint   `json:"item_id" validate:"required"`
	ReceivedQuantity int    `json:"received_quantity"`
	Note             string `json:"note" validate:"max=255"`
}

type UpdateGRNRequest struct {
	Items []UpdateGRNItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PUT /api/grn/:id
// Taslak fişin satırlarını düzenler. Miktarlar yine sipariş miktarına kırpılır,
// teslimat durumu satırlardan yeniden türetilir. Onaylı fiş düzenlenemez.
func UpdateGRNHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var grn models.GoodsReceivedNote
		if err := database.DB.Preload("Items").First(&grn, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mal kabul fişi bulunamadı")
		}
		if grn.Status != models.GRNStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak fişler düzenlenebilir")
		}

		var body UpdateGRNRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Doğrulama hatası: "+err.Error())
		}

		itemsByID := make(map[uint]*models.GRNItem, len(grn.Items))
		for i := range grn.Items {
			itemsByID[grn.Items[i].ID] = &grn.Items[i]
		}

		for _, itemReq := range body.Items {
			item, ok := itemsByID[itemReq.ItemID]
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Fiş satırı bulunamadı (id=%d)", itemReq.ItemID))
			}
			item.ReceivedQuantity = models.ClampReceived(itemReq.ReceivedQuantity, item.OrderedQuantity)
			if itemReq.Note != "" {
				item.Note = itemReq.Note
			}
		}

		totalReceived := 0
		for _, item := range grn.Items {
			totalReceived += item.ReceivedQuantity
		}
		if totalReceived == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Teslim alınan toplam miktar sıfır olamaz")
		}

		grn.DeliveryStatus = models.DeriveDeliveryStatus(grn.Items)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for i := range grn.Items {
				if err := tx.Save(&grn.Items[i]).Error; err != nil {
					return err
				}
			}
			return tx.Model(&models.GoodsReceivedNote{}).
				Where("id = ?", grn.ID).
				Update("delivery_status", grn.DeliveryStatus).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiş güncellenemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &grn.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "grn",
			EntityID:    grn.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Mal kabul fişi düzenlendi: %s", grn.GRNNumber),
			After:       grn,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		database.DB.Preload("PurchaseOrder").Preload("Supplier").
			Preload("Items").Preload("Items.Product").First(&grn, grn.ID)
		return c.JSON(toGRNResponse(grn))
	}
}

// POST /api/grn/:id/confirm
// Fişi onaylar ve şube stoğunu teslim alınan miktarlar kadar artırır. İşlem tek
// transaction'dır: stok artışı ve durum geçişi birlikte ya olur ya olmaz.
// Koşullu güncelleme ikinci onay denemesinde stoğu tekrar artırmaz.
func ConfirmGRNHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var grn models.GoodsReceivedNote
		if err := database.DB.Preload("Items").Preload("PurchaseOrder").
			First(&grn, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mal kabul fişi bulunamadı")
		}

		if !grn.Status.CanTransitionTo(models.GRNStatusConfirmed) {
			return fiber.NewError(fiber.StatusConflict, "Fiş zaten onaylanmış")
		}

		updatedCount := 0
		createdCount := 0
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			result := tx.Model(&models.GoodsReceivedNote{}).
				Where("id = ? AND status = ?", grn.ID, models.GRNStatusDraft).
				Updates(map[string]any{
					"status":       models.GRNStatusConfirmed,
					"confirmed_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Fiş zaten onaylanmış")
			}

			for _, item := range grn.Items {
				if item.ReceivedQuantity == 0 {
					continue
				}

				var record models.InventoryRecord
				if err := tx.Where("branch_id = ? AND product_id = ?", grn.BranchID, item.ProductID).
					First(&record).Error; err != nil {
					record = models.InventoryRecord{
						BranchID:  grn.BranchID,
						ProductID: item.ProductID,
						Stock:     item.ReceivedQuantity,
					}
					if err := tx.Create(&record).Error; err != nil {
						return err
					}
					createdCount++
					continue
				}

				if err := tx.Model(&record).
					Update("stock", gorm.Expr("stock + ?", item.ReceivedQuantity)).Error; err != nil {
					return err
				}
				updatedCount++
			}
			return nil
		})
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return fiberErr
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Fiş onaylanamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &grn.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "grn",
			EntityID:    grn.ID,
			Action:      models.AuditActionConfirm,
			Description: fmt.Sprintf("Mal kabul onaylandı: %s (%d stok güncellendi, %d stok kaydı açıldı)", grn.GRNNumber, updatedCount, createdCount),
			Before:      fiber.Map{"status": models.GRNStatusDraft},
			After:       fiber.Map{"status": models.GRNStatusConfirmed},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{
			"id":                    grn.ID,
			"grn_number":            grn.GRNNumber,
			"status":                models.GRNStatusConfirmed,
			"updated_stock_records": updatedCount,
			"created_stock_records": createdCount,
		})
	}
}
