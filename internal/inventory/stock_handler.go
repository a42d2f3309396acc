package inventory

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

type InventoryRowResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Unit        string `json:"unit"`
	BranchID    uint   `json:"branch_id"`
	Stock       int    `json:"stock"`
	LowStock    bool   `json:"low_stock"`
}

type AdjustStockRequest struct {
	BranchID  *uint  `json:"branch_id"`
	ProductID uint   `json:"product_id"`
	NewStock  int    `json:"new_stock"`
	Reason    string `json:"reason"`
}

type RecordSaleRequest struct {
	BranchID  *uint    `json:"branch_id"`
	ProductID uint     `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	Date      string   `json:"date"` // YYYY-MM-DD, boşsa bugün
}

// GET /api/inventory?branch_id=&low_only=true
func ListInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.InventoryRecord{}).
			Select("inventory_records.product_id, products.name AS product_name, products.sku, products.unit, inventory_records.branch_id, inventory_records.stock, products.low_stock_threshold").
			Joins("JOIN products ON products.id = inventory_records.product_id").
			Where("products.is_active = ?", true)

		if branchID != 0 {
			dbq = dbq.Where("inventory_records.branch_id = ?", branchID)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ?", like, like)
		}

		type row struct {
			ProductID         uint
			ProductName       string
			SKU               string
			Unit              string
			BranchID          uint
			Stock             int
			LowStockThreshold int
		}
		var rows []row
		if err := dbq.Order("products.name asc").Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok listesi alınamadı")
		}

		lowOnly := c.Query("low_only") == "true"
		res := make([]InventoryRowResponse, 0, len(rows))
		for _, r := range rows {
			low := r.Stock <= r.LowStockThreshold
			if lowOnly && !low {
				continue
			}
			res = append(res, InventoryRowResponse{
				ProductID:   r.ProductID,
				ProductName: r.ProductName,
				SKU:         r.SKU,
				Unit:        r.Unit,
				BranchID:    r.BranchID,
				Stock:       r.Stock,
				LowStock:    low,
			})
		}
		return c.JSON(res)
	}
}

// PUT /api/inventory/adjust
// Manuel stok düzeltmesi. Kayıt yoksa oluşturulur, değişiklik audit'e yazılır.
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		branchID, err := resolveBranchIDFromBodyOrRole(c, body.BranchID)
		if err != nil {
			return err
		}

		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id zorunlu")
		}
		if body.NewStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Stok negatif olamaz")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var record models.InventoryRecord
		oldStock := 0
		err = database.DB.Where("branch_id = ? AND product_id = ?", branchID, body.ProductID).
			First(&record).Error
		if err != nil {
			record = models.InventoryRecord{
				BranchID:  branchID,
				ProductID: body.ProductID,
				Stock:     body.NewStock,
			}
			if err := database.DB.Create(&record).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok kaydı oluşturulamadı")
			}
		} else {
			oldStock = record.Stock
			record.Stock = body.NewStock
			if err := database.DB.Save(&record).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
			}
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "inventory_record",
			EntityID:    record.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Stok düzeltmesi: %s %d -> %d (%s)", product.Name, oldStock, body.NewStock, strings.TrimSpace(body.Reason)),
			Before:      fiber.Map{"stock": oldStock},
			After:       fiber.Map{"stock": body.NewStock},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{
			"product_id": body.ProductID,
			"branch_id":  branchID,
			"stock":      record.Stock,
		})
	}
}

// POST /api/sales
// Satış kaydı. Stok satılan miktar kadar düşer, sıfırın altına inmez.
func RecordSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body RecordSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		branchID, err := resolveBranchIDFromBodyOrRole(c, body.BranchID)
		if err != nil {
			return err
		}

		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id zorunlu")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		saleDate := time.Now()
		if body.Date != "" {
			parsed, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tarih formatı (YYYY-MM-DD olmalı)")
			}
			saleDate = parsed
		}

		unitPrice := 0.0
		if body.UnitPrice != nil {
			unitPrice = *body.UnitPrice
		} else if product.RetailPrice != nil {
			unitPrice = *product.RetailPrice
		}

		sale := models.Sale{
			BranchID:  branchID,
			ProductID: body.ProductID,
			Quantity:  body.Quantity,
			UnitPrice: unitPrice,
			Date:      saleDate,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&sale).Error; err != nil {
				return err
			}

			var record models.InventoryRecord
			if err := tx.Where("branch_id = ? AND product_id = ?", branchID, body.ProductID).
				First(&record).Error; err != nil {
				// Stok kaydı yoksa sıfır stokla oluştur, satış yine de kaydedilir
				record = models.InventoryRecord{BranchID: branchID, ProductID: body.ProductID, Stock: 0}
				return tx.Create(&record).Error
			}

			newStock := record.Stock - body.Quantity
			if newStock < 0 {
				newStock = 0
			}
			return tx.Model(&record).Update("stock", newStock).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Satış: %s x%d", product.Name, body.Quantity),
			After:       sale,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":         sale.ID,
			"product_id": sale.ProductID,
			"branch_id":  sale.BranchID,
			"quantity":   sale.Quantity,
			"unit_price": sale.UnitPrice,
			"date":       sale.Date.Format("2006-01-02"),
		})
	}
}
