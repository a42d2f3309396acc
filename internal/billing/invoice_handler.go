package billing

import (
	"fmt"
	"time"

	"stokpanel-backend/internal/audit"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateInvoiceRequest struct {
	GRNID       uint    `json:"grn_id" validate:"required"`
	TaxAmount   *string `json:"tax_amount"`   // ondalık string, örn "6.00"
	InvoiceDate string  `json:"invoice_date"` // YYYY-MM-DD, boşsa bugün
	DueDate     string  `json:"due_date"`     // YYYY-MM-DD, opsiyonel
}

type UpdateInvoiceItemRequest struct {
	ItemID    uint    `json:"item_id" validate:"required"`
	UnitPrice *string `json:"unit_price"` // ikisinden biri verilir
	LineTotal *string `json:"line_total"`
}

type UpdateInvoiceRequest struct {
	TaxAmount *string                    `json:"tax_amount"`
	DueDate   *string                    `json:"due_date"`
	Items     []UpdateInvoiceItemRequest `json:"items"`
}

type InvoiceItemResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type InvoiceResponse struct {
	ID            uint                  `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	GRNID         uint                  `json:"grn_id"`
	GRNNumber     string                `json:"grn_number"`
	BranchID      uint                  `json:"branch_id"`
	SupplierID    uint                  `json:"supplier_id"`
	SupplierName  string                `json:"supplier_name"`
	Subtotal      string                `json:"subtotal"`
	TaxAmount     string                `json:"tax_amount"`
	TotalAmount   string                `json:"total_amount"`
	Status        string                `json:"status"`
	InvoiceDate   string                `json:"invoice_date"`
	DueDate       *string               `json:"due_date"`
	ExpenseID     *uint                 `json:"expense_id"`
	Items         []InvoiceItemResponse `json:"items"`
	CreatedAt     string                `json:"created_at"`
}

func toInvoiceResponse(inv models.SupplierInvoice) InvoiceResponse {
	res := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		GRNID:         inv.GRNID,
		GRNNumber:     inv.GRN.GRNNumber,
		BranchID:      inv.BranchID,
		SupplierID:    inv.SupplierID,
		SupplierName:  inv.Supplier.Name,
		Subtotal:      inv.Subtotal.StringFixed(2),
		TaxAmount:     inv.TaxAmount.StringFixed(2),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		Status:        string(inv.Status),
		InvoiceDate:   inv.InvoiceDate.Format("2006-01-02"),
		ExpenseID:     inv.ExpenseID,
		Items:         make([]InvoiceItemResponse, 0, len(inv.Items)),
		CreatedAt:     inv.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format("2006-01-02")
		res.DueDate = &d
	}
	for _, item := range inv.Items {
		res.Items = append(res.Items, InvoiceItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}
	return res
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negatif tutar")
	}
	return d, nil
}

// POST /api/invoices
// Onaylı GRN'den taslak fatura oluşturur. Satırlar GRN'in teslim alınan
// miktarlarından, birim fiyatlar sipariş satırlarından gelir. Bir GRN için
// ikinci fatura açılamaz.
func CreateInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body CreateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Doğrulama hatası: "+err.Error())
		}

		var grn models.GoodsReceivedNote
		if err := database.DB.Preload("Items").Preload("PurchaseOrder").Preload("PurchaseOrder.Items").
			First(&grn, "id = ?", body.GRNID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mal kabul fişi bulunamadı")
		}
		if grn.Status != models.GRNStatusConfirmed {
			return fiber.NewError(fiber.StatusConflict, "Sadece onaylı mal kabul fişlerinden fatura kesilebilir")
		}

		var existingCount int64
		if err := database.DB.Model(&models.SupplierInvoice{}).
			Where("grn_id = ?", grn.ID).Count(&existingCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura kontrolü yapılamadı")
		}
		if existingCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu mal kabul fişi için fatura zaten var")
		}

		tax := decimal.Zero
		if body.TaxAmount != nil {
			parsed, err := parseAmount(*body.TaxAmount)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz vergi tutarı")
			}
			tax = parsed
		}

		invoiceDate := time.Now()
		if body.InvoiceDate != "" {
			parsed, err := time.Parse("2006-01-02", body.InvoiceDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura tarihi (YYYY-MM-DD olmalı)")
			}
			invoiceDate = parsed
		}
		var dueDate *time.Time
		if body.DueDate != "" {
			parsed, err := time.Parse("2006-01-02", body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz vade tarihi (YYYY-MM-DD olmalı)")
			}
			dueDate = &parsed
		}

		// Sipariş satırlarındaki birim maliyetler
		unitCostByProduct := make(map[uint]decimal.Decimal)
		for _, poItem := range grn.PurchaseOrder.Items {
			if poItem.UnitCost != nil {
				unitCostByProduct[poItem.ProductID] = decimal.NewFromFloat(*poItem.UnitCost)
			}
		}

		items := make([]models.SupplierInvoiceItem, 0, len(grn.Items))
		for _, grnItem := range grn.Items {
			if grnItem.ReceivedQuantity == 0 {
				continue
			}
			unitPrice := unitCostByProduct[grnItem.ProductID]
			items = append(items, models.SupplierInvoiceItem{
				ProductID: grnItem.ProductID,
				Quantity:  grnItem.ReceivedQuantity,
				UnitPrice: unitPrice,
				LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(grnItem.ReceivedQuantity))),
			})
		}
		if len(items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Faturalanacak satır yok")
		}

		subtotal, total := models.ComputeInvoiceTotals(items, tax)
		if !total.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest,
				"Fatura toplamı sıfır veya negatif olamaz, sipariş satırlarında birim maliyet eksik olabilir")
		}

		var inv models.SupplierInvoice
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			invoiceNumber, err := nextInvoiceNumber(tx)
			if err != nil {
				return err
			}
			inv = models.SupplierInvoice{
				InvoiceNumber: invoiceNumber,
				GRNID:         grn.ID,
				BranchID:      grn.BranchID,
				SupplierID:    grn.SupplierID,
				Subtotal:      subtotal,
				TaxAmount:     tax,
				TotalAmount:   total,
				Status:        models.InvoiceStatusDraft,
				InvoiceDate:   invoiceDate,
				DueDate:       dueDate,
				CreatedBy:     userID,
				Items:         items,
			}
			return tx.Create(&inv).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura oluşturulamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &grn.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_invoice",
			EntityID:    inv.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Fatura açıldı: %s (%s)", inv.InvoiceNumber, grn.GRNNumber),
			After:       inv,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		database.DB.Preload("GRN").Preload("Supplier").
			Preload("Items").Preload("Items.Product").First(&inv, inv.ID)
		return c.Status(fiber.StatusCreated).JSON(toInvoiceResponse(inv))
	}
}

// PUT /api/invoices/:id
// Sadece taslak fatura düzenlenebilir. Satırda unit_price verilirse line_total,
// line_total verilirse unit_price yeniden hesaplanır; toplamlar her düzenlemede
// satırlardan türetilir.
func UpdateInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var inv models.SupplierInvoice
		if err := database.DB.Preload("Items").First(&inv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}
		if inv.Status != models.InvoiceStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak faturalar düzenlenebilir")
		}

		var body UpdateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.TaxAmount != nil {
			tax, err := parseAmount(*body.TaxAmount)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz vergi tutarı")
			}
			inv.TaxAmount = tax
		}
		if body.DueDate != nil {
			if *body.DueDate == "" {
				inv.DueDate = nil
			} else {
				parsed, err := time.Parse("2006-01-02", *body.DueDate)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Geçersiz vade tarihi (YYYY-MM-DD olmalı)")
				}
				inv.DueDate = &parsed
			}
		}

		itemsByID := make(map[uint]*models.SupplierInvoiceItem, len(inv.Items))
		for i := range inv.Items {
			itemsByID[inv.Items[i].ID] = &inv.Items[i]
		}

		for _, itemReq := range body.Items {
			item, ok := itemsByID[itemReq.ItemID]
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Fatura satırı bulunamadı (id=%d)", itemReq.ItemID))
			}
			qty := decimal.NewFromInt(int64(item.Quantity))

			switch {
			case itemReq.UnitPrice != nil:
				price, err := parseAmount(*itemReq.UnitPrice)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Geçersiz birim fiyat")
				}
				item.UnitPrice = price
				item.LineTotal = price.Mul(qty)
			case itemReq.LineTotal != nil:
				lineTotal, err := parseAmount(*itemReq.LineTotal)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Geçersiz satır toplamı")
				}
				item.LineTotal = lineTotal
				if !qty.IsZero() {
					item.UnitPrice = lineTotal.DivRound(qty, 2)
				}
			}
		}

		inv.Subtotal, inv.TotalAmount = models.ComputeInvoiceTotals(inv.Items, inv.TaxAmount)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for i := range inv.Items {
				if err := tx.Save(&inv.Items[i]).Error; err != nil {
					return err
				}
			}
			return tx.Save(&inv).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura güncellenemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &inv.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_invoice",
			EntityID:    inv.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Fatura düzenlendi: %s", inv.InvoiceNumber),
			After:       inv,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		database.DB.Preload("GRN").Preload("Supplier").
			Preload("Items").Preload("Items.Product").First(&inv, inv.ID)
		return c.JSON(toInvoiceResponse(inv))
	}
}

// GET /api/invoices?branch_id=&status=&supplier_id=
func ListInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.SupplierInvoice{}).
			Preload("GRN").Preload("Supplier").
			Preload("Items").Preload("Items.Product")

		if branchID != 0 {
			dbq = dbq.Where("branch_id = ?", branchID)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if supplierID := c.Query("supplier_id"); supplierID != "" {
			dbq = dbq.Where("supplier_id = ?", supplierID)
		}

		var invoices []models.SupplierInvoice
		if err := dbq.Order("created_at desc").Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar listelenemedi")
		}

		res := make([]InvoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			res = append(res, toInvoiceResponse(inv))
		}
		return c.JSON(res)
	}
}

// GET /api/invoices/:id
func GetInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var inv models.SupplierInvoice
		if err := database.DB.Preload("GRN").Preload("Supplier").
			Preload("Items").Preload("Items.Product").
			First(&inv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		return c.JSON(toInvoiceResponse(inv))
	}
}

// POST /api/invoices/:id/approve
// Faturayı onaylar ve toplam tutar kadar tek bir gider kaydı oluşturur. Gider ve
// durum geçişi aynı transaction'dadır; koşullu güncelleme ikinci onayda ikinci
// gider oluşmasını engeller. Toplamı sıfır veya negatif fatura onaylanamaz.
func ApproveInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var inv models.SupplierInvoice
		if err := database.DB.Preload("Supplier").First(&inv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		if !inv.Status.CanTransitionTo(models.InvoiceStatusApproved) {
			return fiber.NewError(fiber.StatusConflict, "Sadece taslak faturalar onaylanabilir")
		}
		if !inv.TotalAmount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Fatura toplamı sıfır veya negatif olamaz")
		}

		var expense models.Expense
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			result := tx.Model(&models.SupplierInvoice{}).
				Where("id = ? AND status = ?", inv.ID, models.InvoiceStatusDraft).
				Updates(map[string]any{
					"status":      models.InvoiceStatusApproved,
					"approved_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Sadece taslak faturalar onaylanabilir")
			}

			category, err := ensureProcurementCategory(tx, inv.BranchID)
			if err != nil {
				return err
			}

			amount, _ := inv.TotalAmount.Float64()
			expense = models.Expense{
				BranchID:          inv.BranchID,
				CategoryID:        category.ID,
				Date:              now,
				Amount:            amount,
				SupplierInvoiceID: &inv.ID,
				Description:       fmt.Sprintf("Tedarikçi faturası %s (%s)", inv.InvoiceNumber, inv.Supplier.Name),
			}
			if err := tx.Create(&expense).Error; err != nil {
				return err
			}

			return tx.Model(&models.SupplierInvoice{}).
				Where("id = ?", inv.ID).
				Update("expense_id", expense.ID).Error
		})
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return fiberErr
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura onaylanamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &inv.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_invoice",
			EntityID:    inv.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Fatura onaylandı: %s, gider kaydı #%d", inv.InvoiceNumber, expense.ID),
			Before:      fiber.Map{"status": models.InvoiceStatusDraft},
			After:       fiber.Map{"status": models.InvoiceStatusApproved, "expense_id": expense.ID},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{
			"id":             inv.ID,
			"invoice_number": inv.InvoiceNumber,
			"status":         models.InvoiceStatusApproved,
			"expense_id":     expense.ID,
		})
	}
}

// POST /api/invoices/:id/pay
func MarkInvoicePaidHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var inv models.SupplierInvoice
		if err := database.DB.First(&inv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		if !inv.Status.CanTransitionTo(models.InvoiceStatusPaid) {
			return fiber.NewError(fiber.StatusConflict, "Sadece onaylı faturalar ödendi olarak işaretlenebilir")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			result := tx.Model(&models.SupplierInvoice{}).
				Where("id = ? AND status = ?", inv.ID, models.InvoiceStatusApproved).
				Updates(map[string]any{
					"status":  models.InvoiceStatusPaid,
					"paid_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Sadece onaylı faturalar ödendi olarak işaretlenebilir")
			}

			// Ödeme kaydı: kategori bakiyesi gider - ödeme olarak izlenir
			category, err := ensureProcurementCategory(tx, inv.BranchID)
			if err != nil {
				return err
			}
			amount, _ := inv.TotalAmount.Float64()
			payment := models.ExpensePayment{
				BranchID:    inv.BranchID,
				CategoryID:  category.ID,
				Amount:      amount,
				Date:        now,
				Description: fmt.Sprintf("Fatura ödemesi %s", inv.InvoiceNumber),
			}
			return tx.Create(&payment).Error
		})
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return fiberErr
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura güncellenemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &inv.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_invoice",
			EntityID:    inv.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Fatura ödendi: %s", inv.InvoiceNumber),
			Before:      fiber.Map{"status": models.InvoiceStatusApproved},
			After:       fiber.Map{"status": models.InvoiceStatusPaid},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{"id": inv.ID, "invoice_number": inv.InvoiceNumber, "status": models.InvoiceStatusPaid})
	}
}

// GET /api/invoices/outstanding?branch_id=
// Açık borç: onaylanmış ama ödenmemiş faturaların toplamı.
func OutstandingPayablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.SupplierInvoice{}).
			Where("status = ?", models.InvoiceStatusApproved)
		if branchID != 0 {
			dbq = dbq.Where("branch_id = ?", branchID)
		}

		var invoices []models.SupplierInvoice
		if err := dbq.Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar alınamadı")
		}

		total := decimal.Zero
		for _, inv := range invoices {
			total = total.Add(inv.TotalAmount)
		}

		return c.JSON(fiber.Map{
			"branch_id":     branchID,
			"invoice_count": len(invoices),
			"total":         total.StringFixed(2),
		})
	}
}

// ensureProcurementCategory: Şubede "Inventory Procurement" gider kategorisi yoksa açar.
func ensureProcurementCategory(tx *gorm.DB, branchID uint) (models.ExpenseCategory, error) {
	var category models.ExpenseCategory
	err := tx.Where("branch_id = ? AND name = ?", branchID, models.ProcurementExpenseCategory).
		First(&category).Error
	if err == nil {
		return category, nil
	}

	category = models.ExpenseCategory{
		BranchID: branchID,
		Name:     models.ProcurementExpenseCategory,
	}
	if err := tx.Create(&category).Error; err != nil {
		return category, err
	}
	return category, nil
}

// nextInvoiceNumber: Yıl bazlı sıralı fatura numarası. Örn: INV-2026-0007.
func nextInvoiceNumber(tx *gorm.DB) (string, error) {
	year := time.Now().Year()
	pattern := fmt.Sprintf("INV-%d-%%", year)

	var count int64
	if err := tx.Model(&models.SupplierInvoice{}).
		Where("invoice_number LIKE ?", pattern).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%04d", year, count+1), nil
}
