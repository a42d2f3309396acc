package procurement

import (
	"fmt"
	"strings"

	"stokpanel-backend/internal/audit"
	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"
	"stokpanel-backend/internal/notify"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateRequestRequest struct {
	BranchID          *uint    `json:"branch_id"`
	ProductID         uint     `json:"product_id" validate:"required"`
	SupplierID        uint     `json:"supplier_id" validate:"required"`
	RequestedQuantity int      `json:"requested_quantity" validate:"required,gt=0"`
	CommMethods       []string `json:"comm_methods" validate:"required,min=1"`
	CustomMessage     string   `json:"custom_message" validate:"max=500"`
}

type RequestResponse struct {
	ID                uint     `json:"id"`
	BranchID          uint     `json:"branch_id"`
	ProductID         uint     `json:"product_id"`
	ProductName       string   `json:"product_name"`
	SupplierID        uint     `json:"supplier_id"`
	SupplierName      string   `json:"supplier_name"`
	CurrentStock      int      `json:"current_stock"`
	RequestedQuantity int      `json:"requested_quantity"`
	CommMethods       []string `json:"comm_methods"`
	CustomMessage     string   `json:"custom_message"`
	Status            string   `json:"status"`
	ConversionStatus  string   `json:"conversion_status"`
	ConvertedToPOID   *uint    `json:"converted_to_po_id"`
	CreatedAt         string   `json:"created_at"`
}

func toRequestResponse(r models.SupplierRequest) RequestResponse {
	methods := make([]string, 0)
	for _, m := range r.Methods() {
		methods = append(methods, string(m))
	}
	return RequestResponse{
		ID:                r.ID,
		BranchID:          r.BranchID,
		ProductID:         r.ProductID,
		ProductName:       r.Product.Name,
		SupplierID:        r.SupplierID,
		SupplierName:      r.Supplier.Name,
		CurrentStock:      r.CurrentStock,
		RequestedQuantity: r.RequestedQuantity,
		CommMethods:       methods,
		CustomMessage:     r.CustomMessage,
		Status:            string(r.Status),
		ConversionStatus:  string(r.ConversionStatus),
		ConvertedToPOID:   r.ConvertedToPOID,
		CreatedAt:         r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// requestMessage: Tedarikçiye gidecek mesaj metni. Özel mesaj verilmişse o kullanılır.
func requestMessage(req models.SupplierRequest, product models.Product, branch models.Branch) string {
	if strings.TrimSpace(req.CustomMessage) != "" {
		return req.CustomMessage
	}
	return fmt.Sprintf("Sipariş talebi: %s x%d (%s şubesi, mevcut stok: %d)",
		product.Name, req.RequestedQuantity, branch.Name, req.CurrentStock)
}

// POST /api/requests
// Tedarikçi talebi oluşturur ve seçilen kanallardan bildirim gönderir.
// Aynı ürün-şube için açık (requested) bir talep varken yenisi açılamaz.
func CreateRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body CreateRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if err := validate.Struct(body); err != nil {
			validationErrors := err.(validator.ValidationErrors)
			fields := make(map[string]string)
			for _, ve := range validationErrors {
				fields[ve.Field()] = ve.Tag()
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Doğrulama hatası",
				"fields":  fields,
			})
		}

		branchID, err := resolveBranchIDFromBodyOrRole(c, body.BranchID)
		if err != nil {
			return err
		}

		methods := make([]models.CommMethod, 0, len(body.CommMethods))
		for _, m := range body.CommMethods {
			method := models.CommMethod(strings.ToLower(strings.TrimSpace(m)))
			if !models.ValidCommMethod(method) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bildirim kanalı: "+m)
			}
			methods = append(methods, method)
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
		}
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
		}
		if !supplier.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi pasif durumda")
		}
		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", branchID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
		}

		// Aynı ürün-şube için açık talep kontrolü
		var openCount int64
		if err := database.DB.Model(&models.SupplierRequest{}).
			Where("branch_id = ? AND product_id = ? AND conversion_status = ?",
				branchID, body.ProductID, models.ConversionRequested).
			Count(&openCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talep kontrolü yapılamadı")
		}
		if openCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu ürün için açık bir talep zaten var")
		}

		// Talep anındaki stok anlık görüntüsü
		currentStock := 0
		var record models.InventoryRecord
		if err := database.DB.Where("branch_id = ? AND product_id = ?", branchID, body.ProductID).
			First(&record).Error; err == nil {
			currentStock = record.Stock
		}

		req := models.SupplierRequest{
			BranchID:          branchID,
			ProductID:         body.ProductID,
			SupplierID:        body.SupplierID,
			CurrentStock:      currentStock,
			RequestedQuantity: body.RequestedQuantity,
			CommMethods:       models.JoinCommMethods(methods),
			CustomMessage:     strings.TrimSpace(body.CustomMessage),
			ConversionStatus:  models.ConversionRequested,
			CreatedBy:         userID,
		}

		// Bildirimi gönder, sonucu talebe yaz. Başarısız gönderim talebi engellemez,
		// UI failed durumunu gösterir ve tekrar gönderim kullanıcıya kalır.
		req.Status = notify.Dispatch(supplier, methods, requestMessage(req, product, branch))

		if err := database.DB.Create(&req).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talep oluşturulamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_request",
			EntityID:    req.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Tedarikçi talebi: %s x%d (%s)", product.Name, req.RequestedQuantity, supplier.Name),
			After:       req,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		req.Product = product
		req.Supplier = supplier
		return c.Status(fiber.StatusCreated).JSON(toRequestResponse(req))
	}
}

// GET /api/requests?branch_id=&conversion_status=&supplier_id=
func ListRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.SupplierRequest{}).
			Preload("Product").Preload("Supplier")

		if branchID != 0 {
			dbq = dbq.Where("branch_id = ?", branchID)
		}
		if status := c.Query("conversion_status"); status != "" {
			dbq = dbq.Where("conversion_status = ?", status)
		}
		if supplierID := c.Query("supplier_id"); supplierID != "" {
			dbq = dbq.Where("supplier_id = ?", supplierID)
		}

		var requests []models.SupplierRequest
		if err := dbq.Order("created_at desc").Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talepler listelenemedi")
		}

		res := make([]RequestResponse, 0, len(requests))
		for _, r := range requests {
			res = append(res, toRequestResponse(r))
		}
		return c.JSON(res)
	}
}

// POST /api/requests/:id/convert
// Talebi taslak satınalma siparişine dönüştürür. Dönüşüm tek yönlüdür ve
// koşullu güncellemeyle korunur: ikinci deneme 409 alır.
func ConvertRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var req models.SupplierRequest
		if err := database.DB.Preload("Product").Preload("Supplier").
			First(&req, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Talep bulunamadı")
		}

		if !req.ConversionStatus.CanTransitionTo(models.ConversionConverted) {
			return fiber.NewError(fiber.StatusConflict, "Talep zaten dönüştürülmüş veya iptal edilmiş")
		}

		var po models.PurchaseOrder
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			poNumber, err := nextDocumentNumber(tx, &models.PurchaseOrder{}, "po_number", "PO")
			if err != nil {
				return err
			}

			unitCost := req.Product.UnitCost()
			item := models.PurchaseOrderItem{
				ProductID:  req.ProductID,
				ProductSKU: req.Product.SKU,
				Quantity:   req.RequestedQuantity,
			}
			if unitCost > 0 {
				total := unitCost * float64(req.RequestedQuantity)
				item.UnitCost = &unitCost
				item.TotalCost = &total
			}

			po = models.PurchaseOrder{
				PONumber:        poNumber,
				BranchID:        req.BranchID,
				SupplierID:      req.SupplierID,
				Status:          models.POStatusDraft,
				SourceRequestID: &req.ID,
				CreatedBy:       userID,
				Items:           []models.PurchaseOrderItem{item},
			}
			if err := tx.Create(&po).Error; err != nil {
				return err
			}

			// Koşullu güncelleme: sadece hâlâ requested durumundaysa dönüştür
			result := tx.Model(&models.SupplierRequest{}).
				Where("id = ? AND conversion_status = ?", req.ID, models.ConversionRequested).
				Updates(map[string]any{
					"conversion_status":  models.ConversionConverted,
					"converted_to_po_id": po.ID,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Talep zaten dönüştürülmüş veya iptal edilmiş")
			}
			return nil
		})
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return fiberErr
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Talep dönüştürülemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &req.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_request",
			EntityID:    req.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Talep siparişe dönüştürüldü: %s", po.PONumber),
			Before:      fiber.Map{"conversion_status": models.ConversionRequested},
			After:       fiber.Map{"conversion_status": models.ConversionConverted, "po_id": po.ID},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"request_id": req.ID,
			"po_id":      po.ID,
			"po_number":  po.PONumber,
			"status":     po.Status,
		})
	}
}

// POST /api/requests/:id/cancel
func CancelRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var req models.SupplierRequest
		if err := database.DB.First(&req, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Talep bulunamadı")
		}

		if !req.ConversionStatus.CanTransitionTo(models.ConversionCancelled) {
			return fiber.NewError(fiber.StatusConflict, "Talep zaten dönüştürülmüş veya iptal edilmiş")
		}

		result := database.DB.Model(&models.SupplierRequest{}).
			Where("id = ? AND conversion_status = ?", req.ID, models.ConversionRequested).
			Update("conversion_status", models.ConversionCancelled)
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talep iptal edilemedi")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Talep zaten dönüştürülmüş veya iptal edilmiş")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &req.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_request",
			EntityID:    req.ID,
			Action:      models.AuditActionUpdate,
			Description: "Talep iptal edildi",
			Before:      fiber.Map{"conversion_status": models.ConversionRequested},
			After:       fiber.Map{"conversion_status": models.ConversionCancelled},
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{"id": req.ID, "conversion_status": models.ConversionCancelled})
	}
}

// DELETE /api/requests/:id
// Sadece talebi oluşturan kişi veya tüm talepleri silme yetkisi olan roller silebilir.
// Dönüştürülmüş talebin silinmesi oluşan siparişe dokunmaz, sipariş kendi
// yaşam döngüsünde devam eder.
func DeleteRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var req models.SupplierRequest
		if err := database.DB.First(&req, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Talep bulunamadı")
		}

		if req.CreatedBy != userID {
			roleVal := c.Locals(auth.CtxUserRoleKey)
			role, ok := roleVal.(models.UserRole)
			if !ok || !auth.HasCapability(role, auth.CapDeleteAnyRequest) {
				return fiber.NewError(fiber.StatusForbidden, "Bu talebi silme yetkiniz yok")
			}
		}

		if err := database.DB.Delete(&models.SupplierRequest{}, "id = ?", req.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Talep silinemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &req.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier_request",
			EntityID:    req.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Talep silindi (#%d)", req.ID),
			Before:      req,
		}); logErr != nil {
			log.Warnf("Audit log yazılamadı: %v", logErr)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
