package admin

import (
	"fmt"

	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LeadTimeResponse struct {
	ID           uint   `json:"id"`
	ProductID    *uint  `json:"product_id"` // null = genel varsayılan
	LeadTimeDays int    `json:"lead_time_days"`
	UpdatedAt    string `json:"updated_at"`
}

type SetLeadTimeRequest struct {
	LeadTimeDays int `json:"lead_time_days"`
}

// GET /api/admin/lead-time
// Genel varsayılan + ürün bazlı tüm ayarlar
func ListLeadTimeConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var configs []models.LeadTimeConfig
		if err := database.DB.Order("product_id ASC NULLS FIRST").Find(&configs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarik süresi ayarları listelenemedi")
		}

		res := make([]LeadTimeResponse, 0, len(configs))
		for _, cfg := range configs {
			res = append(res, LeadTimeResponse{
				ID:           cfg.ID,
				ProductID:    cfg.ProductID,
				LeadTimeDays: cfg.LeadTimeDays,
				UpdatedAt:    cfg.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/lead-time
// İşletme geneli varsayılan tedarik süresi
func SetGlobalLeadTimeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetLeadTimeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.LeadTimeDays <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "lead_time_days 0'dan büyük olmalı")
		}

		userID, _ := c.Locals(auth.CtxUserIDKey).(uint)

		var cfg models.LeadTimeConfig
		err := database.DB.Where("product_id IS NULL").First(&cfg).Error
		switch {
		case err == nil:
			cfg.LeadTimeDays = body.LeadTimeDays
			cfg.UpdatedBy = userID
			if err := database.DB.Save(&cfg).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ayar güncellenemedi")
			}
		case err == gorm.ErrRecordNotFound:
			cfg = models.LeadTimeConfig{LeadTimeDays: body.LeadTimeDays, UpdatedBy: userID}
			if err := database.DB.Create(&cfg).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ayar oluşturulamadı")
			}
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar okunamadı")
		}

		return c.JSON(LeadTimeResponse{
			ID:           cfg.ID,
			ProductID:    cfg.ProductID,
			LeadTimeDays: cfg.LeadTimeDays,
			UpdatedAt:    cfg.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// PUT /api/admin/products/:id/lead-time
// Ürüne özel tedarik süresi (genel varsayılanı ezer)
func SetProductLeadTimeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var productID uint
		if _, err := fmt.Sscan(c.Params("id"), &productID); err != nil || productID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", productID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body SetLeadTimeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.LeadTimeDays <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "lead_time_days 0'dan büyük olmalı")
		}

		userID, _ := c.Locals(auth.CtxUserIDKey).(uint)

		var cfg models.LeadTimeConfig
		err := database.DB.Where("product_id = ?", productID).First(&cfg).Error
		switch {
		case err == nil:
			cfg.LeadTimeDays = body.LeadTimeDays
			cfg.UpdatedBy = userID
			if err := database.DB.Save(&cfg).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ayar güncellenemedi")
			}
		case err == gorm.ErrRecordNotFound:
			cfg = models.LeadTimeConfig{ProductID: &productID, LeadTimeDays: body.LeadTimeDays, UpdatedBy: userID}
			if err := database.DB.Create(&cfg).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ayar oluşturulamadı")
			}
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar okunamadı")
		}

		return c.JSON(LeadTimeResponse{
			ID:           cfg.ID,
			ProductID:    cfg.ProductID,
			LeadTimeDays: cfg.LeadTimeDays,
			UpdatedAt:    cfg.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// DELETE /api/admin/products/:id/lead-time
// Ürüne özel ayarı kaldırır; ürün tekrar genel varsayılana düşer
func ClearProductLeadTimeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var productID uint
		if _, err := fmt.Sscan(c.Params("id"), &productID); err != nil || productID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		if err := database.DB.Delete(&models.LeadTimeConfig{}, "product_id = ?", productID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
