package inventory

import (
	"strings"

	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductResponse struct {
	ID                uint     `json:"id"`
	Name              string   `json:"name"`
	SKU               string   `json:"sku"`
	CategoryID        *uint    `json:"category_id"`
	CategoryName      string   `json:"category_name,omitempty"`
	SupplierID        *uint    `json:"supplier_id"`
	SupplierName      string   `json:"supplier_name,omitempty"`
	Unit              string   `json:"unit"`
	CostPrice         *float64 `json:"cost_price"`
	RetailPrice       *float64 `json:"retail_price"`
	WholesalePrice    *float64 `json:"wholesale_price"`
	LowStockThreshold int      `json:"low_stock_threshold"`
	IsActive          bool     `json:"is_active"`
}

type CreateProductRequest struct {
	Name              string   `json:"name"`
	SKU               string   `json:"sku"` // Opsiyonel
	CategoryID        *uint    `json:"category_id"`
	SupplierID        *uint    `json:"supplier_id"`
	Unit              string   `json:"unit"`
	CostPrice         *float64 `json:"cost_price"`
	RetailPrice       *float64 `json:"retail_price"`
	WholesalePrice    *float64 `json:"wholesale_price"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
}

type UpdateProductRequest struct {
	Name              *string  `json:"name"`
	SKU               *string  `json:"sku"`
	CategoryID        *uint    `json:"category_id"`
	SupplierID        *uint    `json:"supplier_id"`
	Unit              *string  `json:"unit"`
	CostPrice         *float64 `json:"cost_price"`
	RetailPrice       *float64 `json:"retail_price"`
	WholesalePrice    *float64 `json:"wholesale_price"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	IsActive          *bool    `json:"is_active"`
}

func toProductResponse(p models.Product) ProductResponse {
	res := ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		CategoryID:        p.CategoryID,
		SupplierID:        p.SupplierID,
		Unit:              p.Unit,
		CostPrice:         p.CostPrice,
		RetailPrice:       p.RetailPrice,
		WholesalePrice:    p.WholesalePrice,
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
	}
	if p.Category != nil {
		res.CategoryName = p.Category.Name
	}
	if p.Supplier != nil {
		res.SupplierName = p.Supplier.Name
	}
	return res
}

// GET /api/products?category_id=&supplier_id=&q= (tüm authenticated kullanıcılar görebilir)
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{}).
			Preload("Category").Preload("Supplier")

		if categoryID := c.Query("category_id"); categoryID != "" {
			dbq = dbq.Where("category_id = ?", categoryID)
		}
		if supplierID := c.Query("supplier_id"); supplierID != "" {
			dbq = dbq.Where("supplier_id = ?", supplierID)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
		}
		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toProductResponse(p))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var p models.Product
		if err := database.DB.Preload("Category").Preload("Supplier").
			First(&p, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		return c.JSON(toProductResponse(p))
	}
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.SKU = strings.TrimSpace(body.SKU)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün adı zorunlu")
		}

		// SKU unique kontrolü (boş değilse)
		if body.SKU != "" {
			var existing models.Product
			if err := database.DB.Where("sku = ?", body.SKU).First(&existing).Error; err == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bu SKU zaten kullanılıyor")
			}
		}

		if body.CategoryID != nil {
			var category models.ProductCategory
			if err := database.DB.First(&category, "id = ?", *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
		}
		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
			}
		}

		p := models.Product{
			Name:           body.Name,
			SKU:            body.SKU,
			CategoryID:     body.CategoryID,
			SupplierID:     body.SupplierID,
			Unit:           body.Unit,
			CostPrice:      body.CostPrice,
			RetailPrice:    body.RetailPrice,
			WholesalePrice: body.WholesalePrice,
			IsActive:       true,
		}
		if body.LowStockThreshold != nil {
			if *body.LowStockThreshold < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Düşük stok eşiği negatif olamaz")
			}
			p.LowStockThreshold = *body.LowStockThreshold
		} else {
			p.LowStockThreshold = 10
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var p models.Product
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün adı boş olamaz")
			}
			p.Name = name
		}
		if body.SKU != nil {
			sku := strings.TrimSpace(*body.SKU)
			if sku != "" && sku != p.SKU {
				var existing models.Product
				if err := database.DB.Where("sku = ? AND id != ?", sku, p.ID).First(&existing).Error; err == nil {
					return fiber.NewError(fiber.StatusBadRequest, "Bu SKU zaten kullanılıyor")
				}
			}
			p.SKU = sku
		}
		if body.CategoryID != nil {
			var category models.ProductCategory
			if err := database.DB.First(&category, "id = ?", *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			p.CategoryID = body.CategoryID
		}
		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
			}
			p.SupplierID = body.SupplierID
		}
		if body.Unit != nil {
			p.Unit = strings.TrimSpace(*body.Unit)
		}
		if body.CostPrice != nil {
			p.CostPrice = body.CostPrice
		}
		if body.RetailPrice != nil {
			p.RetailPrice = body.RetailPrice
		}
		if body.WholesalePrice != nil {
			p.WholesalePrice = body.WholesalePrice
		}
		if body.LowStockThreshold != nil {
			if *body.LowStockThreshold < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Düşük stok eşiği negatif olamaz")
			}
			p.LowStockThreshold = *body.LowStockThreshold
		}
		if body.IsActive != nil {
			p.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		return c.JSON(toProductResponse(p))
	}
}

// DELETE /api/admin/products/:id
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if err := database.DB.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
