package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// İçe aktarma sütun başlıkları. Sadece "Product Name" zorunludur, diğerleri
// dosyada yoksa atlanır.
const (
	colProductName    = "product name"
	colSKU            = "sku"
	colCategory       = "category"
	colSupplier       = "supplier"
	colUnit           = "unit"
	colCostPrice      = "cost price"
	colRetailPrice    = "retail price"
	colWholesalePrice = "wholesale price"
	colStock          = "stock"
	colStockQuantity  = "stock quantity" // eş anlamlı başlık
	colBranch         = "branch"
	colThreshold      = "low stock threshold"
)

type ImportResult struct {
	CreatedCount int      `json:"created_count"`
	UpdatedCount int      `json:"updated_count"`
	SkippedCount int      `json:"skipped_count"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}

// normalizeHeader: Başlık hücresini karşılaştırma için normalleştirir.
// Örn: " Product_Name " -> "product name"
func normalizeHeader(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// POST /api/admin/products/import
// XLSX dosyasından ürün kataloğunu içe aktarır. SKU eşleşirse ürün güncellenir,
// eşleşmezse yeni ürün oluşturulur. Satır hataları işlemi durdurmaz.
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) < 2 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında veri satırı yok")
		}

		// Başlık satırından sütun indekslerini çıkar
		colIndex := make(map[string]int)
		for i, cell := range rows[0] {
			colIndex[normalizeHeader(cell)] = i
		}
		nameIdx, ok := colIndex[colProductName]
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Zorunlu 'Product Name' sütunu bulunamadı")
		}

		lookupIdx := func(name string) int {
			if idx, ok := colIndex[name]; ok {
				return idx
			}
			return -1
		}
		skuIdx := lookupIdx(colSKU)
		categoryIdx := lookupIdx(colCategory)
		supplierIdx := lookupIdx(colSupplier)
		unitIdx := lookupIdx(colUnit)
		costIdx := lookupIdx(colCostPrice)
		retailIdx := lookupIdx(colRetailPrice)
		wholesaleIdx := lookupIdx(colWholesalePrice)
		stockIdx := lookupIdx(colStock)
		if stockIdx < 0 {
			stockIdx = lookupIdx(colStockQuantity)
		}
		branchIdx := lookupIdx(colBranch)
		thresholdIdx := lookupIdx(colThreshold)

		result := ImportResult{Errors: []string{}, Warnings: []string{}}

		for i := 1; i < len(rows); i++ {
			row := rows[i]
			rowNum := i + 1 // Excel satır numarası

			name := cellAt(row, nameIdx)
			if name == "" {
				if len(row) == 0 {
					continue // tamamen boş satır
				}
				result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: ürün adı boş", rowNum))
				result.SkippedCount++
				continue
			}

			sku := cellAt(row, skuIdx)

			// Kategori eşleştir, bulunamazsa uyarı ver ve boş bırak
			var categoryID *uint
			if categoryName := cellAt(row, categoryIdx); categoryName != "" {
				var category models.ProductCategory
				if err := database.DB.Where("LOWER(name) = LOWER(?)", categoryName).
					First(&category).Error; err == nil {
					categoryID = &category.ID
				} else {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Satır %d: kategori %q bulunamadı, kategorisiz kaydedildi", rowNum, categoryName))
				}
			}

			var supplierID *uint
			if supplierName := cellAt(row, supplierIdx); supplierName != "" {
				var supplier models.Supplier
				if err := database.DB.Where("LOWER(name) = LOWER(?)", supplierName).
					First(&supplier).Error; err == nil {
					supplierID = &supplier.ID
				} else {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Satır %d: tedarikçi %q bulunamadı, tedarikçisiz kaydedildi", rowNum, supplierName))
				}
			}

			var costPrice, retailPrice, wholesalePrice *float64
			if v := cellAt(row, costIdx); v != "" {
				parsed, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz alış fiyatı %q", rowNum, v))
					result.SkippedCount++
					continue
				}
				costPrice = &parsed
			}
			if v := cellAt(row, retailIdx); v != "" {
				parsed, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz satış fiyatı %q", rowNum, v))
					result.SkippedCount++
					continue
				}
				retailPrice = &parsed
			}
			if v := cellAt(row, wholesaleIdx); v != "" {
				parsed, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz toptan fiyat %q", rowNum, v))
					result.SkippedCount++
					continue
				}
				wholesalePrice = &parsed
			}

			threshold := 10
			if v := cellAt(row, thresholdIdx); v != "" {
				parsed, err := strconv.Atoi(v)
				if err != nil || parsed < 0 {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz düşük stok eşiği %q", rowNum, v))
					result.SkippedCount++
					continue
				}
				threshold = parsed
			}

			// SKU varsa mevcut ürünü güncelle, yoksa isimle eşleştir
			var product models.Product
			found := false
			if sku != "" {
				if err := database.DB.Where("sku = ?", sku).First(&product).Error; err == nil {
					found = true
				}
			}
			if !found {
				if err := database.DB.Where("LOWER(name) = LOWER(?)", name).First(&product).Error; err == nil {
					found = true
				}
			}

			product.Name = name
			if sku != "" {
				product.SKU = sku
			}
			if categoryID != nil {
				product.CategoryID = categoryID
			}
			if supplierID != nil {
				product.SupplierID = supplierID
			}
			if unit := cellAt(row, unitIdx); unit != "" {
				product.Unit = unit
			}
			if costPrice != nil {
				product.CostPrice = costPrice
			}
			if retailPrice != nil {
				product.RetailPrice = retailPrice
			}
			if wholesalePrice != nil {
				product.WholesalePrice = wholesalePrice
			}
			product.LowStockThreshold = threshold
			product.IsActive = true

			if found {
				if err := database.DB.Save(&product).Error; err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: ürün güncellenemedi", rowNum))
					result.SkippedCount++
					continue
				}
				result.UpdatedCount++
			} else {
				if err := database.DB.Create(&product).Error; err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: ürün oluşturulamadı", rowNum))
					result.SkippedCount++
					continue
				}
				result.CreatedCount++
			}

			// Stok sütunu varsa şube stoğunu da güncelle
			if stockValue := cellAt(row, stockIdx); stockValue != "" {
				stock, err := strconv.Atoi(stockValue)
				if err != nil || stock < 0 {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz stok değeri %q", rowNum, stockValue))
					continue
				}

				branchID := uint(0)
				if branchName := cellAt(row, branchIdx); branchName != "" {
					var branch models.Branch
					if err := database.DB.Where("LOWER(name) = LOWER(?)", branchName).
						First(&branch).Error; err == nil {
						branchID = branch.ID
					} else {
						result.Warnings = append(result.Warnings,
							fmt.Sprintf("Satır %d: şube %q bulunamadı, stok atlandı", rowNum, branchName))
						continue
					}
				} else {
					// Şube sütunu yoksa query'deki şubeye yaz
					resolved, err := resolveBranchIDFromQueryOrRole(c)
					if err != nil || resolved == 0 {
						result.Warnings = append(result.Warnings,
							fmt.Sprintf("Satır %d: şube belirtilmedi, stok atlandı", rowNum))
						continue
					}
					branchID = resolved
				}

				var record models.InventoryRecord
				if err := database.DB.Where("branch_id = ? AND product_id = ?", branchID, product.ID).
					First(&record).Error; err == nil {
					record.Stock = stock
					if err := database.DB.Save(&record).Error; err != nil {
						log.Warnf("Stok güncellenemedi (product_id=%d): %v", product.ID, err)
					}
				} else {
					record = models.InventoryRecord{BranchID: branchID, ProductID: product.ID, Stock: stock}
					if err := database.DB.Create(&record).Error; err != nil {
						log.Warnf("Stok kaydı oluşturulamadı (product_id=%d): %v", product.ID, err)
					}
				}
			}
		}

		return c.JSON(result)
	}
}

// GET /api/admin/products/export?branch_id=
// Ürün kataloğunu ve seçili şubenin stoklarını XLSX olarak indirir.
func ExportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var products []models.Product
		if err := database.DB.Preload("Category").Preload("Supplier").
			Where("is_active = ?", true).
			Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler alınamadı")
		}

		stockByProduct := make(map[uint]int)
		if branchID != 0 {
			var records []models.InventoryRecord
			if err := database.DB.Where("branch_id = ?", branchID).Find(&records).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok bilgisi alınamadı")
			}
			for _, r := range records {
				stockByProduct[r.ProductID] = r.Stock
			}
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Sheet1"
		headers := []string{"Product Name", "SKU", "Category", "Supplier", "Unit", "Cost Price", "Retail Price", "Wholesale Price", "Stock Quantity", "Low Stock Threshold"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for i, p := range products {
			rowNum := i + 2
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, rowNum)
				f.SetCellValue(sheet, cell, value)
			}
			set(1, p.Name)
			set(2, p.SKU)
			if p.Category != nil {
				set(3, p.Category.Name)
			}
			if p.Supplier != nil {
				set(4, p.Supplier.Name)
			}
			set(5, p.Unit)
			if p.CostPrice != nil {
				set(6, *p.CostPrice)
			}
			if p.RetailPrice != nil {
				set(7, *p.RetailPrice)
			}
			if p.WholesalePrice != nil {
				set(8, *p.WholesalePrice)
			}
			if branchID != 0 {
				set(9, stockByProduct[p.ID])
			}
			set(10, p.LowStockThreshold)
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("urunler_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}
