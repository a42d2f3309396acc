package forecast

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/config"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ForecastRowResponse struct {
	ProductID                uint     `json:"product_id"`
	ProductName              string   `json:"product_name"`
	SKU                      string   `json:"sku"`
	SupplierID               *uint    `json:"supplier_id"`
	SupplierName             string   `json:"supplier_name,omitempty"`
	BranchID                 uint     `json:"branch_id"`
	CurrentStock             int      `json:"current_stock"`
	UnitsSold                int      `json:"units_sold"`
	AverageDailySales        float64  `json:"average_daily_sales"`
	LeadTimeDays             int      `json:"lead_time_days"`
	ReorderPoint             float64  `json:"reorder_point"`
	SuggestedReorderQuantity int      `json:"suggested_reorder_quantity"`
	EstimatedReorderCost     float64  `json:"estimated_reorder_cost"`
	DaysUntilStockout        *float64 `json:"days_until_stockout"`
	Status                   string   `json:"status"`
}

type SummaryResponse struct {
	BranchID           uint                  `json:"branch_id"`
	UrgentCount        int                   `json:"urgent_count"`
	ReorderSoonCount   int                   `json:"reorder_soon_count"`
	OKCount            int                   `json:"ok_count"`
	TotalEstimatedCost float64               `json:"total_estimated_cost"`
	HighVelocity       []ForecastRowResponse `json:"high_velocity"`
	SlowMovers         []ForecastRowResponse `json:"slow_movers"`
}

// leadTimeFor: Ürüne özel lead time > global ayar > config varsayılanı.
func leadTimeFor(productID uint, perProduct map[uint]int, global *int, cfg *config.Config) int {
	if days, ok := perProduct[productID]; ok {
		return days
	}
	if global != nil {
		return *global
	}
	return cfg.DefaultLeadTimeDays
}

// buildForecast: Şubedeki tüm aktif ürünler için tahminleme satırlarını üretir.
func buildForecast(branchID uint, cfg *config.Config) ([]ForecastRowResponse, error) {
	var products []models.Product
	if err := database.DB.Preload("Supplier").
		Where("is_active = ?", true).
		Order("name asc").Find(&products).Error; err != nil {
		return nil, err
	}

	stockByProduct := make(map[uint]int)
	var records []models.InventoryRecord
	if err := database.DB.Where("branch_id = ?", branchID).Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		stockByProduct[r.ProductID] = r.Stock
	}

	// Pencere içindeki satış toplamları
	windowStart := time.Now().AddDate(0, 0, -cfg.SalesWindowDays)
	type saleSum struct {
		ProductID uint
		Total     int
	}
	var sums []saleSum
	if err := database.DB.Model(&models.Sale{}).
		Select("product_id, SUM(quantity) AS total").
		Where("branch_id = ? AND date >= ?", branchID, windowStart).
		Group("product_id").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	soldByProduct := make(map[uint]int, len(sums))
	for _, s := range sums {
		soldByProduct[s.ProductID] = s.Total
	}

	// Lead time konfigürasyonu
	var leadConfigs []models.LeadTimeConfig
	if err := database.DB.Find(&leadConfigs).Error; err != nil {
		return nil, err
	}
	perProductLead := make(map[uint]int)
	var globalLead *int
	for _, lc := range leadConfigs {
		if lc.ProductID == nil {
			days := lc.LeadTimeDays
			globalLead = &days
			continue
		}
		perProductLead[*lc.ProductID] = lc.LeadTimeDays
	}

	policy := Policy{
		SalesWindowDays:  cfg.SalesWindowDays,
		ReorderCycleDays: cfg.ReorderCycleDays,
		UrgentFactor:     cfg.UrgentFactor,
		SoonFactor:       cfg.SoonFactor,
	}

	rows := make([]ForecastRowResponse, 0, len(products))
	for _, p := range products {
		leadTime := leadTimeFor(p.ID, perProductLead, globalLead, cfg)
		in := Input{
			CurrentStock: stockByProduct[p.ID],
			UnitsSold:    soldByProduct[p.ID],
			LeadTimeDays: leadTime,
			UnitCost:     p.UnitCost(),
		}
		result := Calculate(in, policy)

		row := ForecastRowResponse{
			ProductID:                p.ID,
			ProductName:              p.Name,
			SKU:                      p.SKU,
			SupplierID:               p.SupplierID,
			BranchID:                 branchID,
			CurrentStock:             in.CurrentStock,
			UnitsSold:                in.UnitsSold,
			AverageDailySales:        result.AverageDailySales,
			LeadTimeDays:             leadTime,
			ReorderPoint:             result.ReorderPoint,
			SuggestedReorderQuantity: result.SuggestedReorderQuantity,
			EstimatedReorderCost:     result.EstimatedReorderCost,
			DaysUntilStockout:        result.DaysUntilStockout,
			Status:                   string(result.Status),
		}
		if p.Supplier != nil {
			row.SupplierName = p.Supplier.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// GET /api/forecast?branch_id=&status=&supplier_id=&window_days=
func ListForecastHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		if branchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "branch_id gerekli")
		}

		effective := *cfg
		if windowStr := c.Query("window_days"); windowStr != "" {
			parsed, err := strconv.Atoi(windowStr)
			if err != nil || parsed <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz window_days")
			}
			effective.SalesWindowDays = parsed
		}

		rows, err := buildForecast(branchID, &effective)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahminleme hesaplanamadı")
		}

		if status := c.Query("status"); status != "" {
			filtered := rows[:0]
			for _, r := range rows {
				if r.Status == status {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}
		if supplierIDStr := c.Query("supplier_id"); supplierIDStr != "" {
			supplierID, err := strconv.ParseUint(supplierIDStr, 10, 32)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz supplier_id")
			}
			filtered := rows[:0]
			for _, r := range rows {
				if r.SupplierID != nil && *r.SupplierID == uint(supplierID) {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			ql := strings.ToLower(q)
			filtered := rows[:0]
			for _, r := range rows {
				if strings.Contains(strings.ToLower(r.ProductName), ql) ||
					strings.Contains(strings.ToLower(r.SKU), ql) {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}

		return c.JSON(rows)
	}
}

// GET /api/forecast/summary?branch_id=&top=5
// Durum sayıları, toplam tahmini sipariş maliyeti, en hızlı satan ve
// hiç satmayan ürünler.
func SummaryHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchIDFromQueryOrRole(c)
		if err != nil {
			return err
		}
		if branchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "branch_id gerekli")
		}

		topN := 5
		if topStr := c.Query("top"); topStr != "" {
			parsed, err := strconv.Atoi(topStr)
			if err != nil || parsed <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz top parametresi")
			}
			topN = parsed
		}

		rows, err := buildForecast(branchID, cfg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahminleme hesaplanamadı")
		}

		summary := SummaryResponse{
			BranchID:     branchID,
			HighVelocity: []ForecastRowResponse{},
			SlowMovers:   []ForecastRowResponse{},
		}
		for _, r := range rows {
			switch StockStatus(r.Status) {
			case StatusUrgent:
				summary.UrgentCount++
			case StatusReorderSoon:
				summary.ReorderSoonCount++
			default:
				summary.OKCount++
			}
			summary.TotalEstimatedCost += r.EstimatedReorderCost

			// Yavaş hareket: satışı olmayan ama rafta stok tutan ürünler.
			// Stoksuz ölü ürün buraya girmez, o zaten urgent listesindedir.
			if r.UnitsSold == 0 && r.CurrentStock > 0 {
				summary.SlowMovers = append(summary.SlowMovers, r)
			}
		}
		sort.Slice(summary.SlowMovers, func(i, j int) bool {
			return summary.SlowMovers[i].CurrentStock > summary.SlowMovers[j].CurrentStock
		})

		sorted := make([]ForecastRowResponse, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].AverageDailySales > sorted[j].AverageDailySales
		})
		for _, r := range sorted {
			if len(summary.HighVelocity) >= topN {
				break
			}
			if r.UnitsSold == 0 {
				continue
			}
			summary.HighVelocity = append(summary.HighVelocity, r)
		}

		return c.JSON(summary)
	}
}

func resolveBranchIDFromQueryOrRole(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleBranchAdmin {
		bVal := c.Locals(auth.CtxBranchIDKey)
		if bPtr, ok := bVal.(*uint); ok && bPtr != nil {
			return *bPtr, nil
		}
		return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi alınamadı")
	}

	branchIDStr := c.Query("branch_id")
	if branchIDStr == "" {
		return 0, nil
	}
	branchID, err := strconv.ParseUint(branchIDStr, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz branch_id")
	}
	return uint(branchID), nil
}
