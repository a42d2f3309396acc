package forecast

import "math"

type StockStatus string

const (
	StatusUrgent      StockStatus = "urgent"
	StatusReorderSoon StockStatus = "reorder_soon"
	StatusOK          StockStatus = "ok"
)

// Policy: Tahminleme eşikleri. Değerler config'den gelir.
type Policy struct {
	SalesWindowDays  int
	ReorderCycleDays int
	UrgentFactor     float64
	SoonFactor       float64
}

// Input: Tek bir ürün-şube çifti için hesaplama girdisi.
type Input struct {
	CurrentStock int
	UnitsSold    int // pencere içindeki toplam satış adedi
	LeadTimeDays int
	UnitCost     float64
}

// Result: Hesaplanan tahminleme değerleri.
type Result struct {
	AverageDailySales        float64
	ReorderPoint             float64
	SuggestedReorderQuantity int
	EstimatedReorderCost     float64
	DaysUntilStockout        *float64 // satış yoksa nil
	Status                   StockStatus
}

// Calculate: Satış hızından sipariş noktası ve önerilen sipariş miktarını türetir.
// Satış hiç yoksa stockout tahmini yapılamaz ve durum stok sıfır değilse "ok" kalır.
func Calculate(in Input, policy Policy) Result {
	var avg float64
	if policy.SalesWindowDays > 0 {
		avg = float64(in.UnitsSold) / float64(policy.SalesWindowDays)
	}

	reorderPoint := avg * float64(in.LeadTimeDays)

	suggested := int(math.Ceil(avg*float64(policy.ReorderCycleDays))) - in.CurrentStock
	if suggested < 0 {
		suggested = 0
	}

	res := Result{
		AverageDailySales:        avg,
		ReorderPoint:             reorderPoint,
		SuggestedReorderQuantity: suggested,
		EstimatedReorderCost:     float64(suggested) * in.UnitCost,
	}

	if avg > 0 {
		days := float64(in.CurrentStock) / avg
		res.DaysUntilStockout = &days
	}

	res.Status = classify(in.CurrentStock, reorderPoint, policy)
	return res
}

// classify: Stok sıfırsa her zaman acil. Satış hızı sıfır olup stok da sıfırsa
// yine acil sayılır, aksi halde eşik karşılaştırması yapılır.
func classify(stock int, reorderPoint float64, policy Policy) StockStatus {
	if stock == 0 {
		return StatusUrgent
	}
	if reorderPoint <= 0 {
		return StatusOK
	}
	s := float64(stock)
	if s <= reorderPoint*policy.UrgentFactor {
		return StatusUrgent
	}
	if s <= reorderPoint*policy.SoonFactor {
		return StatusReorderSoon
	}
	return StatusOK
}
