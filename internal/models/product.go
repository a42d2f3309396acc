package models

import "time"

// Product - Ürün kataloğu kaydı. Stok miktarı şube bazlıdır ve InventoryRecord'da tutulur.
type Product struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:200;not null"`
	SKU               string `gorm:"size:50;index"` // unique kontrolü handler'da, boş bırakılabilir
	CategoryID        *uint  `gorm:"index"`
	Category          *ProductCategory
	SupplierID        *uint `gorm:"index"`
	Supplier          *Supplier
	Unit              string   `gorm:"size:20"` // adet, kg, koli vs.
	CostPrice         *float64 // alış fiyatı
	RetailPrice       *float64 // perakende satış fiyatı
	WholesalePrice    *float64 // toptan satış fiyatı
	LowStockThreshold int      `gorm:"not null;default:10"`
	IsActive          bool     `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UnitCost: Tahmini sipariş maliyeti hesabında kullanılacak birim fiyat.
// Öncelik sırası: CostPrice > WholesalePrice > RetailPrice. Hiçbiri yoksa 0.
func (p *Product) UnitCost() float64 {
	switch {
	case p.CostPrice != nil:
		return *p.CostPrice
	case p.WholesalePrice != nil:
		return *p.WholesalePrice
	case p.RetailPrice != nil:
		return *p.RetailPrice
	}
	return 0
}
