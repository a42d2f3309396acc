package models

import "time"

// InventoryRecord: Şube bazlı stok kaydı. Stok sadece satış, GRN onayı ve manuel
// düzeltme ile değişir; tahminleme hiçbir zaman stok yazmaz.
type InventoryRecord struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null;uniqueIndex:idx_branch_product_stock"`
	Branch    Branch
	ProductID uint `gorm:"index;not null;uniqueIndex:idx_branch_product_stock"`
	Product   Product
	Stock     int `gorm:"not null;default:0"` // eldeki miktar, negatif olamaz
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sale: Satış kaydı. Tahminleme penceresindeki satış geçmişinin kaynağı.
type Sale struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null"`
	Branch    Branch
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int       `gorm:"not null"` // satılan adet
	UnitPrice float64   `gorm:"not null"` // satış anındaki birim fiyat
	Date      time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
