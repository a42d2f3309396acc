package models

import "time"

// LeadTimeConfig: Tedarik süresi ayarı. ProductID nil ise işletme geneli varsayılan,
// dolu ise o ürüne özel değerdir; ürün ayarı geneli ezer. Sadece super_admin değiştirir.
type LeadTimeConfig struct {
	ID           uint  `gorm:"primaryKey"`
	ProductID    *uint `gorm:"uniqueIndex"` // nil = genel varsayılan
	Product      *Product
	LeadTimeDays int `gorm:"not null"` // sipariş ile teslimat arasındaki gün sayısı
	UpdatedBy    uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
