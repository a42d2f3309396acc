package models

import "time"

// Supplier - Tedarikçi (bildirimler için iletişim bilgileriyle birlikte)
type Supplier struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null;unique"`
	Email     string `gorm:"size:100"` // e-posta bildirimi için
	Phone     string `gorm:"size:50"`  // SMS bildirimi için
	WhatsApp  string `gorm:"size:50"`  // WhatsApp bildirimi için
	Address   string `gorm:"size:255"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
