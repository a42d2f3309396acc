package models

import "time"

// GRNStatus - Mal kabul fişi durumu
type GRNStatus string

const (
	GRNStatusDraft     GRNStatus = "draft"
	GRNStatusConfirmed GRNStatus = "confirmed"
)

// ValidGRNTransitions: draft -> confirmed tek yönlüdür; onaylanan fiş değiştirilemez.
var ValidGRNTransitions = map[GRNStatus][]GRNStatus{
	GRNStatusDraft: {GRNStatusConfirmed},
}

func (s GRNStatus) CanTransitionTo(target GRNStatus) bool {
	for _, t := range ValidGRNTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// DeliveryStatus - Teslimatın tam/kısmi durumu (satırlardan türetilir, elle yazılmaz)
type DeliveryStatus string

const (
	DeliveryFull    DeliveryStatus = "full"
	DeliveryPartial DeliveryStatus = "partial"
)

// GoodsReceivedNote: Satınalma siparişine karşı fiilen teslim alınan miktarların kaydı.
// Onaylandığında şube stoğu bir kez artırılır ve fiş değiştirilemez hale gelir.
type GoodsReceivedNote struct {
	ID              uint   `gorm:"primaryKey"`
	GRNNumber       string `gorm:"size:30;uniqueIndex;not null"` // sıralı numara
	PurchaseOrderID uint   `gorm:"index;not null"`
	PurchaseOrder   PurchaseOrder
	BranchID        uint `gorm:"index;not null"`
	Branch          Branch
	SupplierID      uint `gorm:"index;not null"`
	Supplier        Supplier

	DeliveryStatus DeliveryStatus `gorm:"size:20;not null"` // full / partial
	Status         GRNStatus      `gorm:"size:20;not null;default:'draft'"`

	ReceivedBy  uint `gorm:"not null"`
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []GRNItem `gorm:"foreignKey:GRNID;constraint:OnDelete:CASCADE"`
}

// GRNItem: Mal kabul satırı. 0 <= ReceivedQuantity <= OrderedQuantity her zaman geçerlidir;
// üstte girilen değerler kaydedilmeden önce aralığa kırpılır.
type GRNItem struct {
	ID               uint `gorm:"primaryKey"`
	GRNID            uint `gorm:"index;not null"`
	ProductID        uint `gorm:"index;not null"`
	Product          Product
	OrderedQuantity  int    `gorm:"not null"`
	ReceivedQuantity int    `gorm:"not null"`
	Note             string `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DeriveDeliveryStatus: Tüm satırlar eksiksiz teslim alındıysa full, tek bir eksik bile
// varsa partial.
func DeriveDeliveryStatus(items []GRNItem) DeliveryStatus {
	for _, item := range items {
		if item.ReceivedQuantity != item.OrderedQuantity {
			return DeliveryPartial
		}
	}
	return DeliveryFull
}

// ClampReceived: Girilen miktarı [0, ordered] aralığına kırpar. Fazla giriş hata değil,
// sipariş miktarına düşürülür.
func ClampReceived(received, ordered int) int {
	if received < 0 {
		return 0
	}
	if received > ordered {
		return ordered
	}
	return received
}
