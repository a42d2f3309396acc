package models

import "time"

// POStatus - Satınalma siparişi durumu
type POStatus string

const (
	POStatusDraft     POStatus = "draft"
	POStatusApproved  POStatus = "approved"
	POStatusCancelled POStatus = "cancelled"
)

// ValidPOTransitions: İzin verilen sipariş durumu geçişleri.
// Sadece approved durumundaki siparişler GRN kaynağı olabilir.
var ValidPOTransitions = map[POStatus][]POStatus{
	POStatusDraft: {POStatusApproved, POStatusCancelled},
}

func (s POStatus) CanTransitionTo(target POStatus) bool {
	for _, t := range ValidPOTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PurchaseOrder: Tedarikçiye verilen onaylı/taslak satınalma siparişi.
type PurchaseOrder struct {
	ID         uint   `gorm:"primaryKey"`
	PONumber   string `gorm:"size:30;uniqueIndex;not null"`
	BranchID   uint   `gorm:"index;not null"`
	Branch     Branch
	SupplierID uint `gorm:"index;not null"`
	Supplier   Supplier

	Status               POStatus   `gorm:"size:20;not null;default:'draft'"`
	ExpectedDeliveryDate *time.Time `gorm:"type:date"`
	SourceRequestID      *uint      `gorm:"index"` // dönüştürüldüyse kaynak talep

	ApprovedBy *uint
	ApprovedAt *time.Time
	CreatedBy  uint `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// PurchaseOrderItem: Sipariş satırı
type PurchaseOrderItem struct {
	ID              uint `gorm:"primaryKey"`
	PurchaseOrderID uint `gorm:"index;not null"`
	ProductID       uint `gorm:"index;not null"`
	Product         Product
	ProductSKU      string   `gorm:"size:50"` // sipariş anındaki SKU (denormalize)
	Quantity        int      `gorm:"not null"`
	UnitCost        *float64 // birim maliyet (opsiyonel)
	TotalCost       *float64 // Quantity * UnitCost
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
