package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus - Tedarikçi faturası durumu
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "draft"
	InvoiceStatusApproved InvoiceStatus = "approved"
	InvoiceStatusPaid     InvoiceStatus = "paid"
)

// ValidInvoiceTransitions: draft -> approved -> paid, her adım tek yönlü.
var ValidInvoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:    {InvoiceStatusApproved},
	InvoiceStatusApproved: {InvoiceStatusPaid},
}

func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, t := range ValidInvoiceTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// SupplierInvoice: Onaylı bir GRN'e karşı kesilen tedarikçi faturası.
// Bir GRN'in en fazla bir faturası olabilir (GRNID unique).
type SupplierInvoice struct {
	ID            uint   `gorm:"primaryKey"`
	InvoiceNumber string `gorm:"size:30;uniqueIndex;not null"`
	GRNID         uint   `gorm:"uniqueIndex;not null"`
	GRN           GoodsReceivedNote
	BranchID      uint `gorm:"index;not null"`
	Branch        Branch
	SupplierID    uint `gorm:"index;not null"`
	Supplier      Supplier

	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"` // Subtotal + TaxAmount

	Status      InvoiceStatus `gorm:"size:20;not null;default:'draft'"`
	InvoiceDate time.Time     `gorm:"type:date;not null"`
	DueDate     *time.Time    `gorm:"type:date"`
	ApprovedAt  *time.Time
	PaidAt      *time.Time
	ExpenseID   *uint // onayda oluşturulan gider kaydı

	CreatedBy uint `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []SupplierInvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// SupplierInvoiceItem: Fatura satırı. LineTotal = UnitPrice * Quantity; ikisinden biri
// düzenlendiğinde diğeri yeniden hesaplanır.
type SupplierInvoiceItem struct {
	ID        uint `gorm:"primaryKey"`
	InvoiceID uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputeInvoiceTotals: Satır toplamlarından ara toplam ve genel toplamı hesaplar.
func ComputeInvoiceTotals(items []SupplierInvoiceItem, tax decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	return subtotal, subtotal.Add(tax)
}
