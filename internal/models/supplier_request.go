package models

import (
	"strings"
	"time"
)

// CommMethod - Tedarikçiye bildirim kanalı
type CommMethod string

const (
	CommMethodEmail    CommMethod = "email"
	CommMethodSMS      CommMethod = "sms"
	CommMethodWhatsApp CommMethod = "whatsapp"
)

// ValidCommMethod: Bilinen bir kanal mı?
func ValidCommMethod(m CommMethod) bool {
	switch m {
	case CommMethodEmail, CommMethodSMS, CommMethodWhatsApp:
		return true
	}
	return false
}

// RequestSendStatus - Bildirimin gönderim sonucu
type RequestSendStatus string

const (
	RequestSendSent   RequestSendStatus = "sent"
	RequestSendFailed RequestSendStatus = "failed"
)

// ConversionStatus - Talebin satınalma siparişine dönüşüm durumu
type ConversionStatus string

const (
	ConversionRequested ConversionStatus = "requested"
	ConversionConverted ConversionStatus = "converted"
	ConversionCancelled ConversionStatus = "cancelled"
)

// ValidConversionTransitions: İzin verilen dönüşüm geçişleri.
// converted ve cancelled uç durumdur, geri dönüş yoktur.
var ValidConversionTransitions = map[ConversionStatus][]ConversionStatus{
	ConversionRequested: {ConversionConverted, ConversionCancelled},
}

// CanTransitionTo: requested -> converted/cancelled dışındaki geçişler geçersizdir.
func (s ConversionStatus) CanTransitionTo(target ConversionStatus) bool {
	for _, t := range ValidConversionTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// SupplierRequest: Düşük stok uyarısı üzerine tedarikçiye gönderilen sipariş talebi.
type SupplierRequest struct {
	ID         uint `gorm:"primaryKey"`
	BranchID   uint `gorm:"index;not null"`
	Branch     Branch
	ProductID  uint `gorm:"index;not null"`
	Product    Product
	SupplierID uint `gorm:"index;not null"`
	Supplier   Supplier

	CurrentStock      int    `gorm:"not null"` // talep anındaki stok (anlık görüntü)
	RequestedQuantity int    `gorm:"not null"`
	CommMethods       string `gorm:"size:100;not null"` // virgülle ayrılmış kanal listesi
	CustomMessage     string `gorm:"size:500"`

	Status           RequestSendStatus `gorm:"size:20;not null"`                      // sent / failed
	ConversionStatus ConversionStatus  `gorm:"size:20;not null;default:'requested'"` // requested / converted / cancelled
	ConvertedToPOID  *uint             `gorm:"index"`

	CreatedBy uint `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Methods: Kayıtlı kanal listesini parse eder.
func (r *SupplierRequest) Methods() []CommMethod {
	parts := strings.Split(r.CommMethods, ",")
	methods := make([]CommMethod, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			methods = append(methods, CommMethod(p))
		}
	}
	return methods
}

// JoinCommMethods: Kanal listesini saklama formatına çevirir.
func JoinCommMethods(methods []CommMethod) string {
	parts := make([]string, 0, len(methods))
	for _, m := range methods {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ",")
}
