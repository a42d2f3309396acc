package auth

import "stokpanel-backend/internal/models"

// Capability - Rol bazlı yetki anahtarı. Rol string'lerini handler'larda tek tek
// karşılaştırmak yerine tüm yetkiler bu tablodan merkezi olarak kontrol edilir.
type Capability string

const (
	CapManageBranches     Capability = "manage_branches"
	CapManageCatalog      Capability = "manage_catalog"       // ürün/kategori/tedarikçi CRUD
	CapConfigureLeadTime  Capability = "configure_lead_time"  // tedarik süresi ayarları
	CapCreateRequest      Capability = "create_request"       // tedarikçi talebi oluştur/dönüştür
	CapDeleteAnyRequest   Capability = "delete_any_request"   // başkasının talebini sil
	CapApprovePO          Capability = "approve_po"           // satınalma siparişi onayı
	CapConfirmGRN         Capability = "confirm_grn"          // mal kabul onayı (stok artışı)
	CapApproveInvoice     Capability = "approve_invoice"      // fatura onayı (gider oluşturur)
	CapMarkInvoicePaid    Capability = "mark_invoice_paid"    // fatura ödendi işareti
	CapAdjustStock        Capability = "adjust_stock"         // manuel stok düzeltme
	CapManageExpenses     Capability = "manage_expenses"      // gider kategorileri
	CapUndoAuditLog       Capability = "undo_audit_log"       // audit log geri alma
)

// roleCapabilities: rol -> izinli işlemler tablosu.
var roleCapabilities = map[models.UserRole]map[Capability]bool{
	models.RoleSuperAdmin: {
		CapManageBranches:    true,
		CapManageCatalog:     true,
		CapConfigureLeadTime: true,
		CapCreateRequest:     true,
		CapDeleteAnyRequest:  true,
		CapApprovePO:         true,
		CapConfirmGRN:        true,
		CapApproveInvoice:    true,
		CapMarkInvoicePaid:   true,
		CapAdjustStock:       true,
		CapManageExpenses:    true,
		CapUndoAuditLog:      true,
	},
	models.RoleBranchAdmin: {
		CapCreateRequest:   true,
		CapConfirmGRN:      true,
		CapApproveInvoice:  true,
		CapMarkInvoicePaid: true,
		CapAdjustStock:     true,
	},
}

// HasCapability: Rolün ilgili yetkisi var mı?
func HasCapability(role models.UserRole, cap Capability) bool {
	return roleCapabilities[role][cap]
}
