package database

import (
	log "github.com/sirupsen/logrus"

	"stokpanel-backend/internal/config"
	"stokpanel-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tüm tabloları oluşturur/günceller. Testlerde sqlite üzerinde de kullanılır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.ProductCategory{},
		&models.Supplier{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.Sale{},
		&models.LeadTimeConfig{},
		// Tedarik belge zinciri
		&models.SupplierRequest{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.GoodsReceivedNote{},
		&models.GRNItem{},
		&models.SupplierInvoice{},
		&models.SupplierInvoiceItem{},
		// Giderler
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.ExpensePayment{},
		&models.AuditLog{},
	)
}
