package main

import (
	"strings"

	"stokpanel-backend/internal/admin"
	"stokpanel-backend/internal/audit"
	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/billing"
	"stokpanel-backend/internal/config"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/expense"
	"stokpanel-backend/internal/forecast"
	"stokpanel-backend/internal/inventory"
	"stokpanel-backend/internal/models"
	"stokpanel-backend/internal/notify"
	"stokpanel-backend/internal/procurement"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info(".env dosyası bulunamadı, ortam değişkenleri kullanılacak")
	}

	cfg := config.Load()
	database.Init(cfg)
	notify.Configure(cfg.NotifyWebhookURL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Errorln("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler())
	adminRoutes.Post("/branches/:id/admin", admin.CreateBranchAdminHandler())
	adminRoutes.Get("/branches/:id/admins", admin.ListBranchAdminsHandler())

	// Katalog yönetimi
	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler())
	adminRoutes.Post("/products/import", inventory.ImportProductsHandler())
	adminRoutes.Get("/products/export", inventory.ExportProductsHandler())
	adminRoutes.Post("/categories", inventory.CreateCategoryHandler())
	adminRoutes.Put("/categories/:id", inventory.UpdateCategoryHandler())
	adminRoutes.Delete("/categories/:id", inventory.DeleteCategoryHandler())
	adminRoutes.Post("/suppliers", inventory.CreateSupplierHandler())
	adminRoutes.Put("/suppliers/:id", inventory.UpdateSupplierHandler())
	adminRoutes.Delete("/suppliers/:id", inventory.DeleteSupplierHandler())

	// Tedarik süresi ayarları
	adminRoutes.Get("/lead-time", admin.ListLeadTimeConfigHandler())
	adminRoutes.Put("/lead-time", admin.SetGlobalLeadTimeHandler())
	adminRoutes.Put("/products/:id/lead-time", admin.SetProductLeadTimeHandler())
	adminRoutes.Delete("/products/:id/lead-time", admin.ClearProductLeadTimeHandler())

	// Gider kategorileri
	adminRoutes.Post("/expense-categories", expense.CreateExpenseCategoryHandler())
	adminRoutes.Put("/expense-categories/:id", expense.UpdateExpenseCategoryHandler())
	adminRoutes.Delete("/expense-categories/:id", expense.DeleteExpenseCategoryHandler())

	// Ortak (auth gerektiren) route'lar

	// Katalog
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Get("/categories", inventory.ListCategoriesHandler())
	protected.Get("/suppliers", inventory.ListSuppliersHandler())

	// Stok ve satış
	protected.Get("/inventory", inventory.ListInventoryHandler())
	protected.Put("/inventory/adjust", auth.RequireCapability(auth.CapAdjustStock), inventory.AdjustStockHandler())
	protected.Post("/sales", inventory.RecordSaleHandler())

	// Stok tahminleme
	protected.Get("/forecast", forecast.ListForecastHandler(cfg))
	protected.Get("/forecast/summary", forecast.SummaryHandler(cfg))

	// Tedarikçi talepleri
	protected.Post("/requests", auth.RequireCapability(auth.CapCreateRequest), procurement.CreateRequestHandler())
	protected.Get("/requests", procurement.ListRequestsHandler())
	protected.Post("/requests/:id/convert", auth.RequireCapability(auth.CapApprovePO), procurement.ConvertRequestHandler())
	protected.Post("/requests/:id/cancel", procurement.CancelRequestHandler())
	protected.Delete("/requests/:id", procurement.DeleteRequestHandler())

	// Satınalma siparişleri
	protected.Post("/purchase-orders", procurement.CreatePOHandler())
	protected.Get("/purchase-orders", procurement.ListPOsHandler())
	protected.Get("/purchase-orders/available-for-grn", procurement.ListAvailableForGRNHandler())
	protected.Get("/purchase-orders/:id", procurement.GetPOHandler())
	protected.Post("/purchase-orders/:id/approve", auth.RequireCapability(auth.CapApprovePO), procurement.ApprovePOHandler())
	protected.Post("/purchase-orders/:id/cancel", auth.RequireCapability(auth.CapApprovePO), procurement.CancelPOHandler())

	// Mal kabul fişleri
	protected.Post("/grn", procurement.CreateGRNHandler())
	protected.Get("/grn", procurement.ListGRNsHandler())
	protected.Get("/grn/:id", procurement.GetGRNHandler())
	protected.Put("/grn/:id", procurement.UpdateGRNHandler())
	protected.Post("/grn/:id/confirm", auth.RequireCapability(auth.CapConfirmGRN), procurement.ConfirmGRNHandler())

	// Tedarikçi faturaları
	protected.Post("/invoices", billing.CreateInvoiceHandler())
	protected.Get("/invoices", billing.ListInvoicesHandler())
	protected.Get("/invoices/outstanding", billing.OutstandingPayablesHandler())
	protected.Get("/invoices/:id", billing.GetInvoiceHandler())
	protected.Put("/invoices/:id", billing.UpdateInvoiceHandler())
	protected.Post("/invoices/:id/approve", auth.RequireCapability(auth.CapApproveInvoice), billing.ApproveInvoiceHandler())
	protected.Post("/invoices/:id/pay", auth.RequireCapability(auth.CapMarkInvoicePaid), billing.MarkInvoicePaidHandler())

	// Giderler
	protected.Get("/expense-categories", expense.ListExpenseCategoriesHandler())
	protected.Post("/expenses", expense.CreateExpenseHandler())
	protected.Get("/expenses", expense.ListExpensesHandler())
	protected.Get("/expenses/summary/monthly", expense.MonthlyExpenseSummaryHandler())
	protected.Post("/expense-payments", expense.CreateExpensePaymentHandler())
	protected.Get("/expense-payments", expense.ListExpensePaymentsHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", auth.RequireCapability(auth.CapUndoAuditLog), audit.UndoAuditLogHandler())

	log.Infoln("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
