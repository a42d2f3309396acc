package config

import (
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	JWTExpireHours int // token geçerlilik süresi (saat)
	CORSOrigins    string

	// Bildirim collaborator'ı (tedarikçi talepleri için)
	NotifyWebhookURL string // boşsa gönderimler sadece loglanır

	// Tahminleme politikası. Eşik değerleri işletme tercihi olduğu için
	// kod içinde sabitlenmez, buradan gelir.
	SalesWindowDays     int     // satış geçmişi penceresi (gün)
	ReorderCycleDays    int     // önerilen sipariş döngüsü uzunluğu (gün)
	DefaultLeadTimeDays int     // LeadTimeConfig kaydı yoksa kullanılacak değer
	UrgentFactor        float64 // stok <= reorderPoint * UrgentFactor ise "urgent"
	SoonFactor          float64 // stok <= reorderPoint * SoonFactor ise "reorder_soon"
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=stokpanel port=5432 sslmode=disable"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),

		SalesWindowDays:     getEnvInt("SALES_WINDOW_DAYS", 30),
		ReorderCycleDays:    getEnvInt("REORDER_CYCLE_DAYS", 14),
		DefaultLeadTimeDays: getEnvInt("DEFAULT_LEAD_TIME_DAYS", 7),
		UrgentFactor:        getEnvFloat("FORECAST_URGENT_FACTOR", 1.0),
		SoonFactor:          getEnvFloat("FORECAST_SOON_FACTOR", 1.5),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.JWTExpireHours <= 0 {
		log.Fatal("[FATAL] JWT_EXPIRE_HOURS pozitif olmalıdır.")
	}
	if cfg.SalesWindowDays <= 0 || cfg.ReorderCycleDays <= 0 || cfg.DefaultLeadTimeDays <= 0 {
		log.Fatal("[FATAL] Tahminleme parametreleri (pencere, döngü, tedarik süresi) pozitif olmalıdır.")
	}
	if cfg.SoonFactor < cfg.UrgentFactor {
		log.Fatal("[FATAL] FORECAST_SOON_FACTOR, FORECAST_URGENT_FACTOR değerinden küçük olamaz.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Warn("CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("%s değeri sayı değil (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("%s değeri sayı değil (%q), varsayılan %v kullanılıyor", key, v, def)
		return def
	}
	return f
}
