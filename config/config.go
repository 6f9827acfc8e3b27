package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Railway ticketing backend
	RailwayBaseURL  string
	RailwayEmail    string
	RailwayPassword string
	RailwayTokenTTL time.Duration

	// Moneris payment gateway
	MonerisBaseURL     string
	MonerisStoreID     string
	MonerisAPIToken    string
	MonerisCheckoutID  string
	MonerisCheckoutURL string
	MonerisWebhookCode string

	// Shiptime shipping rates
	ShiptimeBaseURL  string
	ShiptimeUsername string
	ShiptimePassword string

	// Resend email delivery
	ResendAPIKey string
	EmailFrom    string
	EmailReplyTo string

	// Admin session tokens
	JWTSecret string
	QRSecret  string

	// Legacy SQL Server import
	LegacyMSSQLDSN string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RailwayBaseURL:  getEnv("RAILWAY_BASE_URL", "http://localhost:5000"),
		RailwayEmail:    os.Getenv("RAILWAY_EMAIL"),
		RailwayPassword: os.Getenv("RAILWAY_PASSWORD"),
		RailwayTokenTTL: getEnvAsDuration("RAILWAY_TOKEN_TTL", "10m"),

		MonerisBaseURL:     getEnv("MONERIS_BASE_URL", "https://gatewayt.moneris.com"),
		MonerisStoreID:     os.Getenv("MONERIS_STORE_ID"),
		MonerisAPIToken:    os.Getenv("MONERIS_API_TOKEN"),
		MonerisCheckoutID:  os.Getenv("MONERIS_CHECKOUT_ID"),
		MonerisCheckoutURL: getEnv("MONERIS_CHECKOUT_URL", "https://gatewayt.moneris.com/chkt/display/index.php"),

		ShiptimeBaseURL:  getEnv("SHIPTIME_BASE_URL", "https://ssapi.shiptime.com"),
		ShiptimeUsername: os.Getenv("SHIPTIME_USERNAME"),
		ShiptimePassword: os.Getenv("SHIPTIME_PASSWORD"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnv("EMAIL_FROM", "Holmdale Rodeo <tickets@holmdalerodeo.ca>"),
		EmailReplyTo: os.Getenv("EMAIL_REPLY_TO"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		QRSecret:  os.Getenv("QR_SECRET"),

		LegacyMSSQLDSN: os.Getenv("LEGACY_MSSQL_DSN"),
	}

	if cfg.RailwayEmail == "" || cfg.RailwayPassword == "" {
		return nil, fmt.Errorf("RAILWAY_EMAIL and RAILWAY_PASSWORD must be set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

// InitDatabase opens the merchandise store. Events and ticket orders live in
// the Railway backend; only products and merchandise orders are persisted here.
func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.Product{}, &models.MerchOrder{}, &models.MerchOrderItem{})
	if err != nil {
		return nil, err
	}

	seedProducts(db)

	return db, nil
}

func seedProducts(db *gorm.DB) {
	products := []models.Product{
		{Name: "Rodeo T-Shirt", Price: 2500, PriceRef: "price_tshirt"},
		{Name: "Rodeo Cap", Price: 2000, PriceRef: "price_cap"},
		{Name: "Commemorative Mug", Price: 1500, PriceRef: "price_mug"},
	}

	for _, product := range products {
		var existing models.Product
		result := db.Where("price_ref = ?", product.PriceRef).First(&existing)
		if result.Error != nil {
			db.Create(&product)
		}
	}
}
