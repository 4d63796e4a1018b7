package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// NATS, empty disables event publishing
	NATSURL string

	// Server
	Port        string
	Environment string
	AdminAPIKey string
	CORSOrigins []string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Import / export
	UploadsDir          string
	ExportRetention     time.Duration
	ExportSweepInterval time.Duration
	DefaultTVA          float64
	MaxImportSizeBytes  int64
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	maxImportMB, _ := strconv.ParseInt(getEnv("MAX_IMPORT_SIZE_MB", "20"), 10, 64)
	if maxImportMB <= 0 {
		maxImportMB = 20
	}

	defaultTVA, err := strconv.ParseFloat(getEnv("DEFAULT_TVA", "19"), 64)
	if err != nil || defaultTVA < 0 {
		defaultTVA = models.DefaultTVA
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "boutique_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:  os.Getenv("NATS_URL"),

		Port:        getEnv("PORT", "8087"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,

		UploadsDir:          getEnv("UPLOADS_DIR", "./uploads"),
		ExportRetention:     getDuration("EXPORT_RETENTION", 24*time.Hour),
		ExportSweepInterval: getDuration("EXPORT_SWEEP_INTERVAL", time.Hour),
		DefaultTVA:          defaultTVA,
		MaxImportSizeBytes:  maxImportMB * 1024 * 1024,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Adds missing columns, never drops existing ones.
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
