package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret string

	// Document analysis (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Identity registry
	RenapURL      string
	RenapAPIKey   string
	CloudFrontURL string

	// Reference exchange rate
	BanguatURL string

	// SMTP notifications
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// Statement spool directory for queued extraction jobs
	StatementDir string

	// Poll schedule for pending extraction jobs
	PollSchedule string

	// Upsell sensitivity: payment reduction per upfront step. Empirical,
	// kept tunable.
	UpsellPaymentStep float64
	UpsellUpfrontStep float64
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "9000"),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=landing sslmode=disable"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		RenapURL:          getEnv("RENAP_API_URL", ""),
		RenapAPIKey:       getEnv("CENTINELA_API_KEY", ""),
		CloudFrontURL:     getEnv("CLOUDFRONT_URL", ""),
		BanguatURL:        getEnv("BANGUAT_URL", "https://www.banguat.gob.gt/variables/ws/TipoCambio.asmx"),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "no-reply@clubcashin.com"),
		StatementDir:      getEnv("STATEMENT_DIR", "statements"),
		PollSchedule:      getEnv("POLL_SCHEDULE", "@every 1m"),
		UpsellPaymentStep: getEnvFloat("UPSELL_PAYMENT_STEP", 130),
		UpsellUpfrontStep: getEnvFloat("UPSELL_UPFRONT_STEP", 5000),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.UpsellPaymentStep <= 0 || cfg.UpsellUpfrontStep <= 0 {
		return nil, fmt.Errorf("upsell sensitivity must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultVal
	}
	return parsed
}
