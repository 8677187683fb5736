package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string
	CORSOrigin   string

	// StorageDriver selects the blob store: "s3" or "memory".
	StorageDriver string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// LLM (any OpenAI-compatible endpoint, OpenRouter by default)
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMVisionModel string
	LLMMaxAttempts int
	LLMTimeout     time.Duration

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// Firebase
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Legal parameters
	LegalInterestRateES decimal.Decimal
	SMMLV               decimal.Decimal

	// Upload limits
	MaxFileSize int64
}

// Load reads the environment, after merging a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		DatabasePath:            getEnv("DATABASE_PATH", "data/lexdoc.db"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		CORSOrigin:              getEnv("CORS_ALLOWED_ORIGIN", "*"),
		StorageDriver:           strings.ToLower(getEnv("STORAGE_DRIVER", "s3")),
		S3Endpoint:              getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:           getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:       getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:            getEnv("S3_BUCKET_NAME", "lexdoc"),
		S3UseSSL:                getEnv("S3_USE_SSL", "false") == "true",
		LLMAPIKey:               getEnv("LLM_API_KEY", ""),
		LLMBaseURL:              getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:                getEnv("LLM_MODEL", "openai/gpt-4o-mini"),
		StripeSecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CheckoutSuccessURL:      getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:       getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
	}
	cfg.LLMVisionModel = getEnv("LLM_VISION_MODEL", cfg.LLMModel)

	var err error
	if cfg.LLMMaxAttempts, err = getEnvInt("LLM_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getEnvDuration("LLM_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	maxMB, err := getEnvInt("MAX_FILE_SIZE_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = int64(maxMB) << 20

	if cfg.LegalInterestRateES, err = getEnvDecimal("LEGAL_INTEREST_RATE_ES", "3.25"); err != nil {
		return nil, err
	}
	if cfg.SMMLV, err = getEnvDecimal("SMMLV_COP", "1423500"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	if c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.FirebaseProjectID == "" {
		errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required"))
	}
	if c.StorageDriver != "s3" && c.StorageDriver != "memory" {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be 's3' or 'memory', got %q", c.StorageDriver))
	}
	if c.LLMMaxAttempts < 1 {
		errs = append(errs, errors.New("LLM_MAX_ATTEMPTS must be at least 1"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE_MB must be positive"))
	}
	if !c.SMMLV.IsPositive() {
		errs = append(errs, errors.New("SMMLV_COP must be positive"))
	}
	if c.LegalInterestRateES.IsNegative() {
		errs = append(errs, errors.New("LEGAL_INTEREST_RATE_ES must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	raw := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return d, nil
}
