package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	LogLevel      string
	Port          string
	DatabaseURL   string
	JWTSecret     string
	AppBaseURL    string
	RunMigrations bool
	DBMaxConns    int

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration

	StartingTokens  int64
	SessionTTL      time.Duration
	ServiceTokenTTL time.Duration
	MaxUploadBytes  int64

	StorageDriver  string
	StoragePath    string
	StorageBaseURL string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PresignTTL   time.Duration

	TranscribeURL     string
	TranscribeTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	GoogleClientID string
	GoogleIssuer   string
	GeoIPDBPath    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// fileConfig mirrors the optional YAML overlay named by CONFIG_FILE. Values
// found there replace built-in defaults but never override the environment.
type fileConfig struct {
	AppBaseURL string `yaml:"app_base_url"`
	Server     struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimit      int      `yaml:"rate_limit_per_minute"`
	} `yaml:"server"`
	Storage struct {
		Driver   string `yaml:"driver"`
		Path     string `yaml:"path"`
		BaseURL  string `yaml:"base_url"`
		Bucket   string `yaml:"bucket"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"storage"`
	Transcription struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"transcription"`
	Billing struct {
		Currency       string `yaml:"currency"`
		StartingTokens int64  `yaml:"starting_tokens"`
	} `yaml:"billing"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	port := getEnv("PORT", orDefault(fc.Server.Port, "8080"))
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Port:          port,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AppBaseURL:    strings.TrimRight(getEnv("APP_BASE_URL", orDefault(fc.AppBaseURL, "http://localhost:"+port)), "/"),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", false),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 10),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", fc.Server.AllowedOrigins),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", orDefaultInt(fc.Server.RateLimit, 30)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		StartingTokens:  int64(getEnvInt("STARTING_TOKENS", int(orDefaultInt64(fc.Billing.StartingTokens, 5000)))),
		SessionTTL:      time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 24*60)),
		ServiceTokenTTL: time.Second * time.Duration(getEnvInt("SERVICE_TOKEN_TTL_SECONDS", 300)),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_MB", 200)) << 20,

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", orDefault(fc.Storage.Driver, "filesystem"))),
		StoragePath:    getEnv("STORAGE_PATH", orDefault(fc.Storage.Path, "./data/storage")),
		StorageBaseURL: strings.TrimRight(getEnv("STORAGE_BASE_URL", orDefault(fc.Storage.BaseURL, "http://localhost:"+port+"/static")), "/"),
		S3Bucket:       getEnv("S3_BUCKET", fc.Storage.Bucket),
		S3Region:       getEnv("S3_REGION", orDefault(fc.Storage.Region, "us-east-1")),
		S3Endpoint:     getEnv("S3_ENDPOINT", fc.Storage.Endpoint),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3PresignTTL:   time.Minute * time.Duration(getEnvInt("S3_PRESIGN_TTL_MINUTES", 60)),

		TranscribeURL:     strings.TrimRight(getEnv("TRANSCRIBE_URL", orDefault(fc.Transcription.URL, "http://localhost:8000")), "/"),
		TranscribeTimeout: time.Second * time.Duration(getEnvInt("TRANSCRIBE_TIMEOUT_SECONDS", fc.Transcription.TimeoutSeconds)),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:     strings.ToLower(getEnv("PAYMENT_CURRENCY", orDefault(fc.Billing.Currency, "usd"))),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:   getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@voxscribe.local"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageDriver {
	case "filesystem":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func orDefaultInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orDefaultInt64(v, fallback int64) int64 {
	if v != 0 {
		return v
	}
	return fallback
}
