// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Registry store backends
const (
	RegistryBackendJSON   = "json"
	RegistryBackendSQLite = "sqlite"
)

// Image store backends
const (
	ImageBackendDisk = "disk"
	ImageBackendS3   = "s3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the registry and uploads (always absolute)
	LogLevel string
	LogFile  string // Optional rotating log file, empty logs to stderr only
	Port     int
	DevMode  bool
	Version  string

	Market   *MarketConfig
	Registry *RegistryConfig
	Images   *ImageConfig
	Jobs     *JobsConfig
}

// MaxSettlementDelay bounds SETTLEMENT_DELAY. Trade execution responds only after settlement,
// so the delay has to stay well under the HTTP server's write timeout.
const MaxSettlementDelay = 10 * time.Second

// MarketConfig holds the trading core tunables
type MarketConfig struct {
	StartingBalance    decimal.Decimal
	LaunchPrice        decimal.Decimal
	LaunchMarketCap    decimal.Decimal
	PriceImpactPerUnit decimal.Decimal
	MarketCapPerUnit   decimal.Decimal
	ChangeStep         decimal.Decimal
	SettlementDelay    time.Duration
	NotificationTTL    time.Duration
	SeedFile           string // empty uses the embedded seed tokens
}

// RegistryConfig holds the create-token registry settings
type RegistryConfig struct {
	Backend   string // json or sqlite
	Path      string
	RateLimit float64 // requests per second
	RateBurst int
}

// ImageConfig holds the uploaded image store settings
type ImageConfig struct {
	Backend    string // disk or s3
	UploadsDir string
	S3         S3Config
}

// S3Config holds S3 compatible bucket settings (AWS, R2, MinIO)
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicURL       string // base URL objects are served from, defaults to the bucket URL
}

// JobsConfig holds cron schedules of the maintenance jobs
type JobsConfig struct {
	MaintenanceSchedule string
	StatusSchedule      string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CRAPTO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	market, err := loadMarketConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		Version:  getEnv("VERSION", "dev"),
		Market:   market,
		Registry: loadRegistryConfig(absDataDir),
		Images:   loadImageConfig(absDataDir),
		Jobs: &JobsConfig{
			MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 1m"),
			StatusSchedule:      getEnv("STATUS_SCHEDULE", "@every 5m"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadMarketConfig() (*MarketConfig, error) {
	m := &MarketConfig{
		SettlementDelay: getEnvAsDuration("SETTLEMENT_DELAY", 1500*time.Millisecond),
		NotificationTTL: getEnvAsDuration("NOTIFICATION_TTL", 5*time.Second),
		SeedFile:        getEnv("SEED_FILE", ""),
	}

	decimals := []struct {
		key    string
		def    string
		target *decimal.Decimal
	}{
		{"STARTING_BALANCE", "5.0", &m.StartingBalance},
		{"LAUNCH_PRICE", "0.00000001", &m.LaunchPrice},
		{"LAUNCH_MARKET_CAP", "1000", &m.LaunchMarketCap},
		{"PRICE_IMPACT_PER_UNIT", "0.1", &m.PriceImpactPerUnit},
		{"MARKET_CAP_PER_UNIT", "10000", &m.MarketCapPerUnit},
		{"CHANGE_STEP", "0.5", &m.ChangeStep},
	}
	for _, d := range decimals {
		v, err := getEnvAsDecimal(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.target = v
	}
	return m, nil
}

func loadRegistryConfig(dataDir string) *RegistryConfig {
	backend := getEnv("REGISTRY_BACKEND", RegistryBackendJSON)
	defaultPath := filepath.Join(dataDir, "tokens.json")
	if backend == RegistryBackendSQLite {
		defaultPath = filepath.Join(dataDir, "registry.db")
	}

	return &RegistryConfig{
		Backend:   backend,
		Path:      getEnv("REGISTRY_PATH", defaultPath),
		RateLimit: getEnvAsFloat("CREATE_TOKEN_RPS", 2),
		RateBurst: getEnvAsInt("CREATE_TOKEN_BURST", 5),
	}
}

func loadImageConfig(dataDir string) *ImageConfig {
	return &ImageConfig{
		Backend:    getEnv("IMAGE_BACKEND", ImageBackendDisk),
		UploadsDir: getEnv("UPLOADS_DIR", filepath.Join(dataDir, "uploads")),
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvAsBool("S3_PATH_STYLE", false),
			PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		},
	}
}

// Validate checks if required configuration is present and well formed
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}

	if c.Market != nil {
		if c.Market.StartingBalance.IsNegative() {
			return fmt.Errorf("STARTING_BALANCE must not be negative")
		}
		if !c.Market.LaunchPrice.IsPositive() {
			return fmt.Errorf("LAUNCH_PRICE must be positive")
		}
		if c.Market.LaunchMarketCap.IsNegative() {
			return fmt.Errorf("LAUNCH_MARKET_CAP must not be negative")
		}
		if c.Market.PriceImpactPerUnit.IsNegative() || c.Market.MarketCapPerUnit.IsNegative() || c.Market.ChangeStep.IsNegative() {
			return fmt.Errorf("trade impact parameters must not be negative")
		}
		if c.Market.SettlementDelay <= 0 || c.Market.NotificationTTL <= 0 {
			return fmt.Errorf("SETTLEMENT_DELAY and NOTIFICATION_TTL must be positive")
		}
		if c.Market.SettlementDelay > MaxSettlementDelay {
			return fmt.Errorf("SETTLEMENT_DELAY must be at most %s, got %s", MaxSettlementDelay, c.Market.SettlementDelay)
		}
	}

	if c.Registry != nil {
		switch c.Registry.Backend {
		case RegistryBackendJSON, RegistryBackendSQLite:
		default:
			return fmt.Errorf("REGISTRY_BACKEND must be %q or %q, got %q", RegistryBackendJSON, RegistryBackendSQLite, c.Registry.Backend)
		}
		if c.Registry.RateLimit <= 0 || c.Registry.RateBurst <= 0 {
			return fmt.Errorf("CREATE_TOKEN_RPS and CREATE_TOKEN_BURST must be positive")
		}
	}

	if c.Images != nil {
		switch c.Images.Backend {
		case ImageBackendDisk:
		case ImageBackendS3:
			if c.Images.S3.Bucket == "" {
				return fmt.Errorf("S3_BUCKET is required when IMAGE_BACKEND=s3")
			}
		default:
			return fmt.Errorf("IMAGE_BACKEND must be %q or %q, got %q", ImageBackendDisk, ImageBackendS3, c.Images.Backend)
		}
	}

	if c.Jobs != nil {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		for key, spec := range map[string]string{
			"MAINTENANCE_SCHEDULE": c.Jobs.MaintenanceSchedule,
			"STATUS_SCHEDULE":      c.Jobs.StatusSchedule,
		} {
			if _, err := parser.Parse(spec); err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, spec, err)
			}
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsDecimal fails on malformed values since money settings must not silently fall back
func getEnvAsDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
