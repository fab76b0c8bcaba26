package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tradesparky/pricewatch/internal/store/shared"
	"go.uber.org/zap"
)

// Config is the process configuration, read from environment variables at
// startup. Missing credentials for a configured backend are fatal.
type Config struct {
	Environment string
	LogLevel    string
	Port        string

	// StoreConfig is the JSON provider config passed to the store factory.
	StoreConfig string

	CrawlAPIURL string
	CrawlAPIKey string

	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string

	RPSLimit float64
	RPSBurst int

	BatchSize     int
	SweepSchedule string
}

// Load reads configuration from the environment. A .env file is applied first
// when present. Construction errors (missing database credentials for the
// postgres provider) are fatal.
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using process environment")
	}

	cfg := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("PORT", "8080"),
		CrawlAPIURL:   getEnv("CRAWL_API_URL", ""),
		CrawlAPIKey:   getEnv("CRAWL_API_KEY", ""),
		EmailAPIURL:   getEnv("EMAIL_API_URL", ""),
		EmailAPIKey:   getEnv("EMAIL_API_KEY", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "notifications@tradesparky.com"),
		RPSLimit:      getEnvFloat("RPS_LIMIT", 10),
		RPSBurst:      getEnvInt("RPS_BURST", 20),
		BatchSize:     getEnvInt("BATCH_SIZE", 50),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
	}

	provider := shared.ProviderType(getEnv("STORE_PROVIDER", "postgres"))
	switch provider {
	case shared.ProviderMemory:
		cfg.StoreConfig = mustProviderJSON(logger, shared.ProviderConfig{
			Provider:     shared.ProviderMemory,
			ExtraDetails: map[string]interface{}{},
		})
	case shared.ProviderPostgres:
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required when STORE_PROVIDER is postgres")
		}
		cfg.StoreConfig = mustProviderJSON(logger, shared.ProviderConfig{
			Provider: shared.ProviderPostgres,
			ExtraDetails: map[string]interface{}{
				"conn_str": dbURL,
			},
		})
	default:
		logger.Fatal("unsupported STORE_PROVIDER", zap.String("provider", provider.String()))
	}

	if cfg.CrawlAPIURL != "" && cfg.CrawlAPIKey == "" {
		logger.Fatal("CRAWL_API_KEY is required when CRAWL_API_URL is set")
	}

	return cfg
}

func mustProviderJSON(logger *zap.Logger, pc shared.ProviderConfig) string {
	b, err := json.Marshal(pc)
	if err != nil {
		logger.Fatal("failed to marshal store provider config", zap.Error(err))
	}
	return string(b)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
