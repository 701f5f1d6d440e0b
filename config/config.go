package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	Symbols        []string `env:"SYMBOLS" envDefault:"BTC,ETH,SOL"`
	InitialCash    float64  `env:"INITIAL_CASH" envDefault:"10000"`
	TickInterval   int      `env:"TICK_INTERVAL" envDefault:"60"` // seconds
	MinHistory     int      `env:"MIN_HISTORY" envDefault:"20"`
	HistorySize    int      `env:"HISTORY_SIZE" envDefault:"200"`
	ConfidenceGate float64  `env:"CONFIDENCE_GATE" envDefault:"0.65"`

	RSIShortPeriod int `env:"RSI_SHORT_PERIOD" envDefault:"7"`
	RSILongPeriod  int `env:"RSI_LONG_PERIOD" envDefault:"14"`
	EMAPeriod      int `env:"EMA_PERIOD" envDefault:"20"`

	AnalyzerProvider string `env:"ANALYZER_PROVIDER" envDefault:"none"` // openai, openrouter, ollama, none
	AnalyzerModel    string `env:"ANALYZER_MODEL" envDefault:""`
	AnalyzerBaseURL  string `env:"ANALYZER_BASE_URL" envDefault:""`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY" envDefault:"-"`
	RequestTimeout   int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"` // sqlite, postgres, memory
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"tradeagent.db"`
	PostgresDSN  string `env:"POSTGRES_DSN" envDefault:""`

	TelegramToken  string `env:"TELEGRAM_TOKEN" envDefault:""`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	FeedSeed int64  `env:"FEED_SEED" envDefault:"0"` // 0 means time-seeded
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Symbols = splitSymbols(getEnvWithDefault("SYMBOLS", "BTC,ETH,SOL"))
	cfg.InitialCash = getEnvFloatWithDefault("INITIAL_CASH", 10000)
	cfg.TickInterval = getEnvIntWithDefault("TICK_INTERVAL", 60)
	cfg.MinHistory = getEnvIntWithDefault("MIN_HISTORY", 20)
	cfg.HistorySize = getEnvIntWithDefault("HISTORY_SIZE", 200)
	cfg.ConfidenceGate = getEnvFloatWithDefault("CONFIDENCE_GATE", 0.65)

	cfg.RSIShortPeriod = getEnvIntWithDefault("RSI_SHORT_PERIOD", 7)
	cfg.RSILongPeriod = getEnvIntWithDefault("RSI_LONG_PERIOD", 14)
	cfg.EMAPeriod = getEnvIntWithDefault("EMA_PERIOD", 20)

	cfg.AnalyzerProvider = getEnvWithDefault("ANALYZER_PROVIDER", "none")
	cfg.AnalyzerModel = os.Getenv("ANALYZER_MODEL")
	cfg.AnalyzerBaseURL = os.Getenv("ANALYZER_BASE_URL")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.StoreBackend = getEnvWithDefault("STORE_BACKEND", "sqlite")
	cfg.SQLitePath = getEnvWithDefault("SQLITE_PATH", "tradeagent.db")
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.FeedSeed = getEnvInt64WithDefault("FEED_SEED", 0)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	return symbols
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
