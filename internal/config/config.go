package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	TelegramBotToken    string
	TelegramPollTimeout int // seconds
	BotWorkers          int

	// Health HTTP server
	HealthPort string

	// AMQP, publishing is disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Journal
	JournalDBPath string

	// Google Sheets export mirror, disabled when the ID is empty
	GoogleSpreadsheetID     string
	GoogleExportSheetPrefix string

	// Report cache
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	RateLimitPerMinute int

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramPollTimeout: getEnvInt("TELEGRAM_POLL_TIMEOUT", 60),
		BotWorkers:          getEnvInt("BOT_WORKERS", 16),

		HealthPort: getEnv("HEALTH_PORT", "8081"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		JournalDBPath: getEnv("JOURNAL_DB_PATH", "./data/journal.db"),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleExportSheetPrefix: getEnv("GOOGLE_EXPORT_SHEET_PREFIX", "finbot_"),

		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 1000),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks the settings shared by every process.
func (c *Config) Validate() error {
	return joinProblems(c.problems())
}

// ValidateBot additionally requires what the chat bot needs to start.
func (c *Config) ValidateBot() error {
	problems := c.problems()
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		problems = append(problems, "TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramPollTimeout < 0 || c.TelegramPollTimeout > 600 {
		problems = append(problems, fmt.Sprintf("invalid poll timeout %d: must be between 0 and 600 seconds", c.TelegramPollTimeout))
	}
	if c.BotWorkers < 1 || c.BotWorkers > 1024 {
		problems = append(problems, fmt.Sprintf("invalid bot workers %d: must be between 1 and 1024", c.BotWorkers))
	}
	return joinProblems(problems)
}

// ValidateWorker additionally requires what the journal worker needs.
func (c *Config) ValidateWorker() error {
	problems := c.problems()
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the journal worker")
	}
	if c.JournalDBPath == "" {
		problems = append(problems, "JOURNAL_DB_PATH cannot be empty")
	}
	return joinProblems(problems)
}

func (c *Config) problems() []string {
	var problems []string

	if port, err := strconv.Atoi(c.HealthPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.HealthPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReportCacheSize < 0 {
		problems = append(problems, fmt.Sprintf("invalid report cache size %d: must not be negative", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid report cache TTL %v: must be at least 1 second", c.ReportCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	return problems
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// PublishingEnabled reports whether ledger events go to AMQP.
func (c *Config) PublishingEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether exports are mirrored to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
