package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	LogLevel           string

	// Ledger backend selection: memory, sqlite or sheets
	LedgerBackend string
	SQLiteDBPath  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID     string
	GoogleMonthlySheet      string
	GoogleTransactionsSheet string
	GoogleCredentialsFile   string
	GoogleCredentialsJSON   string
	SheetsCacheTTL          time.Duration

	// Classifier
	ClassifierModelPath string

	// Receipt OCR
	TesseractPath      string
	TesseractLanguages string

	// Assistant
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Forecast
	ForecastDefaultPeriods int
	ForecastMaxPeriods     int
	ForecastFitTimeout     time.Duration
	ForecastHalfLifeMonths float64
	ForecastIntervalWidth  float64

	// Tax estimate
	TaxRate                float64
	TaxBusinessType        string
	TaxQuarterlyStartMonth int

	// Worker
	RiskScanSchedule string
	RiskScanMonths   int
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8080", "http://localhost:5173"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		LedgerBackend: getEnv("LEDGER_BACKEND", "memory"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/finsight.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finsight"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleMonthlySheet:      getEnv("GOOGLE_MONTHLY_SHEET", "Monthly"),
		GoogleTransactionsSheet: getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleCredentialsFile:   getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON:   getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		SheetsCacheTTL:          getEnvDuration("SHEETS_CACHE_TTL", 5*time.Minute),

		ClassifierModelPath: getEnv("CLASSIFIER_MODEL_PATH", "./models/classifier.json"),

		TesseractPath:      getEnv("TESSERACT_PATH", ""),
		TesseractLanguages: getEnv("TESSERACT_LANGUAGES", "eng+rus"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),

		ForecastDefaultPeriods: getEnvInt("FORECAST_DEFAULT_PERIODS", 3),
		ForecastMaxPeriods:     getEnvInt("FORECAST_MAX_PERIODS", 0),
		ForecastFitTimeout:     getEnvDuration("FORECAST_FIT_TIMEOUT", 5*time.Second),
		ForecastHalfLifeMonths: getEnvFloat("FORECAST_HALF_LIFE_MONTHS", 6),
		ForecastIntervalWidth:  getEnvFloat("FORECAST_INTERVAL_WIDTH", 0.8),

		TaxRate:                getEnvFloat("TAX_RATE", 20),
		TaxBusinessType:        getEnv("TAX_BUSINESS_TYPE", "general"),
		TaxQuarterlyStartMonth: getEnvInt("TAX_QUARTERLY_START_MONTH", 1),

		RiskScanSchedule: getEnv("RISK_SCAN_SCHEDULE", "@every 6h"),
		RiskScanMonths:   getEnvInt("RISK_SCAN_MONTHS", 12),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.LedgerBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	if c.LedgerBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.LedgerBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleMonthlySheet == "" || c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google monthly and transactions sheet names are required when using sheets backend")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
		if c.SheetsCacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid sheets cache TTL %v: must not be negative", c.SheetsCacheTTL))
		}
	}

	// A zero max leaves the horizon uncapped.
	if c.ForecastMaxPeriods < 0 {
		errors = append(errors, fmt.Sprintf("invalid forecast max periods %d: must not be negative", c.ForecastMaxPeriods))
	}
	switch {
	case c.ForecastDefaultPeriods < 1:
		errors = append(errors, fmt.Sprintf("invalid forecast default periods %d: must be at least 1", c.ForecastDefaultPeriods))
	case c.ForecastMaxPeriods > 0 && c.ForecastDefaultPeriods > c.ForecastMaxPeriods:
		errors = append(errors, fmt.Sprintf("invalid forecast default periods %d: must be between 1 and %d", c.ForecastDefaultPeriods, c.ForecastMaxPeriods))
	}
	if c.ForecastFitTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid forecast fit timeout %v: must not be negative", c.ForecastFitTimeout))
	}
	if c.ForecastHalfLifeMonths <= 0 {
		errors = append(errors, fmt.Sprintf("invalid forecast half-life %v: must be positive", c.ForecastHalfLifeMonths))
	}
	if c.ForecastIntervalWidth <= 0 || c.ForecastIntervalWidth >= 1 {
		errors = append(errors, fmt.Sprintf("invalid forecast interval width %v: must be between 0 and 1 exclusive", c.ForecastIntervalWidth))
	}

	if !(c.TaxRate > 0 && c.TaxRate <= 100) {
		errors = append(errors, fmt.Sprintf("invalid tax rate %v: must be above 0 and at most 100", c.TaxRate))
	}
	if c.TaxQuarterlyStartMonth < 1 || c.TaxQuarterlyStartMonth > 12 {
		errors = append(errors, fmt.Sprintf("invalid tax quarterly start month %d: must be between 1 and 12", c.TaxQuarterlyStartMonth))
	}

	if c.RiskScanSchedule == "" {
		errors = append(errors, "risk scan schedule cannot be empty")
	}
	if c.RiskScanMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid risk scan months %d: must be at least 1", c.RiskScanMonths))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
