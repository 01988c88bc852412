// Package config provides configuration management for the complaint register.
//
// This package handles loading configuration from environment variables,
// validating required settings, and providing sensible defaults for optional
// parameters. Configuration is loaded once at startup and remains immutable
// afterwards.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. External .env file (optional, path selectable)
//  3. Embedded .env file (fallback, included in binary)
//  4. Hard-coded defaults (lowest priority)
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// embeddedEnv contains the .env file embedded at build time.
//
// It holds template values only; real deployments override them with an
// external .env or the process environment.
//
//go:embed .env
var embeddedEnv string

// Config holds all application configuration.
type Config struct {
	// Backing spreadsheet
	StorePath  string // Path of the .xlsx workbook
	SheetName  string // Sheet name used when the workbook is created
	TableName  string // Display name of the table object
	TableStyle string // Built-in Excel table style

	// Web UI
	HTTPAddr        string        // Listen address for the form
	ClearFormOnSave bool          // Empty the form after a successful save
	ShutdownTimeout time.Duration // Grace period for in-flight requests

	// Telegram configuration (optional)
	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string
	HTTPTimeout      time.Duration // Timeout for outgoing HTTP calls

	// PDF export
	ChromePath string        // Browser binary; empty uses chromedp's lookup
	PDFTimeout time.Duration // Maximum time to render the report

	// Debug mode - simulates outgoing notifications
	DebugMode bool
	LogLevel  string
}

// tableNamePattern follows Excel's rules for table display names.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_\\][A-Za-z0-9_.]*$`)

// LoadConfig loads configuration from environment variables with defaults.
//
// envFile names an external .env file; empty means ".env" in the working
// directory. A missing external file is not an error.
func LoadConfig(envFile string) (*Config, error) {
	// Embedded values only fill variables that are not already set
	envMap, err := godotenv.Unmarshal(embeddedEnv)
	if err == nil {
		for k, v := range envMap {
			if _, set := os.LookupEnv(k); !set {
				os.Setenv(k, v)
			}
		}
	}

	if envFile == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Overload(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		StorePath:  getEnvOrDefault("STORE_PATH", "cadastro.xlsx"),
		SheetName:  getEnvOrDefault("SHEET_NAME", "Sheet1"),
		TableName:  getEnvOrDefault("TABLE_NAME", "TabelaCadastro"),
		TableStyle: getEnvOrDefault("TABLE_STYLE", "TableStyleMedium9"),

		HTTPAddr:        getEnvOrDefault("HTTP_ADDR", ":8501"),
		ClearFormOnSave: getEnvBool("CLEAR_FORM_ON_SAVE", true),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramAPIURL:   getEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"),
		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		ChromePath: os.Getenv("CHROME_PATH"),
		PDFTimeout: getEnvDuration("PDF_TIMEOUT", 60*time.Second),

		DebugMode: getEnvBool("DEBUG_MODE", false),
		LogLevel:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that values are present and sensible.
func (c *Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("STORE_PATH cannot be empty")
	}
	if ext := strings.ToLower(filepath.Ext(c.StorePath)); ext != ".xlsx" {
		return fmt.Errorf("STORE_PATH must be an .xlsx file, got %q", c.StorePath)
	}
	if c.SheetName == "" || len(c.SheetName) > 31 || strings.ContainsAny(c.SheetName, `:\/?*[]`) {
		return fmt.Errorf("SHEET_NAME %q is not a valid sheet name", c.SheetName)
	}
	if !tableNamePattern.MatchString(c.TableName) {
		return fmt.Errorf("TABLE_NAME %q is not a valid table name", c.TableName)
	}
	if c.TableStyle == "" {
		return fmt.Errorf("TABLE_STYLE cannot be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.PDFTimeout <= 0 {
		return fmt.Errorf("PDF_TIMEOUT must be positive, got %s", c.PDFTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// Helper functions for environment variable parsing

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns the environment variable as a bool or a default if not set/invalid
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default if not set/invalid.
//
// Accepts standard Go duration strings like "5s", "10m", "1h30m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
