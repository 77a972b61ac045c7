// Package config loads application configuration from the environment.
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
	Port string

	// Data backend selection: "graphql" or "memory"
	DataBackend string

	// GraphQL backend
	BackendURL     string
	BackendTimeout time.Duration
	BackendToken   string

	// Submission journal
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID  string
	GoogleExportSheet    string
	GoogleServiceAccount string

	// Editor sessions
	SessionTTL       time.Duration
	ConcurrencyLimit int

	// Export worker
	ExportBatchSize int
	ExportInterval  time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		BackendURL:     getEnv("BACKEND_URL", ""),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moneybook.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneybook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "batch_recorded"),

		GoogleSpreadsheetID:  getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleExportSheet:    getEnv("GOOGLE_EXPORT_SHEET_NAME", "Transactions"),
		GoogleServiceAccount: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SessionTTL:       getEnvDuration("SESSION_TTL", time.Hour),
		ConcurrencyLimit: getEnvInt("SUBMIT_CONCURRENCY_LIMIT", 0),

		ExportBatchSize: getEnvInt("EXPORT_BATCH_SIZE", 10),
		ExportInterval:  getEnvDuration("EXPORT_INTERVAL", 30*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "graphql":
		if c.BackendURL == "" {
			errors = append(errors, "BACKEND_URL is required when using the graphql backend")
		} else if parsedURL, err := url.Parse(c.BackendURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid backend URL '%s': %v", c.BackendURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid backend URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.BackendTimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid backend timeout %v: must be at least 1 second", c.BackendTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [graphql memory]", c.DataBackend))
	}

	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create journal directory '%s': %v", dir, err))
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

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.ConcurrencyLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid submit concurrency limit %d: must not be negative", c.ConcurrencyLimit))
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}
	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
