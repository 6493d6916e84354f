// Package config loads settings from defaults, an optional financas.yaml
// and the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"financas/internal/log"
)

// Backends and auth modes accepted by Validate.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	AuthStatic = "static"
	AuthRemote = "remote"
)

type Config struct {
	// HTTP Server
	Port string `mapstructure:"port"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Backend selection
	DataBackend  string `mapstructure:"data_backend"`
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`
	DatabaseURL  string `mapstructure:"database_url"`

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Authentication
	AuthMode         string        `mapstructure:"auth_mode"`
	AuthURL          string        `mapstructure:"auth_url"`
	AuthAPIKey       string        `mapstructure:"auth_api_key"`
	AuthStaticTokens string        `mapstructure:"auth_static_tokens"`
	AuthCacheTTL     time.Duration `mapstructure:"auth_cache_ttl"`

	// Billing, disabled when BillingFunctionURL is empty
	BillingFunctionURL string   `mapstructure:"billing_function_url"`
	BillingAPIKey      string   `mapstructure:"billing_api_key"`
	BillingPlans       []string `mapstructure:"billing_plans"`

	// Google Sheets export, disabled when GoogleSpreadsheetID is empty
	GoogleSpreadsheetID      string `mapstructure:"google_spreadsheet_id"`
	GoogleServiceAccountJSON string `mapstructure:"google_service_account_json"`
	GoogleServiceAccountFile string `mapstructure:"google_service_account_file"`

	// Catalog cache
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// Due worker
	DueInterval    time.Duration `mapstructure:"due_interval"`
	DueConcurrency int           `mapstructure:"due_concurrency"`

	// Rate limiting, requests per minute per client
	RateLimit int `mapstructure:"rate_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", string(log.FormatText))

	v.SetDefault("data_backend", BackendMemory)
	v.SetDefault("sqlite_db_path", "./data/financas.db")
	v.SetDefault("database_url", "")

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "financas")
	v.SetDefault("amqp_queue", "due_notifications")

	v.SetDefault("auth_mode", AuthStatic)
	v.SetDefault("auth_url", "")
	v.SetDefault("auth_api_key", "")
	v.SetDefault("auth_static_tokens", "")
	v.SetDefault("auth_cache_ttl", 5*time.Minute)

	v.SetDefault("billing_function_url", "")
	v.SetDefault("billing_api_key", "")
	v.SetDefault("billing_plans", []string{"monthly", "yearly"})

	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_service_account_json", "")
	v.SetDefault("google_service_account_file", "")

	v.SetDefault("cache_size", 1000)
	v.SetDefault("cache_ttl", 10*time.Minute)

	v.SetDefault("due_interval", time.Hour)
	v.SetDefault("due_concurrency", 4)

	v.SetDefault("rate_limit", 120)
}

// Load reads the configuration. configFile may be empty, in which case
// financas.yaml is looked up in the working directory and in
// $HOME/.financas; a missing file is not an error. Environment variables
// use the upper-cased key, e.g. SQLITE_DB_PATH.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("financas")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.financas")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.BillingPlans = splitList(cfg.BillingPlans)
	return &cfg, nil
}

// splitList flattens comma separated entries coming from the environment
// and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for part := range strings.SplitSeq(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == BackendPostgres {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid database URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	// Validate AMQP URL if provided
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

	switch c.AuthMode {
	case AuthStatic:
		if strings.TrimSpace(c.AuthStaticTokens) == "" {
			errors = append(errors, "AUTH_STATIC_TOKENS is required when auth mode is static")
		}
	case AuthRemote:
		if u, err := url.Parse(c.AuthURL); c.AuthURL == "" || err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid auth URL '%s': an absolute URL is required when auth mode is remote", c.AuthURL))
		}
		if c.AuthCacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid auth cache TTL %v: must not be negative", c.AuthCacheTTL))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid auth mode '%s': must be '%s' or '%s'", c.AuthMode, AuthStatic, AuthRemote))
	}

	if c.BillingFunctionURL != "" {
		if u, err := url.Parse(c.BillingFunctionURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid billing function URL '%s'", c.BillingFunctionURL))
		}
		if len(c.BillingPlans) == 0 {
			errors = append(errors, "at least one billing plan is required when billing is enabled")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for spreadsheet export")
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	// Validate worker configuration
	if c.DueInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid due interval %v: must be at least 1 minute", c.DueInterval))
	} else if c.DueInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid due interval %v: must be at most 24 hours", c.DueInterval))
	}
	if c.DueConcurrency < 1 || c.DueConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid due concurrency %d: must be between 1 and 64", c.DueConcurrency))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
