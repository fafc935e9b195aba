package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read once at startup. Values are layered: defaults, then the
// optional TOML file, then environment variables.
type Config struct {
	// Server
	Port            int    `toml:"port" envconfig:"PORT"`
	Environment     string `toml:"environment" envconfig:"ENVIRONMENT"`
	ClientOriginURL string `toml:"client_origin_url" envconfig:"CLIENT_ORIGIN_URL"`
	LogLevel        string `toml:"log_level" envconfig:"LOG_LEVEL"`
	SignupRateLimit int    `toml:"signup_rate_limit" envconfig:"SIGNUP_RATE_LIMIT"`

	// Database
	DatabaseURL string `toml:"database_url" envconfig:"DATABASE_URL"`

	// Identity provider
	IdPDomain             string `toml:"idp_domain" envconfig:"IDP_DOMAIN"`
	IdPAudience           string `toml:"idp_audience" envconfig:"IDP_AUDIENCE"`
	IdPClientID           string `toml:"idp_client_id" envconfig:"IDP_CLIENT_ID"`
	IdPClientSecret       string `toml:"idp_client_secret" envconfig:"IDP_CLIENT_SECRET"`
	IdPManagementAudience string `toml:"idp_management_audience" envconfig:"IDP_MANAGEMENT_AUDIENCE"`

	// Redis
	RedisAddr     string `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" envconfig:"REDIS_DB"`

	// MinIO
	MinioEndpoint  string `toml:"minio_endpoint" envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `toml:"minio_access_key" envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `toml:"minio_secret_key" envconfig:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `toml:"minio_use_ssl" envconfig:"MINIO_USE_SSL"`
	MinioBucket    string `toml:"minio_bucket" envconfig:"MINIO_BUCKET"`

	// Background jobs
	JobsEnabled          bool          `toml:"jobs_enabled" envconfig:"JOBS_ENABLED"`
	ReorderCheckInterval time.Duration `toml:"reorder_check_interval" envconfig:"REORDER_CHECK_INTERVAL"`
	ExpiryCheckInterval  time.Duration `toml:"expiry_check_interval" envconfig:"EXPIRY_CHECK_INTERVAL"`
	ExpiryWindow         time.Duration `toml:"expiry_window" envconfig:"EXPIRY_WINDOW"`

	// Identity email rollback
	RollbackMaxAttempts    int           `toml:"rollback_max_attempts" envconfig:"ROLLBACK_MAX_ATTEMPTS"`
	RollbackDelay          time.Duration `toml:"rollback_delay" envconfig:"ROLLBACK_DELAY"`
	RollbackAttemptTimeout time.Duration `toml:"rollback_attempt_timeout" envconfig:"ROLLBACK_ATTEMPT_TIMEOUT"`
	RollbackTimeout        time.Duration `toml:"rollback_timeout" envconfig:"ROLLBACK_TIMEOUT"`

	// Tracing
	OTLPEndpoint string `toml:"otlp_endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Default() *Config {
	return &Config{
		Port:                 8080,
		Environment:          "development",
		LogLevel:             "info",
		SignupRateLimit:      10,
		MinioBucket:          "inventory-images",
		JobsEnabled:          true,
		ReorderCheckInterval: time.Hour,
		ExpiryCheckInterval:  6 * time.Hour,
		ExpiryWindow:         72 * time.Hour,
		RollbackMaxAttempts:    3,
		RollbackDelay:          500 * time.Millisecond,
		RollbackAttemptTimeout: 3 * time.Second,
		RollbackTimeout:        12 * time.Second,
	}
}

// Load builds the configuration. A .env file in the working directory and
// the TOML file at path are both optional; pass "" to skip the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.IdPManagementAudience == "" && cfg.IdPDomain != "" {
		cfg.IdPManagementAudience = fmt.Sprintf("https://%s/api/v2/", cfg.IdPDomainHost())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"DATABASE_URL": c.DatabaseURL,
		"IDP_DOMAIN":   c.IdPDomain,
		"IDP_AUDIENCE": c.IdPAudience,
	}
	for _, key := range []string{"DATABASE_URL", "IDP_DOMAIN", "IDP_AUDIENCE"} {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("missing required setting %s", key))
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.RollbackMaxAttempts < 1 {
		errs = append(errs, errors.New("ROLLBACK_MAX_ATTEMPTS must be at least 1"))
	}
	if c.RollbackDelay < 0 || c.RollbackAttemptTimeout <= 0 || c.RollbackTimeout <= 0 {
		errs = append(errs, errors.New("ROLLBACK_DELAY must not be negative and rollback timeouts must be positive"))
	} else if c.RollbackMaxAttempts >= 1 && c.RollbackTimeout < c.RollbackBudget() {
		errs = append(errs, fmt.Errorf("ROLLBACK_TIMEOUT %s is shorter than %d attempts of ROLLBACK_ATTEMPT_TIMEOUT plus delays (%s)",
			c.RollbackTimeout, c.RollbackMaxAttempts, c.RollbackBudget()))
	}
	return errors.Join(errs...)
}

// RollbackBudget is the time every rollback attempt needs when each one
// runs to its timeout.
func (c *Config) RollbackBudget() time.Duration {
	n := time.Duration(c.RollbackMaxAttempts)
	return n*c.RollbackAttemptTimeout + (n-1)*c.RollbackDelay
}

// IdPDomainHost strips any scheme and trailing slash from IDP_DOMAIN.
func (c *Config) IdPDomainHost() string {
	host := strings.TrimPrefix(strings.TrimPrefix(c.IdPDomain, "https://"), "http://")
	return strings.TrimSuffix(host, "/")
}

func (c *Config) IdPBaseURL() string {
	return "https://" + c.IdPDomainHost()
}

// IdPIssuer is the issuer claim expected on access tokens.
func (c *Config) IdPIssuer() string {
	return c.IdPBaseURL() + "/"
}

func (c *Config) JWKSURL() string {
	return c.IdPBaseURL() + "/.well-known/jwks.json"
}

func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" }
