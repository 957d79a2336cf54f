// Copyright 2025 Certen Protocol
//
// YAML configuration loader for the AIG service, with ${VAR_NAME} and
// ${VAR_NAME:-default} environment variable substitution.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ==============================================================================
// Nested configuration structures
// ==============================================================================

// AIGConfig holds the full nested configuration for the AIG service.
type AIGConfig struct {
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`

	Server     ServerSettings     `yaml:"server"`
	Storage    StorageSettings    `yaml:"storage"`
	Audit      AuditSettings      `yaml:"audit"`
	ProofSvc   ProofServiceSettings `yaml:"proof_service"`
	Security   SecuritySettings   `yaml:"security"`
	Monitoring MonitoringSettings `yaml:"monitoring"`
}

// ServerSettings contains listener configuration.
type ServerSettings struct {
	ListenAddr  string   `yaml:"listen_addr"`
	MetricsAddr string   `yaml:"metrics_addr"`
	ReadTimeout Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	ShutdownGrace Duration `yaml:"shutdown_grace"`
}

// StorageSettings selects and configures the persistence backend.
type StorageSettings struct {
	Backend   string             `yaml:"backend"` // memory | postgres | firestore
	Postgres  PostgresSettings   `yaml:"postgres"`
	Firestore FirestoreSettings  `yaml:"firestore"`
}

// PostgresSettings contains Postgres connection configuration.
type PostgresSettings struct {
	URL            string   `yaml:"url"`
	MaxConnections int      `yaml:"max_connections"`
	MinConnections int      `yaml:"min_connections"`
	MaxIdleTime    Duration `yaml:"max_idle_time"`
	MaxLifetime    Duration `yaml:"max_lifetime"`
	Required       bool     `yaml:"required"`
	AutoMigrate    bool     `yaml:"auto_migrate"`
	MigrationPath  string   `yaml:"migration_path"`
}

// FirestoreSettings contains Firestore/Firebase configuration.
type FirestoreSettings struct {
	Enabled         bool   `yaml:"enabled"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	VertexCollection    string `yaml:"vertex_collection"`
	ChangesetCollection string `yaml:"changeset_collection"`
}

// AuditSettings contains defaults for the audit engine and query layer.
type AuditSettings struct {
	DefaultPageSize     int      `yaml:"default_page_size"`
	MaxPageSize         int      `yaml:"max_page_size"`
	DefaultVerifyDepth  string   `yaml:"default_verify_depth"` // none | current | all
	HashChainEnabled    bool     `yaml:"hash_chain_enabled"`
	VertexLockTimeout   Duration `yaml:"vertex_lock_timeout"`
}

// ProofServiceSettings configures the proof collaborator adapter.
type ProofServiceSettings struct {
	Mode             string   `yaml:"mode"` // local | external
	SigningKeyPath   string   `yaml:"signing_key_path"`
	VerificationURL  string   `yaml:"verification_url"`
	IssuancePollInterval Duration `yaml:"issuance_poll_interval"`
	VerifyRetryMax   int      `yaml:"verify_retry_max"`
}

// SecuritySettings contains security-adjacent configuration.
type SecuritySettings struct {
	Auth      AuthSettings      `yaml:"auth"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	CORS      CORSSettings      `yaml:"cors"`
}

// AuthSettings contains authentication configuration.
type AuthSettings struct {
	Enabled   bool     `yaml:"enabled"`
	JWTSecret string   `yaml:"jwt_secret"`
	JWTExpiry Duration `yaml:"jwt_expiry"`
}

// RateLimitSettings contains rate limiting configuration.
type RateLimitSettings struct {
	Enabled           bool   `yaml:"enabled"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	Burst             int    `yaml:"burst"`
	RedisAddr         string `yaml:"redis_addr"` // empty -> in-memory limiter
}

// CORSSettings contains CORS configuration.
type CORSSettings struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// MonitoringSettings contains logging/metrics configuration.
type MonitoringSettings struct {
	Metrics MetricsSettings `yaml:"metrics"`
	Logging LoggingSettings `yaml:"logging"`
}

// MetricsSettings contains Prometheus metrics configuration.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // json | standard
	IncludeCaller bool   `yaml:"include_caller"`
}

// ==============================================================================
// Duration type for YAML parsing
// ==============================================================================

// Duration wraps time.Duration for YAML unmarshaling from Go duration strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ==============================================================================
// Loading
// ==============================================================================

// LoadAIGConfig loads configuration from a YAML file, substituting
// ${VAR_NAME} / ${VAR_NAME:-default} references against the environment.
func LoadAIGConfig(path string) (*AIGConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg AIGConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AIGConfig) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "0.0.0.0:8080"
	}
	if c.Server.ShutdownGrace == 0 {
		c.Server.ShutdownGrace = Duration(30 * time.Second)
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Storage.Postgres.MaxConnections == 0 {
		c.Storage.Postgres.MaxConnections = 25
	}
	if c.Storage.Postgres.MinConnections == 0 {
		c.Storage.Postgres.MinConnections = 5
	}
	if c.Storage.Postgres.MaxIdleTime == 0 {
		c.Storage.Postgres.MaxIdleTime = Duration(5 * time.Minute)
	}
	if c.Storage.Postgres.MaxLifetime == 0 {
		c.Storage.Postgres.MaxLifetime = Duration(1 * time.Hour)
	}
	if c.Audit.DefaultPageSize == 0 {
		c.Audit.DefaultPageSize = 20
	}
	if c.Audit.MaxPageSize == 0 {
		c.Audit.MaxPageSize = 200
	}
	if c.Audit.DefaultVerifyDepth == "" {
		c.Audit.DefaultVerifyDepth = "none"
	}
	if c.Audit.VertexLockTimeout == 0 {
		c.Audit.VertexLockTimeout = Duration(10 * time.Second)
	}
	if c.ProofSvc.Mode == "" {
		c.ProofSvc.Mode = "local"
	}
	if c.ProofSvc.IssuancePollInterval == 0 {
		c.ProofSvc.IssuancePollInterval = Duration(2 * time.Second)
	}
	if c.ProofSvc.VerifyRetryMax == 0 {
		c.ProofSvc.VerifyRetryMax = 5
	}
	if c.Security.RateLimit.RequestsPerMinute == 0 {
		c.Security.RateLimit.RequestsPerMinute = 100
	}
	if c.Security.RateLimit.Burst == 0 {
		c.Security.RateLimit.Burst = 20
	}
	if c.Monitoring.Logging.Level == "" {
		c.Monitoring.Logging.Level = "info"
	}
	if c.Monitoring.Logging.Format == "" {
		c.Monitoring.Logging.Format = "json"
	}
	if c.Monitoring.Metrics.Path == "" {
		c.Monitoring.Metrics.Path = "/metrics"
	}
}

// ==============================================================================
// Environment variable substitution
// ==============================================================================

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}

		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// ==============================================================================
// Validation
// ==============================================================================

// Validate checks that the configuration required for the selected storage
// and environment is present.
func (c *AIGConfig) Validate() error {
	var errs []string

	switch c.Storage.Backend {
	case "postgres":
		if c.Storage.Postgres.URL == "" || strings.HasPrefix(c.Storage.Postgres.URL, "${") {
			errs = append(errs, "storage.postgres.url is required when storage.backend=postgres")
		}
	case "firestore":
		if c.Storage.Firestore.ProjectID == "" || strings.HasPrefix(c.Storage.Firestore.ProjectID, "${") {
			errs = append(errs, "storage.firestore.project_id is required when storage.backend=firestore")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("unknown storage.backend %q", c.Storage.Backend))
	}

	if c.Environment == "production" {
		if c.Security.Auth.JWTSecret == "" || strings.HasPrefix(c.Security.Auth.JWTSecret, "${") {
			errs = append(errs, "security.auth.jwt_secret is required for production")
		} else if len(c.Security.Auth.JWTSecret) < 32 {
			errs = append(errs, "security.auth.jwt_secret must be at least 32 characters for production")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction returns true if this is a production configuration.
func (c *AIGConfig) IsProduction() bool {
	return c.Environment == "production"
}
