// Copyright 2025 Certen Protocol
//
// Environment-variable configuration for the AIG service.
// Simple flat config for quick starts and tests; pkg/config/yaml_config.go
// provides the richer nested form for production deployment.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageBackend selects which VertexStore/ChangesetStore implementation
// the service wires at startup.
type StorageBackend string

const (
	StorageBackendMemory    StorageBackend = "memory"
	StorageBackendPostgres  StorageBackend = "postgres"
	StorageBackendFirestore StorageBackend = "firestore"
)

// Config holds all configuration for the AIG service.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Storage
	StorageBackend StorageBackend

	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int // seconds
	DatabaseMaxLifetime int // seconds
	DatabaseRequired    bool
	MigrationPath       string

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// Proof service
	ProofSigningKeyPath string
	HashChainEnabled    bool

	// Audit engine defaults
	DefaultPageSize   int
	DefaultVerifyMode string // none | current | all

	// Security
	JWTSecret   string
	CORSOrigins []string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   int
	RedisAddr         string

	LogLevel string
}

// Load reads configuration from environment variables, applying the same
// defaults-unless-set convention the rest of this service uses.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("AIG_HOST", "0.0.0.0") + ":" + getEnv("AIG_PORT", "8080"),
		MetricsAddr: getEnv("AIG_HOST", "0.0.0.0") + ":" + getEnv("AIG_METRICS_PORT", "9090"),

		StorageBackend: StorageBackend(getEnv("AIG_STORAGE_BACKEND", string(StorageBackendMemory))),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600),
		DatabaseRequired:    getEnvBool("DATABASE_REQUIRED", false),
		MigrationPath:       getEnv("DATABASE_MIGRATION_PATH", "./migrations"),

		FirestoreProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirestoreCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		ProofSigningKeyPath: getEnv("AIG_PROOF_SIGNING_KEY_PATH", ""),
		HashChainEnabled:    getEnvBool("AIG_HASH_CHAIN_ENABLED", false),

		DefaultPageSize:   getEnvInt("AIG_DEFAULT_PAGE_SIZE", 20),
		DefaultVerifyMode: getEnv("AIG_DEFAULT_VERIFY_MODE", "none"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvInt("RATE_LIMIT_WINDOW", 60),
		RedisAddr:         getEnv("REDIS_ADDR", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that configuration required for the selected storage
// backend is present.
func (c *Config) Validate() error {
	var errs []string

	switch c.StorageBackend {
	case StorageBackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when AIG_STORAGE_BACKEND=postgres")
		}
	case StorageBackendFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, "FIREBASE_PROJECT_ID is required when AIG_STORAGE_BACKEND=firestore")
		}
	case StorageBackendMemory:
		// no external dependency
	default:
		errs = append(errs, fmt.Sprintf("unknown AIG_STORAGE_BACKEND %q", c.StorageBackend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DatabaseMaxIdleTimeDuration returns DatabaseMaxIdleTime as a time.Duration.
func (c *Config) DatabaseMaxIdleTimeDuration() time.Duration {
	return time.Duration(c.DatabaseMaxIdleTime) * time.Second
}

// DatabaseMaxLifetimeDuration returns DatabaseMaxLifetime as a time.Duration.
func (c *Config) DatabaseMaxLifetimeDuration() time.Duration {
	return time.Duration(c.DatabaseMaxLifetime) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
