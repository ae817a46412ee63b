// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"alcoholdb/internal/database"
)

// Catalogue backends selectable with CATALOG_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int

	// Catalogue backend: "postgres" or "mongo"
	CatalogBackend string
	MongoURI       string
	MongoDB        string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// S3-compatible image storage (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Collaborators (optional)
	KafkaBroker       string
	ModerationURL     string
	ModerationTimeout time.Duration
	RecommendURL      string

	// Development seed
	AdminEmail    string
	AdminPassword string

	// Browser origins allowed by CORS
	CORSOrigins []string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	var err error
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "alcoholdb"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "alcoholdb"),

		CatalogBackend: strings.ToLower(envOrDefault("CATALOG_BACKEND", BackendPostgres)),
		MongoURI:       envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        envOrDefault("MONGO_DB", "alcoholdb"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "alcoholdb-images"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		ModerationURL: os.Getenv("MODERATION_URL"),
		RecommendURL:  os.Getenv("RECOMMEND_URL"),

		AdminEmail:    envOrDefault("ADMIN_EMAIL", "admin@alcoholdb.local"),
		AdminPassword: envOrDefault("ADMIN_PASSWORD", "admin"),

		CORSOrigins: splitList(envOrDefault("CORS_ORIGINS", "*")),
	}

	if cfg.DBMaxConns, err = envInt("POSTGRES_MAX_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.ValkeyDB, err = envInt("VALKEY_DB", 0); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(envOrDefault("MODERATION_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("MODERATION_TIMEOUT: %w", err)
	}
	cfg.ModerationTimeout = timeout

	if cfg.CatalogBackend != BackendPostgres && cfg.CatalogBackend != BackendMongo {
		return nil, fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMongo, cfg.CatalogBackend)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// DBPool returns the connection pool sizing. Idle connections are a fifth
// of the maximum, at least one.
func (c *Config) DBPool() database.Pool {
	pool := database.DefaultPool()
	pool.MaxOpen = c.DBMaxConns
	pool.MaxIdle = max(1, c.DBMaxConns/5)
	return pool
}

// ValkeyAddr returns host:port for the Valkey client.
func (c *Config) ValkeyAddr() string {
	return c.ValkeyHost + ":" + c.ValkeyPort
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads a non-negative integer variable.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
