/*
Package configs loads the server configuration.

Settings come from environment variables. A .env file in the working directory, when present,
is read first; variables already set in the environment take precedence over it.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvDevelopment enables permissive defaults (insecure secret, memory store, any CORS origin).
	EnvDevelopment = "development"

	// StoreDriverPostgres keeps users in PostgreSQL.
	StoreDriverPostgres = "postgres"

	// StoreDriverMemory keeps users in process memory; they are lost on restart.
	StoreDriverMemory = "memory"

	developmentJWTSecret = "echospace_insecure_development_secret_change_me"
)

// AppConfig contains everything the server needs to start.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// User Store Settings
	StoreDriver string
	DatabaseDSN string

	// S3 Storage Settings (optional, avatar uploads)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// StorageEnabled reports whether object storage for avatars is configured.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3BucketName != ""
}

// LoadConfig reads .env (if any) and then the environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv parses the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getEnv("ENVIRONMENT", EnvDevelopment)

	port, err := strconv.Atoi(getEnv("PORT", "4000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (1024-65535)", port)
	}
	cfg.Port = port

	// --- Security Settings ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment", cfg.Environment)
		}
		cfg.JWTSecret = developmentJWTSecret
	}

	// --- User Store Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	cfg.StoreDriver = strings.ToLower(os.Getenv("STORE_DRIVER"))
	if cfg.StoreDriver == "" {
		if cfg.DatabaseDSN == "" && cfg.IsDevelopment() {
			cfg.StoreDriver = StoreDriverMemory
		} else {
			cfg.StoreDriver = StoreDriverPostgres
		}
	}

	switch cfg.StoreDriver {
	case StoreDriverMemory:
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("STORE_DRIVER=memory is only allowed in %s environment", EnvDevelopment)
		}
	case StoreDriverPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	// --- S3 Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.S3PublicURL = strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/")

	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateStorage accepts either no S3 settings at all or a complete set.
func (c *AppConfig) validateStorage() error {
	required := map[string]string{
		"S3_BUCKET_NAME":       c.S3BucketName,
		"S3_ENDPOINT":          c.S3Endpoint,
		"S3_ACCESS_KEY_ID":     c.S3AccessKeyID,
		"S3_SECRET_ACCESS_KEY": c.S3SecretAccessKey,
		"S3_PUBLIC_URL":        c.S3PublicURL,
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 || len(missing) == len(required) {
		return nil
	}

	slices.Sort(missing)

	return fmt.Errorf("incomplete S3 storage configuration, missing: %s", strings.Join(missing, ", "))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
