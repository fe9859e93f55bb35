package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Listing backends accepted by LISTING_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	ListingBackend string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	SecretKey      string
	AccessTokenTTL time.Duration
	BcryptCost     int
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

func Load() *Config {
	return &Config{
		Port:           getenv("PORT", "8000"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "plantswap"),
		ListingBackend: getenv("LISTING_BACKEND", BackendPostgres),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "plant-photos"),
		MinioRegion:    getenv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    boolFromEnv("MINIO_USE_SSL", false),
		SecretKey:      getenv("SECRET_KEY", ""),
		AccessTokenTTL: durationFromEnv("ACCESS_TOKEN_TTL", 30*time.Minute),
		BcryptCost:     intFromEnv("BCRYPT_COST", 10),
		AllowedOrigins: parseCSV(getenv("ALLOWED_ORIGINS", "http://localhost:8000,http://localhost:5173")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	switch c.ListingBackend {
	case BackendMemory:
	case BackendPostgres, BackendMongo:
		// users always live in postgres outside of memory mode
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN must be set")
		}
		if c.ListingBackend == BackendMongo && c.MongoURI == "" {
			return errors.New("MONGO_URI must be set for the mongo listing backend")
		}
	default:
		return fmt.Errorf("unknown LISTING_BACKEND %q", c.ListingBackend)
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// boolFromEnv falls back to defaultVal when the variable is empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// durationFromEnv accepts Go duration strings ("30m") or a bare number of minutes.
func durationFromEnv(name string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if m, err := strconv.Atoi(v); err == nil {
		return time.Duration(m) * time.Minute
	}
	return defaultVal
}

// parseCSV splits a comma-separated list; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
