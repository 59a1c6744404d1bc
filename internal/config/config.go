package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"

	InactivePolicyDisplay = "display"
	InactivePolicyPersist = "persist"

	DurationLookupScan    = "scan"
	DurationLookupIndexed = "indexed"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Storage
	StoreBackend  string
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// Auth
	JWTSecret           string
	AdminCode           string
	SessionTTL          time.Duration
	AuthRateLimitPerMin int

	// Status engine
	InactivePolicy string
	DurationLookup string
	AuditInterval  time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Env:                 getEnvOrDefault("ENV", "development"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		StoreBackend:        getEnvOrDefault("STORE_BACKEND", StoreBackendPostgres),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		MigrationsDir:       getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:            mustGetEnv("REDIS_URL"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		AdminCode:           mustGetEnv("ADMIN_CODE"),
		SessionTTL:          time.Duration(getEnvAsIntOrDefault("SESSION_TTL_HOURS", 168)) * time.Hour,
		AuthRateLimitPerMin: getEnvAsIntOrDefault("AUTH_RATE_LIMIT_PER_MIN", 10),
		InactivePolicy:      getEnvOrDefault("INACTIVE_POLICY", InactivePolicyDisplay),
		DurationLookup:      getEnvOrDefault("DURATION_LOOKUP", DurationLookupScan),
		AuditInterval:       time.Duration(getEnvAsIntOrDefault("AUDIT_INTERVAL_MINUTES", 60)) * time.Minute,
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// Validate rejects unknown enumerated settings and missing backend credentials.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", StoreBackendPostgres)
		}
	case StoreBackendRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.InactivePolicy != InactivePolicyDisplay && c.InactivePolicy != InactivePolicyPersist {
		return fmt.Errorf("unknown INACTIVE_POLICY %q", c.InactivePolicy)
	}
	if c.DurationLookup != DurationLookupScan && c.DurationLookup != DurationLookupIndexed {
		return fmt.Errorf("unknown DURATION_LOOKUP %q", c.DurationLookup)
	}
	if c.AuditInterval < 0 {
		return fmt.Errorf("AUDIT_INTERVAL_MINUTES must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	return nil
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
