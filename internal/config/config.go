package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	StoreBackend   string
	StoreKeyPrefix string
	SQLitePath     string
	RedisAddr      string
	MySQLDSN       string
	PostgresDSN    string

	HTTPPort       string
	GRPCPort       string
	HealthInterval time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel    string
	Development bool
	Location    *time.Location

	// Warnings lists values that were rejected and replaced by defaults.
	Warnings []string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	cfg := Config{
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		StoreKeyPrefix: os.Getenv("STORE_KEY_PREFIX"),
		SQLitePath:     getEnv("SQLITE_PATH", "vyappar.db"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/vyappar?parseTime=true"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "postgres://postgres@localhost:5432/vyappar?sslmode=disable"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "50051"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "invoices"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Development:    getEnv("APP_ENV", "development") == "development",
		Location:       time.Local,
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendMySQL, BackendPostgres:
	default:
		cfg.warn("unknown STORE_BACKEND %q, defaulting to %s", cfg.StoreBackend, BackendSQLite)
		cfg.StoreBackend = BackendSQLite
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	// Validate that ports are numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		cfg.warn("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}
	if _, err := strconv.Atoi(cfg.GRPCPort); err != nil {
		cfg.warn("invalid GRPC_PORT value %q, defaulting to 50051", cfg.GRPCPort)
		cfg.GRPCPort = "50051"
	}

	cfg.HealthInterval = 10 * time.Second
	if v := os.Getenv("HEALTH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			cfg.warn("invalid HEALTH_INTERVAL value %q, defaulting to 10s", v)
		} else {
			cfg.HealthInterval = d
		}
	}

	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			cfg.warn("invalid TIMEZONE value %q, using local time", tz)
		} else {
			cfg.Location = loc
		}
	}

	return cfg
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
