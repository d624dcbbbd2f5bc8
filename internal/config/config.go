// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPPort string

	// DatabaseURL is the Postgres DSN shared by GORM, sqlx and the change listener.
	DatabaseURL string
	// ServiceRoleKey is the privileged credential; requests bearing it skip user checks.
	ServiceRoleKey string
	AnonKey        string
	JWTSecret      string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisEnabled  bool

	RunMigrations bool
	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool
	// ServicePublish makes the services feed the realtime hub directly instead
	// of listening for the database triggers.
	ServicePublish bool

	AdminCacheTTL       time.Duration
	RateLimitPerSecond  float64
	RateLimitBurst      int
	RealtimeBufferSize  int
	SafetyAlertWorkers  int
	SafetyMonitorPeriod time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ServiceRoleKey:      os.Getenv("SERVICE_ROLE_KEY"),
		AnonKey:             os.Getenv("ANON_KEY"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		RedisHost:           os.Getenv("REDIS_HOST"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RunMigrations:       getBool("RUN_MIGRATIONS", false),
		TrustProxyHeaders:   getBool("TRUST_PROXY_HEADERS", false),
		ServicePublish:      getBool("REALTIME_SERVICE_PUBLISH", false),
		AdminCacheTTL:       getDuration("ADMIN_CACHE_TTL", 30*time.Second),
		RateLimitPerSecond:  getFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 20),
		RealtimeBufferSize:  getInt("REALTIME_BUFFER_SIZE", 64),
		SafetyAlertWorkers:  getInt("SAFETY_ALERT_WORKERS", 2),
		SafetyMonitorPeriod: getDuration("SAFETY_MONITOR_PERIOD", 30*time.Second),
	}
	cfg.RedisEnabled = cfg.RedisHost != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ServiceRoleKey == "" {
		return fmt.Errorf("SERVICE_ROLE_KEY is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
