package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

const EnvDevelopment = "development"

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int

	MongoURI       string
	MongoDB        string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret string
	TokenTTL  time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	Currency    string
	CORSOrigins []string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env, using process environment", "error", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func FromEnv() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", EnvDevelopment),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:        getEnv("MONGO_DB", "marketplace"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/repository/migrations"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "orders.created"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 7*24*time.Hour),

		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		Currency:    strings.ToUpper(getEnv("CURRENCY", "INR")),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.MongoDB == "" {
		errs = append(errs, errors.New("MONGO_DB is required"))
	}
	if c.JWTSecret == "" {
		if c.IsDevelopment() {
			c.JWTSecret = "dev-secret-change-me"
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		}
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		errs = append(errs, fmt.Errorf("CURRENCY %q is not an ISO 4217 code: %w", c.Currency, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
