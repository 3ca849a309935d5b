package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	Database DatabaseConfig
	Mail     MailConfig
	Queue    QueueConfig

	PDFDir          string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	URL        string
}

type MailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// Enabled reports whether an SMTP host is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

type QueueConfig struct {
	RedisAddr   string
	MaxRetry    int
	Concurrency int
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by main) > default.
// Unparseable values keep their default and are reported in warnings.
func Load() (Config, []string) {
	var warnings []string
	cfg := Config{}
	cfg.Env = getEnv("APP_ENV", EnvDevelopment)
	if os.Getenv("RENDER") != "" {
		cfg.Env = EnvProduction
	}
	prod := cfg.Env == EnvProduction

	cfg.Port = getEnv("HTTP_PORT", getEnv("PORT", "8080"))
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.Database = DatabaseConfig{
		Driver:     getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", pick(prod, "/tmp/database.sqlite", "./database.sqlite")),
		URL:        os.Getenv("DATABASE_URL"),
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		warnings = append(warnings, fmt.Sprintf("unknown DB_DRIVER %q, using sqlite", cfg.Database.Driver))
		cfg.Database.Driver = "sqlite"
	}
	cfg.PDFDir = getEnv("PDF_DIR", pick(prod, "/tmp/pdfs", "./pdfs"))

	cfg.Mail = MailConfig{
		Host: os.Getenv("EMAIL_HOST"),
		Port: getInt("EMAIL_PORT", 587, &warnings),
		User: os.Getenv("EMAIL_USER"),
		Pass: os.Getenv("EMAIL_PASS"),
		To:   getEnv("EMAIL_TO", "raiatearentcar@mail.pf"),
	}
	cfg.Mail.From = getEnv("EMAIL_FROM", cfg.Mail.User)

	cfg.Queue = QueueConfig{
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		MaxRetry:    getInt("QUEUE_MAX_RETRY", 5, &warnings),
		Concurrency: getInt("QUEUE_CONCURRENCY", 4, &warnings),
	}
	if cfg.Queue.Concurrency < 1 {
		cfg.Queue.Concurrency = 1
	}
	if cfg.Queue.MaxRetry < 0 {
		cfg.Queue.MaxRetry = 0
	}

	cfg.ShutdownTimeout = 10 * time.Second
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid SHUTDOWN_TIMEOUT %q: %v", v, err))
		} else {
			cfg.ShutdownTimeout = d
		}
	}
	return cfg, warnings
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, warnings *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("invalid integer for %s: %s", key, v))
		return def
	}
	return n
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
