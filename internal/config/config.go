package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	JWTSecret string
	LogLevel  string
	LogPretty bool

	VerifyPrices        bool
	AnalyticsWindowDays int

	AMQPURL      string
	AMQPExchange string

	TelegramToken  string
	TelegramChatID int64
}

func Load() (*Config, error) {
	_, filename, _, _ := runtime.Caller(0) // project root
	rootDir := filepath.Join(filepath.Dir(filename), "..", "..")

	envPath := filepath.Join(rootDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		DBHost:       getenv("DB_HOST", "localhost"),
		DBPort:       getenv("DB_PORT", "5432"),
		DBUser:       os.Getenv("DB_USER"),
		DBPass:       os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBSSLMode:    getenv("DB_SSLMODE", "disable"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getenv("AMQP_EXCHANGE", "orders_topic"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	var err error
	if cfg.LogPretty, err = parseBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if cfg.VerifyPrices, err = parseBool("VERIFY_PRICES", false); err != nil {
		return nil, err
	}
	if cfg.AnalyticsWindowDays, err = parseInt("ANALYTICS_WINDOW_DAYS", 30); err != nil {
		return nil, err
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
	}
	cfg.ShutdownTimeout = 10 * time.Second
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		if cfg.ShutdownTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AnalyticsWindowDays < 1 || c.AnalyticsWindowDays > 365 {
		return fmt.Errorf("ANALYTICS_WINDOW_DAYS must be in [1, 365]: %d", c.AnalyticsWindowDays)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive: %s", c.ShutdownTimeout)
	}
	return nil
}

// DSN is the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName, c.DBSSLMode,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
