package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-reservation/utils"
)

// Config holds runtime settings read from the environment.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver   string // mysql or sqlite
	DBDSN      string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string

	AdminEmail    string
	AdminPassword string

	PaymentKeyID     string
	PaymentKeySecret string
	PaymentBaseURL   string
	PaymentTimeout   time.Duration

	MaxPartySize     int
	MaxTableCapacity int
	SlotTimes        []string
	// BookingDeposit is the price of a booking in minor units. Zero trusts
	// the amount the client declares.
	BookingDeposit int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RabbitMQURL   string

	CORSOrigin   string
	RateLimitRPS int
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf(".env file not loaded: %v", err)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:      os.Getenv("DB_DSN"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "table_reservation"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		PaymentKeyID:     os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret: os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentBaseURL:   strings.TrimRight(getEnv("PAYMENT_BASE_URL", "https://api.razorpay.com"), "/"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),

		CORSOrigin: getEnv("CORS_ORIGIN", "http://127.0.0.1:5500"),
	}

	var err error
	if cfg.PaymentTimeout, err = getDuration("PAYMENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxPartySize, err = getInt("MAX_PARTY_SIZE", 20); err != nil {
		return nil, err
	}
	if cfg.MaxTableCapacity, err = getInt("MAX_TABLE_CAPACITY", 20); err != nil {
		return nil, err
	}
	deposit, err := getInt("BOOKING_DEPOSIT", 0)
	if err != nil {
		return nil, err
	}
	cfg.BookingDeposit = int64(deposit)
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getInt("RATE_LIMIT_RPS", 50); err != nil {
		return nil, err
	}
	if raw := os.Getenv("SLOT_TIMES"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.SlotTimes = append(cfg.SlotTimes, s)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the reservation core cannot run without.
func (c *Config) Validate() error {
	if c.MaxPartySize <= 0 {
		return fmt.Errorf("MAX_PARTY_SIZE must be positive, got %d", c.MaxPartySize)
	}
	if c.MaxTableCapacity <= 0 {
		return fmt.Errorf("MAX_TABLE_CAPACITY must be positive, got %d", c.MaxTableCapacity)
	}
	if c.BookingDeposit < 0 {
		return fmt.Errorf("BOOKING_DEPOSIT must not be negative, got %d", c.BookingDeposit)
	}
	if c.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}
	for _, s := range c.SlotTimes {
		if _, err := time.Parse("15:04", s); err != nil {
			return fmt.Errorf("SLOT_TIMES entry %q is not HH:MM", s)
		}
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.GinMode == "release" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		if c.PaymentKeyID == "" || c.PaymentKeySecret == "" {
			return fmt.Errorf("PAYMENT_KEY_ID and PAYMENT_KEY_SECRET must be set")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}
