package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spintom/inserf/internal/tax"
)

type Config struct {
	Addr           string
	DatabaseURL    string
	JWTSecret      string
	VATRate        decimal.Decimal
	StockPolicy    string
	KafkaBrokers   []string
	OrderTopic     string
	RedisAddr      string
	IdempotencyTTL time.Duration
	LogLevel       string
	LogFormat      string
}

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

// Load reads configuration from environment variables. An empty DATABASE_URL
// selects the in-memory store; empty KAFKA_BROKERS and REDIS_ADDR disable
// event publishing and shared idempotency keys.
func Load() (Config, error) {
	cfg := Config{
		Addr:        getenv("INSERF_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		StockPolicy: strings.ToLower(getenv("STOCK_POLICY", "check")),
		OrderTopic:  getenv("ORDER_TOPIC", "order-events"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}

	rate, err := decimal.NewFromString(getenv("VAT_RATE", tax.DefaultRate.String()))
	if err != nil {
		return Config{}, fmt.Errorf("VAT_RATE: %w", err)
	}
	if err := tax.ValidateRate(rate); err != nil {
		return Config{}, fmt.Errorf("VAT_RATE: %w", err)
	}
	cfg.VATRate = rate

	switch cfg.StockPolicy {
	case "check", "decrement":
	default:
		return Config{}, fmt.Errorf("STOCK_POLICY: unknown value %q", cfg.StockPolicy)
	}

	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	ttl, err := time.ParseDuration(getenv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("IDEMPOTENCY_TTL: %w", err)
	}
	cfg.IdempotencyTTL = ttl

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
