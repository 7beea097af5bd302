package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"flightsurety/pkg/domain"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// devSigningKey is only accepted outside production.
const devSigningKey = "dev-secret-key-change-in-production"

// Server captures process configuration. Every field is read from the
// environment; see the env tags for keys and defaults.
type Server struct {
	Addr        string `env:"FLIGHTSURETY_ADDR" envDefault:":8080"`
	Environment string `env:"FLIGHTSURETY_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/flightsurety.db"`

	OwnerAddress     string `env:"OWNER_ADDRESS,required"`
	AdminTokenHash   string `env:"ADMIN_TOKEN_HASH"`
	StartOperational bool   `env:"START_OPERATIONAL" envDefault:"true"`

	JWTSigningKey string        `env:"JWT_SIGNING_KEY"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	TokenIssuer   string        `env:"TOKEN_ISSUER" envDefault:"flightsurety"`

	// SettlementURL selects the HTTP payment gateway; empty keeps payouts in
	// the in-process ledger channel.
	SettlementURL     string        `env:"SETTLEMENT_URL"`
	SettlementTimeout time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"10s"`

	TxTimeout   time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
	EventBuffer int           `env:"EVENT_BUFFER" envDefault:"64"`

	Owner domain.Address `env:"-"`
}

// FromEnv parses and validates the configuration so main stays lean.
func FromEnv() (*Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether dev fallbacks must be refused.
func (c *Server) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Server) normalize() error {
	owner, err := domain.ParseAddress(c.OwnerAddress)
	if err != nil {
		return fmt.Errorf("OWNER_ADDRESS: %w", err)
	}
	c.Owner = owner

	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StorageSQLite, c.StorageDriver)
	}

	if c.JWTSigningKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		c.JWTSigningKey = devSigningKey
	}
	if c.IsProduction() && c.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH is required in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.TxTimeout <= 0 {
		return fmt.Errorf("TX_TIMEOUT must be positive")
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	return nil
}
