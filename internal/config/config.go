// Package config reads process settings from the environment, optionally seeded from
// a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

type Config struct {
	Backend           string
	DatabaseDSN       string
	HTTPAddr          string
	BcryptCost        int
	LogLevel          string
	LogFormat         string
	MinOpeningDeposit decimal.Decimal
	Binlog            BinlogConfig
}

// BinlogConfig addresses the MySQL server the ledger tail replicates from.
type BinlogConfig struct {
	Host     string
	Port     uint16
	User     string
	Password string
	ServerID uint32
	Schema   string
}

// Load reads .env (if present) and then the environment. Variables already set in the
// environment take precedence over the file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: error loading %s: %w", path, err)
	}

	cfg := Config{
		Backend:     getenv("STORE_BACKEND", BackendMySQL),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "console"),
		Binlog: BinlogConfig{
			Host:     getenv("BINLOG_HOST", "127.0.0.1"),
			User:     getenv("BINLOG_USER", "replicator"),
			Password: os.Getenv("MYSQL_REPLICATOR_PASSWORD"),
			Schema:   getenv("BINLOG_SCHEMA", "banking_system"),
		},
	}

	var err error
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	minDeposit := getenv("MIN_OPENING_DEPOSIT", "2000")
	if cfg.MinOpeningDeposit, err = decimal.NewFromString(minDeposit); err != nil {
		return Config{}, fmt.Errorf("config: invalid MIN_OPENING_DEPOSIT %q: %w", minDeposit, err)
	}
	if !cfg.MinOpeningDeposit.IsPositive() {
		return Config{}, fmt.Errorf("config: MIN_OPENING_DEPOSIT must be positive")
	}

	port, err := intEnv("BINLOG_PORT", 3306)
	if err != nil {
		return Config{}, err
	}
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("config: BINLOG_PORT out of range: %d", port)
	}
	cfg.Binlog.Port = uint16(port)

	serverID, err := intEnv("BINLOG_SERVER_ID", 101)
	if err != nil {
		return Config{}, err
	}
	if serverID <= 0 {
		return Config{}, fmt.Errorf("config: BINLOG_SERVER_ID must be positive")
	}
	cfg.Binlog.ServerID = uint32(serverID)

	switch cfg.Backend {
	case BackendMySQL:
		if cfg.DatabaseDSN == "" {
			return Config{}, errors.New("config: DATABASE_DSN environment variable not set in .env file or environment")
		}
	case BackendMemory:
	default:
		return Config{}, fmt.Errorf("config: unknown STORE_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
