package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	defaultPostgresDSN = "host=localhost user=postgres password=postgres dbname=leasing port=5432 sslmode=disable"
	defaultSQLiteDSN   = "file:leasing.db?_foreign_keys=on"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres / sqlite
	DatabaseDSN    string
	CORSOrigins    string
	LogLevel       string
	LogPretty      bool

	DefaultTermPeriods    int    // number of periods when a proposal leaves it empty
	CampaignSweepSchedule string // cron spec for the expiry sweep, "" disables it
	SeedDemoData          bool
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:        strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		CORSOrigins:           getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogPretty:             getEnvAsBool("LOG_PRETTY", false),
		DefaultTermPeriods:    getEnvAsInt("DEFAULT_TERM_PERIODS", 36),
		CampaignSweepSchedule: getEnv("CAMPAIGN_SWEEP_SCHEDULE", "@hourly"),
		SeedDemoData:          getEnvAsBool("SEED_DEMO_DATA", false),
	}

	def := defaultPostgresDSN
	if cfg.DatabaseDriver == DriverSQLite {
		def = defaultSQLiteDSN
	}
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", def)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseDriver != DriverPostgres && c.DatabaseDriver != DriverSQLite {
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}
	if c.DefaultTermPeriods <= 0 {
		return fmt.Errorf("DEFAULT_TERM_PERIODS must be positive, got %d", c.DefaultTermPeriods)
	}
	if c.CampaignSweepSchedule != "" {
		if _, err := cron.ParseStandard(c.CampaignSweepSchedule); err != nil {
			return fmt.Errorf("CAMPAIGN_SWEEP_SCHEDULE: %w", err)
		}
	}
	return nil
}

// Warn logs the settings that are fine for development only.
func (c *Config) Warn() {
	if c.DatabaseDriver == DriverPostgres && c.DatabaseDSN == defaultPostgresDSN {
		log.Warn().Msg("DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		log.Warn().Msg("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
