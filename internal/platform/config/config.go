package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Addr        string
	DatabaseURL string
	APIToken    string
	Environment string

	// OverflowThreshold caps the Billings bucket, in smallest currency units.
	OverflowThreshold decimal.Decimal
	MinSalary         decimal.Decimal
	MaxSalary         decimal.Decimal
	ScheduleHorizon   time.Duration

	PayrollInterval time.Duration
	AccrualInterval time.Duration

	RunMigrations bool
	RunSeed       bool
}

func Load() Config {
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		APIToken:          getEnv("API_TOKEN", "dev-token"),
		Environment:       getEnv("APP_ENV", "development"),
		OverflowThreshold: getEnvDecimal("BILLINGS_OVERFLOW_THRESHOLD", decimal.NewFromInt(1_000_000_000)),
		MinSalary:         getEnvDecimal("PAYROLL_MIN_SALARY", decimal.NewFromInt(1)),
		MaxSalary:         getEnvDecimal("PAYROLL_MAX_SALARY", decimal.NewFromInt(100_000_000_000)),
		ScheduleHorizon:   getEnvDuration("PAYROLL_SCHEDULE_HORIZON", 90*24*time.Hour),
		PayrollInterval:   getEnvDuration("PAYROLL_PROCESS_INTERVAL", time.Minute),
		AccrualInterval:   getEnvDuration("YIELD_ACCRUAL_INTERVAL", time.Hour),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && c.APIToken == "dev-token" {
		return fmt.Errorf("API_TOKEN must be changed in production")
	}
	if c.OverflowThreshold.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("BILLINGS_OVERFLOW_THRESHOLD must be positive")
	}
	if c.MinSalary.LessThanOrEqual(decimal.Zero) || c.MaxSalary.LessThan(c.MinSalary) {
		return fmt.Errorf("payroll salary bounds must satisfy 0 < min <= max")
	}
	if c.ScheduleHorizon <= 0 {
		return fmt.Errorf("PAYROLL_SCHEDULE_HORIZON must be positive")
	}
	return nil
}
