// Package config loads muleguard's runtime configuration from environment
// variables, applying the defaults documented alongside each field.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/finflow/muleguard/internal/engine"
)

// Config aggregates every configurable surface of the service.
type Config struct {
	HTTP      HTTPConfig
	Detectors DetectorsConfig
	Export    ExportConfig
	Logging   LoggingConfig
}

// HTTPConfig governs the analysis API's HTTP server.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// DetectorsConfig mirrors engine.DetectorConfig with environment overrides
// for every threshold the specification names.
type DetectorsConfig struct {
	SmurfWindow                 time.Duration
	SmurfMinCounterparties      int
	ShellMinHops                int
	ShellMaxHops                int
	ShellMaxIntermediateTxCount int
	HighVelocityWindow          time.Duration
	HighVelocityThreshold       int
	MinCycleLength              int
	MaxCycleLength              int
	MaxSCCSize                  int
	MerchantTxCountThreshold    int
	MerchantAmountCVThreshold   float64
	MerchantMinObservationDays  int
	PayrollTxCountThreshold     int
	PayrollAmountCVThreshold    float64
	PayrollMinPayDates          int
}

// ToEngineConfig converts the environment-loaded thresholds into the
// engine's own configuration type, leaving scoring weights and risk-formula
// constants at their spec-defined defaults since no environment variable
// controls them.
func (d DetectorsConfig) ToEngineConfig() engine.DetectorConfig {
	cfg := engine.DefaultDetectorConfig()
	cfg.SmurfWindow = d.SmurfWindow
	cfg.SmurfMinCounterparties = d.SmurfMinCounterparties
	cfg.ShellMinHops = d.ShellMinHops
	cfg.ShellMaxHops = d.ShellMaxHops
	cfg.ShellMaxIntermediateTxCount = d.ShellMaxIntermediateTxCount
	cfg.HighVelocityWindow = d.HighVelocityWindow
	cfg.HighVelocityThreshold = d.HighVelocityThreshold
	cfg.MinCycleLength = d.MinCycleLength
	cfg.MaxCycleLength = d.MaxCycleLength
	cfg.MaxSCCSize = d.MaxSCCSize
	cfg.MerchantTxCountThreshold = d.MerchantTxCountThreshold
	cfg.MerchantAmountCVThreshold = d.MerchantAmountCVThreshold
	cfg.MerchantMinObservationDays = d.MerchantMinObservationDays
	cfg.PayrollTxCountThreshold = d.PayrollTxCountThreshold
	cfg.PayrollAmountCVThreshold = d.PayrollAmountCVThreshold
	cfg.PayrollMinPayDates = d.PayrollMinPayDates
	return cfg
}

// ExportConfig describes connectivity to the optional post-hoc graph store
// (Neo4j) that the export bridge writes GraphPayloads to. It is unused
// unless a caller explicitly opts into exporting a result.
type ExportConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultExportMaxConns  = 10
)

// Load reads configuration from environment variables, applying the spec's
// literal detector defaults where no override is present.
func Load() (Config, error) {
	engineDefaults := engine.DefaultDetectorConfig()

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Export: ExportConfig{
			URI:            os.Getenv("EXPORT_NEO4J_URI"),
			Database:       valueOrDefault("EXPORT_NEO4J_DATABASE", ""),
			Username:       os.Getenv("EXPORT_NEO4J_USERNAME"),
			Password:       os.Getenv("EXPORT_NEO4J_PASSWORD"),
			MaxConnections: parseIntWithDefault("EXPORT_NEO4J_MAX_CONNECTIONS", defaultExportMaxConns),
		},
		Detectors: DetectorsConfig{
			SmurfWindow:                 parseDurationWithDefault("SMURF_WINDOW", engineDefaults.SmurfWindow),
			SmurfMinCounterparties:      parseIntWithDefault("SMURF_MIN_COUNTERPARTIES", engineDefaults.SmurfMinCounterparties),
			ShellMinHops:                parseIntWithDefault("SHELL_MIN_HOPS", engineDefaults.ShellMinHops),
			ShellMaxHops:                parseIntWithDefault("SHELL_MAX_HOPS", engineDefaults.ShellMaxHops),
			ShellMaxIntermediateTxCount: parseIntWithDefault("SHELL_MAX_INTERMEDIATE_TX_COUNT", engineDefaults.ShellMaxIntermediateTxCount),
			HighVelocityWindow:          parseDurationWithDefault("HIGH_VELOCITY_WINDOW", engineDefaults.HighVelocityWindow),
			HighVelocityThreshold:       parseIntWithDefault("HIGH_VELOCITY_THRESHOLD", engineDefaults.HighVelocityThreshold),
			MinCycleLength:              parseIntWithDefault("CYCLE_MIN_LENGTH", engineDefaults.MinCycleLength),
			MaxCycleLength:              parseIntWithDefault("CYCLE_MAX_LENGTH", engineDefaults.MaxCycleLength),
			MaxSCCSize:                  parseIntWithDefault("CYCLE_MAX_SCC_SIZE", engineDefaults.MaxSCCSize),
			MerchantTxCountThreshold:    parseIntWithDefault("MERCHANT_TX_COUNT_THRESHOLD", engineDefaults.MerchantTxCountThreshold),
			MerchantAmountCVThreshold:   parseFloatWithDefault("MERCHANT_AMOUNT_CV_THRESHOLD", engineDefaults.MerchantAmountCVThreshold),
			MerchantMinObservationDays:  parseIntWithDefault("MERCHANT_MIN_OBSERVATION_DAYS", engineDefaults.MerchantMinObservationDays),
			PayrollTxCountThreshold:     parseIntWithDefault("PAYROLL_TX_COUNT_THRESHOLD", engineDefaults.PayrollTxCountThreshold),
			PayrollAmountCVThreshold:    parseFloatWithDefault("PAYROLL_AMOUNT_CV_THRESHOLD", engineDefaults.PayrollAmountCVThreshold),
			PayrollMinPayDates:          parseIntWithDefault("PAYROLL_MIN_PAY_DATES", engineDefaults.PayrollMinPayDates),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if v := os.Getenv("SERVER_READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
		}
		cfg.HTTP.ReadTimeout = d
	}
	if v := os.Getenv("SERVER_WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
		}
		cfg.HTTP.WriteTimeout = d
	}
	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", true)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parseDurationWithDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
