// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aristath/kalshigym/internal/modules/environment"
	"github.com/aristath/kalshigym/internal/rollout"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the dashboard database and rollouts (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// DashboardURL is where evaluation runs publish updates; empty disables publishing
	DashboardURL     string
	DashboardTimeout time.Duration
	// HistoryRetention is the number of portfolio history points kept by the retention job
	HistoryRetention int

	// PriceCSV is the default price history file for evaluation
	PriceCSV string

	Environment EnvironmentSettings

	RolloutDir string
	S3         rollout.S3Config
}

// EnvironmentSettings are the trading environment knobs read from ENV_* variables
type EnvironmentSettings struct {
	InitialBalance  float64
	LookbackWindow  int
	RewardStrategy  string
	RiskFloor       float64
	FundsPolicy     string
	RejectPenalty   float64
	ContractHorizon int
	MaxEpisodeSteps int
	Seed            uint64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if it doesn't)
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	defaults := environment.DefaultConfig()
	cfg := &Config{
		DataDir:          absDataDir,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvAsInt("PORT", 5001),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		DashboardURL:     strings.TrimRight(getEnv("DASHBOARD_URL", ""), "/"),
		DashboardTimeout: time.Duration(getEnvAsInt("DASHBOARD_TIMEOUT_MS", 2000)) * time.Millisecond,
		HistoryRetention: getEnvAsInt("HISTORY_RETENTION", 1000),
		PriceCSV:         getEnv("PRICE_CSV", ""),
		Environment: EnvironmentSettings{
			InitialBalance:  getEnvAsFloat("ENV_INITIAL_BALANCE", defaults.InitialBalance),
			LookbackWindow:  getEnvAsInt("ENV_LOOKBACK_WINDOW", defaults.LookbackWindow),
			RewardStrategy:  getEnv("ENV_REWARD_STRATEGY", string(defaults.Reward)),
			RiskFloor:       getEnvAsFloat("ENV_RISK_FLOOR", defaults.RiskFloor),
			FundsPolicy:     getEnv("ENV_FUNDS_POLICY", string(defaults.FundsPolicy)),
			RejectPenalty:   getEnvAsFloat("ENV_REJECT_PENALTY", defaults.RejectPenalty),
			ContractHorizon: getEnvAsInt("ENV_CONTRACT_HORIZON", defaults.ContractHorizon),
			MaxEpisodeSteps: getEnvAsInt("ENV_MAX_EPISODE_STEPS", defaults.MaxEpisodeSteps),
			Seed:            getEnvAsUint64("ENV_SEED", defaults.Seed),
		},
		RolloutDir: getEnv("ROLLOUT_DIR", filepath.Join(absDataDir, "rollouts")),
		S3: rollout.S3Config{
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			Region:         getEnv("S3_REGION", ""),
			Bucket:         getEnv("S3_BUCKET", ""),
			AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("S3_SECRET_KEY", ""),
			UseSSL:         getEnvAsBool("S3_USE_SSL", true),
			ForcePathStyle: getEnvAsBool("S3_FORCE_PATH_STYLE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("history retention must be positive, got %d", c.HistoryRetention)
	}
	if c.DashboardTimeout <= 0 {
		return fmt.Errorf("dashboard timeout must be positive, got %s", c.DashboardTimeout)
	}
	if err := c.EnvironmentConfig().Validate(); err != nil {
		return fmt.Errorf("invalid environment settings: %w", err)
	}
	return nil
}

// EnvironmentConfig maps the ENV_* settings onto an environment.Config
func (c *Config) EnvironmentConfig() environment.Config {
	cfg := environment.DefaultConfig()
	s := c.Environment

	cfg.InitialBalance = s.InitialBalance
	cfg.LookbackWindow = s.LookbackWindow
	cfg.Reward = environment.RewardKind(strings.ToLower(s.RewardStrategy))
	cfg.RiskFloor = s.RiskFloor
	cfg.FundsPolicy = environment.FundsPolicy(strings.ToLower(s.FundsPolicy))
	cfg.RejectPenalty = s.RejectPenalty
	cfg.ContractHorizon = s.ContractHorizon
	cfg.MaxEpisodeSteps = s.MaxEpisodeSteps
	cfg.Seed = s.Seed
	return cfg
}

// DatabasePath returns the dashboard sqlite file
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "dashboard.db")
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
