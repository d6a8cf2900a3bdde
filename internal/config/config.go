package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/samvad-connector/pkg/fixtures"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName            string        `mapstructure:"app_name"`
	Env                string        `mapstructure:"app_env"`
	LogLevel           string        `mapstructure:"log_level"`
	ConnectorsFile     string        `mapstructure:"connectors_file"`
	PublishersFile     string        `mapstructure:"publishers_file"`
	AuditEnabled       bool          `mapstructure:"audit_enabled"`
	UserAgent          string        `mapstructure:"user_agent"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	FixtureMode            string        `mapstructure:"fixture_mode"`
	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	FixtureTTLSeconds      int64         `mapstructure:"fixture_ttl_seconds"`
	FixtureCleanupSeconds  int64         `mapstructure:"fixture_cleanup_interval_seconds"`
	FixtureTTL             time.Duration `mapstructure:"-"`
	FixtureCleanupInterval time.Duration `mapstructure:"-"`
}

// DefaultEnvFile is loaded before the environment is read. Variables already
// set in the environment win.
const DefaultEnvFile = "configs/.env"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom is Load with an explicit dotenv file. A missing file is ignored.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()

	v.SetDefault("app_name", "samvad-connector")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("connectors_file", "./configs/connectors.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("audit_enabled", false)
	v.SetDefault("user_agent", "samvad-connector/1.0")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("fixture_mode", string(fixtures.ModeOff))
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/fixtures.db")
	v.SetDefault("fixture_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("fixture_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	mode, err := fixtures.ParseMode(cfg.FixtureMode)
	if err != nil {
		return nil, fmt.Errorf("invalid fixture_mode: %w", err)
	}
	cfg.FixtureMode = string(mode)

	if cfg.FixtureTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid fixture_ttl_seconds (must be positive seconds)")
	}
	if cfg.FixtureCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid fixture_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.FixtureTTL = time.Duration(cfg.FixtureTTLSeconds) * time.Second
	cfg.FixtureCleanupInterval = time.Duration(cfg.FixtureCleanupSeconds) * time.Second

	return &cfg, nil
}
