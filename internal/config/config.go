package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Recon    ReconConfig    `mapstructure:"recon"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ReconConfig holds matching configuration
type ReconConfig struct {
	AmountTolerance     float64     `mapstructure:"amount_tolerance"`
	MaxEntriesPerUpload int         `mapstructure:"max_entries_per_upload"`
	Fuzzy               FuzzyConfig `mapstructure:"fuzzy"`
}

// FuzzyConfig holds fuzzy suggestion weights and bounds
type FuzzyConfig struct {
	InvoiceWeight  float64 `mapstructure:"invoice_weight"`
	DateWeight     float64 `mapstructure:"date_weight"`
	ValueWeight    float64 `mapstructure:"value_weight"`
	VendorWeight   float64 `mapstructure:"vendor_weight"`
	DateWindowDays int     `mapstructure:"date_window_days"`
	MinScore       int     `mapstructure:"min_score"`
	MaxSuggestions int     `mapstructure:"max_suggestions"`
	MaxCandidates  int     `mapstructure:"max_candidates"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/recon.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Matching defaults: one currency unit of per-component tolerance,
	// invoice-number similarity dominating the fuzzy score
	viper.SetDefault("recon.amount_tolerance", 1.0)
	viper.SetDefault("recon.max_entries_per_upload", 50000)
	viper.SetDefault("recon.fuzzy.invoice_weight", 0.40)
	viper.SetDefault("recon.fuzzy.date_weight", 0.20)
	viper.SetDefault("recon.fuzzy.value_weight", 0.25)
	viper.SetDefault("recon.fuzzy.vendor_weight", 0.15)
	viper.SetDefault("recon.fuzzy.date_window_days", 30)
	viper.SetDefault("recon.fuzzy.min_score", 40)
	viper.SetDefault("recon.fuzzy.max_suggestions", 5)
	viper.SetDefault("recon.fuzzy.max_candidates", 50)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.port", "RECON_SERVER_PORT")
	viper.BindEnv("database.path", "RECON_DATABASE_PATH")
	viper.BindEnv("logger.level", "RECON_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Recon.AmountTolerance < 0 {
		return fmt.Errorf("recon.amount_tolerance cannot be negative")
	}
	if c.Recon.MaxEntriesPerUpload < 0 {
		return fmt.Errorf("recon.max_entries_per_upload cannot be negative")
	}
	return nil
}
