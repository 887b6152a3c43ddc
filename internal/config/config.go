package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for the search tuning constants. Batch size and report interval
// carry no derivation beyond measured-good values; both stay configurable.
const (
	DefaultPrefix         = "weimeityy"
	DefaultDifficulty     = 6
	DefaultBatchSize      = 100_000
	DefaultReportInterval = time.Second
)

// Errors
var (
	ErrNegativeDifficulty = errors.New("difficulty must be a non-negative integer")
	ErrNoWorkers          = errors.New("workers must be at least 1")
	ErrBadBatchSize       = errors.New("batch size must be at least 1")
	ErrBadReportInterval  = errors.New("report interval must be positive")
)

// Config holds the application configuration. It is immutable once validated
// and shared read-only by all workers.
type Config struct {
	Prefix         string        `mapstructure:"prefix"`
	Difficulty     int           `mapstructure:"difficulty"`
	Workers        int           `mapstructure:"workers"`
	BatchSize      int           `mapstructure:"batch-size"`
	ReportInterval time.Duration `mapstructure:"report-interval"`
	Verbose        bool          `mapstructure:"verbose"`
	LogFile        string        `mapstructure:"log-file"`
	ConfigFile     string        `mapstructure:"config"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Prefix:         DefaultPrefix,
		Difficulty:     DefaultDifficulty,
		Workers:        runtime.NumCPU(),
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultReportInterval,
	}
}

// Load resolves the configuration from defaults, an optional YAML config
// file, and command-line flags, in increasing order of precedence. Flags not
// set on the command line fall back to the file value, then the default.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("prefix", DefaultPrefix)
	v.SetDefault("difficulty", DefaultDifficulty)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("batch-size", DefaultBatchSize)
	v.SetDefault("report-interval", DefaultReportInterval)

	if path, err := flags.GetString("config"); err == nil && path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Difficulty < 0 {
		return ErrNegativeDifficulty
	}
	if c.Workers < 1 {
		return ErrNoWorkers
	}
	if c.BatchSize < 1 {
		return ErrBadBatchSize
	}
	if c.ReportInterval <= 0 {
		return ErrBadReportInterval
	}
	return nil
}

// TargetDescription returns a human-readable description of the search goal.
func (c *Config) TargetDescription() string {
	return fmt.Sprintf("%d leading hex zero(s) on sha256(%q + nonce)", c.Difficulty, c.Prefix)
}
