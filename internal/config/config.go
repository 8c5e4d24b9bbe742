package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	SnapshotsDir string `yaml:"snapshots_dir" envconfig:"SNAPSHOTS_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig contains the tunable business parameters of the weekly run.
// Defaults mirror the clinic's operating rules; see the glossary in DESIGN.md.
type PipelineConfig struct {
	VIPThreshold      float64 `yaml:"vip_threshold" envconfig:"VIP_THRESHOLD" validate:"gt=0"`
	VVIPThreshold     float64 `yaml:"vvip_threshold" envconfig:"VVIP_THRESHOLD" validate:"gtfield=VIPThreshold"`
	RecencyWindowDays int     `yaml:"recency_window_days" envconfig:"RECENCY_WINDOW_DAYS" validate:"gt=0"`
	Strategy          string  `yaml:"strategy" envconfig:"STRATEGY" validate:"oneof=cohort quantile"`

	// ReservationFees are deposit amounts that do not count as a patient's
	// first real purchase when a later positive amount exists.
	ReservationFees []float64 `yaml:"reservation_fees" envconfig:"RESERVATION_FEES"`

	// ExcludedNames marks internal/test accounts dropped during merge.
	ExcludedNames []string `yaml:"excluded_names" envconfig:"EXCLUDED_NAMES"`

	// ConsultOnlyStaff lists staff whose consultation-reservation visits are
	// excluded from the ledger.
	ConsultOnlyStaff []string `yaml:"consult_only_staff" envconfig:"CONSULT_ONLY_STAFF"`

	// KPIPurposeAsPercent reports the visit-purpose distribution as
	// percentages of the bucket total instead of raw counts.
	KPIPurposeAsPercent bool `yaml:"kpi_purpose_as_percent" envconfig:"KPI_PURPOSE_AS_PERCENT"`
}

// defaultConfig returns the baseline configuration. File values override
// these; explicit environment variables override both.
func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/pipeline.log",
		},
		Paths: PathsConfig{
			DataDir:      "data",
			ReportsDir:   "data/reports",
			SnapshotsDir: "data/snapshots",
			LogsDir:      "logs",
		},
		Pipeline: PipelineConfig{
			VIPThreshold:        5_000_000,
			VVIPThreshold:       10_000_000,
			RecencyWindowDays:   180,
			Strategy:            "cohort",
			ReservationFees:     []float64{100_000, 350_000},
			KPIPurposeAsPercent: true,
		},
	}
}

// Load builds the configuration in layers: defaults, then the YAML config
// file when present, then explicit CLINIC_* environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Absent variables leave the current value untouched.
	if err := envconfig.Process("CLINIC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration with struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the config file location, overridable via env.
func getConfigFilePath() string {
	if path := os.Getenv("CLINIC_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}
