package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete study configuration
type Config struct {
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Split    SplitConfig    `yaml:"split" envconfig:"SPLIT"`
	Impute   ImputeConfig   `yaml:"impute" envconfig:"IMPUTE"`
	Evaluate EvaluateConfig `yaml:"evaluate" envconfig:"EVALUATE"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// DataConfig describes the input dataset and its schema roles
type DataConfig struct {
	InputPath      string   `yaml:"input_path" envconfig:"INPUT_PATH" validate:"required"`
	Delimiter      string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`
	MissingMarker  string   `yaml:"missing_marker" envconfig:"MISSING_MARKER" validate:"required"`
	Columns        int      `yaml:"columns" envconfig:"COLUMNS" validate:"min=2"`
	NumericColumns []string `yaml:"numeric_columns" envconfig:"NUMERIC_COLUMNS"`
	ResponseColumn string   `yaml:"response_column" envconfig:"RESPONSE_COLUMN" validate:"required"`
}

// SplitConfig controls the stratified train/test partition
type SplitConfig struct {
	TrainProportion float64 `yaml:"train_proportion" envconfig:"TRAIN_PROPORTION" validate:"gt=0,lt=1"`
	Seed            int64   `yaml:"seed" envconfig:"SEED"`
}

// ImputeConfig controls the random-forest donor imputation
type ImputeConfig struct {
	Neighbors int   `yaml:"neighbors" envconfig:"NEIGHBORS" validate:"min=1"`
	Trees     int   `yaml:"trees" envconfig:"TREES" validate:"min=1"`
	MaxSweeps int   `yaml:"max_sweeps" envconfig:"MAX_SWEEPS" validate:"min=1"`
	Seed      int64 `yaml:"seed" envconfig:"SEED"`
}

// EvaluateConfig fixes the reporting conventions for derived metrics.
// PositiveClass is explicit: sensitivity is always quoted for this label,
// never for whatever the model library happens to treat as positive.
type EvaluateConfig struct {
	PositiveClass string `yaml:"positive_class" envconfig:"POSITIVE_CLASS" validate:"required"`
}

// ReportConfig controls where and in which formats the report is written
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	CSV       bool   `yaml:"csv" envconfig:"CSV"`
	XLSX      bool   `yaml:"xlsx" envconfig:"XLSX"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the configuration used by the reference study run:
// the 690-record credit screening file, an 80/20 stratified split and
// 5-donor imputation, with "-" designated positive for sensitivity.
func Default() Config {
	return Config{
		Data: DataConfig{
			InputPath:      "data/crx.data",
			Delimiter:      ",",
			MissingMarker:  "?",
			Columns:        16,
			NumericColumns: []string{"A2", "A3", "A8", "A11", "A14", "A15"},
			ResponseColumn: "A16",
		},
		Split: SplitConfig{
			TrainProportion: 0.8,
			Seed:            2468,
		},
		Impute: ImputeConfig{
			Neighbors: 5,
			Trees:     50,
			MaxSweeps: 10,
			Seed:      1357,
		},
		Evaluate: EvaluateConfig{
			PositiveClass: "-",
		},
		Report: ReportConfig{
			OutputDir: "reports",
			CSV:       true,
			XLSX:      true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/creditstudy.log",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides (CREDITSTUDY_ prefix), in that order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	// Environment variables win over the file
	if err := envconfig.Process("CREDITSTUDY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against its declared constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for _, col := range c.Data.NumericColumns {
		if col == c.Data.ResponseColumn {
			return fmt.Errorf("response column %s cannot be listed as numeric", col)
		}
	}
	return nil
}
