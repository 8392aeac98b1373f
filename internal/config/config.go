// Package config holds daybook's settings and loads them from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "daybook.yaml"

// Config is the complete daybook configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Report   ReportConfig   `yaml:"report"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig describes the layout of input tables.
type InputConfig struct {
	TimeColumn      string `yaml:"time_column"`
	EventColumn     string `yaml:"event_column"`
	DetailColumn    string `yaml:"detail_column"`
	AttributePrefix string `yaml:"attribute_prefix"`

	// SkipMalformed logs and drops rows with bad timestamps instead of
	// failing the run.
	SkipMalformed bool `yaml:"skip_malformed"`
}

// LookupConfig locates the operation code table.
type LookupConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig controls report generation.
type ReportConfig struct {
	Collapse    bool     `yaml:"collapse"`
	MissingText string   `yaml:"missing_text"`
	From        string   `yaml:"from"`
	To          string   `yaml:"to"`
	Only        []string `yaml:"only,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
}

// OutputConfig selects report sinks. Stdout is used when neither is set.
type OutputConfig struct {
	File      string `yaml:"file"`
	Clipboard bool   `yaml:"clipboard"`
}

// DatabaseConfig configures the optional event database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite", "postgres"}

// ValidLogFormats lists the supported log encodings.
var ValidLogFormats = []string{"console", "json"}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			TimeColumn:   "Time",
			EventColumn:  "Event",
			DetailColumn: "details",
		},
		Lookup: LookupConfig{
			Path: "config.json",
		},
		Report: ReportConfig{
			Collapse:    true,
			MissingText: "[Not Provided]",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Table:  "events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies DAYBOOK_* environment variables.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"DAYBOOK_TIME_COLUMN":   &c.Input.TimeColumn,
		"DAYBOOK_EVENT_COLUMN":  &c.Input.EventColumn,
		"DAYBOOK_DETAIL_COLUMN": &c.Input.DetailColumn,
		"DAYBOOK_LOOKUP":        &c.Lookup.Path,
		"DAYBOOK_MISSING_TEXT":  &c.Report.MissingText,
		"DAYBOOK_DB_DRIVER":     &c.Database.Driver,
		"DAYBOOK_DB":            &c.Database.DSN,
		"DAYBOOK_DB_TABLE":      &c.Database.Table,
		"DAYBOOK_LOG_LEVEL":     &c.Logging.Level,
		"DAYBOOK_LOG_FORMAT":    &c.Logging.Format,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"DAYBOOK_SKIP_MALFORMED": &c.Input.SkipMalformed,
		"DAYBOOK_COLLAPSE":       &c.Report.Collapse,
	}
	for name, dst := range bools {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", name, v, err)
		}
		*dst = b
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.TimeColumn) == "" {
		return fmt.Errorf("input.time_column is required")
	}
	if strings.TrimSpace(c.Input.EventColumn) == "" {
		return fmt.Errorf("input.event_column is required")
	}
	if strings.EqualFold(strings.TrimSpace(c.Input.TimeColumn), strings.TrimSpace(c.Input.EventColumn)) {
		return fmt.Errorf("input.time_column and input.event_column must differ")
	}
	if c.Lookup.Path == "" {
		return fmt.Errorf("lookup.path is required")
	}
	if !contains(ValidDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
