// Package config loads converter settings from a YAML file, merged over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AuditConfig controls the SQLite audit database.
type AuditConfig struct {
	// Enabled turns batch recording on.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the audit database file.
	DBPath string `yaml:"db_path"`
}

// Config holds the converter configuration options.
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LimitsPath is the external limits table. Missing file falls back to
	// built-in defaults.
	LimitsPath string `yaml:"limits_path"`

	// TesterMapPath is the tester serial to asset number table.
	TesterMapPath string `yaml:"tester_map_path"`

	// ResultsPath is the shared interface transactions CSV rows are
	// appended to.
	ResultsPath string `yaml:"results_path"`

	// OutputDir is where error reports are written. Empty means the
	// results file's directory.
	OutputDir string `yaml:"output_dir"`

	// Audit contains audit database configuration.
	Audit AuditConfig `yaml:"audit"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		LimitsPath:    "EST_Limits_Summary.csv",
		TesterMapPath: "EST_Testers.csv",
		ResultsPath:   "InterfaceTransactions.csv",
		OutputDir:     "",
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  filepath.Join(".estconvert", "estconvert.db"),
		},
	}
}

// LoadConfig loads configuration from path. A missing file returns the
// defaults without error; a malformed file is an error. Values present in
// the file override defaults, absent values keep them.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LimitsPath != "" {
		cfg.LimitsPath = fileCfg.LimitsPath
	}
	if fileCfg.TesterMapPath != "" {
		cfg.TesterMapPath = fileCfg.TesterMapPath
	}
	if fileCfg.ResultsPath != "" {
		cfg.ResultsPath = fileCfg.ResultsPath
	}
	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}

	// The audit section merges field-wise so "audit: {enabled: false}"
	// does not wipe the default db_path.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if auditSection, exists := rawMap["audit"]; exists && auditSection != nil {
			auditMap, _ := auditSection.(map[string]interface{})
			if _, exists := auditMap["enabled"]; exists {
				cfg.Audit.Enabled = fileCfg.Audit.Enabled
			}
			if _, exists := auditMap["db_path"]; exists {
				cfg.Audit.DBPath = fileCfg.Audit.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads .estconvert/config.yaml from the given directory,
// returning defaults when it does not exist.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".estconvert", "config.yaml"))
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.ResultsPath == "" {
		return fmt.Errorf("results_path cannot be empty")
	}
	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return fmt.Errorf("audit.db_path cannot be empty when audit is enabled")
	}
	return nil
}

// ErrorReportDir returns the directory error reports are written to.
func (c *Config) ErrorReportDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	dir := filepath.Dir(c.ResultsPath)
	if dir == "" {
		return "."
	}
	return dir
}
