// Package config provides layered configuration for the ingestion pipeline.
// Priority: defaults < user < project < env. There is no ambient global
// configuration: callers load a Config and pass it into constructors
// explicitly.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all REDLINE configuration consumed by the core.
type Config struct {
	Version int `yaml:"version"`

	Ingestion IngestionConfig `yaml:"ingestion"`
	Storage   StorageConfig   `yaml:"storage"`
}

// IngestionConfig controls the batched loader.
type IngestionConfig struct {
	BatchSize           int    `yaml:"batch_size"`
	InputFormat         string `yaml:"input_format"` // txt | csv | json | parquet | feather | duckdb
	ValidateStooqHeader *bool  `yaml:"validate_stooq_header"`
	CleanPolicy         string `yaml:"clean_policy"` // prices | timestamp_close
	Workers             int    `yaml:"workers"`
}

// StorageConfig controls the persistent store.
type StorageConfig struct {
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	validate := true

	return &Config{
		Version: 1,
		Ingestion: IngestionConfig{
			BatchSize:           100,
			InputFormat:         "txt",
			ValidateStooqHeader: &validate,
			CleanPolicy:         "prices",
			Workers:             1,
		},
		Storage: StorageConfig{
			Database: filepath.Join(homeDir, ".redline", "redline_data.duckdb"),
			Table:    "tickers_data",
		},
	}
}

// ValidateHeader returns the header-validation flag with its default.
func (c *IngestionConfig) ValidateHeader() bool {
	if c.ValidateStooqHeader == nil {
		return true
	}
	return *c.ValidateStooqHeader
}

// Manager handles configuration loading and merging.
type Manager struct {
	config *Config
	paths  []string // paths that were loaded
}

// NewManager creates a manager holding the defaults.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load loads configuration from all sources in priority order. Missing
// files are skipped; unreadable ones surface.
func (m *Manager) Load() error {
	m.config = Default()

	for _, path := range m.configPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			continue
		}
		m.paths = append(m.paths, path)
	}

	m.loadEnv()
	return nil
}

// configPaths returns candidate config files in priority order.
func (m *Manager) configPaths() []string {
	var paths []string

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".redline", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".redline.yaml"))
	}
	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}
	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into the config.
func (m *Manager) merge(src *Config) {
	if src.Ingestion.BatchSize != 0 {
		m.config.Ingestion.BatchSize = src.Ingestion.BatchSize
	}
	if src.Ingestion.InputFormat != "" {
		m.config.Ingestion.InputFormat = src.Ingestion.InputFormat
	}
	if src.Ingestion.ValidateStooqHeader != nil {
		m.config.Ingestion.ValidateStooqHeader = src.Ingestion.ValidateStooqHeader
	}
	if src.Ingestion.CleanPolicy != "" {
		m.config.Ingestion.CleanPolicy = src.Ingestion.CleanPolicy
	}
	if src.Ingestion.Workers != 0 {
		m.config.Ingestion.Workers = src.Ingestion.Workers
	}

	if src.Storage.Database != "" {
		m.config.Storage.Database = src.Storage.Database
	}
	if src.Storage.Table != "" {
		m.config.Storage.Table = src.Storage.Table
	}
}

// loadEnv applies REDLINE_* environment overrides.
func (m *Manager) loadEnv() {
	if v := os.Getenv("REDLINE_DATABASE"); v != "" {
		m.config.Storage.Database = v
	}
	if v := os.Getenv("REDLINE_TABLE"); v != "" {
		m.config.Storage.Table = v
	}
	if v := os.Getenv("REDLINE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.config.Ingestion.BatchSize = n
		}
	}
	if v := os.Getenv("REDLINE_INPUT_FORMAT"); v != "" {
		m.config.Ingestion.InputFormat = v
	}
	if v := os.Getenv("REDLINE_CLEAN_POLICY"); v != "" {
		m.config.Ingestion.CleanPolicy = v
	}
	if v := os.Getenv("REDLINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.config.Ingestion.Workers = n
		}
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// Paths returns the config files that were loaded.
func (m *Manager) Paths() []string {
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".redline")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}
