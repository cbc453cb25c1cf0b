package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultRetentionDays is the retention window applied to new records
// when the config does not set one.
const DefaultRetentionDays = 84

// Config represents the main configuration for dm, the Go rendition
// of the historical mongodb.cnf file.
type Config struct {
	Store StoreConfig `toml:"store"`
	DMP   DMPConfig   `toml:"dmp"`
}

// StoreConfig configures the entry store backend.
// This uses a tagged union pattern - the Type field determines which
// other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "mongo", "sqlite" or "memory"

	// Mongo-specific fields (only used when Type == "mongo")
	Host     string `toml:"host,omitempty"`
	Port     int    `toml:"port,omitempty"`
	User     string `toml:"user,omitempty"`
	Password string `toml:"password,omitempty"`
	Database string `toml:"database,omitempty"`

	// SQLite-specific fields (only used when Type == "sqlite")
	DataDir string `toml:"data_dir,omitempty"`
}

// DMPConfig holds catalog-level settings.
type DMPConfig struct {
	FTPRoot       string `toml:"ftp_root,omitempty"` // base URL for public file listings
	RetentionDays int    `toml:"retention_days"`     // window for expiration_date; default 84
	LogDir        string `toml:"log_dir,omitempty"`
}

// NewConfig creates a Config with default values rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		Store: StoreConfig{
			Type:     "mongo",
			Host:     "localhost",
			Port:     27017,
			Database: "dmp",
			DataDir:  filepath.Join(baseDir, "db"),
		},
		DMP: DMPConfig{
			RetentionDays: DefaultRetentionDays,
			LogDir:        filepath.Join(baseDir, "log"),
		},
	}
}

// Retention returns the retention window as a duration.
func (c *Config) Retention() time.Duration {
	days := c.DMP.RetentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read parses a TOML config from r.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DMP.RetentionDays == 0 {
		cfg.DMP.RetentionDays = DefaultRetentionDays
	}
	return cfg, nil
}

// Write renders the config as TOML to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ReadFromFile reads the config at path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	return m.Read(f)
}

// Init writes cfg to path, refusing to overwrite an existing file.
// The file is created with owner-only permissions because it may hold
// store credentials.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return err
	}
	return nil
}
