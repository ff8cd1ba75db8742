package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"secrules/internal/logging"
	"secrules/pkg/fileops"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "secrules" // application name used for config and data directories

// AppVersion is the release version reported by the CLI and the MCP server.
const AppVersion = "0.1.0"

// Config holds user configuration for secrules.
type Config struct {
	// StorageDir is the directory where secrules keeps its working data:
	// a materialized copy of the rule corpus and any upstream checkouts.
	StorageDir string `yaml:"storage_dir"`

	// Locale is the preferred writeup language ("en" or "es").
	// Rules missing a translation fall back to English.
	Locale string `yaml:"locale"`

	// DemoTools registers the intentionally vulnerable example toolset
	// on the MCP server. Off unless explicitly enabled.
	DemoTools bool `yaml:"demo_tools"`

	// InsecureErrors forwards full handler error detail to MCP clients
	// instead of the redacted default. Exists to demonstrate what
	// insecure error handling looks like in practice.
	InsecureErrors bool `yaml:"insecure_errors"`

	// Upstream optionally points at a git repository holding a rule
	// corpus that replaces the embedded one.
	Upstream UpstreamConfig `yaml:"upstream,omitempty"`

	Version  string `yaml:"version"`   // Track config version
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// UpstreamConfig identifies a git-hosted rule corpus.
type UpstreamConfig struct {
	URL    string `yaml:"url,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// DefaultStorageDir returns the platform default data directory for secrules.
func DefaultStorageDir() string {
	return filepath.Join(xdg.DataHome, APP_NAME)
}

// Load loads the config from the standard location
// If no config exists, it returns an error indicating first run is needed
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		return nil, fmt.Errorf("no configuration found, run 'secrules init' first")
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Locale == "" {
		cfg.Locale = "en"
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	// Check primary location first
	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// IsFirstRun checks if this is the first time the application is run
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	path := DefaultStorageDir()
	logging.Debug("Using default storage directory", "path", path)

	return Config{
		StorageDir:     path,
		Locale:         "en",
		DemoTools:      false,
		InsecureErrors: false,
		Version:        "1.0",
		InitTime:       0, // Will be set during first save
	}
}

// CorpusDir returns the directory holding the materialized rule corpus.
func (c *Config) CorpusDir() string {
	return filepath.Join(fileops.ExpandPath(c.StorageDir), "corpus")
}

// UpstreamDir returns the local checkout path for the upstream corpus repository.
func (c *Config) UpstreamDir() string {
	return filepath.Join(fileops.ExpandPath(c.StorageDir), "upstream")
}

// HasUpstream reports whether an upstream corpus repository is configured.
func (c *Config) HasUpstream() bool {
	return c.Upstream.URL != ""
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Set init time if this is the first save
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SetLocale updates the preferred locale and saves the config
func (c *Config) SetLocale(locale string) error {
	c.Locale = locale
	return c.Save()
}

// CreateNewConfig initializes a new configuration with the specified storage
// directory and locale, creating the storage directory in the process.
func CreateNewConfig(storageDir, locale string) (*Config, error) {
	cfg := DefaultConfig()
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}
	if locale != "" {
		cfg.Locale = locale
	}

	// Validate and create the storage directory
	if err := fileops.ValidateStoragePath(cfg.StorageDir); err != nil {
		return nil, fmt.Errorf("invalid storage directory: %w", err)
	}
	if err := fileops.ValidateDirectoryWritable(cfg.StorageDir); err != nil {
		return nil, fmt.Errorf("storage directory not usable: %w", err)
	}

	// Save the config to the standard location
	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration created successfully", "storage_dir", cfg.StorageDir)
	return &cfg, nil
}

// UpdateStorageDir updates the storage directory, ensures it exists, and saves the config
func UpdateStorageDir(cfg *Config, newStorageDir string) error {
	if err := fileops.ValidateStoragePath(newStorageDir); err != nil {
		return fmt.Errorf("invalid storage directory: %w", err)
	}
	if err := fileops.ValidateDirectoryWritable(newStorageDir); err != nil {
		return fmt.Errorf("storage directory not usable: %w", err)
	}

	cfg.StorageDir = newStorageDir

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration updated successfully", "storage_dir", cfg.StorageDir)
	return nil
}
