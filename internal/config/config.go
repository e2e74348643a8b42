// ABOUTME: Configuration management for the chainsights CLI
// ABOUTME: Handles persisted runtime defaults (timeouts, depth bound, output format) plus discovery
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ConfigFileName     = "chainsights-config.json"
	ConfigDirName      = ".chainsights"
	DefaultConfigPerms = 0644
)

// ConfigOpts configures how configuration is loaded and managed.
type ConfigOpts struct {
	// Override config file path (default: auto-discover)
	ConfigPath string

	// Whether to create default config if none exists
	CreateIfMissing bool

	// Override working directory for auto-discovery
	WorkingDir string
}

// DefaultConfigOpts returns default configuration loading options.
func DefaultConfigOpts() *ConfigOpts {
	return &ConfigOpts{
		CreateIfMissing: true,
	}
}

// WithConfigPath sets a custom config file path.
func (opts *ConfigOpts) WithConfigPath(path string) *ConfigOpts {
	opts.ConfigPath = path
	return opts
}

// WithWorkingDir sets a custom working directory for auto-discovery.
func (opts *ConfigOpts) WithWorkingDir(dir string) *ConfigOpts {
	opts.WorkingDir = dir
	return opts
}

// WithCreateIfMissing controls whether to create default config when missing.
func (opts *ConfigOpts) WithCreateIfMissing(create bool) *ConfigOpts {
	opts.CreateIfMissing = create
	return opts
}

// ConfigManager handles configuration loading and management.
type ConfigManager struct {
	opts *ConfigOpts
}

// NewConfigManager creates a configuration manager with the given options.
func NewConfigManager(opts *ConfigOpts) *ConfigManager {
	if opts == nil {
		opts = DefaultConfigOpts()
	}
	return &ConfigManager{opts: opts}
}

// Config holds the persisted runtime defaults for every chainsights
// invocation: the HTTP timeout, DNS server and traversal bounds described
// in spec §5, plus CLI output preferences. No DNS timeout is configured here.
type Config struct {
	Version string `json:"version"`

	Traversal TraversalConfig `json:"traversal"`
	Network   NetworkConfig   `json:"network"`
	Output    OutputConfig    `json:"output"`
}

// TraversalConfig bounds the catalog/component/release walk.
type TraversalConfig struct {
	MaxDepth         int   `json:"max_depth"`
	MaxArtifactBytes int64 `json:"max_artifact_bytes"`
}

// NetworkConfig governs the single shared HTTP client and DNS resolver
// used for the lifetime of one invocation (spec §5).
type NetworkConfig struct {
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds"`
	DNSServer          string `json:"dns_server"`
}

// OutputConfig controls how aggregated results are printed.
type OutputConfig struct {
	Format  string `json:"format"` // "json" only today; reserved for future formats
	Verbose bool   `json:"verbose"`
	Color   bool   `json:"color"`
}

// DefaultConfig returns the built-in defaults applied when no config
// file is found and CreateIfMissing is false, or as the seed written
// for a newly discovered config path.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Traversal: TraversalConfig{
			MaxDepth:         10,
			MaxArtifactBytes: 64 * 1024 * 1024,
		},
		Network: NetworkConfig{
			HTTPTimeoutSeconds: 30,
			DNSServer:          "1.1.1.1:53",
		},
		Output: OutputConfig{
			Format:  "json",
			Verbose: false,
			Color:   true,
		},
	}
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}

	if c.Output.Format != "json" {
		return fmt.Errorf("invalid output format: %s (must be 'json')", c.Output.Format)
	}

	if c.Traversal.MaxDepth <= 0 {
		return fmt.Errorf("traversal.max_depth must be positive")
	}

	if c.Traversal.MaxArtifactBytes <= 0 {
		return fmt.Errorf("traversal.max_artifact_bytes must be positive")
	}

	if c.Network.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("network.http_timeout_seconds must be positive")
	}

	return nil
}

// FindConfigDirectory walks up from startPath looking for a .chainsights
// directory, falling back to the user's home directory.
func FindConfigDirectory(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentPath := absPath
	for {
		candidate := filepath.Join(currentPath, ConfigDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			break
		}
		currentPath = parentPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no %s directory found and failed to resolve home directory: %w", ConfigDirName, err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

func GetConfigPath(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func SaveConfig(config *Config, configPath string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, DefaultConfigPerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadConfig loads configuration using the manager's configured options.
func (cm *ConfigManager) LoadConfig() (*Config, string, error) {
	if cm.opts.ConfigPath != "" {
		if _, statErr := os.Stat(cm.opts.ConfigPath); os.IsNotExist(statErr) {
			if !cm.opts.CreateIfMissing {
				return nil, "", fmt.Errorf("config file not found: %s", cm.opts.ConfigPath)
			}
			defaultConfig := DefaultConfig()
			if err := SaveConfig(defaultConfig, cm.opts.ConfigPath); err != nil {
				return nil, "", fmt.Errorf("failed to create default config: %w", err)
			}
			return defaultConfig, cm.opts.ConfigPath, nil
		}
		config, err := LoadConfig(cm.opts.ConfigPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", cm.opts.ConfigPath, err)
		}
		return config, cm.opts.ConfigPath, nil
	}

	wd := cm.opts.WorkingDir
	if wd == "" {
		var err error
		wd, err = os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	configDir, err := FindConfigDirectory(wd)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find %s directory: %w", ConfigDirName, err)
	}

	configPath := GetConfigPath(configDir)
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) && cm.opts.CreateIfMissing {
		if err := SaveConfig(config, configPath); err != nil {
			return nil, "", fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return config, configPath, nil
}

// LoadFromCurrentDirectory loads configuration using default discovery
// options, for callers that don't need custom ConfigOpts.
func LoadFromCurrentDirectory() (*Config, string, error) {
	manager := NewConfigManager(DefaultConfigOpts())
	return manager.LoadConfig()
}
