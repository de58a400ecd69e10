package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Env variables recognized as overrides for the service section. They
// win over file values so the tool works against throwaway environments
// without editing the config file.
const (
	EnvEndpoint = "SEARCH_ENDPOINT"
	EnvAPIKey   = "SEARCH_API_KEY"
)

// Config holds the application configuration
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Index   IndexConfig   `yaml:"index,omitempty"`
	Indexer IndexerConfig `yaml:"indexer,omitempty"`
	Display DisplayConfig `yaml:"display,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// ServiceConfig holds search service connection configuration
type ServiceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	APIVersion     string `yaml:"api_version,omitempty"`     // default 2024-07-01
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // per-request timeout
}

// Timeout returns the per-request timeout as a duration.
func (s ServiceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// IndexConfig holds inspection defaults for the target index
type IndexConfig struct {
	Name        string `yaml:"name,omitempty"`
	VectorField string `yaml:"vector_field,omitempty"` // field probed by the vector query
	ProbeText   string `yaml:"probe_text,omitempty"`   // literal text for the similarity probe
	ProbeSelect string `yaml:"probe_select,omitempty"` // fields selected in probe results
	SampleTop   int    `yaml:"sample_top,omitempty"`   // sample documents to fetch
	ProbeK      int    `yaml:"probe_k,omitempty"`      // nearest neighbors to request
}

// IndexerConfig holds the default indexer to report on
type IndexerConfig struct {
	Name string `yaml:"name,omitempty"`
}

// DisplayConfig holds report rendering options
type DisplayConfig struct {
	MaxFieldChars int      `yaml:"max_field_chars,omitempty"` // field value display bound
	MaxItemChars  int      `yaml:"max_item_chars,omitempty"`  // sequence first-item preview bound
	Fields        []string `yaml:"fields,omitempty"`          // glob patterns limiting displayed fields
}

// HistoryConfig holds local snapshot history configuration
type HistoryConfig struct {
	// Path to the SQLite snapshot database.
	// If empty, uses ~/.idxdiag/data/snapshots.db
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Load loads configuration from the default config file
// Default location: ~/.idxdiag/config/idxdiag.yaml
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".idxdiag", "config", "idxdiag.yaml")
	return LoadFromFile(configPath)
}

// LoadFromFile loads configuration from a specific file. Environment
// overrides are applied after parsing; when the file is absent but both
// SEARCH_ENDPOINT and SEARCH_API_KEY are set, an env-only config is
// returned instead of a not-found error.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		if os.Getenv(EnvEndpoint) == "" || os.Getenv(EnvAPIKey) == "" {
			homeDir, _ := os.UserHomeDir()
			defaultPath := filepath.Join(homeDir, ".idxdiag", "config", "idxdiag.yaml")
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Export %s and %s to run without a config file",
		e.RequestedPath, e.DefaultPath, EnvEndpoint, EnvAPIKey)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// applyEnvOverrides lets the environment win over file values for the
// service connection.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Service.Endpoint = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Service.APIKey = v
	}
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() error {
	if c.Service.APIVersion == "" {
		c.Service.APIVersion = "2024-07-01"
	}
	if c.Service.TimeoutSeconds == 0 {
		c.Service.TimeoutSeconds = 20
	}

	if c.Index.Name == "" {
		c.Index.Name = "idx-score-operatorsupport"
	}
	if c.Index.VectorField == "" {
		c.Index.VectorField = "content_vector"
	}
	if c.Index.ProbeText == "" {
		c.Index.ProbeText = "NCEMS integration requirements"
	}
	if c.Index.ProbeSelect == "" {
		c.Index.ProbeSelect = "title,source_url"
	}
	if c.Index.SampleTop == 0 {
		c.Index.SampleTop = 3
	}
	if c.Index.ProbeK == 0 {
		c.Index.ProbeK = 3
	}

	if c.Indexer.Name == "" {
		c.Indexer.Name = "pp-dev-navi-bki-code-ix"
	}

	if c.Display.MaxFieldChars == 0 {
		c.Display.MaxFieldChars = 200
	}
	if c.Display.MaxItemChars == 0 {
		c.Display.MaxItemChars = 100
	}

	if c.History.Path != "" {
		c.History.Path = expandPath(c.History.Path)
	}
	if c.History.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.History.Path = filepath.Join(homeDir, ".idxdiag", "data", "snapshots.db")
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Service.Endpoint == "" {
		return fmt.Errorf("service endpoint is required (set service.endpoint or %s)", EnvEndpoint)
	}
	if c.Service.APIKey == "" {
		return fmt.Errorf("service api key is required (set service.api_key or %s)", EnvAPIKey)
	}
	if c.Service.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got: %d", c.Service.TimeoutSeconds)
	}
	if c.Index.SampleTop < 1 {
		return fmt.Errorf("sample_top must be at least 1, got: %d", c.Index.SampleTop)
	}
	if c.Index.ProbeK < 1 {
		return fmt.Errorf("probe_k must be at least 1, got: %d", c.Index.ProbeK)
	}
	return nil
}

const defaultConfigTemplate = `# idxdiag Configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.idxdiag/config/idxdiag.yaml

service:
  # Search service endpoint and query key (required).
  # Both can be overridden by SEARCH_ENDPOINT / SEARCH_API_KEY.
  endpoint: https://your-service.search.example.net
  api_key: your-search-api-key
  api_version: "2024-07-01"
  timeout_seconds: 20

index:
  name: idx-score-operatorsupport
  vector_field: content_vector
  probe_text: NCEMS integration requirements
  sample_top: 3
  probe_k: 3

indexer:
  name: pp-dev-navi-bki-code-ix

# display:
#   max_field_chars: 200
#   max_item_chars: 100
#   fields: ["title", "content*"]

# history:
#   path: ~/.idxdiag/data/snapshots.db
#   disabled: false
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
