package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/idxdiag/internal/config"
)

// LoadConfig reads the YAML config from the given path, or from the
// default location when the path is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample prints a complete YAML configuration example to
// stderr for users creating their first config file.
func PrintConfigExample() {
	homeDir, _ := os.UserHomeDir()
	configPath := fmt.Sprintf("%s/.idxdiag/config/idxdiag.yaml", homeDir)

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Search service connection (required)
service:
  endpoint: https://your-service.search.example.net
  api_key: your-search-api-key
  api_version: "2024-07-01"
  timeout_seconds: 20

# Index inspected by 'idxdiag inspect'
index:
  name: idx-score-operatorsupport
  vector_field: content_vector
  probe_text: NCEMS integration requirements
  sample_top: 3
  probe_k: 3

# Default indexer for 'idxdiag indexer'
indexer:
  name: pp-dev-navi-bki-code-ix

Alternatively, export SEARCH_ENDPOINT and SEARCH_API_KEY to run
without a config file.

Usage:
  1. Create the config file (or export the two variables)
  2. Run: idxdiag inspect
  3. Check an indexer: idxdiag indexer my-indexer
`, configPath)
}
