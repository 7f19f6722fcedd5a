package rewrite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML pipeline configuration.
//
// Example:
//
//	fixers:
//	  - multiadd
//	  - logsumexp
//	max_passes: 64
//
// An empty fixer list means "use the default pipeline"; resolution of
// names to Fixer values is the registry's concern, not this package's.
type Config struct {
	Fixers    []string `yaml:"fixers"`
	MaxPasses int      `yaml:"max_passes"`
}

// ParseConfig parses a YAML pipeline configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	if cfg.MaxPasses < 0 {
		return nil, fmt.Errorf("parse pipeline config: max_passes must not be negative, got %d", cfg.MaxPasses)
	}
	seen := make(map[string]bool, len(cfg.Fixers))
	for _, name := range cfg.Fixers {
		if name == "" {
			return nil, fmt.Errorf("parse pipeline config: empty fixer name")
		}
		if seen[name] {
			return nil, fmt.Errorf("parse pipeline config: duplicate fixer %q", name)
		}
		seen[name] = true
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML pipeline configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	return ParseConfig(data)
}
