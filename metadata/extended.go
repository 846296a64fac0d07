package metadata

import (
	"fmt"
	"os"

	"github.com/camden-git/dancereg/validation"
	"gopkg.in/yaml.v3"
)

// ExtendedConfig replaces parts of a descriptor. Any empty section keeps the built-in one.
//
//	labels:
//	  firstname: {category: users, message: Given Name}
//	scenarios:
//	  registration: [firstname, lastname, email]
//	rules:
//	  - {attributes: [firstname], validator: required}
type ExtendedConfig struct {
	Labels    map[string]LabelSource `yaml:"labels"`
	Scenarios validation.Scenarios   `yaml:"scenarios"`
	Rules     []validation.Rule      `yaml:"rules"`
}

// LoadExtendedConfig reads an extended config file. An empty path means no override.
func LoadExtendedConfig(path string) (*ExtendedConfig, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extended config '%s': %w", path, err)
	}
	return ParseExtendedConfig(raw)
}

// ParseExtendedConfig decodes YAML and checks that every rule names a validator.
func ParseExtendedConfig(raw []byte) (*ExtendedConfig, error) {
	var cfg ExtendedConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse extended config: %w", err)
	}
	for i, r := range cfg.Rules {
		if r.Validator == "" || len(r.Attributes) == 0 {
			return nil, fmt.Errorf("extended config rule %d needs attributes and a validator", i)
		}
	}
	return &cfg, nil
}
