package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitPolicy is one row of the per-operation policy table.
type RateLimitPolicy struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

type rateLimitPolicyFile struct {
	Operations map[string]RateLimitPolicy `yaml:"operations"`
}

// LoadRateLimitPolicies reads the YAML policy table. An empty path means
// "use the built-in defaults" and returns a nil map.
func LoadRateLimitPolicies(path string) (map[string]RateLimitPolicy, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var parsed rateLimitPolicyFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	for operation, policy := range parsed.Operations {
		if policy.Limit <= 0 {
			return nil, fmt.Errorf("policy %q: limit must be positive", operation)
		}
		if policy.WindowSeconds <= 0 {
			return nil, fmt.Errorf("policy %q: window_seconds must be positive", operation)
		}
	}
	return parsed.Operations, nil
}

func (p RateLimitPolicy) Window() time.Duration {
	return time.Duration(p.WindowSeconds) * time.Second
}
