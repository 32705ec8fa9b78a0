package perception

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a perception engine.
type Config struct {
	Registry  RegistryConfig  `json:"registry" yaml:"registry"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Sensors   []*SensorConfig `json:"sensors,omitempty" yaml:"sensors,omitempty"`
}

// SchedulerConfig configures dispatch behavior.
type SchedulerConfig struct {
	// Mode is "immediate" (default) or "deferred".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	// Workers caps the deferred worker pool; zero sizes it to the CPU count.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Validate checks the scheduler configuration.
func (c SchedulerConfig) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// SensorConfig declares one sensor by type name plus loosely typed
// parameters, resolved by the matching factory.
type SensorConfig struct {
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	Enabled        bool           `json:"enabled" yaml:"enabled"`
	UpdateInterval float64        `json:"update_interval,omitempty" yaml:"update_interval,omitempty"`
	Parameters     map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Validate checks the sensor declaration.
func (c *SensorConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("sensor name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("sensor %s: type is required", c.Name)
	}
	return nil
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Sensors))
	for _, sc := range c.Sensors {
		if err := sc.Validate(); err != nil {
			return err
		}
		if _, dup := seen[sc.Name]; dup {
			return fmt.Errorf("duplicate sensor name: %s", sc.Name)
		}
		seen[sc.Name] = struct{}{}
	}
	return nil
}

// ParseConfig unmarshals a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse perception config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid perception config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read perception config: %w", err)
	}
	return ParseConfig(data)
}

// Parameter extraction helpers for factory-built sensors.

func getFloatParameter(params map[string]any, key string, defaultValue float64) (float64, bool) {
	if params == nil {
		return defaultValue, false
	}
	if value, exists := params[key]; exists {
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}
	return defaultValue, false
}

func getIntParameter(params map[string]any, key string, defaultValue int) (int, bool) {
	if params == nil {
		return defaultValue, false
	}
	if value, exists := params[key]; exists {
		switch v := value.(type) {
		case int:
			return v, true
		case float64:
			return int(v), true
		}
	}
	return defaultValue, false
}

func getBoolParameter(params map[string]any, key string, defaultValue bool) (bool, bool) {
	if params == nil {
		return defaultValue, false
	}
	if value, exists := params[key]; exists {
		if b, ok := value.(bool); ok {
			return b, true
		}
	}
	return defaultValue, false
}

func getUint32SliceParameter(params map[string]any, key string) ([]uint32, bool) {
	if params == nil {
		return nil, false
	}
	value, exists := params[key]
	if !exists {
		return nil, false
	}
	slice, ok := value.([]any)
	if !ok {
		return nil, false
	}
	result := make([]uint32, 0, len(slice))
	for _, item := range slice {
		switch v := item.(type) {
		case int:
			result = append(result, uint32(v))
		case float64:
			result = append(result, uint32(v))
		}
	}
	return result, true
}
