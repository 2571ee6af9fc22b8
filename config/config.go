// Package config loads and watches the worker host's configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/worker-host/errors"
)

// Config is the host process configuration.
type Config struct {
	// Unstable opts the session in to unstable features, including the
	// privileged worker namespace.
	Unstable bool `yaml:"unstable"`
	// ReadAll grants unrestricted filesystem reads; AllowRead lists path
	// prefixes otherwise.
	ReadAll   bool     `yaml:"read_all"`
	AllowRead []string `yaml:"allow_read"`
	// MetricsAddr is the listen address for the Prometheus endpoint. Empty
	// disables it.
	MetricsAddr string `yaml:"metrics_addr"`
	// Workers are launched at startup.
	Workers []WorkerDef `yaml:"workers"`
}

// WorkerDef declares one worker to launch at startup.
type WorkerDef struct {
	Name       string `yaml:"name"`
	Specifier  string `yaml:"specifier"`
	Privileged bool   `yaml:"privileged"`
	ImportMap  string `yaml:"import_map"`
}

// Parse decodes a YAML configuration document and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindNotFound, err, "read config "+path)
	}
	return Parse(data)
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Workers))
	for i, w := range c.Workers {
		label := w.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if w.Specifier == "" {
			return errors.InvalidInput(errors.PhaseHost,
				fmt.Sprintf("worker %s: specifier is required", label))
		}
		if w.Privileged && !c.Unstable {
			return errors.InvalidInput(errors.PhaseHost,
				fmt.Sprintf("worker %s requests the privileged namespace but unstable is not set", label))
		}
		if w.Name != "" {
			if seen[w.Name] {
				return errors.InvalidInput(errors.PhaseHost, "duplicate worker name "+w.Name)
			}
			seen[w.Name] = true
		}
	}
	return nil
}
