// Package config reads the project configuration file (sushi-config.yaml)
// that names the implementation guide and its canonical URL base.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional configuration file name.
const DefaultFileName = "sushi-config.yaml"

// Config is the project configuration.
type Config struct {
	// ID is the implementation guide's package id.
	ID string `yaml:"id"`

	// Canonical is the URL base under which artifact URLs are minted.
	Canonical string `yaml:"canonical"`

	// Name is the computable project name.
	Name string `yaml:"name"`

	// Title is the human-readable project title.
	Title string `yaml:"title,omitempty"`

	// Version is the project version.
	Version string `yaml:"version"`

	// Status is the publication status applied to generated artifacts.
	Status string `yaml:"status,omitempty"`

	// FHIRVersion is the FHIR release the project targets.
	FHIRVersion string `yaml:"fhirVersion"`

	// Dependencies maps package ids to versions.
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromDirectory loads the conventional config file from a project
// directory.
func LoadFromDirectory(dir string) (*Config, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Canonical == "" {
		return fmt.Errorf("canonical is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
