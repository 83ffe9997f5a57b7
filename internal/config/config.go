package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the service settings. Everything has a default; a YAML
// file overrides selectively.
type Config struct {
	// Addr is the listen address for the HTTP API.
	Addr string `yaml:"addr"`

	// DataFile is the path to the bulk-load zip archive.
	DataFile string `yaml:"data_file"`

	// ReferenceTime is the unix timestamp user ages are computed against.
	// Zero means: take it from the archive's options.txt, falling back to
	// process start time.
	ReferenceTime int64 `yaml:"reference_time"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		DataFile: "data.zip",
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}
