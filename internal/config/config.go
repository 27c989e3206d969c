// Package config loads dumpschema.yaml, the optional project configuration
// for conversion, discovery, output and query defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/dumpschema/internal/model"
)

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "dumpschema.yaml"

// Config holds all dumpschema configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Scan    ScanConfig    `yaml:"scan"`
	Output  OutputConfig  `yaml:"output"`
	Search  SearchConfig  `yaml:"search"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ConvertConfig holds configuration for structure extraction.
type ConvertConfig struct {
	Dialect string `yaml:"dialect"`
	Workers int    `yaml:"workers"`
	// DropEmpty overrides the empty-structure policy per dialect name.
	DropEmpty      map[string]bool `yaml:"drop_empty,omitempty"`
	SkipMembers    []string        `yaml:"skip_members,omitempty"`
	SkipStructures []string        `yaml:"skip_structures,omitempty"`
}

// ScanConfig holds configuration for document discovery.
type ScanConfig struct {
	Extensions  []string `yaml:"extensions"`
	Exclude     []string `yaml:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// OutputConfig holds configuration for written artifacts.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Format      string `yaml:"format"`
	SkipGlobals bool   `yaml:"skip_globals"`
	SQLite      string `yaml:"sqlite,omitempty"`
}

// SearchConfig holds configuration for catalog search.
type SearchConfig struct {
	Limit          int `yaml:"limit"`
	FuzzyThreshold int `yaml:"fuzzy_threshold"`
	MaxDistance    int `yaml:"max_distance"`
}

// MetricsConfig holds configuration for inheritance ranking.
type MetricsConfig struct {
	PageRankDamping    float64 `yaml:"pagerank_damping"`
	PageRankIterations int     `yaml:"pagerank_iterations"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads dumpschema.yaml, falling back to defaults. It searches for the
// file starting from workDir and walking up the directory tree.
func Load(workDir string) (*Config, error) {
	path, err := FindConfigFile(workDir)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigFile locates dumpschema.yaml by walking up from startDir.
func FindConfigFile(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		path := filepath.Join(currentDir, ConfigFileName)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if !IsValidDialect(cfg.Convert.Dialect) {
		return fmt.Errorf("%w: dialect must be one of %v, got %q",
			ErrInvalidConfig, model.Dialects, cfg.Convert.Dialect)
	}

	if cfg.Convert.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d",
			ErrInvalidConfig, cfg.Convert.Workers)
	}

	for name := range cfg.Convert.DropEmpty {
		if name != string(model.SDK) && name != string(model.Offsets) {
			return fmt.Errorf("%w: drop_empty keys must be %q or %q, got %q",
				ErrInvalidConfig, model.SDK, model.Offsets, name)
		}
	}

	for _, ext := range cfg.Scan.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("%w: extensions must start with a dot, got %q",
				ErrInvalidConfig, ext)
		}
	}

	if cfg.Scan.MaxFileSize < 0 {
		return fmt.Errorf("%w: max_file_size must be non-negative, got %d",
			ErrInvalidConfig, cfg.Scan.MaxFileSize)
	}

	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}

	if cfg.Search.Limit <= 0 {
		return fmt.Errorf("%w: search limit must be positive, got %d",
			ErrInvalidConfig, cfg.Search.Limit)
	}

	if cfg.Search.FuzzyThreshold < 0 || cfg.Search.MaxDistance < 0 {
		return fmt.Errorf("%w: fuzzy_threshold and max_distance must be non-negative",
			ErrInvalidConfig)
	}

	if cfg.Metrics.PageRankDamping <= 0 || cfg.Metrics.PageRankDamping >= 1 {
		return fmt.Errorf("%w: pagerank_damping must be between 0 and 1, got %f",
			ErrInvalidConfig, cfg.Metrics.PageRankDamping)
	}

	if cfg.Metrics.PageRankIterations <= 0 {
		return fmt.Errorf("%w: pagerank_iterations must be positive, got %d",
			ErrInvalidConfig, cfg.Metrics.PageRankIterations)
	}

	return nil
}

// SaveDefault writes the default configuration to dumpschema.yaml in workDir.
func SaveDefault(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	configPath := filepath.Join(absDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# dumpschema configuration\n# Command-line flags override these values.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
