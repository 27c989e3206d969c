package config

import "github.com/phobologic/dumpschema/internal/model"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			Dialect: string(model.Auto),
			Workers: 1,
		},
		Scan: ScanConfig{
			Extensions:  []string{".h", ".hpp"},
			Exclude:     []string{},
			MaxFileSize: 64 << 20,
		},
		Output: OutputConfig{
			Dir:    "Data",
			Format: "json",
		},
		Search: SearchConfig{
			Limit:          250,
			FuzzyThreshold: 15,
			MaxDistance:    2,
		},
		Metrics: MetricsConfig{
			PageRankDamping:    0.85,
			PageRankIterations: 100,
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Convert: mergeConvertConfig(loaded.Convert, defaults.Convert),
		Scan:    mergeScanConfig(loaded.Scan, defaults.Scan),
		Output:  mergeOutputConfig(loaded.Output, defaults.Output),
		Search:  mergeSearchConfig(loaded.Search, defaults.Search),
		Metrics: mergeMetricsConfig(loaded.Metrics, defaults.Metrics),
	}
}

func mergeConvertConfig(loaded, defaults ConvertConfig) ConvertConfig {
	result := defaults

	if loaded.Dialect != "" {
		result.Dialect = loaded.Dialect
	}
	if loaded.Workers != 0 {
		result.Workers = loaded.Workers
	}
	if len(loaded.DropEmpty) > 0 {
		result.DropEmpty = loaded.DropEmpty
	}
	if len(loaded.SkipMembers) > 0 {
		result.SkipMembers = loaded.SkipMembers
	}
	if len(loaded.SkipStructures) > 0 {
		result.SkipStructures = loaded.SkipStructures
	}

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := defaults

	if len(loaded.Extensions) > 0 {
		result.Extensions = loaded.Extensions
	}
	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	}
	// MaxFileSize: use loaded if non-zero; negative values fail validation
	if loaded.MaxFileSize != 0 {
		result.MaxFileSize = loaded.MaxFileSize
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := defaults

	if loaded.Dir != "" {
		result.Dir = loaded.Dir
	}
	if loaded.Format != "" {
		result.Format = loaded.Format
	}
	if loaded.SQLite != "" {
		result.SQLite = loaded.SQLite
	}
	// SkipGlobals defaults to false, so the loaded value always wins.
	result.SkipGlobals = loaded.SkipGlobals

	return result
}

func mergeSearchConfig(loaded, defaults SearchConfig) SearchConfig {
	result := defaults

	if loaded.Limit != 0 {
		result.Limit = loaded.Limit
	}
	if loaded.FuzzyThreshold != 0 {
		result.FuzzyThreshold = loaded.FuzzyThreshold
	}
	if loaded.MaxDistance != 0 {
		result.MaxDistance = loaded.MaxDistance
	}

	return result
}

func mergeMetricsConfig(loaded, defaults MetricsConfig) MetricsConfig {
	result := defaults

	if loaded.PageRankDamping != 0 {
		result.PageRankDamping = loaded.PageRankDamping
	}
	if loaded.PageRankIterations != 0 {
		result.PageRankIterations = loaded.PageRankIterations
	}

	return result
}

// ValidFormats lists the valid catalog output formats
var ValidFormats = []string{"json", "toon"}

// IsValidFormat checks if the given output format is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}

// IsValidDialect checks if the given dialect name is valid
func IsValidDialect(dialect string) bool {
	for _, d := range model.Dialects {
		if dialect == string(d) {
			return true
		}
	}
	return false
}

// DropEmptyByDialect converts the configured empty-structure policy to
// dialect keys.
func (c ConvertConfig) DropEmptyByDialect() map[model.Dialect]bool {
	if len(c.DropEmpty) == 0 {
		return nil
	}
	out := make(map[model.Dialect]bool, len(c.DropEmpty))
	for k, v := range c.DropEmpty {
		out[model.Dialect(k)] = v
	}
	return out
}
