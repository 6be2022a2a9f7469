package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FileName is the per-repository configuration file.
const FileName = ".codeprep.json"

// EnvPrefix prefixes every environment override, e.g. CODEPREP_WINDOW_SIZE.
const EnvPrefix = "CODEPREP_"

// Config holds the corpus preparation settings.
type Config struct {
	WindowSize     int    `json:"window_size"`             // tokens per window
	WindowStride   int    `json:"window_stride,omitempty"` // 0 means WindowSize
	Concurrency    int    `json:"concurrency"`             // files tokenized at once
	CacheSize      int    `json:"cache_size"`              // in-memory count cache entries, 0 disables
	CacheDB        string `json:"cache_db,omitempty"`      // sqlite count cache, empty disables
	LogLevel       string `json:"log_level"`               // debug, info, warn, error
	FollowSymlinks bool   `json:"follow_symlinks"`
}

const schemaJSON = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"window_size":     {"type": "integer", "minimum": 1},
		"window_stride":   {"type": "integer", "minimum": 0},
		"concurrency":     {"type": "integer", "minimum": 1},
		"cache_size":      {"type": "integer", "minimum": 0},
		"cache_db":        {"type": "string"},
		"log_level":       {"type": "string", "enum": ["debug", "info", "warn", "error"]},
		"follow_symlinks": {"type": "boolean"}
	}
}`

// ValidationError lists the schema violations of a configuration file.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Path, strings.Join(e.Errors, "; "))
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		WindowSize:  512,
		Concurrency: 4,
		CacheSize:   4096,
		LogLevel:    "info",
	}
}

// Path returns the configuration file of a repository.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, FileName)
}

// Load reads the configuration at path over the defaults.
// If the file does not exist, it returns Default() and no error.
func Load(path string) (*Config, error) {
	return load(path, false)
}

// LoadRequired is Load for a path the user named; a missing file is an error.
func LoadRequired(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Validate(path, data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration document against the schema.
func Validate(path string, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &ValidationError{Path: path, Errors: msgs}
	}
	return nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from CODEPREP_* variables found by lookup,
// normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"WINDOW_SIZE":   &c.WindowSize,
		"WINDOW_STRIDE": &c.WindowStride,
		"CONCURRENCY":   &c.Concurrency,
		"CACHE_SIZE":    &c.CacheSize,
	}
	for name, field := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*field = n
	}

	if v, ok := lookup(EnvPrefix + "CACHE_DB"); ok {
		c.CacheDB = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvPrefix + "FOLLOW_SYMLINKS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sFOLLOW_SYMLINKS: %w", EnvPrefix, err)
		}
		c.FollowSymlinks = b
	}
	return nil
}

// Check validates the final settings after env and flag overrides.
func (c *Config) Check() error {
	switch {
	case c.WindowSize <= 0:
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	case c.WindowStride < 0:
		return fmt.Errorf("window stride must not be negative, got %d", c.WindowStride)
	case c.Concurrency <= 0:
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	case c.CacheSize < 0:
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}

// Stride returns the effective window stride.
func (c *Config) Stride() int {
	if c.WindowStride == 0 {
		return c.WindowSize
	}
	return c.WindowStride
}
