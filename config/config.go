// Package config loads scan settings from an optional YAML or TOML file.
// Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/lexandro/secretscan-mcp/findings"
	"github.com/lexandro/secretscan-mcp/scan"
)

// FileNames are the config files looked up in the scan root, in order.
var FileNames = []string{".secretscan.yaml", ".secretscan.yml", ".secretscan.toml"}

// PatternConfig is a user-defined pattern. Matches are kept without scoring.
type PatternConfig struct {
	Tag     string `yaml:"tag" toml:"tag"`
	Pattern string `yaml:"pattern" toml:"pattern"`
}

// Config holds every setting a scan or the server needs.
type Config struct {
	// Context is the number of bytes kept on each side of a match
	Context int
	// MaxFileSize skips larger files (0 = unlimited)
	MaxFileSize int64
	// MaxConcurrency bounds parallel file tasks (0 = host parallelism)
	MaxConcurrency int
	SkipSymlinks   bool
	SkipBinary     bool

	// MinScore is the score a built-in finding needs to be kept
	MinScore        float64
	DisableBuiltins bool
	Patterns        []PatternConfig

	DefaultExcludes bool
	IgnoreFiles     bool
	Excludes        []string
	Includes        []string

	// SyncInterval is the periodic verification interval of the server (0 = off)
	SyncInterval time.Duration
	LogLevel     string
}

// DefaultConfig returns a Config with default values. Nothing is excluded by
// default so that every reachable file is scanned.
func DefaultConfig() *Config {
	return &Config{
		Context:        scan.DefaultContext,
		MaxConcurrency: runtime.NumCPU(),
		MinScore:       findings.DefaultMinScore,
		LogLevel:       "info",
	}
}

// fileConfig mirrors Config with optional fields so that values present in
// the file, including false and 0, override defaults.
type fileConfig struct {
	Context         *int            `yaml:"context" toml:"context"`
	MaxFileSize     *int64          `yaml:"max_file_size" toml:"max_file_size"`
	MaxConcurrency  *int            `yaml:"max_concurrency" toml:"max_concurrency"`
	SkipSymlinks    *bool           `yaml:"skip_symlinks" toml:"skip_symlinks"`
	SkipBinary      *bool           `yaml:"skip_binary" toml:"skip_binary"`
	MinScore        *float64        `yaml:"min_score" toml:"min_score"`
	DisableBuiltins *bool           `yaml:"disable_builtins" toml:"disable_builtins"`
	Patterns        []PatternConfig `yaml:"patterns" toml:"patterns"`
	DefaultExcludes *bool           `yaml:"default_excludes" toml:"default_excludes"`
	IgnoreFiles     *bool           `yaml:"ignore_files" toml:"ignore_files"`
	Excludes        []string        `yaml:"excludes" toml:"excludes"`
	Includes        []string        `yaml:"includes" toml:"includes"`
	SyncInterval    string          `yaml:"sync_interval" toml:"sync_interval"`
	LogLevel        string          `yaml:"log_level" toml:"log_level"`
}

// LoadConfig loads configuration from path, starting from defaults.
// A missing file yields the defaults; a malformed one is an error.
// The format is chosen by extension: .toml for TOML, .yaml or .yml for YAML.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.apply(&fc); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfig returns the first config file present in dir, or "".
func FindConfig(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

func (c *Config) apply(fc *fileConfig) error {
	setIf(&c.Context, fc.Context)
	setIf(&c.MaxFileSize, fc.MaxFileSize)
	setIf(&c.MaxConcurrency, fc.MaxConcurrency)
	setIf(&c.SkipSymlinks, fc.SkipSymlinks)
	setIf(&c.SkipBinary, fc.SkipBinary)
	setIf(&c.MinScore, fc.MinScore)
	setIf(&c.DisableBuiltins, fc.DisableBuiltins)
	setIf(&c.DefaultExcludes, fc.DefaultExcludes)
	setIf(&c.IgnoreFiles, fc.IgnoreFiles)

	c.Patterns = append(c.Patterns, fc.Patterns...)
	c.Excludes = append(c.Excludes, fc.Excludes...)
	c.Includes = append(c.Includes, fc.Includes...)

	if fc.SyncInterval != "" {
		interval, err := time.ParseDuration(fc.SyncInterval)
		if err != nil {
			return fmt.Errorf("invalid sync_interval %q: %w", fc.SyncInterval, err)
		}
		c.SyncInterval = interval
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks value ranges and custom patterns. Pattern syntax is checked
// later by scan.Compile.
func (c *Config) Validate() error {
	if c.Context < 0 {
		return fmt.Errorf("context must be >= 0, got %d", c.Context)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be >= 0, got %d", c.MaxFileSize)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("sync_interval must be >= 0, got %s", c.SyncInterval)
	}
	builtin := findings.Builtin()
	for i, p := range c.Patterns {
		if p.Tag == "" || p.Pattern == "" {
			return fmt.Errorf("pattern %d: tag and pattern are required", i)
		}
		if _, ok := builtin.Lookup(p.Tag); ok && !c.DisableBuiltins {
			return fmt.Errorf("pattern %d: tag %q is a built-in finding name", i, p.Tag)
		}
	}
	if c.DisableBuiltins && len(c.Patterns) == 0 {
		return fmt.Errorf("built-in patterns are disabled and no custom patterns are configured")
	}
	return nil
}

// PatternSpecs returns the patterns to scan with: the built-in catalog unless
// disabled, followed by the custom patterns.
func (c *Config) PatternSpecs() []scan.PatternSpec {
	var specs []scan.PatternSpec
	if !c.DisableBuiltins {
		specs = findings.Specs(findings.Builtin(), c.MinScore)
	}
	for _, p := range c.Patterns {
		specs = append(specs, scan.PatternSpec{Tag: p.Tag, Source: p.Pattern})
	}
	return specs
}

// ScanConfig builds the engine configuration for root.
func (c *Config) ScanConfig(root string) scan.Config {
	return scan.Config{
		RootPath:       root,
		Context:        c.Context,
		MaxFileSize:    c.MaxFileSize,
		MaxConcurrency: c.MaxConcurrency,
		SkipSymlinks:   c.SkipSymlinks,
		SkipBinary:     c.SkipBinary,
	}
}
