package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/secretscan-mcp/findings"
	"github.com/lexandro/secretscan-mcp/scan"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_LoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ".secretscan.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func Test_LoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, ".secretscan.yaml", `
context: 32
max_file_size: 1048576
max_concurrency: 2
skip_symlinks: true
skip_binary: true
min_score: 1.5
default_excludes: true
ignore_files: true
excludes: ["testdata/**"]
includes: ["**/*.env"]
sync_interval: 5m
log_level: debug
patterns:
  - tag: internal-token
    pattern: "itk_[a-z0-9]{32}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Context)
	assert.EqualValues(t, 1048576, cfg.MaxFileSize)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.True(t, cfg.SkipSymlinks)
	assert.True(t, cfg.SkipBinary)
	assert.Equal(t, 1.5, cfg.MinScore)
	assert.True(t, cfg.DefaultExcludes)
	assert.True(t, cfg.IgnoreFiles)
	assert.Equal(t, []string{"testdata/**"}, cfg.Excludes)
	assert.Equal(t, []string{"**/*.env"}, cfg.Includes)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []PatternConfig{{Tag: "internal-token", Pattern: "itk_[a-z0-9]{32}"}}, cfg.Patterns)
}

func Test_LoadConfig_TOML(t *testing.T) {
	path := writeConfig(t, ".secretscan.toml", `
context = 0
disable_builtins = true

[[patterns]]
tag = "password"
pattern = "password=(\\S+)"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Context, "explicit zero overrides the default")
	assert.True(t, cfg.DisableBuiltins)
	require.Len(t, cfg.Patterns, 1)
	assert.Equal(t, `password=(\S+)`, cfg.Patterns[0].Pattern)
}

func Test_LoadConfig_Errors(t *testing.T) {
	cases := map[string]struct {
		name    string
		content string
	}{
		"malformed yaml":      {".secretscan.yaml", "context: [1, 2"},
		"malformed toml":      {".secretscan.toml", "context = "},
		"unknown format":      {".secretscan.json", "{}"},
		"bad duration":        {".secretscan.yaml", "sync_interval: soon"},
		"negative context":    {".secretscan.yaml", "context: -1"},
		"pattern without tag": {".secretscan.yaml", "patterns:\n  - pattern: abc\n"},
		"nothing to scan for": {".secretscan.yaml", "disable_builtins: true\n"},
		"built-in tag":        {".secretscan.yaml", "patterns:\n  - tag: JWT\n    pattern: abc\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.name, tc.content))
			assert.Error(t, err)
		})
	}
}

func Test_Config_ValidateBuiltinTagWithoutBuiltins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Patterns = []PatternConfig{{Tag: "JWT", Pattern: "abc"}}
	assert.Error(t, cfg.Validate())

	cfg.DisableBuiltins = true
	assert.NoError(t, cfg.Validate())
}

func Test_FindConfig(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindConfig(dir))

	tomlPath := filepath.Join(dir, ".secretscan.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o644))
	assert.Equal(t, tomlPath, FindConfig(dir))

	yamlPath := filepath.Join(dir, ".secretscan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(""), 0o644))
	assert.Equal(t, yamlPath, FindConfig(dir), "yaml takes precedence")
}

func Test_Config_PatternSpecs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Patterns = []PatternConfig{{Tag: "custom", Pattern: "abc"}}

	specs := cfg.PatternSpecs()
	builtin := findings.Specs(findings.Builtin(), cfg.MinScore)
	require.Len(t, specs, len(builtin)+1)
	last := specs[len(specs)-1]
	assert.Equal(t, "custom", last.Tag)
	assert.Nil(t, last.Filter)

	cfg.DisableBuiltins = true
	assert.Len(t, cfg.PatternSpecs(), 1)

	_, err := scan.Compile(specs)
	assert.NoError(t, err)
}

func Test_Config_ScanConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileSize = 10
	cfg.SkipSymlinks = true

	sc := cfg.ScanConfig("/repo")
	assert.Equal(t, "/repo", sc.RootPath)
	assert.Equal(t, scan.DefaultContext, sc.Context)
	assert.EqualValues(t, 10, sc.MaxFileSize)
	assert.True(t, sc.SkipSymlinks)
}
