// Package register writes the server's entry into an MCP client config file.
package register

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lexandro/secretscan-mcp/atomicfile"
)

// Scope selects which config file is edited.
type Scope string

const (
	// ScopeProject edits <directory>/.mcp.json.
	ScopeProject Scope = "project"
	// ScopeUser edits ~/.claude.json.
	ScopeUser Scope = "user"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeUser:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q (must be \"project\" or \"user\")", s)
}

// Options describes one registration.
type Options struct {
	Scope Scope
	// Directory holds the project config. Ignored for ScopeUser. Default ".".
	Directory string
	// ServerName defaults to DeriveServerName(BinaryPath).
	ServerName string
	// BinaryPath defaults to the running executable.
	BinaryPath string
	// ServerArgs are forwarded to the server on every start.
	ServerArgs []string
}

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Register adds or replaces the server entry and returns the config path written.
func Register(opts Options) (string, error) {
	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		var err error
		if binaryPath, err = detectBinaryPath(); err != nil {
			return "", err
		}
	}
	serverName := opts.ServerName
	if serverName == "" {
		serverName = DeriveServerName(binaryPath)
	}

	configPath, err := resolveConfigPath(opts.Scope, opts.Directory)
	if err != nil {
		return "", err
	}

	entry := buildEntry(binaryPath, opts.ServerArgs)
	err = updateServers(configPath, func(servers map[string]any) {
		servers[serverName] = entry
	})
	if err != nil {
		return "", err
	}
	return configPath, nil
}

// Unregister removes the server entry, leaving every other entry untouched.
// It reports whether an entry was removed.
func Unregister(opts Options) (string, bool, error) {
	serverName := opts.ServerName
	if serverName == "" {
		binaryPath, err := detectBinaryPath()
		if err != nil {
			return "", false, err
		}
		serverName = DeriveServerName(binaryPath)
	}

	configPath, err := resolveConfigPath(opts.Scope, opts.Directory)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return configPath, false, nil
	}

	removed := false
	err = updateServers(configPath, func(servers map[string]any) {
		_, removed = servers[serverName]
		delete(servers, serverName)
	})
	return configPath, removed, err
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope Scope, directory string) (string, error) {
	switch scope {
	case ScopeProject:
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	case ScopeUser:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(homeDir, ".claude.json"), nil
	}
	return "", fmt.Errorf("unknown scope %q", scope)
}

func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	if runtime.GOOS == "windows" {
		args := []string{"/C", binaryPath}
		args = append(args, serverArgs...)
		return mcpServerEntry{
			Command: "cmd",
			Args:    args,
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    serverArgs,
	}
}

// updateServers edits the mcpServers object of configPath under its lock.
// Keys outside mcpServers are preserved.
func updateServers(configPath string, edit func(servers map[string]any)) error {
	return atomicfile.Update(configPath, 0o644, func(current []byte) ([]byte, error) {
		config := map[string]any{}
		if len(current) > 0 {
			if err := json.Unmarshal(current, &config); err != nil {
				return nil, fmt.Errorf("parsing existing config %s: %w", configPath, err)
			}
		}

		servers, ok := config["mcpServers"]
		if !ok {
			servers = map[string]any{}
			config["mcpServers"] = servers
		}
		serversMap, ok := servers.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("mcpServers in %s is not an object", configPath)
		}

		edit(serversMap)

		output, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}
		return append(output, '\n'), nil
	})
}
