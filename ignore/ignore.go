package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Ignore files read from the scan root when MatcherOptions.UseIgnoreFiles is set.
const (
	GitIgnoreFile    = ".gitignore"
	SecretIgnoreFile = ".secretscanignore"
)

// Matcher decides which paths a scan leaves out. With zero options it skips
// nothing, so every reachable file is scanned.
// Thread-safe: Reload() acquires a write lock, ShouldSkip() a read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	useDefaults    bool
	useIgnoreFiles bool
	excludes       []string
	includes       []string
	gitIgnore      gitignore.GitIgnore
	secretIgnore   gitignore.GitIgnore
}

// MatcherOptions configures the matcher. Patterns are doublestar globs matched
// against the slash-separated path relative to RootDir and against the base name.
type MatcherOptions struct {
	RootDir string
	// Excludes skip matching files and prune matching directories.
	Excludes []string
	// Includes, when set, restrict the scan to files matching at least one pattern.
	Includes []string
	// UseDefaults skips VCS metadata, dependency directories and media files.
	UseDefaults bool
	// UseIgnoreFiles honours .gitignore and .secretscanignore in RootDir.
	UseIgnoreFiles bool
}

// NewMatcher validates the patterns and loads ignore files.
func NewMatcher(options MatcherOptions) (*Matcher, error) {
	for _, pattern := range append(append([]string{}, options.Excludes...), options.Includes...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	matcher := &Matcher{
		rootDir:        options.RootDir,
		useDefaults:    options.UseDefaults,
		useIgnoreFiles: options.UseIgnoreFiles,
		excludes:       options.Excludes,
		includes:       options.Includes,
	}
	if matcher.useIgnoreFiles {
		matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, GitIgnoreFile), options.RootDir)
		matcher.secretIgnore = loadIgnoreFile(filepath.Join(options.RootDir, SecretIgnoreFile), options.RootDir)
	}
	return matcher, nil
}

// ShouldSkip reports whether path is left out of the scan. Returning true for
// a directory prunes its subtree. Its signature matches scan.SkipFunc.
func (m *Matcher) ShouldSkip(path string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, path)
	if err != nil {
		relativePath = path
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." {
		return false
	}

	if m.useDefaults && matchesDefaults(relativePath, isDir) {
		return true
	}

	for _, gi := range []gitignore.GitIgnore{m.gitIgnore, m.secretIgnore} {
		if gi == nil {
			continue
		}
		if match := gi.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	if matchesAny(m.excludes, relativePath) {
		return true
	}

	if !isDir && len(m.includes) > 0 && !matchesAny(m.includes, relativePath) {
		return true
	}
	return false
}

// IsIgnoreFile reports whether path is one of the ignore files the matcher reads.
func (m *Matcher) IsIgnoreFile(path string) bool {
	if !m.useIgnoreFiles || filepath.Dir(path) != filepath.Clean(m.rootDir) {
		return false
	}
	base := filepath.Base(path)
	return base == GitIgnoreFile || base == SecretIgnoreFile
}

// Reload re-reads the ignore files from disk.
// Used when the watcher detects changes to them.
func (m *Matcher) Reload() {
	if !m.useIgnoreFiles {
		return
	}
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, GitIgnoreFile), m.rootDir)
	newSecretIgnore := loadIgnoreFile(filepath.Join(m.rootDir, SecretIgnoreFile), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.secretIgnore = newSecretIgnore
}

// matchesDefaults checks directory names along the path and file globs on the base name.
func matchesDefaults(relativePath string, isDir bool) bool {
	parts := strings.Split(relativePath, "/")
	dirs := parts
	if !isDir {
		dirs = parts[:len(parts)-1]
	}
	for _, part := range dirs {
		if DefaultSkipDirs[part] {
			return true
		}
	}
	if isDir {
		return false
	}

	baseLower := strings.ToLower(parts[len(parts)-1])
	for _, pattern := range DefaultSkipFiles {
		if matched, _ := doublestar.Match(pattern, baseLower); matched {
			return true
		}
	}
	return false
}

// matchesAny tries each pattern against the relative path, then the base name.
func matchesAny(patterns []string, relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, relativePath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
