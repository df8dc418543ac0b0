package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ScannedFile is a file counted by the last scan that covered it.
type ScannedFile struct {
	Path         string    // Absolute file path
	RelativePath string    // Path relative to the scan root (forward slashes)
	Class        string    // File class from language.Detect
	SizeBytes    int64     // File size at scan time
	ModTime      time.Time // Modification time at scan time
	FindingCount int       // Findings kept for this file
}

// FileIndex tracks scanned files for status reports and change detection.
// It uses a map for O(1) path lookups and a sorted slice for glob iteration.
type FileIndex struct {
	mu          sync.RWMutex
	files       map[string]*ScannedFile // key: relative path (forward slashes)
	sortedPaths []string
}

// NewFileIndex creates a new empty file index.
func NewFileIndex() *FileIndex {
	return &FileIndex{
		files:       make(map[string]*ScannedFile),
		sortedPaths: make([]string, 0),
	}
}

// AddFile adds or updates a file in the index.
func (fi *FileIndex) AddFile(file *ScannedFile) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.addLocked(file)
}

func (fi *FileIndex) addLocked(file *ScannedFile) {
	_, exists := fi.files[file.RelativePath]
	fi.files[file.RelativePath] = file

	if !exists {
		idx := sort.SearchStrings(fi.sortedPaths, file.RelativePath)
		fi.sortedPaths = append(fi.sortedPaths, "")
		copy(fi.sortedPaths[idx+1:], fi.sortedPaths[idx:])
		fi.sortedPaths[idx] = file.RelativePath
	}
}

// Replace swaps the whole content of the index in one step.
func (fi *FileIndex) Replace(files []*ScannedFile) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	fi.files = make(map[string]*ScannedFile, len(files))
	fi.sortedPaths = make([]string, 0, len(files))
	for _, file := range files {
		fi.addLocked(file)
	}
}

// RemoveFile removes a file from the index by its relative path.
func (fi *FileIndex) RemoveFile(relativePath string) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	if _, exists := fi.files[relativePath]; !exists {
		return
	}
	delete(fi.files, relativePath)

	idx := sort.SearchStrings(fi.sortedPaths, relativePath)
	if idx < len(fi.sortedPaths) && fi.sortedPaths[idx] == relativePath {
		fi.sortedPaths = append(fi.sortedPaths[:idx], fi.sortedPaths[idx+1:]...)
	}
}

// GetFile returns the ScannedFile for a relative path, or nil if not found.
func (fi *FileIndex) GetFile(relativePath string) *ScannedFile {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.files[relativePath]
}

// FileCount returns the number of scanned files.
func (fi *FileIndex) FileCount() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.files)
}

// TotalSizeBytes returns the total size of all scanned files.
func (fi *FileIndex) TotalSizeBytes() int64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	var totalSize int64
	for _, file := range fi.files {
		totalSize += file.SizeBytes
	}
	return totalSize
}

// ClassCounts returns file class -> file count.
func (fi *FileIndex) ClassCounts() map[string]int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	counts := make(map[string]int)
	for _, file := range fi.files {
		counts[file.Class]++
	}
	return counts
}

// SearchByGlob returns files matching a doublestar glob pattern, in path order.
// The pattern is matched against relative paths (forward slashes).
func (fi *FileIndex) SearchByGlob(pattern string, maxResults int) ([]*ScannedFile, error) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []*ScannedFile
	for _, path := range fi.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			results = append(results, fi.files[path])
		}
	}
	return results, nil
}

// PathsUnder returns the relative paths below dir, in path order.
// dir itself is not included.
func (fi *FileIndex) PathsUnder(dir string) []string {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var paths []string
	for i := sort.SearchStrings(fi.sortedPaths, prefix); i < len(fi.sortedPaths); i++ {
		if !strings.HasPrefix(fi.sortedPaths[i], prefix) {
			break
		}
		paths = append(paths, fi.sortedPaths[i])
	}
	return paths
}

// AllFiles returns all scanned files in path order.
func (fi *FileIndex) AllFiles() []*ScannedFile {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	result := make([]*ScannedFile, 0, len(fi.sortedPaths))
	for _, path := range fi.sortedPaths {
		result = append(result, fi.files[path])
	}
	return result
}

// Clear removes all files from the index.
func (fi *FileIndex) Clear() {
	fi.Replace(nil)
}
