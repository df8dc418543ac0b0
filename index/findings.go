package index

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/secretscan-mcp/findings"
	"github.com/lexandro/secretscan-mcp/scan"
)

// Entry is one kept match together with its assessment.
type Entry struct {
	Record       *scan.MatchRecord
	RelativePath string // forward slashes
	Indicators   []findings.Indicator
	Score        float64
}

// FindingQuery filters FindingIndex.Query. Zero values match everything.
type FindingQuery struct {
	Tag        string
	PathGlob   string
	MinScore   float64
	MaxResults int
}

// FindingIndex holds the findings of the current scan state, grouped by file
// so incremental rescans can swap one file at a time.
type FindingIndex struct {
	mu     sync.RWMutex
	byID   map[string]*Entry
	byFile map[string][]*Entry
}

// NewFindingIndex creates an empty finding index.
func NewFindingIndex() *FindingIndex {
	return &FindingIndex{
		byID:   make(map[string]*Entry),
		byFile: make(map[string][]*Entry),
	}
}

// Replace swaps the whole content of the index.
func (fx *FindingIndex) Replace(entries []*Entry) {
	fx.mu.Lock()
	defer fx.mu.Unlock()

	fx.byID = make(map[string]*Entry, len(entries))
	fx.byFile = make(map[string][]*Entry)
	for _, e := range entries {
		fx.byID[e.Record.ID] = e
		fx.byFile[e.RelativePath] = append(fx.byFile[e.RelativePath], e)
	}
}

// ReplaceFile swaps the findings of one file and returns the ids it dropped.
func (fx *FindingIndex) ReplaceFile(relativePath string, entries []*Entry) []string {
	fx.mu.Lock()
	defer fx.mu.Unlock()

	dropped := fx.removeLocked(relativePath)
	if len(entries) == 0 {
		return dropped
	}
	for _, e := range entries {
		fx.byID[e.Record.ID] = e
	}
	fx.byFile[relativePath] = entries
	return dropped
}

// RemoveFile drops every finding of a file and returns their ids.
func (fx *FindingIndex) RemoveFile(relativePath string) []string {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.removeLocked(relativePath)
}

func (fx *FindingIndex) removeLocked(relativePath string) []string {
	old := fx.byFile[relativePath]
	ids := make([]string, 0, len(old))
	for _, e := range old {
		delete(fx.byID, e.Record.ID)
		ids = append(ids, e.Record.ID)
	}
	delete(fx.byFile, relativePath)
	return ids
}

// Get returns a finding by id.
func (fx *FindingIndex) Get(id string) (*Entry, bool) {
	fx.mu.RLock()
	defer fx.mu.RUnlock()
	e, ok := fx.byID[id]
	return e, ok
}

// FileCount returns the number of findings held for a file.
func (fx *FindingIndex) FileCount(relativePath string) int {
	fx.mu.RLock()
	defer fx.mu.RUnlock()
	return len(fx.byFile[relativePath])
}

// Count returns the number of findings.
func (fx *FindingIndex) Count() int {
	fx.mu.RLock()
	defer fx.mu.RUnlock()
	return len(fx.byID)
}

// TagCounts returns pattern tag -> finding count.
func (fx *FindingIndex) TagCounts() map[string]int {
	fx.mu.RLock()
	defer fx.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range fx.byID {
		counts[e.Record.PatternTag]++
	}
	return counts
}

// Query returns matching findings ordered by path then offset, capped at
// MaxResults (default 50), plus the total number of matches before the cap.
func (fx *FindingIndex) Query(q FindingQuery) ([]*Entry, int, error) {
	if q.MaxResults <= 0 {
		q.MaxResults = 50
	}
	glob := strings.ReplaceAll(q.PathGlob, "\\", "/")
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return nil, 0, fmt.Errorf("invalid glob pattern: %s", glob)
	}

	fx.mu.RLock()
	paths := make([]string, 0, len(fx.byFile))
	for path := range fx.byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var matched []*Entry
	for _, path := range paths {
		if glob != "" {
			if ok, _ := doublestar.Match(glob, path); !ok {
				continue
			}
		}
		for _, e := range fx.byFile[path] {
			if q.Tag != "" && e.Record.PatternTag != q.Tag {
				continue
			}
			if q.MinScore != 0 && e.Score < q.MinScore {
				continue
			}
			matched = append(matched, e)
		}
	}
	fx.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.RelativePath != b.RelativePath {
			return a.RelativePath < b.RelativePath
		}
		return a.Record.CaptureStart < b.Record.CaptureStart
	})

	total := len(matched)
	if len(matched) > q.MaxResults {
		matched = matched[:q.MaxResults]
	}
	return matched, total, nil
}

// All returns every finding in path and offset order.
func (fx *FindingIndex) All() []*Entry {
	entries, _, _ := fx.Query(FindingQuery{MaxResults: math.MaxInt})
	return entries
}
