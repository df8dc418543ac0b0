package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/lexandro/secretscan-mcp/config"
	"github.com/lexandro/secretscan-mcp/findings"
	"github.com/lexandro/secretscan-mcp/ignore"
	"github.com/lexandro/secretscan-mcp/index"
	"github.com/lexandro/secretscan-mcp/language"
	"github.com/lexandro/secretscan-mcp/scan"
	"github.com/lexandro/secretscan-mcp/tools"
	"github.com/lexandro/secretscan-mcp/watcher"
)

// session owns the in-memory results of the server and keeps them current.
// Every update of the three indexes goes through updateMu.
type session struct {
	rootDir string
	cfg     *config.Config
	specs   []scan.PatternSpec
	catalog findings.Catalog
	matcher *ignore.Matcher
	logger  *slog.Logger

	files    *index.FileIndex
	findings *index.FindingIndex
	contexts *index.ContextIndex

	updateMu sync.Mutex

	stateMu  sync.Mutex
	lastScan tools.ScanSummary
	hasScan  bool
}

func newSession(rootDir string, cfg *config.Config, matcher *ignore.Matcher, logger *slog.Logger) (*session, error) {
	specs := cfg.PatternSpecs()
	// Fail on bad custom patterns at startup rather than on the first scan
	if _, err := scan.Compile(specs); err != nil {
		return nil, err
	}

	contexts, err := index.NewContextIndex()
	if err != nil {
		return nil, fmt.Errorf("creating context index: %w", err)
	}

	return &session{
		rootDir:  rootDir,
		cfg:      cfg,
		specs:    specs,
		catalog:  findings.Builtin(),
		matcher:  matcher,
		logger:   logger,
		files:    index.NewFileIndex(),
		findings: index.NewFindingIndex(),
		contexts: contexts,
	}, nil
}

func (s *session) Close() error {
	return s.contexts.Close()
}

func (s *session) scanConfig() scan.Config {
	cfg := s.cfg.ScanConfig(s.rootDir)
	cfg.Skip = s.matcher.ShouldSkip
	cfg.Logger = s.logger
	return cfg
}

// relativePath returns path relative to the root with forward slashes.
func (s *session) relativePath(path string) string {
	rel, err := filepath.Rel(s.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// fullScan rescans the whole root and swaps all indexes. A failed scan leaves
// them untouched.
func (s *session) fullScan(ctx context.Context) (tools.ScanSummary, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	result, err := scan.Scan(ctx, s.scanConfig(), s.specs)
	if err != nil {
		return tools.ScanSummary{}, err
	}

	entries := s.assess(result.Matches)
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.RelativePath]++
	}
	files := make([]*index.ScannedFile, 0, len(result.Files))
	for _, stat := range result.Files {
		files = append(files, s.scannedFile(stat, counts))
	}

	if err := s.contexts.Clear(); err != nil {
		return tools.ScanSummary{}, fmt.Errorf("clearing context index: %w", err)
	}
	if err := s.contexts.IndexEntries(entries); err != nil {
		return tools.ScanSummary{}, fmt.Errorf("indexing contexts: %w", err)
	}
	s.findings.Replace(entries)
	s.files.Replace(files)

	summary := tools.ScanSummary{
		ScanID:      result.ID,
		Files:       result.FilesScanned,
		Directories: result.DirectoriesScanned,
		Bytes:       result.BytesScanned,
		Findings:    len(entries),
		PeakWorkers: result.PeakWorkers,
		Duration:    result.Duration(),
		CompletedAt: result.CompletedAt,
	}
	s.stateMu.Lock()
	s.lastScan, s.hasScan = summary, true
	s.stateMu.Unlock()
	return summary, nil
}

// LastScan reports the most recent successful full scan.
func (s *session) LastScan() (tools.ScanSummary, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastScan, s.hasScan
}

// rescanFiles scans an explicit set of files and swaps their findings. Paths
// that are gone or no longer regular files are dropped from the indexes.
func (s *session) rescanFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	result, err := scan.ScanFiles(ctx, s.scanConfig(), s.specs, paths)
	if err != nil {
		return err
	}

	byFile := make(map[string][]*index.Entry)
	for _, e := range s.assess(result.Matches) {
		byFile[e.RelativePath] = append(byFile[e.RelativePath], e)
	}
	counts := make(map[string]int, len(byFile))
	for rel, entries := range byFile {
		counts[rel] = len(entries)
	}

	scanned := make(map[string]bool, len(result.Files))
	for _, stat := range result.Files {
		file := s.scannedFile(stat, counts)
		scanned[file.RelativePath] = true

		entries := byFile[file.RelativePath]
		dropped := s.findings.ReplaceFile(file.RelativePath, entries)
		if err := s.contexts.RemoveEntries(dropped); err != nil {
			s.logger.Warn("failed to drop stale contexts", "path", file.RelativePath, "error", err)
		}
		if err := s.contexts.IndexEntries(entries); err != nil {
			s.logger.Warn("failed to index contexts", "path", file.RelativePath, "error", err)
		}
		s.files.AddFile(file)
	}

	for _, path := range paths {
		if rel := s.relativePath(path); !scanned[rel] {
			s.removeLocked(rel)
		}
	}
	return nil
}

// removePaths drops removed files, and everything below removed directories.
func (s *session) removePaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	for _, path := range paths {
		rel := s.relativePath(path)
		s.removeLocked(rel)

		for _, below := range s.files.PathsUnder(rel) {
			s.removeLocked(below)
		}
	}
}

func (s *session) removeLocked(rel string) {
	ids := s.findings.RemoveFile(rel)
	if err := s.contexts.RemoveEntries(ids); err != nil {
		s.logger.Warn("failed to drop contexts", "path", rel, "error", err)
	}
	s.files.RemoveFile(rel)
}

// assess scores every record and wraps it for the indexes.
func (s *session) assess(records []*scan.MatchRecord) []*index.Entry {
	entries := make([]*index.Entry, 0, len(records))
	for _, rec := range records {
		assessment := s.catalog.Assess(rec)
		entries = append(entries, &index.Entry{
			Record:       rec,
			RelativePath: s.relativePath(rec.FilePath),
			Indicators:   assessment.Indicators,
			Score:        assessment.Score,
		})
	}
	return entries
}

func (s *session) scannedFile(stat scan.FileStat, counts map[string]int) *index.ScannedFile {
	rel := s.relativePath(stat.Path)
	return &index.ScannedFile{
		Path:         stat.Path,
		RelativePath: rel,
		Class:        language.Detect(stat.Path),
		SizeBytes:    stat.Size,
		ModTime:      stat.ModTime,
		FindingCount: counts[rel],
	}
}

// handleWatcherEvents applies debounced file system batches until the watcher
// closes. A change to an ignore file reloads the rules and triggers a full scan.
func (s *session) handleWatcherEvents(ctx context.Context, fileWatcher *watcher.Watcher) {
	for {
		var batch watcher.Batch
		select {
		case <-ctx.Done():
			return
		case batch = <-fileWatcher.Events():
		}

		if s.touchesIgnoreFile(batch) {
			s.matcher.Reload()
			s.logger.Info("reloaded ignore rules")
			if _, err := s.fullScan(ctx); err != nil {
				s.logger.Warn("rescan after ignore change failed", "error", err)
			}
			continue
		}

		s.removePaths(batch.Removed)
		if err := s.rescanFiles(ctx, batch.Changed); err != nil {
			s.logger.Warn("incremental scan failed, keeping previous results", "files", len(batch.Changed), "error", err)
			continue
		}
		s.logger.Debug("applied file changes", "changed", len(batch.Changed), "removed", len(batch.Removed))
	}
}

func (s *session) touchesIgnoreFile(batch watcher.Batch) bool {
	for _, paths := range [][]string{batch.Changed, batch.Removed} {
		for _, path := range paths {
			if s.matcher.IsIgnoreFile(path) {
				return true
			}
		}
	}
	return false
}
