package main

import (
	"context"
	"os"
	"time"

	"github.com/lexandro/secretscan-mcp/scan"
)

// SyncResult holds the outcome of a single sync verification run.
type SyncResult struct {
	MissingFiles  int // files on disk but not in index
	StaleFiles    int // files in index but not on disk
	ModifiedFiles int // files where size or ModTime differs
	Duration      time.Duration
}

// runPeriodicSync verifies the indexes against the disk at the given interval
// until ctx is done. It catches events the watcher missed.
func runPeriodicSync(ctx context.Context, interval time.Duration, s *session) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result, err := performSyncVerification(ctx, s)
			if err != nil {
				s.logger.Warn("sync verification failed", "error", err)
				continue
			}
			totalDiscrepancies := result.MissingFiles + result.StaleFiles + result.ModifiedFiles
			if totalDiscrepancies > 0 {
				s.logger.Info("sync verification complete",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"duration", result.Duration,
				)
			} else {
				s.logger.Debug("sync verification complete, index is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the filesystem with the file index,
// rescans missing and modified files and drops stale ones.
func performSyncVerification(ctx context.Context, s *session) (SyncResult, error) {
	start := time.Now()
	var result SyncResult

	diskFiles := make(map[string]os.FileInfo) // key: relative path (forward slashes)
	absPaths := make(map[string]string)
	for entry := range scan.Walk(s.rootDir, s.matcher.ShouldSkip) {
		switch entry.Kind {
		case scan.KindFile:
		case scan.KindSymlink:
			if s.cfg.SkipSymlinks {
				continue
			}
		default:
			continue
		}
		info, err := os.Stat(entry.Path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel := s.relativePath(entry.Path)
		diskFiles[rel] = info
		absPaths[rel] = entry.Path
	}

	indexed := make(map[string]bool)
	var rescan []string
	var stale []string
	for _, file := range s.files.AllFiles() {
		indexed[file.RelativePath] = true
		info, exists := diskFiles[file.RelativePath]
		if !exists {
			stale = append(stale, file.Path)
			result.StaleFiles++
			continue
		}
		if !info.ModTime().Equal(file.ModTime) || info.Size() != file.SizeBytes {
			rescan = append(rescan, file.Path)
			result.ModifiedFiles++
		}
	}
	for rel, path := range absPaths {
		if !indexed[rel] {
			rescan = append(rescan, path)
			result.MissingFiles++
		}
	}

	s.removePaths(stale)
	if err := s.rescanFiles(ctx, rescan); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	return result, nil
}
