// Package scan walks a directory tree and matches tagged byte patterns against
// every file it finds, using a bounded pool of workers.
//
// A scan is all-or-nothing: Scan returns either a complete Result or exactly one
// error. Pattern compilation errors are reported before any file is touched; the
// first file-level error observed by any worker is reported after all dispatched
// work has drained, and every collected match is discarded with it.
package scan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
)

// DefaultContext is the number of bytes kept on each side of a match.
const DefaultContext = 128

// Config controls one scan. It is not modified by the scan.
type Config struct {
	RootPath string
	// Context is the number of bytes kept on each side of a match, clamped to the file.
	Context int
	// MaxFileSize skips larger files silently. 0 means unlimited.
	MaxFileSize int64
	// MaxConcurrency bounds the number of files processed at once. <= 0 means runtime.NumCPU().
	MaxConcurrency int
	// SkipSymlinks drops symlinks before dispatch. Otherwise symlinks to regular files are scanned.
	SkipSymlinks bool
	// SkipBinary skips files whose first 512 bytes contain a NUL byte. They still count as scanned.
	SkipBinary bool
	// Skip prunes paths during the walk (ignore rules). Optional.
	Skip SkipFunc
	// Logger receives debug lines about skipped and failed files. Optional.
	Logger *slog.Logger
}

// DefaultConfig returns a Config for root with default settings.
func DefaultConfig(root string) Config {
	return Config{
		RootPath:       root,
		Context:        DefaultContext,
		MaxConcurrency: runtime.NumCPU(),
	}
}

// Scan compiles specs, walks cfg.RootPath and matches every eligible file.
//
// If ctx is cancelled, no further files are dispatched, in-flight files finish and
// ctx.Err() is returned.
func Scan(ctx context.Context, cfg Config, specs []PatternSpec) (*Result, error) {
	patterns, err := Compile(specs)
	if err != nil {
		return nil, err
	}
	return newScanner(cfg, patterns).run(ctx)
}

// ScanFiles runs the file tasks of a scan over an explicit list of paths instead of
// a walk. Paths that no longer exist or are not regular files are skipped.
// DirectoriesScanned is always zero.
func ScanFiles(ctx context.Context, cfg Config, specs []PatternSpec, paths []string) (*Result, error) {
	patterns, err := Compile(specs)
	if err != nil {
		return nil, err
	}
	return newScanner(cfg, patterns).runFiles(ctx, paths)
}

// run drains the walker into the pool, then waits for every dispatched task.
func (s *scanner) run(ctx context.Context) (*Result, error) {
	p := newPool(s.config.MaxConcurrency)

	for entry := range Walk(s.config.RootPath, s.config.Skip) {
		if ctx.Err() != nil {
			break
		}

		switch entry.Kind {
		case KindDirectory:
			s.agg.addDirectory()
			continue
		case KindOther:
			continue
		case KindSymlink:
			if s.config.SkipSymlinks || !isRegularTarget(entry.Path) {
				continue
			}
		}

		path := entry.Path
		p.submit(func() { s.scanFile(path) })
	}
	p.wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.agg.finalize(p.peakWorkers())
}

func (s *scanner) runFiles(ctx context.Context, paths []string) (*Result, error) {
	p := newPool(s.config.MaxConcurrency)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if s.config.SkipSymlinks || !isRegularTarget(path) {
				continue
			}
		} else if !info.Mode().IsRegular() {
			continue
		}

		p.submit(func() { s.scanFile(path) })
	}
	p.wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.agg.finalize(p.peakWorkers())
}

func newScanner(cfg Config, patterns []CompiledPattern) *scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &scanner{
		config:   cfg,
		patterns: patterns,
		agg:      newAggregator(),
		logger:   logger,
		open:     openOS,
	}
}

// isRegularTarget reports whether a symlink resolves to a regular file.
// Links to directories, devices and FIFOs are never opened.
func isRegularTarget(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
