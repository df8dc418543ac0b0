package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lexandro/secretscan-mcp/config"
	"github.com/lexandro/secretscan-mcp/ignore"
	"github.com/lexandro/secretscan-mcp/server"
	"github.com/lexandro/secretscan-mcp/tools"
	"github.com/lexandro/secretscan-mcp/watcher"
)

// exitCodeError makes the process exit with code without printing anything.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	var exitErr *exitCodeError
	switch {
	case errors.As(err, &exitErr):
		os.Exit(exitErr.code)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the flags shared by serve and scan.
type options struct {
	rootDir    string
	configPath string
	logLevel   string
	logFile    string

	excludes        []string
	includes        []string
	defaultExcludes bool
	ignoreFiles     bool

	context      int
	maxFileSize  int64
	concurrency  int
	skipSymlinks bool
	skipBinary   bool
	minScore     float64
	noBuiltins   bool
	syncInterval time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "secretscan-mcp",
		Short: "Secret scanner served over MCP",
		Long: `secretscan-mcp walks a directory tree and matches secret patterns (cloud keys,
API tokens, JWTs, high-entropy strings) against every file, in parallel.

Without a subcommand it runs as an MCP server on stdio, keeping scan results
in memory and updating them as files change. "scan" runs a single scan and
prints a report.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.rootDir, "root", "", "Project root directory (default: current working directory)")
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: .secretscan.yaml, .secretscan.yml or .secretscan.toml in the root)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (serve default: secretscan-mcp.log in the root; scan default: stderr)")
	flags.StringArrayVar(&opts.excludes, "exclude", nil, "Glob of paths to skip (repeatable)")
	flags.StringArrayVar(&opts.includes, "include", nil, "Glob of files to restrict the scan to (repeatable)")
	flags.BoolVar(&opts.defaultExcludes, "default-excludes", false, "Skip VCS metadata, dependency directories and media files")
	flags.BoolVar(&opts.ignoreFiles, "ignore-files", false, "Honour .gitignore and .secretscanignore in the root")
	flags.IntVar(&opts.context, "context", 0, "Bytes of context kept on each side of a match (default 128)")
	flags.Int64Var(&opts.maxFileSize, "max-file-size", 0, "Skip files larger than this many bytes (0 = unlimited)")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Maximum files scanned at once (default: number of CPUs)")
	flags.BoolVar(&opts.skipSymlinks, "skip-symlinks", false, "Do not follow symlinks to files")
	flags.BoolVar(&opts.skipBinary, "skip-binary", false, "Skip files that look binary")
	flags.Float64Var(&opts.minScore, "min-score", 0, "Minimum score a built-in finding needs (default 1)")
	flags.BoolVar(&opts.noBuiltins, "no-builtins", false, "Only use patterns from the config file")
	flags.DurationVar(&opts.syncInterval, "sync-interval", 0, "Periodic disk verification interval for serve (0 = off)")

	cmd.AddCommand(newScanCommand(opts))
	cmd.AddCommand(newRegisterCommand())

	return cmd
}

// resolveRoot returns the absolute scan root: the argument, --root, or the
// working directory. A root that does not exist is an error.
func resolveRoot(opts *options, arg string) (string, error) {
	root := arg
	if root == "" {
		root = opts.rootDir
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan root %s is not a directory", root)
	}
	return root, nil
}

// loadSettings reads the config file and applies explicitly set flags on top.
func loadSettings(cmd *cobra.Command, opts *options, root string) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.FindConfig(root)
	}
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("context") {
		cfg.Context = opts.context
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if flags.Changed("concurrency") {
		cfg.MaxConcurrency = opts.concurrency
	}
	if flags.Changed("skip-symlinks") {
		cfg.SkipSymlinks = opts.skipSymlinks
	}
	if flags.Changed("skip-binary") {
		cfg.SkipBinary = opts.skipBinary
	}
	if flags.Changed("min-score") {
		cfg.MinScore = opts.minScore
	}
	if flags.Changed("no-builtins") {
		cfg.DisableBuiltins = opts.noBuiltins
	}
	if flags.Changed("default-excludes") {
		cfg.DefaultExcludes = opts.defaultExcludes
	}
	if flags.Changed("ignore-files") {
		cfg.IgnoreFiles = opts.ignoreFiles
	}
	if flags.Changed("sync-interval") {
		cfg.SyncInterval = opts.syncInterval
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	cfg.Excludes = append(cfg.Excludes, opts.excludes...)
	cfg.Includes = append(cfg.Includes, opts.includes...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newMatcher(root string, cfg *config.Config) (*ignore.Matcher, error) {
	return ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        root,
		Excludes:       cfg.Excludes,
		Includes:       cfg.Includes,
		UseDefaults:    cfg.DefaultExcludes,
		UseIgnoreFiles: cfg.IgnoreFiles,
	})
}

// runServe scans the root once, then serves the results over MCP stdio while
// the watcher and the optional periodic sync keep them current.
func runServe(cmd *cobra.Command, opts *options) error {
	rootDir, err := resolveRoot(opts, "")
	if err != nil {
		return err
	}
	cfg, err := loadSettings(cmd, opts, rootDir)
	if err != nil {
		return err
	}

	// Default log file: secretscan-mcp.log in the root directory
	logFile := opts.logFile
	if logFile == "" {
		logFile = filepath.Join(rootDir, "secretscan-mcp.log")
	}
	// Never stdout: it carries the MCP stdio stream
	logger := setupLogger(cfg.LogLevel, logFile)

	logger.Info("starting secretscan-mcp",
		"root", rootDir,
		"maxFileSize", cfg.MaxFileSize,
		"concurrency", cfg.MaxConcurrency,
		"builtins", !cfg.DisableBuiltins,
		"customPatterns", len(cfg.Patterns),
	)
	startTime := time.Now()

	// The log file lives in the root by default; scanning it would feed the
	// watcher its own writes
	if rel, err := filepath.Rel(rootDir, logFile); err == nil && !strings.HasPrefix(rel, "..") {
		cfg.Excludes = append(cfg.Excludes, filepath.ToSlash(rel))
	}

	matcher, err := newMatcher(rootDir, cfg)
	if err != nil {
		return err
	}
	s, err := newSession(rootDir, cfg, matcher, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	summary, err := s.fullScan(ctx)
	if err != nil {
		// Serve anyway; secretscan_scan can retry once the cause is fixed
		logger.Error("initial scan failed", "error", err)
	} else {
		logger.Info("initial scan complete",
			"files", summary.Files,
			"findings", summary.Findings,
			"duration", summary.Duration,
		)
	}

	fileWatcher, err := watcher.NewWatcher(rootDir, matcher, watcher.DefaultInterval, logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Start(ctx)
		go s.handleWatcherEvents(ctx, fileWatcher)
		defer fileWatcher.Close()
	}

	if cfg.SyncInterval > 0 {
		go runPeriodicSync(ctx, cfg.SyncInterval, s)
	}

	mcpServer := server.Setup(server.Handlers{
		Scan:     &tools.ScanHandler{DoScan: s.fullScan, Logger: logger},
		Findings: &tools.FindingsHandler{FindingIndex: s.findings, Logger: logger},
		Files:    &tools.FilesHandler{FileIndex: s.files, Logger: logger},
		Search:   &tools.SearchHandler{ContextIndex: s.contexts, FindingIndex: s.findings, Logger: logger},
		Show:     &tools.ShowHandler{FindingIndex: s.findings, Logger: logger},
		Status: &tools.StatusHandler{
			FileIndex:    s.files,
			FindingIndex: s.findings,
			ContextIndex: s.contexts,
			LastScan:     s.LastScan,
			StartTime:    startTime,
			RootDir:      rootDir,
			Logger:       logger,
		},
	})

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server error", "error", err)
		return err
	}
	return nil
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
