package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexandro/secretscan-mcp/atomicfile"
	"github.com/lexandro/secretscan-mcp/findings"
	"github.com/lexandro/secretscan-mcp/report"
	"github.com/lexandro/secretscan-mcp/scan"
)

// findingsExitCode is returned by scan --fail-on-findings when anything was found.
const findingsExitCode = 2

type scanOptions struct {
	jsonOutput     bool
	outputPath     string
	failOnFindings bool
	redact         bool
	showContext    bool
	noColor        bool
}

func newScanCommand(opts *options) *cobra.Command {
	scanOpts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory once and print a report",
		Long: `Scan walks path (default: --root or the working directory), matches every
pattern against every file and prints the findings.

The text report is coloured when stdout is a terminal. --json prints the full
manifest instead; --output writes it to a file atomically.

Exit code: 0 on success, 1 on error, 2 with --fail-on-findings when anything
was found`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runScan(cmd, opts, scanOpts, path, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&scanOpts.jsonOutput, "json", false, "Print the JSON manifest instead of the text report")
	cmd.Flags().StringVarP(&scanOpts.outputPath, "output", "o", "", "Write the JSON manifest to this file")
	cmd.Flags().BoolVar(&scanOpts.failOnFindings, "fail-on-findings", false, "Exit with status 2 when anything was found")
	cmd.Flags().BoolVar(&scanOpts.redact, "redact", false, "Hide all but the first bytes of every capture in the text report")
	cmd.Flags().BoolVar(&scanOpts.showContext, "show-context", false, "Print the surrounding bytes of every finding in the text report")
	cmd.Flags().BoolVar(&scanOpts.noColor, "no-color", false, "Disable colour in the text report")

	return cmd
}

func runScan(cmd *cobra.Command, opts *options, scanOpts *scanOptions, path string, stdout io.Writer) error {
	root, err := resolveRoot(opts, path)
	if err != nil {
		return err
	}
	cfg, err := loadSettings(cmd, opts, root)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, opts.logFile)

	matcher, err := newMatcher(root, cfg)
	if err != nil {
		return err
	}

	scanCfg := cfg.ScanConfig(root)
	scanCfg.Skip = matcher.ShouldSkip
	scanCfg.Logger = logger

	result, err := scan.Scan(cmd.Context(), scanCfg, cfg.PatternSpecs())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	logger.Debug("scan complete",
		"scanId", result.ID,
		"files", result.FilesScanned,
		"matches", len(result.Matches),
		"duration", result.Duration(),
	)

	manifest := report.Build(root, result, findings.Builtin())

	if scanOpts.outputPath != "" {
		data, err := report.Marshal(manifest)
		if err != nil {
			return err
		}
		if err := atomicfile.LockedWrite(scanOpts.outputPath, data, 0o600); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	switch {
	case scanOpts.jsonOutput:
		err = report.WriteJSON(stdout, manifest)
	case scanOpts.outputPath == "":
		err = report.WriteText(stdout, manifest, report.TextOptions{
			Color:   !scanOpts.noColor && isTerminal(stdout),
			Redact:  scanOpts.redact,
			Context: scanOpts.showContext,
		})
	default:
		fmt.Fprintf(stdout, "%d findings written to %s\n", len(manifest.Findings), scanOpts.outputPath)
	}
	if err != nil {
		return err
	}

	if scanOpts.failOnFindings && len(manifest.Findings) > 0 {
		return &exitCodeError{code: findingsExitCode}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && report.ColorEnabled(f)
}
