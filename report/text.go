package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// TextOptions controls the terminal report.
type TextOptions struct {
	Color bool
	// Redact hides all but the first four bytes of every capture.
	Redact bool
	// Context prints the surrounding bytes under each finding.
	Context bool
}

// ColorEnabled reports whether f is an interactive terminal.
func ColorEnabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteText prints findings grouped by file, then a summary line.
func WriteText(w io.Writer, m *Manifest, opts TextOptions) error {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)
	faint := color.New(color.Faint)
	for _, c := range []*color.Color{bold, cyan, green, yellow, red, faint} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	ew := &errWriter{w: w}
	currentFile := ""
	for _, item := range m.Sorted() {
		if item.FileName != currentFile {
			if currentFile != "" {
				fmt.Fprintln(ew)
			}
			currentFile = item.FileName
			bold.Fprintln(ew, currentFile)
		}

		scoreColor := green
		switch {
		case item.Score >= 2:
			scoreColor = red
		case item.Score >= 1:
			scoreColor = yellow
		}

		fmt.Fprintf(ew, "  %8d  ", item.CaptureStart)
		cyan.Fprintf(ew, "%-14s", item.PatternName)
		scoreColor.Fprintf(ew, " %5.2f  ", item.Score)
		fmt.Fprintln(ew, printable(item.Capture, opts.Redact))

		if opts.Context {
			faint.Fprintf(ew, "            %s\n", printable(item.Context, opts.Redact))
		}
	}

	if len(m.Findings) > 0 {
		fmt.Fprintln(ew)
	}
	s := m.Stats
	summary := fmt.Sprintf("%d findings in %d files (%d directories, %s) in %s",
		s.Findings, s.FilesScanned, s.DirectoriesScanned, humanBytes(s.BytesScanned),
		(time.Duration(s.DurationMillis) * time.Millisecond).String())
	if s.Findings > 0 {
		red.Fprintln(ew, summary)
	} else {
		green.Fprintln(ew, summary)
	}
	return ew.err
}

// printable quotes b for a single terminal line.
func printable(b []byte, redact bool) string {
	if redact && len(b) > 4 {
		b = append(bytes.Clone(b[:4]), bytes.Repeat([]byte("*"), min(len(b)-4, 12))...)
	}
	q := strconv.Quote(string(b))
	return q[1 : len(q)-1]
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// errWriter keeps the first write error so printing code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
