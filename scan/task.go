package scan

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lexandro/secretscan-mcp/language"
)

// openFunc opens a file for a task. Tests swap it to inject failures.
type openFunc func(name string) (fs.File, error)

func openOS(name string) (fs.File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// scanner holds everything a file task needs. It is shared by all tasks of one run.
type scanner struct {
	config   Config
	patterns []CompiledPattern
	agg      *aggregator
	logger   *slog.Logger
	open     openFunc
}

// scanFile is the per-file unit of work. Records are handed to the aggregator only
// once the whole file has been processed without error.
func (s *scanner) scanFile(path string) {
	file, err := s.open(path)
	if err != nil {
		s.agg.fail(&ScanError{Kind: OpenFailed, FilePath: path, Err: err})
		s.logger.Debug("open failed", "path", path, "error", err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		s.agg.fail(&ScanError{Kind: StatFailed, FilePath: path, Err: err})
		s.logger.Debug("stat failed", "path", path, "error", err)
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	s.agg.addFile(FileStat{Path: path, Size: info.Size(), ModTime: info.ModTime()})

	if s.config.MaxFileSize > 0 && info.Size() > s.config.MaxFileSize {
		s.logger.Debug("skipped large file", "path", path, "size", info.Size())
		return
	}

	buf, err := readAll(file, info.Size())
	if err != nil {
		s.agg.fail(&ScanError{Kind: ReadFailed, FilePath: path, Err: err})
		s.logger.Debug("read failed", "path", path, "error", err)
		return
	}
	s.agg.addBytes(len(buf))

	if s.config.SkipBinary && language.IsBinaryContent(buf) {
		s.logger.Debug("skipped binary file", "path", path)
		return
	}

	records, err := s.matchAll(path, buf)
	if err != nil {
		s.agg.fail(&ScanError{Kind: FilterFailed, FilePath: path, Err: err})
		s.logger.Debug("filter failed", "path", path, "error", err)
		return
	}
	s.agg.addMatches(records)
}

// matchAll evaluates every pattern in order against buf.
func (s *scanner) matchAll(path string, buf []byte) ([]*MatchRecord, error) {
	var records []*MatchRecord
	for _, pattern := range s.patterns {
		for _, loc := range pattern.Matcher.FindAllSubmatchIndex(buf, -1) {
			record := extract(buf, loc, s.config.Context)
			record.FilePath = path
			record.PatternTag = pattern.Tag
			record.PatternSource = pattern.Matcher.String()

			if pattern.Filter != nil {
				discard, err := runFilter(pattern.Filter, &record)
				if err != nil {
					return nil, fmt.Errorf("pattern %q: %w", pattern.Tag, err)
				}
				if discard {
					continue
				}
			}
			records = append(records, &record)
		}
	}
	return records, nil
}

// runFilter calls a caller-supplied filter, turning a panic into an error.
func runFilter(filter FilterFunc, record *MatchRecord) (discard bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("filter panicked: %v", r)
		}
	}()
	return filter(record)
}

// readAll reads the whole file, sizing the buffer from stat when it can.
func readAll(r io.Reader, sizeHint int64) ([]byte, error) {
	if sizeHint <= 0 {
		return io.ReadAll(r)
	}
	buf := make([]byte, 0, sizeHint+1)
	for {
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
		if len(buf) == cap(buf) {
			// File grew since stat
			buf = append(buf, 0)[:len(buf)]
		}
	}
}
