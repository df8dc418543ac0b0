package scan

import (
	"fmt"
	"regexp"
)

// FilterFunc inspects a finished match record. Returning true discards the record.
// A non-nil error fails the file being scanned with a FilterFailed error.
type FilterFunc func(record *MatchRecord) (discard bool, err error)

// PatternSpec is a tagged pattern source as supplied by the caller.
// Tags need not be unique.
type PatternSpec struct {
	Tag    string
	Source string
	Filter FilterFunc
}

// CompiledPattern is a ready-to-evaluate pattern. It is shared read-only by all workers of a scan.
type CompiledPattern struct {
	Tag     string
	Matcher *regexp.Regexp
	Filter  FilterFunc
}

// PatternError reports a pattern that failed to compile.
type PatternError struct {
	Tag    string
	Source string
	Err    error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("compiling pattern %q (%s): %v", e.Tag, e.Source, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Compile compiles every spec in input order. The first failure aborts the whole set.
func Compile(specs []PatternSpec) ([]CompiledPattern, error) {
	compiled := make([]CompiledPattern, 0, len(specs))
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Source)
		if err != nil {
			return nil, &PatternError{Tag: spec.Tag, Source: spec.Source, Err: err}
		}
		compiled = append(compiled, CompiledPattern{
			Tag:     spec.Tag,
			Matcher: re,
			Filter:  spec.Filter,
		})
	}
	return compiled, nil
}
