package scan

import "fmt"

// ErrorKind identifies the step of a file task that failed.
type ErrorKind int

const (
	OpenFailed ErrorKind = iota + 1
	StatFailed
	ReadFailed
	FilterFailed
)

func (k ErrorKind) String() string {
	switch k {
	case OpenFailed:
		return "open failed"
	case StatFailed:
		return "stat failed"
	case ReadFailed:
		return "read failed"
	case FilterFailed:
		return "filter failed"
	default:
		return "unknown"
	}
}

// ScanError is the single error surfaced by a failed scan.
// Only the first error observed across all workers is kept.
type ScanError struct {
	Kind     ErrorKind
	FilePath string
	Err      error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.FilePath, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
