package scan

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// FileStat describes one counted file of a scan.
type FileStat struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Result is the immutable outcome of a successful scan.
// Matches are in arrival order, which depends on scheduling.
type Result struct {
	ID                 string
	StartedAt          time.Time
	CompletedAt        time.Time
	FilesScanned       int
	DirectoriesScanned int
	BytesScanned       int64
	PeakWorkers        int
	Files              []FileStat
	Matches            []*MatchRecord
}

// Duration returns the wall time of the scan.
func (r *Result) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// aggregator is the single accumulation point shared by every task of a run.
type aggregator struct {
	startedAt time.Time

	files        atomic.Int64
	directories  atomic.Int64
	bytesScanned atomic.Int64

	mu       sync.Mutex
	matches  []*MatchRecord
	stats    []FileStat
	firstErr *ScanError
}

func newAggregator() *aggregator {
	return &aggregator{startedAt: time.Now()}
}

func (a *aggregator) addDirectory() {
	a.directories.Add(1)
}

func (a *aggregator) addFile(stat FileStat) {
	a.files.Add(1)
	a.mu.Lock()
	a.stats = append(a.stats, stat)
	a.mu.Unlock()
}

func (a *aggregator) addBytes(n int) {
	a.bytesScanned.Add(int64(n))
}

func (a *aggregator) addMatches(records []*MatchRecord) {
	if len(records) == 0 {
		return
	}
	a.mu.Lock()
	a.matches = append(a.matches, records...)
	a.mu.Unlock()
}

// fail latches err if no error has been latched yet. Later errors are dropped.
func (a *aggregator) fail(err *ScanError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.firstErr == nil {
		a.firstErr = err
	}
}

// finalize freezes the run. A latched error supersedes every accumulated match.
func (a *aggregator) finalize(peakWorkers int) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.firstErr != nil {
		return nil, a.firstErr
	}

	return &Result{
		ID:                 uuid.NewString(),
		StartedAt:          a.startedAt,
		CompletedAt:        time.Now(),
		FilesScanned:       int(a.files.Load()),
		DirectoriesScanned: int(a.directories.Load()),
		BytesScanned:       a.bytesScanned.Load(),
		PeakWorkers:        peakWorkers,
		Files:              a.stats,
		Matches:            a.matches,
	}, nil
}
