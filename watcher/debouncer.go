package watcher

import (
	"sort"
	"sync"
	"time"
)

// EventOp is the collapsed outcome for a path within one debounce window.
type EventOp int

const (
	// OpChange covers creation, modification and the new name of a rename.
	OpChange EventOp = iota
	// OpRemove covers deletion and the old name of a rename.
	OpRemove
)

func (op EventOp) String() string {
	if op == OpRemove {
		return "remove"
	}
	return "change"
}

// Batch is the set of paths touched during one quiet period, each sorted.
// A path appears in at most one of the two lists.
type Batch struct {
	Changed []string
	Removed []string
}

// Len returns the number of paths in the batch.
func (b Batch) Len() int {
	return len(b.Changed) + len(b.Removed)
}

// Debouncer collects file system events and emits a Batch after a quiet period.
// Multiple events for the same path within the window collapse to the latest op.
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	events   map[string]EventOp
	timer    *time.Timer
	output   chan Batch
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		events:   make(map[string]EventOp),
		output:   make(chan Batch, 16),
	}
}

// Output returns the channel that receives batches.
func (d *Debouncer) Output() <-chan Batch {
	return d.output
}

// Add records an event and restarts the quiet period.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events[path] = op

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels a pending flush. Buffered events are dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]EventOp)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.events) == 0 {
		d.mu.Unlock()
		return
	}
	var batch Batch
	for path, op := range d.events {
		if op == OpRemove {
			batch.Removed = append(batch.Removed, path)
		} else {
			batch.Changed = append(batch.Changed, path)
		}
	}
	d.events = make(map[string]EventOp)
	d.mu.Unlock()

	sort.Strings(batch.Changed)
	sort.Strings(batch.Removed)
	d.output <- batch
}
