package scan

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// pool runs tasks with at most limit of them in flight.
// submit blocks while the limit is reached.
type pool struct {
	group  errgroup.Group
	active atomic.Int64
	peak   atomic.Int64
}

func newPool(limit int) *pool {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	p := &pool{}
	p.group.SetLimit(limit)
	return p
}

func (p *pool) submit(task func()) {
	p.group.Go(func() error {
		n := p.active.Add(1)
		for {
			peak := p.peak.Load()
			if n <= peak || p.peak.CompareAndSwap(peak, n) {
				break
			}
		}
		defer p.active.Add(-1)

		task()
		// Failures are latched by the aggregator; the group never sees one.
		return nil
	})
}

// wait blocks until every submitted task has finished.
func (p *pool) wait() {
	p.group.Wait()
}

// peakWorkers is the highest number of tasks observed running at once.
func (p *pool) peakWorkers() int {
	return int(p.peak.Load())
}
