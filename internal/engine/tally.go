package engine

import (
	"sync"

	"github.com/chanzuckerberg/s3mi/internal/metrics"
)

// tally is the transfer's shared fault counter. Zero means healthy; any
// positive value means the run is aborted. It belongs to one Engine
// instance, not the process, so independent engines can coexist.
type tally struct {
	mu    sync.Mutex
	n     int
	first error
}

// fault records one fault. The first error is kept as the transfer's
// reported cause.
func (t *tally) fault(err error) {
	t.mu.Lock()
	t.n++
	if t.first == nil {
		t.first = err
	}
	t.mu.Unlock()

	if m := metrics.Get(); m != nil {
		m.Faults.WithLabelValues(faultKind(err)).Inc()
	}
}

// aborted reports whether any fault has been recorded.
func (t *tally) aborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n > 0
}

// count returns the number of recorded faults.
func (t *tally) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

// err returns the first recorded fault, or nil.
func (t *tally) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.first
}
