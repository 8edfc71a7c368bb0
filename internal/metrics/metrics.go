// Package metrics is a small process-wide facade over a pluggable
// metrics backend.
//
// The zero state is a no-op backend, so library code can report
// counters unconditionally and pay nothing unless a real backend is
// installed with SetBackend. Backends aggregate in memory; callers
// that want buffered samples shipped before exit call Flush.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Metric names understood by the shipped backends. The facade itself
// does not interpret them; unknown names are dropped by backends.
const (
	// MetricRowsTotal counts rows produced or rejected by a reader.
	// Labels: status (ok|failed).
	MetricRowsTotal = "tabread_rows_total"

	// MetricStoreRowsTotal counts rows handed to a storage sink.
	// Labels: kind (inserted).
	MetricStoreRowsTotal = "tabread_store_rows_total"

	// MetricBatchesTotal counts storage batches written.
	MetricBatchesTotal = "tabread_batches_total"

	// MetricReadDurationSeconds observes whole-session read durations.
	MetricReadDurationSeconds = "tabread_read_duration_seconds"

	// MetricFetchTotal counts source fetch attempts.
	// Labels: status (HTTP status code or "error").
	MetricFetchTotal = "tabread_fetch_total"

	// MetricFetchDurationSeconds observes source fetch durations.
	// Labels: status.
	MetricFetchDurationSeconds = "tabread_fetch_duration_seconds"
)

// Labels attach low-cardinality dimensions to a sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer samples between
// submissions.
type Flusher interface {
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. Passing nil
// restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to the named counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample of the named distribution.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush asks a buffering backend to submit what it holds. Backends
// without a Flush method make this a no-op.
func Flush() error {
	if f, ok := current().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// RecordFetch records the outcome of one source fetch. A non-nil err
// or a zero status code is reported under status "error".
func RecordFetch(status int, err error, d time.Duration) {
	s := "error"
	if err == nil && status > 0 {
		s = strconv.Itoa(status)
	}
	labels := Labels{"status": s}
	IncCounter(MetricFetchTotal, 1, labels)
	ObserveHistogram(MetricFetchDurationSeconds, d.Seconds(), labels)
}
