// Package reader implements the adaptive streaming reader: it opens
// tabular text of unknown shape, runs the inference pass (charset,
// delimiter, column types), and produces decoded rows one demand at a
// time under a strict or lenient failure policy.
//
// A session is single-consumer and pull-based: all work happens on the
// goroutine demanding a row, input order is preserved exactly, and
// nothing is read ahead of demand beyond the configuration sample.
// Using one session from several goroutines is a precondition
// violation, not something the package tolerates with locks.
package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"sync"
	"time"

	"tabread/internal/charset"
	"tabread/internal/config"
	"tabread/internal/metrics"
	"tabread/internal/probe"
	"tabread/internal/transformer"
	"tabread/pkg/records"
)

var (
	labelsOK     = metrics.Labels{"status": "ok"}
	labelsFailed = metrics.Labels{"status": "failed"}
)

// Reader is a live read session over one input: it owns the stream,
// the resolved dialect and decoders, and the row counters. Open and
// its variants return it fully configured.
//
// When to use:
//   - Range over All for the deferred view, or call Next directly.
//   - Use RowFunc for the callback shape: one call, one row, (nil, nil)
//     once the session is closed.
//
// Edge cases:
//   - The session closes itself at natural end-of-input and at the
//     line limit. A consumer abandoning the stream early must call
//     Close; nothing detects abandonment.
//   - After Close, demands observe io.EOF.
//
// Errors:
//   - Strict policy: a *RowError surfaces on the failing demand and the
//     session stays open; the consumer may close it or read past the
//     bad record.
//   - Lenient policy: row failures are skipped until FailureCap
//     consecutive failures, then a terminal error wrapping
//     ErrTooManyFailures surfaces and the session closes.
//   - Any other stream failure closes the session and surfaces once.
type Reader struct {
	src    RecordSource
	closer io.Closer

	detection charset.Detection
	dialect   config.Dialect
	analysis  probe.Analysis
	html      bool

	mapMode  bool
	names    []string
	chains   []transformer.Chain
	colSpecs [][]string

	opt Options

	started time.Time

	rows      int64
	sinceTick int
	failures  int

	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// Next produces the next row. It returns io.EOF at end-of-input, after
// the line limit, and on every demand after Close.
func (r *Reader) Next() (*records.Row, error) {
	if r.closed {
		return nil, io.EOF
	}
	for {
		rec, err := r.src.Read()
		if err != nil {
			rerr, retry := r.readFailed(err)
			if retry {
				continue
			}
			return nil, rerr
		}
		if r.opt.Limit > 0 && r.src.Line() > r.opt.Limit {
			return nil, r.finish()
		}

		row, derr := r.decode(rec)
		if derr != nil {
			rerr, retry := r.rowFailed(&RowError{Line: r.src.Line(), Err: derr})
			if retry {
				continue
			}
			return nil, rerr
		}

		r.failures = 0
		r.rows++
		metrics.IncCounter(metrics.MetricRowsTotal, 1, labelsOK)
		if n := r.opt.CounterStep; n > 0 {
			r.sinceTick++
			if r.sinceTick == n {
				r.sinceTick = 0
				if r.opt.OnProgress != nil {
					r.opt.OnProgress(r.rows)
				}
			}
		}
		return row, nil
	}
}

// readFailed sorts an underlying read error into the failure taxonomy:
// end-of-input closes the session, a malformed record follows the
// strict/lenient policy, anything else is a resource error that closes
// the session and surfaces on this demand.
func (r *Reader) readFailed(err error) (error, bool) {
	if err == io.EOF {
		return r.finish(), false
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		if r.opt.Limit > 0 && r.src.Line() > r.opt.Limit {
			return r.finish(), false
		}
		return r.rowFailed(&RowError{Line: r.src.Line(), Err: err})
	}
	_ = r.Close()
	return fmt.Errorf("reader: read: %w", err), false
}

// rowFailed applies the failure policy to one bad row. The second
// result asks the demand loop to retry with the next record.
func (r *Reader) rowFailed(rerr *RowError) (error, bool) {
	metrics.IncCounter(metrics.MetricRowsTotal, 1, labelsFailed)
	if !r.opt.Lenient {
		return rerr, false
	}
	if !r.opt.Silent && r.opt.OnRowError != nil {
		r.opt.OnRowError(rerr.Line, rerr.Err)
	}
	r.failures++
	if r.failures >= r.opt.FailureCap {
		_ = r.Close()
		return fmt.Errorf("reader: %w after %d attempts: %w", ErrTooManyFailures, r.failures, rerr), false
	}
	return nil, true
}

// finish closes at a natural stream boundary. A close failure surfaces
// on this demand; otherwise the demand observes io.EOF.
func (r *Reader) finish() error {
	if err := r.Close(); err != nil {
		return err
	}
	return io.EOF
}

// decode applies the compiled chains to one record. Empty raw fields
// are null before any chain runs; in map mode the value list is sized
// to the field names, missing fields decode from null and extra fields
// are dropped.
func (r *Reader) decode(fields []string) (*records.Row, error) {
	width := len(fields)
	if r.mapMode {
		width = len(r.names)
	}
	values := make([]any, width)
	for i := range values {
		var raw any
		if i < len(fields) && fields[i] != "" {
			raw = fields[i]
		}
		chain := transformer.Passthrough
		if i < len(r.chains) {
			chain = r.chains[i]
		}
		v, err := chain(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", r.fieldLabel(i), err)
		}
		values[i] = v
	}
	row := &records.Row{Line: r.src.Line(), Values: values}
	if r.mapMode {
		row.Names = r.names
	}
	return row, nil
}

func (r *Reader) fieldLabel(i int) string {
	if r.mapMode && i < len(r.names) {
		return r.names[i]
	}
	return strconv.Itoa(i)
}

// All returns the deferred view: a pull-driven sequence of rows for
// range-over-func consumption. A non-EOF error is yielded once, then
// iteration stops. Breaking out of the range does not close the
// session; an abandoning consumer calls Close.
func (r *Reader) All() iter.Seq2[*records.Row, error] {
	return func(yield func(*records.Row, error) bool) {
		for {
			row, err := r.Next()
			if err != nil {
				if err != io.EOF {
					yield(nil, err)
				}
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// RowFunc returns the callback view: each call advances the session by
// one row. Once the session is closed it returns (nil, nil).
func (r *Reader) RowFunc() func() (*records.Row, error) {
	return func() (*records.Row, error) {
		row, err := r.Next()
		if err == io.EOF {
			return nil, nil
		}
		return row, err
	}
}

// Close releases the underlying stream. It runs once; repeated calls
// return the first result. After Close every demand observes io.EOF.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.closed = true
		if r.closer != nil {
			r.closeErr = r.closer.Close()
		}
		metrics.ObserveHistogram(metrics.MetricReadDurationSeconds,
			time.Since(r.started).Seconds(), nil)
	})
	return r.closeErr
}

// Names returns the resolved field names, nil in vector mode. The
// slice is shared; callers must not modify it.
func (r *Reader) Names() []string {
	if !r.mapMode {
		return nil
	}
	return r.names
}

// MapMode reports whether rows carry field names.
func (r *Reader) MapMode() bool { return r.mapMode }

// Dialect returns the resolved parse configuration.
func (r *Reader) Dialect() config.Dialect { return r.dialect }

// Encoding returns the canonical name of the encoding in use.
func (r *Reader) Encoding() string { return r.detection.Name }

// Detection returns the full charset detection outcome, including the
// fallback cause when detection degraded to the default.
func (r *Reader) Detection() charset.Detection { return r.detection }

// Analysis returns the inference outcome for this input: the guessed
// delimiter (0 when there was no confident guess) and the guessed
// column specs before explicit specs were merged in. It is computed
// once, during configuration, and never recomputed mid-stream.
func (r *Reader) Analysis() probe.Analysis { return r.analysis }

// ColumnSpecs returns the processor spec bound to each column after
// merging explicit specs over guesses. nil entries are passthrough.
func (r *Reader) ColumnSpecs() [][]string { return r.colSpecs }

// HTML reports whether the input sniffed as an HTML table.
func (r *Reader) HTML() bool { return r.html }

// Rows returns the number of rows produced so far.
func (r *Reader) Rows() int64 { return r.rows }
