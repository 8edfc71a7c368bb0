package reader

import (
	"strings"

	"tabread/internal/config"
)

const (
	// DefaultLookahead is the number of sample lines captured for
	// inference when Options.Lookahead is zero.
	DefaultLookahead = 100

	// MaxLookahead bounds Options.Lookahead. The sample must fit the
	// session's checkpoint window, the buffered prefix that analysis
	// inspects and the tokenizer then re-reads; the window is sized for
	// at most this many lines. Asking for more fails configuration.
	MaxLookahead = 10000

	// DefaultFailureCap is the number of consecutive lenient failures
	// after which a session gives up, when Options.FailureCap is zero.
	DefaultFailureCap = 100
)

// maxSampleBytes is the checkpoint window in bytes: the longest decoded
// prefix that can be inspected during configuration and then re-read by
// the tokenizer. A sample whose lines overflow the window is truncated
// at the last complete line.
const maxSampleBytes = 1 << 20

// Options configures a read session. The zero value selects every
// default: detect the encoding, guess delimiter and types, strict
// failure policy, vector rows, no limit.
type Options struct {
	// Preference determines the parse dialect: a resolved
	// config.Dialect, a config.Preset name, or a config.Raw partial
	// record (the default) that falls back to the delimiter guess.
	Preference config.Preference

	// Header consumes the first record as field names and switches the
	// session to map mode.
	Header bool

	// FieldNames supplies explicit field names (map mode) when the
	// input has no header. Ignored when Header is set.
	FieldNames []string

	// NameTransform is applied to each header cell before it becomes a
	// field name. Nil means trim surrounding whitespace.
	NameTransform func(string) string

	// Specs maps a field name to its processor step list. In vector
	// mode columns are addressed by position ("0", "1", ...). Explicit
	// specs win over guessed ones; names that match no column are
	// ignored.
	Specs map[string][]string

	// Encoding forces a charset instead of detecting one. Unknown names
	// fail configuration.
	Encoding string

	// NoGuessTypes disables per-column type guessing; unspecced fields
	// then pass through raw.
	NoGuessTypes bool

	// Lenient switches the failure policy from strict (a row failure
	// surfaces on the demand) to lenient (report, skip, read on).
	Lenient bool

	// Greedy declares that the consumer drives the session through
	// RowFunc rather than ranging over All. Both views always work;
	// commands use this to pick their consumption shape.
	Greedy bool

	// CounterStep fires OnProgress after every CounterStep-th produced
	// row. Zero disables progress reporting.
	CounterStep int

	// Silent suppresses OnRowError reporting in lenient mode. Failure
	// metrics still count.
	Silent bool

	// Limit stops the session once a record begins past this physical
	// input line, counting the header line. A record is produced only
	// when its first line is at or below the limit, so a quoted field
	// spanning several lines uses up the limit faster than the row
	// count suggests. For HTML tables lines are record ordinals. Zero
	// means no limit.
	Limit int

	// Lookahead is the number of sample lines captured for inference.
	// Zero means DefaultLookahead; values above MaxLookahead fail
	// configuration.
	Lookahead int

	// FailureCap ends a lenient session with ErrTooManyFailures after
	// this many consecutive row failures. Zero means DefaultFailureCap.
	FailureCap int

	// LazyQuotes forwards to the tokenizer: a quote may appear in an
	// unquoted field and a non-doubled quote in a quoted field.
	LazyQuotes bool

	// OnRowError is called once per skipped row in lenient mode, unless
	// Silent is set.
	OnRowError func(line int, err error)

	// OnProgress receives the cumulative produced row count at every
	// CounterStep boundary.
	OnProgress func(rows int64)
}

// validate rejects option values that can never be meant: negative
// counts and a lookahead the checkpoint window cannot cover.
func (o Options) validate() error {
	if o.CounterStep < 0 {
		return config.Errorf("counter_step", "must be positive, got %d", o.CounterStep)
	}
	if o.Limit < 0 {
		return config.Errorf("limit", "must be positive, got %d", o.Limit)
	}
	if o.Lookahead < 0 {
		return config.Errorf("lookahead", "must be positive, got %d", o.Lookahead)
	}
	if o.Lookahead > MaxLookahead {
		return config.Errorf("lookahead", "%d lines exceed the checkpoint window (max %d)",
			o.Lookahead, MaxLookahead)
	}
	if o.FailureCap < 0 {
		return config.Errorf("failure_cap", "must be positive, got %d", o.FailureCap)
	}
	return nil
}

// normalized returns a copy with defaults filled in.
func (o Options) normalized() Options {
	if o.Preference == nil {
		o.Preference = config.Raw{}
	}
	if o.NameTransform == nil {
		o.NameTransform = strings.TrimSpace
	}
	if o.Lookahead == 0 {
		o.Lookahead = DefaultLookahead
	}
	if o.FailureCap == 0 {
		o.FailureCap = DefaultFailureCap
	}
	return o
}
