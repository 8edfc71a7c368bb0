// Package probe infers the shape of tabular text from a bounded sample
// of lines: the field delimiter, a scalar type per column, and whether
// the payload is tabular text at all or an HTML page carrying a table.
//
// All inference is best-effort and must never fail the caller. A
// guesser that cannot decide returns its zero result and the session
// proceeds on defaults (comma delimiter, no guessed types).
package probe

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Analysis is the inference result for one input. Produced once per
// input, before the first row, and never recomputed mid-stream.
type Analysis struct {
	// Delimiter is the guessed field separator, 0 when there was no
	// confident guess.
	Delimiter rune
	// Columns holds one guessed processor spec per column, in column
	// order. nil means no guess for that column.
	Columns [][]string
}

// Analyze runs the full inference pass over sample lines: delimiter
// first, then per-column types over the sample tokenized with the
// guessed (or comma-fallback) delimiter.
func Analyze(lines []string) Analysis {
	delim, ok := GuessDelimiter(lines)
	comma := delim
	if !ok {
		comma = ','
	}
	rows := TokenizeSample(lines, comma, true)
	a := Analysis{Columns: GuessColumnSpecs(rows)}
	if ok {
		a.Delimiter = delim
	}
	return a
}

// SniffHTML reports whether the sampled prefix looks like an HTML page
// with a table in it rather than delimiter-separated text.
func SniffHTML(prefix []byte) bool {
	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}
	return bytes.Contains(bytes.ToLower(trimmed), []byte("<table"))
}

// NormalizeFieldName lowers a header cell into an identifier usable as
// a database column: lowercase, non-alphanumeric runs collapsed to one
// underscore, trimmed, truncated to 63 bytes without splitting a rune.
// Names that normalize to nothing become "col".
func NormalizeFieldName(name string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	out = truncateFieldName(out, 63)
	if out == "" {
		return "col"
	}
	return out
}

// truncateFieldName cuts s to at most max bytes on a rune boundary.
func truncateFieldName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
