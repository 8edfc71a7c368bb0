package probe

import (
	"encoding/csv"
	"io"
	"strings"
)

// SplitLines cuts sample text into at most max raw lines. When the text
// is a truncated prefix of a longer input (partial=true), the final
// unterminated line is dropped so a half record never skews analysis.
func SplitLines(text string, max int, partial bool) []string {
	if partial {
		i := strings.LastIndexByte(text, '\n')
		if i < 0 {
			return nil
		}
		text = text[:i+1]
	}
	lines := strings.Split(text, "\n")
	// Split leaves one empty trailing element when the text ends with
	// the terminator.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, ln := range lines {
		lines[i] = strings.TrimSuffix(ln, "\r")
	}
	if max > 0 && len(lines) > max {
		lines = lines[:max]
	}
	return lines
}

// TokenizeSample parses sample lines into records using the resolved
// delimiter. Parsing is best-effort: records that fail to parse are
// skipped and a tokenizer failure returns whatever was collected so
// far. A quoted field spanning several sample lines comes back as part
// of one record.
func TokenizeSample(lines []string, comma rune, lazyQuotes bool) [][]string {
	if len(lines) == 0 {
		return nil
	}
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = lazyQuotes

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				continue
			}
			return rows
		}
		rows = append(rows, rec)
	}
}
