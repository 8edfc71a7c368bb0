// Package htmltable reads the rows of an HTML table as records, for
// inputs that sniff as an HTML page rather than delimiter-separated
// text. The whole document is parsed up front; HTML has no streaming
// row structure worth preserving.
package htmltable

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table serves the extracted rows as a record source. Line positions
// are record ordinals; an HTML table has no physical lines.
type Table struct {
	rows [][]string
	pos  int
}

// Parse extracts the largest table (by row count) from the document.
// Cell text is whitespace-collapsed. Rows without cells are dropped.
// A document without a usable table is an error.
func Parse(r io.Reader) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmltable: parse document: %w", err)
	}

	var best *goquery.Selection
	bestRows := 0
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		if n := sel.Find("tr").Length(); n > bestRows {
			best, bestRows = sel, n
		}
	})
	if best == nil {
		return nil, fmt.Errorf("htmltable: no <table> element in document")
	}

	var rows [][]string
	best.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cleanText(cell.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("htmltable: table has no rows")
	}
	return &Table{rows: rows}, nil
}

// Read returns the next record, io.EOF when the table is exhausted.
func (t *Table) Read() ([]string, error) {
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}

// Line reports the 1-based ordinal of the record most recently read.
func (t *Table) Line() int { return t.pos }

// Peek returns up to n upcoming records without consuming them. The
// reader samples these for type guessing.
func (t *Table) Peek(n int) [][]string {
	rest := t.rows[t.pos:]
	if n > 0 && len(rest) > n {
		rest = rest[:n]
	}
	return rest
}

// Len is the total number of records in the table.
func (t *Table) Len() int { return len(t.rows) }

// cleanText collapses runs of whitespace, including newlines from
// pretty-printed markup, into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
