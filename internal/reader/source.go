package reader

import (
	"encoding/csv"
	"errors"
	"io"

	"tabread/internal/config"
)

// RecordSource is the tokenizer seam: one physical record per call.
// Nothing above this line touches delimiter or quoting mechanics.
type RecordSource interface {
	// Read returns the next record's fields, or io.EOF at end-of-input.
	// A malformed record is reported as a *csv.ParseError; the source
	// stays usable and the following call moves on to the next record.
	Read() ([]string, error)

	// Line reports the 1-based physical line on which the most recently
	// read record began. After a parse failure it reports the failed
	// record's first line. Sources without physical lines report record
	// ordinals.
	Line() int
}

// csvSource adapts encoding/csv to RecordSource.
type csvSource struct {
	r    *csv.Reader
	line int
}

func newCSVSource(in io.Reader, d config.Dialect, lazyQuotes bool) *csvSource {
	cr := csv.NewReader(in)
	cr.Comma = d.Comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazyQuotes
	return &csvSource{r: cr}
}

func (s *csvSource) Read() ([]string, error) {
	rec, err := s.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			s.line = pe.StartLine
		}
		return nil, err
	}
	line, _ := s.r.FieldPos(0)
	s.line = line
	return rec, nil
}

func (s *csvSource) Line() int { return s.line }
