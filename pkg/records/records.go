// Package records defines the row values a read session produces.
package records

// Record is a name-to-value mapping for one decoded row.
type Record map[string]any

// Row is one decoded row.
//
// In vector mode Names is nil and Values holds the decoded fields in
// input order. In map mode Names runs parallel to Values and carries the
// resolved field names.
type Row struct {
	// Line is the 1-based physical input line on which the record began.
	// Sources without line positions report the record ordinal instead.
	Line int

	Names  []string
	Values []any
}

// Map returns the name-to-value view of the row, or nil in vector mode.
// Extra unnamed values are not included.
func (r *Row) Map() Record {
	if r.Names == nil {
		return nil
	}
	m := make(Record, len(r.Names))
	for i, n := range r.Names {
		if i < len(r.Values) {
			m[n] = r.Values[i]
		} else {
			m[n] = nil
		}
	}
	return m
}

// Get returns the value bound to name. The second result is false in
// vector mode or when the name is not among the row's field names.
func (r *Row) Get(name string) (any, bool) {
	for i, n := range r.Names {
		if n == name {
			if i < len(r.Values) {
				return r.Values[i], true
			}
			return nil, true
		}
	}
	return nil, false
}
