package probe

import "regexp"

// Scalar type predicates in priority order. Only these two types are
// ever guessed; anything richer belongs in explicit processor specs.
var (
	integerPattern = regexp.MustCompile(`^[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?[0-9]+([.,][0-9]*)?$`)
)

var typeCandidates = []struct {
	step  string
	match func(string) bool
}{
	{"integer", integerPattern.MatchString},
	{"decimal", decimalPattern.MatchString},
}

// GuessColumnSpecs narrows a candidate type set per column of the
// tokenized sample and returns one guessed processor spec, or nil, per
// column.
//
// A null (empty) or absent value neither disqualifies a candidate nor
// counts as evidence; every non-null value must match a candidate's
// predicate for it to survive. A column guesses only when non-null
// values cover more than half the sample rows; the highest-priority
// survivor wins and is wrapped as ["optional", type] so nulls pass
// through undecoded.
func GuessColumnSpecs(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	specs := make([][]string, width)
	for col := 0; col < width; col++ {
		alive := make([]bool, len(typeCandidates))
		for i := range alive {
			alive[i] = true
		}
		nonNull := 0
		for _, row := range rows {
			if col >= len(row) || row[col] == "" {
				continue
			}
			nonNull++
			for i, cand := range typeCandidates {
				if alive[i] && !cand.match(row[col]) {
					alive[i] = false
				}
			}
		}
		if nonNull*2 <= len(rows) {
			continue
		}
		for i, cand := range typeCandidates {
			if alive[i] {
				specs[col] = []string{"optional", cand.step}
				break
			}
		}
	}
	return specs
}
