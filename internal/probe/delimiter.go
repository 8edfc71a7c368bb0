package probe

import (
	"regexp"
	"sort"
)

// delimiterCandidates in reporting order. The order never decides a
// winner; it only keeps the sort deterministic on exact ties.
var delimiterCandidates = []rune{',', ';', ' ', '\t'}

// quotedField matches a double-quoted substring with no embedded quote,
// non-greedy, so delimiters inside quoted fields are not counted.
var quotedField = regexp.MustCompile(`"[^"]*"`)

// GuessDelimiter picks the candidate separator whose per-line count
// stays most consistent with the first sample line.
//
// Per line, a candidate is inconsistent when its count there is zero or
// differs from the first line's count for that candidate. The candidate
// with the fewest inconsistent lines wins, but only when strictly ahead
// of the runner-up; a tie means no confident guess and ok is false, as
// does an empty sample. Callers fall back to comma.
func GuessDelimiter(lines []string) (delim rune, ok bool) {
	if len(lines) == 0 {
		return 0, false
	}
	stripped := make([]string, len(lines))
	for i, ln := range lines {
		stripped[i] = quotedField.ReplaceAllString(ln, "")
	}

	ref := countCandidates(stripped[0])
	drops := make([]int, len(delimiterCandidates))
	for _, ln := range stripped[1:] {
		counts := countCandidates(ln)
		for i := range delimiterCandidates {
			if counts[i] == 0 || counts[i] != ref[i] {
				drops[i]++
			}
		}
	}

	order := make([]int, len(delimiterCandidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return drops[order[a]] < drops[order[b]] })

	best := order[0]
	if len(order) > 1 && drops[best] == drops[order[1]] {
		return 0, false
	}
	return delimiterCandidates[best], true
}

func countCandidates(line string) []int {
	counts := make([]int, len(delimiterCandidates))
	for _, r := range line {
		for i, c := range delimiterCandidates {
			if r == c {
				counts[i]++
			}
		}
	}
	return counts
}
