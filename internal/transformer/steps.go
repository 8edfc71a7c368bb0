// Package transformer compiles per-field processor specs into decode
// chains. A spec is an ordered list of named steps; compilation turns
// it into one function applied to every raw value of that field.
package transformer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Step transforms or validates one field value. Returning stop=true
// short-circuits the remaining steps in the chain; returning an error
// fails the row the value came from.
type Step func(v any) (out any, stop bool, err error)

// steps is the leaf capability registry. Step names are what processor
// specs refer to; the set is fixed at build time.
var steps = map[string]Step{
	"optional": stepOptional,
	"required": stepRequired,
	"integer":  stepInteger,
	"decimal":  stepDecimal,
	"trim":     stepTrim,
	"boolean":  stepBoolean,
	"date":     stepDate,
}

// StepNames lists the registered step names sorted, for error messages
// and CLI help.
func StepNames() []string {
	names := make([]string, 0, len(steps))
	for n := range steps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// stepOptional passes nulls through untouched and stops the chain for
// them, so later steps only ever see non-null values.
func stepOptional(v any) (any, bool, error) {
	if v == nil {
		return nil, true, nil
	}
	return v, false, nil
}

// stepRequired rejects nulls.
func stepRequired(v any) (any, bool, error) {
	if v == nil {
		return nil, false, fmt.Errorf("null value")
	}
	return v, false, nil
}

func stepInteger(v any) (any, bool, error) {
	s, err := wantString("integer", v)
	if err != nil {
		return nil, false, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("integer: %q", s)
	}
	return n, false, nil
}

// stepDecimal parses a decimal number. A comma fraction separator is
// accepted when no dot is present, matching the guesser's pattern.
func stepDecimal(v any) (any, bool, error) {
	s, err := wantString("decimal", v)
	if err != nil {
		return nil, false, err
	}
	norm := s
	if strings.Contains(norm, ",") && !strings.Contains(norm, ".") {
		norm = strings.Replace(norm, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return nil, false, fmt.Errorf("decimal: %q", s)
	}
	return f, false, nil
}

// stepTrim strips surrounding whitespace. A value that trims to the
// empty string becomes null, so a following optional step can pass it
// through.
func stepTrim(v any) (any, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	s, err := wantString("trim", v)
	if err != nil {
		return nil, false, err
	}
	t := strings.TrimSpace(s)
	if t == "" {
		return nil, false, nil
	}
	return t, false, nil
}

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}
)

func stepBoolean(v any) (any, bool, error) {
	s, err := wantString("boolean", v)
	if err != nil {
		return nil, false, err
	}
	switch k := strings.ToLower(strings.TrimSpace(s)); {
	case truthy[k]:
		return true, false, nil
	case falsy[k]:
		return false, false, nil
	default:
		return nil, false, fmt.Errorf("boolean: %q", s)
	}
}

// dateLayouts are tried in order; first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
}

func stepDate(v any) (any, bool, error) {
	s, err := wantString("date", v)
	if err != nil {
		return nil, false, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, false, nil
		}
	}
	return nil, false, fmt.Errorf("date: %q", s)
}

func wantString(step string, v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%s: null value", step)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %T", step, v)
	}
	return s, nil
}
