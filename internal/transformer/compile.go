package transformer

import (
	"strings"

	"tabread/internal/config"
)

// Chain is the compiled decoder for one field. Chains are immutable and
// shared across all rows of a session.
type Chain func(v any) (any, error)

// Passthrough is the default chain for fields with no spec: the raw
// value comes back unchanged and null stays null.
func Passthrough(v any) (any, error) { return v, nil }

// Compile composes the named steps, in listed order, into a single
// decoder for field. The first step runs first and may short-circuit;
// later steps only see the value when no earlier step stopped. An
// unknown step name is a configuration error, surfaced before any row
// is read.
func Compile(field string, names []string) (Chain, error) {
	if len(names) == 0 {
		return Passthrough, nil
	}
	compiled := make([]Step, len(names))
	for i, n := range names {
		s, ok := steps[n]
		if !ok {
			return nil, config.Errorf("specs."+field, "unknown step %q (known: %s)",
				n, strings.Join(StepNames(), ", "))
		}
		compiled[i] = s
	}
	return func(v any) (any, error) {
		var err error
		var stop bool
		for _, s := range compiled {
			v, stop, err = s(v)
			if err != nil {
				return nil, err
			}
			if stop {
				return v, nil
			}
		}
		return v, nil
	}, nil
}
