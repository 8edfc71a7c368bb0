package config

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect is a fully resolved parse configuration. It is immutable for
// the lifetime of a read session.
//
// The stdlib tokenizer fixes the quote character to '"' and accepts both
// line terminators transparently, so Quote and Terminator exist for
// preset fidelity and validation rather than for tokenizer wiring. A
// dialect carrying an unsupported quote or terminator is rejected when
// the session is configured.
type Dialect struct {
	Comma      rune
	Quote      rune
	Terminator string
}

// Preference selects how the parse dialect is determined. Exactly three
// shapes implement it: an already resolved Dialect, a named Preset, and
// a Raw options record. Each shape resolves itself; callers never
// inspect the concrete type.
type Preference interface {
	// ResolveDialect produces the concrete dialect. guessed is the
	// delimiter guesser's result for the current input, 0 when there was
	// no confident guess.
	ResolveDialect(guessed rune) (Dialect, error)
}

// ResolveDialect returns the dialect unchanged.
func (d Dialect) ResolveDialect(rune) (Dialect, error) { return d, nil }

// Preset names a built-in dialect.
type Preset string

const (
	PresetStandard     Preset = "standard"
	PresetExcel        Preset = "excel"
	PresetExcelVariant Preset = "excel-variant"
	PresetTabDelimited Preset = "tab-delimited"
)

var presets = map[Preset]Dialect{
	PresetStandard:     {Comma: ',', Quote: '"', Terminator: "\r\n"},
	PresetExcel:        {Comma: ',', Quote: '"', Terminator: "\r\n"},
	PresetExcelVariant: {Comma: ';', Quote: '"', Terminator: "\r\n"},
	PresetTabDelimited: {Comma: '\t', Quote: '"', Terminator: "\r\n"},
}

// PresetNames lists the known preset names sorted, for error messages
// and CLI help.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for p := range presets {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// ResolveDialect maps the preset name to its built-in dialect. Unknown
// names are a configuration error.
func (p Preset) ResolveDialect(rune) (Dialect, error) {
	d, ok := presets[p]
	if !ok {
		return Dialect{}, Errorf("preference", "unknown preset %q (known: %s)",
			string(p), strings.Join(PresetNames(), ", "))
	}
	return d, nil
}

// Raw is a partial options record. Unset fields (zero values) are
// resolved from the delimiter guess and the standard defaults.
type Raw struct {
	Comma      rune
	Quote      rune
	Terminator string
}

// ResolveDialect prefers the explicit delimiter, then the guess, then
// comma; quote and terminator default when unset.
func (r Raw) ResolveDialect(guessed rune) (Dialect, error) {
	d := Dialect{Comma: r.Comma, Quote: r.Quote, Terminator: r.Terminator}
	if d.Comma == 0 {
		d.Comma = guessed
	}
	if d.Comma == 0 {
		d.Comma = ','
	}
	if d.Quote == 0 {
		d.Quote = '"'
	}
	if d.Terminator == "" {
		d.Terminator = "\r\n"
	}
	return d, nil
}

// ParsePreference builds a Preference from the shapes a JSON job or a
// CLI flag can carry: nil (all defaults), a preset name string, or a
// map with optional "comma", "quote" and "terminator" keys.
func ParsePreference(v any) (Preference, error) {
	switch pv := v.(type) {
	case nil:
		return Raw{}, nil
	case Preference:
		return pv, nil
	case string:
		if pv == "" {
			return Raw{}, nil
		}
		return Preset(pv), nil
	case map[string]any:
		var r Raw
		var err error
		if r.Comma, err = runeAt(pv, "comma"); err != nil {
			return nil, err
		}
		if r.Quote, err = runeAt(pv, "quote"); err != nil {
			return nil, err
		}
		if t, ok := pv["terminator"]; ok {
			s, ok := t.(string)
			if !ok {
				return nil, Errorf("preference.terminator", "want string, got %T", t)
			}
			r.Terminator = s
		}
		return r, nil
	default:
		return nil, Errorf("preference", "unsupported shape %T", v)
	}
}

func runeAt(m map[string]any, key string) (rune, error) {
	v, ok := m[key]
	if !ok {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, Errorf("preference."+key, "want single-character string, got %T", v)
	}
	rs := []rune(s)
	if len(rs) != 1 {
		return 0, Errorf("preference."+key, "want single character, got %q", s)
	}
	return rs[0], nil
}

// String renders the dialect for logs and probe output.
func (d Dialect) String() string {
	return fmt.Sprintf("comma=%q quote=%q terminator=%q", d.Comma, d.Quote, d.Terminator)
}
