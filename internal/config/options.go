package config

// Options is a loosely typed option bag, usually decoded from a JSON
// job document. Getters coerce the JSON shapes (float64 numbers, []any
// lists, map[string]any objects) and fall back to the given default
// when a key is absent or has the wrong shape.
type Options map[string]any

// Bool returns the bool at key, or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the integer at key, or def. JSON numbers decode as
// float64 and are accepted when integral.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return def
}

// String returns the string at key, or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Rune returns the single character at key, or def. Multi-character
// strings fall back to def.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o[key].(string)
	if !ok {
		return def
	}
	rs := []rune(s)
	if len(rs) != 1 {
		return def
	}
	return rs[0]
}

// Strings returns the string list at key, or nil. Non-string elements
// are skipped.
func (o Options) Strings(key string) []string {
	return toStrings(o[key])
}

// StringMap returns the string-to-string mapping at key, or nil.
func (o Options) StringMap(key string) map[string]string {
	switch v := o[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, e := range v {
			if s, ok := e.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// SpecMap returns the field-to-step-list mapping at key, or nil. This
// is the shape processor specs take in a job document.
func (o Options) SpecMap(key string) map[string][]string {
	switch v := o[key].(type) {
	case map[string][]string:
		return v
	case map[string]any:
		out := make(map[string][]string, len(v))
		for field, steps := range v {
			out[field] = toStrings(steps)
		}
		return out
	}
	return nil
}

// Any returns the raw value at key.
func (o Options) Any(key string) any { return o[key] }

func toStrings(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
