package config

import "fmt"

// ConfigError reports an invalid reader or job configuration. It is
// raised before any row is produced and is never retried.
type ConfigError struct {
	// Field names the offending option or config path, e.g. "preference"
	// or "specs.age".
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// Errorf builds a ConfigError for field with a formatted message.
func Errorf(field, format string, a ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, a...)}
}
