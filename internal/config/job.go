package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Job is a reader job document, decoded from JSON. It bundles an input
// source, the reader options, and an optional storage sink.
type Job struct {
	Job     string  `json:"job"`
	Source  Source  `json:"source"`
	Reader  Options `json:"reader"`
	Storage Storage `json:"storage"`
}

// Source locates the input.
type Source struct {
	Kind string `json:"kind"` // "file" or "http"
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Locator returns the single-string form of the source.
func (s Source) Locator() string {
	if s.Kind == "http" {
		return s.URL
	}
	return s.Path
}

// Storage selects an optional sink for the produced rows.
type Storage struct {
	Kind      string `json:"kind"` // "postgres", "sqlite", "mssql"
	DSN       string `json:"dsn"`
	Table     string `json:"table"`
	BatchSize int    `json:"batch_size"`
}

// LoadJob reads and decodes a job document.
func LoadJob(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open job config: %w", err)
	}
	defer f.Close()

	var j Job
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode job config %s: %w", path, err)
	}
	return j, nil
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Issue is one validation finding with the config path it refers to.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// readerKeys are the recognized reader option keys in a job document.
var readerKeys = map[string]bool{
	"preference":   true,
	"header":       true,
	"field_names":  true,
	"specs":        true,
	"encoding":     true,
	"guess_types":  true,
	"strict":       true,
	"greedy":       true,
	"counter_step": true,
	"silent":       true,
	"limit":        true,
	"lookahead":    true,
	"failure_cap":  true,
	"lazy_quotes":  true,
}

// ValidateJob checks a job document for problems the reader would only
// notice later, or not at all. Errors make the job unrunnable; warnings
// flag suspicious but legal input.
func ValidateJob(j Job) []Issue {
	var issues []Issue
	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarn, path, fmt.Sprintf(format, a...)})
	}

	switch j.Source.Kind {
	case "file":
		if j.Source.Path == "" {
			errf("source.path", "required for kind=file")
		}
	case "http":
		if j.Source.URL == "" {
			errf("source.url", "required for kind=http")
		} else if !strings.HasPrefix(j.Source.URL, "http://") && !strings.HasPrefix(j.Source.URL, "https://") {
			errf("source.url", "not an http(s) URL: %s", j.Source.URL)
		}
	case "":
		errf("source.kind", "required (file or http)")
	default:
		errf("source.kind", "unknown kind %q", j.Source.Kind)
	}

	for key := range j.Reader {
		if !readerKeys[key] {
			warnf("reader."+key, "unknown option (ignored)")
		}
	}
	for _, key := range []string{"counter_step", "limit", "lookahead", "failure_cap"} {
		if j.Reader.Int(key, 0) < 0 {
			errf("reader."+key, "must not be negative")
		}
	}
	if p := j.Reader.Any("preference"); p != nil {
		pref, err := ParsePreference(p)
		if err == nil {
			_, err = pref.ResolveDialect(0)
		}
		if err != nil {
			errf("reader.preference", "%v", err)
		}
	}

	if j.Storage.Kind != "" {
		if j.Storage.DSN == "" {
			errf("storage.dsn", "required when storage.kind is set")
		}
		if j.Storage.Table == "" {
			errf("storage.table", "required when storage.kind is set")
		}
		if j.Storage.BatchSize < 0 {
			errf("storage.batch_size", "must not be negative")
		}
	}
	return issues
}
