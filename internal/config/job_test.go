package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeJob(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write job: %v", err)
	}
	return path
}

func TestLoadJob(t *testing.T) {
	t.Parallel()

	path := writeJob(t, `{
		"job": "daily",
		"source": {"kind": "http", "url": "https://example.com/data.csv"},
		"reader": {"header": true, "limit": 500},
		"storage": {"kind": "postgres", "dsn": "postgresql://u:p@h/db", "table": "rows", "batch_size": 100}
	}`)

	j, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if j.Job != "daily" || j.Source.Kind != "http" || j.Source.URL == "" {
		t.Fatalf("job=%+v", j)
	}
	if !j.Reader.Bool("header", false) || j.Reader.Int("limit", 0) != 500 {
		t.Fatalf("reader=%v", j.Reader)
	}
	if j.Storage.Table != "rows" || j.Storage.BatchSize != 100 {
		t.Fatalf("storage=%+v", j.Storage)
	}
}

func TestLoadJobRejectsUnknownTopLevelField(t *testing.T) {
	t.Parallel()

	path := writeJob(t, `{"job": "x", "sorce": {"kind": "file"}}`)
	if _, err := LoadJob(path); err == nil || !strings.Contains(err.Error(), "decode job config") {
		t.Fatalf("err=%v, want a decode failure for the typo", err)
	}
}

func TestLoadJobMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadJob(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("want error for a missing document")
	}
}

func TestSourceLocator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  Source
		want string
	}{
		{Source{Kind: "http", URL: "https://x/y.csv", Path: "ignored"}, "https://x/y.csv"},
		{Source{Kind: "file", Path: "/data/y.csv"}, "/data/y.csv"},
		{Source{}, ""},
	}
	for _, tc := range tests {
		if got := tc.src.Locator(); got != tc.want {
			t.Fatalf("Locator(%+v)=%q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestValidateJob(t *testing.T) {
	t.Parallel()

	fileSrc := Source{Kind: "file", Path: "in.csv"}

	tests := []struct {
		name      string
		job       Job
		wantPaths []string
		wantSev   Severity
	}{
		{
			name: "valid_job_has_no_issues",
			job: Job{
				Source:  fileSrc,
				Reader:  Options{"header": true, "limit": float64(10)},
				Storage: Storage{Kind: "sqlite", DSN: "file:x.db", Table: "t"},
			},
		},
		{
			name:      "file_source_needs_a_path",
			job:       Job{Source: Source{Kind: "file"}},
			wantPaths: []string{"source.path"},
			wantSev:   SeverityError,
		},
		{
			name:      "http_source_needs_an_http_url",
			job:       Job{Source: Source{Kind: "http", URL: "ftp://x/y"}},
			wantPaths: []string{"source.url"},
			wantSev:   SeverityError,
		},
		{
			name:      "source_kind_required",
			job:       Job{},
			wantPaths: []string{"source.kind"},
			wantSev:   SeverityError,
		},
		{
			name:      "unknown_source_kind",
			job:       Job{Source: Source{Kind: "ftp"}},
			wantPaths: []string{"source.kind"},
			wantSev:   SeverityError,
		},
		{
			name:      "unknown_reader_key_warns",
			job:       Job{Source: fileSrc, Reader: Options{"headr": true}},
			wantPaths: []string{"reader.headr"},
			wantSev:   SeverityWarn,
		},
		{
			name:      "negative_limit",
			job:       Job{Source: fileSrc, Reader: Options{"limit": float64(-1)}},
			wantPaths: []string{"reader.limit"},
			wantSev:   SeverityError,
		},
		{
			name:      "bad_preference",
			job:       Job{Source: fileSrc, Reader: Options{"preference": "tsv"}},
			wantPaths: []string{"reader.preference"},
			wantSev:   SeverityError,
		},
		{
			name:      "storage_kind_requires_dsn_and_table",
			job:       Job{Source: fileSrc, Storage: Storage{Kind: "postgres"}},
			wantPaths: []string{"storage.dsn", "storage.table"},
			wantSev:   SeverityError,
		},
		{
			name:      "negative_batch_size",
			job:       Job{Source: fileSrc, Storage: Storage{Kind: "sqlite", DSN: "d", Table: "t", BatchSize: -5}},
			wantPaths: []string{"storage.batch_size"},
			wantSev:   SeverityError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			issues := ValidateJob(tc.job)
			var paths []string
			for _, iss := range issues {
				paths = append(paths, iss.Path)
				if iss.Severity != tc.wantSev {
					t.Fatalf("issue %+v, want severity %s", iss, tc.wantSev)
				}
			}
			if !reflect.DeepEqual(paths, tc.wantPaths) {
				t.Fatalf("issue paths=%v, want %v", paths, tc.wantPaths)
			}
		})
	}
}
