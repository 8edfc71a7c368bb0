package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tabread/internal/reader"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunMain_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		args          []string
		wantStderrSub string
	}{
		{
			name:          "missing_in",
			args:          []string{},
			wantStderrSub: "missing -in",
		},
		{
			name:          "unknown_flag",
			args:          []string{"-nope"},
			wantStderrSub: "flag provided but not defined",
		},
		{
			name:          "unknown_backend",
			args:          []string{"-in", "x.csv", "-backend", "oracle"},
			wantStderrSub: "unknown -backend",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			code := runMain(tc.args, &stdout, &stderr)
			if code != 2 {
				t.Fatalf("exit code=%d, want 2; stderr=%q", code, stderr.String())
			}
			if !strings.Contains(stderr.String(), tc.wantStderrSub) {
				t.Fatalf("stderr=%q, want contains %q", stderr.String(), tc.wantStderrSub)
			}
			if stdout.Len() != 0 {
				t.Fatalf("stdout=%q, want empty", stdout.String())
			}
		})
	}
}

func TestRunMain_ReportsCSVFile(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "people.csv", "id,name\n1,ada\n2,grace\n")

	var stdout, stderr bytes.Buffer
	code := runMain([]string{"-in", path, "-header", "-pretty=false"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code=%d, stderr=%q", code, stderr.String())
	}

	var rep report
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}

	if rep.Locator != path {
		t.Fatalf("locator=%q, want %q", rep.Locator, path)
	}
	if rep.Encoding == "" {
		t.Fatalf("encoding empty, want a detected name")
	}
	if rep.Dialect.Comma != "," {
		t.Fatalf("comma=%q, want \",\"", rep.Dialect.Comma)
	}
	if !rep.MapMode || !reflect.DeepEqual(rep.Names, []string{"id", "name"}) {
		t.Fatalf("names=%v map_mode=%v, want header names", rep.Names, rep.MapMode)
	}
	wantSpecs := [][]string{{"optional", "integer"}, nil}
	if !reflect.DeepEqual(rep.ColumnSpecs, wantSpecs) {
		t.Fatalf("column specs=%v, want %v", rep.ColumnSpecs, wantSpecs)
	}

	// The emitted job must pin this run's decisions.
	if rep.Job.Source.Kind != "file" || rep.Job.Source.Path != path {
		t.Fatalf("job source=%+v, want the probed file", rep.Job.Source)
	}
	if !rep.Job.Reader.Bool("header", false) {
		t.Fatalf("job reader=%v, want header pinned", rep.Job.Reader)
	}
	if rep.Job.Reader.Bool("guess_types", true) {
		t.Fatalf("job reader=%v, want guessing pinned off", rep.Job.Reader)
	}
	specs := rep.Job.Reader.SpecMap("specs")
	if !reflect.DeepEqual(specs["id"], []string{"optional", "integer"}) {
		t.Fatalf("pinned specs=%v, want id spec", specs)
	}
	if _, ok := specs["name"]; ok {
		t.Fatalf("pinned specs=%v, raw column must stay unkeyed", specs)
	}
}

func TestRunMain_SeedsStorage(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "nums.csv", "1,2\n3,4\n")

	var stdout, stderr bytes.Buffer
	code := runMain([]string{
		"-in", path, "-pretty=false",
		"-backend", "sqlite", "-table", "loads", "-job", "Nums Load",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code=%d, stderr=%q", code, stderr.String())
	}

	var rep report
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rep.Job.Job != "Nums Load" {
		t.Fatalf("job name=%q", rep.Job.Job)
	}
	st := rep.Job.Storage
	if st.Kind != "sqlite" || st.Table != "loads" || st.DSN != "file:tabread.db?cache=shared" {
		t.Fatalf("storage=%+v, want seeded sqlite block", st)
	}
}

func TestRunMain_DefaultTableFromJobName(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "nums.csv", "1,2\n")

	var stdout, stderr bytes.Buffer
	code := runMain([]string{
		"-in", path, "-pretty=false",
		"-backend", "postgres", "-dsn", "postgresql://real/dsn", "-job", "Daily Loads",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code=%d, stderr=%q", code, stderr.String())
	}

	var rep report
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rep.Job.Storage.Table != "daily_loads" {
		t.Fatalf("table=%q, want normalized job name", rep.Job.Storage.Table)
	}
	if rep.Job.Storage.DSN != "postgresql://real/dsn" {
		t.Fatalf("dsn=%q, want the -dsn override", rep.Job.Storage.DSN)
	}
}

func TestBuildReport_VectorMode(t *testing.T) {
	t.Parallel()

	r, err := reader.OpenChars(strings.NewReader("1;x\n2;y\n3;z\n"), reader.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	rep := buildReport("inline", r)
	if rep.MapMode || rep.Names != nil || rep.SuggestedNames != nil {
		t.Fatalf("vector report carries names: %+v", rep)
	}
	if rep.Dialect.Comma != ";" {
		t.Fatalf("comma=%q, want guessed \";\"", rep.Dialect.Comma)
	}
	if rep.Encoding != "utf-8" {
		t.Fatalf("encoding=%q, want utf-8 for a decoded stream", rep.Encoding)
	}

	// Vector specs pin by ordinal.
	specs := rep.Job.Reader.SpecMap("specs")
	if !reflect.DeepEqual(specs["0"], []string{"optional", "integer"}) {
		t.Fatalf("pinned specs=%v, want ordinal key 0", specs)
	}
	pref, ok := rep.Job.Reader.Any("preference").(map[string]any)
	if !ok || pref["comma"] != ";" {
		t.Fatalf("pinned preference=%v, want comma \";\"", rep.Job.Reader.Any("preference"))
	}
}

func TestBuildReport_SuggestedNames(t *testing.T) {
	t.Parallel()

	r, err := reader.OpenChars(strings.NewReader("User Name,Total $\nada,5\n"), reader.Options{Header: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	rep := buildReport("inline", r)
	want := []string{"user_name", "total"}
	if !reflect.DeepEqual(rep.SuggestedNames, want) {
		t.Fatalf("suggested=%v, want %v", rep.SuggestedNames, want)
	}
}

func TestDefaultDSN(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"postgres", "mssql", "sqlite"} {
		if defaultDSN(kind) == "" {
			t.Fatalf("no DSN template for %q", kind)
		}
	}
	if got := defaultDSN("oracle"); got != "" {
		t.Fatalf("defaultDSN(oracle)=%q, want empty", got)
	}
}
