// Command tabread reads tabular text of unknown shape and emits the
// decoded rows: NDJSON on stdout by default, or batched loads into a
// storage backend.
//
// The input may be a local path or an http(s) URL; everything about
// its shape (charset, delimiter, column types) is inferred unless
// pinned by configuration. Configuration arrives from three layers,
// highest priority first:
//
//  1. command-line flags
//  2. TABREAD_* environment variables (DSN, table, backends)
//  3. a JSON job document (-config)
//
// Exit codes: 0 on success, 1 on a runtime failure, 2 on usage errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"tabread/internal/config"
	"tabread/internal/datasource/httpds"
	"tabread/internal/metrics"
	"tabread/internal/metrics/datadog"
	"tabread/internal/probe"
	"tabread/internal/reader"
	"tabread/internal/storage"
	"tabread/pkg/records"

	// register all storage backends with the factory; the job config
	// selects which one to use.
	_ "tabread/internal/storage/all"
)

const defaultBatchSize = 500

// envOverrides are environment-level settings, applied between the job
// document and the command-line flags.
type envOverrides struct {
	DSN            string `envconfig:"DSN"`
	Table          string `envconfig:"TABLE"`
	Backend        string `envconfig:"BACKEND"`
	MetricsBackend string `envconfig:"METRICS_BACKEND"`
	MetricsTags    string `envconfig:"METRICS_TAGS"`
}

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

func runMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tabread", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		flagConfig = fs.String("config", "", "job config JSON path")
		flagIn     = fs.String("in", "", "URL or path of the input; overrides the source in -config")

		flagHeader     = fs.Bool("header", false, "treat the first row as field names")
		flagNames      = fs.String("names", "", "comma-separated field names (map mode without a header)")
		flagEncoding   = fs.String("encoding", "", "force a charset instead of detecting one")
		flagPreference = fs.String("preference", "", "dialect preset: standard|excel|excel-variant|tab-delimited")
		flagDelimiter  = fs.String("delimiter", "", "explicit field delimiter (single character)")
		flagNoGuess    = fs.Bool("no-guess-types", false, "disable per-column type guessing")
		flagLenient    = fs.Bool("lenient", false, "skip bad rows instead of failing the read")
		flagSilent     = fs.Bool("silent", false, "suppress per-row failure logging in lenient mode")
		flagLimit      = fs.Int("limit", 0, "stop once a record begins past this input line (0 = off)")
		flagLookahead  = fs.Int("lookahead", 0, "sample lines for inference (0 = default)")
		flagFailCap    = fs.Int("failure-cap", 0, "consecutive lenient failures before giving up (0 = default)")
		flagLazyQuotes = fs.Bool("lazy-quotes", false, "tolerate stray quotes in fields")
		flagStep       = fs.Int("counter-step", 0, "log progress every N produced rows (0 = off)")
		flagGreedy     = fs.Bool("greedy", false, "drive rows through the callback view instead of the iterator")

		flagBackend = fs.String("backend", "", "storage backend kind: postgres|sqlite|mssql (empty = print NDJSON)")
		flagDSN     = fs.String("dsn", "", "storage DSN")
		flagTable   = fs.String("table", "", "storage target table")
		flagBatch   = fs.Int("batch", 0, "rows per insert batch (0 = default 500)")

		flagMetrics  = fs.String("metrics", "", "metrics backend: datadog|none")
		flagValidate = fs.Bool("validate", false, "validate the configuration and exit")
		flagTimeout  = fs.Duration("timeout", 0, "bound the whole run (0 = none)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	var job config.Job
	if *flagConfig != "" {
		var err error
		job, err = config.LoadJob(*flagConfig)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
	}
	if job.Reader == nil {
		job.Reader = config.Options{}
	}

	var env envOverrides
	if err := envconfig.Process("tabread", &env); err != nil {
		fmt.Fprintf(stderr, "read environment: %v\n", err)
		return 1
	}
	applyEnvOverrides(&job, env)

	metricsBackend := env.MetricsBackend
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			job.Source = sourceFor(*flagIn)
		case "header":
			job.Reader["header"] = *flagHeader
		case "names":
			job.Reader["field_names"] = splitCSV(*flagNames)
		case "encoding":
			job.Reader["encoding"] = *flagEncoding
		case "preference":
			job.Reader["preference"] = *flagPreference
		case "delimiter":
			job.Reader["preference"] = map[string]any{"comma": *flagDelimiter}
		case "no-guess-types":
			job.Reader["guess_types"] = !*flagNoGuess
		case "lenient":
			job.Reader["strict"] = !*flagLenient
		case "silent":
			job.Reader["silent"] = *flagSilent
		case "limit":
			job.Reader["limit"] = *flagLimit
		case "lookahead":
			job.Reader["lookahead"] = *flagLookahead
		case "failure-cap":
			job.Reader["failure_cap"] = *flagFailCap
		case "lazy-quotes":
			job.Reader["lazy_quotes"] = *flagLazyQuotes
		case "counter-step":
			job.Reader["counter_step"] = *flagStep
		case "greedy":
			job.Reader["greedy"] = *flagGreedy
		case "backend":
			job.Storage.Kind = *flagBackend
		case "dsn":
			job.Storage.DSN = *flagDSN
		case "table":
			job.Storage.Table = *flagTable
		case "batch":
			job.Storage.BatchSize = *flagBatch
		case "metrics":
			metricsBackend = *flagMetrics
		}
	})

	if *flagConfig == "" && job.Source.Locator() == "" {
		fmt.Fprintln(stderr, "usage: tabread -in <path-or-url> [flags], or -config <job.json>")
		fs.Usage()
		return 2
	}

	issues := config.ValidateJob(job)
	invalid := false
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			invalid = true
		}
	}
	if invalid {
		return 1
	}
	if *flagValidate {
		logger.Info("configuration valid", "job", job.Job)
		return 0
	}

	closeMetrics := initMetrics(metricsBackend, jobName(job), env.MetricsTags, logger)
	defer closeMetrics()

	opt, err := readerOptions(job.Reader)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if opt.CounterStep > 0 {
		opt.OnProgress = func(rows int64) { logger.Info("progress", "rows", rows) }
	}
	if opt.Lenient && !opt.Silent {
		opt.OnRowError = func(line int, err error) {
			logger.Warn("row skipped", "line", line, "err", err)
		}
	}

	ctx := context.Background()
	if *flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *flagTimeout)
		defer cancel()
	}

	start := time.Now()
	r, err := reader.OpenLocator(ctx, job.Source.Locator(), opt)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = r.Close() }()

	if job.Storage.Kind == "" {
		if err := emitRows(r, stdout, opt.Greedy); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		logger.Info("done", "rows", r.Rows(), "elapsed", time.Since(start).Truncate(time.Millisecond))
		return 0
	}

	repo, err := storage.New(ctx, storage.Config{Kind: job.Storage.Kind, DSN: job.Storage.DSN})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer repo.Close()

	total, err := loadRows(ctx, r, repo, job.Storage)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	logger.Info("loaded", "rows", total, "table", job.Storage.Table,
		"backend", job.Storage.Kind, "elapsed", time.Since(start).Truncate(time.Millisecond))
	return 0
}

// sourceFor classifies a locator flag value into a job source.
func sourceFor(locator string) config.Source {
	if httpds.IsURL(locator) {
		return config.Source{Kind: "http", URL: locator}
	}
	return config.Source{Kind: "file", Path: locator}
}

func jobName(j config.Job) string {
	if j.Job != "" {
		return j.Job
	}
	return "tabread"
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyEnvOverrides(j *config.Job, env envOverrides) {
	if env.Backend != "" {
		j.Storage.Kind = env.Backend
	}
	if env.DSN != "" {
		j.Storage.DSN = env.DSN
	}
	if env.Table != "" {
		j.Storage.Table = env.Table
	}
}

// readerOptions maps the job document's reader block onto the engine
// options. The document's guess_types and strict keys default to true;
// their absence selects guessing and the strict policy.
func readerOptions(o config.Options) (reader.Options, error) {
	pref, err := config.ParsePreference(o.Any("preference"))
	if err != nil {
		return reader.Options{}, err
	}
	return reader.Options{
		Preference:   pref,
		Header:       o.Bool("header", false),
		FieldNames:   o.Strings("field_names"),
		Specs:        o.SpecMap("specs"),
		Encoding:     o.String("encoding", ""),
		NoGuessTypes: !o.Bool("guess_types", true),
		Lenient:      !o.Bool("strict", true),
		Greedy:       o.Bool("greedy", false),
		CounterStep:  o.Int("counter_step", 0),
		Silent:       o.Bool("silent", false),
		Limit:        o.Int("limit", 0),
		Lookahead:    o.Int("lookahead", 0),
		FailureCap:   o.Int("failure_cap", 0),
		LazyQuotes:   o.Bool("lazy_quotes", false),
	}, nil
}

// initMetrics wires the requested metrics backend into the global
// facade and returns the matching shutdown hook. Initialization
// failures disable metrics rather than failing the run.
func initMetrics(backendName, job, tagsCSV string, logger *slog.Logger) func() {
	switch backendName {
	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: job,
			Tags:    datadog.ParseTagsCSV(tagsCSV),
		})
		if err != nil {
			logger.Warn("metrics init failed; metrics disabled", "err", err)
			return func() {}
		}
		logger.Info("metrics enabled", "backend", backendName, "job", job)
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logger.Warn("metrics close", "err", err)
			}
			metrics.SetBackend(nil)
		}
	case "", "none":
		return func() {}
	default:
		logger.Warn("unknown metrics backend; metrics disabled", "backend", backendName)
		return func() {}
	}
}

// emitRows streams every produced row to out as NDJSON: a JSON object
// per row in map mode, a JSON array in vector mode. greedy selects the
// callback view over the iterator; both produce identical output.
func emitRows(r *reader.Reader, out io.Writer, greedy bool) error {
	enc := json.NewEncoder(out)
	if greedy {
		next := r.RowFunc()
		for {
			row, err := next()
			if err != nil {
				return err
			}
			if row == nil {
				return nil
			}
			if err := enc.Encode(rowValue(row)); err != nil {
				return err
			}
		}
	}
	for row, err := range r.All() {
		if err != nil {
			return err
		}
		if err := enc.Encode(rowValue(row)); err != nil {
			return err
		}
	}
	return nil
}

func rowValue(row *records.Row) any {
	if row.Names != nil {
		return row.Map()
	}
	return row.Values
}

// loadRows drives the whole session into the storage backend in
// batches of cfg.BatchSize rows, creating the target table first.
func loadRows(ctx context.Context, r *reader.Reader, repo storage.Repository, cfg config.Storage) (int64, error) {
	cols, err := storageColumns(r.Names(), r.ColumnSpecs())
	if err != nil {
		return 0, err
	}
	if err := repo.EnsureTable(ctx, cfg.Table, cols); err != nil {
		return 0, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var total int64
	batch := make([][]any, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.InsertRows(ctx, cfg.Table, cols, batch)
		if err != nil {
			return err
		}
		total += n
		metrics.IncCounter(metrics.MetricStoreRowsTotal, float64(n), metrics.Labels{"kind": cfg.Kind})
		metrics.IncCounter(metrics.MetricBatchesTotal, 1, nil)
		batch = batch[:0]
		return nil
	}

	for row, err := range r.All() {
		if err != nil {
			return total, err
		}
		batch = append(batch, storage.CanonicalRow(padTo(row.Values, len(cols))))
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	return total, flush()
}

// storageColumns derives the sink columns from the session's resolved
// names and column specs: normalized header names in map mode,
// positional col_N names in vector mode, with the column type taken
// from the column spec's decoding step.
func storageColumns(names []string, specs [][]string) ([]storage.Column, error) {
	width := len(specs)
	if len(names) > width {
		width = len(names)
	}
	if width == 0 {
		return nil, fmt.Errorf("cannot derive sink columns: input sampled no rows")
	}

	cols := make([]storage.Column, width)
	seen := map[string]int{}
	for i := range cols {
		name := fmt.Sprintf("col_%d", i)
		if i < len(names) {
			name = probe.NormalizeFieldName(names[i])
		}
		// Normalization can collide distinct header names; suffix the
		// later ones.
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		var spec []string
		if i < len(specs) {
			spec = specs[i]
		}
		cols[i] = storage.Column{Name: name, Kind: kindForSpec(spec)}
	}
	return cols, nil
}

// kindForSpec maps a processor spec to the storage kind of the values
// it produces.
func kindForSpec(spec []string) storage.Kind {
	for _, step := range spec {
		switch step {
		case "integer":
			return storage.KindInteger
		case "decimal":
			return storage.KindReal
		case "boolean":
			return storage.KindBool
		case "date":
			return storage.KindTime
		}
	}
	return storage.KindText
}

func padTo(values []any, width int) []any {
	if len(values) == width {
		return values
	}
	out := make([]any, width)
	copy(out, values)
	return out
}
