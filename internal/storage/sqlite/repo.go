// Package sqlite implements the storage.Repository sink on an embedded
// SQLite database, for local loads without a server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tabread/internal/storage"
)

// Repo is the SQLite sink.
//
// SQLite has no dedicated timestamp type; modernc.org/sqlite stores
// whatever affinity the bound value brings. Timestamps are therefore
// bound as RFC3339Nano strings, which round-trip reliably and stay
// readable in ad-hoc queries. Booleans are bound as 0/1.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens (or creates) the database file named by the DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureTable creates the target table if it does not exist.
func (r *Repo) EnsureTable(ctx context.Context, table string, cols []storage.Column) error {
	if err := storage.ValidateTarget(table, cols); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, buildCreateSQL(table, cols)); err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", table, err)
	}
	return nil
}

// InsertRows appends one batch with a single multi-row INSERT.
func (r *Repo) InsertRows(ctx context.Context, table string, cols []storage.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := storage.ValidateTarget(table, cols); err != nil {
		return 0, err
	}
	q, args := buildInsertSQL(table, cols, rows)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
	}
	return res.RowsAffected()
}

// columnType maps a storage kind to its SQLite affinity.
func columnType(k storage.Kind) string {
	switch k {
	case storage.KindInteger, storage.KindBool:
		return "INTEGER"
	case storage.KindReal:
		return "REAL"
	default:
		// Text affinity also covers timestamps, stored as RFC3339Nano.
		return "TEXT"
	}
}

// buildCreateSQL generates the CREATE TABLE IF NOT EXISTS statement.
func buildCreateSQL(table string, cols []storage.Column) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(columnType(c.Kind))
	}
	b.WriteString(");")
	return b.String()
}

// buildInsertSQL constructs a single INSERT statement and its args,
// binding every value through bindValue. Pure, for tests.
func buildInsertSQL(table string, cols []storage.Column, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c.Name))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			var v any
			if j < len(row) {
				v = row[j]
			}
			args = append(args, bindValue(v))
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), args
}

// bindValue maps the canonical value set to what the sqlite driver
// binds without surprises.
func bindValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
