// Package postgres implements the storage.Repository sink on a pgx
// connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"tabread/internal/storage"
)

// Repo is the Postgres sink.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	// registers the backend factory
	storage.Register("postgres", New)
}

// New connects a pool and verifies connectivity before the first load.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() { r.pool.Close() }

// EnsureTable creates the target table if it does not exist. Idempotent
// across runs.
func (r *Repo) EnsureTable(ctx context.Context, table string, cols []storage.Column) error {
	if err := storage.ValidateTarget(table, cols); err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, buildCreateSQL(table, cols)); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", table, err)
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
	sql, args := buildInsertSQL(table, cols, rows)
	cmd, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert into %s: %w", table, err)
	}
	return cmd.RowsAffected(), nil
}

// columnType maps a storage kind to its Postgres type.
func columnType(k storage.Kind) string {
	switch k {
	case storage.KindInteger:
		return "bigint"
	case storage.KindReal:
		return "double precision"
	case storage.KindBool:
		return "boolean"
	case storage.KindTime:
		return "timestamptz"
	default:
		return "text"
	}
}

// buildCreateSQL generates the CREATE TABLE IF NOT EXISTS statement.
// Pure, so the DDL shape is testable without a database. The table name
// is written as given; it may be schema-qualified.
func buildCreateSQL(table string, cols []storage.Column) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(columnType(c.Kind))
	}
	b.WriteString(");")
	return b.String()
}

// buildInsertSQL constructs a single INSERT statement and its args.
//
// Why this exists:
//   - It is pure and deterministic, so placeholder numbering and column
//     quoting are unit-testable without a database.
//
// Constraints:
//   - Short rows bind null for the missing trailing columns.
func buildInsertSQL(table string, cols []storage.Column, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			var v any
			if j < len(row) {
				v = row[j]
			}
			args = append(args, v)
			p++
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), args
}

// pgIdent double-quotes an identifier, escaping embedded quotes.
func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
