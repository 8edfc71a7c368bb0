// Package mssql implements the storage.Repository sink for Microsoft
// SQL Server through the database/sql "sqlserver" driver.
//
// Note on driver registration: this package does not blank-import a
// driver. storage/all registers github.com/microsoft/go-mssqldb; a
// binary importing backends individually must register a "sqlserver"
// driver itself.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tabread/internal/storage"
)

// Repo is the SQL Server sink.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New opens a connection and validates connectivity via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

// EnsureTable creates the target table when it is missing. SQL Server
// has no CREATE TABLE IF NOT EXISTS; the statement guards on OBJECT_ID.
func (r *Repo) EnsureTable(ctx context.Context, table string, cols []storage.Column) error {
	if err := storage.ValidateTarget(table, cols); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, buildCreateSQL(table, cols)); err != nil {
		return fmt.Errorf("mssql: create table %s: %w", table, err)
	}
	return nil
}

// InsertRows appends one batch with a single multi-row INSERT using
// ordinal @p parameters.
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
		return 0, fmt.Errorf("mssql: insert into %s: %w", table, err)
	}
	return res.RowsAffected()
}

// columnType maps a storage kind to its SQL Server type.
func columnType(k storage.Kind) string {
	switch k {
	case storage.KindInteger:
		return "BIGINT"
	case storage.KindReal:
		return "FLOAT"
	case storage.KindBool:
		return "BIT"
	case storage.KindTime:
		return "DATETIMEOFFSET"
	default:
		return "NVARCHAR(MAX)"
	}
}

// buildCreateSQL generates the guarded CREATE TABLE statement. Pure,
// for tests.
func buildCreateSQL(table string, cols []storage.Column) string {
	var b strings.Builder
	b.WriteString("IF OBJECT_ID(N'")
	b.WriteString(strings.ReplaceAll(table, "'", "''"))
	b.WriteString("', N'U') IS NULL CREATE TABLE ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(columnType(c.Kind))
		b.WriteString(" NULL")
	}
	b.WriteString(");")
	return b.String()
}

// buildInsertSQL constructs a single INSERT statement with ordinal
// parameters (@p1, @p2, ...) and its args. Pure, for tests.
func buildInsertSQL(table string, cols []storage.Column, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c.Name))
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
			fmt.Fprintf(&b, "@p%d", p)
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

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent returns a bracket-quoted identifier for
// schema-qualified names.
//
// Example:
//
//	"dbo.imports" -> [dbo].[imports]
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}
