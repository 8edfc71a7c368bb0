// Package storage is the sink layer: decoded rows go into a database
// table through a backend-agnostic Repository. Backends register
// themselves by kind; binaries blank-import storage/all (or individual
// backends) and select one by configuration.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config selects and parameterizes a storage backend.
//
// When to use:
//   - Fill Config and hand it to New when a run loads rows into a
//     database instead of printing them.
//
// Edge cases:
//   - Kind must match a registered backend kind; importing storage/all
//     makes "postgres", "sqlite" and "mssql" available.
//   - DSN is passed to the backend factory untouched; its format is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Kind is the backend-independent scalar type of a sink column. Each
// backend maps it to a concrete SQL type.
type Kind string

const (
	KindText    Kind = "text"
	KindInteger Kind = "integer"
	KindReal    Kind = "real"
	KindBool    Kind = "bool"
	KindTime    Kind = "time"
)

// Column describes one sink column.
type Column struct {
	Name string
	Kind Kind
}

// Repository is the sink interface the loader drives.
//
// IMPORTANT: the interface is intentionally minimal and covers only
// what loading needs: ensure the target exists, append batches, close.
// Each backend implements the semantics in its own idiomatic way
// (pgx pool exec, sqlite single-statement insert, mssql ordinal
// parameters).
type Repository interface {
	// EnsureTable creates the target table when it does not exist yet.
	// Every column is nullable; decoded rows may carry nulls anywhere.
	// Idempotent, safe to run at every load start.
	EnsureTable(ctx context.Context, table string, cols []Column) error

	// InsertRows appends one batch in a single statement and reports
	// how many rows the backend affected. An empty batch is a no-op.
	InsertRows(ctx context.Context, table string, cols []Column, rows [][]any) (int64, error)

	// Close releases backend resources (pools, connections).
	//
	// Edge cases:
	//   - Treat Close as "call once", at the end of the run.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend factory under a kind.
//
// When to use:
//   - Call Register from an init() in a backend package; the kind
//     string becomes the lookup key used by New.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. Duplicate registration is a wiring
//     bug; failing fast beats ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Kinds lists the registered backend kinds sorted, for error messages
// and CLI help.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New constructs a Repository using the registered backend factory.
//
// Edge cases:
//   - An empty or unregistered cfg.Kind is an error, not a panic; the
//     kind usually arrives from user configuration.
//
// Concurrency:
//   - Safe for concurrent use with Register. New takes a read lock
//     while selecting the factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// ValidateTarget rejects the argument shapes no backend can serve.
// Backends call it at the top of EnsureTable and InsertRows so the
// error reads the same everywhere.
func ValidateTarget(table string, cols []Column) error {
	if table == "" {
		return fmt.Errorf("storage: table is empty")
	}
	if len(cols) == 0 {
		return fmt.Errorf("storage: no columns")
	}
	return nil
}

// Canonical converts one decoded row value into a form every backend
// driver can bind. Decoded rows already carry nil, string, int64,
// float64, bool and time.Time; anything else flattens to a string.
//
// Backends must not assume a richer type set than this; the helper
// keeps bind behavior consistent across drivers.
func Canonical(v any) any {
	switch t := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return v
	case int:
		return int64(t)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(v)
	}
}

// CanonicalRow applies Canonical to every value, returning a new slice.
func CanonicalRow(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Canonical(v)
	}
	return out
}
