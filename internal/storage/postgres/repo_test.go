package postgres

import (
	"reflect"
	"strings"
	"testing"

	"tabread/internal/storage"
)

func TestBuildCreateSQL_MapsKindsAndQuotesColumns(t *testing.T) {
	t.Parallel()

	cols := []storage.Column{
		{Name: "id", Kind: storage.KindInteger},
		{Name: "price", Kind: storage.KindReal},
		{Name: "ok", Kind: storage.KindBool},
		{Name: "seen", Kind: storage.KindTime},
		{Name: "name", Kind: storage.KindText},
	}
	got := buildCreateSQL("public.imports", cols)

	if !strings.HasPrefix(got, "CREATE TABLE IF NOT EXISTS public.imports (") {
		t.Fatalf("unexpected DDL prefix: %q", got)
	}
	for _, want := range []string{
		`"id" bigint`,
		`"price" double precision`,
		`"ok" boolean`,
		`"seen" timestamptz`,
		`"name" text`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("DDL missing %q: %q", want, got)
		}
	}
}

func TestBuildInsertSQL_NumbersPlaceholdersAcrossRows(t *testing.T) {
	t.Parallel()

	cols := []storage.Column{
		{Name: "a", Kind: storage.KindText},
		{Name: "b", Kind: storage.KindInteger},
	}
	rows := [][]any{{"x", int64(1)}, {"y", int64(2)}}

	sql, args := buildInsertSQL("public.imports", cols, rows)

	if !strings.Contains(sql, `INSERT INTO public.imports ("a", "b") VALUES `) {
		t.Fatalf("unexpected INSERT head: %q", sql)
	}
	if !strings.Contains(sql, "($1, $2), ($3, $4)") {
		t.Fatalf("expected continuous placeholder numbering, got %q", sql)
	}
	want := []any{"x", int64(1), "y", int64(2)}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("args=%v, want %v", args, want)
	}
}

func TestBuildInsertSQL_ShortRowBindsNull(t *testing.T) {
	t.Parallel()

	cols := []storage.Column{
		{Name: "a", Kind: storage.KindText},
		{Name: "b", Kind: storage.KindText},
	}
	_, args := buildInsertSQL("t", cols, [][]any{{"only"}})

	if len(args) != 2 {
		t.Fatalf("expected one arg per column, got %v", args)
	}
	if args[0] != "only" || args[1] != nil {
		t.Fatalf("expected trailing null for short row, got %v", args)
	}
}

func TestPgIdent_EscapesEmbeddedQuotes(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("pgIdent=%q", got)
	}
}
