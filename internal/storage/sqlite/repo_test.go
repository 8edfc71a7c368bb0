package sqlite

import (
	"strings"
	"testing"
	"time"

	"tabread/internal/storage"
)

func TestBuildCreateSQL_MapsKindsToAffinity(t *testing.T) {
	t.Parallel()

	cols := []storage.Column{
		{Name: "id", Kind: storage.KindInteger},
		{Name: "ok", Kind: storage.KindBool},
		{Name: "price", Kind: storage.KindReal},
		{Name: "seen", Kind: storage.KindTime},
		{Name: "name", Kind: storage.KindText},
	}
	got := buildCreateSQL("imports", cols)

	if !strings.HasPrefix(got, "CREATE TABLE IF NOT EXISTS imports (") {
		t.Fatalf("unexpected DDL prefix: %q", got)
	}
	for _, want := range []string{
		`"id" INTEGER`,
		`"ok" INTEGER`,
		`"price" REAL`,
		`"seen" TEXT`,
		`"name" TEXT`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("DDL missing %q: %q", want, got)
		}
	}
}

func TestBuildInsertSQL_BindsTimestampsAndBools(t *testing.T) {
	t.Parallel()

	cols := []storage.Column{
		{Name: "seen", Kind: storage.KindTime},
		{Name: "ok", Kind: storage.KindBool},
	}
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	q, args := buildInsertSQL("imports", cols, [][]any{{ts, true}})

	if !strings.Contains(q, `INSERT INTO imports ("seen", "ok") VALUES (?, ?);`) {
		t.Fatalf("unexpected INSERT: %q", q)
	}
	if len(args) != 2 {
		t.Fatalf("args=%v", args)
	}
	if args[0] != "2024-03-01T12:30:00Z" {
		t.Fatalf("expected RFC3339Nano string for timestamp, got %v", args[0])
	}
	if args[1] != int64(1) {
		t.Fatalf("expected bool bound as 1, got %v", args[1])
	}
}

func TestBuildInsertSQL_ShortRowBindsNull(t *testing.T) {
	t.Parallel()

	cols := []storage.Column{
		{Name: "a", Kind: storage.KindText},
		{Name: "b", Kind: storage.KindText},
	}
	_, args := buildInsertSQL("t", cols, [][]any{{"only"}})
	if len(args) != 2 || args[1] != nil {
		t.Fatalf("expected trailing null for short row, got %v", args)
	}
}
