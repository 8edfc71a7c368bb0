package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeRepo struct {
	closeCalls int
}

func (f *fakeRepo) EnsureTable(context.Context, string, []Column) error { return nil }
func (f *fakeRepo) InsertRows(context.Context, string, []Column, [][]any) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) Close() { f.closeCalls++ }

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected %s to panic", name)
		}
	}()
	fn()
}

func TestRegister_DuplicateKindPanics(t *testing.T) {
	Register("test-dup", func(context.Context, Config) (Repository, error) {
		return &fakeRepo{}, nil
	})
	mustPanic(t, "duplicate Register", func() {
		Register("test-dup", func(context.Context, Config) (Repository, error) {
			return &fakeRepo{}, nil
		})
	})
}

func TestRegister_RejectsBadArguments(t *testing.T) {
	mustPanic(t, "empty kind", func() {
		Register("", func(context.Context, Config) (Repository, error) { return nil, nil })
	})
	mustPanic(t, "nil factory", func() {
		Register("test-nilfactory", nil)
	})
}

func TestNew_DelegatesToRegisteredFactory(t *testing.T) {
	var gotCfg Config
	want := &fakeRepo{}
	Register("test-delegate", func(_ context.Context, cfg Config) (Repository, error) {
		gotCfg = cfg
		return want, nil
	})

	repo, err := New(context.Background(), Config{Kind: "test-delegate", DSN: "dsn://x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if repo != Repository(want) {
		t.Fatalf("expected the factory's repository back")
	}
	if gotCfg.DSN != "dsn://x" {
		t.Fatalf("expected DSN passed through, got %q", gotCfg.DSN)
	}
}

func TestNew_RejectsUnknownAndEmptyKind(t *testing.T) {
	if _, err := New(context.Background(), Config{Kind: "test-nowhere"}); err == nil {
		t.Fatalf("expected error for unregistered kind")
	} else if !strings.Contains(err.Error(), "test-nowhere") {
		t.Fatalf("expected error to name the kind, got %v", err)
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty kind")
	}
}

func TestKinds_SortedAndContainsRegistered(t *testing.T) {
	Register("test-kinds-b", func(context.Context, Config) (Repository, error) { return nil, nil })
	Register("test-kinds-a", func(context.Context, Config) (Repository, error) { return nil, nil })

	kinds := Kinds()
	ia, ib := -1, -1
	for i, k := range kinds {
		switch k {
		case "test-kinds-a":
			ia = i
		case "test-kinds-b":
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		t.Fatalf("expected both test kinds in %v", kinds)
	}
	if ia > ib {
		t.Fatalf("expected sorted kinds, got %v", kinds)
	}
}

func TestValidateTarget(t *testing.T) {
	cols := []Column{{Name: "a", Kind: KindText}}
	if err := ValidateTarget("t", cols); err != nil {
		t.Fatalf("ValidateTarget: %v", err)
	}
	if err := ValidateTarget("", cols); err == nil {
		t.Fatalf("expected error for empty table")
	}
	if err := ValidateTarget("t", nil); err == nil {
		t.Fatalf("expected error for no columns")
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "x", want: "x"},
		{name: "int64", in: int64(7), want: int64(7)},
		{name: "float64", in: 1.5, want: 1.5},
		{name: "bool", in: true, want: true},
		{name: "time", in: now, want: now},
		{name: "int_widens", in: 7, want: int64(7)},
		{name: "bytes_to_string", in: []byte("b"), want: "b"},
		{name: "other_flattens", in: struct{ A int }{A: 1}, want: "{1}"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Canonical(tc.in); got != tc.want {
				t.Fatalf("Canonical(%v)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCanonicalRow(t *testing.T) {
	got := CanonicalRow([]any{nil, 7, []byte("b")})
	if len(got) != 3 || got[0] != nil || got[1] != int64(7) || got[2] != "b" {
		t.Fatalf("CanonicalRow=%v", got)
	}
}
