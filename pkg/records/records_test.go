package records

import (
	"reflect"
	"testing"
)

func TestMap(t *testing.T) {
	t.Parallel()

	row := &Row{
		Line:   3,
		Names:  []string{"id", "name", "note"},
		Values: []any{int64(7), "ada"},
	}
	want := Record{"id": int64(7), "name": "ada", "note": nil}
	if got := row.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Map=%v, want missing values as nil", got)
	}
}

func TestMapVectorModeIsNil(t *testing.T) {
	t.Parallel()

	row := &Row{Values: []any{int64(1), int64(2)}}
	if row.Map() != nil {
		t.Fatalf("vector row must have no map view")
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	row := &Row{
		Names:  []string{"id", "name"},
		Values: []any{int64(7)},
	}

	if v, ok := row.Get("id"); !ok || v != int64(7) {
		t.Fatalf("Get(id)=%v %v", v, ok)
	}
	// Named but past the value list: present, null.
	if v, ok := row.Get("name"); !ok || v != nil {
		t.Fatalf("Get(name)=%v %v, want nil true", v, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Fatalf("Get(missing) must report absence")
	}

	vec := &Row{Values: []any{"x"}}
	if _, ok := vec.Get("x"); ok {
		t.Fatalf("vector rows have no named fields")
	}
}
