package probe

import (
	"reflect"
	"testing"
)

// TestGuessColumnSpecs covers candidate narrowing per column: integer
// beats decimal on priority, nulls are neutral, and a column without
// enough non-null coverage gets no guess.
func TestGuessColumnSpecs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows [][]string
		want [][]string
	}{
		{
			name: "all integers",
			rows: [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}},
			want: [][]string{{"optional", "integer"}, {"optional", "integer"}},
		},
		{
			name: "one decimal value demotes the column",
			rows: [][]string{{"1"}, {"3.14"}, {"2"}},
			want: [][]string{{"optional", "decimal"}},
		},
		{
			name: "signed values are decimal, never integer",
			rows: [][]string{{"-1"}, {"-2"}, {"-3"}},
			want: [][]string{{"optional", "decimal"}},
		},
		{
			name: "comma fraction separator",
			rows: [][]string{{"1,5"}, {"2,0"}, {"-3,25"}},
			want: [][]string{{"optional", "decimal"}},
		},
		{
			name: "nulls are neutral when coverage is high enough",
			rows: [][]string{{"1"}, {""}, {"2"}},
			want: [][]string{{"optional", "integer"}},
		},
		{
			name: "coverage at exactly half is not enough",
			rows: [][]string{{"1"}, {"2"}, {""}, {""}},
			want: [][]string{nil},
		},
		{
			name: "coverage below half is not enough",
			rows: [][]string{{"1"}, {""}, {""}, {""}},
			want: [][]string{nil},
		},
		{
			name: "no surviving candidate",
			rows: [][]string{{"x"}, {"y"}, {"z"}},
			want: [][]string{nil},
		},
		{
			name: "ragged rows treat missing values as null",
			rows: [][]string{{"1", "9"}, {"2"}, {"3", "8"}},
			want: [][]string{{"optional", "integer"}, {"optional", "integer"}},
		},
		{
			name: "mixed columns guess independently",
			rows: [][]string{{"1", "oslo"}, {"2", "bergen"}, {"3", "2.5"}},
			want: [][]string{{"optional", "integer"}, nil},
		},
		{
			name: "empty sample",
			rows: nil,
			want: [][]string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := GuessColumnSpecs(tt.rows)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("GuessColumnSpecs(%v) = %v, want %v", tt.rows, got, tt.want)
			}
		})
	}
}
