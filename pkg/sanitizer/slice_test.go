package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeIDs(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trim whitespace",
			input: []string{" m1 ", "m2"},
			want:  []string{"m1", "m2"},
		},
		{
			name:  "remove duplicates keeping first",
			input: []string{"m2", "m1", "m2"},
			want:  []string{"m2", "m1"},
		},
		{
			name:  "filter empty strings",
			input: []string{"m1", "", "  "},
			want:  []string{"m1"},
		},
		{
			name:  "empty input stays empty",
			input: []string{},
			want:  []string{},
		},
		{
			name:  "nil input stays nil",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIDs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeIDs(%v) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeStringSlice(t *testing.T) {
	got := NormalizeStringSlice([]string{"Anna", "ANNA", " anna "}, NormalizeNameForComparison)
	want := []string{"anna"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeStringSlice() = %v, want %v", got, want)
	}
}
