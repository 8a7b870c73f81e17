package toxfile

import (
	"reflect"
	"testing"
)

func TestParseEnvlist(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "comma separated",
			input: "lint, py27, py36, coverage",
			want:  []string{"lint", "py27", "py36", "coverage"},
		},
		{
			name:  "newline separated",
			input: "\nlint\npy27\npy36\n",
			want:  []string{"lint", "py27", "py36"},
		},
		{
			name:  "generative braces",
			input: "py{27,36}",
			want:  []string{"py27", "py36"},
		},
		{
			name:  "braces mixed with plain entries",
			input: "lint, py{27,36}, coverage",
			want:  []string{"lint", "py27", "py36", "coverage"},
		},
		{
			name:  "cross product of two groups",
			input: "py{27,36}-{lin,win}",
			want:  []string{"py27-lin", "py27-win", "py36-lin", "py36-win"},
		},
		{
			name:  "duplicates folded",
			input: "lint, lint, py36",
			want:  []string{"lint", "py36"},
		},
		{
			name:  "empty entries folded",
			input: "lint,,py27",
			want:  []string{"lint", "py27"},
		},
		{
			name:  "whitespace inside braces",
			input: "py{27, 36}",
			want:  []string{"py27", "py36"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEnvlist(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEnvlist(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
