package toxfile

import (
	"reflect"
	"testing"
)

func TestSplitCommands(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [][]string
		wantErr bool
	}{
		{
			name:  "single command",
			input: "nosetests -v",
			want:  [][]string{{"nosetests", "-v"}},
		},
		{
			name:  "one command per line",
			input: "\npycodestyle --exclude tests neurom\npylint neurom\n",
			want: [][]string{
				{"pycodestyle", "--exclude", "tests", "neurom"},
				{"pylint", "neurom"},
			},
		},
		{
			name:  "backslash continuation",
			input: "nosetests \\\n    --with-coverage",
			want:  [][]string{{"nosetests", "--with-coverage"}},
		},
		{
			name:  "comments and blank lines skipped",
			input: "# run the suite\n\nnosetests\n",
			want:  [][]string{{"nosetests"}},
		},
		{
			name:  "quoted argument",
			input: `sh -c "make html"`,
			want:  [][]string{{"sh", "-c", "make html"}},
		},
		{
			name:  "empty value",
			input: "",
			want:  nil,
		},
		{
			name:    "unterminated quote",
			input:   `echo "oops`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitCommands(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitCommands() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCommands() = %v, want %v", got, tt.want)
			}
		})
	}
}
