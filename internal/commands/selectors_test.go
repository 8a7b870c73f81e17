package commands

import (
	"testing"

	"github.com/hay-kot/tenv/internal/toxfile"
)

func Test_expandLabelShortcuts(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantExpr       string
		wantLabelExprs []string
	}{
		{
			name:           "single include label",
			input:          "+ci",
			wantExpr:       "",
			wantLabelExprs: []string{`"ci" in labels`},
		},
		{
			name:           "single exclude label",
			input:          "!slow",
			wantExpr:       "",
			wantLabelExprs: []string{`not ("slow" in labels)`},
		},
		{
			name:           "mixed include and exclude labels",
			input:          "+ci !slow",
			wantExpr:       "",
			wantLabelExprs: []string{`"ci" in labels`, `not ("slow" in labels)`},
		},
		{
			name:           "labels with expression",
			input:          `+ci name == "py36"`,
			wantExpr:       `name == "py36"`,
			wantLabelExprs: []string{`"ci" in labels`},
		},
		{
			name:           "bang expression is not a shortcut",
			input:          `!(name == "docs")`,
			wantExpr:       `!(name == "docs")`,
			wantLabelExprs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotExpr, gotLabelExprs := expandLabelShortcuts(tt.input)
			if gotExpr != tt.wantExpr {
				t.Errorf("expandLabelShortcuts() expr = %v, want %v", gotExpr, tt.wantExpr)
			}
			if len(gotLabelExprs) != len(tt.wantLabelExprs) {
				t.Fatalf("expandLabelShortcuts() labelExprs = %v, want %v", gotLabelExprs, tt.wantLabelExprs)
			}
			for i, e := range gotLabelExprs {
				if e != tt.wantLabelExprs[i] {
					t.Errorf("labelExprs[%d] = %v, want %v", i, e, tt.wantLabelExprs[i])
				}
			}
		})
	}
}

func Test_compileExpr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "empty matches everything",
			input: "",
		},
		{
			name:  "simple expression",
			input: `name == "py36"`,
		},
		{
			name:  "label shortcuts only",
			input: "+ci !slow",
		},
		{
			name:  "factors expression",
			input: `"py27" in factors`,
		},
		{
			name:    "invalid expression syntax",
			input:   "invalid syntax @@",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := compileExpr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("compileExpr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && program == nil {
				t.Error("compileExpr() returned nil program without error")
			}
		})
	}
}

func Test_selectEnvs(t *testing.T) {
	envs := []*toxfile.Env{
		{Name: "lint", Factors: []string{"lint"}, Labels: []string{"static"}},
		{Name: "py27", Factors: []string{"py27"}, BasePython: "python2.7", Labels: []string{"ci"}},
		{Name: "py36", Factors: []string{"py36"}, BasePython: "python3.6", Labels: []string{"ci"}},
		{Name: "docs", Factors: []string{"docs"}, Labels: []string{"slow"}},
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty selects all",
			input: "",
			want:  []string{"lint", "py27", "py36", "docs"},
		},
		{
			name:  "by name",
			input: `name == "py36"`,
			want:  []string{"py36"},
		},
		{
			name:  "by name prefix",
			input: `hasPrefix(name, "py")`,
			want:  []string{"py27", "py36"},
		},
		{
			name:  "include label",
			input: "+ci",
			want:  []string{"py27", "py36"},
		},
		{
			name:  "exclude label",
			input: "!slow",
			want:  []string{"lint", "py27", "py36"},
		},
		{
			name:  "label with expression",
			input: `+ci basepython == "python3.6"`,
			want:  []string{"py36"},
		},
		{
			name:  "by factor",
			input: `"py27" in factors`,
			want:  []string{"py27"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectEnvs(envs, tt.input)
			if err != nil {
				t.Fatalf("selectEnvs() unexpected error = %v", err)
			}

			var names []string
			for _, env := range got {
				names = append(names, env.Name)
			}

			if len(names) != len(tt.want) {
				t.Fatalf("selectEnvs() = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("selectEnvs() = %v, want %v", names, tt.want)
					break
				}
			}
		})
	}
}
