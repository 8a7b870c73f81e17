package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hay-kot/tenv/internal/toxfile"
)

func Test_printEnvConfig(t *testing.T) {
	env := &toxfile.Env{
		Name:       "py36",
		BasePython: "python3.6",
		Deps:       []string{"coverage >= 5", "mock"},
		Setenv:     map[string]string{"DEBUG": "1"},
		Commands:   [][]string{{"nosetests", "-v"}},
	}

	var buf bytes.Buffer
	printEnvConfig(&buf, env)
	out := buf.String()

	for _, want := range []string{
		"[testenv:py36]",
		"basepython = python3.6",
		"deps = coverage >= 5, mock",
		"setenv.DEBUG = 1",
		"nosetests -v",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func Test_printToolConfig(t *testing.T) {
	ts := &toxfile.ToolSection{
		Name: "pycodestyle",
		Keys: []toxfile.KeyValue{
			{Key: "ignore", Value: "E731,W503,W504"},
			{Key: "max-line-length", Value: "100"},
		},
	}

	var buf bytes.Buffer
	printToolConfig(&buf, ts)
	out := buf.String()

	for _, want := range []string{
		"[pycodestyle]",
		"ignore = E731,W503,W504",
		"max-line-length = 100",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
