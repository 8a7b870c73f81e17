package interp

import (
	"reflect"
	"testing"
)

func TestProbe(t *testing.T) {
	// "sh" exists on any system these tests run on; the other name cannot.
	results := Probe([]string{"sh", "tenv-no-such-interpreter", "", "sh"})

	if len(results) != 2 {
		t.Fatalf("results = %v, want entries for sh and the missing name only", results)
	}

	sh, ok := results["sh"]
	if !ok || !sh.Found || sh.Path == "" {
		t.Errorf("sh resolution = %+v, want found with a path", sh)
	}

	missing, ok := results["tenv-no-such-interpreter"]
	if !ok || missing.Found {
		t.Errorf("missing resolution = %+v, want not found", missing)
	}
}

func TestMissing(t *testing.T) {
	results := map[string]Resolution{
		"python3.6": {BasePython: "python3.6", Found: false},
		"python2.7": {BasePython: "python2.7", Found: false},
		"sh":        {BasePython: "sh", Path: "/bin/sh", Found: true},
	}

	want := []string{"python2.7", "python3.6"}
	if got := Missing(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}
