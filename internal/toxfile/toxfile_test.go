package toxfile

import (
	"reflect"
	"testing"
)

func TestLoad_NeuromFixture(t *testing.T) {
	f, err := Load("testdata/neurom.ini")
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	wantEnvlist := []string{"lint", "py27", "py36", "coverage"}
	if !reflect.DeepEqual(f.Core.Envlist, wantEnvlist) {
		t.Errorf("envlist = %v, want %v", f.Core.Envlist, wantEnvlist)
	}

	if f.Core.MinVersion != "2.7" {
		t.Errorf("minversion = %q, want %q", f.Core.MinVersion, "2.7")
	}

	// docs has a section but is not in the envlist; it is still addressable.
	wantNames := []string{"lint", "py27", "py36", "coverage", "docs"}
	if got := f.EnvNames(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("EnvNames() = %v, want %v", got, wantNames)
	}
}

func TestResolveEnv_NeuromFixture(t *testing.T) {
	f, err := Load("testdata/neurom.ini")
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	t.Run("py27 resolves entirely from testenv defaults", func(t *testing.T) {
		env, err := f.ResolveEnv("py27", ResolveOptions{})
		if err != nil {
			t.Fatalf("ResolveEnv() unexpected error = %v", err)
		}

		if env.BasePython != "python2.7" {
			t.Errorf("basepython = %q, want %q", env.BasePython, "python2.7")
		}

		if want := []string{"mock", "nose"}; !reflect.DeepEqual(env.Deps, want) {
			t.Errorf("deps = %v, want %v", env.Deps, want)
		}

		if want := []string{"plotly"}; !reflect.DeepEqual(env.Extras, want) {
			t.Errorf("extras = %v, want %v", env.Extras, want)
		}

		wantCmd := []string{
			"nosetests", "-v", "--with-coverage",
			"--cover-min-percentage=100", "--cover-package", "neurom",
		}
		if len(env.Commands) != 1 || !reflect.DeepEqual(env.Commands[0], wantCmd) {
			t.Errorf("commands = %v, want [%v]", env.Commands, wantCmd)
		}
	})

	t.Run("lint overrides deps and commands", func(t *testing.T) {
		env, err := f.ResolveEnv("lint", ResolveOptions{})
		if err != nil {
			t.Fatalf("ResolveEnv() unexpected error = %v", err)
		}

		if env.BasePython != "python2.7" {
			t.Errorf("basepython = %q, want %q", env.BasePython, "python2.7")
		}

		if want := []string{"pycodestyle", "pylint"}; !reflect.DeepEqual(env.Deps, want) {
			t.Errorf("deps = %v, want %v", env.Deps, want)
		}

		if len(env.Commands) != 2 {
			t.Fatalf("commands count = %d, want 2", len(env.Commands))
		}

		if env.Commands[0][0] != "pycodestyle" || env.Commands[1][0] != "pylint" {
			t.Errorf("commands = %v", env.Commands)
		}
	})

	t.Run("coverage combines section reference with extra dep", func(t *testing.T) {
		env, err := f.ResolveEnv("coverage", ResolveOptions{})
		if err != nil {
			t.Fatalf("ResolveEnv() unexpected error = %v", err)
		}

		if want := []string{"mock", "nose", "coverage"}; !reflect.DeepEqual(env.Deps, want) {
			t.Errorf("deps = %v, want %v", env.Deps, want)
		}
	})

	t.Run("docs uses changedir and whitelisted externals", func(t *testing.T) {
		env, err := f.ResolveEnv("docs", ResolveOptions{})
		if err != nil {
			t.Fatalf("ResolveEnv() unexpected error = %v", err)
		}

		if env.Changedir != "doc" {
			t.Errorf("changedir = %q, want %q", env.Changedir, "doc")
		}

		if want := []string{"make"}; !reflect.DeepEqual(env.AllowedExternals, want) {
			t.Errorf("whitelist_externals = %v, want %v", env.AllowedExternals, want)
		}

		if len(env.Commands) != 1 || !reflect.DeepEqual(env.Commands[0], []string{"make", "html"}) {
			t.Errorf("commands = %v", env.Commands)
		}
	})
}

func TestTools_NeuromFixture(t *testing.T) {
	f, err := Load("testdata/neurom.ini")
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	ts := f.Tool("pycodestyle")
	if ts == nil {
		t.Fatal("Tool(pycodestyle) = nil, want section")
	}

	if got, _ := ts.Get("max-line-length"); got != "100" {
		t.Errorf("max-line-length = %q, want %q", got, "100")
	}

	if got, _ := ts.Get("ignore"); got != "E731,W503,W504" {
		t.Errorf("ignore = %q, want %q", got, "E731,W503,W504")
	}

	// [base] feeds substitutions but is still just a tool-style section.
	if f.Tool("base") == nil {
		t.Error("Tool(base) = nil, want section")
	}

	if f.Tool("testenv") != nil {
		t.Error("Tool(testenv) should be nil, testenv is not a tool section")
	}
}

func TestResolveEnv_FactorConditionalDeps(t *testing.T) {
	src := `
[tox]
envlist = py{27,36}

[testenv]
deps =
    nose
    py27: mock
    py36: pytest
commands = nosetests
`

	f, err := Parse([]byte(src), "/proj")
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}

	py27, err := f.ResolveEnv("py27", ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveEnv(py27) unexpected error = %v", err)
	}
	if want := []string{"nose", "mock"}; !reflect.DeepEqual(py27.Deps, want) {
		t.Errorf("py27 deps = %v, want %v", py27.Deps, want)
	}

	py36, err := f.ResolveEnv("py36", ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveEnv(py36) unexpected error = %v", err)
	}
	if want := []string{"nose", "pytest"}; !reflect.DeepEqual(py36.Deps, want) {
		t.Errorf("py36 deps = %v, want %v", py36.Deps, want)
	}
}

func TestResolveEnv_DepsKeepRequirementLines(t *testing.T) {
	src := `
[tox]
envlist = py36

[testenv]
deps =
    coverage >= 5
    pytest>=6,<7
    mock
commands = pytest
`

	f, err := Parse([]byte(src), "/proj")
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}

	env, err := f.ResolveEnv("py36", ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveEnv() unexpected error = %v", err)
	}

	// Each deps line is one requirement; version specs with spaces or
	// commas must not be shredded.
	want := []string{"coverage >= 5", "pytest>=6,<7", "mock"}
	if !reflect.DeepEqual(env.Deps, want) {
		t.Errorf("deps = %v, want %v", env.Deps, want)
	}
}

func TestResolveEnv_SetenvAndPassenv(t *testing.T) {
	src := `
[tox]
envlist = py36

[testenv]
setenv =
    PIP_INDEX_URL = https://pypi.example.com/simple
    DEBUG=1
passenv =
    CI
    GITHUB_*
commands = pytest
`

	f, err := Parse([]byte(src), "/proj")
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}

	env, err := f.ResolveEnv("py36", ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveEnv() unexpected error = %v", err)
	}

	want := map[string]string{
		"PIP_INDEX_URL": "https://pypi.example.com/simple",
		"DEBUG":         "1",
	}
	if !reflect.DeepEqual(env.Setenv, want) {
		t.Errorf("setenv = %v, want %v", env.Setenv, want)
	}

	if wantPass := []string{"CI", "GITHUB_*"}; !reflect.DeepEqual(env.Passenv, wantPass) {
		t.Errorf("passenv = %v, want %v", env.Passenv, wantPass)
	}
}

func TestResolveEnv_SkipInstall(t *testing.T) {
	src := `
[tox]
envlist = lint, py36

[testenv]
commands = pytest

[testenv:lint]
skip_install = true
commands = pycodestyle .
`

	f, err := Parse([]byte(src), "/proj")
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}

	lint, err := f.ResolveEnv("lint", ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveEnv(lint) unexpected error = %v", err)
	}
	if !lint.SkipInstall {
		t.Error("lint skip_install = false, want true")
	}

	py36, err := f.ResolveEnv("py36", ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveEnv(py36) unexpected error = %v", err)
	}
	if py36.SkipInstall {
		t.Error("py36 skip_install = true, want false")
	}
}

func TestParse_SecretsSection(t *testing.T) {
	src := `
[tox]
envlist = py36

[tenv]
secrets_file = secrets.env
identity_file = ~/.config/tenv/identity.key
recipients =
    age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p
`

	f, err := Parse([]byte(src), "/proj")
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}

	if f.Secrets.SecretsFile != "secrets.env" {
		t.Errorf("secrets_file = %q", f.Secrets.SecretsFile)
	}
	if f.Secrets.IdentityFile != "~/.config/tenv/identity.key" {
		t.Errorf("identity_file = %q", f.Secrets.IdentityFile)
	}
	if len(f.Secrets.Recipients) != 1 {
		t.Errorf("recipients = %v, want one entry", f.Secrets.Recipients)
	}
}
