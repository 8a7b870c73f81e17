// Package toxfile loads tox.ini test-automation configuration files and
// resolves the test environments they declare.
//
// A tox.ini names environments in the [tox] envlist and configures them
// through a [testenv] defaults section plus optional [testenv:NAME]
// overrides. Values support tox-style substitution ({[section]key},
// {envname}, {posargs}, ...) and factor-conditional lines. Other sections
// ([pycodestyle], [flake8], ...) belong to external tools and are carried
// through verbatim.
package toxfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	SectionTox     = "tox"
	SectionTestenv = "testenv"
	SectionTenv    = "tenv"

	envSectionPrefix = "testenv:"

	// WorkDirName is the directory under toxinidir used for {envdir} and
	// {toxworkdir} substitutions.
	WorkDirName = ".tenv"
)

var loadOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	KeyValueDelimiters:         "=",
	IgnoreInlineComment:        true,
}

// File is a loaded tox.ini. Environment resolution is lazy: raw section
// values are kept and resolved per environment by ResolveEnv, since
// substitution depends on runtime inputs such as posargs.
type File struct {
	// Path the file was loaded from, empty when parsed from memory.
	Path string
	// Dir is the directory containing the file; it is the value of the
	// {toxinidir} substitution and the root for relative paths.
	Dir string

	Core    Core
	Secrets SecretsConfig

	ini *ini.File
}

// Core holds the [tox] section.
type Core struct {
	Envlist    []string
	MinVersion string
	SkipSDist  bool
}

// SecretsConfig holds the optional [tenv] section configuring an
// age-encrypted secrets file whose values are injected into every
// environment's process environment.
type SecretsConfig struct {
	SecretsFile  string
	IdentityFile string
	Recipients   []string
}

// Env is one fully resolved test environment: inheritance from [testenv],
// factor filtering, and substitution have all been applied.
type Env struct {
	Name        string
	Factors     []string
	BasePython  string
	Deps        []string
	Extras      []string
	Commands    [][]string
	Changedir   string
	Setenv      map[string]string
	Passenv     []string
	Labels      []string
	Description string
	SkipInstall bool

	// AllowedExternals is the whitelist_externals value. Empty means no
	// restriction is enforced.
	AllowedExternals []string
}

// ToolSection is a non-testenv configuration block owned by an external
// tool, e.g. [pycodestyle]. Keys preserve declaration order and raw values.
type ToolSection struct {
	Name string
	Keys []KeyValue
}

type KeyValue struct {
	Key   string
	Value string
}

// Get returns the raw value for key, reporting whether it is present.
func (ts *ToolSection) Get(key string) (string, bool) {
	for _, kv := range ts.Keys {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Load reads and parses the tox.ini at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, err
	}

	f.Path = abs
	return f, nil
}

// Parse parses tox.ini content. dir becomes {toxinidir}.
func Parse(data []byte, dir string) (*File, error) {
	inif, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("invalid ini syntax: %w", err)
	}

	f := &File{
		Dir: dir,
		ini: inif,
	}

	if sec, err := inif.GetSection(SectionTox); err == nil {
		f.Core = Core{
			Envlist:    ParseEnvlist(sec.Key("envlist").Value()),
			MinVersion: strings.TrimSpace(sec.Key("minversion").Value()),
			SkipSDist:  parseBool(sec.Key("skipsdist").Value()),
		}
	}

	if sec, err := inif.GetSection(SectionTenv); err == nil {
		f.Secrets = SecretsConfig{
			SecretsFile:  strings.TrimSpace(sec.Key("secrets_file").Value()),
			IdentityFile: strings.TrimSpace(sec.Key("identity_file").Value()),
			Recipients:   splitList(sec.Key("recipients").Value()),
		}
	}

	return f, nil
}

// EnvNames returns environment names in execution order: the envlist first,
// then any [testenv:NAME] sections not listed in it.
func (f *File) EnvNames() []string {
	names := make([]string, 0, len(f.Core.Envlist))
	seen := make(map[string]bool)

	for _, name := range f.Core.Envlist {
		names = append(names, name)
		seen[name] = true
	}

	for _, section := range f.ini.SectionStrings() {
		if !strings.HasPrefix(section, envSectionPrefix) {
			continue
		}
		name := strings.TrimPrefix(section, envSectionPrefix)
		if name != "" && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	return names
}

// Tools returns every section that is neither tox core configuration nor a
// test environment, in declaration order.
func (f *File) Tools() []*ToolSection {
	var tools []*ToolSection

	for _, name := range f.ini.SectionStrings() {
		if name == ini.DefaultSection || name == SectionTox || name == SectionTenv ||
			name == SectionTestenv || strings.HasPrefix(name, envSectionPrefix) {
			continue
		}

		sec := f.ini.Section(name)
		ts := &ToolSection{Name: name}
		for _, key := range sec.KeyStrings() {
			ts.Keys = append(ts.Keys, KeyValue{Key: key, Value: sec.Key(key).Value()})
		}
		tools = append(tools, ts)
	}

	return tools
}

// Tool returns the named tool section, or nil when absent.
func (f *File) Tool(name string) *ToolSection {
	for _, ts := range f.Tools() {
		if ts.Name == name {
			return ts
		}
	}
	return nil
}

// ResolveOptions carries the runtime inputs substitution depends on.
type ResolveOptions struct {
	// Posargs replaces {posargs}. Values are joined with single spaces.
	Posargs []string
	// LookupEnv resolves {env:VAR} references. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func (o ResolveOptions) lookupEnv() func(string) (string, bool) {
	if o.LookupEnv != nil {
		return o.LookupEnv
	}
	return os.LookupEnv
}

// ResolveEnv resolves a single environment by name. The environment does
// not need a [testenv:NAME] section; a bare envlist entry resolves entirely
// from [testenv] defaults.
func (f *File) ResolveEnv(name string, opts ResolveOptions) (*Env, error) {
	if name == "" {
		return nil, fmt.Errorf("empty environment name")
	}

	env := &Env{
		Name:    name,
		Factors: strings.Split(name, "-"),
		Setenv:  map[string]string{},
	}

	sub := newSubstituter(f, env, opts)

	value := func(key string) (string, error) {
		raw, ok := f.envRawValue(name, key)
		if !ok {
			return "", nil
		}
		filtered := filterFactorLines(raw, env.Factors, f.knownFactors())
		return sub.expand(filtered)
	}

	var err error
	fields := []struct {
		key   string
		apply func(string) error
	}{
		{"basepython", func(v string) error { env.BasePython = strings.TrimSpace(v); return nil }},
		{"deps", func(v string) error { env.Deps = splitLineList(v); return nil }},
		{"extras", func(v string) error { env.Extras = splitList(v); return nil }},
		{"changedir", func(v string) error { env.Changedir = strings.TrimSpace(v); return nil }},
		{"description", func(v string) error { env.Description = strings.TrimSpace(v); return nil }},
		{"labels", func(v string) error { env.Labels = splitList(v); return nil }},
		{"passenv", func(v string) error { env.Passenv = splitList(v); return nil }},
		{"skip_install", func(v string) error { env.SkipInstall = env.SkipInstall || parseBool(v); return nil }},
		{"usedevelop", func(v string) error { env.SkipInstall = env.SkipInstall || parseBool(v); return nil }},
		{"setenv", func(v string) error {
			m, perr := parseSetenv(v)
			if perr != nil {
				return perr
			}
			env.Setenv = m
			return nil
		}},
		{"commands", func(v string) error {
			cmds, perr := SplitCommands(v)
			if perr != nil {
				return perr
			}
			env.Commands = cmds
			return nil
		}},
	}

	for _, field := range fields {
		v, verr := value(field.key)
		if verr != nil {
			return nil, fmt.Errorf("env %s: key %s: %w", name, field.key, verr)
		}
		if err = field.apply(v); err != nil {
			return nil, fmt.Errorf("env %s: key %s: %w", name, field.key, err)
		}
	}

	// whitelist_externals was renamed allowlist_externals in tox 3.18;
	// both spellings are accepted.
	for _, key := range []string{"whitelist_externals", "allowlist_externals"} {
		v, verr := value(key)
		if verr != nil {
			return nil, fmt.Errorf("env %s: key %s: %w", name, key, verr)
		}
		env.AllowedExternals = append(env.AllowedExternals, splitList(v)...)
	}

	if env.BasePython == "" {
		env.BasePython = defaultBasePython(env.Factors)
	}

	return env, nil
}

// ResolveAll resolves every environment returned by EnvNames, in order.
func (f *File) ResolveAll(opts ResolveOptions) ([]*Env, error) {
	names := f.EnvNames()
	envs := make([]*Env, 0, len(names))

	for _, name := range names {
		env, err := f.ResolveEnv(name, opts)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}

	return envs, nil
}

// envRawValue looks up a raw key for an environment: the [testenv:NAME]
// section wins, [testenv] provides the default.
func (f *File) envRawValue(name, key string) (string, bool) {
	if sec, err := f.ini.GetSection(envSectionPrefix + name); err == nil && sec.HasKey(key) {
		return sec.Key(key).Value(), true
	}
	if sec, err := f.ini.GetSection(SectionTestenv); err == nil && sec.HasKey(key) {
		return sec.Key(key).Value(), true
	}
	return "", false
}

// rawValue looks up a raw key in a literal section, for {[section]key}
// substitutions.
func (f *File) rawValue(section, key string) (string, bool) {
	sec, err := f.ini.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).Value(), true
}

// knownFactors is the set of factors derivable from all environment names.
// A line prefix is only treated as a factor condition when every atom in it
// is a known factor, which keeps values like "https://..." intact.
func (f *File) knownFactors() map[string]bool {
	known := make(map[string]bool)
	for _, name := range f.EnvNames() {
		for _, factor := range strings.Split(name, "-") {
			known[factor] = true
		}
	}
	return known
}

// splitLineList splits a multi-value key on newlines only, one value per
// non-empty line. deps needs this: a pip requirement may contain spaces and
// commas ("coverage >= 5", "pytest>=6,<7") and must stay in one piece.
func splitLineList(value string) []string {
	var out []string
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// splitList splits a multi-value key on newlines, commas, and spaces.
func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '\n' || r == ',' || r == ' ' || r == '\t' || r == '\r'
	})

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			out = append(out, field)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseSetenv(value string) (map[string]string, error) {
	m := map[string]string{}

	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("setenv line %q is not KEY=VALUE", line)
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return m, nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
