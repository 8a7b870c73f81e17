package toxfile

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is a validation finding with its configuration coordinates.
type Issue struct {
	Section  string
	Key      string
	Message  string
	Severity Severity
}

// Coordinate renders the section/key location, e.g. "[testenv:lint] deps".
func (i Issue) Coordinate() string {
	if i.Key == "" {
		return "[" + i.Section + "]"
	}
	return "[" + i.Section + "] " + i.Key
}

var toxKnownKeys = map[string]bool{
	"envlist":                   true,
	"minversion":                true,
	"skipsdist":                 true,
	"skip_missing_interpreters": true,
	"toxworkdir":                true,
	"indexserver":               true,
	"requires":                  true,
	"isolated_build":            true,
}

var testenvKnownKeys = map[string]bool{
	"deps":                true,
	"extras":              true,
	"commands":            true,
	"basepython":          true,
	"changedir":           true,
	"whitelist_externals": true,
	"allowlist_externals": true,
	"setenv":              true,
	"passenv":             true,
	"labels":              true,
	"description":         true,
	"skip_install":        true,
	"usedevelop":          true,
}

var tenvKnownKeys = map[string]bool{
	"secrets_file":  true,
	"identity_file": true,
	"recipients":    true,
}

// Validate checks the file for schema problems. Unknown keys are warnings;
// anything that would make an environment unrunnable is an error.
func (f *File) Validate() []Issue {
	var issues []Issue

	issues = append(issues, f.validateCore()...)
	issues = append(issues, f.validateSections()...)
	issues = append(issues, f.validateEnvs()...)
	issues = append(issues, f.validateSecrets()...)

	return issues
}

func (f *File) validateCore() []Issue {
	var issues []Issue

	sec, err := f.ini.GetSection(SectionTox)
	if err != nil {
		return []Issue{{
			Section:  SectionTox,
			Message:  "missing [tox] section",
			Severity: SeverityWarning,
		}}
	}

	if len(f.Core.Envlist) == 0 {
		issues = append(issues, Issue{
			Section:  SectionTox,
			Key:      "envlist",
			Message:  "envlist is empty; nothing will run",
			Severity: SeverityError,
		})
	}

	// Duplicates and empty entries are folded by ParseEnvlist; re-walk the
	// raw entries so they can still be reported.
	seen := map[string]int{}
	emptyReported := false
	for _, entry := range envlistEntries(sec.Key("envlist").Value()) {
		for _, name := range expandBraces(entry) {
			name = strings.TrimSpace(name)
			if name == "" {
				if !emptyReported {
					issues = append(issues, Issue{
						Section:  SectionTox,
						Key:      "envlist",
						Message:  "envlist contains an empty entry",
						Severity: SeverityError,
					})
					emptyReported = true
				}
				continue
			}
			seen[name]++
			if seen[name] == 2 {
				issues = append(issues, Issue{
					Section:  SectionTox,
					Key:      "envlist",
					Message:  fmt.Sprintf("environment %q listed more than once", name),
					Severity: SeverityError,
				})
			}
		}
	}

	for _, key := range sec.KeyStrings() {
		if !toxKnownKeys[key] {
			issues = append(issues, Issue{
				Section:  SectionTox,
				Key:      key,
				Message:  "unrecognized key",
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

func (f *File) validateSections() []Issue {
	var issues []Issue

	for _, section := range f.ini.SectionStrings() {
		var known map[string]bool
		switch {
		case section == SectionTestenv || strings.HasPrefix(section, envSectionPrefix):
			known = testenvKnownKeys
		case section == SectionTenv:
			known = tenvKnownKeys
		default:
			// Tool sections carry arbitrary keys for external tools.
			continue
		}

		for _, key := range f.ini.Section(section).KeyStrings() {
			if !known[key] {
				issues = append(issues, Issue{
					Section:  section,
					Key:      key,
					Message:  "unrecognized key",
					Severity: SeverityWarning,
				})
			}
		}
	}

	return issues
}

func (f *File) validateEnvs() []Issue {
	var issues []Issue

	_, defErr := f.ini.GetSection(SectionTestenv)
	hasDefaults := defErr == nil

	for _, name := range f.EnvNames() {
		if _, err := f.ini.GetSection(envSectionPrefix + name); err != nil && !hasDefaults {
			issues = append(issues, Issue{
				Section:  SectionTox,
				Key:      "envlist",
				Message:  fmt.Sprintf("environment %q has no [testenv:%s] section and no [testenv] defaults exist", name, name),
				Severity: SeverityWarning,
			})
		}

		// Resolution exercises substitution, setenv parsing, and command
		// splitting; surface any failure with its coordinates.
		env, err := f.ResolveEnv(name, ResolveOptions{
			LookupEnv: func(string) (string, bool) { return "", true },
		})
		if err != nil {
			issues = append(issues, Issue{
				Section:  envSectionPrefix + name,
				Message:  err.Error(),
				Severity: SeverityError,
			})
			continue
		}

		if len(env.Commands) == 0 {
			issues = append(issues, Issue{
				Section:  envSectionPrefix + name,
				Key:      "commands",
				Message:  "environment has no commands",
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

func (f *File) validateSecrets() []Issue {
	if f.Secrets.SecretsFile == "" {
		return nil
	}

	var issues []Issue

	if f.Secrets.IdentityFile == "" {
		issues = append(issues, Issue{
			Section:  SectionTenv,
			Key:      "identity_file",
			Message:  "secrets_file is set but no identity_file is configured for decryption",
			Severity: SeverityWarning,
		})
	}

	if len(f.Secrets.Recipients) == 0 {
		issues = append(issues, Issue{
			Section:  SectionTenv,
			Key:      "recipients",
			Message:  "secrets_file is set but no recipients are configured for encryption",
			Severity: SeverityWarning,
		})
	}

	return issues
}
