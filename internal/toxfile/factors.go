package toxfile

import (
	"regexp"
	"strings"
)

var factorPrefixRe = regexp.MustCompile(`^([!a-zA-Z0-9_,\-]+)\s*:\s*(.*)$`)

// filterFactorLines applies tox factor conditions inside multiline values.
// A line of the form "py27: mock" applies only to environments carrying the
// py27 factor. Commas separate alternatives (OR), '-' joins atoms that must
// all hold (AND), and a '!' prefix negates an atom.
//
// A prefix is only treated as a condition when every atom names a factor
// that exists somewhere in the envlist; anything else (URLs, command text)
// passes through untouched.
func filterFactorLines(value string, factors []string, known map[string]bool) string {
	if !strings.Contains(value, ":") {
		return value
	}

	has := make(map[string]bool, len(factors))
	for _, f := range factors {
		has[f] = true
	}

	lines := strings.Split(value, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		m := factorPrefixRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || !allKnownFactors(m[1], known) {
			out = append(out, line)
			continue
		}

		if matchFactorExpr(m[1], has) {
			out = append(out, m[2])
		}
	}

	return strings.Join(out, "\n")
}

func allKnownFactors(expr string, known map[string]bool) bool {
	for _, alt := range strings.Split(expr, ",") {
		for _, atom := range strings.Split(alt, "-") {
			atom = strings.TrimPrefix(atom, "!")
			if atom == "" || !known[atom] {
				return false
			}
		}
	}
	return true
}

func matchFactorExpr(expr string, has map[string]bool) bool {
	for _, alt := range strings.Split(expr, ",") {
		if matchFactorAlt(alt, has) {
			return true
		}
	}
	return false
}

func matchFactorAlt(alt string, has map[string]bool) bool {
	for _, atom := range strings.Split(alt, "-") {
		if negated := strings.HasPrefix(atom, "!"); negated {
			if has[strings.TrimPrefix(atom, "!")] {
				return false
			}
		} else if !has[atom] {
			return false
		}
	}
	return true
}

var pyFactorRe = regexp.MustCompile(`^py(\d)(\d*)$`)

// defaultBasePython derives the interpreter from an environment's factors
// when basepython is not set explicitly: py27 -> python2.7, py36 ->
// python3.6, py3 -> python3, pypy passes through.
func defaultBasePython(factors []string) string {
	for _, factor := range factors {
		switch {
		case factor == "py":
			return "python"
		case strings.HasPrefix(factor, "pypy"):
			return factor
		}

		if m := pyFactorRe.FindStringSubmatch(factor); m != nil {
			if m[2] == "" {
				return "python" + m[1]
			}
			return "python" + m[1] + "." + m[2]
		}
	}

	return ""
}
