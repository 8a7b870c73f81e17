package toxfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxSubstDepth bounds recursive substitution. Cycles through section
// references are detected explicitly; the depth cap catches pathological
// self-expansion that is not a strict cycle.
const maxSubstDepth = 20

// substituter expands tox-style substitutions for a single environment:
//
//	{[section]key}      value of another section's key
//	{envname}           the environment name
//	{toxinidir}         directory containing the ini file
//	{toxworkdir}        {toxinidir}/.tenv
//	{envdir}            {toxworkdir}/{envname}
//	{posargs}           CLI arguments after --, {posargs:default} when empty
//	{env:VAR}           process environment, {env:VAR:default} when unset
//
// {{ and }} escape to literal braces.
type substituter struct {
	file *File
	env  *Env
	opts ResolveOptions

	// visiting tracks in-flight {[section]key} expansions for cycle
	// detection.
	visiting map[string]bool
}

func newSubstituter(f *File, env *Env, opts ResolveOptions) *substituter {
	return &substituter{
		file:     f,
		env:      env,
		opts:     opts,
		visiting: map[string]bool{},
	}
}

func (s *substituter) expand(value string) (string, error) {
	return s.expandDepth(value, 0)
}

func (s *substituter) expandDepth(value string, depth int) (string, error) {
	if depth > maxSubstDepth {
		return "", fmt.Errorf("substitution nesting exceeds %d levels", maxSubstDepth)
	}

	var b strings.Builder
	i := 0

	for i < len(value) {
		c := value[i]

		switch {
		case c == '{' && i+1 < len(value) && value[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(value) && value[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '{':
			end, ok := matchBrace(value, i)
			if !ok {
				return "", fmt.Errorf("unterminated substitution in %q", value)
			}

			replacement, err := s.resolveToken(value[i+1:end], depth)
			if err != nil {
				return "", err
			}

			b.WriteString(replacement)
			i = end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// matchBrace returns the index of the '}' closing the '{' at open,
// accounting for nesting.
func matchBrace(value string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(value); i++ {
		switch value[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func (s *substituter) resolveToken(token string, depth int) (string, error) {
	switch {
	case strings.HasPrefix(token, "["):
		return s.resolveSectionRef(token, depth)

	case token == "envname":
		return s.env.Name, nil

	case token == "toxinidir":
		return s.file.Dir, nil

	case token == "toxworkdir":
		return filepath.Join(s.file.Dir, WorkDirName), nil

	case token == "envdir":
		return filepath.Join(s.file.Dir, WorkDirName, s.env.Name), nil

	case token == "posargs" || strings.HasPrefix(token, "posargs:"):
		if len(s.opts.Posargs) > 0 {
			return strings.Join(s.opts.Posargs, " "), nil
		}
		_, fallback, _ := strings.Cut(token, ":")
		return s.expandDepth(fallback, depth+1)

	case strings.HasPrefix(token, "env:"):
		return s.resolveEnvVar(token, depth)

	default:
		return "", fmt.Errorf("unknown substitution key %q", token)
	}
}

func (s *substituter) resolveSectionRef(token string, depth int) (string, error) {
	closing := strings.IndexByte(token, ']')
	if closing < 0 {
		return "", fmt.Errorf("malformed section reference {%s}", token)
	}

	section := token[1:closing]
	key := token[closing+1:]
	if section == "" || key == "" {
		return "", fmt.Errorf("malformed section reference {%s}", token)
	}

	id := section + "/" + key
	if s.visiting[id] {
		return "", fmt.Errorf("substitution cycle through {[%s]%s}", section, key)
	}

	raw, ok := s.file.rawValue(section, key)
	if !ok {
		return "", fmt.Errorf("substitution {[%s]%s} references a missing key", section, key)
	}

	s.visiting[id] = true
	defer delete(s.visiting, id)

	return s.expandDepth(raw, depth+1)
}

func (s *substituter) resolveEnvVar(token string, depth int) (string, error) {
	// env:VAR or env:VAR:default, where the default may itself contain
	// substitutions.
	parts := strings.SplitN(token, ":", 3)
	name := parts[1]
	if name == "" {
		return "", fmt.Errorf("malformed environment reference {%s}", token)
	}

	if v, ok := s.opts.lookupEnv()(name); ok {
		return v, nil
	}

	if len(parts) == 3 {
		return s.expandDepth(parts[2], depth+1)
	}

	return "", fmt.Errorf("substitution {env:%s} references an unset variable", name)
}
