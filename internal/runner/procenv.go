package runner

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hay-kot/tenv/internal/toxfile"
)

// alwaysPass are environment variables every command receives without being
// listed in passenv, mirroring tox's baseline.
var alwaysPass = map[string]bool{
	"PATH":   true,
	"HOME":   true,
	"LANG":   true,
	"LC_ALL": true,
	"TMPDIR": true,
	"TEMP":   true,
	"TMP":    true,
	"USER":   true,
}

// processEnv builds the environment for an environment's commands.
// Precedence, lowest first: secrets, passenv values from the parent
// process, setenv.
func processEnv(env *toxfile.Env, secrets map[string]string, parent []string) []string {
	values := map[string]string{}

	for k, v := range secrets {
		values[k] = v
	}

	for _, pair := range parent {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if alwaysPass[k] || matchPassenv(k, env.Passenv) {
			values[k] = v
		}
	}

	for k, v := range env.Setenv {
		values[k] = v
	}

	values["TENV_ENV_NAME"] = env.Name

	out := make([]string, 0, len(values))
	for k, v := range values {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

// matchPassenv reports whether a variable name matches any passenv pattern.
// Patterns support '*' globbing, e.g. GITHUB_*.
func matchPassenv(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == name {
			return true
		}
		if strings.ContainsAny(pattern, "*?") {
			if ok, err := path.Match(pattern, name); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// checkExternal enforces whitelist_externals. Environments that declare no
// whitelist run anything; a non-empty whitelist restricts commands to the
// listed basenames, with the interpreter itself always allowed.
func checkExternal(env *toxfile.Env, executable string) error {
	if len(env.AllowedExternals) == 0 {
		return nil
	}

	base := filepath.Base(executable)
	if base == env.BasePython || base == filepath.Base(env.BasePython) {
		return nil
	}

	for _, allowed := range env.AllowedExternals {
		if allowed == "*" || allowed == base {
			return nil
		}
	}

	return fmt.Errorf("command %q is not in whitelist_externals for env %s", executable, env.Name)
}
