package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hay-kot/tenv/internal/toxfile"
)

var identRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// expandLabelShortcuts rewrites +label / !label tokens into expr clauses.
// A '!' token only counts as a shortcut when it is a bare label name, so
// expressions like `!(name == "docs")` still reach the expression compiler
// untouched.
func expandLabelShortcuts(input string) (expression string, labelExprs []string) {
	var rest []string

	for _, field := range strings.Fields(input) {
		switch {
		case strings.HasPrefix(field, "+") && identRe.MatchString(field[1:]):
			labelExprs = append(labelExprs, fmt.Sprintf(`%q in labels`, field[1:]))
		case strings.HasPrefix(field, "!") && identRe.MatchString(field[1:]):
			labelExprs = append(labelExprs, fmt.Sprintf(`not (%q in labels)`, field[1:]))
		default:
			rest = append(rest, field)
		}
	}

	return strings.Join(rest, " "), labelExprs
}

// compileExpr compiles a selection expression once for reuse.
func compileExpr(code string) (*vm.Program, error) {
	expression, labelExprs := expandLabelShortcuts(code)

	clauses := labelExprs
	if expression != "" {
		clauses = append(clauses, "("+expression+")")
	}

	combined := strings.Join(clauses, " && ")
	if combined == "" {
		combined = "true" // default: match everything
	}

	return expr.Compile(combined, expr.AsBool())
}

// evalCompiledExpr evaluates a pre-compiled expression with given context
func evalCompiledExpr(program *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	// expr.AsBool() ensures output is always bool
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got %T", output)
	}

	return result, nil
}

// exprEnv is the variable set a selection expression sees per environment.
func exprEnv(env *toxfile.Env) map[string]any {
	return map[string]any{
		"name":       env.Name,
		"basepython": env.BasePython,
		"labels":     env.Labels,
		"factors":    env.Factors,
	}
}

// selectEnvs returns the environments matching the selection expression.
func selectEnvs(envs []*toxfile.Env, code string) ([]*toxfile.Env, error) {
	program, err := compileExpr(code)
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	var selected []*toxfile.Env
	for _, env := range envs {
		enabled, err := evalCompiledExpr(program, exprEnv(env))
		if err != nil {
			return nil, fmt.Errorf("expression evaluation failed for env %s: %w", env.Name, err)
		}
		if enabled {
			selected = append(selected, env)
		}
	}

	return selected, nil
}
