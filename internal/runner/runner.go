// Package runner executes resolved test environments: their commands run as
// external processes, sequentially in envlist order, with interactive IO
// passed through.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/interp"
	"github.com/hay-kot/tenv/internal/toxfile"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type CommandResult struct {
	Argv     []string
	ExitCode int
	Duration time.Duration
}

type EnvResult struct {
	Name     string
	Status   Status
	Reason   string
	Duration time.Duration
	Commands []CommandResult
}

func (r EnvResult) Summary() string {
	switch r.Status {
	case StatusSkipped:
		return fmt.Sprintf("%s skipped (%s)", r.Name, r.Reason)
	case StatusFailed:
		return fmt.Sprintf("%s failed in %s (%s)", r.Name, r.Duration.Round(time.Millisecond), r.Reason)
	default:
		return fmt.Sprintf("%s passed in %s", r.Name, r.Duration.Round(time.Millisecond))
	}
}

type Options struct {
	// Toxinidir is the working directory for environments without changedir
	// and the root for relative changedir values.
	Toxinidir     string
	TerminalWidth int
	// Parallel > 1 runs environments through a bounded worker pool instead
	// of sequentially. Output from concurrent environments interleaves.
	Parallel int
	// FailMissing turns a missing interpreter into a failure instead of a
	// skip.
	FailMissing bool
	// InstallDeps runs `<basepython> -m pip install <deps>` before an
	// environment's commands.
	InstallDeps  bool
	Interpreters map[string]interp.Resolution
	Secrets      map[string]string
}

type Runner struct {
	opts     Options
	resolver core.PathResolver
}

func New(opts Options) *Runner {
	if opts.TerminalWidth <= 0 {
		opts.TerminalWidth = 80
	}

	return &Runner{
		opts:     opts,
		resolver: core.NewPathResolver(opts.Toxinidir),
	}
}

// Run executes the environments and reports one result each. All
// environments run even when an earlier one fails; interruption via signal
// cancels the in-flight command and returns the context error.
func (r *Runner) Run(ctx context.Context, envs []*toxfile.Env) ([]EnvResult, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]EnvResult, len(envs))

	if r.opts.Parallel > 1 {
		p := pool.New().WithMaxGoroutines(r.opts.Parallel)
		for i, env := range envs {
			p.Go(func() {
				results[i] = r.runEnv(ctx, env)
			})
		}
		p.Wait()
	} else {
		for i, env := range envs {
			results[i] = r.runEnv(ctx, env)
		}
	}

	return results, ctx.Err()
}

// Failed reports how many results failed. Skips do not count; a missing
// interpreter is already recorded as failed when FailMissing is set.
func Failed(results []EnvResult) int {
	n := 0
	for _, res := range results {
		if res.Status == StatusFailed {
			n++
		}
	}
	return n
}

func (r *Runner) runEnv(ctx context.Context, env *toxfile.Env) EnvResult {
	start := time.Now()
	result := EnvResult{Name: env.Name, Status: StatusPassed}

	defer func() {
		result.Duration = time.Since(start)
	}()

	if ctx.Err() != nil {
		result.Status = StatusSkipped
		result.Reason = "run interrupted"
		return result
	}

	interpreter, ok := r.interpreterFor(env)
	if !ok {
		if r.opts.FailMissing {
			result.Status = StatusFailed
		} else {
			result.Status = StatusSkipped
		}
		result.Reason = fmt.Sprintf("interpreter %s not found", env.BasePython)
		return result
	}

	workdir, err := r.workdir(env)
	if err != nil {
		result.Status = StatusFailed
		result.Reason = err.Error()
		return result
	}

	procEnv := processEnv(env, r.opts.Secrets, os.Environ())

	commands := env.Commands
	if r.opts.InstallDeps && !env.SkipInstall && len(env.Deps) > 0 {
		install := append([]string{interpreter, "-m", "pip", "install"}, env.Deps...)
		commands = append([][]string{install}, commands...)
	}

	for _, argv := range commands {
		cmdResult, err := r.runCommand(ctx, env, argv, workdir, procEnv)
		result.Commands = append(result.Commands, cmdResult)

		if err != nil {
			log.Error().Err(err).Str("env", env.Name).Strs("argv", argv).Msg("command failed")
			result.Status = StatusFailed
			result.Reason = err.Error()
			return result
		}
	}

	return result
}

func (r *Runner) runCommand(ctx context.Context, env *toxfile.Env, argv []string, workdir string, procEnv []string) (CommandResult, error) {
	result := CommandResult{Argv: argv}

	if err := checkExternal(env, argv[0]); err != nil {
		result.ExitCode = -1
		return result, err
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Println(styledHeader(env.Name, strings.Join(argv, " "), r.opts.TerminalWidth))

	log.Debug().
		Str("env", env.Name).
		Str("workdir", workdir).
		Strs("argv", argv).
		Msg("executing command")

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	cmd.Dir = workdir
	cmd.Env = procEnv
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s exited with code %d", argv[0], result.ExitCode)
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	return result, nil
}

// interpreterFor returns the executable to use for pip installs and whether
// the environment is runnable at all. Environments without a basepython
// need no interpreter.
func (r *Runner) interpreterFor(env *toxfile.Env) (string, bool) {
	if env.BasePython == "" {
		return "", true
	}

	res, probed := r.opts.Interpreters[env.BasePython]
	if !probed {
		// Nothing probed for this run; trust PATH at execution time.
		return env.BasePython, true
	}
	if !res.Found {
		return "", false
	}
	return res.Path, true
}

func (r *Runner) workdir(env *toxfile.Env) (string, error) {
	if env.Changedir == "" {
		return r.opts.Toxinidir, nil
	}

	dir, err := r.resolver.Resolve(env.Changedir)
	if err != nil {
		return "", fmt.Errorf("resolving changedir %q: %w", env.Changedir, err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("changedir %q does not exist", dir)
	}

	return dir, nil
}

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	bracketStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// styledHeader renders the divider line printed before each command.
func styledHeader(label, name string, terminalWidth int) string {
	leftPart := fmt.Sprintf("%s %s%s%s %s ",
		dividerStyle.Render("--"),
		bracketStyle.Render("["),
		labelStyle.Render(label),
		bracketStyle.Render("]"),
		nameStyle.Render(name),
	)

	// Approximate visible length, excluding ANSI codes: "-- [label] name "
	visibleLength := 4 + len(label) + len(name) + 4

	remainingSpace := max(terminalWidth-visibleLength, 0)

	divider := dividerStyle.Render(strings.Repeat("-", remainingSpace))
	return leftPart + divider
}
