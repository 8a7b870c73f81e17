package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/interp"
	"github.com/hay-kot/tenv/internal/report"
	"github.com/hay-kot/tenv/internal/runner"
	"github.com/hay-kot/tenv/internal/secrets"
	"github.com/hay-kot/tenv/internal/toxfile"
	"github.com/hay-kot/tenv/pkgs/printer"
)

type RunCmd struct {
	coreFlags *core.Flags
	version   string
	flags     struct {
		Envs        []string
		List        bool
		Parallel    int
		FailMissing bool
		Install     bool
		Report      string
	}
	expr    string
	posargs []string
}

func NewRunCmd(coreFlags *core.Flags, version string) *RunCmd {
	return &RunCmd{
		coreFlags: coreFlags,
		version:   version,
	}
}

func (rc *RunCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "run",
		Usage:     "Execute the test environments defined in tox.ini",
		ArgsUsage: "[expression] [posargs...]",
		Description: `Execute test environments from the tox.ini configuration file.
 Environments can be selected by name, filtered with expressions, or picked
 interactively.

 Examples:
	 tenv run                                  # envlist (interactive on a terminal)
	 tenv run -e py36,lint                     # run specific environments
	 tenv run 'hasPrefix(name, "py")'          # run all pyXX environments
	 tenv run '+ci !slow'                      # select by labels
	 tenv run --list '+ci'                     # list matches without executing
	 tenv run -e py36 -- -k test_foo           # pass posargs through {posargs}

 Expression variables:
	 - name: environment name
	 - basepython: resolved interpreter name
	 - labels: array of labels
	 - factors: array of name factors (py36-lint has py36 and lint)`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "env",
				Aliases:     []string{"e"},
				Usage:       "environment name(s) to run",
				Destination: &rc.flags.Envs,
			},
			&cli.BoolFlag{
				Name:        "list",
				Aliases:     []string{"ls"},
				Usage:       "list matching environments without executing them",
				Destination: &rc.flags.List,
			},
			&cli.IntFlag{
				Name:        "parallel",
				Aliases:     []string{"p"},
				Usage:       "run up to N environments concurrently",
				Value:       1,
				Destination: &rc.flags.Parallel,
			},
			&cli.BoolFlag{
				Name:        "fail-missing",
				Usage:       "treat a missing interpreter as a failure instead of a skip",
				Destination: &rc.flags.FailMissing,
			},
			&cli.BoolFlag{
				Name:        "install",
				Usage:       "pip install each environment's deps before running commands",
				Destination: &rc.flags.Install,
			},
			&cli.StringFlag{
				Name:        "report",
				Usage:       "write a YAML run report to the given path",
				Destination: &rc.flags.Report,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := setupEnv(rc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			args := c.Args().Slice()
			switch {
			case len(rc.flags.Envs) > 0:
				// Explicit -e selection: every positional arg is a posarg.
				rc.posargs = args
			case len(args) > 0:
				rc.expr = args[0]
				rc.posargs = args[1:]
			}

			log.Debug().
				Bool("list", rc.flags.List).
				Str("expr", rc.expr).
				Strs("envs", rc.flags.Envs).
				Strs("posargs", rc.posargs).
				Msg("run cmd")

			return rc.run(ctx, cfg)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (rc *RunCmd) run(ctx context.Context, cfg *toxfile.File) error {
	envs, err := cfg.ResolveAll(toxfile.ResolveOptions{Posargs: rc.posargs})
	if err != nil {
		return err
	}

	selected, err := rc.selection(cfg, envs)
	if err != nil {
		return err
	}

	if len(selected) == 0 {
		fmt.Println("No environments selected")
		return nil
	}

	if rc.flags.List {
		items := make([]string, 0, len(selected))
		for _, env := range selected {
			items = append(items, describeEnv(env))
		}
		printer.List("Environments", items)
		return nil
	}

	// Get terminal width
	terminalWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		// Fallback to a default width if unable to get terminal size
		terminalWidth = 80
	}

	basepythons := make([]string, 0, len(selected))
	for _, env := range selected {
		basepythons = append(basepythons, env.BasePython)
	}
	interpreters := interp.Discover(basepythons)

	secretVals, err := secrets.Load(cfg.Secrets, core.NewPathResolver(cfg.Dir))
	if err != nil {
		return err
	}

	run := report.New(rc.version, cfg.Path)

	r := runner.New(runner.Options{
		Toxinidir:     cfg.Dir,
		TerminalWidth: terminalWidth,
		Parallel:      rc.flags.Parallel,
		FailMissing:   rc.flags.FailMissing,
		InstallDeps:   rc.flags.Install,
		Interpreters:  interpreters,
		Secrets:       secretVals,
	})

	results, runErr := r.Run(ctx, selected)
	run.Finish(results)

	items := make([]printer.StatusListItem, 0, len(results))
	for _, res := range results {
		items = append(items, printer.StatusListItem{
			Ok:      res.Status != runner.StatusFailed,
			Skipped: res.Status == runner.StatusSkipped,
			Status:  res.Summary(),
		})
	}
	printer.LineBreak()
	printer.StatusList("Results", items)

	if rc.flags.Report != "" {
		if err := run.WriteFile(rc.flags.Report); err != nil {
			return err
		}
		log.Info().Str("path", rc.flags.Report).Msg("wrote run report")
	}

	if runErr != nil {
		return runErr
	}

	if failed := runner.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d environments failed", failed, len(results))
	}

	return nil
}

// selection determines which environments to run: explicit -e names win,
// then an expression, then an interactive pick on a terminal, and finally
// the envlist.
func (rc *RunCmd) selection(cfg *toxfile.File, envs []*toxfile.Env) ([]*toxfile.Env, error) {
	byName := make(map[string]*toxfile.Env, len(envs))
	for _, env := range envs {
		byName[env.Name] = env
	}

	if len(rc.flags.Envs) > 0 {
		var selected []*toxfile.Env
		for _, spec := range rc.flags.Envs {
			for _, name := range strings.Split(spec, ",") {
				name = strings.TrimSpace(name)
				env, ok := byName[name]
				if !ok {
					return nil, fmt.Errorf("environment %q is not defined in %s", name, rc.coreFlags.ConfigFilePath)
				}
				selected = append(selected, env)
			}
		}
		return selected, nil
	}

	if rc.expr != "" {
		return selectEnvs(envs, rc.expr)
	}

	if !rc.flags.List && term.IsTerminal(int(os.Stdin.Fd())) {
		return rc.selectInteractive(envs)
	}

	// Non-interactive default: the envlist.
	var selected []*toxfile.Env
	for _, name := range cfg.Core.Envlist {
		if env, ok := byName[name]; ok {
			selected = append(selected, env)
		}
	}
	return selected, nil
}

func (rc *RunCmd) selectInteractive(envs []*toxfile.Env) ([]*toxfile.Env, error) {
	byName := make(map[string]*toxfile.Env, len(envs))
	options := make([]huh.Option[string], 0, len(envs))

	for _, env := range envs {
		byName[env.Name] = env
		options = append(options, huh.NewOption(describeEnv(env), env.Name))
	}

	var picked []string
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Select Environments to Run").
			Options(options...).
			Value(&picked),
	))

	if err := form.Run(); err != nil {
		return nil, err
	}

	selected := make([]*toxfile.Env, 0, len(picked))
	for _, name := range picked {
		selected = append(selected, byName[name])
	}
	return selected, nil
}

func describeEnv(env *toxfile.Env) string {
	desc := env.Name
	if env.BasePython != "" {
		desc += " (" + env.BasePython + ")"
	}
	if len(env.Labels) > 0 {
		desc += " [" + strings.Join(env.Labels, ", ") + "]"
	}
	return desc
}
