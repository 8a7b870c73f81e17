package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/toxfile"
	"github.com/hay-kot/tenv/pkgs/styles"
)

type ConfigCmd struct {
	coreFlags *core.Flags
}

func NewConfigCmd(coreFlags *core.Flags) *ConfigCmd {
	return &ConfigCmd{coreFlags: coreFlags}
}

func (cc *ConfigCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "config",
		Usage:     "Show fully resolved environment configuration",
		ArgsUsage: "[env...]",
		Description: `Print environments with inheritance, factor conditions, and
 substitutions applied. With no arguments every environment is shown,
 followed by the tool sections ([pycodestyle], [flake8], ...) the file
 carries for external tools.`,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := setupEnv(cc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			names := c.Args().Slice()
			showTools := len(names) == 0
			if len(names) == 0 {
				names = cfg.EnvNames()
			}

			for i, name := range names {
				env, err := cfg.ResolveEnv(name, toxfileResolveDefaults())
				if err != nil {
					return err
				}

				if i > 0 {
					fmt.Println()
				}
				printEnvConfig(os.Stdout, env)
			}

			if showTools {
				for _, ts := range cfg.Tools() {
					fmt.Println()
					printToolConfig(os.Stdout, ts)
				}
			}

			return nil
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func printEnvConfig(w io.Writer, env *toxfile.Env) {
	fmt.Fprintln(w, styles.Underline(styles.Bold("[testenv:"+env.Name+"]")))

	field := func(key, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s = %s\n", styles.Padding(key), value)
		}
	}

	field("description", env.Description)
	field("basepython", env.BasePython)
	field("deps", strings.Join(env.Deps, ", "))
	field("extras", strings.Join(env.Extras, ", "))
	field("changedir", env.Changedir)
	field("labels", strings.Join(env.Labels, ", "))
	field("passenv", strings.Join(env.Passenv, ", "))
	field("whitelist_externals", strings.Join(env.AllowedExternals, ", "))
	if env.SkipInstall {
		field("skip_install", "true")
	}

	for _, k := range slices.Sorted(maps.Keys(env.Setenv)) {
		field("setenv."+k, env.Setenv[k])
	}

	if len(env.Commands) > 0 {
		fmt.Fprintln(w, styles.Padding("commands ="))
		for _, argv := range env.Commands {
			fmt.Fprintln(w, styles.Subtle("  "+strings.Join(argv, " ")))
		}
	}
}

// printToolConfig renders a non-testenv section, keys in declaration order.
func printToolConfig(w io.Writer, ts *toxfile.ToolSection) {
	fmt.Fprintln(w, styles.Underline(styles.Bold("["+ts.Name+"]")))

	for _, kv := range ts.Keys {
		fmt.Fprintf(w, "%s = %s\n", styles.Padding(kv.Key), kv.Value)
	}
}
