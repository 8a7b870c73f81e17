package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/pkgs/styles"
)

type ListCmd struct {
	coreFlags *core.Flags
}

func NewListCmd(coreFlags *core.Flags) *ListCmd {
	return &ListCmd{coreFlags: coreFlags}
}

func (lc *ListCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the test environments defined in tox.ini",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := setupEnv(lc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			envs, err := cfg.ResolveAll(toxfileResolveDefaults())
			if err != nil {
				return err
			}

			inEnvlist := make(map[string]bool, len(cfg.Core.Envlist))
			for _, name := range cfg.Core.Envlist {
				inEnvlist[name] = true
			}

			headerStyle := lipgloss.NewStyle().Bold(true)
			subtleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.ColorSubtle))

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(subtleStyle).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return lipgloss.NewStyle()
				}).
				Headers("ENVIRONMENT", "DEFAULT", "BASEPYTHON", "LABELS", "DESCRIPTION")

			for _, env := range envs {
				def := ""
				if inEnvlist[env.Name] {
					def = styles.Check
				}

				t.Row(env.Name, def, env.BasePython, strings.Join(env.Labels, ", "), env.Description)
			}

			fmt.Println(t)
			return nil
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}
