package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/toxfile"
	"github.com/hay-kot/tenv/pkgs/printer"
)

type CheckCmd struct {
	coreFlags *core.Flags
	flags     struct {
		Strict bool
	}
}

func NewCheckCmd(coreFlags *core.Flags) *CheckCmd {
	return &CheckCmd{coreFlags: coreFlags}
}

func (cc *CheckCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:  "check",
		Usage: "Validate the tox.ini configuration",
		Description: `Parse the configuration, resolve every environment, and report schema
 problems. Unrecognized keys are warnings; anything that would make an
 environment unrunnable is an error. The exit code is non-zero when errors
 are found, or with --strict when anything at all is found.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "treat warnings as errors",
				Destination: &cc.flags.Strict,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := setupEnv(cc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			return cc.check(cfg)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (cc *CheckCmd) check(cfg *toxfile.File) error {
	issues := cfg.Validate()

	var errors, warnings []printer.KeyValueError
	for _, issue := range issues {
		kv := printer.KeyValueError{Key: issue.Coordinate(), Error: issue.Message}
		if issue.Severity == toxfile.SeverityError {
			errors = append(errors, kv)
		} else {
			warnings = append(warnings, kv)
		}
	}

	if len(warnings) > 0 {
		printer.KeyValueValidationError("Warnings", warnings)
	}
	if len(errors) > 0 {
		printer.KeyValueValidationError("Errors", errors)
	}

	failing := len(errors)
	if cc.flags.Strict {
		failing += len(warnings)
	}

	if failing > 0 {
		return fmt.Errorf("%s has %d problem(s)", cc.coreFlags.ConfigFilePath, failing)
	}

	printer.StatusList("", []printer.StatusListItem{
		{Ok: true, Status: fmt.Sprintf("%s is valid (%d environments)", cc.coreFlags.ConfigFilePath, len(cfg.EnvNames()))},
	})

	return nil
}
