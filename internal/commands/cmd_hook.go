package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/tenv/internal/core"
)

type HookCmd struct {
	coreFlags *core.Flags
}

func NewHookCmd(coreFlags *core.Flags) *HookCmd {
	return &HookCmd{coreFlags: coreFlags}
}

func (hc *HookCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "hook",
			Usage: "manage git hooks for tenv",
			Commands: []*cli.Command{
				{
					Name:  "install",
					Usage: "install a git pre-commit hook that validates the configuration",
					Description: `Installs a pre-commit hook that runs 'tenv check' before each commit so
a broken tox.ini never lands in the repository.

If a pre-commit hook already exists, the tenv check is appended to it.`,
					Action: hc.install,
				},
				{
					Name:  "uninstall",
					Usage: "remove the tenv pre-commit hook",
					Description: `Removes the tenv section from .git/hooks/pre-commit. Only lines added by
'tenv hook install' are touched.`,
					Action: hc.uninstall,
				},
			},
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (hc *HookCmd) install(ctx context.Context, cmd *cli.Command) error {
	gitDir, err := findGitDir()
	if err != nil {
		return fmt.Errorf("failed to find .git directory: %w", err)
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	hookPath := filepath.Join(hooksDir, "pre-commit")

	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	tenvPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get tenv executable path: %w", err)
	}

	// Prefer a git-root relative config path so the hook survives clones.
	configPath := hc.coreFlags.ConfigFilePath
	gitRoot := filepath.Dir(gitDir)
	if relPath, err := filepath.Rel(gitRoot, configPath); err == nil && !strings.HasPrefix(relPath, "..") {
		configPath = relPath
	}

	tenvHook := fmt.Sprintf(`
# tenv pre-commit hook - validate environment configuration
%s --config="%s" check || exit 1
`, tenvPath, configPath)

	var hookContent string

	if existingContent, err := os.ReadFile(hookPath); err == nil {
		if strings.Contains(string(existingContent), "tenv pre-commit hook") {
			log.Info().Str("path", hookPath).Msg("tenv pre-commit hook already installed")
			return nil
		}

		hookContent = string(existingContent) + tenvHook
		log.Info().Str("path", hookPath).Msg("appending tenv check to existing pre-commit hook")
	} else {
		hookContent = "#!/bin/sh\n" + tenvHook
		log.Info().Str("path", hookPath).Msg("creating new pre-commit hook with tenv check")
	}

	if err := os.WriteFile(hookPath, []byte(hookContent), 0755); err != nil {
		return fmt.Errorf("failed to write pre-commit hook: %w", err)
	}

	log.Info().Msg("installed pre-commit hook successfully")
	return nil
}

func (hc *HookCmd) uninstall(ctx context.Context, cmd *cli.Command) error {
	gitDir, err := findGitDir()
	if err != nil {
		return fmt.Errorf("failed to find .git directory: %w", err)
	}

	hookPath := filepath.Join(gitDir, "hooks", "pre-commit")

	content, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		log.Info().Msg("no pre-commit hook found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read pre-commit hook: %w", err)
	}

	if !strings.Contains(string(content), "tenv pre-commit hook") {
		log.Info().Msg("tenv hook not found in pre-commit")
		return nil
	}

	// Drop the marker comment line and the check invocation it guards.
	lines := strings.Split(string(content), "\n")
	var newLines []string
	inTenvSection := false

	for _, line := range lines {
		if strings.Contains(line, "tenv pre-commit hook") {
			inTenvSection = true
			continue
		}
		if inTenvSection && strings.Contains(line, " check") {
			inTenvSection = false
			continue
		}

		newLines = append(newLines, line)
	}

	newContent := strings.Join(newLines, "\n")

	trimmed := strings.TrimSpace(newContent)
	if trimmed == "" || trimmed == "#!/bin/sh" {
		if err := os.Remove(hookPath); err != nil {
			return fmt.Errorf("failed to remove pre-commit hook: %w", err)
		}
		log.Info().Str("path", hookPath).Msg("removed empty pre-commit hook")
		return nil
	}

	if err := os.WriteFile(hookPath, []byte(newContent), 0755); err != nil {
		return fmt.Errorf("failed to write pre-commit hook: %w", err)
	}

	log.Info().Str("path", hookPath).Msg("removed tenv section from pre-commit hook")
	return nil
}

// findGitDir walks up from the current directory looking for .git.
func findGitDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return gitDir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository")
		}
		dir = parent
	}
}
