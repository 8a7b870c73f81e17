// Package report serializes the outcome of a run for machine consumption.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/hay-kot/tenv/internal/runner"
)

type Run struct {
	ID        string    `yaml:"id"`
	Version   string    `yaml:"version"`
	Config    string    `yaml:"config"`
	StartedAt time.Time `yaml:"started_at"`
	Duration  string    `yaml:"duration"`

	Environments []Environment `yaml:"environments"`
}

type Environment struct {
	Name     string    `yaml:"name"`
	Status   string    `yaml:"status"`
	Reason   string    `yaml:"reason,omitempty"`
	Duration string    `yaml:"duration"`
	Commands []Command `yaml:"commands,omitempty"`
}

type Command struct {
	Command  string `yaml:"command"`
	ExitCode int    `yaml:"exit_code"`
	Duration string `yaml:"duration"`
}

// New starts a report for a run. Every run gets a fresh UUID so reports
// from repeated CI invocations stay distinguishable.
func New(version, configPath string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Version:   version,
		Config:    configPath,
		StartedAt: time.Now().UTC(),
	}
}

// Finish records the per-environment results and the total wall time.
func (r *Run) Finish(results []runner.EnvResult) {
	r.Duration = time.Since(r.StartedAt).Round(time.Millisecond).String()

	r.Environments = make([]Environment, 0, len(results))
	for _, res := range results {
		env := Environment{
			Name:     res.Name,
			Status:   string(res.Status),
			Reason:   res.Reason,
			Duration: res.Duration.Round(time.Millisecond).String(),
		}

		for _, cmd := range res.Commands {
			env.Commands = append(env.Commands, Command{
				Command:  strings.Join(cmd.Argv, " "),
				ExitCode: cmd.ExitCode,
				Duration: cmd.Duration.Round(time.Millisecond).String(),
			})
		}

		r.Environments = append(r.Environments, env)
	}
}

// WriteFile marshals the report as YAML to path.
func (r *Run) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
