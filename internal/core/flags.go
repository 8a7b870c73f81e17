// Package core holds shared state for the CLI commands.
package core

// EnvPrefix namespaces every environment variable read by the CLI.
const EnvPrefix = "TENV_"

// Flags are the global flags shared by all commands. The values are
// populated by urfave/cli flag destinations before any command runs.
type Flags struct {
	LogLevel       string
	ConfigFilePath string
}
