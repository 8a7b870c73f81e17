// Package commands contains the CLI commands for the application
package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hay-kot/tenv/internal/toxfile"
)

// setupEnv loads the tox.ini and makes its directory the working directory,
// so relative paths inside the file behave the same no matter where the
// command was invoked from.
func setupEnv(cfgpath string) (*toxfile.File, error) {
	absolutePath, err := filepath.Abs(cfgpath)
	if err != nil {
		return nil, err
	}

	configDir := filepath.Dir(absolutePath)
	err = os.Chdir(configDir)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("cwd", configDir).Msg("setting working directory to config dir")

	return toxfile.Load(absolutePath)
}

// toxfileResolveDefaults is the resolution used by display-only commands:
// no posargs, and unset {env:VAR} references collapse to empty instead of
// erroring, since nothing is executed.
func toxfileResolveDefaults() toxfile.ResolveOptions {
	return toxfile.ResolveOptions{
		LookupEnv: func(name string) (string, bool) {
			v, ok := os.LookupEnv(name)
			if !ok {
				return "", true
			}
			return v, ok
		},
	}
}
