package toxfile

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// SplitCommands parses a commands value into one argv per logical line.
// A trailing backslash continues a command onto the next line; blank lines
// and lines starting with '#' are skipped.
func SplitCommands(value string) ([][]string, error) {
	var argvs [][]string
	var pending string

	parse := func(line string) error {
		if line == "" || strings.HasPrefix(line, "#") {
			return nil
		}

		argv, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("parsing command %q: %w", line, err)
		}
		if len(argv) > 0 {
			argvs = append(argvs, argv)
		}
		return nil
	}

	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if pending != "" {
			line = pending + " " + line
			pending = ""
		}

		if strings.HasSuffix(line, "\\") {
			pending = strings.TrimSpace(strings.TrimSuffix(line, "\\"))
			continue
		}

		if err := parse(line); err != nil {
			return nil, err
		}
	}

	// A continuation on the final line has nothing to join with; parse it
	// as its own command.
	if err := parse(pending); err != nil {
		return nil, err
	}

	return argvs, nil
}
