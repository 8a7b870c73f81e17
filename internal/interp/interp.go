// Package interp locates the interpreters test environments declare through
// basepython.
package interp

import (
	"os/exec"
	"sort"
	"sync"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// Resolution is the outcome of probing for one basepython value.
type Resolution struct {
	BasePython string
	Path       string
	Found      bool
}

// Probe looks up every distinct basepython on PATH. Lookups run in
// parallel; an environment with an empty basepython needs no interpreter
// and is not probed.
func Probe(basepythons []string) map[string]Resolution {
	distinct := make(map[string]bool)
	for _, bp := range basepythons {
		if bp != "" {
			distinct[bp] = true
		}
	}

	results := make(map[string]Resolution, len(distinct))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for bp := range distinct {
		wg.Add(1)
		go func() {
			defer wg.Done()

			path, err := exec.LookPath(bp)
			res := Resolution{BasePython: bp, Path: path, Found: err == nil}

			mu.Lock()
			results[bp] = res
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

var spinnerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("10")) // Green

// Discover wraps Probe with a spinner for interactive use.
func Discover(basepythons []string) map[string]Resolution {
	var results map[string]Resolution

	spin := spinner.New().
		Type(spinner.Line).
		Style(spinnerStyle).
		Title(" Locating interpreters").
		Action(func() {
			results = Probe(basepythons)
		})

	if err := spin.Run(); err != nil {
		// The spinner is cosmetic; fall back to a plain probe.
		log.Debug().Err(err).Msg("spinner failed, probing without it")
		if results == nil {
			results = Probe(basepythons)
		}
	}

	missing := Missing(results)
	if len(missing) > 0 {
		log.Warn().Strs("interpreters", missing).Msg("interpreters not found on PATH")
	}

	return results
}

// Missing returns the basepython values that could not be resolved, sorted
// for stable output.
func Missing(results map[string]Resolution) []string {
	var missing []string
	for bp, res := range results {
		if !res.Found {
			missing = append(missing, bp)
		}
	}
	sort.Strings(missing)
	return missing
}
