package toxfile

import "strings"

// ParseEnvlist splits an envlist value into environment names. Entries are
// separated by commas or newlines, and generative brace groups expand into
// their cross product: "py{27,36}-{lin,win}" yields four names. Duplicates
// are dropped, first occurrence wins.
func ParseEnvlist(value string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, entry := range envlistEntries(value) {
		for _, name := range expandBraces(entry) {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}

	return out
}

// envlistEntries splits on commas and newlines, except commas inside a
// brace group. An empty entry between commas is kept so validation can
// report it; blank lines and trailing separators produce no entry.
func envlistEntries(value string) []string {
	var entries []string
	var current strings.Builder
	depth := 0

	flush := func(keepEmpty bool) {
		entry := strings.TrimSpace(current.String())
		if entry != "" || keepEmpty {
			entries = append(entries, entry)
		}
		current.Reset()
	}

	for _, r := range value {
		switch {
		case r == '{':
			depth++
			current.WriteRune(r)
		case r == '}':
			if depth > 0 {
				depth--
			}
			current.WriteRune(r)
		case r == ',' && depth == 0:
			flush(true)
		case r == '\n':
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	flush(false)

	return entries
}

func expandBraces(entry string) []string {
	open := strings.IndexByte(entry, '{')
	if open < 0 {
		return []string{entry}
	}

	close := strings.IndexByte(entry[open:], '}')
	if close < 0 {
		// Unbalanced brace, keep the entry verbatim and let validation
		// surface it.
		return []string{entry}
	}
	close += open

	var out []string
	for _, alt := range strings.Split(entry[open+1:close], ",") {
		expanded := entry[:open] + strings.TrimSpace(alt) + entry[close+1:]
		out = append(out, expandBraces(expanded)...)
	}

	return out
}
