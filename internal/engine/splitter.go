package engine

import "strings"

// minFragmentLength filters out separator debris after splitting.
const minFragmentLength = 10

var entrySeparators = []string{"\n\n", "\n---", "\n***", "\n==="}

// entryTriggers are line prefixes/keywords that start a new entry when a
// multi-line message has no explicit separators.
var entryTriggers = []string{"client:", "sold", "bought", "purchase"}

// SplitEntries breaks one message into candidate entries. Explicit
// separators (blank line, ---, ***, ===) take priority; when they yield a
// single candidate and the text spans multiple lines, the lines are
// regrouped into entries anchored at keyword triggers.
func SplitEntries(text string) []string {
	entries := []string{text}
	for _, sep := range entrySeparators {
		var next []string
		for _, e := range entries {
			next = append(next, strings.Split(e, sep)...)
		}
		entries = next
	}

	cleaned := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if len(e) > minFragmentLength {
			cleaned = append(cleaned, e)
		}
	}

	if len(cleaned) <= 1 && strings.Contains(text, "\n") {
		if regrouped := regroupByTrigger(text); len(regrouped) > 1 {
			return regrouped
		}
	}

	return cleaned
}

// regroupByTrigger walks the lines of text, starting a new entry whenever a
// line opens with a known trigger keyword or a blank line ends the current
// group.
func regroupByTrigger(text string) []string {
	var entries []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			entries = append(entries, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case hasTrigger(line):
			flush()
			current = append(current, line)
		default:
			current = append(current, line)
		}
	}
	flush()

	return entries
}

func hasTrigger(line string) bool {
	lower := strings.ToLower(line)
	for _, t := range entryTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// DetectBatch reports whether a message likely contains multiple entries.
// At least two of the five indicators must fire.
func DetectBatch(text string) bool {
	indicators := 0

	if strings.Count(text, "\n\n") >= 1 {
		indicators++
	}
	if strings.Count(text, "Client:") > 1 {
		indicators++
	}
	lower := strings.ToLower(text)
	if strings.Count(lower, "sold")+strings.Count(lower, "bought") > 1 {
		indicators++
	}
	if len(strings.Split(text, "\n")) > 6 {
		indicators++
	}
	for _, sep := range []string{"---", "***", "==="} {
		if strings.Contains(text, sep) {
			indicators++
			break
		}
	}

	return indicators >= 2
}
