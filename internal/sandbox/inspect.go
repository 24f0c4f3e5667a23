package sandbox

import "strings"

var escapePatterns = []struct {
	pattern string
	warning string
}{
	{"allow-same-origin", "requests allow-same-origin for a nested frame"},
	{"allow-top-navigation", "requests allow-top-navigation for a nested frame"},
	{"document.domain", "modifies document.domain"},
	{"parent.document", "reads the parent document"},
	{"top.document", "reads the top document"},
	{"top.location", "navigates the top-level page"},
	{"document.cookie", "reads cookies"},
	{"localstorage", "uses localStorage"},
	{"sessionstorage", "uses sessionStorage"},
	{"indexeddb", "uses IndexedDB"},
}

// Inspect lists constructs in code that the sandbox will block or that only
// work in same-origin previews. The report is advisory; code is never altered.
func Inspect(code string) []string {
	var warnings []string
	lower := strings.ToLower(code)

	for _, p := range escapePatterns {
		if strings.Contains(lower, p.pattern) {
			warnings = append(warnings, p.warning)
		}
	}

	return warnings
}
