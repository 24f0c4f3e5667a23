package generation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultTitle  = "Custom Widget"
	maxTitleRunes = 40
)

// Result is the outcome of a completed generation.
type Result struct {
	Code            string
	Title           string
	MalformedFrames int
}

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*[ \t]*\r?\n(.*?)\r?\n?```$")
	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// ExtractCode removes a markdown code fence wrapped around the whole output.
// Anything else is returned as-is, minus surrounding whitespace.
func ExtractCode(output string) string {
	trimmed := strings.TrimSpace(output)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return trimmed
}

// InferTitle picks the widget title: explicit backend title, then the title
// the user already had, then the document <title>, then the instruction.
func InferTitle(explicit, prior, code, message string) string {
	for _, candidate := range []string{explicit, prior} {
		if t := strings.TrimSpace(candidate); t != "" {
			return t
		}
	}
	if m := titlePattern.FindStringSubmatch(code); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return truncate(t)
		}
	}
	if line := firstLine(message); line != "" {
		return truncate(line)
	}
	return DefaultTitle
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxTitleRunes-3])) + "..."
}
