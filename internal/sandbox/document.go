// Package sandbox turns stored widget code into an isolated rendering surface.
//
// Code is opaque text: nothing here parses, validates or rewrites the widget
// source. The package only decides how the source is wrapped and which
// capabilities the browser grants the frame that displays it.
package sandbox

import (
	"strings"
)

// documentHead is the shell injected around code fragments. Stored templates
// were authored against these exact rules, so they must not drift.
const documentHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { background: transparent; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; }
</style>
</head>
<body>
`

const documentTail = `
</body>
</html>`

// EmptyStateDocument is served in place of a sandbox when a widget has no code.
const EmptyStateDocument = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { margin: 0; display: flex; align-items: center; justify-content: center; height: 100vh; background: transparent; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #888; }
</style>
</head>
<body>
<p data-empty-state="true">No code yet. Open the editor or ask the AI builder to create this widget.</p>
</body>
</html>`

// IsFullDocument reports whether code already carries its own document shell.
func IsFullDocument(code string) bool {
	prefix := strings.ToLower(strings.TrimSpace(code))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

// WrapDocument returns code unchanged when it is a full document and
// otherwise embeds it verbatim as the body of the standard shell.
func WrapDocument(code string) string {
	if IsFullDocument(code) {
		return code
	}

	var b strings.Builder
	b.Grow(len(documentHead) + len(code) + len(documentTail))
	b.WriteString(documentHead)
	b.WriteString(code)
	b.WriteString(documentTail)
	return b.String()
}

// IsBlank reports whether code has nothing worth rendering.
func IsBlank(code string) bool {
	return strings.TrimSpace(code) == ""
}
